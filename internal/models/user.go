package models

import (
	"time"

	"github.com/google/uuid"
)

// Роли пользователя
const (
	RoleRequester = "requester"
	RoleResponder = "responder"
)

// User - учетная запись. Хэш пароля наружу не сериализуется.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Session - выданная сессия с непрозрачным токеном
type Session struct {
	Token     string    `json:"token"`
	UserID    uuid.UUID `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}
