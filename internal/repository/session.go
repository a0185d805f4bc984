package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/localhero/hero_finder/internal/service"
	"github.com/redis/go-redis/v9"
)

// SessionStore хранит сессии в Redis: session:<token> -> user_id с TTL
type SessionStore struct {
	redisClient *redis.Client
}

func NewSessionStore(client *redis.Client) service.SessionStore {
	return &SessionStore{
		redisClient: client,
	}
}

func sessionKey(token string) string {
	return fmt.Sprintf("session:%s", token)
}

// Save сохраняет сессию с временем жизни
func (s *SessionStore) Save(ctx context.Context, token string, userID uuid.UUID, ttl time.Duration) error {
	if err := s.redisClient.Set(ctx, sessionKey(token), userID.String(), ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Resolve возвращает пользователя по токену.
// Отсутствующий или истекший токен - ErrInvalidCredentials.
func (s *SessionStore) Resolve(ctx context.Context, token string) (uuid.UUID, error) {
	val, err := s.redisClient.Get(ctx, sessionKey(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return uuid.Nil, service.ErrInvalidCredentials
		}
		return uuid.Nil, fmt.Errorf("failed to resolve session: %w", err)
	}

	userID, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to parse session user id: %w", err)
	}
	return userID, nil
}

// Revoke удаляет сессию
func (s *SessionStore) Revoke(ctx context.Context, token string) error {
	if err := s.redisClient.Del(ctx, sessionKey(token)).Err(); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}
