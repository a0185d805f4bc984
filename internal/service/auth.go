package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/localhero/hero_finder/internal/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// UserRepository определяет контракт для работы с учетными записями
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// SessionStore хранит выданные сессии (токен -> пользователь) с TTL
type SessionStore interface {
	Save(ctx context.Context, token string, userID uuid.UUID, ttl time.Duration) error
	Resolve(ctx context.Context, token string) (uuid.UUID, error)
	Revoke(ctx context.Context, token string) error
}

// AuthService определяет контракт идентификации:
// регистрация, вход, выход и разбор сессии из токена
type AuthService interface {
	SignUp(ctx context.Context, email, password, fullName string) (*models.Session, error)
	SignIn(ctx context.Context, email, password string) (*models.Session, error)
	SignOut(ctx context.Context, token string) error
	ResolveSession(ctx context.Context, token string) (uuid.UUID, error)
}

type authService struct {
	users      UserRepository
	responders ResponderRepository
	sessions   SessionStore
	sessionTTL time.Duration
	logger     *logrus.Logger
}

func NewAuthService(users UserRepository, responders ResponderRepository, sessions SessionStore, sessionTTL time.Duration, logger *logrus.Logger) AuthService {
	return &authService{
		users:      users,
		responders: responders,
		sessions:   sessions,
		sessionTTL: sessionTTL,
		logger:     logger,
	}
}

// SignUp регистрирует пользователя и сразу выдает сессию.
// Каждый новый пользователь получает базовую роль requester.
func (s *authService) SignUp(ctx context.Context, email, password, fullName string) (*models.Session, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service": "auth",
		"method":  "SignUp",
	})

	email = strings.ToLower(strings.TrimSpace(email))

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("service: could not hash password: %w", err)
	}

	user := &models.User{
		Email:        email,
		FullName:     fullName,
		PasswordHash: string(hash),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			log.Info("Signup rejected: email already registered")
			return nil, ErrEmailTaken
		}
		log.WithError(err).Error("Failed to create user")
		return nil, fmt.Errorf("service: could not create user: %w", err)
	}

	if err := s.responders.AddRole(ctx, user.ID, models.RoleRequester); err != nil {
		log.WithError(err).Error("Failed to grant requester role")
		return nil, fmt.Errorf("service: could not grant requester role: %w", err)
	}

	session, err := s.issueSession(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	log.WithField("user_id", user.ID).Info("User signed up")
	return session, nil
}

// SignIn проверяет учетные данные и выдает сессию
func (s *authService) SignIn(ctx context.Context, email, password string) (*models.Session, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service": "auth",
		"method":  "SignIn",
	})

	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		log.Info("Signin rejected: unknown email")
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		log.WithField("user_id", user.ID).Info("Signin rejected: wrong password")
		return nil, ErrInvalidCredentials
	}

	session, err := s.issueSession(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	log.WithField("user_id", user.ID).Info("User signed in")
	return session, nil
}

// SignOut отзывает сессию. Отзыв несуществующего токена не ошибка.
func (s *authService) SignOut(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.sessions.Revoke(ctx, token); err != nil {
		return fmt.Errorf("service: could not revoke session: %w", err)
	}
	return nil
}

// ResolveSession возвращает пользователя по токену сессии
func (s *authService) ResolveSession(ctx context.Context, token string) (uuid.UUID, error) {
	if token == "" {
		return uuid.Nil, ErrNotAuthenticated
	}
	userID, err := s.sessions.Resolve(ctx, token)
	if err != nil {
		return uuid.Nil, ErrNotAuthenticated
	}
	return userID, nil
}

func (s *authService) issueSession(ctx context.Context, userID uuid.UUID) (*models.Session, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("service: could not generate session token: %w", err)
	}
	token := hex.EncodeToString(buf)

	if err := s.sessions.Save(ctx, token, userID, s.sessionTTL); err != nil {
		return nil, fmt.Errorf("service: could not save session: %w", err)
	}
	return &models.Session{
		Token:     token,
		UserID:    userID,
		ExpiresAt: time.Now().UTC().Add(s.sessionTTL),
	}, nil
}
