package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/localhero/hero_finder/internal/models"
	"github.com/localhero/hero_finder/internal/service/mocks"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"
)

// newTestAuthService — вспомогательная функция для создания инстанса сервиса с моками.
func newTestAuthService(t *testing.T) (*authService, *mocks.MockUserRepository, *mocks.MockResponderRepository, *mocks.MockSessionStore) {
	ctrl := gomock.NewController(t)
	usersMock := mocks.NewMockUserRepository(ctrl)
	respondersMock := mocks.NewMockResponderRepository(ctrl)
	sessionsMock := mocks.NewMockSessionStore(ctrl)

	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{}) // Отключаем вывод логов в тестах

	service := NewAuthService(usersMock, respondersMock, sessionsMock, 24*time.Hour, logger)
	return service.(*authService), usersMock, respondersMock, sessionsMock
}

func TestSignUp_Success(t *testing.T) {
	// Подготовка
	service, usersMock, respondersMock, sessionsMock := newTestAuthService(t)
	ctx := context.Background()
	userID := uuid.New()

	// Ожидания
	usersMock.EXPECT().
		CreateUser(ctx, gomock.Any()).
		DoAndReturn(func(ctx context.Context, user *models.User) error {
			// Email нормализуется до записи
			assert.Equal(t, "hero@example.com", user.Email)
			assert.NotEqual(t, "secret123", user.PasswordHash)
			user.ID = userID
			return nil
		}).Times(1)
	respondersMock.EXPECT().AddRole(ctx, userID, models.RoleRequester).Return(nil).Times(1)
	sessionsMock.EXPECT().
		Save(ctx, gomock.Any(), userID, 24*time.Hour).
		Do(func(ctx context.Context, token string, _ uuid.UUID, _ time.Duration) {
			// 32 случайных байта в hex
			assert.Len(t, token, 64)
		}).Return(nil).Times(1)

	// Действие
	session, err := service.SignUp(ctx, "  Hero@Example.COM ", "secret123", "Test Hero")

	// Проверки
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, userID, session.UserID)
	assert.NotEmpty(t, session.Token)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), session.ExpiresAt, time.Minute)
}

func TestSignUp_EmailTaken(t *testing.T) {
	// Подготовка
	service, usersMock, _, _ := newTestAuthService(t)
	ctx := context.Background()

	// Ожидания
	usersMock.EXPECT().CreateUser(ctx, gomock.Any()).Return(ErrEmailTaken).Times(1)

	// Действие
	session, err := service.SignUp(ctx, "hero@example.com", "secret123", "Test Hero")

	// Проверки
	require.Error(t, err)
	assert.Nil(t, session)
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestSignIn_Success(t *testing.T) {
	// Подготовка
	service, usersMock, _, sessionsMock := newTestAuthService(t)
	ctx := context.Background()
	userID := uuid.New()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)

	// Ожидания
	usersMock.EXPECT().
		GetUserByEmail(ctx, "hero@example.com").
		Return(&models.User{ID: userID, Email: "hero@example.com", PasswordHash: string(hash)}, nil).
		Times(1)
	sessionsMock.EXPECT().Save(ctx, gomock.Any(), userID, 24*time.Hour).Return(nil).Times(1)

	// Действие
	session, err := service.SignIn(ctx, "Hero@Example.com", "secret123")

	// Проверки
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, userID, session.UserID)
}

func TestSignIn_WrongPassword(t *testing.T) {
	// Подготовка
	service, usersMock, _, _ := newTestAuthService(t)
	ctx := context.Background()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)

	// Ожидания
	usersMock.EXPECT().
		GetUserByEmail(ctx, "hero@example.com").
		Return(&models.User{ID: uuid.New(), PasswordHash: string(hash)}, nil).
		Times(1)

	// Действие
	session, err := service.SignIn(ctx, "hero@example.com", "wrong")

	// Проверки
	require.Error(t, err)
	assert.Nil(t, session)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSignIn_UnknownEmail(t *testing.T) {
	// Подготовка
	service, usersMock, _, _ := newTestAuthService(t)
	ctx := context.Background()

	// Ожидания
	usersMock.EXPECT().GetUserByEmail(ctx, "ghost@example.com").Return(nil, ErrInvalidCredentials).Times(1)

	// Действие
	session, err := service.SignIn(ctx, "ghost@example.com", "whatever")

	// Проверки
	require.Error(t, err)
	assert.Nil(t, session)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSignOut_EmptyTokenIsNoop(t *testing.T) {
	// Подготовка
	service, _, _, sessionsMock := newTestAuthService(t)
	ctx := context.Background()

	// Ожидания
	sessionsMock.EXPECT().Revoke(gomock.Any(), gomock.Any()).Times(0)

	// Действие
	err := service.SignOut(ctx, "")

	// Проверки
	require.NoError(t, err)
}

func TestResolveSession_Success(t *testing.T) {
	// Подготовка
	service, _, _, sessionsMock := newTestAuthService(t)
	ctx := context.Background()
	userID := uuid.New()

	// Ожидания
	sessionsMock.EXPECT().Resolve(ctx, "token123").Return(userID, nil).Times(1)

	// Действие
	resolved, err := service.ResolveSession(ctx, "token123")

	// Проверки
	require.NoError(t, err)
	assert.Equal(t, userID, resolved)
}

func TestResolveSession_InvalidToken(t *testing.T) {
	// Подготовка
	service, _, _, sessionsMock := newTestAuthService(t)
	ctx := context.Background()

	// Ожидания
	sessionsMock.EXPECT().Resolve(ctx, "expired").Return(uuid.Nil, ErrInvalidCredentials).Times(1)

	// Действие
	resolved, err := service.ResolveSession(ctx, "expired")

	// Проверки
	require.Error(t, err)
	assert.Equal(t, uuid.Nil, resolved)
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}
