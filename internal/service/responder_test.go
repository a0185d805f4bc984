package service

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/localhero/hero_finder/internal/models"
	"github.com/localhero/hero_finder/internal/service/mocks"
	storage_mocks "github.com/localhero/hero_finder/internal/storage/mocks"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// newTestResponderService — вспомогательная функция для создания инстанса сервиса с моками.
func newTestResponderService(t *testing.T) (*responderService, *mocks.MockResponderRepository, *storage_mocks.MockStore) {
	ctrl := gomock.NewController(t)
	repoMock := mocks.NewMockResponderRepository(ctrl)
	storeMock := storage_mocks.NewMockStore(ctrl)

	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{}) // Отключаем вывод логов в тестах

	service := NewResponderService(repoMock, storeMock, logger)
	return service.(*responderService), repoMock, storeMock
}

func TestGetOrCreateProfile_Existing(t *testing.T) {
	// Подготовка
	service, repoMock, _ := newTestResponderService(t)
	ctx := context.Background()
	userID := uuid.New()
	existing := &models.ResponderProfile{
		UserID:             userID,
		VerificationStatus: models.VerificationVerified,
		Skills:             []string{"CPR Certified"},
	}

	// Ожидания
	repoMock.EXPECT().GetProfile(ctx, userID).Return(existing, nil).Times(1)

	// Действие
	profile, err := service.GetOrCreateProfile(ctx, userID)

	// Проверки
	require.NoError(t, err)
	assert.Equal(t, existing, profile)
}

func TestGetOrCreateProfile_LazyCreation(t *testing.T) {
	// Подготовка
	service, repoMock, _ := newTestResponderService(t)
	ctx := context.Background()
	userID := uuid.New()

	// Ожидания: профиля нет, создается оффлайн и неверифицированным
	repoMock.EXPECT().GetProfile(ctx, userID).Return(nil, ErrProfileNotFound).Times(1)
	repoMock.EXPECT().
		CreateProfile(ctx, gomock.Any()).
		Do(func(ctx context.Context, profile *models.ResponderProfile) {
			assert.Equal(t, userID, profile.UserID)
			assert.False(t, profile.AvailabilityStatus)
			assert.Equal(t, models.VerificationPending, profile.VerificationStatus)
			assert.Empty(t, profile.Skills)
		}).Return(nil).Times(1)

	// Действие
	profile, err := service.GetOrCreateProfile(ctx, userID)

	// Проверки
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.False(t, profile.AvailabilityStatus)
	assert.Equal(t, models.VerificationPending, profile.VerificationStatus)
}

func TestSetAvailability_Available_WritesAtomicTriple(t *testing.T) {
	// Подготовка
	service, repoMock, _ := newTestResponderService(t)
	ctx := context.Background()
	userID := uuid.New()
	lat, lon := 55.75, 37.61
	updated := &models.ResponderProfile{
		UserID:             userID,
		AvailabilityStatus: true,
		VerificationStatus: models.VerificationVerified,
		Latitude:           &lat,
		Longitude:          &lon,
	}

	// Ожидания: флаг и координаты уходят одним вызовом репозитория
	repoMock.EXPECT().GetProfile(ctx, userID).Return(updated, nil).Times(1)
	repoMock.EXPECT().SetAvailable(ctx, userID, lat, lon).Return(nil).Times(1)
	repoMock.EXPECT().GetProfile(ctx, userID).Return(updated, nil).Times(1)

	// Действие
	profile, err := service.SetAvailability(ctx, userID, true, &lat, &lon)

	// Проверки
	require.NoError(t, err)
	assert.True(t, profile.AvailabilityStatus)
	require.NotNil(t, profile.Latitude)
	assert.Equal(t, lat, *profile.Latitude)
}

func TestSetAvailability_Available_NoLocation(t *testing.T) {
	// Подготовка
	service, repoMock, _ := newTestResponderService(t)
	ctx := context.Background()
	userID := uuid.New()

	// Ожидания: до записи доступности дело не доходит
	repoMock.EXPECT().GetProfile(ctx, userID).Return(&models.ResponderProfile{UserID: userID}, nil).Times(1)
	repoMock.EXPECT().SetAvailable(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	// Действие
	profile, err := service.SetAvailability(ctx, userID, true, nil, nil)

	// Проверки
	require.Error(t, err)
	assert.Nil(t, profile)
	assert.ErrorIs(t, err, ErrLocationUnavailable)
}

func TestSetAvailability_Available_ZeroCoordinates(t *testing.T) {
	// Подготовка
	service, repoMock, _ := newTestResponderService(t)
	ctx := context.Background()
	userID := uuid.New()
	zero := 0.0

	// Ожидания
	repoMock.EXPECT().GetProfile(ctx, userID).Return(&models.ResponderProfile{UserID: userID}, nil).Times(1)

	// Действие
	profile, err := service.SetAvailability(ctx, userID, true, &zero, &zero)

	// Проверки
	require.Error(t, err)
	assert.Nil(t, profile)
	assert.ErrorIs(t, err, ErrLocationUnavailable)
}

func TestSetAvailability_Offline_KeepsCoordinates(t *testing.T) {
	// Подготовка
	service, repoMock, _ := newTestResponderService(t)
	ctx := context.Background()
	userID := uuid.New()
	lat, lon := 55.75, 37.61
	offline := &models.ResponderProfile{
		UserID:             userID,
		AvailabilityStatus: false,
		// Последние известные координаты остаются в профиле
		Latitude:  &lat,
		Longitude: &lon,
	}

	// Ожидания: offline не требует координат и не трогает их
	repoMock.EXPECT().GetProfile(ctx, userID).Return(offline, nil).Times(1)
	repoMock.EXPECT().SetOffline(ctx, userID).Return(nil).Times(1)
	repoMock.EXPECT().GetProfile(ctx, userID).Return(offline, nil).Times(1)

	// Действие
	profile, err := service.SetAvailability(ctx, userID, false, nil, nil)

	// Проверки
	require.NoError(t, err)
	assert.False(t, profile.AvailabilityStatus)
	require.NotNil(t, profile.Latitude)
	assert.Equal(t, lat, *profile.Latitude)
}

func TestApply_Success(t *testing.T) {
	// Подготовка
	service, repoMock, storeMock := newTestResponderService(t)
	ctx := context.Background()
	userID := uuid.New()
	skills := []string{"CPR Certified", "First Aid"}
	uploads := []models.CertificationUpload{
		{Name: "cpr_card.pdf", Data: []byte("pdf")},
	}
	saved := &models.ResponderProfile{
		UserID:             userID,
		VerificationStatus: models.VerificationPending,
		Skills:             skills,
	}

	// Ожидания
	repoMock.EXPECT().AddRole(ctx, userID, models.RoleResponder).Return(nil).Times(1)
	storeMock.EXPECT().Upload(ctx, gomock.Any(), []byte("pdf")).Return(nil).Times(1)
	storeMock.EXPECT().PublicURL(gomock.Any()).Return("http://localhost:8080/files/doc").Times(1)
	repoMock.EXPECT().
		UpsertApplication(ctx, userID, skills, gomock.Any()).
		Do(func(ctx context.Context, _ uuid.UUID, _ []string, certs []models.Certification) {
			require.Len(t, certs, 1)
			assert.Equal(t, "cpr_card.pdf", certs[0].Name)
		}).Return(nil).Times(1)
	repoMock.EXPECT().GetProfile(ctx, userID).Return(saved, nil).Times(1)

	// Действие
	profile, err := service.Apply(ctx, userID, skills, uploads)

	// Проверки
	require.NoError(t, err)
	assert.Equal(t, models.VerificationPending, profile.VerificationStatus)
	assert.Equal(t, skills, profile.Skills)
}

func TestApply_UploadFailureIsNotFatal(t *testing.T) {
	// Подготовка
	service, repoMock, storeMock := newTestResponderService(t)
	ctx := context.Background()
	userID := uuid.New()
	skills := []string{"EMT"}
	uploads := []models.CertificationUpload{
		{Name: "broken.pdf", Data: []byte("x")},
		{Name: "ok.pdf", Data: []byte("y")},
	}

	// Ожидания: первый документ не сохранился, заявка проходит со вторым
	repoMock.EXPECT().AddRole(ctx, userID, models.RoleResponder).Return(nil).Times(1)
	storeMock.EXPECT().Upload(ctx, gomock.Any(), []byte("x")).Return(fmt.Errorf("disk full")).Times(1)
	storeMock.EXPECT().Upload(ctx, gomock.Any(), []byte("y")).Return(nil).Times(1)
	storeMock.EXPECT().PublicURL(gomock.Any()).Return("http://localhost:8080/files/ok").Times(1)
	repoMock.EXPECT().
		UpsertApplication(ctx, userID, skills, gomock.Any()).
		Do(func(ctx context.Context, _ uuid.UUID, _ []string, certs []models.Certification) {
			require.Len(t, certs, 1)
			assert.Equal(t, "ok.pdf", certs[0].Name)
		}).Return(nil).Times(1)
	repoMock.EXPECT().GetProfile(ctx, userID).Return(&models.ResponderProfile{UserID: userID, Skills: skills}, nil).Times(1)

	// Действие
	_, err := service.Apply(ctx, userID, skills, uploads)

	// Проверки
	require.NoError(t, err)
}

func TestApply_NoSkills(t *testing.T) {
	// Подготовка
	service, _, _ := newTestResponderService(t)
	ctx := context.Background()

	// Действие
	profile, err := service.Apply(ctx, uuid.New(), nil, nil)

	// Проверки
	require.Error(t, err)
	assert.Nil(t, profile)
	assert.ErrorContains(t, err, "at least one skill is required")
}
