package service

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/localhero/hero_finder/internal/feed"
	feed_mocks "github.com/localhero/hero_finder/internal/feed/mocks"
	"github.com/localhero/hero_finder/internal/models"
	"github.com/localhero/hero_finder/internal/service/mocks"
	"github.com/localhero/hero_finder/internal/webhook"
	webhook_mocks "github.com/localhero/hero_finder/internal/webhook/mocks"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// newTestIncidentService — вспомогательная функция для создания инстанса сервиса с моками.
func newTestIncidentService(t *testing.T) (*incidentService, *mocks.MockIncidentRepository, *mocks.MockResponderReader, *feed_mocks.MockPublisher, *webhook_mocks.MockPublisher) {
	ctrl := gomock.NewController(t)
	repoMock := mocks.NewMockIncidentRepository(ctrl)
	respondersMock := mocks.NewMockResponderReader(ctrl)
	feedMock := feed_mocks.NewMockPublisher(ctrl)
	webhookMock := webhook_mocks.NewMockPublisher(ctrl)

	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{}) // Отключаем вывод логов в тестах

	service := NewIncidentService(repoMock, respondersMock, feedMock, webhookMock, logger)
	return service.(*incidentService), repoMock, respondersMock, feedMock, webhookMock
}

func verifiedProfile(userID uuid.UUID, lat, lon *float64) *models.ResponderProfile {
	return &models.ResponderProfile{
		UserID:             userID,
		AvailabilityStatus: true,
		VerificationStatus: models.VerificationVerified,
		Latitude:           lat,
		Longitude:          lon,
	}
}

func TestCreateIncident_Success(t *testing.T) {
	// Подготовка
	service, repoMock, _, feedMock, webhookMock := newTestIncidentService(t)
	ctx := context.Background()
	requesterID := uuid.New()
	incidentToCreate := &models.Incident{
		IncidentType: models.TypeCPRAED,
		Latitude:     55.75,
		Longitude:    37.61,
		// Клиент не управляет ни статусом, ни исполнителем
		Status:      models.StatusAccepted,
		ResponderID: &requesterID,
	}

	// Ожидания
	repoMock.EXPECT().
		Create(ctx, gomock.Any()).
		DoAndReturn(func(ctx context.Context, inc *models.Incident) error {
			// Симулируем, что БД присвоила ID
			inc.ID = uuid.New()
			return nil
		}).Times(1)

	feedMock.EXPECT().
		Publish(ctx, gomock.Any()).
		Do(func(ctx context.Context, event feed.ChangeEvent) {
			assert.Equal(t, feed.OpInsert, event.Op)
			assert.Equal(t, "incidents", event.Table)
		}).Return(nil).Times(1)

	webhookMock.EXPECT().
		Publish(ctx, gomock.Any()).
		Do(func(ctx context.Context, event webhook.Event) {
			assert.Equal(t, webhook.EventIncidentCreated, event.Type)
		}).Return(nil).Times(1)

	// Действие
	err := service.CreateIncident(ctx, requesterID, incidentToCreate)

	// Проверки
	require.NoError(t, err)
	assert.Equal(t, models.StatusAwaitingResponder, incidentToCreate.Status)
	assert.Equal(t, requesterID, incidentToCreate.RequesterID)
	assert.Nil(t, incidentToCreate.ResponderID)
	assert.Nil(t, incidentToCreate.AcceptedAt)
	assert.NotEqual(t, uuid.Nil, incidentToCreate.ID)
}

func TestCreateIncident_NotAuthenticated(t *testing.T) {
	// Подготовка
	service, _, _, _, _ := newTestIncidentService(t)
	ctx := context.Background()
	incidentToCreate := &models.Incident{
		IncidentType: models.TypeChoking,
		Latitude:     55.75,
		Longitude:    37.61,
	}

	// Действие
	err := service.CreateIncident(ctx, uuid.Nil, incidentToCreate)

	// Проверки
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestCreateIncident_LocationUnavailable(t *testing.T) {
	// Подготовка
	service, _, _, _, _ := newTestIncidentService(t)
	ctx := context.Background()
	incidentToCreate := &models.Incident{
		IncidentType: models.TypeRoadAccident,
		// Пара (0,0) означает отсутствие фикса геолокации
		Latitude:  0,
		Longitude: 0,
	}

	// Действие
	err := service.CreateIncident(ctx, uuid.New(), incidentToCreate)

	// Проверки
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLocationUnavailable)
}

func TestCreateIncident_PublishFailureIsNotFatal(t *testing.T) {
	// Подготовка
	service, repoMock, _, feedMock, webhookMock := newTestIncidentService(t)
	ctx := context.Background()
	incidentToCreate := &models.Incident{
		IncidentType: models.TypeElderlyFall,
		Latitude:     48.85,
		Longitude:    2.35,
	}

	// Ожидания: запись в БД прошла, нотификации упали
	repoMock.EXPECT().Create(ctx, gomock.Any()).Return(nil).Times(1)
	feedMock.EXPECT().Publish(ctx, gomock.Any()).Return(fmt.Errorf("redis down")).Times(1)
	webhookMock.EXPECT().Publish(ctx, gomock.Any()).Return(fmt.Errorf("redis down")).Times(1)

	// Действие
	err := service.CreateIncident(ctx, uuid.New(), incidentToCreate)

	// Проверки
	require.NoError(t, err)
}

func TestGetIncident_Success(t *testing.T) {
	// Подготовка
	service, repoMock, _, _, _ := newTestIncidentService(t)
	ctx := context.Background()
	incidentID := uuid.New()
	expectedIncident := &models.Incident{
		ID:           incidentID,
		IncidentType: models.TypeBloodDonation,
	}

	// Ожидания
	repoMock.EXPECT().GetByID(ctx, incidentID).Return(expectedIncident, nil).Times(1)

	// Действие
	incident, err := service.GetIncident(ctx, incidentID)

	// Проверки
	require.NoError(t, err)
	assert.Equal(t, expectedIncident, incident)
}

func TestGetIncident_NotFound(t *testing.T) {
	// Подготовка
	service, repoMock, _, _, _ := newTestIncidentService(t)
	ctx := context.Background()
	incidentID := uuid.New()

	// Ожидания
	repoMock.EXPECT().GetByID(ctx, incidentID).Return(nil, ErrIncidentNotFound).Times(1)

	// Действие
	incident, err := service.GetIncident(ctx, incidentID)

	// Проверки
	require.Error(t, err)
	assert.Nil(t, incident)
	assert.ErrorIs(t, err, ErrIncidentNotFound)
}

func TestAwaitingFeed_Success_WithDistance(t *testing.T) {
	// Подготовка
	service, repoMock, respondersMock, _, _ := newTestIncidentService(t)
	ctx := context.Background()
	responderID := uuid.New()
	lat, lon := 40.7128, -74.0060
	awaiting := []*models.Incident{
		{ID: uuid.New(), Status: models.StatusAwaitingResponder, Latitude: 40.7306, Longitude: -73.9352},
		{ID: uuid.New(), Status: models.StatusAwaitingResponder, Latitude: 40.7128, Longitude: -74.0060},
	}

	// Ожидания
	respondersMock.EXPECT().
		GetProfile(ctx, responderID).
		Return(verifiedProfile(responderID, &lat, &lon), nil).
		Times(1)
	repoMock.EXPECT().ListAwaiting(ctx).Return(awaiting, nil).Times(1)

	// Действие
	items, err := service.AwaitingFeed(ctx, responderID)

	// Проверки
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.NotNil(t, items[0].DistanceKm)
	assert.InDelta(t, 6.4, *items[0].DistanceKm, 0.3)
	require.NotNil(t, items[1].DistanceKm)
	assert.InDelta(t, 0, *items[1].DistanceKm, 0.001)
}

func TestAwaitingFeed_NoResponderCoordinates(t *testing.T) {
	// Подготовка
	service, repoMock, respondersMock, _, _ := newTestIncidentService(t)
	ctx := context.Background()
	responderID := uuid.New()
	awaiting := []*models.Incident{
		{ID: uuid.New(), Status: models.StatusAwaitingResponder, Latitude: 40.73, Longitude: -73.93},
	}

	// Ожидания: у респондера нет сохраненных координат
	respondersMock.EXPECT().
		GetProfile(ctx, responderID).
		Return(verifiedProfile(responderID, nil, nil), nil).
		Times(1)
	repoMock.EXPECT().ListAwaiting(ctx).Return(awaiting, nil).Times(1)

	// Действие
	items, err := service.AwaitingFeed(ctx, responderID)

	// Проверки
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Nil(t, items[0].DistanceKm)
}

func TestAwaitingFeed_NotVerified(t *testing.T) {
	// Подготовка
	service, _, respondersMock, _, _ := newTestIncidentService(t)
	ctx := context.Background()
	responderID := uuid.New()

	// Ожидания
	respondersMock.EXPECT().
		GetProfile(ctx, responderID).
		Return(&models.ResponderProfile{
			UserID:             responderID,
			VerificationStatus: models.VerificationPending,
		}, nil).
		Times(1)

	// Действие
	items, err := service.AwaitingFeed(ctx, responderID)

	// Проверки
	require.Error(t, err)
	assert.Nil(t, items)
	assert.ErrorIs(t, err, ErrNotVerified)
}

func TestClaim_Success(t *testing.T) {
	// Подготовка
	service, repoMock, respondersMock, feedMock, webhookMock := newTestIncidentService(t)
	ctx := context.Background()
	responderID := uuid.New()
	incidentID := uuid.New()
	claimed := &models.Incident{
		ID:          incidentID,
		Status:      models.StatusAccepted,
		ResponderID: &responderID,
	}

	// Ожидания
	respondersMock.EXPECT().
		GetProfile(ctx, responderID).
		Return(verifiedProfile(responderID, nil, nil), nil).
		Times(1)
	repoMock.EXPECT().Claim(ctx, incidentID, responderID).Return(claimed, nil).Times(1)
	feedMock.EXPECT().
		Publish(ctx, gomock.Any()).
		Do(func(ctx context.Context, event feed.ChangeEvent) {
			assert.Equal(t, feed.OpUpdate, event.Op)
			assert.Equal(t, claimed, event.Incident)
		}).Return(nil).Times(1)
	webhookMock.EXPECT().
		Publish(ctx, gomock.Any()).
		Do(func(ctx context.Context, event webhook.Event) {
			assert.Equal(t, webhook.EventIncidentClaimed, event.Type)
		}).Return(nil).Times(1)

	// Действие
	incident, err := service.Claim(ctx, incidentID, responderID)

	// Проверки
	require.NoError(t, err)
	assert.Equal(t, claimed, incident)
}

func TestClaim_AlreadyClaimed(t *testing.T) {
	// Подготовка
	service, repoMock, respondersMock, feedMock, webhookMock := newTestIncidentService(t)
	ctx := context.Background()
	responderID := uuid.New()
	incidentID := uuid.New()

	// Ожидания: репозиторий сообщает о проигранной гонке,
	// нотификации публиковать нечего
	respondersMock.EXPECT().
		GetProfile(ctx, responderID).
		Return(verifiedProfile(responderID, nil, nil), nil).
		Times(1)
	repoMock.EXPECT().
		Claim(ctx, incidentID, responderID).
		Return(nil, fmt.Errorf("repository: %w", ErrAlreadyClaimed)).
		Times(1)
	feedMock.EXPECT().Publish(gomock.Any(), gomock.Any()).Times(0)
	webhookMock.EXPECT().Publish(gomock.Any(), gomock.Any()).Times(0)

	// Действие
	incident, err := service.Claim(ctx, incidentID, responderID)

	// Проверки
	require.Error(t, err)
	assert.Nil(t, incident)
	assert.ErrorIs(t, err, ErrAlreadyClaimed)
}

func TestClaim_NotVerified(t *testing.T) {
	// Подготовка
	service, _, respondersMock, _, _ := newTestIncidentService(t)
	ctx := context.Background()
	responderID := uuid.New()
	incidentID := uuid.New()

	// Ожидания
	respondersMock.EXPECT().
		GetProfile(ctx, responderID).
		Return(&models.ResponderProfile{
			UserID:             responderID,
			VerificationStatus: models.VerificationPending,
		}, nil).
		Times(1)

	// Действие
	incident, err := service.Claim(ctx, incidentID, responderID)

	// Проверки
	require.Error(t, err)
	assert.Nil(t, incident)
	assert.ErrorIs(t, err, ErrNotVerified)
}

func TestListByRequester_Success(t *testing.T) {
	// Подготовка
	service, repoMock, _, _, _ := newTestIncidentService(t)
	ctx := context.Background()
	requesterID := uuid.New()
	expected := []*models.Incident{
		{ID: uuid.New(), RequesterID: requesterID},
		{ID: uuid.New(), RequesterID: requesterID},
	}

	// Ожидания
	repoMock.EXPECT().ListByRequester(ctx, requesterID).Return(expected, nil).Times(1)

	// Действие
	incidents, err := service.ListByRequester(ctx, requesterID)

	// Проверки
	require.NoError(t, err)
	assert.Equal(t, expected, incidents)
}
