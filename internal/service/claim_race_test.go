package service

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/localhero/hero_finder/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// raceIncidentRepo — потокобезопасная реализация IncidentRepository в памяти.
// Claim повторяет семантику условного обновления в бд: сравнение статуса
// и запись происходят под одной блокировкой, строку забирает ровно один вызов.
type raceIncidentRepo struct {
	mu       sync.Mutex
	incident *models.Incident
}

func (r *raceIncidentRepo) Create(_ context.Context, incident *models.Incident) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	incident.ID = uuid.New()
	incident.CreatedAt = time.Now().UTC()
	snapshot := *incident
	r.incident = &snapshot
	return nil
}

func (r *raceIncidentRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Incident, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.incident == nil || r.incident.ID != id {
		return nil, ErrIncidentNotFound
	}
	snapshot := *r.incident
	return &snapshot, nil
}

func (r *raceIncidentRepo) ListAwaiting(_ context.Context) ([]*models.Incident, error) {
	return nil, nil
}

func (r *raceIncidentRepo) ListByRequester(_ context.Context, _ uuid.UUID) ([]*models.Incident, error) {
	return nil, nil
}

func (r *raceIncidentRepo) Claim(_ context.Context, incidentID, responderID uuid.UUID) (*models.Incident, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.incident == nil || r.incident.ID != incidentID {
		return nil, ErrIncidentNotFound
	}
	if r.incident.Status != models.StatusAwaitingResponder {
		return nil, ErrAlreadyClaimed
	}
	now := time.Now().UTC()
	r.incident.Status = models.StatusAccepted
	r.incident.ResponderID = &responderID
	r.incident.AcceptedAt = &now
	snapshot := *r.incident
	return &snapshot, nil
}

// raceResponderReader выдает верифицированный профиль любому респондеру
type raceResponderReader struct{}

func (raceResponderReader) GetProfile(_ context.Context, userID uuid.UUID) (*models.ResponderProfile, error) {
	return &models.ResponderProfile{
		UserID:             userID,
		VerificationStatus: models.VerificationVerified,
	}, nil
}

func TestClaim_ConcurrentResponders_ExactlyOneWinner(t *testing.T) {
	// Подготовка
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})

	repo := &raceIncidentRepo{}
	svc := NewIncidentService(repo, raceResponderReader{}, nil, nil, logger)

	ctx := context.Background()
	incident := &models.Incident{
		IncidentType: models.TypeSevereBleeding,
		Latitude:     55.75,
		Longitude:    37.61,
	}
	require.NoError(t, svc.CreateIncident(ctx, uuid.New(), incident))

	const responders = 50
	var (
		wg       sync.WaitGroup
		accepted atomic.Int64
		rejected atomic.Int64
		failed   atomic.Int64
		winner   atomic.Value
	)

	start := make(chan struct{})
	for i := 0; i < responders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			responderID := uuid.New()
			<-start

			claimed, err := svc.Claim(ctx, incident.ID, responderID)
			switch {
			case err == nil:
				accepted.Add(1)
				winner.Store(responderID)
				assert.Equal(t, models.StatusAccepted, claimed.Status)
			case errors.Is(err, ErrAlreadyClaimed):
				rejected.Add(1)
			default:
				failed.Add(1)
			}
		}()
	}

	// Действие: все респондеры стартуют одновременно
	close(start)
	wg.Wait()

	// Проверки: ровно один победитель, остальные проиграли гонку штатно
	assert.Equal(t, int64(1), accepted.Load())
	assert.Equal(t, int64(responders-1), rejected.Load())
	assert.Equal(t, int64(0), failed.Load())

	final, err := repo.GetByID(ctx, incident.ID)
	require.NoError(t, err)
	require.NotNil(t, final.ResponderID)
	assert.Equal(t, winner.Load().(uuid.UUID), *final.ResponderID)
	require.NotNil(t, final.AcceptedAt)
}
