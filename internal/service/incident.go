package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/localhero/hero_finder/internal/feed"
	"github.com/localhero/hero_finder/internal/models"
	"github.com/localhero/hero_finder/internal/webhook"
	"github.com/localhero/hero_finder/pkg/geo"
	"github.com/sirupsen/logrus"
)

// IncidentRepository определяет контракт для работы с бд инцидентов
type IncidentRepository interface {
	Create(ctx context.Context, incident *models.Incident) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Incident, error)
	ListAwaiting(ctx context.Context) ([]*models.Incident, error)
	ListByRequester(ctx context.Context, requesterID uuid.UUID) ([]*models.Incident, error)
	// Claim - одно условное обновление с защитой по статусу.
	// Возвращает ErrAlreadyClaimed, если строку уже забрали,
	// и ErrIncidentNotFound, если строки нет.
	Claim(ctx context.Context, incidentID, responderID uuid.UUID) (*models.Incident, error)
}

// ResponderReader - доступ сервиса инцидентов к профилям респондеров
// (гейт верификации и координаты для расчета расстояния)
type ResponderReader interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.ResponderProfile, error)
}

// IncidentService определяет контракт бизнес-логики жизненного цикла инцидента
type IncidentService interface {
	CreateIncident(ctx context.Context, requesterID uuid.UUID, incident *models.Incident) error
	GetIncident(ctx context.Context, id uuid.UUID) (*models.Incident, error)
	AwaitingFeed(ctx context.Context, responderID uuid.UUID) ([]*models.IncidentWithDistance, error)
	ListByRequester(ctx context.Context, requesterID uuid.UUID) ([]*models.Incident, error)
	Claim(ctx context.Context, incidentID, responderID uuid.UUID) (*models.Incident, error)
}

type incidentService struct {
	repo       IncidentRepository
	responders ResponderReader
	feed       feed.Publisher
	webhooks   webhook.Publisher
	logger     *logrus.Logger
}

func NewIncidentService(repo IncidentRepository, responders ResponderReader, changeFeed feed.Publisher, webhooks webhook.Publisher, logger *logrus.Logger) IncidentService {
	return &incidentService{
		repo:       repo,
		responders: responders,
		feed:       changeFeed,
		webhooks:   webhooks,
		logger:     logger,
	}
}

// CreateIncident создает запрос помощи со статусом awaiting_responder.
// Без авторизованного автора и без координат инцидент не пишется.
func (s *incidentService) CreateIncident(ctx context.Context, requesterID uuid.UUID, incident *models.Incident) error {
	log := s.logger.WithFields(logrus.Fields{
		"service":       "incident",
		"method":        "CreateIncident",
		"incident_type": incident.IncidentType,
	})

	if requesterID == uuid.Nil {
		log.Warn("Create attempt without authenticated requester")
		return ErrNotAuthenticated
	}
	if !hasLocationFix(incident.Latitude, incident.Longitude) {
		log.Warn("Create attempt without location fix")
		return ErrLocationUnavailable
	}

	incident.RequesterID = requesterID
	incident.ResponderID = nil
	incident.AcceptedAt = nil
	incident.Status = models.StatusAwaitingResponder

	if err := s.repo.Create(ctx, incident); err != nil {
		log.WithError(err).Error("Failed to create incident in repository")
		return fmt.Errorf("service: could not create incident: %w", err)
	}

	log = log.WithField("incident_id", incident.ID)
	log.Info("Incident created, awaiting responder")
	s.publishChange(ctx, log, feed.OpInsert, incident)
	s.publishWebhook(ctx, log, webhook.EventIncidentCreated, incident)
	return nil
}

// GetIncident получает инцидент по ID
func (s *incidentService) GetIncident(ctx context.Context, id uuid.UUID) (*models.Incident, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "incident",
		"method":      "GetIncident",
		"incident_id": id,
	})

	incident, err := s.repo.GetByID(ctx, id)
	if err != nil {
		log.WithError(err).Warn("Failed to get incident from repository")
		return nil, fmt.Errorf("service: could not get incident: %w", err)
	}
	return incident, nil
}

// AwaitingFeed возвращает все неразобранные инциденты, новые первыми.
// Доступно только верифицированным респондерам; расстояние считается
// от сохраненных координат респондера и служит только для отображения.
func (s *incidentService) AwaitingFeed(ctx context.Context, responderID uuid.UUID) ([]*models.IncidentWithDistance, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":      "incident",
		"method":       "AwaitingFeed",
		"responder_id": responderID,
	})

	if responderID == uuid.Nil {
		return nil, ErrNotAuthenticated
	}

	profile, err := s.responders.GetProfile(ctx, responderID)
	if err != nil {
		log.WithError(err).Warn("Feed requested without responder profile")
		return nil, fmt.Errorf("service: could not load responder profile: %w", err)
	}
	if profile.VerificationStatus != models.VerificationVerified {
		log.Info("Feed denied: responder not verified")
		return nil, ErrNotVerified
	}

	incidents, err := s.repo.ListAwaiting(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to list awaiting incidents")
		return nil, fmt.Errorf("service: could not list awaiting incidents: %w", err)
	}

	result := make([]*models.IncidentWithDistance, 0, len(incidents))
	for _, incident := range incidents {
		item := &models.IncidentWithDistance{Incident: *incident}
		if profile.Latitude != nil && profile.Longitude != nil {
			km := geo.Distance(*profile.Latitude, *profile.Longitude, incident.Latitude, incident.Longitude)
			item.DistanceKm = &km
		}
		result = append(result, item)
	}

	log.WithField("count", len(result)).Debug("Awaiting feed assembled")
	return result, nil
}

// ListByRequester возвращает инциденты, созданные самим пользователем
func (s *incidentService) ListByRequester(ctx context.Context, requesterID uuid.UUID) ([]*models.Incident, error) {
	if requesterID == uuid.Nil {
		return nil, ErrNotAuthenticated
	}

	log := s.logger.WithFields(logrus.Fields{
		"service":      "incident",
		"method":       "ListByRequester",
		"requester_id": requesterID,
	})

	incidents, err := s.repo.ListByRequester(ctx, requesterID)
	if err != nil {
		log.WithError(err).Error("Failed to list requester incidents")
		return nil, fmt.Errorf("service: could not list requester incidents: %w", err)
	}
	return incidents, nil
}

// Claim - атомарный переход awaiting_responder -> accepted.
// Арбитром выступает условное обновление в бд: из всех конкурирующих
// вызовов строку получает ровно один, остальные видят ErrAlreadyClaimed.
func (s *incidentService) Claim(ctx context.Context, incidentID, responderID uuid.UUID) (*models.Incident, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":      "incident",
		"method":       "Claim",
		"incident_id":  incidentID,
		"responder_id": responderID,
	})

	if responderID == uuid.Nil {
		return nil, ErrNotAuthenticated
	}

	profile, err := s.responders.GetProfile(ctx, responderID)
	if err != nil {
		log.WithError(err).Warn("Claim attempted without responder profile")
		return nil, fmt.Errorf("service: could not load responder profile: %w", err)
	}
	if profile.VerificationStatus != models.VerificationVerified {
		log.Info("Claim denied: responder not verified")
		return nil, ErrNotVerified
	}

	incident, err := s.repo.Claim(ctx, incidentID, responderID)
	if err != nil {
		// Проигрыш гонки - штатный исход, не ошибка
		if errors.Is(err, ErrAlreadyClaimed) {
			log.Info("Incident was claimed by another responder")
			return nil, ErrAlreadyClaimed
		}
		log.WithError(err).Error("Failed to claim incident")
		return nil, fmt.Errorf("service: could not claim incident: %w", err)
	}

	log.Info("Incident claimed")
	s.publishChange(ctx, log, feed.OpUpdate, incident)
	s.publishWebhook(ctx, log, webhook.EventIncidentClaimed, incident)
	return incident, nil
}

// publishChange отправляет событие в фид изменений. Доставка best-effort:
// запись в бд уже зафиксирована, подписчики в худшем случае дочитают сами.
func (s *incidentService) publishChange(ctx context.Context, log *logrus.Entry, op feed.Op, incident *models.Incident) {
	if s.feed == nil {
		return
	}
	if err := s.feed.Publish(ctx, feed.NewIncidentEvent(op, incident)); err != nil {
		log.WithError(err).Warn("Failed to publish change event")
	}
}

func (s *incidentService) publishWebhook(ctx context.Context, log *logrus.Entry, eventType string, incident *models.Incident) {
	if s.webhooks == nil {
		return
	}
	if err := s.webhooks.Publish(ctx, webhook.NewIncidentEvent(eventType, incident)); err != nil {
		log.WithError(err).Warn("Failed to enqueue webhook event")
	}
}

// hasLocationFix отсекает отсутствующие координаты. Пара (0,0) лежит в
// океане и на практике означает, что устройство не дало фикс.
func hasLocationFix(lat, lon float64) bool {
	return lat != 0 || lon != 0
}
