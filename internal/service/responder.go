package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/localhero/hero_finder/internal/models"
	"github.com/localhero/hero_finder/internal/storage"
	"github.com/sirupsen/logrus"
)

// ResponderRepository определяет контракт для работы с профилями респондеров
type ResponderRepository interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.ResponderProfile, error)
	CreateProfile(ctx context.Context, profile *models.ResponderProfile) error
	// SetAvailable пишет тройку (availability, lat, lon) одним обновлением
	SetAvailable(ctx context.Context, userID uuid.UUID, lat, lon float64) error
	// SetOffline снимает только флаг доступности, координаты сохраняются
	SetOffline(ctx context.Context, userID uuid.UUID) error
	UpsertApplication(ctx context.Context, userID uuid.UUID, skills []string, certs []models.Certification) error
	// AddRole идемпотентна: повторная выдача роли не считается ошибкой
	AddRole(ctx context.Context, userID uuid.UUID, role string) error
	GetRoles(ctx context.Context, userID uuid.UUID) ([]string, error)
}

// ResponderService определяет контракт бизнес-логики респондеров
type ResponderService interface {
	GetOrCreateProfile(ctx context.Context, userID uuid.UUID) (*models.ResponderProfile, error)
	SetAvailability(ctx context.Context, userID uuid.UUID, available bool, lat, lon *float64) (*models.ResponderProfile, error)
	Apply(ctx context.Context, userID uuid.UUID, skills []string, uploads []models.CertificationUpload) (*models.ResponderProfile, error)
}

type responderService struct {
	repo    ResponderRepository
	storage storage.Store
	logger  *logrus.Logger
}

func NewResponderService(repo ResponderRepository, store storage.Store, logger *logrus.Logger) ResponderService {
	return &responderService{
		repo:    repo,
		storage: store,
		logger:  logger,
	}
}

// GetOrCreateProfile возвращает профиль, лениво создавая его при первом
// обращении: новый респондер оффлайн и не верифицирован.
func (s *responderService) GetOrCreateProfile(ctx context.Context, userID uuid.UUID) (*models.ResponderProfile, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service": "responder",
		"method":  "GetOrCreateProfile",
		"user_id": userID,
	})

	if userID == uuid.Nil {
		return nil, ErrNotAuthenticated
	}

	profile, err := s.repo.GetProfile(ctx, userID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, ErrProfileNotFound) {
		log.WithError(err).Error("Failed to get responder profile")
		return nil, fmt.Errorf("service: could not get responder profile: %w", err)
	}

	profile = &models.ResponderProfile{
		UserID:             userID,
		AvailabilityStatus: false,
		VerificationStatus: models.VerificationPending,
		Skills:             []string{},
	}
	if err := s.repo.CreateProfile(ctx, profile); err != nil {
		log.WithError(err).Error("Failed to create responder profile")
		return nil, fmt.Errorf("service: could not create responder profile: %w", err)
	}
	log.Info("Responder profile created lazily")
	return profile, nil
}

// SetAvailability переключает доступность. Переход в available требует
// свежие координаты и пишется одной атомарной тройкой, чтобы наблюдатель
// никогда не увидел available=true без координат. Переход в offline
// координаты не трогает.
func (s *responderService) SetAvailability(ctx context.Context, userID uuid.UUID, available bool, lat, lon *float64) (*models.ResponderProfile, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":   "responder",
		"method":    "SetAvailability",
		"user_id":   userID,
		"available": available,
	})

	if userID == uuid.Nil {
		return nil, ErrNotAuthenticated
	}

	if _, err := s.GetOrCreateProfile(ctx, userID); err != nil {
		return nil, err
	}

	if available {
		if lat == nil || lon == nil || !hasLocationFix(*lat, *lon) {
			log.Warn("Availability toggle without location fix")
			return nil, ErrLocationUnavailable
		}
		if err := s.repo.SetAvailable(ctx, userID, *lat, *lon); err != nil {
			log.WithError(err).Error("Failed to set responder available")
			return nil, fmt.Errorf("service: could not set available: %w", err)
		}
		log.Info("Responder is now available")
	} else {
		if err := s.repo.SetOffline(ctx, userID); err != nil {
			log.WithError(err).Error("Failed to set responder offline")
			return nil, fmt.Errorf("service: could not set offline: %w", err)
		}
		log.Info("Responder is now offline")
	}

	profile, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		log.WithError(err).Error("Failed to read back responder profile")
		return nil, fmt.Errorf("service: could not read back profile: %w", err)
	}
	return profile, nil
}

// Apply оформляет заявку респондера: роль, документы, профиль.
// Выдача роли идемпотентна. Загрузка каждого документа best-effort:
// неудача отдельного файла не блокирует заявку, профиль создается
// с тем подмножеством документов, которое удалось сохранить.
// Верификация остается pending до решения администратора.
func (s *responderService) Apply(ctx context.Context, userID uuid.UUID, skills []string, uploads []models.CertificationUpload) (*models.ResponderProfile, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service": "responder",
		"method":  "Apply",
		"user_id": userID,
	})

	if userID == uuid.Nil {
		return nil, ErrNotAuthenticated
	}
	if len(skills) == 0 {
		return nil, fmt.Errorf("service: at least one skill is required")
	}

	if err := s.repo.AddRole(ctx, userID, models.RoleResponder); err != nil {
		log.WithError(err).Error("Failed to grant responder role")
		return nil, fmt.Errorf("service: could not grant responder role: %w", err)
	}

	certs := make([]models.Certification, 0, len(uploads))
	failed := 0
	for _, upload := range uploads {
		path := certificationPath(userID, upload.Name)
		if err := s.storage.Upload(ctx, path, upload.Data); err != nil {
			failed++
			log.WithError(err).WithField("file", upload.Name).Warn("Certification upload failed, continuing without it")
			continue
		}
		certs = append(certs, models.Certification{
			Name:       upload.Name,
			URL:        s.storage.PublicURL(path),
			UploadedAt: time.Now().UTC(),
		})
	}
	if failed > 0 {
		log.WithFields(logrus.Fields{"failed": failed, "stored": len(certs)}).Warn("Application submitted with partial documentation")
	}

	if err := s.repo.UpsertApplication(ctx, userID, skills, certs); err != nil {
		log.WithError(err).Error("Failed to upsert responder application")
		return nil, fmt.Errorf("service: could not save application: %w", err)
	}

	profile, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		log.WithError(err).Error("Failed to read back responder profile")
		return nil, fmt.Errorf("service: could not read back profile: %w", err)
	}
	log.WithField("certifications", len(certs)).Info("Responder application submitted")
	return profile, nil
}

// certificationPath строит путь хранения документа под каталогом пользователя
func certificationPath(userID uuid.UUID, name string) string {
	base := filepath.Base(strings.ReplaceAll(name, " ", "_"))
	return fmt.Sprintf("%s/%d_%s", userID, time.Now().UnixNano(), base)
}
