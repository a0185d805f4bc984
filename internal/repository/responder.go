package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/localhero/hero_finder/internal/models"
	"github.com/localhero/hero_finder/internal/service"
)

type ResponderRepository struct {
	db *pgxpool.Pool
}

func NewResponderRepository(db *pgxpool.Pool) service.ResponderRepository {
	return &ResponderRepository{
		db: db,
	}
}

// GetProfile возвращает профиль респондера по id владельца
func (r *ResponderRepository) GetProfile(ctx context.Context, userID uuid.UUID) (*models.ResponderProfile, error) {
	query := `
		SELECT
			user_id,
			availability_status,
			verification_status,
			skills,
			certifications,
			latitude,
			longitude,
			created_at,
			updated_at
		FROM responder_profiles
		WHERE user_id = $1;
	`
	profile := &models.ResponderProfile{}
	var certsJSON []byte
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&profile.UserID,
		&profile.AvailabilityStatus,
		&profile.VerificationStatus,
		&profile.Skills,
		&certsJSON,
		&profile.Latitude,
		&profile.Longitude,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("profile for user %s: %w", userID, service.ErrProfileNotFound)
		}
		return nil, fmt.Errorf("failed to get responder profile: %w", err)
	}

	if len(certsJSON) > 0 {
		if err := json.Unmarshal(certsJSON, &profile.Certifications); err != nil {
			return nil, fmt.Errorf("failed to unmarshal certifications: %w", err)
		}
	}
	return profile, nil
}

// CreateProfile создает профиль респондера
func (r *ResponderRepository) CreateProfile(ctx context.Context, profile *models.ResponderProfile) error {
	query := `
		INSERT INTO responder_profiles (user_id, availability_status, verification_status, skills)
		VALUES ($1, $2, $3, $4) RETURNING created_at, updated_at;
	`
	err := r.db.QueryRow(ctx, query,
		profile.UserID,
		profile.AvailabilityStatus,
		profile.VerificationStatus,
		profile.Skills,
	).Scan(&profile.CreatedAt, &profile.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create responder profile: %w", err)
	}
	return nil
}

// SetAvailable включает доступность. Тройка (availability, lat, lon)
// пишется одним обновлением: наблюдатель никогда не увидит
// available=true без координат.
func (r *ResponderRepository) SetAvailable(ctx context.Context, userID uuid.UUID, lat, lon float64) error {
	query := `
		UPDATE responder_profiles SET
			availability_status = TRUE,
			latitude = $1,
			longitude = $2,
			updated_at = NOW()
		WHERE user_id = $3;
	`
	cmdTag, err := r.db.Exec(ctx, query, lat, lon, userID)
	if err != nil {
		return fmt.Errorf("failed to set responder available: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("profile for user %s: %w", userID, service.ErrProfileNotFound)
	}
	return nil
}

// SetOffline снимает только флаг доступности.
// Последние известные координаты сохраняются для истории.
func (r *ResponderRepository) SetOffline(ctx context.Context, userID uuid.UUID) error {
	query := `
		UPDATE responder_profiles SET
			availability_status = FALSE,
			updated_at = NOW()
		WHERE user_id = $1;
	`
	cmdTag, err := r.db.Exec(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("failed to set responder offline: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("profile for user %s: %w", userID, service.ErrProfileNotFound)
	}
	return nil
}

// UpsertApplication сохраняет заявку: навыки и документы.
// Существующий профиль обновляется, статус верификации не трогаем -
// повторная заявка не сбрасывает уже выданную верификацию.
func (r *ResponderRepository) UpsertApplication(ctx context.Context, userID uuid.UUID, skills []string, certs []models.Certification) error {
	certsJSON, err := json.Marshal(certs)
	if err != nil {
		return fmt.Errorf("failed to marshal certifications: %w", err)
	}

	query := `
		INSERT INTO responder_profiles (user_id, availability_status, verification_status, skills, certifications)
		VALUES ($1, FALSE, 'pending', $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET
			skills = EXCLUDED.skills,
			certifications = EXCLUDED.certifications,
			updated_at = NOW();
	`
	if _, err := r.db.Exec(ctx, query, userID, skills, certsJSON); err != nil {
		return fmt.Errorf("failed to upsert responder application: %w", err)
	}
	return nil
}

// AddRole выдает пользователю роль. Повторная выдача поглощается
// ON CONFLICT DO NOTHING - дубликат роли не ошибка.
func (r *ResponderRepository) AddRole(ctx context.Context, userID uuid.UUID, role string) error {
	query := `
		INSERT INTO user_roles (user_id, role)
		VALUES ($1, $2)
		ON CONFLICT (user_id, role) DO NOTHING;
	`
	if _, err := r.db.Exec(ctx, query, userID, role); err != nil {
		return fmt.Errorf("failed to add role: %w", err)
	}
	return nil
}

// GetRoles возвращает роли пользователя
func (r *ResponderRepository) GetRoles(ctx context.Context, userID uuid.UUID) ([]string, error) {
	query := `SELECT role FROM user_roles WHERE user_id = $1;`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get roles: %w", err)
	}
	defer rows.Close()

	roles := make([]string, 0)
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, fmt.Errorf("failed to scan role row: %w", err)
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error roles iteration: %w", err)
	}
	return roles, nil
}
