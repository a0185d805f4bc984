package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/localhero/hero_finder/internal/models"
	"github.com/localhero/hero_finder/internal/service"
)

const incidentColumns = `
	id,
	requester_id,
	responder_id,
	incident_type,
	status,
	latitude,
	longitude,
	COALESCE(address, ''),
	COALESCE(additional_info, ''),
	created_at,
	accepted_at
`

type IncidentRepository struct {
	db *pgxpool.Pool
}

func NewIncidentRepository(db *pgxpool.Pool) service.IncidentRepository {
	return &IncidentRepository{
		db: db,
	}
}

// Create создает новую запись об инциденте в бд
func (r *IncidentRepository) Create(ctx context.Context, incident *models.Incident) error {
	query := `
		INSERT INTO incidents (requester_id, incident_type, status, latitude, longitude, address, additional_info)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, '')) RETURNING id, created_at;
	`
	err := r.db.QueryRow(ctx, query,
		incident.RequesterID,
		incident.IncidentType,
		incident.Status,
		incident.Latitude,
		incident.Longitude,
		incident.Address,
		incident.AdditionalInfo,
	).Scan(&incident.ID, &incident.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create incident: %w", err)
	}
	return nil
}

// GetByID возвращает инцидент по его UUID
func (r *IncidentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Incident, error) {
	query := `SELECT ` + incidentColumns + ` FROM incidents WHERE id = $1;`

	incident, err := scanIncident(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("incident with id %s: %w", id, service.ErrIncidentNotFound)
		}
		return nil, fmt.Errorf("failed to get incident by id: %w", err)
	}
	return incident, nil
}

// ListAwaiting возвращает все неразобранные инциденты, новые первыми
func (r *IncidentRepository) ListAwaiting(ctx context.Context) ([]*models.Incident, error) {
	query := `
		SELECT ` + incidentColumns + `
		FROM incidents
		WHERE status = 'awaiting_responder'
		ORDER BY created_at DESC;
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list awaiting incidents: %w", err)
	}
	defer rows.Close()

	return collectIncidents(rows)
}

// ListByRequester возвращает инциденты пользователя, новые первыми
func (r *IncidentRepository) ListByRequester(ctx context.Context, requesterID uuid.UUID) ([]*models.Incident, error) {
	query := `
		SELECT ` + incidentColumns + `
		FROM incidents
		WHERE requester_id = $1
		ORDER BY created_at DESC;
	`
	rows, err := r.db.Query(ctx, query, requesterID)
	if err != nil {
		return nil, fmt.Errorf("failed to list requester incidents: %w", err)
	}
	defer rows.Close()

	return collectIncidents(rows)
}

// Claim - ядро взаимного исключения. Одно условное обновление:
// поля назначения пишутся только пока строка все еще awaiting_responder.
// Никакого read-then-write на клиенте - гонку разрешает сама бд,
// ровно один из конкурирующих вызовов получает строку.
func (r *IncidentRepository) Claim(ctx context.Context, incidentID, responderID uuid.UUID) (*models.Incident, error) {
	query := `
		UPDATE incidents SET
			responder_id = $1,
			status = 'accepted',
			accepted_at = NOW()
		WHERE id = $2 AND status = 'awaiting_responder'
		RETURNING ` + incidentColumns + `;
	`
	incident, err := scanIncident(r.db.QueryRow(ctx, query, responderID, incidentID))
	if err == nil {
		return incident, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to claim incident: %w", err)
	}

	// Ноль строк: либо инцидент уже принят, либо его нет вовсе
	if _, lookupErr := r.GetByID(ctx, incidentID); lookupErr != nil {
		return nil, lookupErr
	}
	return nil, service.ErrAlreadyClaimed
}

func scanIncident(row pgx.Row) (*models.Incident, error) {
	incident := &models.Incident{}
	err := row.Scan(
		&incident.ID,
		&incident.RequesterID,
		&incident.ResponderID,
		&incident.IncidentType,
		&incident.Status,
		&incident.Latitude,
		&incident.Longitude,
		&incident.Address,
		&incident.AdditionalInfo,
		&incident.CreatedAt,
		&incident.AcceptedAt,
	)
	if err != nil {
		return nil, err
	}
	return incident, nil
}

func collectIncidents(rows pgx.Rows) ([]*models.Incident, error) {
	incidents := make([]*models.Incident, 0)
	for rows.Next() {
		incident, err := scanIncident(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan incident row: %w", err)
		}
		incidents = append(incidents, incident)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error list iteration: %w", err)
	}
	return incidents, nil
}
