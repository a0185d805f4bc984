package v1

import (
	"time"

	"github.com/google/uuid"
)

// SignUpRequest DTO для регистрации
// @Description DTO для регистрации
type SignUpRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	FullName string `json:"full_name" validate:"required,min=2,max=255"`
}

// SignInRequest DTO для входа
// @Description DTO для входа
type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SessionResponse DTO для выданной сессии
// @Description DTO для выданной сессии
type SessionResponse struct {
	Token     string    `json:"token"`
	UserID    uuid.UUID `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CreateIncidentRequest DTO для создания запроса помощи
// @Description DTO для создания запроса помощи
type CreateIncidentRequest struct {
	IncidentType   string  `json:"incident_type" validate:"required,oneof='CPR/AED' 'Choking' 'Severe Bleeding' 'Road Accident' 'Anaphylaxis' 'Elderly Fall' 'Blood Donation' 'Missing Person'"`
	Latitude       float64 `json:"latitude" validate:"latitude"`
	Longitude      float64 `json:"longitude" validate:"longitude"`
	Address        string  `json:"address,omitempty" validate:"max=512"`
	AdditionalInfo string  `json:"additional_info,omitempty" validate:"max=2000"`
}

// IncidentResponse DTO для ответа с информацией об инциденте
// @Description DTO для ответа с информацией об инциденте
type IncidentResponse struct {
	ID             uuid.UUID  `json:"id"`
	RequesterID    uuid.UUID  `json:"requester_id"`
	ResponderID    *uuid.UUID `json:"responder_id,omitempty"`
	IncidentType   string     `json:"incident_type"`
	Status         string     `json:"status"`
	Latitude       float64    `json:"latitude"`
	Longitude      float64    `json:"longitude"`
	Address        string     `json:"address,omitempty"`
	AdditionalInfo string     `json:"additional_info,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	AcceptedAt     *time.Time `json:"accepted_at,omitempty"`
	DistanceKm     *float64   `json:"distance_km,omitempty"`
}

// SetAvailabilityRequest DTO для переключения доступности.
// Координаты обязательны только при available=true.
// @Description DTO для переключения доступности
type SetAvailabilityRequest struct {
	Available bool     `json:"available"`
	Latitude  *float64 `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude *float64 `json:"longitude,omitempty" validate:"omitempty,longitude"`
}

// ResponderProfileResponse DTO для профиля респондера
// @Description DTO для профиля респондера
type ResponderProfileResponse struct {
	UserID             uuid.UUID               `json:"user_id"`
	AvailabilityStatus bool                    `json:"availability_status"`
	VerificationStatus string                  `json:"verification_status"`
	Skills             []string                `json:"skills"`
	Certifications     []CertificationResponse `json:"certifications,omitempty"`
	Latitude           *float64                `json:"latitude,omitempty"`
	Longitude          *float64                `json:"longitude,omitempty"`
	UpdatedAt          time.Time               `json:"updated_at"`
}

// CertificationResponse DTO для документа сертификации
// @Description DTO для документа сертификации
type CertificationResponse struct {
	Name       string    `json:"name"`
	URL        string    `json:"url"`
	UploadedAt time.Time `json:"uploaded_at"`
}
