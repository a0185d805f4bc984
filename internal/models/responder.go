package models

import (
	"time"

	"github.com/google/uuid"
)

// Статусы верификации респондера
const (
	VerificationPending  = "pending"
	VerificationVerified = "verified"
)

// ResponderSkills - навыки, которые респондер может указать в заявке
var ResponderSkills = []string{
	"CPR Certified",
	"First Aid",
	"AED Trained",
	"EMT",
	"Paramedic",
	"Nurse",
	"Doctor",
	"Firefighter",
}

// CertificationUpload - файл подтверждающего документа из заявки
type CertificationUpload struct {
	Name string
	Data []byte
}

// Certification - загруженный документ, подтверждающий квалификацию
type Certification struct {
	Name       string    `json:"name"`
	URL        string    `json:"url"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// ResponderProfile представляет профиль респондера.
// Координаты присутствуют только если респондер хотя бы раз выходил в доступность.
type ResponderProfile struct {
	UserID             uuid.UUID       `json:"user_id"`
	AvailabilityStatus bool            `json:"availability_status"`
	VerificationStatus string          `json:"verification_status"`
	Skills             []string        `json:"skills"`
	Certifications     []Certification `json:"certifications,omitempty"`
	Latitude           *float64        `json:"latitude,omitempty"`
	Longitude          *float64        `json:"longitude,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}
