package models

import (
	"time"

	"github.com/google/uuid"
)

// Статусы жизненного цикла инцидента. Других статусов система не пишет:
// расширенные состояния (enroute/arrived/resolved) пока не реализованы.
const (
	StatusAwaitingResponder = "awaiting_responder"
	StatusAccepted          = "accepted"
)

// Типы экстренных ситуаций
const (
	TypeCPRAED         = "CPR/AED"
	TypeChoking        = "Choking"
	TypeSevereBleeding = "Severe Bleeding"
	TypeRoadAccident   = "Road Accident"
	TypeAnaphylaxis    = "Anaphylaxis"
	TypeElderlyFall    = "Elderly Fall"
	TypeBloodDonation  = "Blood Donation"
	TypeMissingPerson  = "Missing Person"
)

// IncidentTypes - полный перечень допустимых типов инцидентов
var IncidentTypes = []string{
	TypeCPRAED,
	TypeChoking,
	TypeSevereBleeding,
	TypeRoadAccident,
	TypeAnaphylaxis,
	TypeElderlyFall,
	TypeBloodDonation,
	TypeMissingPerson,
}

// Incident представляет один запрос экстренной помощи
type Incident struct {
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
}

// IncidentWithDistance - инцидент с расстоянием до респондера (только для отображения)
type IncidentWithDistance struct {
	Incident
	DistanceKm *float64 `json:"distance_km,omitempty"`
}
