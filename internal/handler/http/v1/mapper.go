package v1

import "github.com/localhero/hero_finder/internal/models"

// DTOToIncidentModel преобразует DTO создания в доменную модель
func DTOToIncidentModel(dto CreateIncidentRequest) *models.Incident {
	return &models.Incident{
		IncidentType:   dto.IncidentType,
		Latitude:       dto.Latitude,
		Longitude:      dto.Longitude,
		Address:        dto.Address,
		AdditionalInfo: dto.AdditionalInfo,
	}
}

// ModelToIncidentResponse преобразует доменную модель в DTO для ответа
func ModelToIncidentResponse(model *models.Incident) *IncidentResponse {
	return &IncidentResponse{
		ID:             model.ID,
		RequesterID:    model.RequesterID,
		ResponderID:    model.ResponderID,
		IncidentType:   model.IncidentType,
		Status:         model.Status,
		Latitude:       model.Latitude,
		Longitude:      model.Longitude,
		Address:        model.Address,
		AdditionalInfo: model.AdditionalInfo,
		CreatedAt:      model.CreatedAt,
		AcceptedAt:     model.AcceptedAt,
	}
}

// ModelsToIncidentResponses преобразует слайс моделей в слайс DTO
func ModelsToIncidentResponses(incidents []*models.Incident) []*IncidentResponse {
	responses := make([]*IncidentResponse, len(incidents))
	for i, incident := range incidents {
		responses[i] = ModelToIncidentResponse(incident)
	}
	return responses
}

// FeedToIncidentResponses преобразует фид с расстояниями в слайс DTO
func FeedToIncidentResponses(incidents []*models.IncidentWithDistance) []*IncidentResponse {
	responses := make([]*IncidentResponse, len(incidents))
	for i, incident := range incidents {
		resp := ModelToIncidentResponse(&incident.Incident)
		resp.DistanceKm = incident.DistanceKm
		responses[i] = resp
	}
	return responses
}

// ModelToSessionResponse преобразует сессию в DTO для ответа
func ModelToSessionResponse(session *models.Session) *SessionResponse {
	return &SessionResponse{
		Token:     session.Token,
		UserID:    session.UserID,
		ExpiresAt: session.ExpiresAt,
	}
}

// ModelToProfileResponse преобразует профиль респондера в DTO для ответа
func ModelToProfileResponse(profile *models.ResponderProfile) *ResponderProfileResponse {
	certs := make([]CertificationResponse, len(profile.Certifications))
	for i, cert := range profile.Certifications {
		certs[i] = CertificationResponse{
			Name:       cert.Name,
			URL:        cert.URL,
			UploadedAt: cert.UploadedAt,
		}
	}
	return &ResponderProfileResponse{
		UserID:             profile.UserID,
		AvailabilityStatus: profile.AvailabilityStatus,
		VerificationStatus: profile.VerificationStatus,
		Skills:             profile.Skills,
		Certifications:     certs,
		Latitude:           profile.Latitude,
		Longitude:          profile.Longitude,
		UpdatedAt:          profile.UpdatedAt,
	}
}
