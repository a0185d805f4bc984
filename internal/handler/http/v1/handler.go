package v1

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/localhero/hero_finder/internal/config"
	"github.com/localhero/hero_finder/internal/feed"
	"github.com/localhero/hero_finder/internal/models"
	"github.com/localhero/hero_finder/internal/service"
	"github.com/localhero/hero_finder/internal/storage"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	incidentService  service.IncidentService
	responderService service.ResponderService
	authService      service.AuthService
	feedSubscriber   feed.Subscriber
	logger           *logrus.Logger
	validate         *validator.Validate
	cfg              *config.Config
}

func NewHandler(incidentService service.IncidentService, responderService service.ResponderService, authService service.AuthService, feedSubscriber feed.Subscriber, logger *logrus.Logger, cfg *config.Config) *Handler {
	return &Handler{
		incidentService:  incidentService,
		responderService: responderService,
		authService:      authService,
		feedSubscriber:   feedSubscriber,
		logger:           logger,
		validate:         validator.New(),
		cfg:              cfg,
	}
}

// respondServiceError транслирует ошибки сервисного слоя в HTTP-статусы.
// AlreadyClaimed - штатный исход гонки, отдается как 409 без error-лога.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotAuthenticated), errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
	case errors.Is(err, service.ErrNotVerified):
		c.JSON(http.StatusForbidden, gin.H{"error": "responder not verified"})
	case errors.Is(err, service.ErrAlreadyClaimed):
		c.JSON(http.StatusConflict, gin.H{"error": "incident already claimed"})
	case errors.Is(err, service.ErrIncidentNotFound), errors.Is(err, service.ErrProfileNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, service.ErrLocationUnavailable):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "location unavailable"})
	case errors.Is(err, service.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// @Summary Sign up
// @Description Register a new account and receive a session token.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body SignUpRequest true "Sign up request"
// @Success 201 {object} SessionResponse
// @Failure 400 {object} map[string]string "Invalid request body or validation error"
// @Failure 409 {object} map[string]string "Email already registered"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /auth/signup [post]
func (h *Handler) signUp(c *gin.Context) {
	var input SignUpRequest
	log := h.logger.WithField("method", "signUp")

	if err := c.ShouldBindJSON(&input); err != nil {
		log.WithError(err).Warn("Failed to bind JSON")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.validate.Struct(input); err != nil {
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.authService.SignUp(c.Request.Context(), input.Email, input.Password, input.FullName)
	if err != nil {
		if !errors.Is(err, service.ErrEmailTaken) {
			log.WithError(err).Error("Failed to sign up")
		}
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ModelToSessionResponse(session))
}

// @Summary Sign in
// @Description Exchange email/password for a session token.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body SignInRequest true "Sign in request"
// @Success 200 {object} SessionResponse
// @Failure 400 {object} map[string]string "Invalid request body"
// @Failure 401 {object} map[string]string "Invalid credentials"
// @Router /auth/signin [post]
func (h *Handler) signIn(c *gin.Context) {
	var input SignInRequest
	log := h.logger.WithField("method", "signIn")

	if err := c.ShouldBindJSON(&input); err != nil {
		log.WithError(err).Warn("Failed to bind JSON")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.validate.Struct(input); err != nil {
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.authService.SignIn(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ModelToSessionResponse(session))
}

// @Summary Sign out
// @Description Revoke the current session token.
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 204 "No Content"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /auth/signout [post]
func (h *Handler) signOut(c *gin.Context) {
	log := h.logger.WithField("method", "signOut")

	if err := h.authService.SignOut(c.Request.Context(), sessionToken(c)); err != nil {
		log.WithError(err).Error("Failed to sign out")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Create an incident
// @Description Create a new emergency help request. Requires a session and a location fix.
// @Tags Incidents
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param incident body CreateIncidentRequest true "Incident creation request"
// @Success 201 {object} IncidentResponse
// @Failure 400 {object} map[string]string "Invalid request body or validation error"
// @Failure 401 {object} map[string]string "Not authenticated"
// @Failure 422 {object} map[string]string "Location unavailable"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /incidents [post]
func (h *Handler) createIncident(c *gin.Context) {
	var input CreateIncidentRequest
	log := h.logger.WithField("method", "createIncident")

	if err := c.ShouldBindJSON(&input); err != nil {
		log.WithError(err).Warn("Failed to bind JSON")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.validate.Struct(input); err != nil {
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	model := DTOToIncidentModel(input)
	if err := h.incidentService.CreateIncident(c.Request.Context(), currentUserID(c), model); err != nil {
		if !errors.Is(err, service.ErrNotAuthenticated) && !errors.Is(err, service.ErrLocationUnavailable) {
			log.WithError(err).Error("Failed to create incident in service")
		}
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ModelToIncidentResponse(model))
}

// @Summary Get incident by ID
// @Description Get a single incident by its ID.
// @Tags Incidents
// @Produce json
// @Security BearerAuth
// @Param id path string true "Incident ID"
// @Success 200 {object} IncidentResponse
// @Failure 400 {object} map[string]string "Invalid incident ID"
// @Failure 404 {object} map[string]string "Incident not found"
// @Router /incidents/{id} [get]
func (h *Handler) getIncident(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid incident ID"})
		return
	}
	log := h.logger.WithField("method", "getIncident").WithField("id", id)

	incident, err := h.incidentService.GetIncident(c.Request.Context(), id)
	if err != nil {
		log.WithError(err).Warn("Failed to get incident from service")
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ModelToIncidentResponse(incident))
}

// @Summary Awaiting incidents feed
// @Description All incidents still awaiting a responder, newest first, with display distance. Verified responders only.
// @Tags Incidents
// @Produce json
// @Security BearerAuth
// @Success 200 {array} IncidentResponse
// @Failure 401 {object} map[string]string "Not authenticated"
// @Failure 403 {object} map[string]string "Responder not verified"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /incidents/awaiting [get]
func (h *Handler) awaitingFeed(c *gin.Context) {
	log := h.logger.WithField("method", "awaitingFeed")

	incidents, err := h.incidentService.AwaitingFeed(c.Request.Context(), currentUserID(c))
	if err != nil {
		if !errors.Is(err, service.ErrNotVerified) && !errors.Is(err, service.ErrNotAuthenticated) {
			log.WithError(err).Error("Failed to build awaiting feed")
		}
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, FeedToIncidentResponses(incidents))
}

// @Summary My incidents
// @Description Incidents created by the current user, newest first.
// @Tags Incidents
// @Produce json
// @Security BearerAuth
// @Success 200 {array} IncidentResponse
// @Failure 401 {object} map[string]string "Not authenticated"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /incidents/mine [get]
func (h *Handler) myIncidents(c *gin.Context) {
	log := h.logger.WithField("method", "myIncidents")

	incidents, err := h.incidentService.ListByRequester(c.Request.Context(), currentUserID(c))
	if err != nil {
		log.WithError(err).Error("Failed to list own incidents")
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ModelsToIncidentResponses(incidents))
}

// @Summary Claim an incident
// @Description Atomically claim an awaiting incident. Exactly one concurrent claimant succeeds; the rest receive 409.
// @Tags Incidents
// @Produce json
// @Security BearerAuth
// @Param id path string true "Incident ID"
// @Success 200 {object} IncidentResponse
// @Failure 400 {object} map[string]string "Invalid incident ID"
// @Failure 401 {object} map[string]string "Not authenticated"
// @Failure 403 {object} map[string]string "Responder not verified"
// @Failure 404 {object} map[string]string "Incident not found"
// @Failure 409 {object} map[string]string "Incident already claimed"
// @Router /incidents/{id}/claim [post]
func (h *Handler) claimIncident(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid incident ID"})
		return
	}
	log := h.logger.WithField("method", "claimIncident").WithField("id", id)

	incident, err := h.incidentService.Claim(c.Request.Context(), id, currentUserID(c))
	if err != nil {
		// Проигрыш гонки не логируется как ошибка
		if !errors.Is(err, service.ErrAlreadyClaimed) &&
			!errors.Is(err, service.ErrNotVerified) &&
			!errors.Is(err, service.ErrIncidentNotFound) {
			log.WithError(err).Error("Failed to claim incident")
		}
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ModelToIncidentResponse(incident))
}

// @Summary Incident change feed (SSE)
// @Description Server-sent events stream of incident insert/update notifications. Verified responders only.
// @Tags Incidents
// @Produce text/event-stream
// @Security BearerAuth
// @Success 200 {string} string "event stream"
// @Failure 403 {object} map[string]string "Responder not verified"
// @Router /incidents/feed [get]
func (h *Handler) streamFeed(c *gin.Context) {
	log := h.logger.WithField("method", "streamFeed")

	profile, err := h.responderService.GetOrCreateProfile(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if profile.VerificationStatus != models.VerificationVerified {
		c.JSON(http.StatusForbidden, gin.H{"error": "responder not verified"})
		return
	}

	events, unsubscribe, err := h.feedSubscriber.Subscribe(c.Request.Context())
	if err != nil {
		log.WithError(err).Error("Failed to subscribe to change feed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	// Уход клиента снимает подписку; уже принятые бд записи это не отменяет
	defer unsubscribe()

	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent("change", event)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

// @Summary My responder profile
// @Description Get the current user's responder profile, creating it on first visit.
// @Tags Responders
// @Produce json
// @Security BearerAuth
// @Success 200 {object} ResponderProfileResponse
// @Failure 401 {object} map[string]string "Not authenticated"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /responders/me [get]
func (h *Handler) getMyProfile(c *gin.Context) {
	log := h.logger.WithField("method", "getMyProfile")

	profile, err := h.responderService.GetOrCreateProfile(c.Request.Context(), currentUserID(c))
	if err != nil {
		log.WithError(err).Error("Failed to get responder profile")
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ModelToProfileResponse(profile))
}

// @Summary Set availability
// @Description Toggle responder availability. Going available requires fresh coordinates; they are written atomically with the flag.
// @Tags Responders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body SetAvailabilityRequest true "Availability request"
// @Success 200 {object} ResponderProfileResponse
// @Failure 400 {object} map[string]string "Invalid request body"
// @Failure 401 {object} map[string]string "Not authenticated"
// @Failure 422 {object} map[string]string "Location unavailable"
// @Router /responders/me/availability [put]
func (h *Handler) setAvailability(c *gin.Context) {
	var input SetAvailabilityRequest
	log := h.logger.WithField("method", "setAvailability")

	if err := c.ShouldBindJSON(&input); err != nil {
		log.WithError(err).Warn("Failed to bind JSON")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.validate.Struct(input); err != nil {
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile, err := h.responderService.SetAvailability(c.Request.Context(), currentUserID(c), input.Available, input.Latitude, input.Longitude)
	if err != nil {
		if !errors.Is(err, service.ErrLocationUnavailable) && !errors.Is(err, service.ErrNotAuthenticated) {
			log.WithError(err).Error("Failed to set availability")
		}
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ModelToProfileResponse(profile))
}

// @Summary Apply as responder
// @Description Submit a responder application: skills plus optional certification documents (multipart). Per-file upload failures do not block the application.
// @Tags Responders
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param skills formData string true "Skill (repeatable field)"
// @Param certifications formData file false "Certification documents"
// @Success 200 {object} ResponderProfileResponse
// @Failure 400 {object} map[string]string "No skills selected or malformed form"
// @Failure 401 {object} map[string]string "Not authenticated"
// @Router /responders/apply [post]
func (h *Handler) applyResponder(c *gin.Context) {
	log := h.logger.WithField("method", "applyResponder")

	form, err := c.MultipartForm()
	if err != nil {
		log.WithError(err).Warn("Failed to parse multipart form")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid multipart form"})
		return
	}

	skills := form.Value["skills"]
	if len(skills) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "at least one skill is required"})
		return
	}

	uploads := make([]models.CertificationUpload, 0, len(form.File["certifications"]))
	for _, fileHeader := range form.File["certifications"] {
		if fileHeader.Size > storage.MaxFileSize {
			log.WithField("file", fileHeader.Filename).Warn("Certification file too large, skipping")
			continue
		}
		file, err := fileHeader.Open()
		if err != nil {
			log.WithError(err).WithField("file", fileHeader.Filename).Warn("Failed to open uploaded file, skipping")
			continue
		}
		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			log.WithError(err).WithField("file", fileHeader.Filename).Warn("Failed to read uploaded file, skipping")
			continue
		}
		uploads = append(uploads, models.CertificationUpload{
			Name: fileHeader.Filename,
			Data: data,
		})
	}

	profile, err := h.responderService.Apply(c.Request.Context(), currentUserID(c), skills, uploads)
	if err != nil {
		if !errors.Is(err, service.ErrNotAuthenticated) {
			log.WithError(err).Error("Failed to submit responder application")
		}
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ModelToProfileResponse(profile))
}

// @Summary Get application health status
// @Description Get health status of the application
// @Tags System
// @Produce json
// @Success 200 {object} map[string]string "Status OK"
// @Router /system/health [get]
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
