package v1

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes регистрирует все маршруты API v1
func (h *Handler) RegisterRoutes(api *gin.RouterGroup) {
	// Публичные маршруты идентификации
	auth := api.Group("/auth")
	{
		auth.POST("/signup", h.signUp)
		auth.POST("/signin", h.signIn)
	}

	// Маршрут Health-check
	api.GET("/system/health", h.healthCheck)

	// Все остальное требует сессию
	authed := api.Group("", SessionAuthMiddleware(h.authService, h.logger))
	{
		authed.POST("/auth/signout", h.signOut)

		incidents := authed.Group("/incidents")
		{
			incidents.POST("", h.createIncident)
			incidents.GET("/awaiting", h.awaitingFeed)
			incidents.GET("/mine", h.myIncidents)
			incidents.GET("/feed", h.streamFeed)
			incidents.GET("/:id", h.getIncident)
			incidents.POST("/:id/claim", h.claimIncident)
		}

		responders := authed.Group("/responders")
		{
			responders.GET("/me", h.getMyProfile)
			responders.PUT("/me/availability", h.setAvailability)
			responders.POST("/apply", h.applyResponder)
		}
	}
}
