package v1

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/localhero/hero_finder/internal/service"
	"github.com/sirupsen/logrus"
)

const (
	contextUserIDKey  = "user_id"
	contextSessionKey = "session_token"
)

// SessionAuthMiddleware - middleware аутентификации по токену сессии.
// Разобранный пользователь кладется в контекст запроса: хэндлеры передают
// его в сервисы явно, глобального состояния "текущий пользователь" нет.
func SessionAuthMiddleware(authService service.AuthService, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			log.Warn("Session token missing from request")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session token required"})
			return
		}

		userID, err := authService.ResolveSession(c.Request.Context(), token)
		if err != nil {
			log.Warn("Invalid or expired session token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid session"})
			return
		}

		c.Set(contextUserIDKey, userID)
		c.Set(contextSessionKey, token)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" && strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}

// currentUserID возвращает пользователя текущего запроса.
// Вне авторизованной группы возвращает uuid.Nil - сервисы
// отвергнут такую операцию как неаутентифицированную.
func currentUserID(c *gin.Context) uuid.UUID {
	val, ok := c.Get(contextUserIDKey)
	if !ok {
		return uuid.Nil
	}
	userID, ok := val.(uuid.UUID)
	if !ok {
		return uuid.Nil
	}
	return userID
}

func sessionToken(c *gin.Context) string {
	val, ok := c.Get(contextSessionKey)
	if !ok {
		return ""
	}
	token, _ := val.(string)
	return token
}
