package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/habitup/habitup-engine/internal/core/flow"
)

const (
	sessionHeader        = "X-Session-ID"
	ContextSessionIDKey  = "sessionID"
	ContextControllerKey = "flowController"
)

// SessionMiddleware resolves the session header to its flow controller.
// Every flow and tab operation is scoped to exactly one session.
func SessionMiddleware(registry *flow.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader(sessionHeader)
		if sessionID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "session header required"})
			c.Abort()
			return
		}

		ctrl, ok := registry.Get(sessionID)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown or expired session"})
			c.Abort()
			return
		}

		c.Set(ContextSessionIDKey, sessionID)
		c.Set(ContextControllerKey, ctrl)

		c.Next()
	}
}

func GetController(c *gin.Context) (*flow.Controller, bool) {
	v, exists := c.Get(ContextControllerKey)
	if !exists {
		return nil, false
	}
	ctrl, ok := v.(*flow.Controller)
	return ctrl, ok
}

func GetSessionID(c *gin.Context) (string, bool) {
	v, exists := c.Get(ContextSessionIDKey)
	if !exists {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}
