package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const ctxUsername = "username"

func (h *Handler) sessionMiddleware(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if header == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "missing Authorization header",
		})
		return
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "invalid Authorization header format",
		})
		return
	}

	h.authorize(c, parts[1])
}

// streamSessionMiddleware accepts the token from the Authorization header
// or from the token query parameter.
func (h *Handler) streamSessionMiddleware(c *gin.Context) {
	if c.GetHeader("Authorization") != "" {
		h.sessionMiddleware(c)
		return
	}
	token := c.Query("token")
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "missing token",
		})
		return
	}
	h.authorize(c, token)
}

func (h *Handler) authorize(c *gin.Context, token string) {
	username, err := h.services.Authorize(token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "invalid or expired token",
		})
		return
	}

	// store in Gin context
	c.Set(ctxUsername, username)
	c.Next()
}
