package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nemopss/fin-track/models"
	"github.com/nemopss/fin-track/service"
)

// userKey is the gin context key holding the authenticated user id.
const userKey = "auth.userID"

// authUser returns the user set by AuthMiddleware.
func authUser(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// AuthMiddleware requires a valid bearer token and stores its subject in the
// context. It is a no-op when auth is disabled.
func (h *Handler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !h.authEnabled {
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Message: "authorization header is required"})
			return
		}

		userID, err := h.accounts.ParseToken(strings.TrimSpace(token))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Message: "invalid token"})
			return
		}

		c.Set(userKey, userID)
		c.Next()
	}
}

// owner picks the user a request acts for. With auth on, the token subject
// wins and a different userId in the body is rejected.
func (h *Handler) owner(c *gin.Context, bodyUserID string) (string, bool) {
	tokenUser, ok := authUser(c)
	if !ok {
		return bodyUserID, true
	}

	bodyUserID = strings.TrimSpace(bodyUserID)
	if bodyUserID == "" {
		return tokenUser.String(), true
	}
	if id, err := uuid.Parse(bodyUserID); err != nil || id != tokenUser {
		h.fail(c, service.Forbidden("user id does not match the token"))
		return "", false
	}
	return tokenUser.String(), true
}
