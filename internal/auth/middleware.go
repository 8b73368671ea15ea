package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// UserIDKey is the gin context key holding the authenticated uuid.UUID.
const UserIDKey = "user_id"

// Middleware rejects requests without a valid bearer token and stores the
// user id under UserIDKey.
func Middleware(verifier TokenVerifier, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c.GetHeader("Authorization"))
		if err == nil {
			var userID uuid.UUID
			userID, err = verifier.Verify(c.Request.Context(), token)
			if err == nil {
				c.Set(UserIDKey, userID)
				c.Next()
				return
			}
		}

		logger.Debug("Rejected unauthenticated request",
			"path", c.Request.URL.Path,
			"error", err)
		message := "Invalid token"
		if errors.Is(err, ErrMissingToken) {
			message = "Authentication required"
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": message})
	}
}

// UserID returns the authenticated user set by Middleware.
func UserID(c *gin.Context) (uuid.UUID, bool) {
	value, exists := c.Get(UserIDKey)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := value.(uuid.UUID)
	return id, ok && id != uuid.Nil
}

func bearerToken(header string) (string, error) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", ErrMissingToken
	}
	return strings.TrimSpace(token), nil
}
