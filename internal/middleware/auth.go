package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/primecode/internal/auth"
	"github.com/yukikurage/primecode/internal/constants"
	apierrors "github.com/yukikurage/primecode/internal/errors"
	"github.com/yukikurage/primecode/internal/models"
	"github.com/yukikurage/primecode/internal/services"
)

// UserLookup resolves the user a verified token refers to.
type UserLookup interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
}

// RequireAuth checks the bearer token and attaches the current user to the context.
func RequireAuth(tokens *auth.TokenService, users UserLookup, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		userID, err := tokens.Verify(token)
		if err != nil {
			log.WithFields(logrus.Fields{
				"reason":     err.Error(),
				"request_id": c.GetString(constants.ContextKeyRequestID),
			}).Warn("rejected bearer token")
			apierrors.Unauthorized(c, "Invalid or expired token")
			c.Abort()
			return
		}

		user, err := users.GetUser(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, services.ErrUserNotFound) {
				log.WithField("user_id", userID).Warn("token subject no longer exists")
				apierrors.Unauthorized(c, "User no longer exists")
				c.Abort()
				return
			}
			log.WithError(err).Error("failed to resolve token subject")
			apierrors.InternalError(c)
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyUser, user)
		c.Next()
	}
}

// GetCurrentUser retrieves the authenticated user from context
func GetCurrentUser(c *gin.Context) (*models.User, bool) {
	v, exists := c.Get(constants.ContextKeyUser)
	if !exists {
		return nil, false
	}
	user, ok := v.(*models.User)
	if !ok || user == nil {
		return nil, false
	}
	return user, true
}

func bearerToken(header string) (string, bool) {
	if len(header) <= len(constants.BearerPrefix) || !strings.EqualFold(header[:len(constants.BearerPrefix)], constants.BearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(constants.BearerPrefix):])
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}
	return token, true
}
