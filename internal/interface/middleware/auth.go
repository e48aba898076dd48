package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-task-manager/internal/application"
	"github.com/oksasatya/go-task-manager/internal/domain/entity"
	"github.com/oksasatya/go-task-manager/pkg/response"
)

const ctxSessionKey = "session"

// Session is the authenticated caller of a protected route.
type Session struct {
	User  *entity.User
	Token string
}

// Authenticator resolves a bearer token to its live owner.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*entity.User, error)
}

func bearerToken(c *gin.Context) string {
	h := strings.TrimSpace(c.GetHeader("Authorization"))
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// Auth requires "Authorization: Bearer <token>" naming a live session.
// On success the Session is available through SessionFrom.
func Auth(auth Authenticator, logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			response.Error(c, http.StatusUnauthorized, application.ErrInvalidToken.Error(), nil)
			return
		}
		u, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			if !errors.Is(err, application.ErrInvalidToken) {
				logger.WithError(err).WithField("request_id", c.GetString("request_id")).Error("session lookup failed")
			}
			response.Error(c, http.StatusUnauthorized, application.ErrInvalidToken.Error(), nil)
			return
		}
		c.Set(ctxSessionKey, &Session{User: u, Token: token})
		c.Set("userID", u.ID)
		c.Next()
	}
}

// SessionFrom returns the session attached by Auth.
func SessionFrom(c *gin.Context) (*Session, bool) {
	v, ok := c.Get(ctxSessionKey)
	if !ok {
		return nil, false
	}
	s, ok := v.(*Session)
	return s, ok
}
