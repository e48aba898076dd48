package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-task-manager/internal/application"
	"github.com/oksasatya/go-task-manager/pkg/response"
	"github.com/oksasatya/go-task-manager/pkg/validation"
)

// statusFor maps a service error onto an HTTP status and client message.
func statusFor(err error) (int, string, map[string]string) {
	var verr *application.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Message, verr.Fields
	case errors.Is(err, application.ErrAuthentication):
		return http.StatusUnauthorized, application.ErrAuthentication.Error(), nil
	case errors.Is(err, application.ErrInvalidToken):
		return http.StatusUnauthorized, application.ErrInvalidToken.Error(), nil
	case errors.Is(err, application.ErrNotFound):
		return http.StatusNotFound, application.ErrNotFound.Error(), nil
	default:
		return http.StatusInternalServerError, application.ErrInternal.Error(), nil
	}
}

func writeError(c *gin.Context, logger logrus.FieldLogger, err error) {
	status, msg, details := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.WithError(err).WithFields(logrus.Fields{
			"request_id": c.GetString("request_id"),
			"path":       c.FullPath(),
		}).Error("request failed")
	}
	response.Error(c, status, msg, details)
}

// bindJSON decodes the request body into dst, reporting decode problems as a 400.
func bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return &application.ValidationError{Message: "invalid payload", Fields: validation.ToDetails(err)}
	}
	return nil
}
