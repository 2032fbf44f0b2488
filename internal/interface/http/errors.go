package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/offer-marketplace/internal/application"
	"github.com/oksasatya/offer-marketplace/pkg/helpers"
	"github.com/oksasatya/offer-marketplace/pkg/response"
)

// statusOf maps application errors to HTTP statuses; anything unknown is a 500.
func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, application.ErrUserNotFound):
		return http.StatusNotFound, "user not found"
	case errors.Is(err, application.ErrOfferNotFound):
		return http.StatusNotFound, "offer not found"
	case errors.Is(err, application.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, application.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, application.ErrEmailTaken):
		return http.StatusConflict, "email already registered"
	case errors.Is(err, application.ErrStorageUnavailable):
		return http.StatusServiceUnavailable, "image storage not configured"
	}
	return http.StatusInternalServerError, ""
}

// fail writes the error envelope. Internal errors are logged and reported with fallback only.
func fail(c *gin.Context, logger *logrus.Logger, err error, fallback string) {
	status, msg := statusOf(err)
	if status == http.StatusInternalServerError {
		helpers.RequestEntry(logger, c).WithError(err).Error(fallback)
		response.Error[any](c, status, fallback, nil)
		return
	}
	response.Error[any](c, status, msg, nil)
}
