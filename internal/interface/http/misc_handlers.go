package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/offer-marketplace/internal/application"
	"github.com/oksasatya/offer-marketplace/internal/realtime"
	"github.com/oksasatya/offer-marketplace/pkg/helpers"
	"github.com/oksasatya/offer-marketplace/pkg/response"
	"github.com/oksasatya/offer-marketplace/pkg/validation"
)

type RealtimeHandler struct {
	Hub    *realtime.Hub
	Logger *logrus.Logger
}

func NewRealtimeHandler(hub *realtime.Hub, logger *logrus.Logger) *RealtimeHandler {
	return &RealtimeHandler{Hub: hub, Logger: logger}
}

// Status reports whether the hub exists and its run loop is active. It never starts anything.
func (h *RealtimeHandler) Status(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{
		"initialized": h.Hub.Running(),
		"connections": h.Hub.Connections(),
	}, "socket status", nil)
}

func (h *RealtimeHandler) Socket(c *gin.Context) {
	if !h.Hub.Running() {
		response.Error[any](c, http.StatusServiceUnavailable, "realtime not available", nil)
		return
	}
	if err := h.Hub.ServeWS(c.Writer, c.Request, c.GetString("userID")); err != nil {
		// the upgrader has already written the HTTP error
		helpers.RequestEntry(h.Logger, c).WithError(err).Debug("websocket upgrade failed")
	}
}

type AdCopyHandler struct {
	Svc    *application.AdCopyService
	Logger *logrus.Logger
}

func NewAdCopyHandler(svc *application.AdCopyService, logger *logrus.Logger) *AdCopyHandler {
	return &AdCopyHandler{Svc: svc, Logger: logger}
}

type improveAdRequest struct {
	Text string `json:"text"`
}

func (h *AdCopyHandler) Improve(c *gin.Context) {
	var req improveAdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	out, err := h.Svc.Improve(c.Request.Context(), req.Text)
	switch {
	case err == nil:
		response.Success(c, http.StatusOK, gin.H{"improvedText": out}, "ad improved", nil)
	case errors.Is(err, application.ErrEmptyAdText):
		response.Error[any](c, http.StatusBadRequest, "text is required", map[string]string{"text": "is required"})
	case errors.Is(err, application.ErrAdTextTooLong):
		response.Error[any](c, http.StatusBadRequest, "text is too long", map[string]string{"text": "must be at most 5000 characters long"})
	case errors.Is(err, application.ErrAIUnavailable):
		response.Error[any](c, http.StatusServiceUnavailable, "ad improvement not available", nil)
	default:
		// the service already logged the provider error
		response.Error[any](c, http.StatusInternalServerError, "failed to improve ad", nil)
	}
}

type ContractStepHandler struct {
	Svc    *application.ContractStepService
	Logger *logrus.Logger
}

func NewContractStepHandler(svc *application.ContractStepService, logger *logrus.Logger) *ContractStepHandler {
	return &ContractStepHandler{Svc: svc, Logger: logger}
}

func (h *ContractStepHandler) List(c *gin.Context) {
	steps, err := h.Svc.List(c.Request.Context())
	if err != nil {
		fail(c, h.Logger, err, "failed to list contract steps")
		return
	}
	out := make([]gin.H, 0, len(steps))
	for _, s := range steps {
		out = append(out, gin.H{
			"id":          s.ID,
			"title":       s.Title,
			"description": s.Description,
			"position":    s.Position,
		})
	}
	response.Success(c, http.StatusOK, out, "contract steps", nil)
}

// Check is a named readiness probe, e.g. a database ping.
type Check struct {
	Name string
	Fn   func(ctx context.Context) error
}

type HealthHandler struct {
	Checks []Check
	Logger *logrus.Logger
}

func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	results := gin.H{}
	for _, chk := range h.Checks {
		if err := chk.Fn(ctx); err != nil {
			status = http.StatusServiceUnavailable
			results[chk.Name] = "down"
			helpers.RequestEntry(h.Logger, c).WithError(err).WithField("check", chk.Name).Warn("readiness check failed")
			continue
		}
		results[chk.Name] = "up"
	}
	state := "ready"
	if status != http.StatusOK {
		state = "not ready"
	}
	c.JSON(status, gin.H{"status": state, "checks": results})
}
