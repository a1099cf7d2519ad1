package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/scholarship-api/internal/dto"
	"github.com/noah-isme/scholarship-api/internal/service"
	"github.com/noah-isme/scholarship-api/internal/utils"
)

// AdminHandler exposes operational endpoints for administrators.
type AdminHandler struct {
	applications service.ApplicationService
	logger       zerolog.Logger
	now          func() time.Time
}

// NewAdminHandler constructs the handler.
func NewAdminHandler(applications service.ApplicationService, logger zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		applications: applications,
		logger:       logger.With().Str("component", "admin_handler").Logger(),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the handler clock, used by tests.
func (h *AdminHandler) WithClock(now func() time.Time) *AdminHandler {
	if now != nil {
		h.now = now
	}
	return h
}

// Register attaches the admin endpoints.
func (h *AdminHandler) Register(router fiber.Router) {
	router.Post("/applications/expire", h.expire)
}

func (h *AdminHandler) expire(c *fiber.Ctx) error {
	expired, err := h.applications.ExpireOverdue(c.Context(), h.now())
	if err != nil {
		return respondError(c, h.logger, err)
	}

	requestLogger(h.logger, c).Info().Int("count", len(expired)).Msg("manual expiry sweep finished")
	return utils.SendSuccess(c, "expiry sweep completed", dto.ExpireResponse{Expired: expired, Count: len(expired)})
}
