package handler

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/scholarship-api/internal/dto"
	"github.com/noah-isme/scholarship-api/internal/service"
	"github.com/noah-isme/scholarship-api/internal/utils"
)

// DisbursementHandler exposes payouts of approved awards.
type DisbursementHandler struct {
	service service.DisbursementService
	logger  zerolog.Logger
	now     func() time.Time
}

// NewDisbursementHandler constructs the handler.
func NewDisbursementHandler(service service.DisbursementService, logger zerolog.Logger) *DisbursementHandler {
	return &DisbursementHandler{
		service: service,
		logger:  logger.With().Str("component", "disbursement_handler").Logger(),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the handler clock, used by tests.
func (h *DisbursementHandler) WithClock(now func() time.Time) *DisbursementHandler {
	if now != nil {
		h.now = now
	}
	return h
}

// Register attaches the read endpoint under the applications group and the
// status endpoint under the admin group.
func (h *DisbursementHandler) Register(applications, admin fiber.Router) {
	applications.Get("/:id/disbursements", h.list)
	admin.Post("/disbursements/:id/status", h.transition)
}

func (h *DisbursementHandler) list(c *fiber.Ctx) error {
	disbursements, err := h.service.ListForApplication(c.Context(), strings.TrimSpace(c.Params("id")), actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.OK(c, disbursements, "disbursements retrieved", fiber.Map{"count": len(disbursements)})
}

func (h *DisbursementHandler) transition(c *fiber.Ctx) error {
	var req dto.DisbursementTransitionRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request payload")
	}

	resp, err := h.service.Transition(c.Context(), strings.TrimSpace(c.Params("id")), req, actorFromContext(c), h.now())
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "disbursement status updated", resp)
}
