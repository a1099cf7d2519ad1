package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/scholarship-api/internal/service"
	"github.com/noah-isme/scholarship-api/internal/utils"
)

// MatchingHandler serves eligibility checks and recommendations to students.
type MatchingHandler struct {
	service service.MatchingService
	logger  zerolog.Logger
	now     func() time.Time
}

// NewMatchingHandler constructs the handler.
func NewMatchingHandler(service service.MatchingService, logger zerolog.Logger) *MatchingHandler {
	return &MatchingHandler{
		service: service,
		logger:  logger.With().Str("component", "matching_handler").Logger(),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the handler clock, used by tests.
func (h *MatchingHandler) WithClock(now func() time.Time) *MatchingHandler {
	if now != nil {
		h.now = now
	}
	return h
}

// Register attaches the scholarship matching endpoints.
func (h *MatchingHandler) Register(router fiber.Router) {
	router.Get("/recommendations", h.recommendations)
	router.Get("/:id/eligibility", h.eligibility)
}

func (h *MatchingHandler) recommendations(c *fiber.Ctx) error {
	studentID := userIDFromContext(c)
	if studentID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "missing user context")
	}

	resp, err := h.service.RecommendForStudent(c.Context(), studentID, h.now())
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.OK(c, resp, "recommendations retrieved", fiber.Map{
		"count":         len(resp.Items),
		"score_version": resp.ScoreVersion,
	})
}

func (h *MatchingHandler) eligibility(c *fiber.Ctx) error {
	scholarshipID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	studentID := userIDFromContext(c)
	if studentID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "missing user context")
	}

	resp, err := h.service.CheckEligibility(c.Context(), studentID, scholarshipID, h.now())
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "eligibility evaluated", resp)
}
