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

// ApplicationHandler exposes the application lifecycle over HTTP.
type ApplicationHandler struct {
	service service.ApplicationService
	logger  zerolog.Logger
	now     func() time.Time
}

// NewApplicationHandler constructs the handler.
func NewApplicationHandler(service service.ApplicationService, logger zerolog.Logger) *ApplicationHandler {
	return &ApplicationHandler{
		service: service,
		logger:  logger.With().Str("component", "application_handler").Logger(),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the handler clock, used by tests.
func (h *ApplicationHandler) WithClock(now func() time.Time) *ApplicationHandler {
	if now != nil {
		h.now = now
	}
	return h
}

// ApplicationGuards are the per-route middlewares applied by Register. Nil
// entries are skipped.
type ApplicationGuards struct {
	Student     fiber.Handler
	Reviewer    fiber.Handler
	CreateLimit fiber.Handler
}

// Register attaches the application endpoints. Role checks are attached per
// route because every group middleware in fiber applies to the whole prefix.
func (h *ApplicationHandler) Register(router fiber.Router, guards ApplicationGuards) {
	router.Post("", guarded(h.create, guards.Student, guards.CreateLimit)...)
	router.Get("", guarded(h.listMine, guards.Student)...)
	router.Get("/:id", h.get)
	router.Post("/:id/submit", guarded(h.submit, guards.Student)...)
	router.Post("/:id/withdraw", guarded(h.withdraw, guards.Student)...)
	router.Post("/:id/decision", guarded(h.decide, guards.Reviewer)...)
}

// guarded returns a fresh handler chain ending in final.
func guarded(final fiber.Handler, guards ...fiber.Handler) []fiber.Handler {
	out := make([]fiber.Handler, 0, len(guards)+1)
	for _, guard := range guards {
		if guard != nil {
			out = append(out, guard)
		}
	}
	return append(out, final)
}

func (h *ApplicationHandler) create(c *fiber.Ctx) error {
	var req dto.CreateApplicationRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request payload")
	}
	req.StudentID = userIDFromContext(c)

	created, err := h.service.Create(c.Context(), req, h.now())
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "application created", created)
}

func (h *ApplicationHandler) listMine(c *fiber.Ctx) error {
	apps, err := h.service.ListForStudent(c.Context(), actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.OK(c, apps, "applications retrieved", fiber.Map{"count": len(apps)})
}

func (h *ApplicationHandler) get(c *fiber.Ctx) error {
	app, err := h.service.Get(c.Context(), strings.TrimSpace(c.Params("id")), actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "application retrieved", app)
}

func (h *ApplicationHandler) submit(c *fiber.Ctx) error {
	resp, err := h.service.Submit(c.Context(), strings.TrimSpace(c.Params("id")), actorFromContext(c), h.now())
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "application submitted", resp)
}

func (h *ApplicationHandler) withdraw(c *fiber.Ctx) error {
	var req dto.WithdrawRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid request payload")
		}
	}

	resp, err := h.service.Withdraw(c.Context(), strings.TrimSpace(c.Params("id")), req, actorFromContext(c), h.now())
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "application withdrawn", resp)
}

func (h *ApplicationHandler) decide(c *fiber.Ctx) error {
	var req dto.DecisionRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request payload")
	}

	resp, err := h.service.Decide(c.Context(), strings.TrimSpace(c.Params("id")), req, actorFromContext(c), h.now())
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "application status updated", resp)
}
