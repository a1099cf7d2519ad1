package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/scholarship-api/internal/eligibility"
	"github.com/noah-isme/scholarship-api/internal/lifecycle"
	"github.com/noah-isme/scholarship-api/internal/middleware"
	"github.com/noah-isme/scholarship-api/internal/service"
	"github.com/noah-isme/scholarship-api/internal/utils"
)

type fieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

func userIDFromContext(c *fiber.Ctx) uint {
	if v := c.Locals("user_id"); v != nil {
		if id, ok := v.(uint); ok {
			return id
		}
		if id, ok := v.(int); ok {
			if id < 0 {
				return 0
			}
			return uint(id)
		}
	}
	return 0
}

func userRoleFromContext(c *fiber.Ctx) string {
	if v := c.Locals("user_role"); v != nil {
		if role, ok := v.(string); ok {
			return strings.ToLower(strings.TrimSpace(role))
		}
	}
	return ""
}

func actorFromContext(c *fiber.Ctx) lifecycle.Actor {
	return lifecycle.Actor{
		ID:   userIDFromContext(c),
		Role: userRoleFromContext(c),
	}
}

func parseUintParam(c *fiber.Ctx, name string) (uint, error) {
	parsed, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || parsed == 0 {
		return 0, errors.New("invalid identifier")
	}
	return uint(parsed), nil
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

// respondError maps domain errors onto HTTP statuses. Anything unrecognised is
// logged and reported as a 500.
func respondError(c *fiber.Ctx, logger zerolog.Logger, err error) error {
	var (
		validationErr  *service.ValidationError
		duplicateErr   *service.DuplicateApplicationError
		notEligibleErr *eligibility.NotEligibleError
		invalidErr     *lifecycle.InvalidTransitionError
		payoutErr      *lifecycle.InvalidDisbursementTransitionError
	)

	switch {
	case errors.As(err, &validationErr):
		return utils.Fail(c, fiber.StatusBadRequest, validationErr.Error(), validationDetails(validationErr))
	case errors.Is(err, service.ErrForbidden),
		errors.Is(err, lifecycle.ErrOwnerOnly),
		errors.Is(err, lifecycle.ErrSystemOnly):
		return utils.SendError(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrApplicationNotFound),
		errors.Is(err, service.ErrScholarshipNotFound),
		errors.Is(err, service.ErrStudentNotFound),
		errors.Is(err, service.ErrDisbursementNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.As(err, &duplicateErr):
		return utils.Fail(c, fiber.StatusConflict, "duplicate application", fiber.Map{"existing_application_id": duplicateErr.ExistingID})
	case errors.As(err, &invalidErr):
		return utils.Fail(c, fiber.StatusConflict, "invalid status transition", fiber.Map{"from": invalidErr.From, "to": invalidErr.To})
	case errors.As(err, &payoutErr):
		return utils.Fail(c, fiber.StatusConflict, "invalid disbursement transition", fiber.Map{"from": payoutErr.From, "to": payoutErr.To})
	case errors.Is(err, lifecycle.ErrCapacityExceeded), errors.Is(err, lifecycle.ErrNotOverdue):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.As(err, &notEligibleErr):
		return utils.Fail(c, fiber.StatusUnprocessableEntity, "student is not eligible", fiber.Map{"reasons": notEligibleErr.Reasons})
	case errors.Is(err, service.ErrScholarshipNotOpen):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, err.Error())
	}

	requestLogger(logger, c).Error().Err(err).Str("path", c.Path()).Msg("request failed")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}

func validationDetails(err *service.ValidationError) []fieldError {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		details := make([]fieldError, 0, len(validationErrors))
		for _, fe := range validationErrors {
			details = append(details, fieldError{Field: fe.Namespace(), Rule: fe.Tag()})
		}
		return details
	}
	if err.Field != "" {
		return []fieldError{{Field: err.Field, Rule: "invalid"}}
	}
	return nil
}
