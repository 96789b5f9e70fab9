package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/sidupak-api/internal/credit"
	"github.com/noah-isme/sidupak-api/internal/middleware"
	"github.com/noah-isme/sidupak-api/internal/service"
	"github.com/noah-isme/sidupak-api/internal/utils"
)

// CreditSummaryHandler serves the per-lecturer credit totals.
type CreditSummaryHandler struct {
	service service.CreditSummaryService
	logger  zerolog.Logger
}

// NewCreditSummaryHandler constructs the summary handler.
func NewCreditSummaryHandler(svc service.CreditSummaryService, logger zerolog.Logger) *CreditSummaryHandler {
	return &CreditSummaryHandler{
		service: svc,
		logger:  logger.With().Str("component", "credit_summary_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *CreditSummaryHandler) Register(router fiber.Router) {
	router.Get("/summary", middleware.WithAuth(h.summary, middleware.AuthOptions{Roles: readRoles}))
}

func (h *CreditSummaryHandler) summary(c *fiber.Ctx) error {
	dosenID, err := parseQueryUint(c, "dosenId")
	if err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "invalid dosenId", nil)
	}

	summary, cached, err := h.service.GetSummary(c.UserContext(), actorFromContext(c), dosenID)
	if err != nil {
		var validationErr *credit.ValidationError
		switch {
		case errors.As(err, &validationErr):
			return utils.Fail(c, fiber.StatusBadRequest, validationErr.Error(), validationErr.Fields)
		case errors.Is(err, service.ErrForbidden):
			return utils.Fail(c, fiber.StatusForbidden, "insufficient permissions", nil)
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("failed to build credit summary")
			return utils.Fail(c, fiber.StatusInternalServerError, "internal server error", nil)
		}
	}

	if cached {
		c.Set("X-Cache", "HIT")
	} else {
		c.Set("X-Cache", "MISS")
	}

	return utils.OK(c, summary, "credit summary retrieved", nil)
}
