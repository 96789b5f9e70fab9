package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/sidupak-api/internal/credit"
	"github.com/noah-isme/sidupak-api/internal/dto"
	"github.com/noah-isme/sidupak-api/internal/service"
	"github.com/noah-isme/sidupak-api/internal/utils"
)

// AuditHandler exposes the submission audit trail to administrators.
type AuditHandler struct {
	service service.AuditService
	logger  zerolog.Logger
}

// NewAuditHandler constructs the audit trail handler.
func NewAuditHandler(svc service.AuditService, logger zerolog.Logger) *AuditHandler {
	return &AuditHandler{
		service: svc,
		logger:  logger.With().Str("component", "audit_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *AuditHandler) Register(router fiber.Router) {
	router.Get("", h.list)
}

func (h *AuditHandler) list(c *fiber.Ctx) error {
	var query dto.AuditLogListQuery
	if err := c.QueryParser(&query); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "invalid query parameters", nil)
	}

	items, meta, err := h.service.List(c.UserContext(), query)
	if err != nil {
		var validationErr *credit.ValidationError
		if errors.As(err, &validationErr) {
			return utils.Fail(c, fiber.StatusBadRequest, validationErr.Error(), validationErr.Fields)
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list audit logs")
		return utils.Fail(c, fiber.StatusInternalServerError, "internal server error", nil)
	}

	return utils.OK(c, items, "audit logs retrieved", meta)
}
