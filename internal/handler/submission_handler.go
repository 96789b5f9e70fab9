package handler

import (
	"errors"
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/sidupak-api/internal/credit"
	"github.com/noah-isme/sidupak-api/internal/dto"
	"github.com/noah-isme/sidupak-api/internal/middleware"
	"github.com/noah-isme/sidupak-api/internal/service"
	"github.com/noah-isme/sidupak-api/internal/utils"
)

var (
	readRoles   = []credit.Role{credit.RoleLecturer, credit.RoleAdmin, credit.RoleValidator}
	createRoles = []credit.Role{credit.RoleLecturer}
	modifyRoles = []credit.Role{credit.RoleLecturer, credit.RoleAdmin}
)

// SubmissionHandler exposes the credit submission endpoints of one family.
type SubmissionHandler struct {
	service   service.SubmissionService
	maxUpload int64
	logger    zerolog.Logger
}

// NewSubmissionHandler builds a submission handler instance.
func NewSubmissionHandler(svc service.SubmissionService, maxUpload int64, logger zerolog.Logger) *SubmissionHandler {
	if maxUpload <= 0 {
		maxUpload = service.DefaultEvidenceMaxBytes
	}
	return &SubmissionHandler{
		service:   svc,
		maxUpload: maxUpload,
		logger:    logger.With().Str("component", "submission_handler").Str("family", svc.Family()).Logger(),
	}
}

// Register attaches the routes to the provided router group. uploadGuard, when set, runs
// before the endpoints that accept evidence files.
func (h *SubmissionHandler) Register(router fiber.Router, uploadGuard fiber.Handler) {
	upload := func(handler fiber.Handler) []fiber.Handler {
		if uploadGuard == nil {
			return []fiber.Handler{handler}
		}
		return []fiber.Handler{uploadGuard, handler}
	}

	router.Get("", middleware.WithAuth(h.list, middleware.AuthOptions{Roles: readRoles}))
	router.Post("", upload(middleware.WithAuth(h.create, middleware.AuthOptions{Roles: createRoles}))...)
	router.Get("/:id", middleware.WithAuth(h.get, middleware.AuthOptions{Roles: readRoles}))
	router.Patch("/:id", upload(middleware.WithAuth(h.update, middleware.AuthOptions{Roles: modifyRoles}))...)
	router.Delete("/:id", middleware.WithAuth(h.delete, middleware.AuthOptions{Roles: modifyRoles}))
	router.Get("/:id/file", middleware.WithAuth(h.file, middleware.AuthOptions{Roles: readRoles}))
	router.Get("/:id/preview", middleware.WithAuth(h.preview, middleware.AuthOptions{Roles: readRoles}))
}

func (h *SubmissionHandler) list(c *fiber.Ctx) error {
	var query dto.SubmissionListQuery
	if err := c.QueryParser(&query); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "invalid query parameters", nil)
	}
	if query.Kategori == "" {
		query.Kategori = strings.TrimSpace(c.Query("category"))
	}

	items, meta, err := h.service.List(c.UserContext(), actorFromContext(c), query)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.OK(c, items, "submissions retrieved", meta)
}

func (h *SubmissionHandler) create(c *fiber.Ctx) error {
	payload, file, err := multipartPayload(c)
	if err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	evidence, err := h.readEvidence(file)
	if err != nil {
		return h.handleError(c, err)
	}

	submission, err := h.service.Create(c.UserContext(), actorFromContext(c), categoryOf(payload), payload, evidence)
	if err != nil {
		return h.handleError(c, err)
	}

	requestLogger(h.logger, c).Info().
		Uint("submission_id", submission.ID).
		Str("kategori", submission.Kategori).
		Msg("submission created")

	return utils.Respond(c, fiber.StatusCreated, submission, "submission created", nil)
}

func (h *SubmissionHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	submission, err := h.service.Get(c.UserContext(), actorFromContext(c), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.OK(c, submission, "submission retrieved", nil)
}

func (h *SubmissionHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	payload, file, err := multipartPayload(c)
	if err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	var evidence *service.Evidence
	if file != nil {
		evidence, err = h.readEvidence(file)
		if err != nil {
			return h.handleError(c, err)
		}
	}

	submission, err := h.service.Update(c.UserContext(), actorFromContext(c), id, categoryOf(payload), payload, evidence)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.OK(c, submission, "submission updated", nil)
}

func (h *SubmissionHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	if err := h.service.Delete(c.UserContext(), actorFromContext(c), id); err != nil {
		return h.handleError(c, err)
	}

	requestLogger(h.logger, c).Info().Uint("submission_id", id).Msg("submission deleted")
	return utils.OK(c, fiber.Map{"id": id}, "submission deleted", nil)
}

func (h *SubmissionHandler) file(c *fiber.Ctx) error {
	disposition := "inline"
	if c.QueryBool("download", false) {
		disposition = "attachment"
	}
	return h.stream(c, disposition, "no-cache, no-store, must-revalidate")
}

func (h *SubmissionHandler) preview(c *fiber.Ctx) error {
	return h.stream(c, "inline", "private, max-age=3600")
}

func (h *SubmissionHandler) stream(c *fiber.Ctx, disposition, cacheControl string) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	evidence, err := h.service.OpenEvidence(c.UserContext(), actorFromContext(c), id)
	if err != nil {
		return h.handleError(c, err)
	}

	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("%s; filename=%q", disposition, evidence.FileName))
	c.Set(fiber.HeaderCacheControl, cacheControl)
	if disposition == "attachment" || strings.HasPrefix(cacheControl, "no-cache") {
		c.Set(fiber.HeaderPragma, "no-cache")
		c.Set(fiber.HeaderExpires, "0")
	}

	return c.SendStream(evidence.Reader)
}

// readEvidence applies the upload boundary checks. A missing file yields nil so the
// service can report it next to the other field violations.
func (h *SubmissionHandler) readEvidence(file *multipart.FileHeader) (*service.Evidence, error) {
	if file == nil {
		return nil, nil
	}
	return service.ReadEvidence(file, h.maxUpload)
}

func (h *SubmissionHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErr *credit.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return utils.Fail(c, fiber.StatusBadRequest, validationErr.Error(), validationErr.Fields)
	case errors.Is(err, credit.ErrUnrecognizedCategory):
		return utils.Fail(c, fiber.StatusNotFound, "category not recognized", nil)
	case errors.Is(err, service.ErrEvidenceTooLarge):
		return utils.Fail(c, fiber.StatusRequestEntityTooLarge, err.Error(), nil)
	case errors.Is(err, service.ErrEvidenceNotPDF), errors.Is(err, service.ErrEvidenceRequired):
		return utils.Fail(c, fiber.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, service.ErrForbidden):
		return utils.Fail(c, fiber.StatusForbidden, "you do not have access to this submission", nil)
	case errors.Is(err, service.ErrSubmissionNotFound):
		return utils.Fail(c, fiber.StatusNotFound, "submission not found", nil)
	case errors.Is(err, service.ErrLecturerNotFound):
		return utils.Fail(c, fiber.StatusNotFound, "lecturer profile with a functional rank not found", nil)
	case errors.Is(err, service.ErrEvidenceMissing):
		return utils.Fail(c, fiber.StatusNotFound, "evidence file not found", nil)
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.Fail(c, fiber.StatusInternalServerError, "internal server error", nil)
	}
}
