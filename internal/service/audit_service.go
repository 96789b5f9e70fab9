package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/noah-isme/sidupak-api/internal/dto"
	"github.com/noah-isme/sidupak-api/internal/middleware"
	"github.com/noah-isme/sidupak-api/internal/models"
	"github.com/noah-isme/sidupak-api/internal/repository"
)

// AuditEntry captures the details required to persist an audit entry.
type AuditEntry struct {
	ActorID    uint
	ActorRole  string
	Action     string
	EntityType string
	EntityID   *uint
	Metadata   map[string]interface{}
}

// AuditRecorder defines behaviour for recording audit logs.
type AuditRecorder interface {
	Record(ctx context.Context, entry AuditEntry) (dto.AuditLogResponse, error)
}

// AuditService exposes methods to query and persist audit logs.
type AuditService interface {
	AuditRecorder
	List(ctx context.Context, query dto.AuditLogListQuery) ([]dto.AuditLogResponse, dto.PaginationMeta, error)
}

type auditService struct {
	repo      repository.AuditLogRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewAuditService constructs the audit log service.
func NewAuditService(repo repository.AuditLogRepository, validate *validator.Validate, logger zerolog.Logger) AuditService {
	return &auditService{
		repo:      repo,
		validator: validate,
		logger:    logger.With().Str("component", "audit_service").Logger(),
	}
}

func (s *auditService) Record(ctx context.Context, entry AuditEntry) (dto.AuditLogResponse, error) {
	if strings.TrimSpace(entry.Action) == "" {
		return dto.AuditLogResponse{}, fmt.Errorf("action is required")
	}
	if strings.TrimSpace(entry.EntityType) == "" {
		return dto.AuditLogResponse{}, fmt.Errorf("entity type is required")
	}

	model := models.AuditLog{
		ActorID:    entry.ActorID,
		ActorRole:  normalizeRole(entry.ActorRole),
		Action:     strings.ToLower(strings.TrimSpace(entry.Action)),
		EntityType: strings.ToLower(strings.TrimSpace(entry.EntityType)),
		EntityID:   entry.EntityID,
		Metadata:   sanitizeMetadata(entry.Metadata),
	}
	if correlationID := middleware.CorrelationIDFromContext(ctx); correlationID != "" {
		model.Metadata["correlation_id"] = correlationID
	}

	if err := s.repo.Create(ctx, &model); err != nil {
		s.logger.Error().Err(err).Msg("failed to persist audit log")
		return dto.AuditLogResponse{}, err
	}

	return dto.NewAuditLogResponse(model), nil
}

func (s *auditService) List(ctx context.Context, query dto.AuditLogListQuery) ([]dto.AuditLogResponse, dto.PaginationMeta, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, dto.PaginationMeta{}, fromValidatorErrors("invalid audit log query", err)
	}

	page := maxInt(query.Page, 1)
	limit := query.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}

	entries, total, err := s.repo.List(ctx, repository.AuditLogFilter{
		Page:     page,
		PageSize: limit,
		ActorID:  query.ActorID,
		Action:   strings.ToLower(strings.TrimSpace(query.Action)),
		EntityID: query.EntityID,
	})
	if err != nil {
		return nil, dto.PaginationMeta{}, err
	}

	responses := make([]dto.AuditLogResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, dto.NewAuditLogResponse(entry))
	}

	return responses, dto.NewPaginationMeta(page, limit, total), nil
}

func sanitizeMetadata(metadata map[string]interface{}) datatypes.JSONMap {
	if metadata == nil {
		return datatypes.JSONMap{}
	}

	sanitized := datatypes.JSONMap{}
	for key, value := range metadata {
		lower := strings.ToLower(key)
		if strings.Contains(lower, "email") || strings.Contains(lower, "token") || strings.Contains(lower, "password") {
			sanitized[key] = "***"
			continue
		}
		sanitized[key] = value
	}
	return sanitized
}

func normalizeRole(role string) string {
	r := strings.ToLower(strings.TrimSpace(role))
	if r == "" {
		return "system"
	}
	return r
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
