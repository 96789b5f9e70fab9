package dto

import (
	"time"

	"github.com/noah-isme/sidupak-api/internal/models"
)

// AuditLogListQuery filters the audit trail.
type AuditLogListQuery struct {
	Page     int    `query:"page" validate:"omitempty,min=1"`
	Limit    int    `query:"limit" validate:"omitempty,min=1,max=100"`
	ActorID  *uint  `query:"actorId" validate:"omitempty,gt=0"`
	Action   string `query:"action"`
	EntityID *uint  `query:"entityId" validate:"omitempty,gt=0"`
}

// AuditLogResponse serializes an audit trail entry.
type AuditLogResponse struct {
	ID         uint                   `json:"id"`
	ActorID    uint                   `json:"actorId"`
	ActorRole  string                 `json:"actorRole"`
	Action     string                 `json:"action"`
	EntityType string                 `json:"entityType"`
	EntityID   *uint                  `json:"entityId"`
	Metadata   map[string]interface{} `json:"metadata"`
	CreatedAt  time.Time              `json:"createdAt"`
}

// NewAuditLogResponse converts an audit model into a DTO.
func NewAuditLogResponse(model models.AuditLog) AuditLogResponse {
	metadata := map[string]interface{}{}
	for key, value := range model.Metadata {
		metadata[key] = value
	}

	return AuditLogResponse{
		ID:         model.ID,
		ActorID:    model.ActorID,
		ActorRole:  model.ActorRole,
		Action:     model.Action,
		EntityType: model.EntityType,
		EntityID:   model.EntityID,
		Metadata:   metadata,
		CreatedAt:  model.CreatedAt,
	}
}
