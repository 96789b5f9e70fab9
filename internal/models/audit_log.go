package models

import (
	"time"

	"gorm.io/datatypes"
)

// AuditLog records who changed which credit submission.
type AuditLog struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	ActorID    uint              `gorm:"not null;index" json:"actorId"`
	ActorRole  string            `gorm:"size:32;not null" json:"actorRole"`
	Action     string            `gorm:"size:64;not null" json:"action"`
	EntityType string            `gorm:"size:64;not null" json:"entityType"`
	EntityID   *uint             `json:"entityId"`
	Metadata   datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	CreatedAt  time.Time         `json:"createdAt"`
}
