package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/noah-isme/sidupak-api/internal/middleware"
)

// Submission event types.
const (
	EventSubmissionCreated = "created"
	EventSubmissionUpdated = "updated"
	EventSubmissionDeleted = "deleted"
)

// SubmissionEvent is broadcast after a submission changed.
type SubmissionEvent struct {
	Type         string    `json:"type"`
	SubmissionID uint      `json:"submissionId"`
	Family       string    `json:"family"`
	Category     string    `json:"kategori"`
	OwnerID      uint      `json:"dosenId"`
	Score        float64   `json:"nilaiPak"`
	At           time.Time `json:"at"`
}

// EventPublisher fans submission events out to other services.
type EventPublisher interface {
	Publish(ctx context.Context, event SubmissionEvent) error
}

// NATSEventPublisher publishes submission events on <subjectBase>.<type>.
type NATSEventPublisher struct {
	conn        *nats.Conn
	subjectBase string
	logger      zerolog.Logger
}

// NewNATSEventPublisher builds a publisher; a nil connection turns Publish into a no-op.
func NewNATSEventPublisher(conn *nats.Conn, subjectBase string, logger zerolog.Logger) *NATSEventPublisher {
	if subjectBase == "" {
		subjectBase = "sidupak.submissions"
	}
	return &NATSEventPublisher{
		conn:        conn,
		subjectBase: subjectBase,
		logger:      logger.With().Str("component", "submission_events").Logger(),
	}
}

// Subject returns the subject an event type is published on.
func (p *NATSEventPublisher) Subject(eventType string) string {
	return p.subjectBase + "." + eventType
}

func (p *NATSEventPublisher) Publish(ctx context.Context, event SubmissionEvent) error {
	if p == nil || p.conn == nil {
		return nil
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode submission event: %w", err)
	}

	msg := nats.NewMsg(p.Subject(event.Type))
	msg.Data = payload
	if correlationID := middleware.CorrelationIDFromContext(ctx); correlationID != "" {
		msg.Header.Set(middleware.HeaderCorrelationID, correlationID)
	}

	if err := p.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish submission event: %w", err)
	}

	p.logger.Debug().
		Str("subject", p.Subject(event.Type)).
		Uint("submission_id", event.SubmissionID).
		Msg("submission event published")
	return nil
}
