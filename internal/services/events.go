package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"gymhub/internal/metrics"
	"gymhub/internal/models"
)

// User lifecycle event types.
const (
	EventUserCreated = "user.created"
	EventUserUpdated = "user.updated"
	EventUserDeleted = "user.deleted"
)

// EventPublisher delivers serialized events to a broker.
type EventPublisher interface {
	Publish(eventType string, body []byte) error
}

// UserEvent is the message body of a user lifecycle event.
type UserEvent struct {
	Type       string    `json:"type"`
	UserID     string    `json:"user_id"`
	Username   string    `json:"username,omitempty"`
	Email      string    `json:"email,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// userEvents publishes lifecycle events. Delivery is best effort: failures
// are logged and never reach the caller.
type userEvents struct {
	publisher EventPublisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func (e userEvents) emit(ctx context.Context, eventType string, user *models.User) {
	e.metrics.RecordUserEvent(eventType)
	if e.publisher == nil {
		return
	}

	body, err := json.Marshal(UserEvent{
		Type:       eventType,
		UserID:     user.ID,
		Username:   user.Username,
		Email:      user.Email,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		e.logger.WarnContext(ctx, "failed to encode user event", "type", eventType, "error", err)
		return
	}
	if err := e.publisher.Publish(eventType, body); err != nil {
		e.logger.WarnContext(ctx, "failed to publish user event", "type", eventType, "user_id", user.ID, "error", err)
	}
}
