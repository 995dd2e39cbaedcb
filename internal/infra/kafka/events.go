package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Korrigan/yubiauth/internal/core/domain"
	"github.com/Korrigan/yubiauth/internal/core/port"
	"github.com/Korrigan/yubiauth/internal/infra/config"
)

const schemaVersion = "1.0"

// EventPublisher implements port.EventPublisher using Kafka.
type EventPublisher struct {
	producer *Producer
	logger   *zap.Logger
	appCfg   config.AppSettings
}

// NewEventPublisher constructs a Kafka-backed event publisher.
func NewEventPublisher(producer *Producer, appCfg config.AppSettings, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{producer: producer, appCfg: appCfg, logger: logger}
}

type envelopeMetadata map[string]string

type eventEnvelope struct {
	EventID   string           `json:"event_id"`
	EventType string           `json:"event_type"`
	UserID    string           `json:"user_id,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
	Version   string           `json:"version"`
	Payload   any              `json:"payload"`
	Metadata  envelopeMetadata `json:"metadata,omitempty"`
}

func (p *EventPublisher) publish(ctx context.Context, eventID, eventType string, userID int64, ts time.Time, payload any) error {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	id := eventID
	if id == "" {
		id = uuid.NewString()
	}

	metadata := envelopeMetadata{
		"service":     p.appCfg.Name,
		"environment": p.appCfg.Env,
	}

	if span := trace.SpanFromContext(ctx); span != nil {
		if sc := span.SpanContext(); sc.IsValid() {
			metadata["trace_id"] = sc.TraceID().String()
		}
	}

	var userIDField string
	if userID > 0 {
		userIDField = strconv.FormatInt(userID, 10)
	}

	envelope := eventEnvelope{
		EventID:   id,
		EventType: eventType,
		UserID:    userIDField,
		Timestamp: ts.UTC(),
		Version:   schemaVersion,
		Payload:   payload,
		Metadata:  metadata,
	}

	bytes, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.producer.TopicName(eventType),
		Value: sarama.ByteEncoder(bytes),
	}

	select {
	case p.producer.Producer().Input() <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PublishUserCreated publishes yubiauth.user.created events.
func (p *EventPublisher) PublishUserCreated(ctx context.Context, event domain.UserCreatedEvent) error {
	payload := struct {
		UserID    int64     `json:"user_id"`
		Username  string    `json:"username"`
		CreatedAt time.Time `json:"created_at"`
	}{
		UserID:    event.UserID,
		Username:  event.Username,
		CreatedAt: event.CreatedAt.UTC(),
	}

	return p.publish(ctx, event.EventID, "yubiauth.user.created", event.UserID, event.CreatedAt, payload)
}

// PublishUserDeleted publishes yubiauth.user.deleted events.
func (p *EventPublisher) PublishUserDeleted(ctx context.Context, event domain.UserDeletedEvent) error {
	payload := struct {
		UserID          int64     `json:"user_id"`
		Username        string    `json:"username"`
		UnboundPrefixes []string  `json:"unbound_prefixes,omitempty"`
		DeletedAt       time.Time `json:"deleted_at"`
	}{
		UserID:          event.UserID,
		Username:        event.Username,
		UnboundPrefixes: event.UnboundPrefixes,
		DeletedAt:       event.DeletedAt.UTC(),
	}

	return p.publish(ctx, event.EventID, "yubiauth.user.deleted", event.UserID, event.DeletedAt, payload)
}

// PublishPasswordChanged publishes yubiauth.user.password.changed events.
func (p *EventPublisher) PublishPasswordChanged(ctx context.Context, event domain.PasswordChangedEvent) error {
	payload := struct {
		UserID    int64     `json:"user_id"`
		ChangedAt time.Time `json:"changed_at"`
	}{
		UserID:    event.UserID,
		ChangedAt: event.ChangedAt.UTC(),
	}

	return p.publish(ctx, event.EventID, "yubiauth.user.password.changed", event.UserID, event.ChangedAt, payload)
}

// PublishYubiKeyBound publishes yubiauth.yubikey.bound events.
func (p *EventPublisher) PublishYubiKeyBound(ctx context.Context, event domain.YubiKeyBoundEvent) error {
	payload := struct {
		UserID  int64     `json:"user_id"`
		Prefix  string    `json:"prefix"`
		BoundAt time.Time `json:"bound_at"`
	}{
		UserID:  event.UserID,
		Prefix:  event.Prefix,
		BoundAt: event.BoundAt.UTC(),
	}

	return p.publish(ctx, event.EventID, "yubiauth.yubikey.bound", event.UserID, event.BoundAt, payload)
}

// PublishYubiKeyUnbound publishes yubiauth.yubikey.unbound events.
func (p *EventPublisher) PublishYubiKeyUnbound(ctx context.Context, event domain.YubiKeyUnboundEvent) error {
	payload := struct {
		UserID    int64     `json:"user_id"`
		Prefix    string    `json:"prefix"`
		UnboundAt time.Time `json:"unbound_at"`
	}{
		UserID:    event.UserID,
		Prefix:    event.Prefix,
		UnboundAt: event.UnboundAt.UTC(),
	}

	return p.publish(ctx, event.EventID, "yubiauth.yubikey.unbound", event.UserID, event.UnboundAt, payload)
}

// PublishAuthAttempt publishes yubiauth.auth.attempt events.
func (p *EventPublisher) PublishAuthAttempt(ctx context.Context, event domain.AuthAttemptEvent) error {
	payload := struct {
		Username  string    `json:"username"`
		UserID    int64     `json:"user_id,omitempty"`
		Succeeded bool      `json:"succeeded"`
		Reason    string    `json:"reason"`
		IP        string    `json:"ip,omitempty"`
		At        time.Time `json:"at"`
	}{
		Username:  event.Username,
		UserID:    event.UserID,
		Succeeded: event.Succeeded,
		Reason:    event.Reason,
		IP:        event.IP,
		At:        event.At.UTC(),
	}

	return p.publish(ctx, event.EventID, "yubiauth.auth.attempt", event.UserID, event.At, payload)
}

var _ port.EventPublisher = (*EventPublisher)(nil)
