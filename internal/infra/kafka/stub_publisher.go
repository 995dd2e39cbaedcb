package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Korrigan/yubiauth/internal/core/domain"
	"github.com/Korrigan/yubiauth/internal/core/port"
)

// StubPublisher logs events instead of sending them to Kafka. Useful for development environments.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a development-friendly event publisher.
func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: logger}
}

func (p *StubPublisher) logEvent(eventType string, userID int64, at time.Time, payload any) {
	if at.IsZero() {
		at = time.Now().UTC()
	}

	p.logger.Info("Stub event published",
		zap.String("event_type", eventType),
		zap.Int64("user_id", userID),
		zap.Time("timestamp", at.UTC()),
		zap.Any("payload", payload),
	)
}

// PublishUserCreated logs yubiauth.user.created events.
func (p *StubPublisher) PublishUserCreated(_ context.Context, event domain.UserCreatedEvent) error {
	payload := map[string]any{
		"user_id":    event.UserID,
		"username":   event.Username,
		"created_at": event.CreatedAt,
	}
	p.logEvent("yubiauth.user.created", event.UserID, event.CreatedAt, payload)
	return nil
}

// PublishUserDeleted logs yubiauth.user.deleted events.
func (p *StubPublisher) PublishUserDeleted(_ context.Context, event domain.UserDeletedEvent) error {
	payload := map[string]any{
		"user_id":          event.UserID,
		"username":         event.Username,
		"unbound_prefixes": event.UnboundPrefixes,
		"deleted_at":       event.DeletedAt,
	}
	p.logEvent("yubiauth.user.deleted", event.UserID, event.DeletedAt, payload)
	return nil
}

// PublishPasswordChanged logs yubiauth.user.password.changed events.
func (p *StubPublisher) PublishPasswordChanged(_ context.Context, event domain.PasswordChangedEvent) error {
	payload := map[string]any{
		"user_id":    event.UserID,
		"changed_at": event.ChangedAt,
	}
	p.logEvent("yubiauth.user.password.changed", event.UserID, event.ChangedAt, payload)
	return nil
}

// PublishYubiKeyBound logs yubiauth.yubikey.bound events.
func (p *StubPublisher) PublishYubiKeyBound(_ context.Context, event domain.YubiKeyBoundEvent) error {
	payload := map[string]any{
		"user_id":  event.UserID,
		"prefix":   event.Prefix,
		"bound_at": event.BoundAt,
	}
	p.logEvent("yubiauth.yubikey.bound", event.UserID, event.BoundAt, payload)
	return nil
}

// PublishYubiKeyUnbound logs yubiauth.yubikey.unbound events.
func (p *StubPublisher) PublishYubiKeyUnbound(_ context.Context, event domain.YubiKeyUnboundEvent) error {
	payload := map[string]any{
		"user_id":    event.UserID,
		"prefix":     event.Prefix,
		"unbound_at": event.UnboundAt,
	}
	p.logEvent("yubiauth.yubikey.unbound", event.UserID, event.UnboundAt, payload)
	return nil
}

// PublishAuthAttempt logs yubiauth.auth.attempt events.
func (p *StubPublisher) PublishAuthAttempt(_ context.Context, event domain.AuthAttemptEvent) error {
	payload := map[string]any{
		"username":  event.Username,
		"user_id":   event.UserID,
		"succeeded": event.Succeeded,
		"reason":    event.Reason,
		"ip":        event.IP,
		"at":        event.At,
	}
	p.logEvent("yubiauth.auth.attempt", event.UserID, event.At, payload)
	return nil
}

var _ port.EventPublisher = (*StubPublisher)(nil)
