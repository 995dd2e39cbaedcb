package port

import (
	"context"

	"github.com/Korrigan/yubiauth/internal/core/domain"
)

// EventPublisher publishes domain events to the message bus.
type EventPublisher interface {
	PublishUserCreated(ctx context.Context, event domain.UserCreatedEvent) error
	PublishUserDeleted(ctx context.Context, event domain.UserDeletedEvent) error
	PublishPasswordChanged(ctx context.Context, event domain.PasswordChangedEvent) error
	PublishYubiKeyBound(ctx context.Context, event domain.YubiKeyBoundEvent) error
	PublishYubiKeyUnbound(ctx context.Context, event domain.YubiKeyUnboundEvent) error
	PublishAuthAttempt(ctx context.Context, event domain.AuthAttemptEvent) error
}
