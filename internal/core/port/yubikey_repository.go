package port

import (
	"context"

	"github.com/Korrigan/yubiauth/internal/core/domain"
)

// YubiKeyRepository exposes persistence behavior for token bindings.
type YubiKeyRepository interface {
	// Bind creates the binding with enabled=true. Binding a prefix already
	// held by the same user is an idempotent success; a prefix held by a
	// different user yields repository.ErrConflict.
	Bind(ctx context.Context, userID int64, prefix string) error
	// Unbind removes the binding; repository.ErrNotFound when the user
	// holds no binding for the prefix.
	Unbind(ctx context.Context, userID int64, prefix string) error
	Get(ctx context.Context, userID int64, prefix string) (*domain.YubiKey, error)
	GetByPrefix(ctx context.Context, prefix string) (*domain.YubiKey, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.YubiKey, error)
	SetEnabled(ctx context.Context, userID int64, prefix string, enabled bool) error
}
