package port

import (
	"context"

	"github.com/Korrigan/yubiauth/internal/core/domain"
)

// AttributeRepository stores free-form key/value attributes per owner.
type AttributeRepository interface {
	// Set inserts or overwrites the key for the owner (last write wins).
	Set(ctx context.Context, owner domain.AttributeOwner, key, value string) error
	// Get returns the value and whether the key is present. An absent key
	// is not an error and is distinct from an empty value.
	Get(ctx context.Context, owner domain.AttributeOwner, key string) (string, bool, error)
	// Unset removes the key; removing an absent key is a no-op.
	Unset(ctx context.Context, owner domain.AttributeOwner, key string) error
	List(ctx context.Context, owner domain.AttributeOwner) (map[string]string, error)
}
