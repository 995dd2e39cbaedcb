package port

import (
	"context"
	"time"

	"github.com/Korrigan/yubiauth/internal/core/domain"
)

// UserRepository exposes persistence behavior for users.
type UserRepository interface {
	// Create inserts a new user row and returns the assigned id.
	// A duplicate username yields repository.ErrConflict.
	Create(ctx context.Context, username, passwordHash string, createdAt time.Time) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string, changedAt time.Time) error
	// Delete removes the user together with its yubikey bindings and all
	// attributes owned by the user or by those yubikeys, in one transaction.
	Delete(ctx context.Context, id int64) error
}
