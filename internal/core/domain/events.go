package domain

import "time"

// UserCreatedEvent is emitted after a new account is persisted.
type UserCreatedEvent struct {
	EventID   string
	UserID    int64
	Username  string
	CreatedAt time.Time
}

// UserDeletedEvent is emitted after a user and its owned state are removed.
type UserDeletedEvent struct {
	EventID         string
	UserID          int64
	Username        string
	UnboundPrefixes []string
	DeletedAt       time.Time
}

// PasswordChangedEvent is emitted after a password hash is replaced.
type PasswordChangedEvent struct {
	EventID   string
	UserID    int64
	ChangedAt time.Time
}

// YubiKeyBoundEvent is emitted after a prefix is bound to a user.
type YubiKeyBoundEvent struct {
	EventID string
	UserID  int64
	Prefix  string
	BoundAt time.Time
}

// YubiKeyUnboundEvent is emitted after a binding is removed.
type YubiKeyUnboundEvent struct {
	EventID   string
	UserID    int64
	Prefix    string
	UnboundAt time.Time
}

// AuthAttemptEvent records the outcome of an authentication attempt for
// audit purposes. Reason carries the internal discriminant that is never
// exposed to the caller.
type AuthAttemptEvent struct {
	EventID   string
	Username  string
	UserID    int64
	Succeeded bool
	Reason    string
	IP        string
	At        time.Time
}
