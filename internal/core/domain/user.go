package domain

import "time"

// User mirrors the persisted representation in the users table.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time

	// YubiKeys and Attributes are populated by the service layer for
	// read views; mutation goes through the dedicated repositories.
	YubiKeys   []string
	Attributes map[string]string
}

// YubiKey represents a hardware token binding owned by a single user.
type YubiKey struct {
	ID        int64
	Prefix    string
	UserID    int64
	Enabled   bool
	CreatedAt time.Time

	Attributes map[string]string
}

// OwnerKind discriminates which entity an attribute map belongs to.
type OwnerKind string

const (
	OwnerUser    OwnerKind = "user"
	OwnerYubiKey OwnerKind = "yubikey"
)

// AttributeOwner references the single owner of an attribute map.
type AttributeOwner struct {
	Kind OwnerKind
	ID   int64
}

// UserOwner builds an attribute owner reference for a user.
func UserOwner(id int64) AttributeOwner {
	return AttributeOwner{Kind: OwnerUser, ID: id}
}

// YubiKeyOwner builds an attribute owner reference for a bound yubikey.
func YubiKeyOwner(id int64) AttributeOwner {
	return AttributeOwner{Kind: OwnerYubiKey, ID: id}
}
