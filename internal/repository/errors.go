package repository

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("repository: not found")
	// ErrConflict indicates a uniqueness violation, such as a duplicate
	// username or a prefix already bound to another user.
	ErrConflict = errors.New("repository: conflict")
)
