package usecase

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Korrigan/yubiauth/internal/core/domain"
	"github.com/Korrigan/yubiauth/internal/core/port"
)

// ErrMissingAttributeKey indicates an empty attribute key was supplied.
var ErrMissingAttributeKey = errors.New("attribute key is required")

// AttributeService manages free-form attributes on users and bindings.
type AttributeService struct {
	users      port.UserRepository
	yubikeys   port.YubiKeyRepository
	attributes port.AttributeRepository
	log        *zap.Logger
}

// NewAttributeService constructs an AttributeService instance.
func NewAttributeService(
	users port.UserRepository,
	yubikeys port.YubiKeyRepository,
	attributes port.AttributeRepository,
	log *zap.Logger,
) *AttributeService {
	return &AttributeService{
		users:      users,
		yubikeys:   yubikeys,
		attributes: attributes,
		log:        log,
	}
}

func (s *AttributeService) userOwner(ctx context.Context, identifier string) (domain.AttributeOwner, error) {
	user, err := resolveUser(ctx, s.users, identifier)
	if err != nil {
		return domain.AttributeOwner{}, err
	}
	return domain.UserOwner(user.ID), nil
}

// yubikeyOwner resolves a binding owned by the user; the prefix alone is
// not enough since attributes are only reachable through the owner.
func (s *AttributeService) yubikeyOwner(ctx context.Context, identifier, prefix string) (domain.AttributeOwner, error) {
	user, err := resolveUser(ctx, s.users, identifier)
	if err != nil {
		return domain.AttributeOwner{}, err
	}

	key, err := s.yubikeys.Get(ctx, user.ID, prefix)
	if err != nil {
		return domain.AttributeOwner{}, err
	}
	return domain.YubiKeyOwner(key.ID), nil
}

// yubikeyOwnerByPrefix resolves a binding by its prefix alone, for the
// administrative surface that addresses keys without naming the owner.
func (s *AttributeService) yubikeyOwnerByPrefix(ctx context.Context, prefix string) (domain.AttributeOwner, error) {
	key, err := s.yubikeys.GetByPrefix(ctx, prefix)
	if err != nil {
		return domain.AttributeOwner{}, err
	}
	return domain.YubiKeyOwner(key.ID), nil
}

// SetUserAttribute stores the key for the user, overwriting any value.
func (s *AttributeService) SetUserAttribute(ctx context.Context, identifier, key, value string) error {
	if key == "" {
		return ErrMissingAttributeKey
	}

	owner, err := s.userOwner(ctx, identifier)
	if err != nil {
		return err
	}
	return s.attributes.Set(ctx, owner, key, value)
}

// GetUserAttribute returns the value and whether the key is present.
func (s *AttributeService) GetUserAttribute(ctx context.Context, identifier, key string) (string, bool, error) {
	if key == "" {
		return "", false, ErrMissingAttributeKey
	}

	owner, err := s.userOwner(ctx, identifier)
	if err != nil {
		return "", false, err
	}
	return s.attributes.Get(ctx, owner, key)
}

// UnsetUserAttribute removes the key. Removing an absent key succeeds.
func (s *AttributeService) UnsetUserAttribute(ctx context.Context, identifier, key string) error {
	if key == "" {
		return ErrMissingAttributeKey
	}

	owner, err := s.userOwner(ctx, identifier)
	if err != nil {
		return err
	}
	return s.attributes.Unset(ctx, owner, key)
}

// ListUserAttributes returns every attribute of the user.
func (s *AttributeService) ListUserAttributes(ctx context.Context, identifier string) (map[string]string, error) {
	owner, err := s.userOwner(ctx, identifier)
	if err != nil {
		return nil, err
	}

	attributes, err := s.attributes.List(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list attributes: %w", err)
	}
	return attributes, nil
}

// SetYubiKeyAttribute stores the key on a binding held by the user.
func (s *AttributeService) SetYubiKeyAttribute(ctx context.Context, identifier, prefix, key, value string) error {
	if key == "" {
		return ErrMissingAttributeKey
	}

	owner, err := s.yubikeyOwner(ctx, identifier, prefix)
	if err != nil {
		return err
	}
	return s.attributes.Set(ctx, owner, key, value)
}

// GetYubiKeyAttribute returns the value and whether the key is present.
func (s *AttributeService) GetYubiKeyAttribute(ctx context.Context, identifier, prefix, key string) (string, bool, error) {
	if key == "" {
		return "", false, ErrMissingAttributeKey
	}

	owner, err := s.yubikeyOwner(ctx, identifier, prefix)
	if err != nil {
		return "", false, err
	}
	return s.attributes.Get(ctx, owner, key)
}

// UnsetYubiKeyAttribute removes the key from a binding held by the user.
func (s *AttributeService) UnsetYubiKeyAttribute(ctx context.Context, identifier, prefix, key string) error {
	if key == "" {
		return ErrMissingAttributeKey
	}

	owner, err := s.yubikeyOwner(ctx, identifier, prefix)
	if err != nil {
		return err
	}
	return s.attributes.Unset(ctx, owner, key)
}

// ListYubiKeyAttributes returns every attribute of a binding held by the user.
func (s *AttributeService) ListYubiKeyAttributes(ctx context.Context, identifier, prefix string) (map[string]string, error) {
	owner, err := s.yubikeyOwner(ctx, identifier, prefix)
	if err != nil {
		return nil, err
	}

	attributes, err := s.attributes.List(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list attributes: %w", err)
	}
	return attributes, nil
}

// SetYubiKeyAttributeByPrefix stores the key on a binding addressed by prefix.
func (s *AttributeService) SetYubiKeyAttributeByPrefix(ctx context.Context, prefix, key, value string) error {
	if key == "" {
		return ErrMissingAttributeKey
	}

	owner, err := s.yubikeyOwnerByPrefix(ctx, prefix)
	if err != nil {
		return err
	}
	return s.attributes.Set(ctx, owner, key, value)
}

// GetYubiKeyAttributeByPrefix returns the value and whether the key is present.
func (s *AttributeService) GetYubiKeyAttributeByPrefix(ctx context.Context, prefix, key string) (string, bool, error) {
	if key == "" {
		return "", false, ErrMissingAttributeKey
	}

	owner, err := s.yubikeyOwnerByPrefix(ctx, prefix)
	if err != nil {
		return "", false, err
	}
	return s.attributes.Get(ctx, owner, key)
}

// UnsetYubiKeyAttributeByPrefix removes the key from a binding addressed by prefix.
func (s *AttributeService) UnsetYubiKeyAttributeByPrefix(ctx context.Context, prefix, key string) error {
	if key == "" {
		return ErrMissingAttributeKey
	}

	owner, err := s.yubikeyOwnerByPrefix(ctx, prefix)
	if err != nil {
		return err
	}
	return s.attributes.Unset(ctx, owner, key)
}

// ListYubiKeyAttributesByPrefix returns every attribute of a binding addressed by prefix.
func (s *AttributeService) ListYubiKeyAttributesByPrefix(ctx context.Context, prefix string) (map[string]string, error) {
	owner, err := s.yubikeyOwnerByPrefix(ctx, prefix)
	if err != nil {
		return nil, err
	}

	attributes, err := s.attributes.List(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list attributes: %w", err)
	}
	return attributes, nil
}
