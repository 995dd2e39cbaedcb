package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Korrigan/yubiauth/internal/core/domain"
	"github.com/Korrigan/yubiauth/internal/core/port"
	"github.com/Korrigan/yubiauth/internal/infra/otp"
	"github.com/Korrigan/yubiauth/internal/repository"
)

// ErrInvalidPrefix indicates the supplied value is neither a modhex
// public identity nor a full OTP.
var ErrInvalidPrefix = errors.New("invalid yubikey prefix")

// YubiKeyService manages token bindings for accounts.
type YubiKeyService struct {
	users      port.UserRepository
	yubikeys   port.YubiKeyRepository
	attributes port.AttributeRepository
	events     port.EventPublisher
	log        *zap.Logger
}

// NewYubiKeyService constructs a YubiKeyService instance.
func NewYubiKeyService(
	users port.UserRepository,
	yubikeys port.YubiKeyRepository,
	attributes port.AttributeRepository,
	events port.EventPublisher,
	log *zap.Logger,
) *YubiKeyService {
	return &YubiKeyService{
		users:      users,
		yubikeys:   yubikeys,
		attributes: attributes,
		events:     events,
		log:        log,
	}
}

// Bind attaches a yubikey to the user. The value may be a bare public
// identity or a freshly generated OTP, which collapses to its prefix.
// Binding a prefix the user already holds is an idempotent success;
// binding one held by another user fails with repository.ErrConflict.
func (s *YubiKeyService) Bind(ctx context.Context, identifier, value string) (*domain.YubiKey, error) {
	user, err := resolveUser(ctx, s.users, identifier)
	if err != nil {
		return nil, err
	}

	prefix, err := otp.NormalizeBinding(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPrefix, err)
	}

	if err := s.yubikeys.Bind(ctx, user.ID, prefix); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, repository.ErrConflict
		}
		return nil, fmt.Errorf("bind yubikey: %w", err)
	}

	s.log.Info("yubikey bound",
		zap.Int64("user_id", user.ID),
		zap.String("prefix", prefix),
	)

	if s.events != nil {
		event := domain.YubiKeyBoundEvent{
			EventID: uuid.NewString(),
			UserID:  user.ID,
			Prefix:  prefix,
			BoundAt: time.Now().UTC(),
		}
		if err := s.events.PublishYubiKeyBound(ctx, event); err != nil {
			s.log.Warn("publish yubikey bound event", zap.Error(err))
		}
	}

	return s.yubikeys.Get(ctx, user.ID, prefix)
}

// Unbind removes the binding held by the user.
func (s *YubiKeyService) Unbind(ctx context.Context, identifier, value string) error {
	user, err := resolveUser(ctx, s.users, identifier)
	if err != nil {
		return err
	}

	prefix, err := otp.NormalizeBinding(value)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPrefix, err)
	}

	if err := s.yubikeys.Unbind(ctx, user.ID, prefix); err != nil {
		return err
	}

	s.log.Info("yubikey unbound",
		zap.Int64("user_id", user.ID),
		zap.String("prefix", prefix),
	)

	if s.events != nil {
		event := domain.YubiKeyUnboundEvent{
			EventID:   uuid.NewString(),
			UserID:    user.ID,
			Prefix:    prefix,
			UnboundAt: time.Now().UTC(),
		}
		if err := s.events.PublishYubiKeyUnbound(ctx, event); err != nil {
			s.log.Warn("publish yubikey unbound event", zap.Error(err))
		}
	}

	return nil
}

// List returns the user's bindings with attributes attached.
func (s *YubiKeyService) List(ctx context.Context, identifier string) ([]domain.YubiKey, error) {
	user, err := resolveUser(ctx, s.users, identifier)
	if err != nil {
		return nil, err
	}

	keys, err := s.yubikeys.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("list yubikeys: %w", err)
	}

	for i := range keys {
		attributes, err := s.attributes.List(ctx, domain.YubiKeyOwner(keys[i].ID))
		if err != nil {
			return nil, fmt.Errorf("list yubikey attributes: %w", err)
		}
		keys[i].Attributes = attributes
	}

	return keys, nil
}

// Get returns a single binding held by the user, with attributes.
func (s *YubiKeyService) Get(ctx context.Context, identifier, prefix string) (*domain.YubiKey, error) {
	user, err := resolveUser(ctx, s.users, identifier)
	if err != nil {
		return nil, err
	}

	key, err := s.yubikeys.Get(ctx, user.ID, prefix)
	if err != nil {
		return nil, err
	}

	attributes, err := s.attributes.List(ctx, domain.YubiKeyOwner(key.ID))
	if err != nil {
		return nil, fmt.Errorf("list yubikey attributes: %w", err)
	}
	key.Attributes = attributes

	return key, nil
}

// SetEnabled toggles a binding without removing it. A disabled key keeps
// its exclusive hold on the prefix but no longer authenticates.
func (s *YubiKeyService) SetEnabled(ctx context.Context, identifier, prefix string, enabled bool) error {
	user, err := resolveUser(ctx, s.users, identifier)
	if err != nil {
		return err
	}

	return s.yubikeys.SetEnabled(ctx, user.ID, prefix, enabled)
}
