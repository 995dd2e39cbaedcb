package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Korrigan/yubiauth/internal/core/domain"
	"github.com/Korrigan/yubiauth/internal/core/port"
	"github.com/Korrigan/yubiauth/internal/infra/config"
	"github.com/Korrigan/yubiauth/internal/infra/security"
	"github.com/Korrigan/yubiauth/internal/repository"
)

// UserService coordinates account lifecycle operations.
type UserService struct {
	cfg        *config.AppConfig
	users      port.UserRepository
	yubikeys   port.YubiKeyRepository
	attributes port.AttributeRepository
	events     port.EventPublisher
	log        *zap.Logger
}

// NewUserService constructs a UserService instance.
func NewUserService(
	cfg *config.AppConfig,
	users port.UserRepository,
	yubikeys port.YubiKeyRepository,
	attributes port.AttributeRepository,
	events port.EventPublisher,
	log *zap.Logger,
) *UserService {
	return &UserService{
		cfg:        cfg,
		users:      users,
		yubikeys:   yubikeys,
		attributes: attributes,
		events:     events,
		log:        log,
	}
}

// resolveUser locates a user by numeric id or username. A purely numeric
// identifier is first treated as an id and falls back to a username
// lookup, so accounts whose username happens to be numeric stay reachable.
func resolveUser(ctx context.Context, users port.UserRepository, identifier string) (*domain.User, error) {
	if identifier == "" {
		return nil, ErrMissingUsername
	}

	if id, err := strconv.ParseInt(identifier, 10, 64); err == nil {
		user, err := users.GetByID(ctx, id)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("lookup user by id: %w", err)
		}
	}

	user, err := users.GetByUsername(ctx, identifier)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("lookup user by username: %w", err)
	}
	return user, nil
}

func (s *UserService) validatePassword(password string, userInputs ...string) error {
	rules := []security.PasswordRule{
		security.MinLengthRule(s.cfg.Password.MinLength),
		security.RequirePasswordStrengthRule(s.cfg.Password.MinScore, userInputs...),
	}
	return security.NewPasswordValidator(rules...).Validate(password)
}

// CreateUser registers a new account with a hashed password.
func (s *UserService) CreateUser(ctx context.Context, username, password string) (*domain.User, error) {
	if username == "" {
		return nil, ErrMissingUsername
	}
	if password == "" {
		return nil, ErrMissingPassword
	}

	if err := s.validatePassword(password, username); err != nil {
		return nil, err
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	createdAt := time.Now().UTC()
	id, err := s.users.Create(ctx, username, hash, createdAt)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, repository.ErrConflict
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.log.Info("user created", zap.Int64("user_id", id), zap.String("username", username))

	if s.events != nil {
		event := domain.UserCreatedEvent{
			EventID:   uuid.NewString(),
			UserID:    id,
			Username:  username,
			CreatedAt: createdAt,
		}
		if err := s.events.PublishUserCreated(ctx, event); err != nil {
			s.log.Warn("publish user created event", zap.Error(err))
		}
	}

	return &domain.User{
		ID:        id,
		Username:  username,
		CreatedAt: createdAt,
	}, nil
}

// GetUser returns the user with bound prefixes and attributes attached.
func (s *UserService) GetUser(ctx context.Context, identifier string) (*domain.User, error) {
	user, err := resolveUser(ctx, s.users, identifier)
	if err != nil {
		return nil, err
	}

	keys, err := s.yubikeys.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("list yubikeys: %w", err)
	}

	prefixes := make([]string, 0, len(keys))
	for _, key := range keys {
		prefixes = append(prefixes, key.Prefix)
	}

	attributes, err := s.attributes.List(ctx, domain.UserOwner(user.ID))
	if err != nil {
		return nil, fmt.Errorf("list attributes: %w", err)
	}

	view := sanitize(user)
	view.YubiKeys = prefixes
	view.Attributes = attributes
	return view, nil
}

// ListUsers returns all accounts without secrets.
func (s *UserService) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	for i := range users {
		users[i].PasswordHash = ""
	}
	return users, nil
}

// DeleteUser removes the account, its bindings, and all owned attributes.
func (s *UserService) DeleteUser(ctx context.Context, identifier string) error {
	user, err := resolveUser(ctx, s.users, identifier)
	if err != nil {
		return err
	}

	keys, err := s.yubikeys.ListByUser(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("list yubikeys: %w", err)
	}
	prefixes := make([]string, 0, len(keys))
	for _, key := range keys {
		prefixes = append(prefixes, key.Prefix)
	}

	if err := s.users.Delete(ctx, user.ID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	s.log.Info("user deleted", zap.Int64("user_id", user.ID), zap.String("username", user.Username))

	if s.events != nil {
		event := domain.UserDeletedEvent{
			EventID:         uuid.NewString(),
			UserID:          user.ID,
			Username:        user.Username,
			UnboundPrefixes: prefixes,
			DeletedAt:       time.Now().UTC(),
		}
		if err := s.events.PublishUserDeleted(ctx, event); err != nil {
			s.log.Warn("publish user deleted event", zap.Error(err))
		}
	}

	return nil
}

// SetPassword replaces the account password after policy validation.
func (s *UserService) SetPassword(ctx context.Context, identifier, password string) error {
	if password == "" {
		return ErrMissingPassword
	}

	user, err := resolveUser(ctx, s.users, identifier)
	if err != nil {
		return err
	}

	if err := s.validatePassword(password, user.Username); err != nil {
		return err
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	changedAt := time.Now().UTC()
	if err := s.users.UpdatePassword(ctx, user.ID, hash, changedAt); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	if s.events != nil {
		event := domain.PasswordChangedEvent{
			EventID:   uuid.NewString(),
			UserID:    user.ID,
			ChangedAt: changedAt,
		}
		if err := s.events.PublishPasswordChanged(ctx, event); err != nil {
			s.log.Warn("publish password changed event", zap.Error(err))
		}
	}

	return nil
}
