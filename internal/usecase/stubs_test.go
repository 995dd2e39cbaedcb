package usecase

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/Korrigan/yubiauth/internal/core/domain"
	"github.com/Korrigan/yubiauth/internal/core/port"
	"github.com/Korrigan/yubiauth/internal/repository"
)

type stubUserRepo struct {
	nextID int64
	users  map[int64]domain.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[int64]domain.User)}
}

func (r *stubUserRepo) Create(_ context.Context, username, passwordHash string, createdAt time.Time) (int64, error) {
	for _, user := range r.users {
		if user.Username == username {
			return 0, repository.ErrConflict
		}
	}

	r.nextID++
	r.users[r.nextID] = domain.User{
		ID:           r.nextID,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    createdAt,
	}
	return r.nextID, nil
}

func (r *stubUserRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &user, nil
}

func (r *stubUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	for _, user := range r.users {
		if user.Username == username {
			copied := user
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *stubUserRepo) List(_ context.Context) ([]domain.User, error) {
	users := make([]domain.User, 0, len(r.users))
	for _, user := range r.users {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (r *stubUserRepo) UpdatePassword(_ context.Context, id int64, passwordHash string, _ time.Time) error {
	user, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.PasswordHash = passwordHash
	r.users[id] = user
	return nil
}

func (r *stubUserRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

type stubYubiKeyRepo struct {
	nextID int64
	keys   map[string]domain.YubiKey
}

func newStubYubiKeyRepo() *stubYubiKeyRepo {
	return &stubYubiKeyRepo{keys: make(map[string]domain.YubiKey)}
}

func (r *stubYubiKeyRepo) Bind(_ context.Context, userID int64, prefix string) error {
	if key, ok := r.keys[prefix]; ok {
		if key.UserID == userID {
			return nil
		}
		return repository.ErrConflict
	}

	r.nextID++
	r.keys[prefix] = domain.YubiKey{
		ID:        r.nextID,
		Prefix:    prefix,
		UserID:    userID,
		Enabled:   true,
		CreatedAt: time.Now().UTC(),
	}
	return nil
}

func (r *stubYubiKeyRepo) Unbind(_ context.Context, userID int64, prefix string) error {
	key, ok := r.keys[prefix]
	if !ok || key.UserID != userID {
		return repository.ErrNotFound
	}
	delete(r.keys, prefix)
	return nil
}

func (r *stubYubiKeyRepo) Get(_ context.Context, userID int64, prefix string) (*domain.YubiKey, error) {
	key, ok := r.keys[prefix]
	if !ok || key.UserID != userID {
		return nil, repository.ErrNotFound
	}
	copied := key
	return &copied, nil
}

func (r *stubYubiKeyRepo) GetByPrefix(_ context.Context, prefix string) (*domain.YubiKey, error) {
	key, ok := r.keys[prefix]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := key
	return &copied, nil
}

func (r *stubYubiKeyRepo) ListByUser(_ context.Context, userID int64) ([]domain.YubiKey, error) {
	var keys []domain.YubiKey
	for _, key := range r.keys {
		if key.UserID == userID {
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Prefix < keys[j].Prefix })
	return keys, nil
}

func (r *stubYubiKeyRepo) SetEnabled(_ context.Context, userID int64, prefix string, enabled bool) error {
	key, ok := r.keys[prefix]
	if !ok || key.UserID != userID {
		return repository.ErrNotFound
	}
	key.Enabled = enabled
	r.keys[prefix] = key
	return nil
}

type attrKey struct {
	kind domain.OwnerKind
	id   int64
	key  string
}

type stubAttributeRepo struct {
	values map[attrKey]string
}

func newStubAttributeRepo() *stubAttributeRepo {
	return &stubAttributeRepo{values: make(map[attrKey]string)}
}

func (r *stubAttributeRepo) Set(_ context.Context, owner domain.AttributeOwner, key, value string) error {
	r.values[attrKey{owner.Kind, owner.ID, key}] = value
	return nil
}

func (r *stubAttributeRepo) Get(_ context.Context, owner domain.AttributeOwner, key string) (string, bool, error) {
	value, ok := r.values[attrKey{owner.Kind, owner.ID, key}]
	return value, ok, nil
}

func (r *stubAttributeRepo) Unset(_ context.Context, owner domain.AttributeOwner, key string) error {
	delete(r.values, attrKey{owner.Kind, owner.ID, key})
	return nil
}

func (r *stubAttributeRepo) List(_ context.Context, owner domain.AttributeOwner) (map[string]string, error) {
	attributes := make(map[string]string)
	for k, v := range r.values {
		if k.kind == owner.Kind && k.id == owner.ID {
			attributes[k.key] = v
		}
	}
	return attributes, nil
}

type stubOTPValidator struct {
	status port.OTPStatus
	seen   []string
}

func (v *stubOTPValidator) Validate(_ context.Context, otp string) port.OTPStatus {
	v.seen = append(v.seen, otp)
	return v.status
}

type recordingPublisher struct {
	attempts []domain.AuthAttemptEvent
	created  []domain.UserCreatedEvent
	deleted  []domain.UserDeletedEvent
	bound    []domain.YubiKeyBoundEvent
	unbound  []domain.YubiKeyUnboundEvent
	password []domain.PasswordChangedEvent
}

func (p *recordingPublisher) PublishUserCreated(_ context.Context, event domain.UserCreatedEvent) error {
	p.created = append(p.created, event)
	return nil
}

func (p *recordingPublisher) PublishUserDeleted(_ context.Context, event domain.UserDeletedEvent) error {
	p.deleted = append(p.deleted, event)
	return nil
}

func (p *recordingPublisher) PublishPasswordChanged(_ context.Context, event domain.PasswordChangedEvent) error {
	p.password = append(p.password, event)
	return nil
}

func (p *recordingPublisher) PublishYubiKeyBound(_ context.Context, event domain.YubiKeyBoundEvent) error {
	p.bound = append(p.bound, event)
	return nil
}

func (p *recordingPublisher) PublishYubiKeyUnbound(_ context.Context, event domain.YubiKeyUnboundEvent) error {
	p.unbound = append(p.unbound, event)
	return nil
}

func (p *recordingPublisher) PublishAuthAttempt(_ context.Context, event domain.AuthAttemptEvent) error {
	p.attempts = append(p.attempts, event)
	return nil
}

var (
	_ port.UserRepository      = (*stubUserRepo)(nil)
	_ port.YubiKeyRepository   = (*stubYubiKeyRepo)(nil)
	_ port.AttributeRepository = (*stubAttributeRepo)(nil)
	_ port.OTPValidator        = (*stubOTPValidator)(nil)
	_ port.EventPublisher      = (*recordingPublisher)(nil)
)

func testTime() time.Time {
	return time.Date(2025, time.March, 14, 9, 26, 53, 0, time.UTC)
}

func mustBind(t *testing.T, repo *stubYubiKeyRepo, userID int64, prefix string) {
	t.Helper()
	if err := repo.Bind(context.Background(), userID, prefix); err != nil {
		t.Fatalf("bind %s: %v", prefix, err)
	}
}
