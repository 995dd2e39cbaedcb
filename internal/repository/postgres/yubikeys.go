package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Korrigan/yubiauth/internal/core/domain"
	"github.com/Korrigan/yubiauth/internal/core/port"
	"github.com/Korrigan/yubiauth/internal/repository"
)

// YubiKeyRepository implements port.YubiKeyRepository using PostgreSQL.
type YubiKeyRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewYubiKeyRepository constructs a repository backed by any executor that satisfies pgExecutor.
func NewYubiKeyRepository(exec pgExecutor) *YubiKeyRepository {
	repo := &YubiKeyRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
	if pool, ok := exec.(*pgxpool.Pool); ok {
		repo.pool = pool
	}
	return repo
}

// WithTx returns a repository instance operating within the supplied transaction.
func (r *YubiKeyRepository) WithTx(tx pgx.Tx) *YubiKeyRepository {
	if tx == nil {
		return r
	}
	return &YubiKeyRepository{
		pool:    r.pool,
		exec:    tx,
		builder: r.builder,
	}
}

// Bind creates the binding for the prefix. The unique constraint on
// prefix enforces exclusive ownership; a second bind by the same user is
// an idempotent success while any other holder yields ErrConflict.
func (r *YubiKeyRepository) Bind(ctx context.Context, userID int64, prefix string) error {
	stmt, args, err := r.builder.
		Insert("yubiauth.yubikeys").
		Columns("prefix", "user_id", "enabled", "created_at").
		Values(prefix, userID, true, time.Now().UTC()).
		Suffix("ON CONFLICT (prefix) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert yubikey sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("insert yubikey: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	// The prefix already exists; find out who holds it.
	stmt, args, err = r.builder.
		Select("user_id").
		From("yubiauth.yubikeys").
		Where(squirrel.Eq{"prefix": prefix}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build select binding owner sql: %w", err)
	}

	var ownerID int64
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&ownerID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// The conflicting row vanished between the two statements.
			return repository.ErrConflict
		}
		return fmt.Errorf("select binding owner: %w", err)
	}

	if ownerID == userID {
		return nil
	}
	return repository.ErrConflict
}

// Unbind removes the binding held by the user.
func (r *YubiKeyRepository) Unbind(ctx context.Context, userID int64, prefix string) error {
	stmt, args, err := r.builder.
		Delete("yubiauth.yubikeys").
		Where(squirrel.And{squirrel.Eq{"user_id": userID}, squirrel.Eq{"prefix": prefix}}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete yubikey sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("delete yubikey: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// Get retrieves a binding held by the user.
func (r *YubiKeyRepository) Get(ctx context.Context, userID int64, prefix string) (*domain.YubiKey, error) {
	stmt, args, err := r.builder.
		Select("id", "prefix", "user_id", "enabled", "created_at").
		From("yubiauth.yubikeys").
		Where(squirrel.And{squirrel.Eq{"user_id": userID}, squirrel.Eq{"prefix": prefix}}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select yubikey sql: %w", err)
	}

	return r.scanYubiKey(r.exec.QueryRow(ctx, stmt, args...))
}

// GetByPrefix retrieves a binding regardless of owner.
func (r *YubiKeyRepository) GetByPrefix(ctx context.Context, prefix string) (*domain.YubiKey, error) {
	stmt, args, err := r.builder.
		Select("id", "prefix", "user_id", "enabled", "created_at").
		From("yubiauth.yubikeys").
		Where(squirrel.Eq{"prefix": prefix}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select yubikey by prefix sql: %w", err)
	}

	return r.scanYubiKey(r.exec.QueryRow(ctx, stmt, args...))
}

func (r *YubiKeyRepository) scanYubiKey(row pgx.Row) (*domain.YubiKey, error) {
	var key domain.YubiKey
	if err := row.Scan(&key.ID, &key.Prefix, &key.UserID, &key.Enabled, &key.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan yubikey: %w", err)
	}
	return &key, nil
}

// ListByUser returns all bindings held by the user ordered by prefix.
func (r *YubiKeyRepository) ListByUser(ctx context.Context, userID int64) ([]domain.YubiKey, error) {
	stmt, args, err := r.builder.
		Select("id", "prefix", "user_id", "enabled", "created_at").
		From("yubiauth.yubikeys").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("prefix").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list yubikeys sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("list yubikeys: %w", err)
	}
	defer rows.Close()

	var keys []domain.YubiKey
	for rows.Next() {
		var key domain.YubiKey
		if err := rows.Scan(&key.ID, &key.Prefix, &key.UserID, &key.Enabled, &key.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan yubikey row: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate yubikeys: %w", err)
	}

	return keys, nil
}

// SetEnabled toggles the binding without removing it.
func (r *YubiKeyRepository) SetEnabled(ctx context.Context, userID int64, prefix string, enabled bool) error {
	stmt, args, err := r.builder.
		Update("yubiauth.yubikeys").
		Set("enabled", enabled).
		Where(squirrel.And{squirrel.Eq{"user_id": userID}, squirrel.Eq{"prefix": prefix}}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update yubikey sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update yubikey: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

var _ port.YubiKeyRepository = (*YubiKeyRepository)(nil)
