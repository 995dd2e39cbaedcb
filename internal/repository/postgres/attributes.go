package postgres

import (
	"context"
	"errors"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Korrigan/yubiauth/internal/core/domain"
	"github.com/Korrigan/yubiauth/internal/core/port"
)

// AttributeRepository implements port.AttributeRepository using PostgreSQL.
type AttributeRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewAttributeRepository constructs a repository backed by any executor that satisfies pgExecutor.
func NewAttributeRepository(exec pgExecutor) *AttributeRepository {
	repo := &AttributeRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
	if pool, ok := exec.(*pgxpool.Pool); ok {
		repo.pool = pool
	}
	return repo
}

// WithTx returns a repository instance operating within the supplied transaction.
func (r *AttributeRepository) WithTx(tx pgx.Tx) *AttributeRepository {
	if tx == nil {
		return r
	}
	return &AttributeRepository{
		pool:    r.pool,
		exec:    tx,
		builder: r.builder,
	}
}

// Set inserts or overwrites the key for the owner.
func (r *AttributeRepository) Set(ctx context.Context, owner domain.AttributeOwner, key, value string) error {
	stmt, args, err := r.builder.
		Insert("yubiauth.attributes").
		Columns("owner_type", "owner_id", "key", "value").
		Values(owner.Kind, owner.ID, key, value).
		Suffix("ON CONFLICT (owner_type, owner_id, key) DO UPDATE SET value = EXCLUDED.value").
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert attribute sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("upsert attribute: %w", err)
	}

	return nil
}

// Get returns the value and whether the key is present.
func (r *AttributeRepository) Get(ctx context.Context, owner domain.AttributeOwner, key string) (string, bool, error) {
	stmt, args, err := r.builder.
		Select("value").
		From("yubiauth.attributes").
		Where(squirrel.And{squirrel.Eq{"owner_type": owner.Kind}, squirrel.Eq{"owner_id": owner.ID}, squirrel.Eq{"key": key}}).
		ToSql()
	if err != nil {
		return "", false, fmt.Errorf("build select attribute sql: %w", err)
	}

	var value string
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("scan attribute: %w", err)
	}

	return value, true, nil
}

// Unset removes the key. Removing an absent key is a no-op.
func (r *AttributeRepository) Unset(ctx context.Context, owner domain.AttributeOwner, key string) error {
	stmt, args, err := r.builder.
		Delete("yubiauth.attributes").
		Where(squirrel.And{squirrel.Eq{"owner_type": owner.Kind}, squirrel.Eq{"owner_id": owner.ID}, squirrel.Eq{"key": key}}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete attribute sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("delete attribute: %w", err)
	}

	return nil
}

// List returns every attribute of the owner.
func (r *AttributeRepository) List(ctx context.Context, owner domain.AttributeOwner) (map[string]string, error) {
	stmt, args, err := r.builder.
		Select("key", "value").
		From("yubiauth.attributes").
		Where(squirrel.And{squirrel.Eq{"owner_type": owner.Kind}, squirrel.Eq{"owner_id": owner.ID}}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list attributes sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("list attributes: %w", err)
	}
	defer rows.Close()

	attributes := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan attribute row: %w", err)
		}
		attributes[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attributes: %w", err)
	}

	return attributes, nil
}

var _ port.AttributeRepository = (*AttributeRepository)(nil)
