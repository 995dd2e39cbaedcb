package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/Korrigan/yubiauth/internal/repository"
)

func TestYubiKeyRepository_Bind(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewYubiKeyRepository(mock)

	mock.ExpectExec(`INSERT INTO yubiauth\.yubikeys`).
		WithArgs("ccccccccccce", int64(1), true, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := repo.Bind(context.Background(), 1, "ccccccccccce"); err != nil {
		t.Fatalf("Bind returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestYubiKeyRepository_BindSameUserIsIdempotent(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewYubiKeyRepository(mock)

	mock.ExpectExec(`INSERT INTO yubiauth\.yubikeys`).
		WithArgs("ccccccccccce", int64(1), true, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	mock.ExpectQuery(`SELECT user_id FROM yubiauth\.yubikeys`).
		WithArgs("ccccccccccce").
		WillReturnRows(pgxmock.NewRows([]string{"user_id"}).AddRow(int64(1)))

	if err := repo.Bind(context.Background(), 1, "ccccccccccce"); err != nil {
		t.Fatalf("expected idempotent success, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestYubiKeyRepository_BindOtherUserConflicts(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewYubiKeyRepository(mock)

	mock.ExpectExec(`INSERT INTO yubiauth\.yubikeys`).
		WithArgs("ccccccccccce", int64(2), true, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	mock.ExpectQuery(`SELECT user_id FROM yubiauth\.yubikeys`).
		WithArgs("ccccccccccce").
		WillReturnRows(pgxmock.NewRows([]string{"user_id"}).AddRow(int64(1)))

	if err := repo.Bind(context.Background(), 2, "ccccccccccce"); !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestYubiKeyRepository_UnbindNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewYubiKeyRepository(mock)

	mock.ExpectExec(`DELETE FROM yubiauth\.yubikeys`).
		WithArgs(int64(1), "ccccccccccce").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	if err := repo.Unbind(context.Background(), 1, "ccccccccccce"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestYubiKeyRepository_GetByPrefix(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewYubiKeyRepository(mock)

	createdAt := time.Now().UTC()
	rows := pgxmock.NewRows([]string{"id", "prefix", "user_id", "enabled", "created_at"}).
		AddRow(int64(5), "ccccccccccce", int64(1), true, createdAt)

	mock.ExpectQuery(`SELECT .*FROM yubiauth\.yubikeys`).
		WithArgs("ccccccccccce").
		WillReturnRows(rows)

	key, err := repo.GetByPrefix(context.Background(), "ccccccccccce")
	if err != nil {
		t.Fatalf("GetByPrefix returned error: %v", err)
	}
	if key.UserID != 1 || !key.Enabled {
		t.Fatalf("unexpected key %+v", key)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestYubiKeyRepository_SetEnabled(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewYubiKeyRepository(mock)

	mock.ExpectExec(`UPDATE yubiauth\.yubikeys`).
		WithArgs(false, int64(1), "ccccccccccce").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	if err := repo.SetEnabled(context.Background(), 1, "ccccccccccce", false); err != nil {
		t.Fatalf("SetEnabled returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
