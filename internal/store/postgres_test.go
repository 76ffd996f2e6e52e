package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/serroba/linkkeeper/internal/account"
	"github.com/serroba/linkkeeper/internal/shortener"
	"github.com/serroba/linkkeeper/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var accountColumns = []string{
	"id", "email", "password_hash", "is_activated", "activation_token", "reset_token", "created_at",
}

func newMockStore(t *testing.T) (*store.PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)

	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	return store.NewPostgresStore(mock), mock
}

func TestPostgresStore_Create(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("inserts with a generated id", func(t *testing.T) {
		s, mock := newMockStore(t)
		acct := &account.Account{Email: "a@x.com", PasswordHash: "hash", ActivationToken: "act", CreatedAt: created}

		mock.ExpectExec("INSERT INTO accounts").
			WithArgs(pgxmock.AnyArg(), "a@x.com", "hash", false, "act", "", created).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		require.NoError(t, s.Create(ctx, acct))
		assert.NotEmpty(t, acct.ID)
	})

	t.Run("maps unique violations to duplicate email", func(t *testing.T) {
		s, mock := newMockStore(t)

		mock.ExpectExec("INSERT INTO accounts").
			WithArgs(pgxmock.AnyArg(), "a@x.com", "hash", false, "act", "", created).
			WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})

		err := s.Create(ctx, &account.Account{Email: "a@x.com", PasswordHash: "hash", ActivationToken: "act", CreatedAt: created})

		assert.ErrorIs(t, err, account.ErrDuplicateEmail)
	})

	t.Run("passes other errors through", func(t *testing.T) {
		s, mock := newMockStore(t)
		dbErr := errors.New("connection reset")

		mock.ExpectExec("INSERT INTO accounts").WillReturnError(dbErr)

		err := s.Create(ctx, &account.Account{Email: "a@x.com"})

		assert.ErrorIs(t, err, dbErr)
	})
}

func TestPostgresStore_Lookups(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("get by id", func(t *testing.T) {
		s, mock := newMockStore(t)

		mock.ExpectQuery("SELECT (.+) FROM accounts WHERE id").
			WithArgs("u1").
			WillReturnRows(pgxmock.NewRows(accountColumns).
				AddRow("u1", "a@x.com", "hash", true, "", "", created))

		got, err := s.GetByID(ctx, "u1")

		require.NoError(t, err)
		assert.Equal(t, "a@x.com", got.Email)
		assert.True(t, got.IsActivated)
	})

	t.Run("get by id miss", func(t *testing.T) {
		s, mock := newMockStore(t)

		mock.ExpectQuery("SELECT (.+) FROM accounts WHERE id").
			WithArgs("missing").
			WillReturnRows(pgxmock.NewRows(accountColumns))

		_, err := s.GetByID(ctx, "missing")

		assert.ErrorIs(t, err, account.ErrNotFound)
	})

	t.Run("find by email returns every match", func(t *testing.T) {
		s, mock := newMockStore(t)

		mock.ExpectQuery("SELECT (.+) FROM accounts WHERE email").
			WithArgs("a@x.com").
			WillReturnRows(pgxmock.NewRows(accountColumns).
				AddRow("u1", "a@x.com", "hash", false, "act", "", created))

		matches, err := s.FindByEmail(ctx, "a@x.com")

		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.Equal(t, "u1", matches[0].ID)
	})
}

func TestPostgresStore_TokenUpdates(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("activate by token", func(t *testing.T) {
		s, mock := newMockStore(t)

		mock.ExpectQuery("UPDATE accounts SET is_activated").
			WithArgs("act").
			WillReturnRows(pgxmock.NewRows(accountColumns).
				AddRow("u1", "a@x.com", "hash", true, "", "", created))

		got, err := s.ActivateByToken(ctx, "act")

		require.NoError(t, err)
		assert.True(t, got.IsActivated)
	})

	t.Run("activate with a spent token", func(t *testing.T) {
		s, mock := newMockStore(t)

		mock.ExpectQuery("UPDATE accounts SET is_activated").
			WithArgs("act").
			WillReturnRows(pgxmock.NewRows(accountColumns))

		_, err := s.ActivateByToken(ctx, "act")

		assert.ErrorIs(t, err, account.ErrNotFound)
	})

	t.Run("set reset token", func(t *testing.T) {
		s, mock := newMockStore(t)

		mock.ExpectExec("UPDATE accounts SET reset_token").
			WithArgs("u1", "reset").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		assert.NoError(t, s.SetResetToken(ctx, "u1", "reset"))
	})

	t.Run("set reset token on unknown account", func(t *testing.T) {
		s, mock := newMockStore(t)

		mock.ExpectExec("UPDATE accounts SET reset_token").
			WithArgs("missing", "reset").
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		assert.ErrorIs(t, s.SetResetToken(ctx, "missing", "reset"), account.ErrNotFound)
	})

	t.Run("consume reset token", func(t *testing.T) {
		s, mock := newMockStore(t)

		mock.ExpectExec("UPDATE accounts SET password_hash").
			WithArgs("u1", "reset", "new-hash").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		assert.NoError(t, s.ConsumeResetToken(ctx, "u1", "reset", "new-hash"))
	})

	t.Run("consume a stale reset token", func(t *testing.T) {
		s, mock := newMockStore(t)

		mock.ExpectExec("UPDATE accounts SET password_hash").
			WithArgs("u1", "stale", "new-hash").
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		assert.ErrorIs(t, s.ConsumeResetToken(ctx, "u1", "stale", "new-hash"), account.ErrNotFound)
	})
}

func TestPostgresStore_Links(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	linkColumns := []string{"code", "owner_id", "long_url", "created_at"}

	t.Run("save", func(t *testing.T) {
		s, mock := newMockStore(t)

		mock.ExpectExec("INSERT INTO links").
			WithArgs("abc12345", "u1", "https://example.com", created).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		err := s.Save(ctx, &shortener.ShortURL{Code: "abc12345", OwnerID: "u1", LongURL: "https://example.com", CreatedAt: created})

		assert.NoError(t, err)
	})

	t.Run("save reports a taken code", func(t *testing.T) {
		s, mock := newMockStore(t)

		mock.ExpectExec("INSERT INTO links").
			WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})

		err := s.Save(ctx, &shortener.ShortURL{Code: "abc12345", OwnerID: "u1", CreatedAt: created})

		assert.ErrorIs(t, err, shortener.ErrCodeTaken)
	})

	t.Run("get by code", func(t *testing.T) {
		s, mock := newMockStore(t)

		mock.ExpectQuery("SELECT code, owner_id, long_url, created_at FROM links WHERE code").
			WithArgs("abc12345").
			WillReturnRows(pgxmock.NewRows(linkColumns).AddRow("abc12345", "u1", "https://example.com", created))

		got, err := s.GetByCode(ctx, "abc12345")

		require.NoError(t, err)
		assert.Equal(t, shortener.Code("abc12345"), got.Code)
		assert.Equal(t, "https://example.com", got.LongURL)
	})

	t.Run("get by code miss", func(t *testing.T) {
		s, mock := newMockStore(t)

		mock.ExpectQuery("SELECT code, owner_id, long_url, created_at FROM links WHERE code").
			WithArgs("nope").
			WillReturnRows(pgxmock.NewRows(linkColumns))

		_, err := s.GetByCode(ctx, "nope")

		assert.ErrorIs(t, err, shortener.ErrNotFound)
	})

	t.Run("list by owner", func(t *testing.T) {
		s, mock := newMockStore(t)

		mock.ExpectQuery("SELECT code, owner_id, long_url, created_at FROM links").
			WithArgs("u1").
			WillReturnRows(pgxmock.NewRows(linkColumns).
				AddRow("c1", "u1", "https://one.com", created).
				AddRow("c2", "u1", "https://two.com", created.Add(time.Minute)))

		links, err := s.ListByOwner(ctx, "u1")

		require.NoError(t, err)
		require.Len(t, links, 2)
		assert.Equal(t, "https://two.com", links[1].LongURL)
	})
}

func TestOverrideDatabase(t *testing.T) {
	assert.Equal(t,
		"postgres://u:p@localhost:5432/linkkeeper?sslmode=disable",
		store.OverrideDatabase("postgres://u:p@localhost:5432/postgres?sslmode=disable", "linkkeeper"),
	)
	assert.Equal(t, "postgres://h/db", store.OverrideDatabase("postgres://h/db", ""))
}
