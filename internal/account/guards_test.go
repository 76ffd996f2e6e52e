package account_test

import (
	"context"
	"testing"
	"time"

	"github.com/serroba/linkkeeper/internal/account"
	"github.com/serroba/linkkeeper/internal/apperr"
	"github.com/serroba/linkkeeper/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedAccount(t *testing.T, s *store.MemoryStore, email string, activated bool) *account.Account {
	t.Helper()

	acct := &account.Account{
		Email:        email,
		PasswordHash: "hash",
		IsActivated:  activated,
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, s.Create(context.Background(), acct))

	return acct
}

func TestGuards_Registration(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	guards := account.NewGuards(s)
	seedAccount(t, s, "taken@x.com", false)

	assert.NoError(t, guards.Registration(ctx, "free@x.com"))
	assert.True(t, apperr.Is(guards.Registration(ctx, "taken@x.com"), apperr.KindDuplicateEmail))
}

func TestGuards_PasswordConfirmation(t *testing.T) {
	guards := account.NewGuards(store.NewMemoryStore())

	assert.NoError(t, guards.PasswordConfirmation("p1", "p1"))
	assert.True(t, apperr.Is(guards.PasswordConfirmation("p1", "p2"), apperr.KindPasswordMismatch))
}

func TestGuards_ExistingUserAndActivation(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	guards := account.NewGuards(s)
	pending := seedAccount(t, s, "pending@x.com", false)
	seedAccount(t, s, "active@x.com", true)

	t.Run("attaches the account", func(t *testing.T) {
		withAcct, err := guards.ExistingUser(ctx, "pending@x.com")
		require.NoError(t, err)

		acct, ok := account.FromContext(withAcct)
		require.True(t, ok)
		assert.Equal(t, pending.ID, acct.ID)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := guards.ExistingUser(ctx, "nobody@x.com")

		assert.True(t, apperr.Is(err, apperr.KindUserNotFound))
	})

	t.Run("pending account fails activation", func(t *testing.T) {
		withAcct, err := guards.ExistingUser(ctx, "pending@x.com")
		require.NoError(t, err)

		assert.True(t, apperr.Is(guards.Activation(withAcct), apperr.KindNotActivated))
	})

	t.Run("active account passes activation", func(t *testing.T) {
		withAcct, err := guards.ExistingUser(ctx, "active@x.com")
		require.NoError(t, err)

		assert.NoError(t, guards.Activation(withAcct))
	})

	t.Run("activation without a resolved account", func(t *testing.T) {
		assert.True(t, apperr.Is(guards.Activation(ctx), apperr.KindUserNotFound))
	})
}

// stubRepository serves fixed results; methods it does not override panic.
type stubRepository struct {
	account.Repository
	matches   []*account.Account
	createErr error
}

func (s *stubRepository) FindByEmail(context.Context, string) ([]*account.Account, error) {
	return s.matches, nil
}

func (s *stubRepository) Create(context.Context, *account.Account) error {
	return s.createErr
}

func twoMatches() *stubRepository {
	return &stubRepository{matches: []*account.Account{
		{ID: "a1", Email: "twin@x.com", PasswordHash: "hash", IsActivated: true},
		{ID: "a2", Email: "twin@x.com", PasswordHash: "hash", IsActivated: true},
	}}
}

func TestGuards_ExistingUserNeedsExactlyOneMatch(t *testing.T) {
	ctx := context.Background()

	t.Run("two accounts for one email", func(t *testing.T) {
		guards := account.NewGuards(twoMatches())

		withAcct, err := guards.ExistingUser(ctx, "twin@x.com")

		assert.True(t, apperr.Is(err, apperr.KindUserNotFound))

		_, ok := account.FromContext(withAcct)
		assert.False(t, ok)
	})

	t.Run("registration also refuses", func(t *testing.T) {
		guards := account.NewGuards(twoMatches())

		assert.True(t, apperr.Is(guards.Registration(ctx, "twin@x.com"), apperr.KindDuplicateEmail))
	})
}
