package account

import (
	"context"
	"crypto/subtle"

	"github.com/serroba/linkkeeper/internal/apperr"
)

// Guards are the preconditions checked before an account operation runs.
// Each returns a typed error that short-circuits the request.
type Guards struct {
	accounts Repository
}

// NewGuards creates guards reading from accounts.
func NewGuards(accounts Repository) *Guards {
	return &Guards{accounts: accounts}
}

// Registration fails when any account already uses email.
func (g *Guards) Registration(ctx context.Context, email string) error {
	matches, err := g.accounts.FindByEmail(ctx, email)
	if err != nil {
		return apperr.Code(apperr.KindStoreUnavailable).With("operation", "find by email").Wrap(err)
	}

	if len(matches) > 0 {
		return apperr.Code(apperr.KindDuplicateEmail).With("email", email).
			Errorf("an account with this email already exists")
	}

	return nil
}

// PasswordConfirmation fails unless both entries are identical.
func (g *Guards) PasswordConfirmation(password, confirmation string) error {
	if subtle.ConstantTimeCompare([]byte(password), []byte(confirmation)) != 1 {
		return apperr.New(apperr.KindPasswordMismatch, "password and confirmation do not match")
	}

	return nil
}

// ExistingUser resolves exactly one account for email and attaches it to
// the returned context for later guards.
func (g *Guards) ExistingUser(ctx context.Context, email string) (context.Context, error) {
	matches, err := g.accounts.FindByEmail(ctx, email)
	if err != nil {
		return ctx, apperr.Code(apperr.KindStoreUnavailable).With("operation", "find by email").Wrap(err)
	}

	if len(matches) != 1 {
		return ctx, apperr.Code(apperr.KindUserNotFound).With("email", email, "matches", len(matches)).
			Errorf("no single account for email")
	}

	return WithAccount(ctx, matches[0]), nil
}

// Activation fails unless the account resolved by ExistingUser is active.
func (g *Guards) Activation(ctx context.Context) error {
	acct, ok := FromContext(ctx)
	if !ok {
		return apperr.New(apperr.KindUserNotFound, "no account resolved for request")
	}

	if !acct.IsActivated {
		return apperr.Code(apperr.KindNotActivated).With("account_id", acct.ID).
			Errorf("account is not activated")
	}

	return nil
}
