// Package account owns the user lifecycle: registration, activation,
// login and the password reset round trip.
package account

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned by a Repository when no account matches.
	ErrNotFound = errors.New("account not found")
	// ErrDuplicateEmail is returned by a Repository when the email is taken.
	ErrDuplicateEmail = errors.New("email already registered")
)

// State is derived from an account's stored fields.
type State string

const (
	StatePending      State = "pending"
	StateActive       State = "active"
	StateResetPending State = "reset_pending"
)

// Account is a registered user. PasswordHash is never exposed past the
// service boundary.
type Account struct {
	ID              string
	Email           string
	PasswordHash    string
	IsActivated     bool
	ActivationToken string
	ResetToken      string
	CreatedAt       time.Time
}

// State reports the lifecycle state of the account.
func (a *Account) State() State {
	switch {
	case !a.IsActivated:
		return StatePending
	case a.ResetToken != "":
		return StateResetPending
	default:
		return StateActive
	}
}

// Repository persists accounts. Implementations assign IDs on Create and
// enforce email uniqueness.
type Repository interface {
	Create(ctx context.Context, account *Account) error
	GetByID(ctx context.Context, id string) (*Account, error)
	FindByEmail(ctx context.Context, email string) ([]*Account, error)
	// ActivateByToken flips the account holding token to active and clears
	// the token in one step.
	ActivateByToken(ctx context.Context, token string) (*Account, error)
	SetResetToken(ctx context.Context, id, token string) error
	// ConsumeResetToken replaces the password hash and clears the reset
	// token only if token still matches.
	ConsumeResetToken(ctx context.Context, id, token, passwordHash string) error
}

// NormalizeEmail trims and lowercases an address before lookup or storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type accountCtxKey struct{}

// WithAccount attaches a resolved account to ctx.
func WithAccount(ctx context.Context, account *Account) context.Context {
	return context.WithValue(ctx, accountCtxKey{}, account)
}

// FromContext returns the account attached by WithAccount.
func FromContext(ctx context.Context) (*Account, bool) {
	acct, ok := ctx.Value(accountCtxKey{}).(*Account)

	return acct, ok && acct != nil
}
