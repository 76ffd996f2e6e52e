// Package token issues and verifies the signed session tokens handed out
// on a successful login.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/serroba/linkkeeper/internal/apperr"
)

// Claims is the payload carried by a session token.
type Claims struct {
	AccountID string `json:"userId"`
	jwt.RegisteredClaims
}

// Identity is what a verified token proves about its bearer.
type Identity struct {
	AccountID string
	IssuedAt  time.Time
}

// Option configures an Issuer.
type Option func(*Issuer)

// WithClock overrides the time source used for issuing and validating.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) {
		i.now = now
	}
}

// Issuer signs tokens with HMAC-SHA256 using a process wide secret.
// A zero ttl issues tokens without an expiry claim.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer creates an issuer. The secret must not be empty.
func NewIssuer(secret []byte, ttl time.Duration, opts ...Option) (*Issuer, error) {
	if len(secret) == 0 {
		return nil, apperr.New(apperr.KindInput, "token signing secret cannot be empty")
	}

	i := &Issuer{
		secret: secret,
		ttl:    ttl,
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(i)
	}

	return i, nil
}

// Issue returns a signed token naming accountID.
func (i *Issuer) Issue(accountID string) (string, error) {
	if accountID == "" {
		return "", apperr.New(apperr.KindInput, "account id is required")
	}

	now := i.now()
	claims := Claims{
		AccountID: accountID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(now),
		},
	}

	if i.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(i.ttl))
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", apperr.Code(apperr.KindInvalidToken).With("account_id", accountID).Wrap(err)
	}

	return signed, nil
}

// Verify checks the signature and expiry of raw and returns the identity it
// names.
func (i *Issuer) Verify(raw string) (*Identity, error) {
	if raw == "" {
		return nil, apperr.New(apperr.KindInvalidToken, "token is empty")
	}

	claims := &Claims{}

	parsed, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (any, error) { return i.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperr.Wrap(apperr.KindExpiredToken, err)
		}

		return nil, apperr.Wrap(apperr.KindInvalidToken, err)
	}

	if !parsed.Valid || claims.AccountID == "" {
		return nil, apperr.New(apperr.KindInvalidToken, "token does not name an account")
	}

	identity := &Identity{AccountID: claims.AccountID}
	if claims.IssuedAt != nil {
		identity.IssuedAt = claims.IssuedAt.Time
	}

	return identity, nil
}
