// Package shortener maps short codes to long URLs owned by an account.
package shortener

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when no link has the requested code.
	ErrNotFound = errors.New("short url not found")
	// ErrCodeTaken is returned by Save when the code is already in use.
	ErrCodeTaken = errors.New("short code already taken")
)

// Code is the short identifier of a link.
type Code string

// ShortURL is a stored link. Links are immutable once saved.
type ShortURL struct {
	Code      Code
	OwnerID   string
	LongURL   string
	CreatedAt time.Time
}

// Repository persists links. Save never overwrites an existing code.
type Repository interface {
	Save(ctx context.Context, shortURL *ShortURL) error
	GetByCode(ctx context.Context, code Code) (*ShortURL, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*ShortURL, error)
}
