package shortener

import (
	"context"
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/serroba/linkkeeper/internal/account"
	"github.com/serroba/linkkeeper/internal/apperr"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

// CodeGenerator returns a random candidate code.
type CodeGenerator func() string

// AccountReader looks up link owners.
type AccountReader interface {
	GetByID(ctx context.Context, id string) (*account.Account, error)
}

// AccountLinks is an account together with every link it owns.
type AccountLinks struct {
	Account *account.Account
	Links   []*ShortURL
}

// Service creates and resolves links.
type Service struct {
	store        Repository
	accounts     AccountReader
	generateCode CodeGenerator
	attempts     uint64
	backoff      time.Duration
	logger       *zap.Logger
}

// NewService creates a link service. attempts bounds how many codes are
// tried before giving up on a collision streak.
func NewService(
	store Repository,
	accounts AccountReader,
	generator CodeGenerator,
	attempts uint64,
	logger *zap.Logger,
) *Service {
	if attempts == 0 {
		attempts = 1
	}

	return &Service{
		store:        store,
		accounts:     accounts,
		generateCode: generator,
		attempts:     attempts,
		backoff:      time.Millisecond,
		logger:       logger,
	}
}

// Create stores a new link for ownerID under a freshly generated code.
// The same long URL submitted twice yields two distinct links.
func (s *Service) Create(ctx context.Context, ownerID, longURL string) (*ShortURL, error) {
	if err := validation.Validate(longURL, validation.Required); err != nil {
		return nil, apperr.Code(apperr.KindInput).With("field", "long_url").Wrap(err)
	}

	if ownerID == "" {
		return nil, apperr.New(apperr.KindInput, "owner is required")
	}

	var created *ShortURL

	backoff := retry.WithMaxRetries(s.attempts-1, retry.NewConstant(s.backoff))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		candidate := &ShortURL{
			Code:      Code(s.generateCode()),
			OwnerID:   ownerID,
			LongURL:   longURL,
			CreatedAt: time.Now().UTC(),
		}

		if err := s.store.Save(ctx, candidate); err != nil {
			if errors.Is(err, ErrCodeTaken) {
				s.logger.Debug("short code collision", zap.String("code", string(candidate.Code)))

				return retry.RetryableError(err)
			}

			return err
		}

		created = candidate

		return nil
	})
	if err != nil {
		if errors.Is(err, ErrCodeTaken) {
			return nil, apperr.Code(apperr.KindCodeGenerationExhausted).With("attempts", s.attempts).Wrap(err)
		}

		return nil, apperr.Code(apperr.KindStoreUnavailable).With("operation", "save link").Wrap(err)
	}

	return created, nil
}

// Resolve returns the link stored under code. A miss returns ErrNotFound.
func (s *Service) Resolve(ctx context.Context, code Code) (*ShortURL, error) {
	link, err := s.store.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}

		return nil, apperr.Code(apperr.KindStoreUnavailable).With("operation", "get link").Wrap(err)
	}

	return link, nil
}

// ListForAccount returns accountID with all links it owns, oldest first.
func (s *Service) ListForAccount(ctx context.Context, accountID string) (*AccountLinks, error) {
	acct, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return nil, apperr.Code(apperr.KindUserNotFound).With("account_id", accountID).Wrap(err)
		}

		return nil, apperr.Code(apperr.KindStoreUnavailable).With("operation", "get account").Wrap(err)
	}

	links, err := s.store.ListByOwner(ctx, accountID)
	if err != nil {
		return nil, apperr.Code(apperr.KindStoreUnavailable).With("operation", "list links").Wrap(err)
	}

	return &AccountLinks{Account: acct, Links: links}, nil
}
