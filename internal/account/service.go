package account

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/serroba/linkkeeper/internal/apperr"
	"github.com/serroba/linkkeeper/internal/mail"
	"github.com/serroba/linkkeeper/internal/token"
	"go.uber.org/zap"
)

// TokenIssuer issues and verifies session tokens.
type TokenIssuer interface {
	Issue(accountID string) (string, error)
	Verify(raw string) (*token.Identity, error)
}

// Templates holds the text and link bases of the mails the service sends.
type Templates struct {
	ActivationSubject string
	ActivationMessage string
	ActivationLink    string
	ResetSubject      string
	ResetMessage      string
	ResetLink         string
}

// LoginResult is the outcome of a credential check on an active account.
// Matched is false when the password was wrong.
type LoginResult struct {
	Matched   bool
	AccountID string
	Token     string
}

// Service runs the account lifecycle.
type Service struct {
	accounts  Repository
	hasher    Hasher
	issuer    TokenIssuer
	mailer    mail.Dispatcher
	templates Templates
	logger    *zap.Logger
	now       func() time.Time
}

// NewService wires the account service.
func NewService(
	accounts Repository,
	hasher Hasher,
	issuer TokenIssuer,
	mailer mail.Dispatcher,
	templates Templates,
	logger *zap.Logger,
) *Service {
	return &Service{
		accounts:  accounts,
		hasher:    hasher,
		issuer:    issuer,
		mailer:    mailer,
		templates: templates,
		logger:    logger,
		now:       time.Now,
	}
}

// Register creates a pending account and mails its activation link.
func (s *Service) Register(ctx context.Context, email, password string) error {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return err
	}

	activation, err := s.mailer.SendAndGenerate(ctx, mail.Request{
		Subject:   s.templates.ActivationSubject,
		Message:   s.templates.ActivationMessage,
		Recipient: email,
		LinkBase:  s.templates.ActivationLink,
	})
	if err != nil {
		return apperr.Code(apperr.KindStoreUnavailable).With("operation", "send activation mail").Wrap(err)
	}

	acct := &Account{
		Email:           email,
		PasswordHash:    hash,
		ActivationToken: activation,
		CreatedAt:       s.now().UTC(),
	}

	if err := s.accounts.Create(ctx, acct); err != nil {
		// The activation mail is already queued; its link matches no account.
		s.logger.Warn("account not stored after activation mail was queued",
			zap.String("email", email),
			zap.Error(err),
		)

		if errors.Is(err, ErrDuplicateEmail) {
			return apperr.Code(apperr.KindDuplicateEmail).With("email", email).Wrap(err)
		}

		return apperr.Code(apperr.KindStoreUnavailable).With("operation", "create account").Wrap(err)
	}

	s.logger.Info("account registered", zap.String("account_id", acct.ID))

	return nil
}

// Activate consumes an activation token. It reports false, without error,
// when no pending account holds the token.
func (s *Service) Activate(ctx context.Context, activationToken string) (bool, error) {
	if activationToken == "" {
		return false, nil
	}

	acct, err := s.accounts.ActivateByToken(ctx, activationToken)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}

		return false, apperr.Code(apperr.KindStoreUnavailable).With("operation", "activate").Wrap(err)
	}

	s.logger.Info("account activated", zap.String("account_id", acct.ID))

	return true, nil
}

// Login checks credentials. Activation is checked before the password, so
// a pending account never learns whether its password was right.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	acct, err := s.accountForEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if !acct.IsActivated {
		return nil, apperr.Code(apperr.KindNotActivated).With("account_id", acct.ID).
			Errorf("account is not activated")
	}

	ok, err := s.hasher.Verify(password, acct.PasswordHash)
	if err != nil {
		return nil, apperr.Code(apperr.KindCorruptHash).With("account_id", acct.ID).Wrap(err)
	}

	if !ok {
		return &LoginResult{Matched: false}, nil
	}

	signed, err := s.issuer.Issue(acct.ID)
	if err != nil {
		return nil, err
	}

	return &LoginResult{Matched: true, AccountID: acct.ID, Token: signed}, nil
}

// RequestPasswordReset mails a reset link carrying "<token>_._<accountID>"
// and stores the token part on the account.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	acct, err := s.accountForEmail(ctx, email)
	if err != nil {
		return err
	}

	combined, err := s.mailer.SendAndGenerate(ctx, mail.Request{
		Subject:   s.templates.ResetSubject,
		Message:   s.templates.ResetMessage,
		Recipient: acct.Email,
		LinkBase:  s.templates.ResetLink,
		Extra:     acct.ID,
	})
	if err != nil {
		return apperr.Code(apperr.KindStoreUnavailable).With("operation", "send reset mail").Wrap(err)
	}

	resetToken, _, ok := mail.SplitToken(combined)
	if !ok {
		resetToken = combined
	}

	if err := s.accounts.SetResetToken(ctx, acct.ID, resetToken); err != nil {
		if errors.Is(err, ErrNotFound) {
			return apperr.Code(apperr.KindUserNotFound).With("account_id", acct.ID).Wrap(err)
		}

		return apperr.Code(apperr.KindStoreUnavailable).With("operation", "set reset token").Wrap(err)
	}

	s.logger.Info("password reset requested", zap.String("account_id", acct.ID))

	return nil
}

// CheckResetToken reports the account a composite reset token belongs to,
// if the token is still live.
func (s *Service) CheckResetToken(ctx context.Context, combined string) (string, bool, error) {
	resetToken, accountID, ok := mail.SplitToken(combined)
	if !ok {
		return "", false, nil
	}

	acct, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", false, nil
		}

		return "", false, apperr.Code(apperr.KindStoreUnavailable).With("operation", "get account").Wrap(err)
	}

	if !tokensEqual(acct.ResetToken, resetToken) {
		return "", false, nil
	}

	return acct.ID, true, nil
}

// ResetPassword replaces the password of accountID. combined must be the
// live reset token issued for that account; it is consumed on success.
func (s *Service) ResetPassword(ctx context.Context, accountID, combined, newPassword string) error {
	acct, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return apperr.Code(apperr.KindUserNotFound).With("account_id", accountID).Wrap(err)
		}

		return apperr.Code(apperr.KindStoreUnavailable).With("operation", "get account").Wrap(err)
	}

	resetToken, owner, ok := mail.SplitToken(combined)
	if !ok || owner != acct.ID || !tokensEqual(acct.ResetToken, resetToken) {
		return apperr.Code(apperr.KindInvalidToken).With("account_id", acct.ID).
			Errorf("reset link is invalid or already used")
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	if err := s.accounts.ConsumeResetToken(ctx, acct.ID, resetToken, hash); err != nil {
		if errors.Is(err, ErrNotFound) {
			return apperr.Code(apperr.KindInvalidToken).With("account_id", acct.ID).Wrap(err)
		}

		return apperr.Code(apperr.KindStoreUnavailable).With("operation", "consume reset token").Wrap(err)
	}

	s.logger.Info("password reset", zap.String("account_id", acct.ID))

	return nil
}

// VerifyIdentity reports whether rawToken is a valid session token for
// accountID and the account still exists. Every failure reads as false.
func (s *Service) VerifyIdentity(ctx context.Context, rawToken, accountID string) bool {
	identity, err := s.issuer.Verify(rawToken)
	if err != nil {
		s.logger.Debug("identity check rejected token", zap.Error(err))

		return false
	}

	if identity.AccountID != accountID {
		return false
	}

	if _, err := s.accounts.GetByID(ctx, accountID); err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Warn("identity check lookup failed", zap.Error(err))
		}

		return false
	}

	return true
}

// Get returns the account with id.
func (s *Service) Get(ctx context.Context, id string) (*Account, error) {
	acct, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.Code(apperr.KindUserNotFound).With("account_id", id).Wrap(err)
		}

		return nil, apperr.Code(apperr.KindStoreUnavailable).With("operation", "get account").Wrap(err)
	}

	return acct, nil
}

func (s *Service) accountForEmail(ctx context.Context, email string) (*Account, error) {
	if acct, ok := FromContext(ctx); ok && acct.Email == email {
		return acct, nil
	}

	matches, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		return nil, apperr.Code(apperr.KindStoreUnavailable).With("operation", "find by email").Wrap(err)
	}

	if len(matches) != 1 {
		return nil, apperr.Code(apperr.KindUserNotFound).With("email", email).
			Errorf("no single account for email")
	}

	return matches[0], nil
}

func tokensEqual(stored, presented string) bool {
	if stored == "" || presented == "" {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) == 1
}
