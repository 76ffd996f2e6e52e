package account

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/serroba/linkkeeper/internal/apperr"
)

// bcrypt ignores bytes past 72, so longer passwords are refused up front.
const maxPasswordLength = 72

// Credentials is an email and password pair submitted by a client.
type Credentials struct {
	Email    string
	Password string
}

// Validate checks the shape of the pair without touching storage.
func (c Credentials) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.Email, validation.Required, validation.Length(3, 254), is.Email),
		validation.Field(&c.Password, validation.Required, validation.Length(1, maxPasswordLength)),
	)
	if err != nil {
		return apperr.Wrap(apperr.KindInput, err)
	}

	return nil
}

// ValidateEmail checks a single address.
func ValidateEmail(email string) error {
	if err := validation.Validate(email, validation.Required, validation.Length(3, 254), is.Email); err != nil {
		return apperr.Code(apperr.KindInput).With("field", "email").Wrap(err)
	}

	return nil
}

// ValidatePassword checks a single password.
func ValidatePassword(password string) error {
	if err := validation.Validate(password, validation.Required, validation.Length(1, maxPasswordLength)); err != nil {
		return apperr.Code(apperr.KindInput).With("field", "password").Wrap(err)
	}

	return nil
}
