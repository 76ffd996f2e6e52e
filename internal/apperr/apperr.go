// Package apperr defines the closed set of failure kinds surfaced by the
// account and link services. Errors are built with oops so they carry a
// machine readable code plus structured context for logging.
package apperr

import (
	"github.com/samber/oops"
)

// Kind categorises a failure. The HTTP layer maps kinds to status codes.
type Kind string

const (
	KindUnknown                 Kind = ""
	KindInput                   Kind = "INPUT_INVALID"
	KindDuplicateEmail          Kind = "DUPLICATE_EMAIL"
	KindPasswordMismatch        Kind = "PASSWORD_MISMATCH"
	KindUserNotFound            Kind = "USER_NOT_FOUND"
	KindNotActivated            Kind = "NOT_ACTIVATED"
	KindInvalidToken            Kind = "TOKEN_INVALID"
	KindExpiredToken            Kind = "TOKEN_EXPIRED"
	KindCorruptHash             Kind = "HASH_CORRUPT"
	KindCodeGenerationExhausted Kind = "CODE_GENERATION_EXHAUSTED"
	KindStoreUnavailable        Kind = "STORE_UNAVAILABLE"
)

// Code starts an oops builder tagged with kind.
func Code(kind Kind) oops.OopsErrorBuilder {
	return oops.Code(string(kind))
}

// New returns a fresh error of the given kind.
func New(kind Kind, format string, args ...any) error {
	return Code(kind).Errorf(format, args...)
}

// Wrap tags err with kind. A nil err yields nil.
func Wrap(kind Kind, err error) error {
	return Code(kind).Wrap(err)
}

// KindOf reports the kind carried by err, or KindUnknown.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return KindUnknown
	}

	switch code := any(oopsErr.Code()).(type) {
	case string:
		return Kind(code)
	case Kind:
		return code
	default:
		return KindUnknown
	}
}

// Is reports whether err carries kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Unexpected reports whether err should be treated as a server side fault.
func Unexpected(err error) bool {
	switch KindOf(err) {
	case KindCorruptHash, KindCodeGenerationExhausted, KindStoreUnavailable, KindUnknown:
		return true
	default:
		return false
	}
}
