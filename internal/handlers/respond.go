package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/linkkeeper/internal/apperr"
	"go.uber.org/zap"
)

const (
	statusSuccess = "success"
	statusFailed  = "failed"
	statusError   = "error"
)

const (
	genericErrorMessage = "Something went wrong. Please try again later."
	notLoggedIn         = "not logged in"
)

// Failure is the JSON result of an operation that did not succeed. It is
// returned as an error so huma writes it with its own status code.
type Failure struct {
	code    int
	Status  string `json:"status"`
	Message string `json:"message"`
}

// NewFailure builds a failed (4xx) or error (5xx) result.
func NewFailure(code int, message string) *Failure {
	status := statusFailed
	if code >= http.StatusInternalServerError {
		status = statusError
	}

	return &Failure{code: code, Status: status, Message: message}
}

func (f *Failure) Error() string {
	return f.Message
}

// GetStatus implements huma.StatusError.
func (f *Failure) GetStatus() int {
	return f.code
}

// UseFailureEnvelope makes the errors huma raises itself, such as a
// malformed or missing body, render as a Failure. Client input is never
// echoed back. It swaps huma's package level constructors, so call it once
// while building the API.
func UseFailureEnvelope() {
	huma.NewError = func(code int, _ string, _ ...error) huma.StatusError {
		return requestFailure(code)
	}
	huma.NewErrorWithContext = func(_ huma.Context, code int, _ string, _ ...error) huma.StatusError {
		return requestFailure(code)
	}
}

func requestFailure(code int) *Failure {
	if code >= http.StatusInternalServerError {
		return NewFailure(code, genericErrorMessage)
	}

	// Schema violations read the same as any other rejected input.
	if code == http.StatusUnprocessableEntity {
		code = http.StatusBadRequest
	}

	return NewFailure(code, failureMessages[apperr.KindInput].message)
}

// IdentityFailure is the result of a rejected identity check.
type IdentityFailure struct {
	Status     string `json:"status"`
	IsLoggedIn bool   `json:"is_loggedIn"`
}

func (f *IdentityFailure) Error() string {
	return notLoggedIn
}

// GetStatus implements huma.StatusError.
func (f *IdentityFailure) GetStatus() int {
	return http.StatusBadRequest
}

var failureMessages = map[apperr.Kind]struct {
	code    int
	message string
}{
	apperr.KindInput:            {http.StatusBadRequest, "Please check the submitted fields and try again."},
	apperr.KindDuplicateEmail:   {http.StatusBadRequest, "An account with this email already exists."},
	apperr.KindPasswordMismatch: {http.StatusBadRequest, "Password and confirm password do not match."},
	apperr.KindUserNotFound: {
		http.StatusBadRequest, "No user with this email found. Please provide the registered email.",
	},
	apperr.KindNotActivated: {
		http.StatusForbidden, "Please activate your account using the link sent to your email.",
	},
	apperr.KindInvalidToken: {http.StatusUnauthorized, "link expired"},
	apperr.KindExpiredToken: {http.StatusUnauthorized, "link expired"},
}

// reporter turns service errors into client results and logs them.
type reporter struct {
	logger *zap.Logger
}

func (r reporter) fail(ctx context.Context, operation string, err error) *Failure {
	kind := apperr.KindOf(err)

	fields := []zap.Field{
		zap.String("operation", operation),
		zap.String("kind", string(kind)),
		zap.Error(err),
	}
	if meta := RequestMetaFromContext(ctx); meta.RequestID != "" {
		fields = append(fields, zap.String("request_id", meta.RequestID))
	}

	known, ok := failureMessages[kind]
	if apperr.Unexpected(err) || !ok {
		r.logger.Error("request failed", fields...)

		return NewFailure(http.StatusInternalServerError, genericErrorMessage)
	}

	r.logger.Info("request rejected", fields...)

	return NewFailure(known.code, known.message)
}
