package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// AuthMetadataKey marks an operation as requiring a session token.
const AuthMetadataKey = "auth"

var requireAuth = map[string]any{AuthMetadataKey: true}

// RegisterRoutes registers the account and link operations. Middleware must
// be installed on api before calling it.
func RegisterRoutes(api huma.API, accounts *AccountHandler, links *LinkHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "register",
		Method:      http.MethodPost,
		Path:        "/register",
		Summary:     "Register an account",
		Description: "Creates a pending account and mails an activation link.",
		Tags:        []string{"Accounts"},
	}, accounts.Register)

	huma.Register(api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/login",
		Summary:     "Log in",
		Description: "Checks credentials of an activated account and issues a session token.",
		Tags:        []string{"Accounts"},
	}, accounts.Login)

	huma.Register(api, huma.Operation{
		OperationID: "verify-identity",
		Method:      http.MethodGet,
		Path:        "/verify/{id}",
		Summary:     "Verify a session token",
		Description: "Confirms the Authorization header names the given account.",
		Tags:        []string{"Accounts"},
	}, accounts.Verify)

	huma.Register(api, huma.Operation{
		OperationID: "activate",
		Method:      http.MethodGet,
		Path:        "/activate",
		Summary:     "Activate an account",
		Description: "Consumes the token from an activation mail. Renders HTML.",
		Tags:        []string{"Accounts"},
	}, accounts.Activate)

	huma.Register(api, huma.Operation{
		OperationID: "forgot-password",
		Method:      http.MethodPost,
		Path:        "/password/forgot",
		Summary:     "Request a password reset",
		Tags:        []string{"Password"},
	}, accounts.ForgotPassword)

	huma.Register(api, huma.Operation{
		OperationID:   "check-reset-token",
		Method:        http.MethodGet,
		Path:          "/password/check/token",
		Summary:       "Follow a password reset link",
		Description:   "Redirects to the reset page when the link is still valid.",
		Tags:          []string{"Password"},
		DefaultStatus: http.StatusFound,
	}, accounts.CheckResetToken)

	huma.Register(api, huma.Operation{
		OperationID: "reset-password",
		Method:      http.MethodPost,
		Path:        "/password/reset/{uid}",
		Summary:     "Set a new password",
		Tags:        []string{"Password"},
	}, accounts.ResetPassword)

	huma.Register(api, huma.Operation{
		OperationID: "create-short-url",
		Method:      http.MethodPost,
		Path:        "/short-url",
		Summary:     "Create short URL",
		Description: "Creates a short code for a long URL, owned by the caller.",
		Tags:        []string{"Links"},
		Metadata:    requireAuth,
	}, links.CreateShortURL)

	huma.Register(api, huma.Operation{
		OperationID: "list-links",
		Method:      http.MethodGet,
		Path:        "/users/url-data",
		Summary:     "List the caller's links",
		Tags:        []string{"Links"},
		Metadata:    requireAuth,
	}, links.ListLinks)

	huma.Register(api, huma.Operation{
		OperationID:   "redirect",
		Method:        http.MethodGet,
		Path:          "/{code}",
		Summary:       "Redirect to long URL",
		Tags:          []string{"Links"},
		DefaultStatus: http.StatusFound,
	}, links.RedirectToURL)
}
