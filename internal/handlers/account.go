package handlers

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"net/url"

	"github.com/serroba/linkkeeper/internal/account"
	"github.com/serroba/linkkeeper/internal/apperr"
	"github.com/serroba/linkkeeper/internal/config"
	"github.com/serroba/linkkeeper/internal/metrics"
	"go.uber.org/zap"
)

// AccountHandler serves registration, activation, login and password reset.
type AccountHandler struct {
	accounts *account.Service
	guards   *account.Guards
	settings *config.Settings
	metrics  *metrics.Metrics
	reporter reporter
}

// NewAccountHandler creates an AccountHandler.
func NewAccountHandler(
	accounts *account.Service,
	guards *account.Guards,
	settings *config.Settings,
	m *metrics.Metrics,
	logger *zap.Logger,
) *AccountHandler {
	return &AccountHandler{
		accounts: accounts,
		guards:   guards,
		settings: settings,
		metrics:  m,
		reporter: reporter{logger: logger},
	}
}

func (h *AccountHandler) Register(ctx context.Context, req *RegisterRequest) (*MessageResponse, error) {
	email := account.NormalizeEmail(req.Body.Email)

	creds := account.Credentials{Email: email, Password: req.Body.Password}
	if err := creds.Validate(); err != nil {
		return nil, h.reporter.fail(ctx, "register", err)
	}

	if err := h.guards.Registration(ctx, email); err != nil {
		return nil, h.reporter.fail(ctx, "register", err)
	}

	if err := h.guards.PasswordConfirmation(req.Body.Password, req.Body.ConfirmPassword); err != nil {
		return nil, h.reporter.fail(ctx, "register", err)
	}

	if err := h.accounts.Register(ctx, email, req.Body.Password); err != nil {
		return nil, h.reporter.fail(ctx, "register", err)
	}

	h.metrics.AccountsRegistered.Inc()

	return message("Account created. Please check your email for the link to activate your account."), nil
}

func (h *AccountHandler) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	email := account.NormalizeEmail(req.Body.Email)

	creds := account.Credentials{Email: email, Password: req.Body.Password}
	if err := creds.Validate(); err != nil {
		return nil, h.reporter.fail(ctx, "login", err)
	}

	ctx, err := h.guards.ExistingUser(ctx, email)
	if err != nil {
		h.metrics.Logins.WithLabelValues("unknown_user").Inc()

		return nil, h.reporter.fail(ctx, "login", err)
	}

	if err := h.guards.Activation(ctx); err != nil {
		h.metrics.Logins.WithLabelValues("not_activated").Inc()

		return nil, h.reporter.fail(ctx, "login", err)
	}

	result, err := h.accounts.Login(ctx, email, req.Body.Password)
	if err != nil {
		h.metrics.Logins.WithLabelValues("error").Inc()

		return nil, h.reporter.fail(ctx, "login", err)
	}

	resp := &LoginResponse{}

	if !result.Matched {
		h.metrics.Logins.WithLabelValues("wrong_password").Inc()

		resp.Body.Status = statusFailed
		resp.Body.Message = "Please check your password and try again."

		return resp, nil
	}

	h.metrics.Logins.WithLabelValues("success").Inc()

	resp.Body.Status = statusSuccess
	resp.Body.Message = "Login successful"
	resp.Body.UserID = result.AccountID
	resp.Body.Token = result.Token

	return resp, nil
}

func (h *AccountHandler) Verify(ctx context.Context, req *VerifyRequest) (*VerifyResponse, error) {
	if !h.accounts.VerifyIdentity(ctx, req.Authorization, req.ID) {
		return nil, &IdentityFailure{Status: statusFailed, IsLoggedIn: false}
	}

	resp := &VerifyResponse{}
	resp.Body.Status = statusSuccess
	resp.Body.IsLoggedIn = true

	return resp, nil
}

func (h *AccountHandler) Activate(ctx context.Context, req *ActivateRequest) (*HTMLResponse, error) {
	activated, err := h.accounts.Activate(ctx, req.ActivationString)
	if err != nil {
		return nil, h.reporter.fail(ctx, "activate", err)
	}

	if !activated {
		return page("<p>link expired</p>"), nil
	}

	h.metrics.AccountsActivated.Inc()

	return page(fmt.Sprintf(
		`<p>Account activated. Click <a href="%s">here</a> to login.</p>`,
		html.EscapeString(h.settings.LoginURL),
	)), nil
}

func (h *AccountHandler) ForgotPassword(ctx context.Context, req *ForgotPasswordRequest) (*MessageResponse, error) {
	email := account.NormalizeEmail(req.Body.Email)

	if err := account.ValidateEmail(email); err != nil {
		return nil, h.reporter.fail(ctx, "forgot password", err)
	}

	ctx, err := h.guards.ExistingUser(ctx, email)
	if err != nil {
		return nil, h.reporter.fail(ctx, "forgot password", err)
	}

	if err := h.accounts.RequestPasswordReset(ctx, email); err != nil {
		return nil, h.reporter.fail(ctx, "forgot password", err)
	}

	h.metrics.PasswordResets.WithLabelValues("requested").Inc()

	return message("Reset password link is sent to your email account."), nil
}

func (h *AccountHandler) CheckResetToken(
	ctx context.Context, req *CheckResetTokenRequest,
) (*CheckResetTokenResponse, error) {
	accountID, ok, err := h.accounts.CheckResetToken(ctx, req.ResetString)
	if err != nil {
		return nil, h.reporter.fail(ctx, "check reset token", err)
	}

	if !ok {
		return &CheckResetTokenResponse{
			Status:      http.StatusOK,
			ContentType: "text/plain; charset=utf-8",
			Body:        []byte("link expired"),
		}, nil
	}

	target, err := url.Parse(h.settings.ResetPageURL)
	if err != nil {
		return nil, h.reporter.fail(ctx, "check reset token", err)
	}

	query := target.Query()
	query.Set("uid", accountID)
	query.Set("reset_string", req.ResetString)
	target.RawQuery = query.Encode()

	h.metrics.PasswordResets.WithLabelValues("checked").Inc()

	return &CheckResetTokenResponse{
		Status:   http.StatusFound,
		Location: target.String(),
	}, nil
}

func (h *AccountHandler) ResetPassword(ctx context.Context, req *ResetPasswordRequest) (*MessageResponse, error) {
	if err := h.guards.PasswordConfirmation(req.Body.Password, req.Body.ConfirmPassword); err != nil {
		return nil, h.reporter.fail(ctx, "reset password", err)
	}

	if err := account.ValidatePassword(req.Body.Password); err != nil {
		return nil, h.reporter.fail(ctx, "reset password", err)
	}

	err := h.accounts.ResetPassword(ctx, req.UID, req.Body.ResetString, req.Body.Password)
	if err != nil {
		failure := h.reporter.fail(ctx, "reset password", err)
		if apperr.Is(err, apperr.KindUserNotFound) {
			failure = NewFailure(http.StatusGone, "User not found")
		}

		return nil, failure
	}

	h.metrics.PasswordResets.WithLabelValues("completed").Inc()

	return message("password changed successfully"), nil
}

func message(text string) *MessageResponse {
	return &MessageResponse{Body: MessageBody{Status: statusSuccess, Message: text}}
}

func page(body string) *HTMLResponse {
	return &HTMLResponse{ContentType: "text/html; charset=utf-8", Body: []byte(body)}
}
