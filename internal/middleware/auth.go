package middleware

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/linkkeeper/internal/handlers"
	"github.com/serroba/linkkeeper/internal/token"
	"go.uber.org/zap"
)

// TokenVerifier checks a raw session token.
type TokenVerifier interface {
	Verify(raw string) (*token.Identity, error)
}

// Authenticate guards operations whose metadata sets
// handlers.AuthMetadataKey. The
// raw Authorization header is the token; no scheme prefix is expected.
// On success the account id is added to the request context.
func Authenticate(
	api huma.API, verifier TokenVerifier, logger *zap.Logger,
) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		if !requiresAuth(ctx.Operation()) {
			next(ctx)

			return
		}

		identity, err := verifier.Verify(ctx.Header("Authorization"))
		if err != nil {
			logger.Debug("rejected session token",
				zap.String("path", ctx.URL().Path),
				zap.Error(err),
			)

			failure := handlers.NewFailure(http.StatusUnauthorized, "not logged in")

			ctx.SetHeader("Content-Type", "application/json")
			ctx.SetStatus(failure.GetStatus())

			if err := api.Marshal(ctx.BodyWriter(), "application/json", failure); err != nil {
				logger.Error("failed to write auth failure", zap.Error(err))
			}

			return
		}

		next(huma.WithContext(ctx, handlers.ContextWithAccountID(ctx.Context(), identity.AccountID)))
	}
}

func requiresAuth(op *huma.Operation) bool {
	if op == nil {
		return false
	}

	required, _ := op.Metadata[handlers.AuthMetadataKey].(bool)

	return required
}
