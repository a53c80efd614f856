package http

import (
	"net/http"

	"asesor/internal/auth"
	applog "asesor/internal/log"
)

// TokenValidator resolves a bearer token to its owner id.
type TokenValidator interface {
	Validate(token string) (string, error)
}

// requireOwner rejects requests without a valid bearer token and stores the
// owner id in the request context.
func requireOwner(tokens TokenValidator, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, ok := auth.BearerToken(r.Header.Get("Authorization"))
		if !ok {
			UnauthorizedError("missing bearer token").Write(w, r)
			return
		}
		owner, err := tokens.Validate(raw)
		if err != nil {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Rejected token",
				applog.FieldError, err)
			UnauthorizedError(auth.ErrInvalidToken.Error()).Write(w, r)
			return
		}
		ctx := auth.WithOwner(r.Context(), owner)
		ctx = applog.WithLogger(ctx, applog.FromContext(ctx).With(applog.FieldOwner, owner))
		next(w, r.WithContext(ctx))
	}
}

// ownerOf returns the authenticated owner; only call behind requireOwner.
func ownerOf(r *http.Request) string {
	owner, _ := auth.OwnerFromContext(r.Context())
	return owner
}

// chain applies middlewares so the first one runs outermost.
func chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
