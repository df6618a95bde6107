// Package authn authenticates requests by their session token. Tokens are
// opaque redis keys of the form u-<userId>-<random>; a request is
// authenticated when its token still exists in the session store.
package authn

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	resp "account_service/internal/lib/api/response"
	sl "account_service/internal/lib/logger"

	"github.com/go-chi/render"
)

// HeaderToken is the request header carrying the session token.
const HeaderToken = "token"

type ctxKey int

const (
	ctxKeyUserID ctxKey = iota
	ctxKeyToken
)

type SessionChecker interface {
	SessionExists(ctx context.Context, token string) (bool, error)
}

// WithUser returns a context carrying an authenticated identity.
func WithUser(ctx context.Context, userID int64, token string) context.Context {
	ctx = context.WithValue(ctx, ctxKeyUserID, userID)
	return context.WithValue(ctx, ctxKeyToken, token)
}

// UserID returns the authenticated user id stored by the middleware.
func UserID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(ctxKeyUserID).(int64)
	return id, ok
}

// Token returns the raw session token of the current request.
func Token(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(ctxKeyToken).(string)
	return token, ok
}

func New(log *slog.Logger, sessions SessionChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middleware.authn"

			token := r.Header.Get(HeaderToken)

			userID, ok := parseUserID(token)
			if !ok {
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, resp.Error("missing or malformed token"))

				return
			}

			exists, err := sessions.SessionExists(r.Context(), token)
			if err != nil {
				log.Error("failed to check session", slog.String("op", op), sl.Err(err))

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, resp.Error("Internal error"))

				return
			}

			if !exists {
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, resp.Error("invalid session"))

				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), userID, token)))
		})
	}
}

// parseUserID extracts the user id from a u-<id>-<random> token.
func parseUserID(token string) (int64, bool) {
	rest, ok := strings.CutPrefix(token, "u-")
	if !ok {
		return 0, false
	}

	idStr, _, ok := strings.Cut(rest, "-")
	if !ok {
		return 0, false
	}

	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}

	return id, true
}
