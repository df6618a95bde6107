package resetAvailable

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	resp "account_service/internal/lib/api/response"
	sl "account_service/internal/lib/logger"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type ResetChecker interface {
	Available(ctx context.Context, token string) (bool, error)
}

// New returns the handler reporting whether a reset token is still valid.
// Only existence leaks: the body is empty either way.
func New(
	log *slog.Logger,
	resets ResetChecker,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.reset_available.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		token := chi.URLParam(r, "token")
		if token == "" {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("Missing token"))

			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		ok, err := resets.Available(ctx, token)
		if err != nil {
			log.Error("failed to check reset token", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		if !ok {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, struct{}{})

			return
		}

		render.JSON(w, r, struct{}{})
	}
}
