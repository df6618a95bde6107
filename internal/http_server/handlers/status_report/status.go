package statusReport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	resp "account_service/internal/lib/api/response"
	sl "account_service/internal/lib/logger"
	"account_service/internal/models"
	"account_service/internal/status"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type TasksProvider interface {
	ScheduledTasks(ctx context.Context) ([]models.ScheduledTask, error)
}

type Response struct {
	Status   string           `json:"status"`
	Findings []status.Finding `json:"findings"`
}

// New returns the health-report handler: it loads the scheduled-task
// descriptors and runs every registered checker over them.
func New(
	log *slog.Logger,
	tasks TasksProvider,
	registry *status.Registry,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.status_report.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		scheduled, err := tasks.ScheduledTasks(ctx)
		if err != nil {
			log.Error("failed to load scheduled tasks", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		report, err := registry.Run(ctx, status.Input{ScheduledTasks: scheduled})
		if err != nil {
			log.Error("checker failed", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		overall := "ok"
		if report.HasWarnings() {
			overall = "warning"
		}

		render.JSON(w, r, Response{
			Status:   overall,
			Findings: report.Findings,
		})
	}
}
