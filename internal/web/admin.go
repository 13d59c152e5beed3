package web

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/PauloHFS/hcportal/internal/logging"
	"github.com/PauloHFS/hcportal/internal/routes"
	"github.com/PauloHFS/hcportal/internal/view/pages"
	"github.com/PauloHFS/hcportal/internal/worker"
)

const adminDeadLetterLimit = 50

func handleAdmin(deps HandlerDeps, w http.ResponseWriter, r *http.Request) error {
	users, err := deps.Reader.CountUsers(r.Context())
	if err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	shifts, err := deps.Reader.CountShiftsByStatus(r.Context())
	if err != nil {
		return fmt.Errorf("failed to count shifts: %w", err)
	}
	stats, err := deps.Worker.Stats(r.Context())
	if err != nil {
		return err
	}
	dead, err := deps.Worker.DeadLetters().List(r.Context(), adminDeadLetterLimit)
	if err != nil {
		return fmt.Errorf("failed to list dead letters: %w", err)
	}

	return render(w, r, "admin", pages.Admin(pages.AdminData{
		Users:       users,
		Shifts:      shifts,
		Jobs:        stats.Jobs,
		DeadLetters: dead,
		LiveStreams: deps.Broker.Clients(),
	}))
}

func handleReprocessDeadLetter(deps HandlerDeps, w http.ResponseWriter, r *http.Request) error {
	logging.AddToEvent(r.Context(), slog.String("operation", "dlq_reprocess"))

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return nil
	}

	jobID, err := deps.Worker.DeadLetters().Reprocess(r.Context(), id)
	if errors.Is(err, worker.ErrDeadLetterNotFound) {
		http.NotFound(w, r)
		return nil
	}
	if err != nil {
		return err
	}

	logging.AddToEvent(r.Context(),
		slog.String("outcome", "success"),
		slog.Int64("dead_letter_id", id),
		slog.Int64("job_id", jobID),
	)
	redirectWithFlash(deps, w, r, routes.Admin, fmt.Sprintf("Job requeued as #%d.", jobID))
	return nil
}
