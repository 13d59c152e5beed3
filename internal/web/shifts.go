package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/PauloHFS/hcportal/internal/logging"
	"github.com/PauloHFS/hcportal/internal/routes"
	"github.com/PauloHFS/hcportal/internal/services"
	"github.com/PauloHFS/hcportal/internal/view/pages"
)

func handleMyShifts(deps HandlerDeps, w http.ResponseWriter, r *http.Request) error {
	user := currentUser(r)
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	tab := services.NormalizeTab(r.URL.Query().Get("tab"))

	list, err := deps.Shifts.List(r.Context(), user.ID, tab, page)
	if err != nil {
		return err
	}

	logging.AddToEvent(r.Context(),
		slog.String("tab", list.Tab),
		slog.Int("page", list.Page.CurrentPage),
		slog.Int("shift_count", len(list.Page.Items)),
	)
	return render(w, r, "my_shifts", pages.MyShiftsPage(list))
}

func handleShiftAction(deps HandlerDeps, w http.ResponseWriter, r *http.Request) error {
	user := currentUser(r)
	action := r.PathValue("action")

	logging.AddToEvent(r.Context(),
		slog.String("operation", "shift_transition"),
		slog.String("action", action),
	)

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		http.NotFound(w, r)
		return nil
	}
	logging.AddToEvent(r.Context(), slog.Int64("shift_id", id))

	shift, err := deps.Shifts.Transition(r.Context(), user, id, action)
	switch {
	case errors.Is(err, services.ErrShiftNotFound):
		logging.AddToEvent(r.Context(), slog.String("outcome", "not_found"))
		http.NotFound(w, r)
		return nil
	case errors.Is(err, services.ErrInvalidTransition), errors.Is(err, services.ErrCancelWindow):
		logging.AddToEvent(r.Context(), slog.String("outcome", "conflict"), slog.String("error_reason", err.Error()))
		http.Error(w, err.Error(), http.StatusConflict)
		return nil
	case err != nil:
		return err
	}

	logging.AddToEvent(r.Context(),
		slog.String("outcome", "success"),
		slog.String("status", shift.Status),
	)

	if isHTMX(r) {
		return render(w, r, "shift_row", pages.ShiftRow(shift, time.Now().UTC()))
	}
	redirectWithFlash(deps, w, r, routes.MyShifts+"?tab="+services.TabUpcoming, "Shift "+shift.Status+".")
	return nil
}
