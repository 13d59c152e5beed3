package web

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/PauloHFS/hcportal/internal/catalog"
	"github.com/PauloHFS/hcportal/internal/logging"
	"github.com/PauloHFS/hcportal/internal/routes"
	"github.com/PauloHFS/hcportal/internal/services"
	"github.com/PauloHFS/hcportal/internal/view/pages"
	"github.com/a-h/templ"
)

// selectionPage liga um tipo de catálogo à sua rota, ao componente e ao
// próximo passo do onboarding.
type selectionPage struct {
	kind catalog.Kind
	name string
	path string
	next string
	page func(pages.ChoicesData) templ.Component
}

var (
	languagesPage = selectionPage{
		kind: catalog.KindLanguage,
		name: "languages",
		path: routes.Languages,
		next: routes.Software + "?onboarding=1",
		page: pages.LanguagesPage,
	}
	softwarePage = selectionPage{
		kind: catalog.KindSoftware,
		name: "software",
		path: routes.Software,
		next: routes.Profile,
		page: pages.SoftwarePage,
	}
)

func handleLanguages(deps HandlerDeps, w http.ResponseWriter, r *http.Request) error {
	return showSelection(deps, w, r, languagesPage)
}

func handleSaveLanguages(deps HandlerDeps, w http.ResponseWriter, r *http.Request) error {
	return saveSelection(deps, w, r, languagesPage)
}

func handleSoftware(deps HandlerDeps, w http.ResponseWriter, r *http.Request) error {
	return showSelection(deps, w, r, softwarePage)
}

func handleSaveSoftware(deps HandlerDeps, w http.ResponseWriter, r *http.Request) error {
	return saveSelection(deps, w, r, softwarePage)
}

func showSelection(deps HandlerDeps, w http.ResponseWriter, r *http.Request, p selectionPage) error {
	sel, err := deps.Selections.Get(r.Context(), currentUser(r).ID, p.kind)
	if err != nil {
		return err
	}
	onboarding := r.URL.Query().Get("onboarding") == "1" || len(sel.Selected) == 0
	return render(w, r, p.name, p.page(pages.ChoicesData{
		Items:      sel.Items,
		Selected:   sel.Selected,
		Onboarding: onboarding,
	}))
}

func saveSelection(deps HandlerDeps, w http.ResponseWriter, r *http.Request, p selectionPage) error {
	user := currentUser(r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return nil
	}
	codes := r.PostForm["codes"]
	onboarding := r.PostForm.Get("onboarding") == "1"

	logging.AddToEvent(r.Context(),
		slog.String("operation", "save_"+p.name),
		slog.Int("selected_count", len(codes)),
	)

	err := deps.Selections.Replace(r.Context(), user.ID, p.kind, codes)
	if errors.Is(err, services.ErrEmptySelection) || errors.Is(err, catalog.ErrUnknownCode) {
		logging.AddToEvent(r.Context(), slog.String("outcome", "error"), slog.String("error_reason", err.Error()))
		sel, gerr := deps.Selections.Get(r.Context(), user.ID, p.kind)
		if gerr != nil {
			return gerr
		}
		// mantém o que foi marcado no formulário
		selected := make(map[string]bool, len(codes))
		for _, c := range codes {
			selected[c] = true
		}
		return render(w, r, p.name, p.page(pages.ChoicesData{
			Items:      sel.Items,
			Selected:   selected,
			Error:      selectionError(err),
			Onboarding: onboarding,
		}))
	}
	if err != nil {
		return err
	}

	logging.AddToEvent(r.Context(), slog.String("outcome", "success"))
	if onboarding {
		http.Redirect(w, r, p.next, http.StatusSeeOther)
		return nil
	}
	redirectWithFlash(deps, w, r, p.path, "Saved.")
	return nil
}

func selectionError(err error) string {
	if errors.Is(err, catalog.ErrUnknownCode) {
		return "Some of the selected options are not available any more."
	}
	return "Select at least one option."
}
