package web

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/PauloHFS/hcportal/internal/logging"
	"github.com/PauloHFS/hcportal/internal/routes"
	"github.com/PauloHFS/hcportal/internal/services"
	"github.com/PauloHFS/hcportal/internal/upload"
	"github.com/PauloHFS/hcportal/internal/validator"
	"github.com/PauloHFS/hcportal/internal/view/pages"
)

// Folga para os outros campos do multipart além do arquivo.
const multipartOverhead = 1 << 20

func handleProfile(deps HandlerDeps, w http.ResponseWriter, r *http.Request) error {
	user := currentUser(r)
	profile, err := deps.Profiles.Get(r.Context(), user.ID)
	if err != nil {
		return err
	}
	return render(w, r, "profile", pages.ProfileView(pages.ProfileData{
		Profile: profile,
		Input:   services.ProfileInputFromUser(profile.User),
	}))
}

func handleUpdateProfile(deps HandlerDeps, w http.ResponseWriter, r *http.Request) error {
	user := currentUser(r)
	logging.AddToEvent(r.Context(), slog.String("operation", "update_profile"))

	in := services.ProfileInput{
		FirstName:     r.FormValue("first_name"),
		LastName:      r.FormValue("last_name"),
		Phone:         r.FormValue("phone"),
		Profession:    r.FormValue("profession"),
		LicenseNumber: r.FormValue("license_number"),
		Bio:           r.FormValue("bio"),
	}

	_, in, err := deps.Profiles.Update(r.Context(), user.ID, in)
	var fe validator.FieldErrors
	if errors.As(err, &fe) {
		logging.AddToEvent(r.Context(), slog.String("outcome", "error"), slog.String("error_reason", "validation_failed"))
		profile, gerr := deps.Profiles.Get(r.Context(), user.ID)
		if gerr != nil {
			return gerr
		}
		return render(w, r, "profile", pages.ProfileView(pages.ProfileData{Profile: profile, Input: in, Errors: fe}))
	}
	if err != nil {
		return err
	}

	logging.AddToEvent(r.Context(), slog.String("outcome", "success"))
	redirectWithFlash(deps, w, r, routes.Profile, "Profile updated.")
	return nil
}

func handleAvatarUpload(deps HandlerDeps, w http.ResponseWriter, r *http.Request) error {
	user := currentUser(r)
	logging.AddToEvent(r.Context(), slog.String("operation", "avatar_upload"))

	r.Body = http.MaxBytesReader(w, r.Body, upload.AvatarPolicy.MaxSize+multipartOverhead)
	if err := r.ParseMultipartForm(upload.AvatarPolicy.MaxSize); err != nil {
		logging.AddToEvent(r.Context(), slog.String("outcome", "error"), slog.String("error_reason", "parse_form_failed"))
		return avatarError(deps, w, r, "The file is too large or the upload was interrupted.")
	}

	result, err := upload.Save(r.Context(), r, "avatar", user.ID, upload.AvatarPolicy, deps.Store)
	if rej, ok := upload.AsRejection(err); ok {
		logging.AddToEvent(r.Context(), slog.String("outcome", "error"), slog.String("error_reason", string(rej.Code)))
		return avatarError(deps, w, r, rej.Message)
	}
	if err != nil {
		return err
	}

	if err := deps.Profiles.SetAvatar(r.Context(), user.ID, result.URL); err != nil {
		return err
	}

	logging.AddToEvent(r.Context(),
		slog.String("outcome", "success"),
		slog.String("avatar_key", result.Key),
		slog.Int64("file_size", result.Size),
	)
	redirectWithFlash(deps, w, r, routes.Profile, "Profile photo updated.")
	return nil
}

func avatarError(deps HandlerDeps, w http.ResponseWriter, r *http.Request, msg string) error {
	profile, err := deps.Profiles.Get(r.Context(), currentUser(r).ID)
	if err != nil {
		return err
	}
	return render(w, r, "profile", pages.ProfileView(pages.ProfileData{
		Profile:     profile,
		Input:       services.ProfileInputFromUser(profile.User),
		AvatarError: msg,
	}))
}
