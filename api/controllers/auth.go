package controllers

import (
	"net/http"

	"github.com/daisydays/daisydays-backend/api/middleware"
	"github.com/daisydays/daisydays-backend/api/responses"
	"github.com/daisydays/daisydays-backend/api/validators"
	"github.com/daisydays/daisydays-backend/internal/auth"
	pkgerrors "github.com/daisydays/daisydays-backend/pkg/errors"
	"github.com/daisydays/daisydays-backend/pkg/logger"
)

// AuthRegister creates a customer account and signs it in.
func AuthRegister(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("auth"))
			return
		}
		var req auth.RegisterRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		resp, err := svc.Register(r.Context(), req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, resp)
	}
}

func AuthLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("auth"))
			return
		}
		var req auth.LoginRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		resp, err := svc.Login(r.Context(), req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}

func AuthGoogleLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("auth"))
			return
		}
		var req auth.GoogleLoginRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		resp, err := svc.GoogleLogin(r.Context(), req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}

// AuthLogout revokes the session bound to the presented token.
func AuthLogout(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("auth"))
			return
		}
		accessID := middleware.AccessIDFromContext(r.Context())
		if accessID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "session missing"))
			return
		}
		if err := svc.Logout(r.Context(), accessID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

func AuthMe(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("auth"))
			return
		}
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		user, err := svc.Me(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, user)
	}
}

// AuthUpdateProfile accepts JSON, or multipart when a new profile image is sent.
func AuthUpdateProfile(svc auth.Service, maxUploadBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("auth"))
			return
		}
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var update auth.ProfileUpdate
		cleanup := func() error { return nil }
		if validators.IsMultipart(r) {
			update, cleanup, err = profileFromMultipart(w, r, maxUploadBytes)
		} else {
			err = validators.DecodeJSONBody(r, &update)
		}
		defer closeUploads(r, logg, cleanup)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := svc.UpdateProfile(r.Context(), userID, update)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, user)
	}
}

func profileFromMultipart(w http.ResponseWriter, r *http.Request, maxUploadBytes int64) (auth.ProfileUpdate, func() error, error) {
	noop := func() error { return nil }
	var update auth.ProfileUpdate
	if err := validators.ParseMultipart(w, r, maxUploadBytes); err != nil {
		return update, noop, err
	}
	if v, ok := validators.FormValue(r, "name"); ok {
		update.Name = &v
	}
	if v, ok := validators.FormValue(r, "phone"); ok {
		update.Phone = &v
	}
	if v, ok := validators.FormValue(r, "currentPassword"); ok {
		update.CurrentPassword = &v
	}
	if v, ok := validators.FormValue(r, "newPassword"); ok {
		update.NewPassword = &v
	}
	if err := validators.ValidateStruct(&update); err != nil {
		return update, noop, err
	}

	files, cleanup, err := validators.FormFiles(r, "image")
	if err != nil {
		return update, noop, err
	}
	if len(files) > 1 {
		_ = cleanup()
		return update, noop, pkgerrors.New(pkgerrors.CodeValidation, "only one profile image may be uploaded").
			WithDetails(map[string]any{"field": "image"})
	}
	if len(files) == 1 {
		update.Image = &files[0]
	}
	return update, cleanup, nil
}

func AuthDeleteProfileImage(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("auth"))
			return
		}
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		user, err := svc.DeleteProfileImage(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, user)
	}
}
