package controllers

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/daisydays/daisydays-backend/api/middleware"
	"github.com/daisydays/daisydays-backend/internal/auth"
	"github.com/daisydays/daisydays-backend/internal/users"
	"github.com/daisydays/daisydays-backend/pkg/enums"
	pkgerrors "github.com/daisydays/daisydays-backend/pkg/errors"
)

type stubAuthService struct {
	registerErr  error
	loggedOut    string
	profile      auth.ProfileUpdate
	profileImage []byte
	user         *users.UserDTO
}

func (s *stubAuthService) Register(ctx context.Context, req auth.RegisterRequest) (*auth.AuthResponse, error) {
	if s.registerErr != nil {
		return nil, s.registerErr
	}
	return &auth.AuthResponse{Token: "tok", ExpiresAt: time.Now().Add(time.Hour), User: &users.UserDTO{Email: req.Email}}, nil
}

func (s *stubAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.AuthResponse, error) {
	return &auth.AuthResponse{Token: "tok"}, nil
}

func (s *stubAuthService) GoogleLogin(ctx context.Context, req auth.GoogleLoginRequest) (*auth.AuthResponse, error) {
	return &auth.AuthResponse{Token: "google"}, nil
}

func (s *stubAuthService) Logout(ctx context.Context, accessID string) error {
	s.loggedOut = accessID
	return nil
}

func (s *stubAuthService) Me(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error) {
	return &users.UserDTO{ID: userID}, nil
}

func (s *stubAuthService) UpdateProfile(ctx context.Context, userID uuid.UUID, update auth.ProfileUpdate) (*users.UserDTO, error) {
	s.profile = update
	if update.Image != nil {
		body, err := io.ReadAll(update.Image.Body)
		if err != nil {
			return nil, err
		}
		s.profileImage = body
	}
	return &users.UserDTO{ID: userID}, nil
}

func (s *stubAuthService) DeleteProfileImage(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no profile image")
}

func TestAuthRegisterReturnsCreated(t *testing.T) {
	svc := &stubAuthService{}
	body := `{"name":"Rose","email":"rose@example.com","password":"longenough"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(body))
	resp := httptest.NewRecorder()

	AuthRegister(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	var out auth.AuthResponse
	decodeData(t, resp, &out)
	if out.Token != "tok" || out.User == nil || out.User.Email != "rose@example.com" {
		t.Fatalf("unexpected response %+v", out)
	}
}

func TestAuthRegisterRejectsShortPassword(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(`{"name":"Rose","email":"rose@example.com","password":"short"}`))
	resp := httptest.NewRecorder()

	AuthRegister(&stubAuthService{}, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if code := decodeErrorCode(t, resp); code != string(pkgerrors.CodeValidation) {
		t.Fatalf("unexpected code %s", code)
	}
}

func TestAuthRegisterConflict(t *testing.T) {
	svc := &stubAuthService{registerErr: pkgerrors.New(pkgerrors.CodeConflict, "email already registered")}
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(`{"name":"Rose","email":"rose@example.com","password":"longenough"}`))
	resp := httptest.NewRecorder()

	AuthRegister(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
}

func TestAuthLogoutRevokesCurrentSession(t *testing.T) {
	svc := &stubAuthService{}
	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req = req.WithContext(middleware.WithIdentity(req.Context(), uuid.NewString(), "customer", "session-123"))
	resp := httptest.NewRecorder()

	AuthLogout(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", resp.Code)
	}
	if svc.loggedOut != "session-123" {
		t.Fatalf("expected session-123 revoked, got %q", svc.loggedOut)
	}
}

func TestAuthUpdateProfileMultipart(t *testing.T) {
	svc := &stubAuthService{}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("name", "  Daisy  ")
	part, err := mw.CreateFormFile("image", "me.png")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	_, _ = part.Write([]byte("png-bytes"))
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPut, "/api/auth/profile", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req = asUser(req, uuid.New(), enums.UserRoleCustomer)
	resp := httptest.NewRecorder()

	AuthUpdateProfile(svc, 1<<20, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.profile.Name == nil || *svc.profile.Name != "Daisy" {
		t.Fatalf("expected trimmed name, got %v", svc.profile.Name)
	}
	if svc.profile.Phone != nil {
		t.Fatal("expected phone left untouched")
	}
	if string(svc.profileImage) != "png-bytes" {
		t.Fatalf("unexpected image body %q", svc.profileImage)
	}
}

func TestAuthUpdateProfileJSON(t *testing.T) {
	svc := &stubAuthService{}
	req := httptest.NewRequest(http.MethodPut, "/api/auth/profile", strings.NewReader(`{"currentPassword":"old-password","newPassword":"new-password"}`))
	req = asUser(req, uuid.New(), enums.UserRoleCustomer)
	resp := httptest.NewRecorder()

	AuthUpdateProfile(svc, 1<<20, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.profile.NewPassword == nil || *svc.profile.NewPassword != "new-password" {
		t.Fatal("expected new password forwarded")
	}
}

func TestAuthDeleteProfileImageNotFound(t *testing.T) {
	req := asUser(httptest.NewRequest(http.MethodDelete, "/api/auth/profile-image", nil), uuid.New(), enums.UserRoleCustomer)
	resp := httptest.NewRecorder()

	AuthDeleteProfileImage(&stubAuthService{}, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestAuthMeRequiresIdentity(t *testing.T) {
	resp := httptest.NewRecorder()
	AuthMe(&stubAuthService{}, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/auth/me", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}
