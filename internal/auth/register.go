package auth

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/daisydays/daisydays-backend/internal/users"
	"github.com/daisydays/daisydays-backend/pkg/db"
	"github.com/daisydays/daisydays-backend/pkg/db/models"
	"github.com/daisydays/daisydays-backend/pkg/enums"
	pkgerrors "github.com/daisydays/daisydays-backend/pkg/errors"
	"github.com/daisydays/daisydays-backend/pkg/outbox"
	"github.com/daisydays/daisydays-backend/pkg/outbox/payloads"
	"github.com/daisydays/daisydays-backend/pkg/security"
)

const (
	providerPassword = "password"
	providerGoogle   = "google"
	emailUniqueKey   = "users_email_key"
)

func (s *service) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	name := strings.TrimSpace(req.Name)
	details := map[string]string{}
	if email == "" {
		details["email"] = "is required"
	}
	if name == "" {
		details["name"] = "is required"
	}
	if len(req.Password) < 8 {
		details["password"] = "must be at least 8 characters"
	}
	if len(details) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid registration").WithDetails(details)
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user, err := s.createUser(ctx, users.CreateUserDTO{
		Name:         name,
		Email:        email,
		Phone:        trimmedOrNil(req.Phone),
		PasswordHash: &passwordHash,
		Role:         s.roleFor(email),
	}, providerPassword)
	if err != nil {
		return nil, err
	}
	return s.issue(ctx, user)
}

func (s *service) GoogleLogin(ctx context.Context, req GoogleLoginRequest) (*AuthResponse, error) {
	if s.google == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "google sign-in is not configured")
	}
	credential := strings.TrimSpace(req.Credential)
	if credential == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "credential is required")
	}
	identity, err := s.google.Verify(ctx, credential)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid google credential")
	}
	email := strings.ToLower(strings.TrimSpace(identity.Email))
	if email == "" || !identity.EmailVerified {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "google account email is not verified")
	}

	user, err := s.users.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		name := strings.TrimSpace(identity.Name)
		if name == "" {
			name = strings.SplitN(email, "@", 2)[0]
		}
		subject := identity.Subject
		user, err = s.createUser(ctx, users.CreateUserDTO{
			Name:          name,
			Email:         email,
			GoogleSubject: &subject,
			Role:          s.roleFor(email),
		}, providerGoogle)
		if err != nil {
			return nil, err
		}
	case err != nil:
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup user")
	default:
		if user.GoogleSubject == nil && identity.Subject != "" {
			if err := s.users.LinkGoogle(ctx, user.ID, identity.Subject); err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "link google account")
			}
		}
	}

	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, inactiveAccountMessage)
	}
	return s.issue(ctx, user)
}

// createUser inserts the account and its user.registered event in one transaction.
func (s *service) createUser(ctx context.Context, dto users.CreateUserDTO, provider string) (*models.User, error) {
	var user *models.User
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		created, err := s.users.WithTx(tx).Create(ctx, dto)
		if err != nil {
			return err
		}
		user = created
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventUserRegistered,
			AggregateType: enums.AggregateUser,
			AggregateID:   created.ID,
			OccurredAt:    s.now().UTC(),
			Data: payloads.UserRegisteredEvent{
				UserID:   created.ID,
				Name:     created.Name,
				Email:    created.Email,
				Provider: provider,
			},
		})
	})
	if err != nil {
		if db.IsUniqueViolation(err, emailUniqueKey) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email is already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"user_id":  user.ID.String(),
			"provider": provider,
			"role":     string(user.Role),
		})
		s.logg.Info(logCtx, "user registered")
	}
	return user, nil
}

func (s *service) roleFor(email string) enums.UserRole {
	if s.app.IsAdminEmail(email) {
		return enums.UserRoleAdmin
	}
	return enums.UserRoleCustomer
}

func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
