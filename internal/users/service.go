package users

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/daisydays/daisydays-backend/pkg/enums"
	pkgerrors "github.com/daisydays/daisydays-backend/pkg/errors"
	"github.com/daisydays/daisydays-backend/pkg/logger"
	"github.com/daisydays/daisydays-backend/pkg/pagination"
)

// SessionRevoker drops live sessions when an account is deactivated.
type SessionRevoker interface {
	RevokeUser(ctx context.Context, userID uuid.UUID) error
}

// Service is the admin surface over accounts.
type Service interface {
	List(ctx context.Context, query ListQuery) (*ListResult, error)
	Get(ctx context.Context, id uuid.UUID) (*UserDTO, error)
	Update(ctx context.Context, actorID, id uuid.UUID, input UpdateInput) (*UserDTO, error)
}

type ServiceParams struct {
	Repo     *Repository
	Sessions SessionRevoker
	Logger   *logger.Logger
}

type service struct {
	repo     *Repository
	sessions SessionRevoker
	logg     *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if params.Sessions == nil {
		return nil, fmt.Errorf("session revoker required")
	}
	return &service{repo: params.Repo, sessions: params.Sessions, logg: params.Logger}, nil
}

func (s *service) List(ctx context.Context, query ListQuery) (*ListResult, error) {
	filter := ListFilter{Search: query.Search}
	details := map[string]string{}

	if raw := strings.TrimSpace(query.Role); raw != "" {
		role, err := enums.ParseUserRole(raw)
		if err != nil {
			details["role"] = "must be customer or admin"
		} else {
			filter.Role = &role
		}
	}
	if raw := strings.TrimSpace(query.Active); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			details["active"] = "must be true or false"
		} else {
			filter.Active = &active
		}
	}
	if len(details) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid user filters").WithDetails(details)
	}

	page := pagination.NewPage(query.Page, query.Limit)
	filter.Offset = page.Offset()
	filter.Limit = page.Limit

	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
	}
	items := make([]UserDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *FromModel(&rows[i]))
	}
	return &ListResult{
		Items:      items,
		Total:      total,
		Page:       page.Number,
		Limit:      page.Limit,
		TotalPages: page.TotalPages(total),
	}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*UserDTO, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err)
	}
	return FromModel(user), nil
}

func (s *service) Update(ctx context.Context, actorID, id uuid.UUID, input UpdateInput) (*UserDTO, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err)
	}

	fields := map[string]any{}
	if input.Role != nil {
		role, err := enums.ParseUserRole(*input.Role)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role").
				WithDetails(map[string]string{"role": "must be customer or admin"})
		}
		if role != user.Role {
			if actorID == id && role != enums.UserRoleAdmin {
				return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "admins cannot demote themselves")
			}
			fields["role"] = role
		}
	}
	revoke := false
	if _, ok := fields["role"]; ok {
		// Issued tokens carry the old role.
		revoke = true
	}
	if input.IsActive != nil && *input.IsActive != user.IsActive {
		if actorID == id && !*input.IsActive {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "admins cannot deactivate themselves")
		}
		fields["is_active"] = *input.IsActive
		if !*input.IsActive {
			revoke = true
		}
	}
	if len(fields) == 0 {
		return FromModel(user), nil
	}

	if err := s.repo.UpdateFields(ctx, id, fields); err != nil {
		return nil, lookupError(err)
	}
	if revoke {
		if err := s.sessions.RevokeUser(ctx, id); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke sessions")
		}
	}
	if s.logg != nil {
		ctx = s.logg.WithFields(ctx, map[string]any{"user_id": id.String(), "actor_id": actorID.String()})
		s.logg.Info(ctx, "user updated by admin")
	}

	updated, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err)
	}
	return FromModel(updated), nil
}

func lookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
}
