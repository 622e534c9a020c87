package users

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/daisydays/daisydays-backend/pkg/db/models"
	"github.com/daisydays/daisydays-backend/pkg/enums"
	"github.com/daisydays/daisydays-backend/pkg/types"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID           uuid.UUID      `json:"id"`
	Name         string         `json:"name"`
	Email        string         `json:"email"`
	Phone        *string        `json:"phone,omitempty"`
	Role         enums.UserRole `json:"role"`
	IsActive     bool           `json:"isActive"`
	HasPassword  bool           `json:"hasPassword"`
	ProfileImage *types.Image   `json:"profileImage,omitempty"`
	LastLoginAt  *time.Time     `json:"lastLoginAt,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Name          string
	Email         string
	Phone         *string
	PasswordHash  *string
	GoogleSubject *string
	Role          enums.UserRole
	IsActive      *bool
}

// ListQuery carries the raw admin listing parameters.
type ListQuery struct {
	Search string
	Role   string
	Active string
	Page   int
	Limit  int
}

// ListResult is one page of users.
type ListResult struct {
	Items      []UserDTO `json:"items"`
	Total      int64     `json:"total"`
	Page       int       `json:"page"`
	Limit      int       `json:"limit"`
	TotalPages int       `json:"totalPages"`
}

// UpdateInput is the admin patch for an account.
type UpdateInput struct {
	Role     *string `json:"role,omitempty"`
	IsActive *bool   `json:"isActive,omitempty"`
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	return &UserDTO{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Phone:        u.Phone,
		Role:         u.Role,
		IsActive:     u.IsActive,
		HasPassword:  u.HasPassword(),
		ProfileImage: u.ProfileImage,
		LastLoginAt:  u.LastLoginAt,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (c CreateUserDTO) ToModel() *models.User {
	isActive := true
	if c.IsActive != nil {
		isActive = *c.IsActive
	}
	role := c.Role
	if role == "" {
		role = enums.UserRoleCustomer
	}

	return &models.User{
		Name:          strings.TrimSpace(c.Name),
		Email:         strings.ToLower(strings.TrimSpace(c.Email)),
		Phone:         c.Phone,
		PasswordHash:  c.PasswordHash,
		GoogleSubject: c.GoogleSubject,
		Role:          role,
		IsActive:      isActive,
	}
}
