package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/daisydays/daisydays-backend/pkg/enums"
	"github.com/daisydays/daisydays-backend/pkg/types"
)

// User is a shop account. PasswordHash is nil for accounts created through Google sign-in.
type User struct {
	ID            uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	Name          string         `gorm:"column:name;not null"`
	Email         string         `gorm:"column:email;not null;uniqueIndex:users_email_key"`
	Phone         *string        `gorm:"column:phone"`
	PasswordHash  *string        `gorm:"column:password_hash"`
	GoogleSubject *string        `gorm:"column:google_subject"`
	Role          enums.UserRole `gorm:"column:role;not null;default:customer"`
	IsActive      bool           `gorm:"column:is_active;not null;default:true"`
	ProfileImage  *types.Image   `gorm:"column:profile_image;type:jsonb;serializer:json"`
	LastLoginAt   *time.Time     `gorm:"column:last_login_at"`
	CreatedAt     time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	ensureID(&u.ID)
	return nil
}

// HasPassword reports whether the account can sign in with a password.
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}
