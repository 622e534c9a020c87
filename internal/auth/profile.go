package auth

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/daisydays/daisydays-backend/internal/media"
	"github.com/daisydays/daisydays-backend/internal/users"
	pkgerrors "github.com/daisydays/daisydays-backend/pkg/errors"
	"github.com/daisydays/daisydays-backend/pkg/security"
	"github.com/daisydays/daisydays-backend/pkg/types"
)

func (s *service) UpdateProfile(ctx context.Context, userID uuid.UUID, update ProfileUpdate) (*users.UserDTO, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	details := map[string]string{}
	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			details["name"] = "must not be empty"
		} else {
			fields["name"] = name
		}
	}
	if update.Phone != nil {
		fields["phone"] = trimmedOrNil(update.Phone)
	}
	if update.NewPassword != nil {
		hash, err := s.changePassword(user.PasswordHash, update.CurrentPassword, *update.NewPassword, details)
		if err != nil {
			return nil, err
		}
		if hash != "" {
			fields["password_hash"] = hash
		}
	}
	if len(details) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid profile update").WithDetails(details)
	}

	var image *types.Image
	if update.Image != nil {
		uploaded, err := s.media.UploadImages(ctx, media.FolderProfiles, []media.Upload{*update.Image})
		if err != nil {
			return nil, err
		}
		if len(uploaded) > 0 {
			image = &uploaded[0]
		}
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.users.WithTx(tx)
		if err := repo.UpdateFields(ctx, userID, fields); err != nil {
			return err
		}
		if image != nil {
			return repo.SetProfileImage(ctx, userID, image)
		}
		return nil
	})
	if err != nil {
		if image != nil {
			s.discardImages(ctx, image.PublicID)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update profile")
	}
	if image != nil && user.ProfileImage != nil {
		s.discardImages(ctx, user.ProfileImage.PublicID)
	}

	return s.Me(ctx, userID)
}

func (s *service) DeleteProfileImage(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.ProfileImage == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no profile image")
	}
	if err := s.users.SetProfileImage(ctx, userID, nil); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear profile image")
	}
	s.discardImages(ctx, user.ProfileImage.PublicID)
	return s.Me(ctx, userID)
}

// changePassword returns the new hash, or records a validation detail and returns "".
func (s *service) changePassword(current *string, supplied *string, next string, details map[string]string) (string, error) {
	if len(next) < 8 {
		details["newPassword"] = "must be at least 8 characters"
		return "", nil
	}
	if current != nil && *current != "" {
		if supplied == nil || *supplied == "" {
			details["currentPassword"] = "is required to set a new password"
			return "", nil
		}
		ok, err := security.VerifyPassword(*supplied, *current)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
		}
		if !ok {
			return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "current password is incorrect")
		}
	}
	hash, err := security.HashPassword(next, s.passwordCfg)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	return hash, nil
}

func (s *service) discardImages(ctx context.Context, publicIDs ...string) {
	if err := s.media.DeleteImages(ctx, publicIDs); err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithField(ctx, "public_ids", publicIDs), "profile image cleanup failed")
	}
}
