package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/abhishekwt3/e-commerce-mobile/pkg/config"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/db"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/db/models"
	pkgerrors "github.com/abhishekwt3/e-commerce-mobile/pkg/errors"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/security"
)

// ProfileService reads and edits the signed-in user's account.
var emailRule = validator.New()

type ProfileService interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*Profile, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*Profile, error)
}

// UpdateProfileInput carries optional changes; nil fields are left as is.
type UpdateProfileInput struct {
	FirstName       *string `json:"first_name"`
	LastName        *string `json:"last_name"`
	Phone           *string `json:"phone"`
	Email           *string `json:"email" validate:"omitempty,email"`
	CurrentPassword *string `json:"current_password"`
	NewPassword     *string `json:"new_password"`
}

type profileService struct {
	repo        *Repository
	passwordCfg config.PasswordConfig
}

func NewProfileService(repo *Repository, passwordCfg config.PasswordConfig) (ProfileService, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	return &profileService{repo: repo, passwordCfg: passwordCfg}, nil
}

func (s *profileService) GetProfile(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return ProfileOf(user), nil
}

func (s *profileService) UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*Profile, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.FirstName != nil {
		name := strings.TrimSpace(*input.FirstName)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "first_name cannot be empty")
		}
		updates["first_name"] = name
	}
	if input.LastName != nil {
		name := strings.TrimSpace(*input.LastName)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "last_name cannot be empty")
		}
		updates["last_name"] = name
	}
	if input.Phone != nil {
		phone := strings.TrimSpace(*input.Phone)
		if phone == "" {
			updates["phone"] = nil
		} else {
			updates["phone"] = phone
		}
	}
	if input.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*input.Email))
		if emailRule.Var(email, "required,email") != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is invalid")
		}
		if email != user.Email {
			taken, err := s.repo.EmailTaken(ctx, email, user.ID)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check email")
			}
			if taken {
				return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already in use")
			}
			updates["email"] = email
		}
	}
	if input.NewPassword != nil {
		if input.CurrentPassword == nil || *input.CurrentPassword == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "current_password is required to change password")
		}
		ok, err := security.VerifyPassword(*input.CurrentPassword, user.PasswordHash)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
		}
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "current password is incorrect")
		}
		if err := security.ValidatePassword(*input.NewPassword); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
		}
		hash, err := security.HashPassword(*input.NewPassword, s.passwordCfg)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
		}
		updates["password_hash"] = hash
	}

	if err := s.repo.Update(ctx, user.ID, updates); err != nil {
		if db.IsUniqueViolation(err, emailConstraint) || db.IsUniqueViolation(err, "users.email") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already in use")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update profile")
	}
	return s.GetProfile(ctx, user.ID)
}

func (s *profileService) load(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return user, nil
}
