package users

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ayush/task-manager-api/internal/auth"
	"github.com/ayush/task-manager-api/internal/media"
	"github.com/ayush/task-manager-api/internal/models"
)

// UserStore defines the interface for user persistence.
type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	UpdateUser(ctx context.Context, u *models.User) error
	SetAvatar(ctx context.Context, userID string, avatar []byte) error
	DeleteUser(ctx context.Context, id string) error
}

// TaskRemover deletes the tasks a user owns.
type TaskRemover interface {
	DeleteTasksByOwner(ctx context.Context, owner string) (int64, error)
}

// Service implements account registration, profile changes and avatars.
type Service struct {
	users UserStore
	tasks TaskRemover
}

func NewService(users UserStore, tasks TaskRemover) *Service {
	return &Service{users: users, tasks: tasks}
}

// Create validates req, hashes the password and stores the new user.
func (s *Service) Create(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	u := &models.User{
		Name:  strings.TrimSpace(req.Name),
		Email: models.NormalizeEmail(req.Email),
		Age:   req.Age,
	}
	if err := models.ValidateProfile(u); err != nil {
		return nil, err
	}
	password := strings.TrimSpace(req.Password)
	if err := models.ValidatePassword(password); err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	u.Password = hash

	if err := s.users.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Update applies patch to u. Every key must be in models.UserUpdatableFields
// and every value must validate, otherwise nothing is written.
func (s *Service) Update(ctx context.Context, u *models.User, patch models.Patch) (*models.User, error) {
	if err := patch.CheckKeys(models.UserUpdatableFields); err != nil {
		return nil, err
	}

	next := u.Clone()
	var password *string
	for key, raw := range patch {
		if string(raw) == "null" {
			return nil, fmt.Errorf("%w: %s cannot be null", models.ErrValidation, key)
		}
		var err error
		switch key {
		case "name":
			err = json.Unmarshal(raw, &next.Name)
		case "email":
			err = json.Unmarshal(raw, &next.Email)
		case "age":
			err = json.Unmarshal(raw, &next.Age)
		case "password":
			password = new(string)
			err = json.Unmarshal(raw, password)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s has the wrong type", models.ErrValidation, key)
		}
	}

	next.Name = strings.TrimSpace(next.Name)
	next.Email = models.NormalizeEmail(next.Email)
	if err := models.ValidateProfile(next); err != nil {
		return nil, err
	}
	if password != nil {
		plain := strings.TrimSpace(*password)
		if err := models.ValidatePassword(plain); err != nil {
			return nil, err
		}
		hash, err := auth.HashPassword(plain)
		if err != nil {
			return nil, err
		}
		next.Password = hash
	}

	if err := s.users.UpdateUser(ctx, next); err != nil {
		return nil, err
	}
	return next, nil
}

// Delete removes every task u owns and then u itself. The two steps are not
// atomic; a failure after the first leaves the user without tasks.
func (s *Service) Delete(ctx context.Context, u *models.User) error {
	if _, err := s.tasks.DeleteTasksByOwner(ctx, u.ID); err != nil {
		return fmt.Errorf("delete tasks of %s: %w", u.ID, err)
	}
	if err := s.users.DeleteUser(ctx, u.ID); err != nil {
		return fmt.Errorf("delete user %s: %w", u.ID, err)
	}
	return nil
}

// SetAvatar normalizes an uploaded image and stores it on u.
func (s *Service) SetAvatar(ctx context.Context, u *models.User, f *media.File) error {
	if err := media.CheckAvatarName(f.Name); err != nil {
		return err
	}
	if len(f.Data) > media.MaxUploadBytes {
		return fmt.Errorf("%w: file too large", models.ErrValidation)
	}
	avatar, err := media.NormalizeAvatar(f.Data)
	if err != nil {
		return err
	}
	if err := s.users.SetAvatar(ctx, u.ID, avatar); err != nil {
		return err
	}
	u.Avatar = avatar
	return nil
}

// ClearAvatar removes the avatar of u.
func (s *Service) ClearAvatar(ctx context.Context, u *models.User) error {
	if err := s.users.SetAvatar(ctx, u.ID, nil); err != nil {
		return err
	}
	u.Avatar = nil
	return nil
}

// Avatar returns the PNG avatar of user id.
func (s *Service) Avatar(ctx context.Context, id string) ([]byte, error) {
	u, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(u.Avatar) == 0 {
		return nil, fmt.Errorf("avatar of %s: %w", id, models.ErrNotFound)
	}
	return u.Avatar, nil
}
