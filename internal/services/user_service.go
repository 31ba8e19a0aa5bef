package services

import (
	"context"
	"log"
	"strings"

	"estatehub/internal/models"
	"estatehub/internal/repositories"
)

type UserService interface {
	GetUser(ctx context.Context, id int) (*models.User, error)
	UpdateProfile(ctx context.Context, id int, req models.UpdateProfileRequest) (*models.User, error)
	DeleteAccount(ctx context.Context, id int) error
}

type userService struct {
	users    repositories.UserRepository
	listings repositories.ListingRepository
	hasher   PasswordHasher
}

func NewUserService(users repositories.UserRepository, listings repositories.ListingRepository, hasher PasswordHasher) UserService {
	return &userService{
		users:    users,
		listings: listings,
		hasher:   hasher,
	}
}

func (s *userService) GetUser(ctx context.Context, id int) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, upstream("find user", err)
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return user.Scrubbed(), nil
}

// UpdateProfile changes profile fields. A password change needs the current
// password.
func (s *userService) UpdateProfile(ctx context.Context, id int, req models.UpdateProfileRequest) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, upstream("find user", err)
	}
	if user == nil {
		return nil, ErrNotFound
	}

	var upd models.UserUpdate
	if req.Username != nil {
		name := strings.TrimSpace(*req.Username)
		if name == "" {
			return nil, validationError("username cannot be empty")
		}
		upd.Username = &name
	}
	upd.Avatar = req.Avatar
	upd.Address = req.Address
	upd.Phone = req.Phone

	if req.NewPassword != "" {
		if req.CurrentPassword == "" {
			return nil, validationError("current password is required to change the password")
		}
		ok, err := s.hasher.CheckPassword(user.PasswordHash, req.CurrentPassword)
		if err != nil {
			return nil, err
		}
		if !ok {
			log.Printf("[user][update] current password mismatch user_id=%d", id)
			return nil, ErrInvalidPassword
		}
		hash, err := s.hasher.HashPassword(req.NewPassword)
		if err != nil {
			return nil, err
		}
		upd.PasswordHash = &hash
	}

	updated, err := s.users.UpdateByID(ctx, id, upd)
	if err != nil {
		return nil, upstream("update user", err)
	}
	if updated == nil {
		return nil, ErrNotFound
	}
	log.Printf("[user][update] ok user_id=%d password_changed=%v", id, upd.PasswordHash != nil)
	return updated.Scrubbed(), nil
}

// DeleteAccount removes the user and every listing they own.
func (s *userService) DeleteAccount(ctx context.Context, id int) error {
	if err := s.listings.DeleteByOwner(ctx, id); err != nil {
		return upstream("delete user listings", err)
	}
	deleted, err := s.users.DeleteByID(ctx, id)
	if err != nil {
		return upstream("delete user", err)
	}
	if deleted == nil {
		return ErrNotFound
	}
	log.Printf("[user][delete] ok user_id=%d", id)
	return nil
}
