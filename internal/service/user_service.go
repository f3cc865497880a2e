package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"

	"inkwell/internal/cache"
	"inkwell/internal/errors"
	"inkwell/internal/model"
	"inkwell/internal/repository"
)

const profileCacheTTL = 5 * time.Minute

// ProfileUpdate carries the fields a user may edit on their own profile.
type ProfileUpdate struct {
	Name     string
	Location string
	AboutMe  string
}

// AdminProfileUpdate carries everything an administrator may rewrite.
type AdminProfileUpdate struct {
	Email     string
	Username  string
	Confirmed bool
	RoleID    uint
	Name      string
	Location  string
	AboutMe   string
}

// UserService exposes profile operations.
type UserService interface {
	GetByID(ctx context.Context, id uint) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	UpdateProfile(ctx context.Context, user *model.User, upd ProfileUpdate) error
	// AdminUpdate requires the superuser bit on the actor.
	AdminUpdate(ctx context.Context, actor *model.User, targetID uint, upd AdminProfileUpdate) (*model.User, error)
}

type userService struct {
	users repository.UserRepository
	roles repository.RoleRepository
	cache *cache.Client
}

// NewUserService builds a UserService with repositories and cache.
func NewUserService(users repository.UserRepository, roles repository.RoleRepository, cache *cache.Client) UserService {
	return &userService{users: users, roles: roles, cache: cache}
}

func (s *userService) cacheKey(username string) string {
	return fmt.Sprintf("profile:%s", username)
}

func (s *userService) GetByID(ctx context.Context, id uint) (*model.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// GetByUsername serves profile pages and is the hottest read, so it is
// cache-aside.
func (s *userService) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	if data, _ := s.cache.Get(ctx, s.cacheKey(username)); data != nil {
		var cached model.User
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrUserNotFound
		}
		return nil, err
	}

	if payload, err := json.Marshal(user); err == nil {
		_ = s.cache.Set(ctx, s.cacheKey(username), payload, profileCacheTTL)
	}
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, user *model.User, upd ProfileUpdate) error {
	user.Name = upd.Name
	user.Location = upd.Location
	user.AboutMe = upd.AboutMe
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	_ = s.cache.Delete(ctx, s.cacheKey(user.Username))
	return nil
}

func (s *userService) AdminUpdate(ctx context.Context, actor *model.User, targetID uint, upd AdminProfileUpdate) (*model.User, error) {
	if err := requirePermission(actor, model.PermAdminister); err != nil {
		return nil, err
	}

	target, err := s.users.FindByID(ctx, targetID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrUserNotFound
		}
		return nil, err
	}
	role, err := s.roles.FindByID(ctx, upd.RoleID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrRoleNotFound
		}
		return nil, err
	}

	oldUsername := target.Username
	if upd.Email != target.Email {
		target.AvatarHash = model.GravatarHash(upd.Email)
	}
	target.Email = upd.Email
	target.Username = upd.Username
	target.Confirmed = upd.Confirmed
	target.RoleID = role.ID
	target.Role = role
	target.Name = upd.Name
	target.Location = upd.Location
	target.AboutMe = upd.AboutMe

	if err := s.users.Update(ctx, target); err != nil {
		if err == gorm.ErrDuplicatedKey {
			// Resolve which unique constraint lost the race.
			if other, ferr := s.users.FindByEmail(ctx, upd.Email); ferr == nil && other.ID != target.ID {
				return nil, errors.ErrEmailTaken
			}
			return nil, errors.ErrUsernameTaken
		}
		return nil, fmt.Errorf("admin update user %d: %w", targetID, err)
	}
	_ = s.cache.Delete(ctx, s.cacheKey(oldUsername))
	_ = s.cache.Delete(ctx, s.cacheKey(target.Username))
	return target, nil
}
