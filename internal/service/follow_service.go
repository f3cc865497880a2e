package service

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"inkwell/internal/errors"
	"inkwell/internal/model"
	"inkwell/internal/repository"
)

// FollowService manages the social graph.
type FollowService interface {
	// Follow creates the edge actor → username. Following an already
	// followed user is a no-op.
	Follow(ctx context.Context, actor *model.User, username string) error
	// Unfollow removes the edge; removing a missing edge is a no-op.
	Unfollow(ctx context.Context, actor *model.User, username string) error
	IsFollowing(ctx context.Context, followerID, followedID uint) (bool, error)
	IsFollowedBy(ctx context.Context, userID, followerID uint) (bool, error)
	Followers(ctx context.Context, username string, page, perPage int) ([]model.Follow, int64, error)
	Following(ctx context.Context, username string, page, perPage int) ([]model.Follow, int64, error)
	// AddSelfFollows backfills self-follow edges for users created
	// before the bootstrap became automatic.
	AddSelfFollows(ctx context.Context) (int, error)
}

type followService struct {
	follows repository.FollowRepository
	users   repository.UserRepository
}

// NewFollowService creates a new follow service.
func NewFollowService(follows repository.FollowRepository, users repository.UserRepository) FollowService {
	return &followService{follows: follows, users: users}
}

func (s *followService) Follow(ctx context.Context, actor *model.User, username string) error {
	if err := requirePermission(actor, model.PermFollow); err != nil {
		return err
	}
	target, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.ErrUserNotFound
		}
		return err
	}
	if err := s.follows.Create(ctx, actor.ID, target.ID); err != nil {
		return fmt.Errorf("follow %s: %w", username, err)
	}
	return nil
}

func (s *followService) Unfollow(ctx context.Context, actor *model.User, username string) error {
	if err := requirePermission(actor, model.PermFollow); err != nil {
		return err
	}
	target, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.ErrUserNotFound
		}
		return err
	}
	if err := s.follows.Delete(ctx, actor.ID, target.ID); err != nil {
		return fmt.Errorf("unfollow %s: %w", username, err)
	}
	return nil
}

func (s *followService) IsFollowing(ctx context.Context, followerID, followedID uint) (bool, error) {
	return s.follows.Exists(ctx, followerID, followedID)
}

func (s *followService) IsFollowedBy(ctx context.Context, userID, followerID uint) (bool, error) {
	return s.follows.Exists(ctx, followerID, userID)
}

func (s *followService) Followers(ctx context.Context, username string, page, perPage int) ([]model.Follow, int64, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, 0, errors.ErrUserNotFound
		}
		return nil, 0, err
	}
	return s.follows.Followers(ctx, user.ID, page, perPage)
}

func (s *followService) Following(ctx context.Context, username string, page, perPage int) ([]model.Follow, int64, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, 0, errors.ErrUserNotFound
		}
		return nil, 0, err
	}
	return s.follows.Following(ctx, user.ID, page, perPage)
}

func (s *followService) AddSelfFollows(ctx context.Context) (int, error) {
	return s.follows.AddSelfFollows(ctx)
}
