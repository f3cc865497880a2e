package repository

import (
	"context"

	"gorm.io/gorm"

	"inkwell/internal/model"
)

// FollowRepository defines persistence operations for follow edges.
type FollowRepository interface {
	// Create inserts the edge if absent; inserting an existing edge is
	// a no-op, the composite key makes it idempotent.
	Create(ctx context.Context, followerID, followedID uint) error
	Delete(ctx context.Context, followerID, followedID uint) error
	Exists(ctx context.Context, followerID, followedID uint) (bool, error)
	// Followers lists edges pointing at userID, newest first, with the
	// follower user preloaded.
	Followers(ctx context.Context, userID uint, page, perPage int) ([]model.Follow, int64, error)
	// Following lists edges originating from userID with the followed
	// user preloaded.
	Following(ctx context.Context, userID uint, page, perPage int) ([]model.Follow, int64, error)
	// AddSelfFollows creates the missing self-follow edge for every
	// user that predates automatic bootstrapping.
	AddSelfFollows(ctx context.Context) (int, error)
}

type followRepository struct {
	db *gorm.DB
}

// NewFollowRepository builds a GORM-backed repository.
func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &followRepository{db: db}
}

func (r *followRepository) Create(ctx context.Context, followerID, followedID uint) error {
	edge := model.Follow{FollowerID: followerID, FollowedID: followedID}
	err := r.db.WithContext(ctx).Create(&edge).Error
	if err == gorm.ErrDuplicatedKey {
		return nil
	}
	return err
}

func (r *followRepository) Delete(ctx context.Context, followerID, followedID uint) error {
	return r.db.WithContext(ctx).
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		Delete(&model.Follow{}).Error
}

func (r *followRepository) Exists(ctx context.Context, followerID, followedID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Follow{}).
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		Count(&count).Error
	return count > 0, err
}

func (r *followRepository) Followers(ctx context.Context, userID uint, page, perPage int) ([]model.Follow, int64, error) {
	var (
		edges []model.Follow
		total int64
	)
	q := r.db.WithContext(ctx).Model(&model.Follow{}).Where("followed_id = ?", userID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Preload("Follower").
		Order("created_at DESC").
		Offset(pageOffset(page, perPage)).Limit(perPage).
		Find(&edges).Error
	return edges, total, err
}

func (r *followRepository) Following(ctx context.Context, userID uint, page, perPage int) ([]model.Follow, int64, error) {
	var (
		edges []model.Follow
		total int64
	)
	q := r.db.WithContext(ctx).Model(&model.Follow{}).Where("follower_id = ?", userID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Preload("Followed").
		Order("created_at DESC").
		Offset(pageOffset(page, perPage)).Limit(perPage).
		Find(&edges).Error
	return edges, total, err
}

func (r *followRepository) AddSelfFollows(ctx context.Context) (int, error) {
	var users []model.User
	sub := r.db.Model(&model.Follow{}).
		Select("follower_id").
		Where("follower_id = followed_id")
	if err := r.db.WithContext(ctx).Where("id NOT IN (?)", sub).Find(&users).Error; err != nil {
		return 0, err
	}
	for _, u := range users {
		if err := r.Create(ctx, u.ID, u.ID); err != nil {
			return 0, err
		}
	}
	return len(users), nil
}

// pageOffset clamps page to 1-based and converts it to a row offset.
func pageOffset(page, perPage int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * perPage
}
