package repository

import (
	"context"

	"gorm.io/gorm"

	"inkwell/internal/model"
)

// PostRepository defines persistence operations for posts.
type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	Update(ctx context.Context, post *model.Post) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*model.Post, error)
	// ListPage returns all posts, newest first.
	ListPage(ctx context.Context, page, perPage int) ([]model.Post, int64, error)
	// ListByAuthor returns one author's posts, newest first.
	ListByAuthor(ctx context.Context, authorID uint, page, perPage int) ([]model.Post, int64, error)
	// ListFollowed returns posts whose author is followed by userID.
	// Self-follow edges make this include the user's own posts.
	ListFollowed(ctx context.Context, userID uint, page, perPage int) ([]model.Post, int64, error)
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository builds a GORM-backed repository.
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *model.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *postRepository) Update(ctx context.Context, post *model.Post) error {
	return r.db.WithContext(ctx).Save(post).Error
}

func (r *postRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&model.Post{}, id).Error
}

func (r *postRepository) FindByID(ctx context.Context, id uint) (*model.Post, error) {
	var post model.Post
	if err := r.db.WithContext(ctx).Preload("Author").First(&post, id).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) ListPage(ctx context.Context, page, perPage int) ([]model.Post, int64, error) {
	var (
		posts []model.Post
		total int64
	)
	if err := r.db.WithContext(ctx).Model(&model.Post{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := r.db.WithContext(ctx).Preload("Author").
		Order("created_at DESC").
		Offset(pageOffset(page, perPage)).Limit(perPage).
		Find(&posts).Error
	return posts, total, err
}

func (r *postRepository) ListByAuthor(ctx context.Context, authorID uint, page, perPage int) ([]model.Post, int64, error) {
	var (
		posts []model.Post
		total int64
	)
	q := r.db.WithContext(ctx).Model(&model.Post{}).Where("author_id = ?", authorID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Preload("Author").
		Order("created_at DESC").
		Offset(pageOffset(page, perPage)).Limit(perPage).
		Find(&posts).Error
	return posts, total, err
}

func (r *postRepository) ListFollowed(ctx context.Context, userID uint, page, perPage int) ([]model.Post, int64, error) {
	var (
		posts []model.Post
		total int64
	)
	base := r.db.WithContext(ctx).Model(&model.Post{}).
		Joins("JOIN follows ON follows.followed_id = posts.author_id").
		Where("follows.follower_id = ?", userID)
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := base.Preload("Author").
		Order("posts.created_at DESC").
		Offset(pageOffset(page, perPage)).Limit(perPage).
		Find(&posts).Error
	return posts, total, err
}
