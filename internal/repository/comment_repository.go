package repository

import (
	"context"

	"gorm.io/gorm"

	"inkwell/internal/model"
)

// CommentRepository defines persistence operations for comments.
type CommentRepository interface {
	Create(ctx context.Context, comment *model.Comment) error
	FindByID(ctx context.Context, id uint) (*model.Comment, error)
	// SetDisabled flips the moderation gate without touching the body.
	SetDisabled(ctx context.Context, id uint, disabled bool) error
	// ListByPost returns a post's comments in thread order (oldest first).
	ListByPost(ctx context.Context, postID uint, page, perPage int) ([]model.Comment, int64, error)
	CountByPost(ctx context.Context, postID uint) (int64, error)
	// ListPage returns all comments newest first, for moderation.
	ListPage(ctx context.Context, page, perPage int) ([]model.Comment, int64, error)
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository builds a GORM-backed repository.
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *model.Comment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

func (r *commentRepository) FindByID(ctx context.Context, id uint) (*model.Comment, error) {
	var comment model.Comment
	if err := r.db.WithContext(ctx).Preload("Author").First(&comment, id).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// SetDisabled uses UpdateColumn so the BeforeSave hook does not rewrite
// the body HTML of a struct that only carries a disabled flag.
func (r *commentRepository) SetDisabled(ctx context.Context, id uint, disabled bool) error {
	res := r.db.WithContext(ctx).Model(&model.Comment{}).
		Where("id = ?", id).
		UpdateColumn("disabled", disabled)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *commentRepository) ListByPost(ctx context.Context, postID uint, page, perPage int) ([]model.Comment, int64, error) {
	var (
		comments []model.Comment
		total    int64
	)
	q := r.db.WithContext(ctx).Model(&model.Comment{}).Where("post_id = ?", postID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Preload("Author").
		Order("created_at ASC").
		Offset(pageOffset(page, perPage)).Limit(perPage).
		Find(&comments).Error
	return comments, total, err
}

func (r *commentRepository) CountByPost(ctx context.Context, postID uint) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&model.Comment{}).
		Where("post_id = ?", postID).
		Count(&total).Error
	return total, err
}

func (r *commentRepository) ListPage(ctx context.Context, page, perPage int) ([]model.Comment, int64, error) {
	var (
		comments []model.Comment
		total    int64
	)
	if err := r.db.WithContext(ctx).Model(&model.Comment{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := r.db.WithContext(ctx).Preload("Author").
		Order("created_at DESC").
		Offset(pageOffset(page, perPage)).Limit(perPage).
		Find(&comments).Error
	return comments, total, err
}
