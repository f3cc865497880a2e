package service

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"inkwell/internal/errors"
	"inkwell/internal/model"
	"inkwell/internal/repository"
)

// CommentService handles replies and the moderation gate.
type CommentService interface {
	Create(ctx context.Context, author *model.User, postID uint, body string) (*model.Comment, error)
	// ListByPost returns a post's thread oldest first. page -1 means
	// the last page, so a fresh comment is visible right away.
	ListByPost(ctx context.Context, postID uint, page, perPage int) ([]model.Comment, int64, int, error)
	// Moderate lists every comment newest first, disabled included.
	Moderate(ctx context.Context, actor *model.User, page, perPage int) ([]model.Comment, int64, error)
	SetDisabled(ctx context.Context, actor *model.User, commentID uint, disabled bool) error
}

type commentService struct {
	comments repository.CommentRepository
	posts    repository.PostRepository
}

// NewCommentService creates a new comment service.
func NewCommentService(comments repository.CommentRepository, posts repository.PostRepository) CommentService {
	return &commentService{comments: comments, posts: posts}
}

func (s *commentService) Create(ctx context.Context, author *model.User, postID uint, body string) (*model.Comment, error) {
	if err := requirePermission(author, model.PermComment); err != nil {
		return nil, err
	}
	if _, err := s.posts.FindByID(ctx, postID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrPostNotFound
		}
		return nil, err
	}
	comment := &model.Comment{
		Body:     body,
		AuthorID: author.ID,
		PostID:   postID,
		Author:   author,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return comment, nil
}

func (s *commentService) ListByPost(ctx context.Context, postID uint, page, perPage int) ([]model.Comment, int64, int, error) {
	if page == -1 {
		total, err := s.comments.CountByPost(ctx, postID)
		if err != nil {
			return nil, 0, 0, err
		}
		page = int(total-1)/perPage + 1
		if page < 1 {
			page = 1
		}
	}
	comments, total, err := s.comments.ListByPost(ctx, postID, page, perPage)
	return comments, total, page, err
}

func (s *commentService) Moderate(ctx context.Context, actor *model.User, page, perPage int) ([]model.Comment, int64, error) {
	if err := requirePermission(actor, model.PermModerateComments); err != nil {
		return nil, 0, err
	}
	return s.comments.ListPage(ctx, page, perPage)
}

func (s *commentService) SetDisabled(ctx context.Context, actor *model.User, commentID uint, disabled bool) error {
	if err := requirePermission(actor, model.PermModerateComments); err != nil {
		return err
	}
	if err := s.comments.SetDisabled(ctx, commentID, disabled); err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.ErrCommentNotFound
		}
		return fmt.Errorf("set comment %d disabled=%t: %w", commentID, disabled, err)
	}
	return nil
}
