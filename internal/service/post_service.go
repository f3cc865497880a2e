package service

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"inkwell/internal/errors"
	"inkwell/internal/model"
	"inkwell/internal/repository"
)

// PostService handles authoring and the two feeds.
type PostService interface {
	Create(ctx context.Context, author *model.User, body string) (*model.Post, error)
	Get(ctx context.Context, id uint) (*model.Post, error)
	// Edit requires ownership or the superuser bit.
	Edit(ctx context.Context, actor *model.User, postID uint, body string) (*model.Post, error)
	Delete(ctx context.Context, actor *model.User, postID uint) error
	// Feed returns all posts, or only posts from followed authors when
	// followedOnly is set. Self-follow makes the followed feed include
	// the viewer's own posts.
	Feed(ctx context.Context, viewer *model.User, followedOnly bool, page, perPage int) ([]model.Post, int64, error)
	ByAuthor(ctx context.Context, username string, page, perPage int) ([]model.Post, int64, error)
}

type postService struct {
	posts repository.PostRepository
	users repository.UserRepository
}

// NewPostService creates a new post service.
func NewPostService(posts repository.PostRepository, users repository.UserRepository) PostService {
	return &postService{posts: posts, users: users}
}

func (s *postService) Create(ctx context.Context, author *model.User, body string) (*model.Post, error) {
	if err := requirePermission(author, model.PermWriteArticles); err != nil {
		return nil, err
	}
	post := &model.Post{
		Body:     body,
		AuthorID: author.ID,
		Author:   author,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return post, nil
}

func (s *postService) Get(ctx context.Context, id uint) (*model.Post, error) {
	post, err := s.posts.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrPostNotFound
		}
		return nil, err
	}
	return post, nil
}

func (s *postService) Edit(ctx context.Context, actor *model.User, postID uint, body string) (*model.Post, error) {
	post, err := s.Get(ctx, postID)
	if err != nil {
		return nil, err
	}
	if err := requireOwnerOrAdmin(actor, post.AuthorID); err != nil {
		return nil, err
	}
	post.Body = body
	if err := s.posts.Update(ctx, post); err != nil {
		return nil, fmt.Errorf("update post %d: %w", postID, err)
	}
	return post, nil
}

// Delete removes the post; its comments go with it at the store level.
func (s *postService) Delete(ctx context.Context, actor *model.User, postID uint) error {
	post, err := s.Get(ctx, postID)
	if err != nil {
		return err
	}
	if err := requireOwnerOrAdmin(actor, post.AuthorID); err != nil {
		return err
	}
	if err := s.posts.Delete(ctx, postID); err != nil {
		return fmt.Errorf("delete post %d: %w", postID, err)
	}
	return nil
}

func (s *postService) Feed(ctx context.Context, viewer *model.User, followedOnly bool, page, perPage int) ([]model.Post, int64, error) {
	if followedOnly && viewer != nil {
		return s.posts.ListFollowed(ctx, viewer.ID, page, perPage)
	}
	return s.posts.ListPage(ctx, page, perPage)
}

func (s *postService) ByAuthor(ctx context.Context, username string, page, perPage int) ([]model.Post, int64, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, 0, errors.ErrUserNotFound
		}
		return nil, 0, err
	}
	return s.posts.ListByAuthor(ctx, user.ID, page, perPage)
}
