package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"inkwell/internal/errors"
	"inkwell/internal/model"
)

func followerUser() *model.User {
	return &model.User{
		ID:       1,
		Username: "alice",
		Role:     &model.Role{Permissions: model.PermFollow | model.PermComment | model.PermWriteArticles},
	}
}

func TestFollowService_Follow(t *testing.T) {
	t.Run("creates the edge", func(t *testing.T) {
		users := new(MockUserRepository)
		users.On("FindByUsername", mock.Anything, "bob").Return(&model.User{ID: 2, Username: "bob"}, nil)
		follows := new(MockFollowRepository)
		follows.On("Create", mock.Anything, uint(1), uint(2)).Return(nil)

		svc := NewFollowService(follows, users)
		assert.NoError(t, svc.Follow(context.Background(), followerUser(), "bob"))
		follows.AssertExpectations(t)
	})

	t.Run("missing follow permission fails closed", func(t *testing.T) {
		follows := new(MockFollowRepository)
		svc := NewFollowService(follows, new(MockUserRepository))

		nobody := &model.User{ID: 1, Role: &model.Role{Permissions: 0}}
		assert.ErrorIs(t, svc.Follow(context.Background(), nobody, "bob"), errors.ErrForbidden)
		follows.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("following twice leaves one edge", func(t *testing.T) {
		users := new(MockUserRepository)
		users.On("FindByUsername", mock.Anything, "bob").Return(&model.User{ID: 2, Username: "bob"}, nil)
		follows := new(MockFollowRepository)
		// The repository swallows the duplicate-key insert.
		follows.On("Create", mock.Anything, uint(1), uint(2)).Return(nil).Twice()

		svc := NewFollowService(follows, users)
		assert.NoError(t, svc.Follow(context.Background(), followerUser(), "bob"))
		assert.NoError(t, svc.Follow(context.Background(), followerUser(), "bob"))
		follows.AssertExpectations(t)
	})
}

func TestFollowService_Unfollow(t *testing.T) {
	users := new(MockUserRepository)
	users.On("FindByUsername", mock.Anything, "bob").Return(&model.User{ID: 2, Username: "bob"}, nil)
	follows := new(MockFollowRepository)
	// Deleting an absent edge is a no-op for the store as well.
	follows.On("Delete", mock.Anything, uint(1), uint(2)).Return(nil)

	svc := NewFollowService(follows, users)
	assert.NoError(t, svc.Unfollow(context.Background(), followerUser(), "bob"))
	follows.AssertExpectations(t)
}

func TestFollowService_Directions(t *testing.T) {
	follows := new(MockFollowRepository)
	follows.On("Exists", mock.Anything, uint(1), uint(2)).Return(true, nil)
	follows.On("Exists", mock.Anything, uint(2), uint(1)).Return(false, nil)

	svc := NewFollowService(follows, new(MockUserRepository))

	following, err := svc.IsFollowing(context.Background(), 1, 2)
	assert.NoError(t, err)
	assert.True(t, following)

	followedBy, err := svc.IsFollowedBy(context.Background(), 1, 2)
	assert.NoError(t, err)
	assert.False(t, followedBy)
}

func TestFollowService_AddSelfFollows(t *testing.T) {
	follows := new(MockFollowRepository)
	follows.On("AddSelfFollows", mock.Anything).Return(3, nil)

	svc := NewFollowService(follows, new(MockUserRepository))
	added, err := svc.AddSelfFollows(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 3, added)
}
