package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"inkwell/internal/auth"
	"inkwell/internal/errors"
	"inkwell/internal/model"
	"inkwell/internal/token"
)

const testAdminEmail = "admin@example.com"

func newTestRoles() (defaultRole, adminRole *model.Role) {
	defaultRole = &model.Role{
		ID:          1,
		Name:        "User",
		Default:     true,
		Permissions: model.PermFollow | model.PermComment | model.PermWriteArticles,
	}
	adminRole = &model.Role{ID: 3, Name: "Administrator", Permissions: model.AllPermissions}
	return defaultRole, adminRole
}

func newAccountService(
	users *MockUserRepository,
	roles *MockRoleRepository,
	follows *MockFollowRepository,
	verifier *MockVerifier,
	mailer *MockSender,
) AccountService {
	codec := token.NewCodec("test-secret", 0)
	return NewAccountService(users, roles, follows, codec,
		auth.NewJWTService("test-secret"), verifier, mailer, testAdminEmail)
}

func TestAccountService_Register(t *testing.T) {
	defaultRole, adminRole := newTestRoles()

	tests := []struct {
		name          string
		email         string
		username      string
		setupMocks    func(*MockUserRepository, *MockRoleRepository, *MockFollowRepository, *MockSender)
		wantRoleID    uint
		expectedError error
	}{
		{
			name:     "successful registration gets default role and self-follow",
			email:    "alice@example.com",
			username: "alice",
			setupMocks: func(users *MockUserRepository, roles *MockRoleRepository, follows *MockFollowRepository, mailer *MockSender) {
				users.On("FindByEmail", mock.Anything, "alice@example.com").Return(nil, gorm.ErrRecordNotFound)
				users.On("FindByUsername", mock.Anything, "alice").Return(nil, gorm.ErrRecordNotFound)
				roles.On("FindDefault", mock.Anything).Return(defaultRole, nil)
				users.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Run(func(args mock.Arguments) {
					args.Get(1).(*model.User).ID = 7
				}).Return(nil)
				follows.On("Create", mock.Anything, uint(7), uint(7)).Return(nil)
				mailer.On("Send", "alice@example.com", "Confirm Your Account", mock.Anything, mock.Anything).Return()
			},
			wantRoleID: defaultRole.ID,
		},
		{
			name:     "admin sentinel email gets all-bits role",
			email:    testAdminEmail,
			username: "root",
			setupMocks: func(users *MockUserRepository, roles *MockRoleRepository, follows *MockFollowRepository, mailer *MockSender) {
				users.On("FindByEmail", mock.Anything, testAdminEmail).Return(nil, gorm.ErrRecordNotFound)
				users.On("FindByUsername", mock.Anything, "root").Return(nil, gorm.ErrRecordNotFound)
				roles.On("FindByPermissions", mock.Anything, model.AllPermissions).Return(adminRole, nil)
				users.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Run(func(args mock.Arguments) {
					args.Get(1).(*model.User).ID = 1
				}).Return(nil)
				follows.On("Create", mock.Anything, uint(1), uint(1)).Return(nil)
				mailer.On("Send", testAdminEmail, "Confirm Your Account", mock.Anything, mock.Anything).Return()
			},
			wantRoleID: adminRole.ID,
		},
		{
			name:     "duplicate email",
			email:    "taken@example.com",
			username: "newuser",
			setupMocks: func(users *MockUserRepository, roles *MockRoleRepository, follows *MockFollowRepository, mailer *MockSender) {
				users.On("FindByEmail", mock.Anything, "taken@example.com").Return(&model.User{Email: "taken@example.com"}, nil)
			},
			expectedError: errors.ErrEmailTaken,
		},
		{
			name:     "duplicate username",
			email:    "fresh@example.com",
			username: "taken",
			setupMocks: func(users *MockUserRepository, roles *MockRoleRepository, follows *MockFollowRepository, mailer *MockSender) {
				users.On("FindByEmail", mock.Anything, "fresh@example.com").Return(nil, gorm.ErrRecordNotFound)
				users.On("FindByUsername", mock.Anything, "taken").Return(&model.User{Username: "taken"}, nil)
			},
			expectedError: errors.ErrUsernameTaken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(MockUserRepository)
			roles := new(MockRoleRepository)
			follows := new(MockFollowRepository)
			verifier := new(MockVerifier)
			mailer := new(MockSender)
			tt.setupMocks(users, roles, follows, mailer)

			svc := newAccountService(users, roles, follows, verifier, mailer)
			user, err := svc.Register(context.Background(), tt.email, tt.username, "password123")

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, user)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.wantRoleID, user.RoleID)
				assert.False(t, user.Confirmed)
				assert.NotEqual(t, "password123", user.PasswordHash)
				assert.Equal(t, model.GravatarHash(tt.email), user.AvatarHash)
			}
			users.AssertExpectations(t)
			roles.AssertExpectations(t)
			follows.AssertExpectations(t)
			mailer.AssertExpectations(t)
		})
	}
}

func TestAccountService_Login_WrongVerifyCodeRejectsBeforePassword(t *testing.T) {
	users := new(MockUserRepository)
	verifier := new(MockVerifier)
	verifier.On("Verify", "code-id", "abcd").Return(false)

	svc := newAccountService(users, new(MockRoleRepository), new(MockFollowRepository), verifier, new(MockSender))
	_, _, err := svc.Login(context.Background(), "alice@example.com", "password123", "code-id", "abcd")

	assert.ErrorIs(t, err, errors.ErrWrongVerifyCode)
	users.AssertNotCalled(t, "FindByEmail", mock.Anything, mock.Anything)
}

func TestAccountService_Login(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcryptCost)
	assert.NoError(t, err)
	stored := &model.User{ID: 7, Email: "alice@example.com", Username: "alice", PasswordHash: string(hash)}

	t.Run("successful login returns session token", func(t *testing.T) {
		users := new(MockUserRepository)
		users.On("FindByEmail", mock.Anything, "alice@example.com").Return(stored, nil)
		users.On("UpdateLastSeen", mock.Anything, uint(7), mock.Anything).Return(nil)
		verifier := new(MockVerifier)
		verifier.On("Verify", "code-id", "abcd").Return(true)

		svc := newAccountService(users, new(MockRoleRepository), new(MockFollowRepository), verifier, new(MockSender))
		session, user, err := svc.Login(context.Background(), "alice@example.com", "password123", "code-id", "abcd")

		assert.NoError(t, err)
		assert.NotEmpty(t, session)
		assert.Equal(t, uint(7), user.ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		users := new(MockUserRepository)
		users.On("FindByEmail", mock.Anything, "alice@example.com").Return(stored, nil)
		verifier := new(MockVerifier)
		verifier.On("Verify", "code-id", "abcd").Return(true)

		svc := newAccountService(users, new(MockRoleRepository), new(MockFollowRepository), verifier, new(MockSender))
		_, _, err := svc.Login(context.Background(), "alice@example.com", "nope", "code-id", "abcd")

		assert.ErrorIs(t, err, errors.ErrInvalidCredentials)
	})

	t.Run("last-seen failure does not fail login", func(t *testing.T) {
		users := new(MockUserRepository)
		users.On("FindByEmail", mock.Anything, "alice@example.com").Return(stored, nil)
		users.On("UpdateLastSeen", mock.Anything, uint(7), mock.Anything).Return(assert.AnError)
		verifier := new(MockVerifier)
		verifier.On("Verify", "code-id", "abcd").Return(true)

		svc := newAccountService(users, new(MockRoleRepository), new(MockFollowRepository), verifier, new(MockSender))
		session, _, err := svc.Login(context.Background(), "alice@example.com", "password123", "code-id", "abcd")

		assert.NoError(t, err)
		assert.NotEmpty(t, session)
	})
}

func TestAccountService_Confirm(t *testing.T) {
	codec := token.NewCodec("test-secret", 0)

	t.Run("matching subject confirms and stays confirmed", func(t *testing.T) {
		users := new(MockUserRepository)
		users.On("Update", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil).Once()

		svc := NewAccountService(users, new(MockRoleRepository), new(MockFollowRepository), codec,
			auth.NewJWTService("test-secret"), new(MockVerifier), new(MockSender), "")

		user := &model.User{ID: 7}
		tok, err := codec.Issue(token.PurposeConfirm, 7)
		assert.NoError(t, err)

		assert.NoError(t, svc.Confirm(context.Background(), user, tok))
		assert.True(t, user.Confirmed)

		// Second verification of the same token is a no-op success.
		assert.NoError(t, svc.Confirm(context.Background(), user, tok))
		assert.True(t, user.Confirmed)
		users.AssertNumberOfCalls(t, "Update", 1)
	})

	t.Run("subject mismatch is an invalid token", func(t *testing.T) {
		users := new(MockUserRepository)
		svc := NewAccountService(users, new(MockRoleRepository), new(MockFollowRepository), codec,
			auth.NewJWTService("test-secret"), new(MockVerifier), new(MockSender), "")

		user := &model.User{ID: 7}
		tok, err := codec.Issue(token.PurposeConfirm, 8)
		assert.NoError(t, err)

		assert.ErrorIs(t, svc.Confirm(context.Background(), user, tok), errors.ErrInvalidToken)
		assert.False(t, user.Confirmed)
		users.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("reset token is not a confirm token", func(t *testing.T) {
		users := new(MockUserRepository)
		svc := NewAccountService(users, new(MockRoleRepository), new(MockFollowRepository), codec,
			auth.NewJWTService("test-secret"), new(MockVerifier), new(MockSender), "")

		user := &model.User{ID: 7}
		tok, err := codec.Issue(token.PurposeReset, 7)
		assert.NoError(t, err)

		assert.ErrorIs(t, svc.Confirm(context.Background(), user, tok), errors.ErrInvalidToken)
	})
}

func TestAccountService_ResetPassword(t *testing.T) {
	codec := token.NewCodec("test-secret", 0)
	hash, err := bcrypt.GenerateFromPassword([]byte("oldpass"), bcryptCost)
	assert.NoError(t, err)

	bob := func() *model.User {
		return &model.User{ID: 3, Email: "bob@example.com", Username: "bob", PasswordHash: string(hash)}
	}

	t.Run("matching email rewrites the password", func(t *testing.T) {
		user := bob()
		users := new(MockUserRepository)
		users.On("FindByEmail", mock.Anything, "bob@example.com").Return(user, nil)
		users.On("Update", mock.Anything, user).Return(nil)

		svc := NewAccountService(users, new(MockRoleRepository), new(MockFollowRepository), codec,
			auth.NewJWTService("test-secret"), new(MockVerifier), new(MockSender), "")

		tok, err := codec.Issue(token.PurposeReset, 3)
		assert.NoError(t, err)

		assert.NoError(t, svc.ResetPassword(context.Background(), "bob@example.com", tok, "newpass123"))
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("newpass123")))
	})

	t.Run("wrong email leaves the password unchanged", func(t *testing.T) {
		other := &model.User{ID: 9, Email: "mallory@example.com", PasswordHash: string(hash)}
		users := new(MockUserRepository)
		users.On("FindByEmail", mock.Anything, "mallory@example.com").Return(other, nil)

		svc := NewAccountService(users, new(MockRoleRepository), new(MockFollowRepository), codec,
			auth.NewJWTService("test-secret"), new(MockVerifier), new(MockSender), "")

		tok, err := codec.Issue(token.PurposeReset, 3)
		assert.NoError(t, err)

		assert.ErrorIs(t, svc.ResetPassword(context.Background(), "mallory@example.com", tok, "newpass123"),
			errors.ErrInvalidToken)
		assert.Equal(t, string(hash), other.PasswordHash)
		users.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})
}

func TestAccountService_ConfirmEmailChange(t *testing.T) {
	codec := token.NewCodec("test-secret", 0)

	t.Run("success reassigns email and avatar hash", func(t *testing.T) {
		user := &model.User{ID: 5, Email: "old@example.com", AvatarHash: model.GravatarHash("old@example.com")}
		users := new(MockUserRepository)
		users.On("FindByEmail", mock.Anything, "new@example.com").Return(nil, gorm.ErrRecordNotFound)
		users.On("Update", mock.Anything, user).Return(nil)

		svc := NewAccountService(users, new(MockRoleRepository), new(MockFollowRepository), codec,
			auth.NewJWTService("test-secret"), new(MockVerifier), new(MockSender), "")

		tok, err := codec.IssueEmailChange(5, "new@example.com")
		assert.NoError(t, err)

		assert.NoError(t, svc.ConfirmEmailChange(context.Background(), user, tok))
		assert.Equal(t, "new@example.com", user.Email)
		assert.Equal(t, model.GravatarHash("new@example.com"), user.AvatarHash)
	})

	t.Run("address claimed since issue collapses into invalid token", func(t *testing.T) {
		user := &model.User{ID: 5, Email: "old@example.com"}
		users := new(MockUserRepository)
		users.On("FindByEmail", mock.Anything, "new@example.com").Return(&model.User{ID: 6}, nil)

		svc := NewAccountService(users, new(MockRoleRepository), new(MockFollowRepository), codec,
			auth.NewJWTService("test-secret"), new(MockVerifier), new(MockSender), "")

		tok, err := codec.IssueEmailChange(5, "new@example.com")
		assert.NoError(t, err)

		assert.ErrorIs(t, svc.ConfirmEmailChange(context.Background(), user, tok), errors.ErrInvalidToken)
		assert.Equal(t, "old@example.com", user.Email)
	})
}
