package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"inkwell/internal/auth"
	"inkwell/internal/captcha"
	"inkwell/internal/errors"
	"inkwell/internal/mail"
	"inkwell/internal/model"
	"inkwell/internal/repository"
	"inkwell/internal/token"
)

const bcryptCost = 10

// AccountService drives the account lifecycle: registration,
// confirmation, login, and the token-gated email/password flows.
type AccountService interface {
	Register(ctx context.Context, email, username, password string) (*model.User, error)
	// Login checks the visual verify code before the password. On
	// success it returns a signed session token.
	Login(ctx context.Context, email, password, codeID, code string) (string, *model.User, error)
	Confirm(ctx context.Context, user *model.User, tokenString string) error
	ResendConfirmation(ctx context.Context, user *model.User) error
	ChangePassword(ctx context.Context, user *model.User, oldPassword, newPassword string) error
	RequestEmailChange(ctx context.Context, user *model.User, newEmail, password string) error
	ConfirmEmailChange(ctx context.Context, user *model.User, tokenString string) error
	RequestPasswordReset(ctx context.Context, email string) error
	// ResetPassword requires the caller to resubmit the account email;
	// the token alone is not sufficient.
	ResetPassword(ctx context.Context, email, tokenString, newPassword string) error
	// Ping records last-seen activity, best effort.
	Ping(ctx context.Context, userID uint)
}

type accountService struct {
	users      repository.UserRepository
	roles      repository.RoleRepository
	follows    repository.FollowRepository
	codec      *token.Codec
	jwtService *auth.JWTService
	verifier   captcha.Verifier
	mailer     mail.Sender
	adminEmail string
}

// NewAccountService creates a new account service. adminEmail is the
// sentinel address that receives the all-bits role at registration.
func NewAccountService(
	users repository.UserRepository,
	roles repository.RoleRepository,
	follows repository.FollowRepository,
	codec *token.Codec,
	jwtService *auth.JWTService,
	verifier captcha.Verifier,
	mailer mail.Sender,
	adminEmail string,
) AccountService {
	return &accountService{
		users:      users,
		roles:      roles,
		follows:    follows,
		codec:      codec,
		jwtService: jwtService,
		verifier:   verifier,
		mailer:     mailer,
		adminEmail: adminEmail,
	}
}

// Register creates an unconfirmed user with a hashed password, resolves
// the default role, bootstraps the self-follow edge and sends the
// confirmation email. The uniqueness pre-checks are an optimization;
// the store's constraints are the real guarantee.
func (s *accountService) Register(ctx context.Context, email, username, password string) (*model.User, error) {
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, errors.ErrEmailTaken
	} else if err != gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if _, err := s.users.FindByUsername(ctx, username); err == nil {
		return nil, errors.ErrUsernameTaken
	} else if err != gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("check username: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	role, err := s.resolveRole(ctx, email)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &model.User{
		Email:        email,
		Username:     username,
		PasswordHash: string(hashed),
		RoleID:       role.ID,
		Role:         role,
		AvatarHash:   model.GravatarHash(email),
		MemberSince:  now,
		LastSeen:     now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if err == gorm.ErrDuplicatedKey {
			return nil, s.classifyDuplicate(ctx, email)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	if err := s.follows.Create(ctx, user.ID, user.ID); err != nil {
		return nil, fmt.Errorf("bootstrap self-follow: %w", err)
	}

	s.sendConfirmation(user)
	return user, nil
}

// classifyDuplicate resolves which unique constraint lost the race.
func (s *accountService) classifyDuplicate(ctx context.Context, email string) error {
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return errors.ErrEmailTaken
	}
	return errors.ErrUsernameTaken
}

// resolveRole runs exactly once, at creation: the admin sentinel email
// gets the all-bits role, everyone else the default role.
func (s *accountService) resolveRole(ctx context.Context, email string) (*model.Role, error) {
	if s.adminEmail != "" && email == s.adminEmail {
		role, err := s.roles.FindByPermissions(ctx, model.AllPermissions)
		if err == nil {
			return role, nil
		}
		if err != gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("find admin role: %w", err)
		}
	}
	role, err := s.roles.FindDefault(ctx)
	if err != nil {
		return nil, fmt.Errorf("find default role: %w", err)
	}
	return role, nil
}

func (s *accountService) sendConfirmation(user *model.User) {
	t, err := s.codec.Issue(token.PurposeConfirm, user.ID)
	if err != nil {
		log.Printf("issue confirmation token for user %d: %v", user.ID, err)
		return
	}
	s.mailer.Send(user.Email, "Confirm Your Account",
		fmt.Sprintf("Dear %s,\n\nTo confirm your account, use this token:\n\n%s\n", user.Username, t),
		fmt.Sprintf("<p>Dear %s,</p><p>To confirm your account, use this token:</p><pre>%s</pre>", user.Username, t))
}

// Login rejects on a wrong verify code before the password is even
// looked at. The code is single use.
func (s *accountService) Login(ctx context.Context, email, password, codeID, code string) (string, *model.User, error) {
	if !s.verifier.Verify(codeID, code) {
		return "", nil, errors.ErrWrongVerifyCode
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return "", nil, errors.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, errors.ErrInvalidCredentials
	}

	session, err := s.jwtService.GenerateSessionToken(user.ID, user.Username)
	if err != nil {
		return "", nil, fmt.Errorf("generate session token: %w", err)
	}

	s.Ping(ctx, user.ID)
	return session, user, nil
}

// Confirm flips the one-way unconfirmed → confirmed transition. An
// already-confirmed user confirming again is a no-op success.
func (s *accountService) Confirm(ctx context.Context, user *model.User, tokenString string) error {
	if user.Confirmed {
		return nil
	}
	uid, err := s.codec.Verify(tokenString, token.PurposeConfirm)
	if err != nil {
		return err
	}
	if uid != user.ID {
		return errors.ErrInvalidToken
	}
	user.Confirmed = true
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("confirm user %d: %w", user.ID, err)
	}
	return nil
}

func (s *accountService) ResendConfirmation(ctx context.Context, user *model.User) error {
	if user.Confirmed {
		return nil
	}
	s.sendConfirmation(user)
	return nil
}

func (s *accountService) ChangePassword(ctx context.Context, user *model.User, oldPassword, newPassword string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)); err != nil {
		return errors.ErrInvalidCredentials
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = string(hashed)
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// RequestEmailChange issues a token carrying the pending address and
// mails it to that address. The password gate keeps a hijacked session
// from silently rebinding the account.
func (s *accountService) RequestEmailChange(ctx context.Context, user *model.User, newEmail, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return errors.ErrInvalidCredentials
	}
	if _, err := s.users.FindByEmail(ctx, newEmail); err == nil {
		return errors.ErrEmailTaken
	} else if err != gorm.ErrRecordNotFound {
		return fmt.Errorf("check email: %w", err)
	}
	t, err := s.codec.IssueEmailChange(user.ID, newEmail)
	if err != nil {
		return fmt.Errorf("issue change-email token: %w", err)
	}
	s.mailer.Send(newEmail, "Confirm Your New Email Address",
		fmt.Sprintf("Dear %s,\n\nTo confirm your new email address, use this token:\n\n%s\n", user.Username, t),
		fmt.Sprintf("<p>Dear %s,</p><p>To confirm your new email address, use this token:</p><pre>%s</pre>", user.Username, t))
	return nil
}

// ConfirmEmailChange re-checks uniqueness at verification time; losing
// that race is indistinguishable from any other invalid token.
func (s *accountService) ConfirmEmailChange(ctx context.Context, user *model.User, tokenString string) error {
	uid, newEmail, err := s.codec.VerifyEmailChange(tokenString)
	if err != nil {
		return err
	}
	if uid != user.ID {
		return errors.ErrInvalidToken
	}
	if _, err := s.users.FindByEmail(ctx, newEmail); err == nil {
		return errors.ErrInvalidToken
	} else if err != gorm.ErrRecordNotFound {
		return fmt.Errorf("check email: %w", err)
	}
	user.Email = newEmail
	user.AvatarHash = model.GravatarHash(newEmail)
	if err := s.users.Update(ctx, user); err != nil {
		if err == gorm.ErrDuplicatedKey {
			return errors.ErrInvalidToken
		}
		return fmt.Errorf("update email: %w", err)
	}
	return nil
}

// RequestPasswordReset is deliberately silent about unknown addresses.
func (s *accountService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil
		}
		return fmt.Errorf("find user: %w", err)
	}
	t, err := s.codec.Issue(token.PurposeReset, user.ID)
	if err != nil {
		return fmt.Errorf("issue reset token: %w", err)
	}
	s.mailer.Send(user.Email, "Reset Your Password",
		fmt.Sprintf("Dear %s,\n\nTo reset your password, use this token:\n\n%s\n", user.Username, t),
		fmt.Sprintf("<p>Dear %s,</p><p>To reset your password, use this token:</p><pre>%s</pre>", user.Username, t))
	return nil
}

// ResetPassword validates the resubmitted email against the token
// subject before accepting the new password. Wrong email leaves the
// password unchanged.
func (s *accountService) ResetPassword(ctx context.Context, email, tokenString, newPassword string) error {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return errors.ErrInvalidToken
	}
	uid, err := s.codec.Verify(tokenString, token.PurposeReset)
	if err != nil {
		return err
	}
	if uid != user.ID {
		return errors.ErrInvalidToken
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = string(hashed)
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// Ping must not fail the request when the store hiccups.
func (s *accountService) Ping(ctx context.Context, userID uint) {
	if err := s.users.UpdateLastSeen(ctx, userID, time.Now()); err != nil {
		log.Printf("update last_seen for user %d: %v", userID, err)
	}
}
