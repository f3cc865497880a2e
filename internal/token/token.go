// Package token issues and verifies the signed, expiring capability
// tokens used by the account lifecycle: confirmation links, password
// resets and email changes. A token is a bearer credential, never
// persisted; the signature and expiry are the only state.
package token

import (
	goerrors "errors"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"inkwell/internal/errors"
)

// Purpose tags a token with the single operation it authorizes.
type Purpose string

const (
	PurposeConfirm     Purpose = "confirm"
	PurposeReset       Purpose = "reset"
	PurposeChangeEmail Purpose = "change_email"
)

// DefaultTTL applies when no explicit TTL is configured.
const DefaultTTL = time.Hour

type claims struct {
	Purpose  string `json:"purpose"`
	UserID   uint   `json:"user_id"`
	NewEmail string `json:"new_email,omitempty"`
	jwt.RegisteredClaims
}

// Codec signs and verifies lifecycle tokens with a process-wide secret.
type Codec struct {
	secret []byte
	ttl    time.Duration
}

// NewCodec creates a codec. A non-positive ttl falls back to DefaultTTL.
func NewCodec(secret string, ttl time.Duration) *Codec {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Codec{secret: []byte(secret), ttl: ttl}
}

// Issue returns a signed token for the given purpose and subject,
// valid for the codec's TTL.
func (c *Codec) Issue(purpose Purpose, userID uint) (string, error) {
	return c.IssueTTL(purpose, userID, "", c.ttl)
}

// IssueEmailChange returns a change-email token carrying the pending
// address alongside the subject.
func (c *Codec) IssueEmailChange(userID uint, newEmail string) (string, error) {
	return c.IssueTTL(PurposeChangeEmail, userID, newEmail, c.ttl)
}

// IssueTTL is Issue with an explicit validity window.
func (c *Codec) IssueTTL(purpose Purpose, userID uint, newEmail string, ttl time.Duration) (string, error) {
	now := time.Now()
	cl := &claims{
		Purpose:  string(purpose),
		UserID:   userID,
		NewEmail: newEmail,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, cl)
	return t.SignedString(c.secret)
}

// Verify checks signature, expiry and purpose and returns the subject
// user id. Every failure mode collapses into errors.ErrInvalidToken so
// callers cannot distinguish (and cannot be made an oracle for) why a
// token was rejected.
func (c *Codec) Verify(tokenString string, purpose Purpose) (uint, error) {
	cl, err := c.parse(tokenString, purpose)
	if err != nil {
		return 0, err
	}
	return cl.UserID, nil
}

// VerifyEmailChange is Verify for change-email tokens; it also returns
// the pending address.
func (c *Codec) VerifyEmailChange(tokenString string) (uint, string, error) {
	cl, err := c.parse(tokenString, PurposeChangeEmail)
	if err != nil {
		return 0, "", err
	}
	if cl.NewEmail == "" {
		return 0, "", errors.ErrInvalidToken
	}
	return cl.UserID, cl.NewEmail, nil
}

func (c *Codec) parse(tokenString string, purpose Purpose) (*claims, error) {
	t, err := jwt.ParseWithClaims(tokenString, &claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, goerrors.New("unexpected signing method")
		}
		return c.secret, nil
	})
	if err != nil {
		return nil, errors.ErrInvalidToken
	}
	cl, ok := t.Claims.(*claims)
	if !ok || !t.Valid || cl.Purpose != string(purpose) {
		return nil, errors.ErrInvalidToken
	}
	return cl, nil
}
