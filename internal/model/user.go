package model

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// User represents a registered (possibly unconfirmed) member.
type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Email        string    `json:"email" gorm:"uniqueIndex;size:64;not null"`
	Username     string    `json:"username" gorm:"uniqueIndex;size:64;not null"`
	PasswordHash string    `json:"-" gorm:"size:255;not null"` // Never expose in JSON
	Confirmed    bool      `json:"confirmed" gorm:"default:false"`
	RoleID       uint      `json:"-" gorm:"index"`
	Name         string    `json:"name" gorm:"size:64"`
	Location     string    `json:"location" gorm:"size:64"`
	AboutMe      string    `json:"about_me" gorm:"type:text"`
	MemberSince  time.Time `json:"member_since"`
	LastSeen     time.Time `json:"last_seen"`
	AvatarHash   string    `json:"-" gorm:"size:32"`

	// Relations
	Role *Role `json:"role,omitempty" gorm:"foreignKey:RoleID"`
}

// Can reports whether the user's role grants every bit in p.
func (u *User) Can(p Permission) bool {
	return u != nil && u.Role.Can(p)
}

// IsAdministrator reports whether the user holds the superuser bit.
func (u *User) IsAdministrator() bool {
	return u.Can(PermAdminister)
}

// AvatarURL returns a Gravatar URL for the user, sized in pixels.
// The scheme follows the transport the request arrived on.
func (u *User) AvatarURL(secure bool, size int) string {
	base := "http://www.gravatar.com/avatar"
	if secure {
		base = "https://secure.gravatar.com/avatar"
	}
	hash := u.AvatarHash
	if hash == "" {
		hash = GravatarHash(u.Email)
	}
	return fmt.Sprintf("%s/%s?s=%d&d=identicon&r=g", base, hash, size)
}

// GravatarHash returns the avatar hash for an email address.
// Recomputed whenever the email changes.
func GravatarHash(email string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	return hex.EncodeToString(sum[:])
}

// Identity is what authorization checks see: a real user or the
// anonymous caller, so call sites never branch on identity kind.
type Identity interface {
	Can(p Permission) bool
	IsAdministrator() bool
}

// AnonymousUser is the identity of unauthenticated requests. It holds
// no permissions.
type AnonymousUser struct{}

func (AnonymousUser) Can(Permission) bool   { return false }
func (AnonymousUser) IsAdministrator() bool { return false }

// Follow is a directed edge in the social graph. Every user keeps a
// self-follow edge so the followed-posts join includes their own posts.
type Follow struct {
	FollowerID uint      `json:"follower_id" gorm:"primaryKey;autoIncrement:false"`
	FollowedID uint      `json:"followed_id" gorm:"primaryKey;autoIncrement:false"`
	CreatedAt  time.Time `json:"created_at"`

	// Relations
	Follower *User `json:"follower,omitempty" gorm:"foreignKey:FollowerID"`
	Followed *User `json:"followed,omitempty" gorm:"foreignKey:FollowedID"`
}
