package model

import (
	"time"

	"gorm.io/gorm"

	"inkwell/internal/htmlx"
)

// Post is a user-authored article. BodyHTML is always derived from
// Body through the sanitizer and is never written directly.
type Post struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Body      string    `json:"body" gorm:"type:text;not null"`
	BodyHTML  string    `json:"body_html" gorm:"type:text"`
	AuthorID  uint      `json:"author_id" gorm:"not null;index"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Author *User `json:"author,omitempty" gorm:"foreignKey:AuthorID"`
}

// BeforeSave re-derives the sanitized HTML whenever the body is persisted.
func (p *Post) BeforeSave(tx *gorm.DB) error {
	p.BodyHTML = htmlx.RenderPost(p.Body)
	return nil
}

// Comment is a reply on a post. Disabled comments stay in storage but
// are hidden from moderated display.
type Comment struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Body      string    `json:"body" gorm:"type:text;not null"`
	BodyHTML  string    `json:"body_html" gorm:"type:text"`
	Disabled  bool      `json:"disabled" gorm:"default:false"`
	AuthorID  uint      `json:"author_id" gorm:"not null;index"`
	PostID    uint      `json:"post_id" gorm:"not null;index"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`

	// Relations
	Author *User `json:"author,omitempty" gorm:"foreignKey:AuthorID"`
	Post   *Post `json:"-" gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE"`
}

// BeforeSave re-derives the sanitized HTML whenever the body is persisted.
func (c *Comment) BeforeSave(tx *gorm.DB) error {
	c.BodyHTML = htmlx.RenderComment(c.Body)
	return nil
}
