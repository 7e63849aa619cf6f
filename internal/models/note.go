package models

import (
	"errors"
	"strings"
	"time"
)

// Note is a free-text entry on the SFM board.
type Note struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Category  Category  `gorm:"type:varchar(32);index;not null" json:"category"`
	Content   string    `gorm:"not null" json:"content"`
	Author    string    `json:"author,omitempty"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// TableName returns the table name for GORM.
func (Note) TableName() string { return "notes" }

var (
	ErrEmptyContent   = errors.New("content cannot be empty")
	ErrContentTooLong = errors.New("content exceeds maximum length")
)

// MaxNoteLength bounds note content.
const MaxNoteLength = 8192

// Normalize trims text.
func (n *Note) Normalize() {
	n.Content = strings.TrimSpace(n.Content)
	n.Author = strings.TrimSpace(n.Author)
	n.Category = Category(strings.ToLower(strings.TrimSpace(string(n.Category))))
}

// Validate checks if the note is complete.
func (n *Note) Validate() error {
	if n.Content == "" {
		return ErrEmptyContent
	}
	if len(n.Content) > MaxNoteLength {
		return ErrContentTooLong
	}
	if !n.Category.IsValid() {
		return ErrInvalidCategory
	}
	return nil
}
