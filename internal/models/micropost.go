package models

import (
	"time"

	"github.com/google/uuid"
)

// MicropostMaxLength is the maximum number of characters in a micropost.
const MicropostMaxLength = 140

// MicropostDB represents a micropost row joined with its author.
type MicropostDB struct {
	ID          uuid.UUID `json:"id" db:"id"`
	UserID      uuid.UUID `json:"user_id" db:"user_id"`
	Content     string    `json:"content" db:"content"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
	AuthorName  string    `json:"author_name" db:"author_name"`
	AuthorEmail string    `json:"-" db:"author_email"`
}
