package models

import (
	"time"

	"github.com/google/uuid"
)

// UserDB represents a user record in the database
type UserDB struct {
	ID                uuid.UUID `json:"id" db:"id"`                 // Primary key
	Name              string    `json:"name" db:"name"`             // Display name
	Email             string    `json:"email" db:"email"`           // Unique, compared case-insensitively
	Salt              string    `json:"-" db:"salt"`                // Per-user random salt
	EncryptedPassword string    `json:"-" db:"encrypted_password"`  // SecureHash(salt--password)
	Admin             bool      `json:"admin" db:"admin"`           // Administrator flag
	CreatedAt         time.Time `json:"created_at" db:"created_at"` // Creation timestamp
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"` // Last update timestamp
}

// UserStats holds the counters shown next to a profile.
type UserStats struct {
	Microposts int `json:"microposts"`
	Following  int `json:"following"`
	Followers  int `json:"followers"`
}
