package models

import (
	"time"

	"github.com/google/uuid"
)

// APIKeyDB represents an external API key record. The key itself is never
// stored: only its SHA-256 hash and a short display prefix.
type APIKeyDB struct {
	KeyID     uuid.UUID `json:"key_id" db:"key_id"`         // Primary key
	UserID    uuid.UUID `json:"user_id" db:"user_id"`       // Key owner
	KeyHash   string    `json:"-" db:"key_hash"`            // Hex SHA-256 of the full key
	Prefix    string    `json:"prefix" db:"prefix"`         // First 11 characters, for display
	Active    bool      `json:"active" db:"active"`         // Revoked keys stay in the table inactive
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
