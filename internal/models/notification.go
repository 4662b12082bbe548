package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Notification type tags
const (
	NotificationOfferReceived        = "offer_received"
	NotificationOfferAccepted        = "offer_accepted"
	NotificationOfferRejected        = "offer_rejected"
	NotificationTransactionCompleted = "transaction_completed"
)

// Notification severities
const (
	SeveritySuccess = "success"
	SeverityInfo    = "info"
	SeverityWarning = "warning"
	SeverityError   = "error"
)

// NotificationDB is an append-only per-user message emitted by the lifecycle
// engine. Only the read flag ever mutates.
type NotificationDB struct {
	NotificationID uuid.UUID       `json:"notification_id" db:"notification_id"` // Primary key
	UserID         uuid.UUID       `json:"user_id" db:"user_id"`                 // Recipient
	Type           string          `json:"type" db:"type"`                       // Type tag, e.g. offer_accepted
	Title          string          `json:"title" db:"title"`
	Message        string          `json:"message" db:"message"`
	Severity       string          `json:"severity" db:"severity"` // success, info, warning or error
	Source         string          `json:"source" db:"source"`     // Emitting component
	Payload        json.RawMessage `json:"payload" db:"payload"`   // Denormalized references (transaction id, offer id, amount, link)
	Read           bool            `json:"read" db:"read"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
}

// NotificationPayload is the free-form payload attached to a notification
type NotificationPayload struct {
	TransactionID uuid.UUID  `json:"transaction_id"`
	OfferID       *uuid.UUID `json:"offer_id,omitempty"`
	Amount        *float64   `json:"amount,omitempty"`
	Link          string     `json:"link,omitempty"`
}
