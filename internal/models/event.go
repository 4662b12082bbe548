package models

import "github.com/google/uuid"

// Trade event names broadcast on the event bus and exported to Kafka
const (
	EventTransactionCreated   = "tx.created"
	EventOfferMade            = "tx.offer_made"
	EventTransactionAccepted  = "tx.accepted"
	EventTransactionUpdated   = "tx.updated"
	EventTransactionCompleted = "tx.completed"
)

// TradeEvent is the payload pushed to dashboard sessions after every state
// transition. Delivery is best-effort: clients reconstruct authoritative
// state by re-querying the store.
type TradeEvent struct {
	Event         string     `json:"event"`                    // Event name, e.g. tx.accepted
	TransactionID uuid.UUID  `json:"transaction_id"`           // Transaction the event refers to
	Code          string     `json:"code"`                     // Human-readable transaction code
	Status        string     `json:"status"`                   // Transaction status after the transition
	WinnerUserID  *uuid.UUID `json:"winner_user_id,omitempty"` // Set from tx.accepted onwards
	OfferID       *uuid.UUID `json:"offer_id,omitempty"`       // Offer involved in the transition, if any
	EmittedAt     int64      `json:"emitted_at"`               // Unix timestamp (seconds)
}
