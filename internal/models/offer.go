package models

import (
	"time"

	"github.com/google/uuid"
)

// Offer status values. Exactly one offer per transaction moves open -> won;
// its siblings move open -> lost in the same unit of work.
const (
	OfferOpen = "open"
	OfferWon  = "won"
	OfferLost = "lost"
)

// OfferDB represents one user's bid against a transaction
type OfferDB struct {
	OfferID       uuid.UUID  `json:"offer_id" db:"offer_id"`                           // Primary key
	TransactionID uuid.UUID  `json:"transaction_id" db:"transaction_id"`               // Transaction the offer bids on
	UserID        uuid.UUID  `json:"user_id" db:"user_id"`                             // Submitting user
	Amount        float64    `json:"amount" db:"amount"`                               // Offered amount
	Currency      string     `json:"currency" db:"currency"`                           // Offered currency code
	BankAccountID *uuid.UUID `json:"bank_account_id,omitempty" db:"bank_account_id"`   // Settlement reference, ctf side
	WalletAddress *string    `json:"wallet_address,omitempty" db:"wallet_address"`     // Settlement reference, ftc side
	ETAMinutes    int        `json:"eta_minutes" db:"eta_minutes"`                     // Promised settlement time
	Notes         *string    `json:"notes,omitempty" db:"notes"`
	Status        string     `json:"status" db:"status"` // open, won or lost
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}
