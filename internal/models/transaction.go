package models

import (
	"time"

	"github.com/google/uuid"
)

// Transaction status values. A transaction only ever moves forward:
// pending -> offer_made -> escrow -> completed, with failed reachable
// from any non-terminal state.
const (
	StatusPending   = "pending"
	StatusOfferMade = "offer_made"
	StatusEscrow    = "escrow"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Trade types
const (
	TradeBuy  = "buy"
	TradeSell = "sell"
)

// Trade directions: fiat-to-crypto and crypto-to-fiat
const (
	DirectionFTC = "ftc"
	DirectionCTF = "ctf"
)

// Settlement account placeholder for API-originated transactions
const SettlementExternal = "external"

// TransactionDB represents a trade request row in the database
type TransactionDB struct {
	TransactionID     uuid.UUID  `json:"transaction_id" db:"transaction_id"`           // Primary key
	Code              string     `json:"code" db:"code"`                               // Unique human-readable code
	UserID            uuid.UUID  `json:"user_id" db:"user_id"`                         // Owning user
	TradeType         string     `json:"trade_type" db:"trade_type"`                   // buy or sell
	Direction         string     `json:"direction" db:"direction"`                     // ftc or ctf
	Chain             string     `json:"chain" db:"chain"`                             // Target chain
	Token             string     `json:"token" db:"token"`                             // Token symbol
	Amount            float64    `json:"amount" db:"amount"`                           // Trade amount
	Currency          string     `json:"currency" db:"currency"`                       // Amount currency code
	SettlementAccount string     `json:"settlement_account" db:"settlement_account"`   // Bank account id or "external"
	WalletAddress     string     `json:"wallet_address" db:"wallet_address"`           // Destination wallet
	Status            string     `json:"status" db:"status"`                           // Lifecycle status
	WinnerUserID      *uuid.UUID `json:"winner_user_id,omitempty" db:"winner_user_id"` // Accepted offer's user, nil before escrow
	ProofUploaded     bool       `json:"proof_uploaded" db:"proof_uploaded"`           // Payment proof flag, sell side only
	ProofFile         *string    `json:"proof_file,omitempty" db:"proof_file"`         // Uploaded proof file name
	ProofHash         *string    `json:"proof_hash,omitempty" db:"proof_hash"`         // Uploaded proof content hash, stored but not verified
	ClientAlias       *string    `json:"client_alias,omitempty" db:"client_alias"`     // Free-text client metadata
	KYCLink           *string    `json:"kyc_link,omitempty" db:"kyc_link"`
	Notes             *string    `json:"notes,omitempty" db:"notes"`
	Origin            *string    `json:"origin,omitempty" db:"origin"`
	SLAMinutes        *int       `json:"sla_minutes,omitempty" db:"sla_minutes"`
	OfferedAt         *time.Time `json:"offered_at,omitempty" db:"offered_at"`     // Set once, on the first offer
	ApprovedAt        *time.Time `json:"approved_at,omitempty" db:"approved_at"`   // Set once, on accept
	CompletedAt       *time.Time `json:"completed_at,omitempty" db:"completed_at"` // Set once, on validate
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at" db:"updated_at"`
}

// TransactionMetadataPatch carries the patchable free-text operator fields.
// Nil fields are left unchanged.
type TransactionMetadataPatch struct {
	ClientAlias *string
	KYCLink     *string
	Notes       *string
	Origin      *string
	SLAMinutes  *int
}

// TransactionFilter narrows transaction list queries
type TransactionFilter struct {
	UserID    *uuid.UUID // Owner filter
	TradeType *string    // buy or sell
	Status    *string    // Lifecycle status
	From      *time.Time // Created at or after
	To        *time.Time // Created at or before
}
