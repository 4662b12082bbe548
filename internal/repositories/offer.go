package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/vudy/otc-desk/internal/logger"
	"github.com/vudy/otc-desk/internal/models"
)

// OfferWriterRepository handles offer write operations.
type OfferWriterRepository struct {
	db       *sqlx.DB
	txGetter func(ctx context.Context) *sqlx.Tx
}

// NewOfferWriterRepository creates an offer write repository.
func NewOfferWriterRepository(db *sqlx.DB, txGetter func(ctx context.Context) *sqlx.Tx) *OfferWriterRepository {
	return &OfferWriterRepository{db: db, txGetter: txGetter}
}

func (r *OfferWriterRepository) executor(ctx context.Context) sqlx.ExtContext {
	if r.txGetter != nil {
		if tx := r.txGetter(ctx); tx != nil {
			return tx
		}
	}
	return r.db
}

// SaveGuarded inserts an offer only while its transaction still admits offers.
// The status guard and the open-offer dedup both live in this one statement:
// the INSERT ... SELECT matches zero source rows when the transaction is past
// offer_made, and ON CONFLICT against the partial unique index on
// (transaction_id, user_id) WHERE status = 'open' swallows duplicates.
// FOR NO KEY UPDATE queues the insert behind any in-flight status transition
// on the same transaction row, so the status guard is re-checked against the
// committed row rather than a stale snapshot. Returns the number of rows
// inserted.
func (r *OfferWriterRepository) SaveGuarded(ctx context.Context, o *models.OfferDB) (int64, error) {
	const query = `
		INSERT INTO offers (
			offer_id, transaction_id, user_id, amount, currency,
			bank_account_id, wallet_address, eta_minutes, notes, status,
			created_at, updated_at
		)
		SELECT $1, t.transaction_id, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW()
		FROM transactions t
		WHERE t.transaction_id = $2 AND t.status IN ($11, $12)
		FOR NO KEY UPDATE OF t
		ON CONFLICT (transaction_id, user_id) WHERE status = 'open' DO NOTHING
	`

	res, err := r.executor(ctx).ExecContext(ctx, query,
		o.OfferID, o.TransactionID, o.UserID, o.Amount, o.Currency,
		o.BankAccountID, o.WalletAddress, o.ETAMinutes, o.Notes, models.OfferOpen,
		models.StatusPending, models.StatusOfferMade,
	)
	if err != nil {
		return 0, fmt.Errorf("insert offer: %w", err)
	}

	rows, err := res.RowsAffected()

	logger.Log.Infow("insert offer",
		"offer_id", o.OfferID,
		"transaction_id", o.TransactionID,
		"user_id", o.UserID,
		"rows", rows,
		"error", err,
	)

	return rows, err
}

// Settle resolves every offer of a transaction in one statement: the accepted
// offer becomes won, all siblings become lost. Returns the number of offers
// touched.
func (r *OfferWriterRepository) Settle(ctx context.Context, transactionID, acceptedOfferID uuid.UUID) (int64, error) {
	const query = `
		UPDATE offers
		SET status = CASE WHEN offer_id = $2 THEN $3 ELSE $4 END,
		    updated_at = NOW()
		WHERE transaction_id = $1
	`

	res, err := r.executor(ctx).ExecContext(ctx, query,
		transactionID, acceptedOfferID, models.OfferWon, models.OfferLost)
	if err != nil {
		return 0, fmt.Errorf("settle offers: %w", err)
	}

	rows, err := res.RowsAffected()

	logger.Log.Infow("settle offers",
		"transaction_id", transactionID,
		"accepted_offer_id", acceptedOfferID,
		"rows", rows,
		"error", err,
	)

	return rows, err
}

// OfferReaderRepository handles offer read operations.
type OfferReaderRepository struct {
	db *sqlx.DB
}

// NewOfferReaderRepository creates an offer read repository.
func NewOfferReaderRepository(db *sqlx.DB) *OfferReaderRepository {
	return &OfferReaderRepository{db: db}
}

const offerColumns = `
	offer_id, transaction_id, user_id, amount, currency,
	bank_account_id, wallet_address, eta_minutes, notes, status,
	created_at, updated_at
`

// GetByID returns one offer, or nil when it does not exist.
func (r *OfferReaderRepository) GetByID(ctx context.Context, offerID uuid.UUID) (*models.OfferDB, error) {
	query := `SELECT ` + offerColumns + ` FROM offers WHERE offer_id = $1`

	var o models.OfferDB
	err := r.db.GetContext(ctx, &o, query, offerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select offer: %w", err)
	}
	return &o, nil
}

// ListByTransaction returns all offers on a transaction, oldest first.
func (r *OfferReaderRepository) ListByTransaction(ctx context.Context, transactionID uuid.UUID) ([]models.OfferDB, error) {
	query := `SELECT ` + offerColumns + ` FROM offers WHERE transaction_id = $1 ORDER BY created_at`

	offers := make([]models.OfferDB, 0)
	if err := r.db.SelectContext(ctx, &offers, query, transactionID); err != nil {
		return nil, fmt.Errorf("select offers: %w", err)
	}
	return offers, nil
}

// HasOpenOffer reports whether the user already has an open offer on the
// transaction.
func (r *OfferReaderRepository) HasOpenOffer(ctx context.Context, transactionID, userID uuid.UUID) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM offers
			WHERE transaction_id = $1 AND user_id = $2 AND status = $3
		)
	`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, transactionID, userID, models.OfferOpen); err != nil {
		return false, fmt.Errorf("select open offer: %w", err)
	}
	return exists, nil
}
