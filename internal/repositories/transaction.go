package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/vudy/otc-desk/internal/logger"
	"github.com/vudy/otc-desk/internal/models"
)

// TransactionWriterRepository handles transaction write operations.
// All status changes go through single-row conditional updates checked by
// affected-row count: the update is the serialization point, there is no
// read-then-write window.
type TransactionWriterRepository struct {
	db       *sqlx.DB
	txGetter func(ctx context.Context) *sqlx.Tx
}

// NewTransactionWriterRepository creates a transaction write repository.
// txGetter may be nil; when set, writes join the request-scoped transaction.
func NewTransactionWriterRepository(db *sqlx.DB, txGetter func(ctx context.Context) *sqlx.Tx) *TransactionWriterRepository {
	return &TransactionWriterRepository{db: db, txGetter: txGetter}
}

func (r *TransactionWriterRepository) executor(ctx context.Context) sqlx.ExtContext {
	if r.txGetter != nil {
		if tx := r.txGetter(ctx); tx != nil {
			return tx
		}
	}
	return r.db
}

// Save inserts a new transaction in pending status.
func (r *TransactionWriterRepository) Save(ctx context.Context, t *models.TransactionDB) error {
	const query = `
		INSERT INTO transactions (
			transaction_id, code, user_id, trade_type, direction, chain, token,
			amount, currency, settlement_account, wallet_address, status,
			client_alias, kyc_link, notes, origin, sla_minutes,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, NOW(), NOW())
	`

	_, err := r.executor(ctx).ExecContext(ctx, query,
		t.TransactionID, t.Code, t.UserID, t.TradeType, t.Direction, t.Chain, t.Token,
		t.Amount, t.Currency, t.SettlementAccount, t.WalletAddress, models.StatusPending,
		t.ClientAlias, t.KYCLink, t.Notes, t.Origin, t.SLAMinutes,
	)

	logger.Log.Infow("insert transaction",
		"transaction_id", t.TransactionID,
		"code", t.Code,
		"error", err,
	)

	return err
}

// MarkOfferMade transitions pending -> offer_made and stamps offered_at.
// Returns the number of rows updated: zero means the transaction was already
// past pending, which is not an error for this transition.
func (r *TransactionWriterRepository) MarkOfferMade(ctx context.Context, transactionID uuid.UUID) (int64, error) {
	const query = `
		UPDATE transactions
		SET status = $2, offered_at = NOW(), updated_at = NOW()
		WHERE transaction_id = $1 AND status = $3
	`

	res, err := r.executor(ctx).ExecContext(ctx, query, transactionID, models.StatusOfferMade, models.StatusPending)
	if err != nil {
		return 0, fmt.Errorf("mark offer_made: %w", err)
	}
	return res.RowsAffected()
}

// AcceptEscrow transitions offer_made -> escrow, recording the winning user
// and the approval timestamp. Zero affected rows means the transaction is
// absent or not in an acceptable state; the caller treats that as a conflict.
// Under concurrent accepts the row lock serializes the two updates and the
// loser matches zero rows.
func (r *TransactionWriterRepository) AcceptEscrow(ctx context.Context, transactionID, winnerUserID uuid.UUID) (int64, error) {
	const query = `
		UPDATE transactions
		SET status = $3, winner_user_id = $2, approved_at = NOW(), updated_at = NOW()
		WHERE transaction_id = $1 AND status = $4
	`

	res, err := r.executor(ctx).ExecContext(ctx, query,
		transactionID, winnerUserID, models.StatusEscrow, models.StatusOfferMade)
	if err != nil {
		return 0, fmt.Errorf("accept escrow: %w", err)
	}

	rows, err := res.RowsAffected()

	logger.Log.Infow("accept escrow",
		"transaction_id", transactionID,
		"winner_user_id", winnerUserID,
		"rows", rows,
		"error", err,
	)

	return rows, err
}

// SetProof marks the payment proof as uploaded while the transaction is in
// escrow. The hash is stored verbatim; it is not verified against anything.
func (r *TransactionWriterRepository) SetProof(ctx context.Context, transactionID uuid.UUID, fileName, hash string) (int64, error) {
	const query = `
		UPDATE transactions
		SET proof_uploaded = TRUE, proof_file = $2, proof_hash = $3, updated_at = NOW()
		WHERE transaction_id = $1 AND status = $4
	`

	res, err := r.executor(ctx).ExecContext(ctx, query, transactionID, fileName, hash, models.StatusEscrow)
	if err != nil {
		return 0, fmt.Errorf("set proof: %w", err)
	}
	return res.RowsAffected()
}

// Complete transitions escrow -> completed and stamps completed_at. For sell
// trades the proof flag gates the transition inside the same statement.
func (r *TransactionWriterRepository) Complete(ctx context.Context, transactionID uuid.UUID, requireProof bool) (int64, error) {
	const query = `
		UPDATE transactions
		SET status = $2, completed_at = NOW(), updated_at = NOW()
		WHERE transaction_id = $1 AND status = $3 AND (NOT $4 OR proof_uploaded)
	`

	res, err := r.executor(ctx).ExecContext(ctx, query,
		transactionID, models.StatusCompleted, models.StatusEscrow, requireProof)
	if err != nil {
		return 0, fmt.Errorf("complete: %w", err)
	}
	return res.RowsAffected()
}

// Fail transitions any non-terminal status to failed.
func (r *TransactionWriterRepository) Fail(ctx context.Context, transactionID uuid.UUID) (int64, error) {
	const query = `
		UPDATE transactions
		SET status = $2, updated_at = NOW()
		WHERE transaction_id = $1 AND status NOT IN ($3, $4)
	`

	res, err := r.executor(ctx).ExecContext(ctx, query,
		transactionID, models.StatusFailed, models.StatusCompleted, models.StatusFailed)
	if err != nil {
		return 0, fmt.Errorf("fail: %w", err)
	}
	return res.RowsAffected()
}

// UpdateMetadata patches the free-text operator metadata. Lifecycle fields
// are not reachable from here.
func (r *TransactionWriterRepository) UpdateMetadata(ctx context.Context, transactionID uuid.UUID, patch models.TransactionMetadataPatch) (int64, error) {
	const query = `
		UPDATE transactions
		SET client_alias = COALESCE($2, client_alias),
		    kyc_link     = COALESCE($3, kyc_link),
		    notes        = COALESCE($4, notes),
		    origin       = COALESCE($5, origin),
		    sla_minutes  = COALESCE($6, sla_minutes),
		    updated_at   = NOW()
		WHERE transaction_id = $1
	`

	res, err := r.executor(ctx).ExecContext(ctx, query, transactionID,
		patch.ClientAlias, patch.KYCLink, patch.Notes, patch.Origin, patch.SLAMinutes)
	if err != nil {
		return 0, fmt.Errorf("update metadata: %w", err)
	}
	return res.RowsAffected()
}

// TransactionReaderRepository handles transaction read operations.
type TransactionReaderRepository struct {
	db *sqlx.DB
}

// NewTransactionReaderRepository creates a transaction read repository.
func NewTransactionReaderRepository(db *sqlx.DB) *TransactionReaderRepository {
	return &TransactionReaderRepository{db: db}
}

const transactionColumns = `
	transaction_id, code, user_id, trade_type, direction, chain, token,
	amount, currency, settlement_account, wallet_address, status,
	winner_user_id, proof_uploaded, proof_file, proof_hash,
	client_alias, kyc_link, notes, origin, sla_minutes,
	offered_at, approved_at, completed_at, created_at, updated_at
`

// GetByID returns one transaction, or nil when it does not exist.
func (r *TransactionReaderRepository) GetByID(ctx context.Context, transactionID uuid.UUID) (*models.TransactionDB, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE transaction_id = $1`

	var t models.TransactionDB
	err := r.db.GetContext(ctx, &t, query, transactionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select transaction: %w", err)
	}
	return &t, nil
}

// List returns transactions matching the filter, newest first.
func (r *TransactionReaderRepository) List(ctx context.Context, filter models.TransactionFilter) ([]models.TransactionDB, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions`

	var conds []string
	var args []any

	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.UserID != nil {
		add("user_id = $%d", *filter.UserID)
	}
	if filter.TradeType != nil {
		add("trade_type = $%d", *filter.TradeType)
	}
	if filter.Status != nil {
		add("status = $%d", *filter.Status)
	}
	if filter.From != nil {
		add("created_at >= $%d", *filter.From)
	}
	if filter.To != nil {
		add("created_at <= $%d", *filter.To)
	}

	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"

	transactions := make([]models.TransactionDB, 0)
	if err := r.db.SelectContext(ctx, &transactions, query, args...); err != nil {
		return nil, fmt.Errorf("select transactions: %w", err)
	}
	return transactions, nil
}
