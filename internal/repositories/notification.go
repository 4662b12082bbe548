package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/vudy/otc-desk/internal/models"
)

// NotificationWriterRepository appends to the per-user notification log.
// Records are never overwritten or deleted; only the read flag mutates.
type NotificationWriterRepository struct {
	db       *sqlx.DB
	txGetter func(ctx context.Context) *sqlx.Tx
}

// NewNotificationWriterRepository creates a notification write repository.
func NewNotificationWriterRepository(db *sqlx.DB, txGetter func(ctx context.Context) *sqlx.Tx) *NotificationWriterRepository {
	return &NotificationWriterRepository{db: db, txGetter: txGetter}
}

func (r *NotificationWriterRepository) executor(ctx context.Context) sqlx.ExtContext {
	if r.txGetter != nil {
		if tx := r.txGetter(ctx); tx != nil {
			return tx
		}
	}
	return r.db
}

// Save appends one notification record. When riding a request-scoped
// transaction the insert runs under a savepoint: a failed insert is rolled
// back to the savepoint instead of aborting the surrounding transaction, so a
// notification error can never undo an already-applied state transition.
func (r *NotificationWriterRepository) Save(ctx context.Context, n *models.NotificationDB) error {
	const query = `
		INSERT INTO notifications (
			notification_id, user_id, type, title, message, severity, source,
			payload, read, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, FALSE, NOW())
	`

	args := []any{n.NotificationID, n.UserID, n.Type, n.Title, n.Message, n.Severity, n.Source, n.Payload}

	exec := r.executor(ctx)
	tx, ok := exec.(*sqlx.Tx)
	if !ok {
		if _, err := exec.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert notification: %w", err)
		}
		return nil
	}

	if _, err := tx.ExecContext(ctx, "SAVEPOINT notification_insert"); err != nil {
		return fmt.Errorf("savepoint notification: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		if _, rbErr := tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT notification_insert"); rbErr != nil {
			return fmt.Errorf("rollback notification savepoint: %w", rbErr)
		}
		return fmt.Errorf("insert notification: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "RELEASE SAVEPOINT notification_insert"); err != nil {
		return fmt.Errorf("release notification savepoint: %w", err)
	}
	return nil
}

// MarkRead sets the read flag on one of the user's notifications.
// Returns the number of rows updated.
func (r *NotificationWriterRepository) MarkRead(ctx context.Context, notificationID, userID uuid.UUID) (int64, error) {
	const query = `
		UPDATE notifications
		SET read = TRUE
		WHERE notification_id = $1 AND user_id = $2
	`

	res, err := r.executor(ctx).ExecContext(ctx, query, notificationID, userID)
	if err != nil {
		return 0, fmt.Errorf("mark notification read: %w", err)
	}
	return res.RowsAffected()
}

// MarkAllRead sets the read flag on every unread notification of the user.
func (r *NotificationWriterRepository) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	const query = `
		UPDATE notifications
		SET read = TRUE
		WHERE user_id = $1 AND NOT read
	`

	res, err := r.executor(ctx).ExecContext(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	return res.RowsAffected()
}

// NotificationReaderRepository reads the per-user notification log.
type NotificationReaderRepository struct {
	db *sqlx.DB
}

// NewNotificationReaderRepository creates a notification read repository.
func NewNotificationReaderRepository(db *sqlx.DB) *NotificationReaderRepository {
	return &NotificationReaderRepository{db: db}
}

// ListByUser returns the user's notifications, newest first.
func (r *NotificationReaderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.NotificationDB, error) {
	const query = `
		SELECT notification_id, user_id, type, title, message, severity, source,
		       payload, read, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	notifications := make([]models.NotificationDB, 0)
	if err := r.db.SelectContext(ctx, &notifications, query, userID); err != nil {
		return nil, fmt.Errorf("select notifications: %w", err)
	}
	return notifications, nil
}
