package repositories

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vudy/otc-desk/internal/models"
)

func newTestNotification(userID uuid.UUID, typ string) *models.NotificationDB {
	payload, _ := json.Marshal(models.NotificationPayload{TransactionID: uuid.New()})
	return &models.NotificationDB{
		NotificationID: uuid.New(),
		UserID:         userID,
		Type:           typ,
		Title:          "Offer accepted",
		Message:        "Your offer was accepted",
		Severity:       models.SeveritySuccess,
		Source:         "lifecycle",
		Payload:        payload,
	}
}

func TestNotificationRepository(t *testing.T) {
	db, teardown := setupPostgres(t)
	defer teardown()

	ctx := context.Background()
	writer := NewNotificationWriterRepository(db, nil)
	reader := NewNotificationReaderRepository(db)

	user := uuid.New()
	other := uuid.New()

	first := newTestNotification(user, models.NotificationOfferReceived)
	second := newTestNotification(user, models.NotificationOfferAccepted)
	require.NoError(t, writer.Save(ctx, first))
	require.NoError(t, writer.Save(ctx, second))
	require.NoError(t, writer.Save(ctx, newTestNotification(other, models.NotificationOfferRejected)))

	t.Run("ListByUser returns only the user's records", func(t *testing.T) {
		got, err := reader.ListByUser(ctx, user)
		assert.NoError(t, err)
		assert.Len(t, got, 2)
		for _, n := range got {
			assert.Equal(t, user, n.UserID)
			assert.False(t, n.Read)
		}
	})

	t.Run("MarkRead flips one record", func(t *testing.T) {
		rows, err := writer.MarkRead(ctx, first.NotificationID, user)
		assert.NoError(t, err)
		assert.Equal(t, int64(1), rows)

		got, err := reader.ListByUser(ctx, user)
		require.NoError(t, err)
		var read int
		for _, n := range got {
			if n.Read {
				read++
			}
		}
		assert.Equal(t, 1, read)
	})

	t.Run("MarkRead rejects another user's record", func(t *testing.T) {
		rows, err := writer.MarkRead(ctx, second.NotificationID, other)
		assert.NoError(t, err)
		assert.Equal(t, int64(0), rows)
	})

	t.Run("MarkAllRead flips the rest", func(t *testing.T) {
		rows, err := writer.MarkAllRead(ctx, user)
		assert.NoError(t, err)
		assert.Equal(t, int64(1), rows)

		got, err := reader.ListByUser(ctx, user)
		require.NoError(t, err)
		for _, n := range got {
			assert.True(t, n.Read)
		}
	})
}

func TestNotificationWriterRepository_SaveFailureKeepsTransactionUsable(t *testing.T) {
	db, teardown := setupPostgres(t)
	defer teardown()

	ctx := context.Background()
	reader := NewNotificationReaderRepository(db)

	tx, err := db.BeginTxx(ctx, nil)
	require.NoError(t, err)
	writer := NewNotificationWriterRepository(db, func(context.Context) *sqlx.Tx { return tx })

	user := uuid.New()
	first := newTestNotification(user, models.NotificationOfferReceived)
	require.NoError(t, writer.Save(ctx, first))

	// Reusing the primary key forces the insert to fail mid-transaction.
	dup := newTestNotification(user, models.NotificationOfferAccepted)
	dup.NotificationID = first.NotificationID
	require.Error(t, writer.Save(ctx, dup))

	second := newTestNotification(user, models.NotificationOfferAccepted)
	require.NoError(t, writer.Save(ctx, second), "transaction stays usable after a failed insert")
	require.NoError(t, tx.Commit())

	got, err := reader.ListByUser(ctx, user)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
