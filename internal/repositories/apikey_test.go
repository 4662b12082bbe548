package repositories

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIKeyReaderRepository_GetActiveByHash(t *testing.T) {
	db, teardown := setupPostgres(t)
	defer teardown()

	ctx := context.Background()
	reader := NewAPIKeyReaderRepository(db)

	rawKey := "vdy_" + "00112233445566778899aabbccddeeff00112233445566778899aabbccddeeff"
	sum := sha256.Sum256([]byte(rawKey))
	keyHash := hex.EncodeToString(sum[:])

	userID := uuid.New()
	_, err := db.Exec(`
		INSERT INTO api_keys (key_id, user_id, key_hash, prefix, active)
		VALUES ($1, $2, $3, $4, TRUE)
	`, uuid.New(), userID, keyHash, rawKey[:11])
	require.NoError(t, err)

	revokedKey := "vdy_" + "ffeeddccbbaa99887766554433221100ffeeddccbbaa99887766554433221100"
	revokedSum := sha256.Sum256([]byte(revokedKey))
	revokedHash := hex.EncodeToString(revokedSum[:])
	_, err = db.Exec(`
		INSERT INTO api_keys (key_id, user_id, key_hash, prefix, active)
		VALUES ($1, $2, $3, $4, FALSE)
	`, uuid.New(), uuid.New(), revokedHash, revokedKey[:11])
	require.NoError(t, err)

	t.Run("active key resolves to its owner", func(t *testing.T) {
		got, err := reader.GetActiveByHash(ctx, keyHash)
		assert.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, userID, got.UserID)
		assert.Equal(t, rawKey[:11], got.Prefix)
		assert.True(t, got.Active)
	})

	t.Run("revoked key is invisible", func(t *testing.T) {
		got, err := reader.GetActiveByHash(ctx, revokedHash)
		assert.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("unknown hash returns nil", func(t *testing.T) {
		got, err := reader.GetActiveByHash(ctx, "0000000000000000000000000000000000000000000000000000000000000000")
		assert.NoError(t, err)
		assert.Nil(t, got)
	})
}
