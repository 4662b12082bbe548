package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/vudy/otc-desk/internal/models"
)

// APIKeyReaderRepository looks up external API keys by hash.
type APIKeyReaderRepository struct {
	db *sqlx.DB
}

// NewAPIKeyReaderRepository creates an API key read repository.
func NewAPIKeyReaderRepository(db *sqlx.DB) *APIKeyReaderRepository {
	return &APIKeyReaderRepository{db: db}
}

// GetActiveByHash returns the active key record matching the hex SHA-256 hash
// of a presented key, or nil when no active record matches. Revoked keys are
// never returned.
func (r *APIKeyReaderRepository) GetActiveByHash(ctx context.Context, keyHash string) (*models.APIKeyDB, error) {
	const query = `
		SELECT key_id, user_id, key_hash, prefix, active, created_at
		FROM api_keys
		WHERE key_hash = $1 AND active
	`

	var k models.APIKeyDB
	err := r.db.GetContext(ctx, &k, query, keyHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select api key: %w", err)
	}
	return &k, nil
}
