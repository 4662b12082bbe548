package middlewares

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"regexp"

	"github.com/google/uuid"
	"github.com/vudy/otc-desk/internal/logger"
	"github.com/vudy/otc-desk/internal/models"
)

// APIKeyHeader carries the external API key.
const APIKeyHeader = "X-Api-Key"

// keyPattern is the accepted external key shape: vdy_ plus 64 hex characters.
var keyPattern = regexp.MustCompile(`^vdy_[0-9a-f]{64}$`)

// APIKeyReader resolves an active key record by its SHA-256 hash.
type APIKeyReader interface {
	GetActiveByHash(ctx context.Context, keyHash string) (*models.APIKeyDB, error)
}

// APIKeyCache caches resolved key records. A miss is reported as an error.
type APIKeyCache interface {
	GetByHash(ctx context.Context, keyHash string) (*models.APIKeyDB, error)
	SetByHash(ctx context.Context, keyHash string, k *models.APIKeyDB) error
}

// APIKeyMiddleware authenticates external callers: the presented key must
// match the vdy_ format and its SHA-256 hash must match an active record.
// The resolved owner id is placed on the request context.
func APIKeyMiddleware(reader APIKeyReader, cache APIKeyCache) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			key := r.Header.Get(APIKeyHeader)
			if !keyPattern.MatchString(key) {
				logger.Log.Warnw("rejected api key with invalid format")
				w.WriteHeader(http.StatusUnauthorized)
				return
			}

			sum := sha256.Sum256([]byte(key))
			keyHash := hex.EncodeToString(sum[:])

			var record *models.APIKeyDB
			if cache != nil {
				if cached, err := cache.GetByHash(ctx, keyHash); err == nil {
					record = cached
				}
			}
			if record == nil {
				stored, err := reader.GetActiveByHash(ctx, keyHash)
				if err != nil {
					logger.Log.Errorw("api key lookup failed", "error", err)
					w.WriteHeader(http.StatusInternalServerError)
					return
				}
				if stored == nil {
					logger.Log.Warnw("rejected unknown or revoked api key")
					w.WriteHeader(http.StatusUnauthorized)
					return
				}
				record = stored
				if cache != nil {
					_ = cache.SetByHash(ctx, keyHash, record)
				}
			}

			next.ServeHTTP(w, r.WithContext(setAPIUserToContext(ctx, record.UserID)))
		})
	}
}

type apiUserContextKey struct{}

var apiUserKey = apiUserContextKey{}

func setAPIUserToContext(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, apiUserKey, userID)
}

// GetAPIUserFromContext returns the key owner resolved by APIKeyMiddleware.
func GetAPIUserFromContext(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(apiUserKey).(uuid.UUID)
	return userID, ok
}
