package handlers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/vudy/otc-desk/internal/middlewares"
	"github.com/vudy/otc-desk/internal/models"
)

const externalTestKey = "vdy_0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

type stubKeyReader struct {
	record *models.APIKeyDB
}

func (s *stubKeyReader) GetActiveByHash(ctx context.Context, keyHash string) (*models.APIKeyDB, error) {
	return s.record, nil
}

type noopKeyCache struct{}

func (noopKeyCache) GetByHash(ctx context.Context, keyHash string) (*models.APIKeyDB, error) {
	return nil, context.Canceled
}

func (noopKeyCache) SetByHash(ctx context.Context, keyHash string, k *models.APIKeyDB) error {
	return nil
}

// withAPIUser runs the handler behind the real key middleware so the caller
// is resolved the same way as in production.
func withAPIUser(handler http.Handler, userID uuid.UUID) http.Handler {
	reader := &stubKeyReader{record: &models.APIKeyDB{KeyID: uuid.New(), UserID: userID, Active: true}}
	return middlewares.APIKeyMiddleware(reader, noopKeyCache{})(handler)
}

func TestExternalCreateHandler(t *testing.T) {
	userID := uuid.New()
	created := &models.TransactionDB{TransactionID: uuid.New(), Status: models.StatusPending, UserID: userID}

	tests := []struct {
		name              string
		body              string
		authenticated     bool
		expectedStatus    int
		expectedTradeType string
		expectedDirection string
	}{
		{
			name:              "FTCMapsToBuy",
			body:              `{"ftc":{"chain":"tron","token":"USDT","amount":100,"currency":"GTQ","wallet_address":"TXYZabc"}}`,
			authenticated:     true,
			expectedStatus:    http.StatusCreated,
			expectedTradeType: models.TradeBuy,
			expectedDirection: models.DirectionFTC,
		},
		{
			name:              "CTFMapsToSell",
			body:              `{"ctf":{"chain":"tron","token":"USDT","amount":100,"currency":"USDT","wallet_address":"TXYZabc"}}`,
			authenticated:     true,
			expectedStatus:    http.StatusCreated,
			expectedTradeType: models.TradeSell,
			expectedDirection: models.DirectionCTF,
		},
		{
			name:           "NoKeyContext",
			body:           `{"ftc":{"chain":"tron","token":"USDT","amount":100,"currency":"GTQ","wallet_address":"TXYZabc"}}`,
			authenticated:  false,
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "BothSidesSet",
			body:           `{"ftc":{"chain":"tron","token":"USDT","amount":100,"currency":"GTQ","wallet_address":"TXYZabc"},"ctf":{"chain":"tron","token":"USDT","amount":100,"currency":"USDT","wallet_address":"TXYZabc"}}`,
			authenticated:  true,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "NeitherSideSet",
			body:           `{"client_alias":"acme"}`,
			authenticated:  true,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "IncompleteTradeBody",
			body:           `{"ftc":{"chain":"tron","amount":100}}`,
			authenticated:  true,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeTransactionCreator{created: created}
			var handler http.Handler = NewExternalCreateHandler(svc)
			if tt.authenticated {
				handler = withAPIUser(handler, userID)
			}

			req := httptest.NewRequest(http.MethodPost, "/external/transactions", bytes.NewBufferString(tt.body))
			if tt.authenticated {
				req.Header.Set(middlewares.APIKeyHeader, externalTestKey)
			}
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			if tt.expectedStatus == http.StatusCreated {
				assert.Equal(t, userID, svc.gotIn.UserID)
				assert.Equal(t, tt.expectedTradeType, svc.gotIn.TradeType)
				assert.Equal(t, tt.expectedDirection, svc.gotIn.Direction)
				assert.Equal(t, models.SettlementExternal, svc.gotIn.SettlementAccount)
			}
		})
	}
}
