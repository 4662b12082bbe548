package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vudy/otc-desk/internal/jwt"
	"github.com/vudy/otc-desk/internal/models"
	"github.com/vudy/otc-desk/internal/services"
)

// fakeSessionTokener satisfies every handler tokener interface.
type fakeSessionTokener struct {
	userID uuid.UUID
	err    error
}

func (f *fakeSessionTokener) GetTokenFromRequest(ctx context.Context, r *http.Request) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "token", nil
}

func (f *fakeSessionTokener) GetClaims(ctx context.Context, tokenString string) (*jwt.Claims, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &jwt.Claims{UserID: f.userID}, nil
}

type fakeTransactionCreator struct {
	created *models.TransactionDB
	err     error
	gotIn   services.CreateTransactionInput
}

func (f *fakeTransactionCreator) CreateTransaction(ctx context.Context, in services.CreateTransactionInput) (*models.TransactionDB, error) {
	f.gotIn = in
	return f.created, f.err
}

func TestCreateTransactionHandler(t *testing.T) {
	userID := uuid.New()
	created := &models.TransactionDB{
		TransactionID: uuid.New(),
		Code:          "OTC-1756500000000-AB12",
		UserID:        userID,
		Status:        models.StatusPending,
	}

	validBody := `{
		"trade_type": "sell",
		"direction": "ctf",
		"chain": "tron",
		"token": "USDT",
		"amount": 100,
		"currency": "USDT",
		"wallet_address": "TXYZabc"
	}`

	tests := []struct {
		name           string
		body           string
		tokener        *fakeSessionTokener
		svc            *fakeTransactionCreator
		expectedStatus int
	}{
		{
			name:           "Success",
			body:           validBody,
			tokener:        &fakeSessionTokener{userID: userID},
			svc:            &fakeTransactionCreator{created: created},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "Unauthorized",
			body:           validBody,
			tokener:        &fakeSessionTokener{err: errors.New("no token")},
			svc:            &fakeTransactionCreator{},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "InvalidJSON",
			body:           `{"trade_type":`,
			tokener:        &fakeSessionTokener{userID: userID},
			svc:            &fakeTransactionCreator{},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "UnknownTradeType",
			body:           `{"trade_type":"swap","direction":"ctf","chain":"tron","token":"USDT","amount":100,"currency":"USDT","wallet_address":"TXYZabc"}`,
			tokener:        &fakeSessionTokener{userID: userID},
			svc:            &fakeTransactionCreator{},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "NegativeAmount",
			body:           `{"trade_type":"sell","direction":"ctf","chain":"tron","token":"USDT","amount":-1,"currency":"USDT","wallet_address":"TXYZabc"}`,
			tokener:        &fakeSessionTokener{userID: userID},
			svc:            &fakeTransactionCreator{},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "MissingWallet",
			body:           `{"trade_type":"sell","direction":"ctf","chain":"tron","token":"USDT","amount":100,"currency":"USDT"}`,
			tokener:        &fakeSessionTokener{userID: userID},
			svc:            &fakeTransactionCreator{},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "ServiceError",
			body:           validBody,
			tokener:        &fakeSessionTokener{userID: userID},
			svc:            &fakeTransactionCreator{err: errors.New("db down")},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewCreateTransactionHandler(tt.svc, tt.tokener)

			req := httptest.NewRequest(http.MethodPost, "/transactions", bytes.NewBufferString(tt.body))
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
			if tt.expectedStatus == http.StatusCreated {
				var resp TransactionResponse
				require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
				assert.Equal(t, created.TransactionID, resp.Transaction.TransactionID)
				assert.Equal(t, userID, tt.svc.gotIn.UserID, "owner comes from the session, not the body")
			}
		})
	}
}
