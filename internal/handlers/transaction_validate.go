package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/vudy/otc-desk/internal/jwt"
	"github.com/vudy/otc-desk/internal/models"
)

// ValidateTokener defines only the token methods needed by this handler.
type ValidateTokener interface {
	GetTokenFromRequest(ctx context.Context, r *http.Request) (string, error)
	GetClaims(ctx context.Context, tokenString string) (*jwt.Claims, error)
}

// TransactionValidator defines the service interface for completing a trade.
type TransactionValidator interface {
	ValidateTransaction(ctx context.Context, transactionID, callerID uuid.UUID) (*models.TransactionDB, error)
}

// NewValidateTransactionHandler returns an HTTP handler for completing an
// escrow trade.
// @Summary Validate transaction
// @Description Completes a trade in escrow. Sell trades require an uploaded payment proof; buy trades have no proof gate.
// @Tags transactions
// @Produce json
// @Param id path string true "Transaction ID"
// @Success 200 {object} handlers.TransactionResponse
// @Failure 401 {object} handlers.TransactionErrorResponse "Unauthorized"
// @Failure 403 {object} handlers.TransactionErrorResponse "Not the owner"
// @Failure 404 {object} handlers.TransactionErrorResponse "Transaction not found"
// @Failure 409 {object} handlers.TransactionErrorResponse "Not in escrow or proof missing"
// @Router /transactions/{id}/validate [post]
// @Security BearerAuth
func NewValidateTransactionHandler(svc TransactionValidator, tokenGetter ValidateTokener) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		w.Header().Set("Content-Type", "application/json")

		claims, ok := claimsFromRequest(ctx, w, r, tokenGetter)
		if !ok {
			return
		}

		transactionID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(TransactionErrorResponse{Error: "Invalid transaction id"})
			return
		}

		t, err := svc.ValidateTransaction(ctx, transactionID, claims.UserID)
		if err != nil {
			writeLifecycleError(w, err, transactionID)
			return
		}

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(TransactionResponse{Transaction: t})
	}
}
