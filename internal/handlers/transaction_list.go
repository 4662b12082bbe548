package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/vudy/otc-desk/internal/jwt"
	"github.com/vudy/otc-desk/internal/logger"
	"github.com/vudy/otc-desk/internal/models"
)

// ListTokener defines only the token methods needed by this handler.
type ListTokener interface {
	GetTokenFromRequest(ctx context.Context, r *http.Request) (string, error)
	GetClaims(ctx context.Context, tokenString string) (*jwt.Claims, error)
}

// TransactionLister defines the service interface for listing transactions.
type TransactionLister interface {
	ListTransactions(ctx context.Context, filter models.TransactionFilter) ([]models.TransactionDB, error)
}

// TransactionListResponse wraps a list of transactions
// swagger:model TransactionListResponse
type TransactionListResponse struct {
	Transactions []models.TransactionDB `json:"transactions"`
}

// NewListTransactionsHandler returns an HTTP handler for listing trade requests.
// @Summary List transactions
// @Description Lists transactions, newest first, with optional filters.
// @Tags transactions
// @Produce json
// @Param user_id query string false "Owner filter (UUID)"
// @Param type query string false "Trade type filter (buy or sell)"
// @Param status query string false "Status filter"
// @Param from query string false "Created at or after (RFC 3339)"
// @Param to query string false "Created at or before (RFC 3339)"
// @Success 200 {object} handlers.TransactionListResponse
// @Failure 400 {object} handlers.TransactionErrorResponse "Invalid filter"
// @Failure 401 {object} handlers.TransactionErrorResponse "Unauthorized"
// @Router /transactions [get]
// @Security BearerAuth
func NewListTransactionsHandler(svc TransactionLister, tokenGetter ListTokener) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		w.Header().Set("Content-Type", "application/json")

		if _, ok := claimsFromRequest(ctx, w, r, tokenGetter); !ok {
			return
		}

		var filter models.TransactionFilter
		q := r.URL.Query()

		if v := q.Get("user_id"); v != "" {
			userID, err := uuid.Parse(v)
			if err != nil {
				w.WriteHeader(http.StatusBadRequest)
				json.NewEncoder(w).Encode(TransactionErrorResponse{Error: "Invalid user_id"})
				return
			}
			filter.UserID = &userID
		}
		if v := q.Get("type"); v != "" {
			if v != models.TradeBuy && v != models.TradeSell {
				w.WriteHeader(http.StatusBadRequest)
				json.NewEncoder(w).Encode(TransactionErrorResponse{Error: "Invalid type"})
				return
			}
			filter.TradeType = &v
		}
		if v := q.Get("status"); v != "" {
			filter.Status = &v
		}
		if v := q.Get("from"); v != "" {
			from, err := time.Parse(time.RFC3339, v)
			if err != nil {
				w.WriteHeader(http.StatusBadRequest)
				json.NewEncoder(w).Encode(TransactionErrorResponse{Error: "Invalid from date"})
				return
			}
			filter.From = &from
		}
		if v := q.Get("to"); v != "" {
			to, err := time.Parse(time.RFC3339, v)
			if err != nil {
				w.WriteHeader(http.StatusBadRequest)
				json.NewEncoder(w).Encode(TransactionErrorResponse{Error: "Invalid to date"})
				return
			}
			filter.To = &to
		}

		transactions, err := svc.ListTransactions(ctx, filter)
		if err != nil {
			logger.Log.Errorw("failed to list transactions", "error", err)
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(TransactionErrorResponse{Error: "Internal server error"})
			return
		}

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(TransactionListResponse{Transactions: transactions})
	}
}
