package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/vudy/otc-desk/internal/jwt"
	"github.com/vudy/otc-desk/internal/logger"
	"github.com/vudy/otc-desk/internal/models"
	"github.com/vudy/otc-desk/internal/services"
)

// CreateTokener defines only the token methods needed by this handler.
type CreateTokener interface {
	GetTokenFromRequest(ctx context.Context, r *http.Request) (string, error)
	GetClaims(ctx context.Context, tokenString string) (*jwt.Claims, error)
}

// TransactionCreator defines the service interface for creating transactions.
type TransactionCreator interface {
	CreateTransaction(ctx context.Context, in services.CreateTransactionInput) (*models.TransactionDB, error)
}

// CreateTransactionRequest is the JSON body for creating a trade request
// swagger:model CreateTransactionRequest
type CreateTransactionRequest struct {
	// Trade type: buy or sell
	// required: true
	TradeType string `json:"trade_type"`

	// Trade direction: ftc or ctf
	// required: true
	Direction string `json:"direction"`

	// Target chain
	// required: true
	// example: tron
	Chain string `json:"chain"`

	// Token symbol
	// required: true
	// example: USDT
	Token string `json:"token"`

	// Trade amount
	// required: true
	// example: 100.0
	Amount float64 `json:"amount"`

	// Amount currency code
	// required: true
	// example: USDT
	Currency string `json:"currency"`

	// Settlement bank account id, or empty for external settlement
	SettlementAccount string `json:"settlement_account"`

	// Destination wallet address
	// required: true
	WalletAddress string `json:"wallet_address"`

	// Optional client metadata
	ClientAlias *string `json:"client_alias,omitempty"`
	KYCLink     *string `json:"kyc_link,omitempty"`
	Notes       *string `json:"notes,omitempty"`
	Origin      *string `json:"origin,omitempty"`
	SLAMinutes  *int    `json:"sla_minutes,omitempty"`
}

// TransactionResponse wraps a transaction
// swagger:model TransactionResponse
type TransactionResponse struct {
	Transaction *models.TransactionDB `json:"transaction"`
}

// TransactionErrorResponse represents an error response for transaction operations
// swagger:model TransactionErrorResponse
type TransactionErrorResponse struct {
	// Error message
	// example: Transaction not found
	Error string `json:"error"`
}

// validateCreateRequest checks the request fields shared by the internal and
// external create paths.
func validateCreateRequest(req *CreateTransactionRequest) string {
	if req.TradeType != models.TradeBuy && req.TradeType != models.TradeSell {
		return "Invalid trade type"
	}
	if req.Direction != models.DirectionFTC && req.Direction != models.DirectionCTF {
		return "Invalid direction"
	}
	if req.Amount <= 0 {
		return "Invalid amount"
	}
	if req.Currency == "" || req.Token == "" || req.Chain == "" {
		return "Missing chain, token or currency"
	}
	if req.WalletAddress == "" {
		return "Missing wallet address"
	}
	return ""
}

// NewCreateTransactionHandler returns an HTTP handler for creating a trade request.
// @Summary Create transaction
// @Description Creates a new trade request in pending status.
// @Tags transactions
// @Accept json
// @Produce json
// @Param request body handlers.CreateTransactionRequest true "Create Transaction Request"
// @Success 201 {object} handlers.TransactionResponse
// @Failure 400 {object} handlers.TransactionErrorResponse "Invalid request"
// @Failure 401 {object} handlers.TransactionErrorResponse "Unauthorized"
// @Router /transactions [post]
// @Security BearerAuth
func NewCreateTransactionHandler(svc TransactionCreator, tokenGetter CreateTokener) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		w.Header().Set("Content-Type", "application/json")

		claims, ok := claimsFromRequest(ctx, w, r, tokenGetter)
		if !ok {
			return
		}

		var req CreateTransactionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Log.Errorw("failed to decode create transaction request", "error", err)
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(TransactionErrorResponse{Error: "Invalid request body"})
			return
		}

		if msg := validateCreateRequest(&req); msg != "" {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(TransactionErrorResponse{Error: msg})
			return
		}

		t, err := svc.CreateTransaction(ctx, services.CreateTransactionInput{
			UserID:            claims.UserID,
			TradeType:         req.TradeType,
			Direction:         req.Direction,
			Chain:             req.Chain,
			Token:             req.Token,
			Amount:            req.Amount,
			Currency:          req.Currency,
			SettlementAccount: req.SettlementAccount,
			WalletAddress:     req.WalletAddress,
			ClientAlias:       req.ClientAlias,
			KYCLink:           req.KYCLink,
			Notes:             req.Notes,
			Origin:            req.Origin,
			SLAMinutes:        req.SLAMinutes,
		})
		if err != nil {
			logger.Log.Errorw("failed to create transaction", "user_id", claims.UserID, "error", err)
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(TransactionErrorResponse{Error: "Internal server error"})
			return
		}

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(TransactionResponse{Transaction: t})
	}
}

// claimsFromRequest extracts session claims, writing the 401 response itself
// on failure.
func claimsFromRequest(ctx context.Context, w http.ResponseWriter, r *http.Request, tokenGetter CreateTokener) (*jwt.Claims, bool) {
	tokenStr, err := tokenGetter.GetTokenFromRequest(ctx, r)
	if err != nil {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(TransactionErrorResponse{Error: "Unauthorized"})
		return nil, false
	}

	claims, err := tokenGetter.GetClaims(ctx, tokenStr)
	if err != nil {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(TransactionErrorResponse{Error: "Unauthorized"})
		return nil, false
	}

	return claims, true
}
