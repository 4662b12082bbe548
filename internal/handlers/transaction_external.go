package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/vudy/otc-desk/internal/logger"
	"github.com/vudy/otc-desk/internal/middlewares"
	"github.com/vudy/otc-desk/internal/models"
	"github.com/vudy/otc-desk/internal/services"
)

// ExternalFTCBody describes a fiat-to-crypto trade submitted via the external API
// swagger:model ExternalFTCBody
type ExternalFTCBody struct {
	// Target chain
	// required: true
	Chain string `json:"chain"`

	// Token symbol
	// required: true
	Token string `json:"token"`

	// Fiat amount to convert
	// required: true
	Amount float64 `json:"amount"`

	// Fiat currency code
	// required: true
	Currency string `json:"currency"`

	// Destination wallet address
	// required: true
	WalletAddress string `json:"wallet_address"`
}

// ExternalCTFBody describes a crypto-to-fiat trade submitted via the external API
// swagger:model ExternalCTFBody
type ExternalCTFBody struct {
	// Source chain
	// required: true
	Chain string `json:"chain"`

	// Token symbol
	// required: true
	Token string `json:"token"`

	// Crypto amount to convert
	// required: true
	Amount float64 `json:"amount"`

	// Token currency code
	// required: true
	Currency string `json:"currency"`

	// Wallet the crypto will be sent from
	// required: true
	WalletAddress string `json:"wallet_address"`
}

// ExternalCreateRequest is the JSON body for the external create endpoint.
// Exactly one of ftc and ctf must be present.
// swagger:model ExternalCreateRequest
type ExternalCreateRequest struct {
	// Fiat-to-crypto trade
	FTC *ExternalFTCBody `json:"ftc,omitempty"`

	// Crypto-to-fiat trade
	CTF *ExternalCTFBody `json:"ctf,omitempty"`

	// Optional client metadata
	ClientAlias *string `json:"client_alias,omitempty"`
	Origin      *string `json:"origin,omitempty"`
	SLAMinutes  *int    `json:"sla_minutes,omitempty"`
}

// NewExternalCreateHandler returns the handler behind the X-Api-Key external
// surface. The key middleware resolves the calling user; the FTC/CTF body is
// mapped onto the internal transaction shape with external settlement.
// @Summary Create transaction (external API)
// @Description Creates a trade request on behalf of the API key owner. Exactly one of ftc/ctf must be set.
// @Tags external
// @Accept json
// @Produce json
// @Param request body handlers.ExternalCreateRequest true "External Create Request"
// @Success 201 {object} handlers.TransactionResponse
// @Failure 400 {object} handlers.TransactionErrorResponse "Invalid request"
// @Failure 401 {object} handlers.TransactionErrorResponse "Missing or revoked API key"
// @Router /external/transactions [post]
func NewExternalCreateHandler(svc TransactionCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		w.Header().Set("Content-Type", "application/json")

		userID, ok := middlewares.GetAPIUserFromContext(ctx)
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(TransactionErrorResponse{Error: "Unauthorized"})
			return
		}

		var req ExternalCreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Log.Errorw("failed to decode external create request", "error", err)
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(TransactionErrorResponse{Error: "Invalid request body"})
			return
		}

		if (req.FTC == nil) == (req.CTF == nil) {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(TransactionErrorResponse{Error: "Exactly one of ftc or ctf must be set"})
			return
		}

		in := services.CreateTransactionInput{
			UserID:            userID,
			SettlementAccount: models.SettlementExternal,
			ClientAlias:       req.ClientAlias,
			Origin:            req.Origin,
			SLAMinutes:        req.SLAMinutes,
		}

		if req.FTC != nil {
			in.TradeType = models.TradeBuy
			in.Direction = models.DirectionFTC
			in.Chain = req.FTC.Chain
			in.Token = req.FTC.Token
			in.Amount = req.FTC.Amount
			in.Currency = req.FTC.Currency
			in.WalletAddress = req.FTC.WalletAddress
		} else {
			in.TradeType = models.TradeSell
			in.Direction = models.DirectionCTF
			in.Chain = req.CTF.Chain
			in.Token = req.CTF.Token
			in.Amount = req.CTF.Amount
			in.Currency = req.CTF.Currency
			in.WalletAddress = req.CTF.WalletAddress
		}

		if in.Amount <= 0 || in.Chain == "" || in.Token == "" || in.Currency == "" || in.WalletAddress == "" {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(TransactionErrorResponse{Error: "Invalid trade body"})
			return
		}

		t, err := svc.CreateTransaction(ctx, in)
		if err != nil {
			logger.Log.Errorw("failed to create external transaction", "user_id", userID, "error", err)
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(TransactionErrorResponse{Error: "Internal server error"})
			return
		}

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(TransactionResponse{Transaction: t})
	}
}
