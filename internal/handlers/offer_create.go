package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/vudy/otc-desk/internal/jwt"
	"github.com/vudy/otc-desk/internal/logger"
	"github.com/vudy/otc-desk/internal/models"
	"github.com/vudy/otc-desk/internal/services"
)

// OfferTokener defines only the token methods needed by this handler.
type OfferTokener interface {
	GetTokenFromRequest(ctx context.Context, r *http.Request) (string, error)
	GetClaims(ctx context.Context, tokenString string) (*jwt.Claims, error)
}

// OfferSubmitter defines the service interface for submitting offers.
type OfferSubmitter interface {
	SubmitOffer(ctx context.Context, in services.SubmitOfferInput) (*models.OfferDB, error)
}

// SubmitOfferRequest is the JSON body for bidding on a transaction
// swagger:model SubmitOfferRequest
type SubmitOfferRequest struct {
	// Offered amount
	// required: true
	// example: 85.0
	Amount float64 `json:"amount"`

	// Offered currency code
	// required: true
	// example: GTQ
	Currency string `json:"currency"`

	// Settlement bank account (crypto-to-fiat offers)
	BankAccountID *uuid.UUID `json:"bank_account_id,omitempty"`

	// Settlement wallet (fiat-to-crypto offers)
	WalletAddress *string `json:"wallet_address,omitempty"`

	// Promised settlement time in minutes
	// required: true
	// example: 15
	ETAMinutes int `json:"eta_minutes"`

	// Free-text notes
	Notes *string `json:"notes,omitempty"`
}

// OfferResponse wraps an offer
// swagger:model OfferResponse
type OfferResponse struct {
	Offer *models.OfferDB `json:"offer"`
}

// NewSubmitOfferHandler returns an HTTP handler for bidding on a trade request.
// @Summary Submit offer
// @Description Registers a bid on a pending or offer_made transaction. A user holds at most one open offer per transaction.
// @Tags offers
// @Accept json
// @Produce json
// @Param id path string true "Transaction ID"
// @Param request body handlers.SubmitOfferRequest true "Submit Offer Request"
// @Success 201 {object} handlers.OfferResponse
// @Failure 400 {object} handlers.TransactionErrorResponse "Invalid request"
// @Failure 401 {object} handlers.TransactionErrorResponse "Unauthorized"
// @Failure 404 {object} handlers.TransactionErrorResponse "Transaction not found"
// @Failure 409 {object} handlers.TransactionErrorResponse "Offer window closed or duplicate offer"
// @Router /transactions/{id}/offers [post]
// @Security BearerAuth
func NewSubmitOfferHandler(svc OfferSubmitter, tokenGetter OfferTokener) http.HandlerFunc {
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

		var req SubmitOfferRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Log.Errorw("failed to decode submit offer request", "error", err)
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(TransactionErrorResponse{Error: "Invalid request body"})
			return
		}

		if req.Amount <= 0 || req.Currency == "" {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(TransactionErrorResponse{Error: "Invalid amount or currency"})
			return
		}
		if req.ETAMinutes <= 0 {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(TransactionErrorResponse{Error: "Invalid ETA"})
			return
		}

		offer, err := svc.SubmitOffer(ctx, services.SubmitOfferInput{
			TransactionID: transactionID,
			UserID:        claims.UserID,
			Amount:        req.Amount,
			Currency:      req.Currency,
			BankAccountID: req.BankAccountID,
			WalletAddress: req.WalletAddress,
			ETAMinutes:    req.ETAMinutes,
			Notes:         req.Notes,
		})
		if err != nil {
			writeLifecycleError(w, err, transactionID)
			return
		}

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(OfferResponse{Offer: offer})
	}
}
