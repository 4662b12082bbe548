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
)

// AcceptTokener defines only the token methods needed by this handler.
type AcceptTokener interface {
	GetTokenFromRequest(ctx context.Context, r *http.Request) (string, error)
	GetClaims(ctx context.Context, tokenString string) (*jwt.Claims, error)
}

// OfferAccepter defines the service interface for accepting an offer.
type OfferAccepter interface {
	AcceptOffer(ctx context.Context, transactionID, offerID, callerID uuid.UUID) (*models.TransactionDB, error)
}

// AcceptOfferRequest is the JSON body naming the winning offer
// swagger:model AcceptOfferRequest
type AcceptOfferRequest struct {
	// Offer to accept
	// required: true
	OfferID uuid.UUID `json:"offer_id"`
}

// NewAcceptOfferHandler returns an HTTP handler for accepting one offer.
// Exactly one concurrent accept per transaction succeeds; every other call
// observes a conflict.
// @Summary Accept offer
// @Description Picks the winning offer: the transaction moves to escrow, the accepted offer becomes won, all siblings become lost, and every participant is notified.
// @Tags offers
// @Accept json
// @Produce json
// @Param id path string true "Transaction ID"
// @Param request body handlers.AcceptOfferRequest true "Accept Offer Request"
// @Success 200 {object} handlers.TransactionResponse
// @Failure 400 {object} handlers.TransactionErrorResponse "Invalid request"
// @Failure 401 {object} handlers.TransactionErrorResponse "Unauthorized"
// @Failure 403 {object} handlers.TransactionErrorResponse "Not the owner"
// @Failure 404 {object} handlers.TransactionErrorResponse "Transaction or offer not found"
// @Failure 409 {object} handlers.TransactionErrorResponse "Transaction no longer accepts offers"
// @Router /transactions/{id}/accept [post]
// @Security BearerAuth
func NewAcceptOfferHandler(svc OfferAccepter, tokenGetter AcceptTokener) http.HandlerFunc {
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

		var req AcceptOfferRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OfferID == uuid.Nil {
			logger.Log.Errorw("failed to decode accept offer request", "error", err)
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(TransactionErrorResponse{Error: "Invalid request body"})
			return
		}

		t, err := svc.AcceptOffer(ctx, transactionID, req.OfferID, claims.UserID)
		if err != nil {
			writeLifecycleError(w, err, transactionID)
			return
		}

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(TransactionResponse{Transaction: t})
	}
}
