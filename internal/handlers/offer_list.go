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

// OfferListTokener defines only the token methods needed by this handler.
type OfferListTokener interface {
	GetTokenFromRequest(ctx context.Context, r *http.Request) (string, error)
	GetClaims(ctx context.Context, tokenString string) (*jwt.Claims, error)
}

// OfferLister defines the service interface for listing a transaction's offers.
type OfferLister interface {
	ListOffers(ctx context.Context, transactionID uuid.UUID) ([]models.OfferDB, error)
}

// OfferListResponse wraps a transaction's offers, oldest first
// swagger:model OfferListResponse
type OfferListResponse struct {
	Offers []models.OfferDB `json:"offers"`
}

// NewListOffersHandler returns an HTTP handler listing all offers on a
// transaction.
// @Summary List offers
// @Tags offers
// @Produce json
// @Param id path string true "Transaction ID"
// @Success 200 {object} handlers.OfferListResponse
// @Failure 401 {object} handlers.TransactionErrorResponse "Unauthorized"
// @Failure 404 {object} handlers.TransactionErrorResponse "Transaction not found"
// @Router /transactions/{id}/offers [get]
// @Security BearerAuth
func NewListOffersHandler(svc OfferLister, tokenGetter OfferListTokener) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		w.Header().Set("Content-Type", "application/json")

		if _, ok := claimsFromRequest(ctx, w, r, tokenGetter); !ok {
			return
		}

		transactionID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(TransactionErrorResponse{Error: "Invalid transaction id"})
			return
		}

		offers, err := svc.ListOffers(ctx, transactionID)
		if err != nil {
			writeLifecycleError(w, err, transactionID)
			return
		}

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(OfferListResponse{Offers: offers})
	}
}
