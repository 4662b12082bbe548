package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/vudy/otc-desk/internal/jwt"
	"github.com/vudy/otc-desk/internal/logger"
	"github.com/vudy/otc-desk/internal/models"
	"github.com/vudy/otc-desk/internal/services"
)

// PatchTokener defines only the token methods needed by this handler.
type PatchTokener interface {
	GetTokenFromRequest(ctx context.Context, r *http.Request) (string, error)
	GetClaims(ctx context.Context, tokenString string) (*jwt.Claims, error)
}

// TransactionPatcher defines the service interface for patching a transaction.
type TransactionPatcher interface {
	PatchTransaction(ctx context.Context, transactionID, callerID uuid.UUID, patch models.TransactionMetadataPatch, fail bool) (*models.TransactionDB, error)
}

// PatchTransactionRequest is the JSON body for the generic field patch.
// Only operator metadata is patchable; the sole status change reachable from
// here is the move to failed.
// swagger:model PatchTransactionRequest
type PatchTransactionRequest struct {
	ClientAlias *string `json:"client_alias,omitempty"`
	KYCLink     *string `json:"kyc_link,omitempty"`
	Notes       *string `json:"notes,omitempty"`
	Origin      *string `json:"origin,omitempty"`
	SLAMinutes  *int    `json:"sla_minutes,omitempty"`

	// Status may only be set to "failed"
	Status *string `json:"status,omitempty"`
}

// NewPatchTransactionHandler returns an HTTP handler for the metadata patch.
// @Summary Patch transaction
// @Description Patches operator metadata. Setting status to failed routes through the lifecycle gate; any other status value is rejected.
// @Tags transactions
// @Accept json
// @Produce json
// @Param id path string true "Transaction ID"
// @Param request body handlers.PatchTransactionRequest true "Patch Request"
// @Success 200 {object} handlers.TransactionResponse
// @Failure 400 {object} handlers.TransactionErrorResponse "Invalid request"
// @Failure 401 {object} handlers.TransactionErrorResponse "Unauthorized"
// @Failure 403 {object} handlers.TransactionErrorResponse "Not the owner"
// @Failure 404 {object} handlers.TransactionErrorResponse "Transaction not found"
// @Failure 409 {object} handlers.TransactionErrorResponse "Terminal transaction"
// @Router /transactions/{id} [patch]
// @Security BearerAuth
func NewPatchTransactionHandler(svc TransactionPatcher, tokenGetter PatchTokener) http.HandlerFunc {
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

		var req PatchTransactionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Log.Errorw("failed to decode patch request", "error", err)
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(TransactionErrorResponse{Error: "Invalid request body"})
			return
		}

		fail := false
		if req.Status != nil {
			if *req.Status != models.StatusFailed {
				w.WriteHeader(http.StatusBadRequest)
				json.NewEncoder(w).Encode(TransactionErrorResponse{Error: "Status can only be patched to failed"})
				return
			}
			fail = true
		}

		t, err := svc.PatchTransaction(ctx, transactionID, claims.UserID, models.TransactionMetadataPatch{
			ClientAlias: req.ClientAlias,
			KYCLink:     req.KYCLink,
			Notes:       req.Notes,
			Origin:      req.Origin,
			SLAMinutes:  req.SLAMinutes,
		}, fail)
		if err != nil {
			writeLifecycleError(w, err, transactionID)
			return
		}

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(TransactionResponse{Transaction: t})
	}
}

// writeLifecycleError maps lifecycle sentinel errors onto the HTTP taxonomy.
func writeLifecycleError(w http.ResponseWriter, err error, transactionID uuid.UUID) {
	switch {
	case errors.Is(err, services.ErrTransactionNotFound):
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(TransactionErrorResponse{Error: "Transaction not found"})
	case errors.Is(err, services.ErrOfferNotFound):
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(TransactionErrorResponse{Error: "Offer not found"})
	case errors.Is(err, services.ErrForbidden):
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(TransactionErrorResponse{Error: "Forbidden"})
	case errors.Is(err, services.ErrOwnTransaction):
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(TransactionErrorResponse{Error: "Cannot offer on own transaction"})
	case errors.Is(err, services.ErrDuplicateOffer):
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(TransactionErrorResponse{Error: "Open offer already exists"})
	case errors.Is(err, services.ErrProofRequired):
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(TransactionErrorResponse{Error: "Payment proof required"})
	case errors.Is(err, services.ErrConflict):
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(TransactionErrorResponse{Error: "Transaction status conflict"})
	default:
		logger.Log.Errorw("lifecycle operation failed", "transaction_id", transactionID, "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(TransactionErrorResponse{Error: "Internal server error"})
	}
}
