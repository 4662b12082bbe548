package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/vudy/otc-desk/internal/jwt"
	"github.com/vudy/otc-desk/internal/logger"
)

// ProofTokener defines only the token methods needed by this handler.
type ProofTokener interface {
	GetTokenFromRequest(ctx context.Context, r *http.Request) (string, error)
	GetClaims(ctx context.Context, tokenString string) (*jwt.Claims, error)
}

// ProofUploader defines the service interface for recording payment proof.
type ProofUploader interface {
	UploadProof(ctx context.Context, transactionID, callerID uuid.UUID, fileName, hash string) error
}

// UploadProofRequest is the JSON body for recording payment proof.
// The hash is stored for display; it is not verified against the artifact.
// swagger:model UploadProofRequest
type UploadProofRequest struct {
	// Proof file name
	// required: true
	// example: receipt.png
	FileName string `json:"file_name"`

	// Content hash of the uploaded artifact
	// required: true
	Hash string `json:"hash"`
}

// UploadProofResponse confirms the proof flag was set
// swagger:model UploadProofResponse
type UploadProofResponse struct {
	// Confirmation message
	// example: Proof recorded
	Message string `json:"message"`
}

// NewUploadProofHandler returns an HTTP handler for recording payment proof
// on a sell trade in escrow.
// @Summary Upload payment proof
// @Description Records the payment proof on a crypto-to-fiat trade in escrow. Only the accepted counterparty may upload.
// @Tags transactions
// @Accept json
// @Produce json
// @Param id path string true "Transaction ID"
// @Param request body handlers.UploadProofRequest true "Upload Proof Request"
// @Success 200 {object} handlers.UploadProofResponse
// @Failure 400 {object} handlers.TransactionErrorResponse "Invalid request"
// @Failure 401 {object} handlers.TransactionErrorResponse "Unauthorized"
// @Failure 403 {object} handlers.TransactionErrorResponse "Not the counterparty"
// @Failure 404 {object} handlers.TransactionErrorResponse "Transaction not found"
// @Failure 409 {object} handlers.TransactionErrorResponse "Not a sell trade in escrow"
// @Router /transactions/{id}/proof [post]
// @Security BearerAuth
func NewUploadProofHandler(svc ProofUploader, tokenGetter ProofTokener) http.HandlerFunc {
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

		var req UploadProofRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Log.Errorw("failed to decode upload proof request", "error", err)
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(TransactionErrorResponse{Error: "Invalid request body"})
			return
		}

		if req.FileName == "" {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(TransactionErrorResponse{Error: "Missing file name"})
			return
		}

		if err := svc.UploadProof(ctx, transactionID, claims.UserID, req.FileName, req.Hash); err != nil {
			writeLifecycleError(w, err, transactionID)
			return
		}

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(UploadProofResponse{Message: "Proof recorded"})
	}
}
