package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/vudy/otc-desk/internal/logger"
)

// CodeRequester starts an OTP challenge with the identity provider.
type CodeRequester interface {
	RequestCode(ctx context.Context, email string) (string, error)
}

// OTPRequest is the JSON body for requesting a login code
// swagger:model OTPRequest
type OTPRequest struct {
	// Email to send the code to
	// required: true
	// example: trader@example.com
	Email string `json:"email"`
}

// OTPResponse carries the challenge to verify against
// swagger:model OTPResponse
type OTPResponse struct {
	// Challenge identifier
	ChallengeID string `json:"challenge_id"`
}

// OTPErrorResponse represents an error response for the OTP flow
// swagger:model OTPErrorResponse
type OTPErrorResponse struct {
	// Error message
	// example: Invalid email
	Error string `json:"error"`
}

// NewOTPRequestHandler returns an HTTP handler that starts an OTP login.
// @Summary Request login code
// @Description Asks the identity provider to send a one-time code to the email.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body handlers.OTPRequest true "OTP Request"
// @Success 200 {object} handlers.OTPResponse
// @Failure 400 {object} handlers.OTPErrorResponse "Invalid email"
// @Failure 502 {object} handlers.OTPErrorResponse "Identity provider unavailable"
// @Router /auth/otp [post]
func NewOTPRequestHandler(svc CodeRequester) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		w.Header().Set("Content-Type", "application/json")

		var req OTPRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Log.Errorw("failed to decode otp request", "error", err)
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(OTPErrorResponse{Error: "Invalid request body"})
			return
		}

		req.Email = strings.TrimSpace(req.Email)
		if req.Email == "" || !strings.Contains(req.Email, "@") {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(OTPErrorResponse{Error: "Invalid email"})
			return
		}

		challengeID, err := svc.RequestCode(ctx, req.Email)
		if err != nil {
			logger.Log.Errorw("failed to request otp code", "error", err)
			w.WriteHeader(http.StatusBadGateway)
			json.NewEncoder(w).Encode(OTPErrorResponse{Error: "Identity provider unavailable"})
			return
		}

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(OTPResponse{ChallengeID: challengeID})
	}
}
