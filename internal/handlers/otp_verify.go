package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vudy/otc-desk/internal/logger"
	"github.com/vudy/otc-desk/internal/services"
)

// CodeVerifier resolves an OTP challenge into a session token.
type CodeVerifier interface {
	VerifyCode(ctx context.Context, challengeID, code string) (string, error)
}

// OTPVerifyRequest is the JSON body for verifying a login code
// swagger:model OTPVerifyRequest
type OTPVerifyRequest struct {
	// Challenge identifier from the request step
	// required: true
	ChallengeID string `json:"challenge_id"`

	// One-time code
	// required: true
	// example: 424242
	Code string `json:"code"`
}

// OTPVerifyResponse carries the issued session token
// swagger:model OTPVerifyResponse
type OTPVerifyResponse struct {
	// Bearer session token
	Token string `json:"token"`
}

// NewOTPVerifyHandler returns an HTTP handler that finishes an OTP login.
// @Summary Verify login code
// @Description Verifies the one-time code and issues a session token.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body handlers.OTPVerifyRequest true "OTP Verify Request"
// @Success 200 {object} handlers.OTPVerifyResponse
// @Failure 400 {object} handlers.OTPErrorResponse "Invalid request body"
// @Failure 401 {object} handlers.OTPErrorResponse "Invalid code"
// @Router /auth/verify [post]
func NewOTPVerifyHandler(svc CodeVerifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		w.Header().Set("Content-Type", "application/json")

		var req OTPVerifyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Log.Errorw("failed to decode otp verify request", "error", err)
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(OTPErrorResponse{Error: "Invalid request body"})
			return
		}

		if req.ChallengeID == "" || req.Code == "" {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(OTPErrorResponse{Error: "Missing challenge or code"})
			return
		}

		token, err := svc.VerifyCode(ctx, req.ChallengeID, req.Code)
		if err != nil {
			if errors.Is(err, services.ErrInvalidCode) {
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(OTPErrorResponse{Error: "Invalid code"})
				return
			}
			logger.Log.Errorw("failed to verify otp code", "error", err)
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(OTPErrorResponse{Error: "Internal server error"})
			return
		}

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(OTPVerifyResponse{Token: token})
	}
}
