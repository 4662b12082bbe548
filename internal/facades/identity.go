package facades

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/vudy/otc-desk/internal/logger"
)

var (
	// ErrCodeRejected is returned when the identity provider refuses the OTP code.
	ErrCodeRejected = errors.New("verification code rejected")
)

// IdentityFacade wraps the external Vudy identity API. OTP issuance and
// verification happen entirely on the provider side; the service only trusts
// the user identifier it returns.
type IdentityFacade struct {
	baseURL string
	client  *http.Client
}

// NewIdentityFacade creates a facade for the identity provider at baseURL.
func NewIdentityFacade(baseURL string) *IdentityFacade {
	return &IdentityFacade{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type requestCodeRequest struct {
	Email string `json:"email"`
}

type requestCodeResponse struct {
	ChallengeID string `json:"challenge_id"`
}

type verifyCodeRequest struct {
	ChallengeID string `json:"challenge_id"`
	Code        string `json:"code"`
}

type verifyCodeResponse struct {
	UserID string `json:"user_id"`
}

// RequestCode asks the provider to send an OTP code to the email and returns
// the challenge identifier to verify against.
func (f *IdentityFacade) RequestCode(ctx context.Context, email string) (string, error) {
	var resp requestCodeResponse
	if err := f.post(ctx, "/v1/otp/request", requestCodeRequest{Email: email}, &resp); err != nil {
		logger.Log.Errorw("identity request code failed", "error", err)
		return "", err
	}
	return resp.ChallengeID, nil
}

// VerifyCode verifies the OTP code against the challenge and returns the
// provider's user identifier.
func (f *IdentityFacade) VerifyCode(ctx context.Context, challengeID, code string) (uuid.UUID, error) {
	var resp verifyCodeResponse
	err := f.post(ctx, "/v1/otp/verify", verifyCodeRequest{ChallengeID: challengeID, Code: code}, &resp)
	if err != nil {
		logger.Log.Errorw("identity verify code failed", "challenge_id", challengeID, "error", err)
		return uuid.Nil, err
	}

	userID, err := uuid.Parse(resp.UserID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("identity provider returned invalid user id: %w", err)
	}
	return userID, nil
}

func (f *IdentityFacade) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrCodeRejected
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("identity provider returned status %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
