package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/vudy/otc-desk/internal/logger"
)

// ErrInvalidCode is returned when the identity provider rejects the OTP code.
var ErrInvalidCode = errors.New("invalid verification code")

// IdentityProvider is the external OTP capability. Code issuance and
// verification are entirely the provider's business; only the returned user
// identifier is trusted.
type IdentityProvider interface {
	RequestCode(ctx context.Context, email string) (string, error)
	VerifyCode(ctx context.Context, challengeID, code string) (uuid.UUID, error)
}

// SessionIssuer generates session tokens.
type SessionIssuer interface {
	Generate(ctx context.Context, userID uuid.UUID) (string, error)
}

// AuthService handles OTP login against the identity provider.
type AuthService struct {
	identity IdentityProvider
	sessions SessionIssuer
}

// NewAuthService creates a new AuthService instance.
func NewAuthService(identity IdentityProvider, sessions SessionIssuer) *AuthService {
	return &AuthService{
		identity: identity,
		sessions: sessions,
	}
}

// RequestCode starts an OTP challenge for the email.
func (svc *AuthService) RequestCode(ctx context.Context, email string) (string, error) {
	challengeID, err := svc.identity.RequestCode(ctx, email)
	if err != nil {
		logger.Log.Errorw("failed to request otp code", "error", err)
		return "", err
	}
	return challengeID, nil
}

// VerifyCode resolves the OTP challenge and issues a session token for the
// identified user.
func (svc *AuthService) VerifyCode(ctx context.Context, challengeID, code string) (string, error) {
	userID, err := svc.identity.VerifyCode(ctx, challengeID, code)
	if err != nil {
		logger.Log.Warnw("otp verification failed", "challenge_id", challengeID, "error", err)
		return "", ErrInvalidCode
	}

	token, err := svc.sessions.Generate(ctx, userID)
	if err != nil {
		logger.Log.Errorw("failed to generate session token", "user_id", userID, "error", err)
		return "", err
	}

	return token, nil
}
