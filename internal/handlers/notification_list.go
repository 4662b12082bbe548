package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/vudy/otc-desk/internal/jwt"
	"github.com/vudy/otc-desk/internal/logger"
	"github.com/vudy/otc-desk/internal/models"
)

// NotificationTokener defines only the token methods needed by this handler.
type NotificationTokener interface {
	GetTokenFromRequest(ctx context.Context, r *http.Request) (string, error)
	GetClaims(ctx context.Context, tokenString string) (*jwt.Claims, error)
}

// NotificationLister defines the service interface for listing notifications.
type NotificationLister interface {
	List(ctx context.Context, userID uuid.UUID) ([]models.NotificationDB, error)
}

// NotificationListResponse wraps the user's notifications, newest first
// swagger:model NotificationListResponse
type NotificationListResponse struct {
	Notifications []models.NotificationDB `json:"notifications"`
}

// NotificationErrorResponse represents an error response for notification operations
// swagger:model NotificationErrorResponse
type NotificationErrorResponse struct {
	// Error message
	// example: Notification not found
	Error string `json:"error"`
}

// NewListNotificationsHandler returns an HTTP handler listing the caller's
// notifications.
// @Summary List notifications
// @Tags notifications
// @Produce json
// @Success 200 {object} handlers.NotificationListResponse
// @Failure 401 {object} handlers.NotificationErrorResponse "Unauthorized"
// @Router /notifications [get]
// @Security BearerAuth
func NewListNotificationsHandler(svc NotificationLister, tokenGetter NotificationTokener) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		w.Header().Set("Content-Type", "application/json")

		claims, ok := claimsFromRequest(ctx, w, r, tokenGetter)
		if !ok {
			return
		}

		notifications, err := svc.List(ctx, claims.UserID)
		if err != nil {
			logger.Log.Errorw("failed to list notifications", "user_id", claims.UserID, "error", err)
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(NotificationErrorResponse{Error: "Internal server error"})
			return
		}

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(NotificationListResponse{Notifications: notifications})
	}
}
