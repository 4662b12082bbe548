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
	"github.com/vudy/otc-desk/internal/services"
)

// ReadTokener defines only the token methods needed by these handlers.
type ReadTokener interface {
	GetTokenFromRequest(ctx context.Context, r *http.Request) (string, error)
	GetClaims(ctx context.Context, tokenString string) (*jwt.Claims, error)
}

// NotificationFlagger defines the service interface for read-flag toggles.
type NotificationFlagger interface {
	MarkRead(ctx context.Context, notificationID, userID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
}

// NotificationReadResponse confirms a read-flag toggle
// swagger:model NotificationReadResponse
type NotificationReadResponse struct {
	// Confirmation message
	// example: Marked as read
	Message string `json:"message"`
}

// NewMarkNotificationReadHandler returns an HTTP handler marking one
// notification as read.
// @Summary Mark notification read
// @Tags notifications
// @Produce json
// @Param id path string true "Notification ID"
// @Success 200 {object} handlers.NotificationReadResponse
// @Failure 401 {object} handlers.NotificationErrorResponse "Unauthorized"
// @Failure 404 {object} handlers.NotificationErrorResponse "Notification not found"
// @Router /notifications/{id}/read [post]
// @Security BearerAuth
func NewMarkNotificationReadHandler(svc NotificationFlagger, tokenGetter ReadTokener) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		w.Header().Set("Content-Type", "application/json")

		claims, ok := claimsFromRequest(ctx, w, r, tokenGetter)
		if !ok {
			return
		}

		notificationID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(NotificationErrorResponse{Error: "Invalid notification id"})
			return
		}

		if err := svc.MarkRead(ctx, notificationID, claims.UserID); err != nil {
			if errors.Is(err, services.ErrNotificationNotFound) {
				w.WriteHeader(http.StatusNotFound)
				json.NewEncoder(w).Encode(NotificationErrorResponse{Error: "Notification not found"})
				return
			}
			logger.Log.Errorw("failed to mark notification read", "notification_id", notificationID, "error", err)
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(NotificationErrorResponse{Error: "Internal server error"})
			return
		}

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(NotificationReadResponse{Message: "Marked as read"})
	}
}

// NewMarkAllNotificationsReadHandler returns an HTTP handler marking every
// notification of the caller as read.
// @Summary Mark all notifications read
// @Tags notifications
// @Produce json
// @Success 200 {object} handlers.NotificationReadResponse
// @Failure 401 {object} handlers.NotificationErrorResponse "Unauthorized"
// @Router /notifications/read-all [post]
// @Security BearerAuth
func NewMarkAllNotificationsReadHandler(svc NotificationFlagger, tokenGetter ReadTokener) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		w.Header().Set("Content-Type", "application/json")

		claims, ok := claimsFromRequest(ctx, w, r, tokenGetter)
		if !ok {
			return
		}

		if err := svc.MarkAllRead(ctx, claims.UserID); err != nil {
			logger.Log.Errorw("failed to mark all notifications read", "user_id", claims.UserID, "error", err)
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(NotificationErrorResponse{Error: "Internal server error"})
			return
		}

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(NotificationReadResponse{Message: "Marked as read"})
	}
}
