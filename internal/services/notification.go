package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/vudy/otc-desk/internal/models"
)

// ErrNotificationNotFound is returned when the notification does not exist or
// belongs to another user.
var ErrNotificationNotFound = errors.New("notification not found")

// NotificationReader lists a user's notifications.
type NotificationReader interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.NotificationDB, error)
}

// NotificationFlagWriter toggles read flags.
type NotificationFlagWriter interface {
	MarkRead(ctx context.Context, notificationID, userID uuid.UUID) (int64, error)
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
}

// NotificationService reads the per-user notification log and toggles read
// flags. Records themselves are written only by the lifecycle engine.
type NotificationService struct {
	reader NotificationReader
	writer NotificationFlagWriter
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(reader NotificationReader, writer NotificationFlagWriter) *NotificationService {
	return &NotificationService{reader: reader, writer: writer}
}

// List returns the user's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, userID uuid.UUID) ([]models.NotificationDB, error) {
	return s.reader.ListByUser(ctx, userID)
}

// MarkRead flags one notification as read.
func (s *NotificationService) MarkRead(ctx context.Context, notificationID, userID uuid.UUID) error {
	rows, err := s.writer.MarkRead(ctx, notificationID, userID)
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

// MarkAllRead flags all of the user's notifications as read.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	_, err := s.writer.MarkAllRead(ctx, userID)
	return err
}
