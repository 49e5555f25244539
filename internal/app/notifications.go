/**
 * @description
 * Notification delivery and history. Emails go out through the configured
 * sender using the user's own Resend API key when one is stored, falling back
 * to the platform key. A notification row is recorded per successful send.
 */
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/remindyoursubs/backend/internal/domain"
)

// ErrNoSenderKey is returned when neither the user nor the platform has an
// email API key configured.
var ErrNoSenderKey = errors.New("no email API key configured")

// EmailSender delivers one email through an external provider.
type EmailSender interface {
	Send(ctx context.Context, apiKey, to, subject, html string) error
}

// NotificationRepository defines the database operations the notification
// service needs.
type NotificationRepository interface {
	CreateNotification(ctx context.Context, n *domain.Notification) (*domain.Notification, error)
	GetNotificationsByUser(ctx context.Context, userID uuid.UUID) ([]domain.Notification, error)
	GetUnreadNotificationsByUser(ctx context.Context, userID uuid.UUID) ([]domain.Notification, error)
	MarkNotificationRead(ctx context.Context, id uuid.UUID) (*domain.Notification, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// NotificationService sends emails and manages the notification history.
type NotificationService struct {
	repo       NotificationRepository
	sender     EmailSender
	logger     *slog.Logger
	defaultKey string
	now        func() time.Time
}

// NewNotificationService creates a new notification service. defaultKey is
// the platform-level email API key used for users without their own.
func NewNotificationService(repo NotificationRepository, sender EmailSender, logger *slog.Logger, defaultKey string) *NotificationService {
	return &NotificationService{
		repo:       repo,
		sender:     sender,
		logger:     logger,
		defaultKey: defaultKey,
		now:        time.Now,
	}
}

// SendEmail delivers the email and records a notification. The notification
// row is only written after the provider accepted the message.
func (s *NotificationService) SendEmail(ctx context.Context, req *domain.EmailRequest) (*domain.Notification, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	user, err := s.repo.GetUserByID(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	apiKey := s.defaultKey
	if user.ResendAPIKey != nil && *user.ResendAPIKey != "" {
		apiKey = *user.ResendAPIKey
	}
	if apiKey == "" {
		return nil, ErrNoSenderKey
	}

	if err := s.sender.Send(ctx, apiKey, req.To, req.Subject, req.HTML); err != nil {
		return nil, fmt.Errorf("failed to send email: %w", err)
	}

	notification, err := s.repo.CreateNotification(ctx, &domain.Notification{
		UserID:         req.UserID,
		SubscriptionID: req.SubscriptionID,
		Type:           domain.NotificationTypeEmail,
		Message:        req.Subject,
		SentAt:         s.now(),
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("email sent", "notification_id", notification.ID, "user_id", req.UserID)
	return notification, nil
}

// GetByUser returns a user's full notification history, newest first.
func (s *NotificationService) GetByUser(ctx context.Context, userID uuid.UUID) ([]domain.Notification, error) {
	return s.repo.GetNotificationsByUser(ctx, userID)
}

// GetUnreadByUser returns only the unread notifications.
func (s *NotificationService) GetUnreadByUser(ctx context.Context, userID uuid.UUID) ([]domain.Notification, error) {
	return s.repo.GetUnreadNotificationsByUser(ctx, userID)
}

// MarkRead flags one notification as read.
func (s *NotificationService) MarkRead(ctx context.Context, id uuid.UUID) (*domain.Notification, error) {
	return s.repo.MarkNotificationRead(ctx, id)
}
