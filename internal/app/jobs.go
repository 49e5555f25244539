/**
 * @description
 * Scheduled job implementations: the billing reminder sweep and the payment
 * method expiry scan.
 */
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/remindyoursubs/backend/internal/domain"
)

// JobRepository defines database operations needed by the jobs.
type JobRepository interface {
	ListSubscriptions(ctx context.Context) ([]domain.Subscription, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	MarkReminderSent(ctx context.Context, id uuid.UUID, day time.Time) error
}

// EmailNotifier sends one email and records it in the notification history.
type EmailNotifier interface {
	SendEmail(ctx context.Context, req *domain.EmailRequest) (*domain.Notification, error)
}

// AlertChecker scans one user's payment methods for expiry alerts.
type AlertChecker interface {
	CheckAlerts(ctx context.Context, userID uuid.UUID) ([]domain.PaymentAlert, error)
}

// Jobs contains the logic for all scheduled tasks.
type Jobs struct {
	repo     JobRepository
	notifier EmailNotifier
	alerts   AlertChecker
	events   EventPublisher
	logger   *slog.Logger
	now      func() time.Time
}

// NewJobs creates a new Jobs runner. The event publisher may be nil.
func NewJobs(repo JobRepository, notifier EmailNotifier, alerts AlertChecker, events EventPublisher, logger *slog.Logger) *Jobs {
	return &Jobs{
		repo:     repo,
		notifier: notifier,
		alerts:   alerts,
		events:   events,
		logger:   logger,
		now:      time.Now,
	}
}

// ProcessDueReminders is the cron entry point for the reminder sweep.
func (j *Jobs) ProcessDueReminders() {
	j.logger.Info("starting reminder sweep job")
	sent, err := j.RunReminderSweep(context.Background())
	if err != nil {
		j.logger.Error("reminder sweep job failed", "error", err)
		return
	}
	j.logger.Info("reminder sweep job finished", "sent", sent)
}

// RunReminderSweep sends a billing reminder for every active subscription
// whose days-until-billing matches the owner's reminder lead time. A
// subscription already reminded today is skipped, and the sent stamp is only
// written after the email went out. Returns the number of reminders sent.
func (j *Jobs) RunReminderSweep(ctx context.Context) (int, error) {
	subs, err := j.repo.ListSubscriptions(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list subscriptions: %w", err)
	}

	today := domain.DateOnly(j.now())
	users := make(map[uuid.UUID]*domain.User)
	sent := 0

	for i := range subs {
		sub := &subs[i]
		if !sub.IsActive || !sub.ReminderEnabled {
			continue
		}
		if sub.LastReminderSent != nil && domain.DateOnly(*sub.LastReminderSent).Equal(today) {
			continue
		}

		user, ok := users[sub.UserID]
		if !ok {
			user, err = j.repo.GetUserByID(ctx, sub.UserID)
			if err != nil {
				j.logger.Error("failed to load subscription owner", "subscription_id", sub.ID, "error", err)
				continue
			}
			users[sub.UserID] = user
		}

		if sub.DaysUntilBilling(today) != user.ReminderDaysBefore {
			continue
		}

		if err := j.sendReminder(ctx, sub, user); err != nil {
			j.logger.Error("failed to send reminder", "subscription_id", sub.ID, "error", err)
			continue
		}

		if err := j.repo.MarkReminderSent(ctx, sub.ID, today); err != nil {
			j.logger.Error("failed to stamp reminder sent", "subscription_id", sub.ID, "error", err)
		}
		sent++
	}
	return sent, nil
}

func (j *Jobs) sendReminder(ctx context.Context, sub *domain.Subscription, user *domain.User) error {
	days := user.ReminderDaysBefore
	subject := fmt.Sprintf("Reminder: %s renews in %d days", sub.Name, days)
	if days == 0 {
		subject = fmt.Sprintf("Reminder: %s renews today", sub.Name)
	}
	html := fmt.Sprintf(
		"<p>Hi %s,</p><p>Your <strong>%s</strong> subscription of %s is due on %s.</p>",
		user.Name, sub.Name, sub.Price.StringFixed(2), sub.NextBillingDate.Format("2 Jan 2006"),
	)

	subID := sub.ID
	if _, err := j.notifier.SendEmail(ctx, &domain.EmailRequest{
		UserID:         user.ID,
		SubscriptionID: &subID,
		To:             user.Email,
		Subject:        subject,
		HTML:           html,
	}); err != nil {
		return err
	}

	if j.events != nil {
		if err := j.events.Publish(ctx, "reminder.sent", map[string]any{
			"subscription_id": sub.ID,
			"user_id":         user.ID,
			"billing_date":    sub.NextBillingDate,
		}); err != nil {
			j.logger.Error("failed to publish reminder event", "subscription_id", sub.ID, "error", err)
		}
	}
	return nil
}

// ProcessExpiryAlerts is the cron entry point for the payment method expiry
// scan.
func (j *Jobs) ProcessExpiryAlerts() {
	j.logger.Info("starting expiry alert job")
	created, err := j.RunExpiryScan(context.Background())
	if err != nil {
		j.logger.Error("expiry alert job failed", "error", err)
		return
	}
	j.logger.Info("expiry alert job finished", "alerts_created", created)
}

// RunExpiryScan runs the alert check for every user and returns the number of
// alerts created across all of them.
func (j *Jobs) RunExpiryScan(ctx context.Context) (int, error) {
	users, err := j.repo.ListUsers(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list users: %w", err)
	}

	created := 0
	for i := range users {
		alerts, err := j.alerts.CheckAlerts(ctx, users[i].ID)
		if err != nil {
			j.logger.Error("expiry scan failed for user", "user_id", users[i].ID, "error", err)
			continue
		}
		created += len(alerts)
	}
	return created, nil
}
