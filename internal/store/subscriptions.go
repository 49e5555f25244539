/**
 * @description
 * Subscription persistence. Prices travel as numeric text so they round-trip
 * through shopspring/decimal without floating-point drift.
 */
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/remindyoursubs/backend/internal/domain"
)

const subscriptionColumns = `id, user_id, name, price::text, next_billing_date, payment_method_id,
    is_active, reminder_enabled, reminder_timing, reminder_custom_minutes, last_reminder_sent,
    created_at, updated_at`

func scanSubscription(row pgx.Row) (*domain.Subscription, error) {
	var s domain.Subscription
	var price string
	err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.Name,
		&price,
		&s.NextBillingDate,
		&s.PaymentMethodID,
		&s.IsActive,
		&s.ReminderEnabled,
		&s.ReminderTiming,
		&s.ReminderCustomMinutes,
		&s.LastReminderSent,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}
	s.Price, err = decimal.NewFromString(price)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func collectSubscriptions(rows pgx.Rows) ([]domain.Subscription, error) {
	defer rows.Close()
	var subs []domain.Subscription
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, *s)
	}
	return subs, rows.Err()
}

// CreateSubscription inserts a new subscription and returns it with generated
// fields.
func (r *PostgresRepository) CreateSubscription(ctx context.Context, sub *domain.Subscription) (*domain.Subscription, error) {
	query := `
        INSERT INTO subscriptions
            (user_id, name, price, next_billing_date, payment_method_id,
             is_active, reminder_enabled, reminder_timing, reminder_custom_minutes)
        VALUES ($1, $2, $3::numeric, $4, $5, $6, $7, $8, $9)
        RETURNING ` + subscriptionColumns
	return scanSubscription(r.db.QueryRow(ctx, query,
		sub.UserID,
		sub.Name,
		sub.Price.String(),
		sub.NextBillingDate,
		sub.PaymentMethodID,
		sub.IsActive,
		sub.ReminderEnabled,
		sub.ReminderTiming,
		sub.ReminderCustomMinutes,
	))
}

// GetSubscription retrieves a subscription by ID.
func (r *PostgresRepository) GetSubscription(ctx context.Context, id uuid.UUID) (*domain.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE id = $1`
	return scanSubscription(r.db.QueryRow(ctx, query, id))
}

// ListSubscriptions retrieves every subscription, oldest first.
func (r *PostgresRepository) ListSubscriptions(ctx context.Context) ([]domain.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions ORDER BY created_at`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	return collectSubscriptions(rows)
}

// GetSubscriptionsByUser retrieves all subscriptions owned by a user.
func (r *PostgresRepository) GetSubscriptionsByUser(ctx context.Context, userID uuid.UUID) ([]domain.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE user_id = $1 ORDER BY created_at`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	return collectSubscriptions(rows)
}

// UpdateSubscription overwrites a subscription's mutable fields.
func (r *PostgresRepository) UpdateSubscription(ctx context.Context, sub *domain.Subscription) (*domain.Subscription, error) {
	query := `
        UPDATE subscriptions
        SET user_id = $1, name = $2, price = $3::numeric, next_billing_date = $4,
            payment_method_id = $5, is_active = $6, reminder_enabled = $7,
            reminder_timing = $8, reminder_custom_minutes = $9, updated_at = NOW()
        WHERE id = $10
        RETURNING ` + subscriptionColumns
	return scanSubscription(r.db.QueryRow(ctx, query,
		sub.UserID,
		sub.Name,
		sub.Price.String(),
		sub.NextBillingDate,
		sub.PaymentMethodID,
		sub.IsActive,
		sub.ReminderEnabled,
		sub.ReminderTiming,
		sub.ReminderCustomMinutes,
		sub.ID,
	))
}

// DeleteSubscription removes a subscription record.
func (r *PostgresRepository) DeleteSubscription(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM subscriptions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSubscriptionNotFound
	}
	return nil
}

// MarkReminderSent stamps the day a reminder email went out for a
// subscription.
func (r *PostgresRepository) MarkReminderSent(ctx context.Context, id uuid.UUID, day time.Time) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE subscriptions SET last_reminder_sent = $1, updated_at = NOW() WHERE id = $2`, day, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSubscriptionNotFound
	}
	return nil
}

// GetPaymentMethodUsage returns how many active subscriptions are charged to
// a payment method and their combined monthly price.
func (r *PostgresRepository) GetPaymentMethodUsage(ctx context.Context, paymentMethodID uuid.UUID) (int, decimal.Decimal, error) {
	query := `
        SELECT COUNT(*), COALESCE(SUM(price), 0)::text
        FROM subscriptions
        WHERE payment_method_id = $1 AND is_active = true
    `
	var count int
	var total string
	if err := r.db.QueryRow(ctx, query, paymentMethodID).Scan(&count, &total); err != nil {
		return 0, decimal.Zero, err
	}
	sum, err := decimal.NewFromString(total)
	if err != nil {
		return 0, decimal.Zero, err
	}
	return count, sum, nil
}
