package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/remindyoursubs/backend/internal/domain"
)

const notificationColumns = `id, user_id, subscription_id, type, message, sent_at, is_read, created_at`

func scanNotification(row pgx.Row) (*domain.Notification, error) {
	var n domain.Notification
	err := row.Scan(
		&n.ID,
		&n.UserID,
		&n.SubscriptionID,
		&n.Type,
		&n.Message,
		&n.SentAt,
		&n.IsRead,
		&n.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotificationNotFound
		}
		return nil, err
	}
	return &n, nil
}

// CreateNotification records one delivered message.
func (r *PostgresRepository) CreateNotification(ctx context.Context, n *domain.Notification) (*domain.Notification, error) {
	query := `
        INSERT INTO notifications (user_id, subscription_id, type, message, sent_at)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING ` + notificationColumns
	return scanNotification(r.db.QueryRow(ctx, query,
		n.UserID,
		n.SubscriptionID,
		n.Type,
		n.Message,
		n.SentAt,
	))
}

func (r *PostgresRepository) queryNotifications(ctx context.Context, query string, args ...any) ([]domain.Notification, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []domain.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, *n)
	}
	return notifications, rows.Err()
}

// GetNotificationsByUser retrieves a user's notifications, newest first.
func (r *PostgresRepository) GetNotificationsByUser(ctx context.Context, userID uuid.UUID) ([]domain.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications
        WHERE user_id = $1 ORDER BY created_at DESC`
	return r.queryNotifications(ctx, query, userID)
}

// GetUnreadNotificationsByUser retrieves a user's unread notifications,
// newest first.
func (r *PostgresRepository) GetUnreadNotificationsByUser(ctx context.Context, userID uuid.UUID) ([]domain.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications
        WHERE user_id = $1 AND is_read = false ORDER BY created_at DESC`
	return r.queryNotifications(ctx, query, userID)
}

// MarkNotificationRead flips the read flag and returns the updated record.
func (r *PostgresRepository) MarkNotificationRead(ctx context.Context, id uuid.UUID) (*domain.Notification, error) {
	query := `
        UPDATE notifications SET is_read = true
        WHERE id = $1
        RETURNING ` + notificationColumns
	return scanNotification(r.db.QueryRow(ctx, query, id))
}
