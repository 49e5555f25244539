package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/remindyoursubs/backend/internal/domain"
)

const alertColumns = `id, payment_method_id, user_id, alert_type, message, days_until_expiry,
    triggered_at, is_acknowledged, acknowledged_at`

// CreateAlert inserts a new payment alert.
func (r *PostgresRepository) CreateAlert(ctx context.Context, alert *domain.PaymentAlert) (*domain.PaymentAlert, error) {
	query := `
        INSERT INTO payment_alerts
            (payment_method_id, user_id, alert_type, message, days_until_expiry, triggered_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING ` + alertColumns
	return scanAlert(r.db.QueryRow(ctx, query,
		alert.PaymentMethodID,
		alert.UserID,
		alert.AlertType,
		alert.Message,
		alert.DaysUntilExpiry,
		alert.TriggeredAt,
	))
}

// GetAlertsByPaymentMethod retrieves every alert recorded for a payment
// method, newest first.
func (r *PostgresRepository) GetAlertsByPaymentMethod(ctx context.Context, paymentMethodID uuid.UUID) ([]domain.PaymentAlert, error) {
	query := `SELECT ` + alertColumns + ` FROM payment_alerts
        WHERE payment_method_id = $1 ORDER BY triggered_at DESC`
	rows, err := r.db.Query(ctx, query, paymentMethodID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []domain.PaymentAlert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, *a)
	}
	return alerts, rows.Err()
}

func scanAlert(row pgx.Row) (*domain.PaymentAlert, error) {
	var a domain.PaymentAlert
	err := row.Scan(
		&a.ID,
		&a.PaymentMethodID,
		&a.UserID,
		&a.AlertType,
		&a.Message,
		&a.DaysUntilExpiry,
		&a.TriggeredAt,
		&a.IsAcknowledged,
		&a.AcknowledgedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPaymentAlertNotFound
		}
		return nil, err
	}
	return &a, nil
}
