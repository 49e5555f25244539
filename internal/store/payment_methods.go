/**
 * @description
 * Payment method persistence. The default-flag invariant (at most one default
 * per user) is enforced here with single transactional updates scoped by user
 * ID, so a crash mid-sequence can never leave interleaved defaults behind.
 */
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/remindyoursubs/backend/internal/domain"
)

const paymentMethodColumns = `id, user_id, type, provider, last_four_digits, nickname,
    expiry_month, expiry_year, is_default, is_active, created_at, updated_at`

func scanPaymentMethod(row pgx.Row) (*domain.PaymentMethod, error) {
	var pm domain.PaymentMethod
	err := row.Scan(
		&pm.ID,
		&pm.UserID,
		&pm.Type,
		&pm.Provider,
		&pm.LastFourDigits,
		&pm.Nickname,
		&pm.ExpiryMonth,
		&pm.ExpiryYear,
		&pm.IsDefault,
		&pm.IsActive,
		&pm.CreatedAt,
		&pm.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPaymentMethodNotFound
		}
		return nil, err
	}
	return &pm, nil
}

func collectPaymentMethods(rows pgx.Rows) ([]domain.PaymentMethod, error) {
	defer rows.Close()
	var methods []domain.PaymentMethod
	for rows.Next() {
		pm, err := scanPaymentMethod(rows)
		if err != nil {
			return nil, err
		}
		methods = append(methods, *pm)
	}
	return methods, rows.Err()
}

// GetPaymentMethod retrieves a payment method by ID.
func (r *PostgresRepository) GetPaymentMethod(ctx context.Context, id uuid.UUID) (*domain.PaymentMethod, error) {
	query := `SELECT ` + paymentMethodColumns + ` FROM payment_methods WHERE id = $1`
	return scanPaymentMethod(r.db.QueryRow(ctx, query, id))
}

// GetPaymentMethodsByUser retrieves all payment methods owned by a user.
func (r *PostgresRepository) GetPaymentMethodsByUser(ctx context.Context, userID uuid.UUID) ([]domain.PaymentMethod, error) {
	query := `SELECT ` + paymentMethodColumns + ` FROM payment_methods WHERE user_id = $1 ORDER BY created_at`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	return collectPaymentMethods(rows)
}

// GetActivePaymentMethodsByUser retrieves a user's active payment methods.
func (r *PostgresRepository) GetActivePaymentMethodsByUser(ctx context.Context, userID uuid.UUID) ([]domain.PaymentMethod, error) {
	query := `SELECT ` + paymentMethodColumns + ` FROM payment_methods
        WHERE user_id = $1 AND is_active = true ORDER BY created_at`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	return collectPaymentMethods(rows)
}

// CreatePaymentMethod inserts a new payment method. When the new method is
// the default, existing defaults of the same user are cleared in the same
// transaction.
func (r *PostgresRepository) CreatePaymentMethod(ctx context.Context, pm *domain.PaymentMethod) (*domain.PaymentMethod, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if pm.IsDefault {
		if _, err := tx.Exec(ctx,
			`UPDATE payment_methods SET is_default = false, updated_at = NOW()
             WHERE user_id = $1 AND is_default = true`, pm.UserID); err != nil {
			return nil, err
		}
	}

	query := `
        INSERT INTO payment_methods
            (user_id, type, provider, last_four_digits, nickname, expiry_month, expiry_year,
             is_default, is_active)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, true)
        RETURNING ` + paymentMethodColumns
	created, err := scanPaymentMethod(tx.QueryRow(ctx, query,
		pm.UserID,
		pm.Type,
		pm.Provider,
		pm.LastFourDigits,
		pm.Nickname,
		pm.ExpiryMonth,
		pm.ExpiryYear,
		pm.IsDefault,
	))
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return created, nil
}

// UpdatePaymentMethod overwrites a payment method's mutable fields. When the
// update raises the default flag, sibling defaults are cleared in the same
// transaction.
func (r *PostgresRepository) UpdatePaymentMethod(ctx context.Context, pm *domain.PaymentMethod) (*domain.PaymentMethod, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if pm.IsDefault {
		if _, err := tx.Exec(ctx,
			`UPDATE payment_methods SET is_default = false, updated_at = NOW()
             WHERE user_id = $1 AND id <> $2 AND is_default = true`, pm.UserID, pm.ID); err != nil {
			return nil, err
		}
	}

	query := `
        UPDATE payment_methods
        SET type = $1, provider = $2, last_four_digits = $3, nickname = $4,
            expiry_month = $5, expiry_year = $6, is_default = $7, updated_at = NOW()
        WHERE id = $8
        RETURNING ` + paymentMethodColumns
	updated, err := scanPaymentMethod(tx.QueryRow(ctx, query,
		pm.Type,
		pm.Provider,
		pm.LastFourDigits,
		pm.Nickname,
		pm.ExpiryMonth,
		pm.ExpiryYear,
		pm.IsDefault,
		pm.ID,
	))
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return updated, nil
}

// SetDefaultPaymentMethod makes the given method the user's only default.
// Both updates run in one transaction so a failure cannot leave the user with
// zero defaults.
func (r *PostgresRepository) SetDefaultPaymentMethod(ctx context.Context, userID, id uuid.UUID) (*domain.PaymentMethod, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`UPDATE payment_methods SET is_default = false, updated_at = NOW()
         WHERE user_id = $1 AND id <> $2 AND is_default = true`, userID, id); err != nil {
		return nil, err
	}

	query := `
        UPDATE payment_methods SET is_default = true, updated_at = NOW()
        WHERE id = $1
        RETURNING ` + paymentMethodColumns
	updated, err := scanPaymentMethod(tx.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return updated, nil
}

// DeletePaymentMethod removes a payment method. Subscriptions charged to it
// fall back to NULL via the ON DELETE SET NULL constraint.
func (r *PostgresRepository) DeletePaymentMethod(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM payment_methods WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPaymentMethodNotFound
	}
	return nil
}
