package domain

import (
	"time"

	"github.com/google/uuid"
)

// Alert types produced by the expiry scan.
const (
	AlertTypeExpiringSoon = "EXPIRING_SOON"
	AlertTypeExpired      = "EXPIRED"
	AlertTypeInactive     = "INACTIVE"
)

// AlertDedupWindowDays suppresses repeat alerts of the same type for the same
// payment method triggered within this many days.
const AlertDedupWindowDays = 7

// PaymentAlert is a persisted warning about a payment method, created by the
// expiry scan and acknowledged by the user.
type PaymentAlert struct {
	ID              uuid.UUID  `json:"id"`
	PaymentMethodID uuid.UUID  `json:"payment_method_id"`
	UserID          uuid.UUID  `json:"user_id"`
	AlertType       string     `json:"alert_type"`
	Message         string     `json:"message"`
	DaysUntilExpiry *int       `json:"days_until_expiry,omitempty"`
	TriggeredAt     time.Time  `json:"triggered_at"`
	IsAcknowledged  bool       `json:"is_acknowledged"`
	AcknowledgedAt  *time.Time `json:"acknowledged_at,omitempty"`
}
