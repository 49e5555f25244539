/**
 * @description
 * Subscription domain model. Billing is anchored on an absolute next billing
 * date rather than a bare day-of-month, since the upcoming-bill analytics
 * need a real date to count down to.
 */
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Reminder timing options for a subscription.
const (
	ReminderTiming1Day   = "1_DAY"
	ReminderTiming1Hour  = "1_HOUR"
	ReminderTiming30Min  = "30_MIN"
	ReminderTimingCustom = "CUSTOM"
)

// Subscription represents a recurring service a user pays for.
type Subscription struct {
	ID                    uuid.UUID       `json:"id"`
	UserID                uuid.UUID       `json:"user_id"`
	Name                  string          `json:"name"`
	Price                 decimal.Decimal `json:"price"`
	NextBillingDate       time.Time       `json:"next_billing_date"`
	PaymentMethodID       *uuid.UUID      `json:"payment_method_id,omitempty"`
	IsActive              bool            `json:"is_active"`
	ReminderEnabled       bool            `json:"reminder_enabled"`
	ReminderTiming        string          `json:"reminder_timing"`
	ReminderCustomMinutes *int            `json:"reminder_custom_minutes,omitempty"`
	LastReminderSent      *time.Time      `json:"last_reminder_sent,omitempty"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

// DaysUntilBilling returns the whole days from the given day to the next
// billing date. Negative when the billing date already passed.
func (s *Subscription) DaysUntilBilling(today time.Time) int {
	return DaysBetween(today, s.NextBillingDate)
}

// SubscriptionRequest is the payload for creating or updating a subscription.
// IsActive, ReminderEnabled and ReminderTiming default to true/true/"1_DAY"
// on create when absent.
type SubscriptionRequest struct {
	UserID                uuid.UUID       `json:"user_id"`
	Name                  string          `json:"name"`
	Price                 decimal.Decimal `json:"price"`
	NextBillingDate       time.Time       `json:"next_billing_date"`
	PaymentMethodID       *uuid.UUID      `json:"payment_method_id,omitempty"`
	IsActive              *bool           `json:"is_active,omitempty"`
	ReminderEnabled       *bool           `json:"reminder_enabled,omitempty"`
	ReminderTiming        *string         `json:"reminder_timing,omitempty"`
	ReminderCustomMinutes *int            `json:"reminder_custom_minutes,omitempty"`
}

// Validate rejects malformed requests before any state change.
func (r *SubscriptionRequest) Validate() error {
	if r.UserID == uuid.Nil {
		return invalid("user_id", "user ID is required")
	}
	if r.Name == "" {
		return invalid("name", "subscription name is required")
	}
	if r.Price.IsNegative() {
		return invalid("price", "must be greater than or equal to 0")
	}
	if r.NextBillingDate.IsZero() {
		return invalid("next_billing_date", "next billing date is required")
	}
	if r.ReminderTiming != nil {
		switch *r.ReminderTiming {
		case ReminderTiming1Day, ReminderTiming1Hour, ReminderTiming30Min:
		case ReminderTimingCustom:
			if r.ReminderCustomMinutes == nil || *r.ReminderCustomMinutes <= 0 {
				return invalid("reminder_custom_minutes", "required and positive for CUSTOM timing")
			}
		default:
			return invalid("reminder_timing", "must be one of 1_DAY, 1_HOUR, 30_MIN, CUSTOM")
		}
	}
	return nil
}
