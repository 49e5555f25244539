/**
 * @description
 * Request and response DTOs for the payment method endpoints. The response
 * carries the derived expiry fields so clients never recompute them.
 */
package domain

import (
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var lastFourPattern = regexp.MustCompile(`^\d{4}$`)

// PaymentMethodRequest is the payload for creating or updating a payment method.
type PaymentMethodRequest struct {
	UserID         uuid.UUID `json:"user_id"`
	Type           string    `json:"type"`
	Provider       string    `json:"provider"`
	LastFourDigits *string   `json:"last_four_digits,omitempty"`
	Nickname       *string   `json:"nickname,omitempty"`
	ExpiryMonth    *int      `json:"expiry_month,omitempty"`
	ExpiryYear     *int      `json:"expiry_year,omitempty"`
	IsDefault      *bool     `json:"is_default,omitempty"`
}

// Validate rejects malformed requests before any state change.
func (r *PaymentMethodRequest) Validate() error {
	if r.UserID == uuid.Nil {
		return invalid("user_id", "user ID is required")
	}
	switch r.Type {
	case TypeCreditCard, TypeDebitCard, TypeEWallet, TypeBankAccount:
	default:
		return invalid("type", "must be one of CREDIT_CARD, DEBIT_CARD, E_WALLET, BANK_ACCOUNT")
	}
	if r.LastFourDigits != nil && !lastFourPattern.MatchString(*r.LastFourDigits) {
		return invalid("last_four_digits", "must be exactly 4 digits")
	}
	if r.ExpiryMonth != nil && (*r.ExpiryMonth < 1 || *r.ExpiryMonth > 12) {
		return invalid("expiry_month", "must be between 1 and 12")
	}
	if r.ExpiryYear != nil && *r.ExpiryYear < 2024 {
		return invalid("expiry_year", "must be 2024 or later")
	}
	return nil
}

// PaymentMethodResponse is the API representation of a payment method,
// including the derived expiry state.
type PaymentMethodResponse struct {
	ID                uuid.UUID `json:"id"`
	UserID            uuid.UUID `json:"user_id"`
	Type              string    `json:"type"`
	Provider          string    `json:"provider"`
	MaskedNumber      string    `json:"masked_number"`
	Nickname          *string   `json:"nickname,omitempty"`
	ExpiryDate        *string   `json:"expiry_date,omitempty"`
	IsDefault         bool      `json:"is_default"`
	IsActive          bool      `json:"is_active"`
	IsExpired         bool      `json:"is_expired"`
	IsExpiringSoon    bool      `json:"is_expiring_soon"`
	DaysUntilExpiry   *int      `json:"days_until_expiry,omitempty"`
	SubscriptionCount int       `json:"subscription_count"`
}

// NewPaymentMethodResponse derives the response DTO from a payment method as
// of the given day.
func NewPaymentMethodResponse(pm *PaymentMethod, today time.Time, subscriptionCount int) PaymentMethodResponse {
	resp := PaymentMethodResponse{
		ID:                pm.ID,
		UserID:            pm.UserID,
		Type:              pm.Type,
		Provider:          pm.Provider,
		MaskedNumber:      pm.MaskedNumber(),
		Nickname:          pm.Nickname,
		ExpiryDate:        pm.FormattedExpiryDate(),
		IsDefault:         pm.IsDefault,
		IsActive:          pm.IsActive,
		IsExpired:         pm.IsExpired(today),
		IsExpiringSoon:    pm.IsExpiringSoon(today, DefaultExpiringSoonDays),
		SubscriptionCount: subscriptionCount,
	}
	if days, ok := pm.DaysUntilExpiry(today); ok {
		resp.DaysUntilExpiry = &days
	}
	return resp
}

// PaymentMethodDistribution summarizes the subscriptions charged to one
// payment method.
type PaymentMethodDistribution struct {
	PaymentMethodID    uuid.UUID       `json:"payment_method_id"`
	Label              string          `json:"label"`
	MaskedNumber       string          `json:"masked_number"`
	SubscriptionCount  int             `json:"subscription_count"`
	TotalMonthlyAmount decimal.Decimal `json:"total_monthly_amount"`
}

// PaymentMethodAnalytics is the per-user payment method analytics payload.
type PaymentMethodAnalytics struct {
	TotalMethods          int                         `json:"total_methods"`
	ActiveMethods         int                         `json:"active_methods"`
	ExpiringCount         int                         `json:"expiring_count"`
	ExpiredCount          int                         `json:"expired_count"`
	SubscriptionsByMethod []PaymentMethodDistribution `json:"subscriptions_by_method"`
}
