/**
 * @description
 * Payment method domain model and the expiry calculations that drive the
 * alerting and analytics features. A method expires at the end of its
 * (expiryYear, expiryMonth) calendar month; methods without expiry fields
 * never expire.
 */
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Payment method types accepted by the API.
const (
	TypeCreditCard  = "CREDIT_CARD"
	TypeDebitCard   = "DEBIT_CARD"
	TypeEWallet     = "E_WALLET"
	TypeBankAccount = "BANK_ACCOUNT"
)

// DefaultExpiringSoonDays is the threshold used for "expiring soon" checks
// throughout the API and the alert scan.
const DefaultExpiringSoonDays = 30

// PaymentMethod represents a stored payment instrument belonging to a user.
type PaymentMethod struct {
	ID             uuid.UUID `json:"id"`
	UserID         uuid.UUID `json:"user_id"`
	Type           string    `json:"type"`
	Provider       string    `json:"provider"`
	LastFourDigits *string   `json:"last_four_digits,omitempty"`
	Nickname       *string   `json:"nickname,omitempty"`
	ExpiryMonth    *int      `json:"expiry_month,omitempty"`
	ExpiryYear     *int      `json:"expiry_year,omitempty"`
	IsDefault      bool      `json:"is_default"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ExpiryEndDate returns the last calendar day of the expiry month. The second
// return is false when the method carries no expiry information.
func (pm *PaymentMethod) ExpiryEndDate() (time.Time, bool) {
	if pm.ExpiryMonth == nil || pm.ExpiryYear == nil {
		return time.Time{}, false
	}
	return EndOfMonth(*pm.ExpiryYear, time.Month(*pm.ExpiryMonth)), true
}

// IsExpired reports whether the method has expired as of the given day.
func (pm *PaymentMethod) IsExpired(today time.Time) bool {
	end, ok := pm.ExpiryEndDate()
	if !ok {
		return false
	}
	return DateOnly(today).After(end)
}

// IsExpiringSoon reports whether the method expires within daysThreshold days
// of the given day but has not expired yet.
func (pm *PaymentMethod) IsExpiringSoon(today time.Time, daysThreshold int) bool {
	end, ok := pm.ExpiryEndDate()
	if !ok {
		return false
	}
	day := DateOnly(today)
	return !day.After(end) && day.AddDate(0, 0, daysThreshold).After(end)
}

// DaysUntilExpiry returns the whole days until the expiry end date, negative
// once expired. The second return is false for methods with no expiry.
func (pm *PaymentMethod) DaysUntilExpiry(today time.Time) (int, bool) {
	end, ok := pm.ExpiryEndDate()
	if !ok {
		return 0, false
	}
	return DaysBetween(today, end), true
}

// MaskedNumber renders the card number for display, keeping only the last
// four digits visible, e.g. "**** **** **** 1234".
func (pm *PaymentMethod) MaskedNumber() string {
	if pm.LastFourDigits == nil {
		return "N/A"
	}
	return "**** **** **** " + *pm.LastFourDigits
}

// FormattedExpiryDate renders the expiry as "MM/YYYY", or nil when the method
// carries no expiry information.
func (pm *PaymentMethod) FormattedExpiryDate() *string {
	if pm.ExpiryMonth == nil || pm.ExpiryYear == nil {
		return nil
	}
	s := fmt.Sprintf("%02d/%d", *pm.ExpiryMonth, *pm.ExpiryYear)
	return &s
}

// DisplayLabel is the nickname when one is set, otherwise the provider name.
func (pm *PaymentMethod) DisplayLabel() string {
	if pm.Nickname != nil && *pm.Nickname != "" {
		return *pm.Nickname
	}
	return pm.Provider
}
