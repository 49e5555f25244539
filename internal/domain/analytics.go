/**
 * @description
 * Response shapes for the subscription analytics endpoints: monthly expense
 * totals, the six-month trend, the upcoming-bill lookahead and the price
 * distribution buckets.
 */
package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Price distribution bucket boundaries. 250,000 itself belongs to medium.
var (
	PriceBucketLowBelow  = decimal.NewFromInt(100000)
	PriceBucketHighAbove = decimal.NewFromInt(250000)
)

// MonthlyExpense reports the total monthly spend across a user's active
// subscriptions.
type MonthlyExpense struct {
	UserID                   uuid.UUID       `json:"user_id"`
	TotalExpense             decimal.Decimal `json:"total_expense"`
	TotalActiveSubscriptions int             `json:"total_active_subscriptions"`
}

// MonthlyTrendEntry is one month of the trailing six-month trend.
type MonthlyTrendEntry struct {
	Month        string          `json:"month"`
	TotalExpense decimal.Decimal `json:"total_expense"`
	Count        int             `json:"count"`
}

// UpcomingBill is one subscription due within the 30-day lookahead window.
type UpcomingBill struct {
	SubscriptionID uuid.UUID       `json:"subscription_id"`
	Name           string          `json:"name"`
	Price          decimal.Decimal `json:"price"`
	DueDate        int             `json:"due_date"`
	DaysUntil      int             `json:"days_until"`
}

// PriceDistribution counts active subscriptions per price tier.
type PriceDistribution struct {
	LowPrice    int `json:"low_price"`
	MediumPrice int `json:"medium_price"`
	HighPrice   int `json:"high_price"`
}

// Analytics is the full analytics payload for a user's subscriptions.
type Analytics struct {
	MonthlyTrend  []MonthlyTrendEntry `json:"monthly_trend"`
	UpcomingBills []UpcomingBill      `json:"upcoming_bills"`
	Distribution  PriceDistribution   `json:"distribution"`
}
