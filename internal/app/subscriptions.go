/**
 * @description
 * Business logic for subscription management: CRUD with create-time defaults,
 * the reminder toggle, and the monthly-expense and analytics calculations.
 */
package app

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/remindyoursubs/backend/internal/domain"
)

// SubscriptionRepository defines the database operations the subscription
// service needs.
type SubscriptionRepository interface {
	CreateSubscription(ctx context.Context, sub *domain.Subscription) (*domain.Subscription, error)
	GetSubscription(ctx context.Context, id uuid.UUID) (*domain.Subscription, error)
	ListSubscriptions(ctx context.Context) ([]domain.Subscription, error)
	GetSubscriptionsByUser(ctx context.Context, userID uuid.UUID) ([]domain.Subscription, error)
	UpdateSubscription(ctx context.Context, sub *domain.Subscription) (*domain.Subscription, error)
	DeleteSubscription(ctx context.Context, id uuid.UUID) error
}

// SubscriptionService provides subscription management and analytics.
type SubscriptionService struct {
	repo   SubscriptionRepository
	logger *slog.Logger
	now    func() time.Time
}

// NewSubscriptionService creates a new subscription service.
func NewSubscriptionService(repo SubscriptionRepository, logger *slog.Logger) *SubscriptionService {
	return &SubscriptionService{repo: repo, logger: logger, now: time.Now}
}

// List returns every subscription in the system.
func (s *SubscriptionService) List(ctx context.Context) ([]domain.Subscription, error) {
	return s.repo.ListSubscriptions(ctx)
}

// Get returns one subscription by ID.
func (s *SubscriptionService) Get(ctx context.Context, id uuid.UUID) (*domain.Subscription, error) {
	return s.repo.GetSubscription(ctx, id)
}

// GetByUser returns all subscriptions owned by a user.
func (s *SubscriptionService) GetByUser(ctx context.Context, userID uuid.UUID) ([]domain.Subscription, error) {
	return s.repo.GetSubscriptionsByUser(ctx, userID)
}

// Create validates the request, applies create-time defaults and persists the
// subscription.
func (s *SubscriptionService) Create(ctx context.Context, req *domain.SubscriptionRequest) (*domain.Subscription, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	sub := &domain.Subscription{
		UserID:                req.UserID,
		Name:                  req.Name,
		Price:                 req.Price,
		NextBillingDate:       domain.DateOnly(req.NextBillingDate),
		PaymentMethodID:       req.PaymentMethodID,
		IsActive:              true,
		ReminderEnabled:       true,
		ReminderTiming:        domain.ReminderTiming1Day,
		ReminderCustomMinutes: req.ReminderCustomMinutes,
	}
	if req.IsActive != nil {
		sub.IsActive = *req.IsActive
	}
	if req.ReminderEnabled != nil {
		sub.ReminderEnabled = *req.ReminderEnabled
	}
	if req.ReminderTiming != nil {
		sub.ReminderTiming = *req.ReminderTiming
	}

	created, err := s.repo.CreateSubscription(ctx, sub)
	if err != nil {
		return nil, err
	}
	s.logger.Info("subscription created", "subscription_id", created.ID, "user_id", created.UserID)
	return created, nil
}

// Update overwrites all mutable fields of an existing subscription. There are
// no partial-patch semantics; absent booleans fall back to their defaults.
func (s *SubscriptionService) Update(ctx context.Context, id uuid.UUID, req *domain.SubscriptionRequest) (*domain.Subscription, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	sub, err := s.repo.GetSubscription(ctx, id)
	if err != nil {
		return nil, err
	}

	sub.UserID = req.UserID
	sub.Name = req.Name
	sub.Price = req.Price
	sub.NextBillingDate = domain.DateOnly(req.NextBillingDate)
	sub.PaymentMethodID = req.PaymentMethodID
	sub.ReminderCustomMinutes = req.ReminderCustomMinutes
	sub.IsActive = req.IsActive != nil && *req.IsActive
	sub.ReminderEnabled = req.ReminderEnabled != nil && *req.ReminderEnabled
	if req.ReminderTiming != nil {
		sub.ReminderTiming = *req.ReminderTiming
	}

	return s.repo.UpdateSubscription(ctx, sub)
}

// ToggleReminder flips the reminder-enabled flag for a subscription.
func (s *SubscriptionService) ToggleReminder(ctx context.Context, id uuid.UUID) (*domain.Subscription, error) {
	sub, err := s.repo.GetSubscription(ctx, id)
	if err != nil {
		return nil, err
	}
	sub.ReminderEnabled = !sub.ReminderEnabled
	return s.repo.UpdateSubscription(ctx, sub)
}

// Delete removes a subscription.
func (s *SubscriptionService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteSubscription(ctx, id)
}

// MonthlyExpense sums the prices of a user's active subscriptions.
func (s *SubscriptionService) MonthlyExpense(ctx context.Context, userID uuid.UUID) (*domain.MonthlyExpense, error) {
	subs, err := s.repo.GetSubscriptionsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	count := 0
	for _, sub := range subs {
		if !sub.IsActive {
			continue
		}
		total = total.Add(sub.Price)
		count++
	}

	return &domain.MonthlyExpense{
		UserID:                   userID,
		TotalExpense:             total,
		TotalActiveSubscriptions: count,
	}, nil
}

// Analytics computes the six-month trend, the 30-day upcoming-bill lookahead
// and the price distribution for a user's subscriptions.
func (s *SubscriptionService) Analytics(ctx context.Context, userID uuid.UUID) (*domain.Analytics, error) {
	subs, err := s.repo.GetSubscriptionsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	today := domain.DateOnly(s.now())
	return &domain.Analytics{
		MonthlyTrend:  monthlyTrend(subs, today),
		UpcomingBills: upcomingBills(subs, today),
		Distribution:  priceDistribution(subs),
	}, nil
}

// monthlyTrend aggregates the trailing six calendar months, oldest first.
// Each month counts the currently active subscriptions that already existed
// by the end of that month; cancellations are not reconstructed since no
// status history is kept.
func monthlyTrend(subs []domain.Subscription, today time.Time) []domain.MonthlyTrendEntry {
	trend := make([]domain.MonthlyTrendEntry, 0, 6)
	// Subtract months from the first of the current month. AddDate on a late
	// day-of-month normalizes (Aug 31 minus two months lands on Jul 1) and
	// would skip or duplicate months.
	base := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	for i := 5; i >= 0; i-- {
		month := base.AddDate(0, -i, 0)
		monthEnd := domain.EndOfMonth(month.Year(), month.Month())

		total := decimal.Zero
		count := 0
		for _, sub := range subs {
			if !sub.IsActive || domain.DateOnly(sub.CreatedAt).After(monthEnd) {
				continue
			}
			total = total.Add(sub.Price)
			count++
		}

		trend = append(trend, domain.MonthlyTrendEntry{
			Month:        month.Format("Jan 2006"),
			TotalExpense: total,
			Count:        count,
		})
	}
	return trend
}

// upcomingBills keeps the active subscriptions billing within the next 30
// days, soonest first, truncated to five entries.
func upcomingBills(subs []domain.Subscription, today time.Time) []domain.UpcomingBill {
	var bills []domain.UpcomingBill
	for _, sub := range subs {
		if !sub.IsActive {
			continue
		}
		daysUntil := sub.DaysUntilBilling(today)
		if daysUntil < 0 || daysUntil > 30 {
			continue
		}
		bills = append(bills, domain.UpcomingBill{
			SubscriptionID: sub.ID,
			Name:           sub.Name,
			Price:          sub.Price,
			DueDate:        sub.NextBillingDate.Day(),
			DaysUntil:      daysUntil,
		})
	}

	sort.Slice(bills, func(i, j int) bool { return bills[i].DaysUntil < bills[j].DaysUntil })
	if len(bills) > 5 {
		bills = bills[:5]
	}
	return bills
}

// priceDistribution buckets active subscriptions by price: low below 100,000,
// high above 250,000, medium in between (both boundaries inclusive).
func priceDistribution(subs []domain.Subscription) domain.PriceDistribution {
	var dist domain.PriceDistribution
	for _, sub := range subs {
		if !sub.IsActive {
			continue
		}
		switch {
		case sub.Price.LessThan(domain.PriceBucketLowBelow):
			dist.LowPrice++
		case sub.Price.LessThanOrEqual(domain.PriceBucketHighAbove):
			dist.MediumPrice++
		default:
			dist.HighPrice++
		}
	}
	return dist
}
