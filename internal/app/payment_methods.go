/**
 * @description
 * Business logic for payment methods: CRUD with the single-default invariant,
 * expiring-method queries, per-method subscription analytics and the
 * expiry alert scan with its 7-day dedup window.
 */
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/remindyoursubs/backend/internal/domain"
)

// EventPublisher pushes domain events onto the message broker. Implementations
// must tolerate broker outages without failing the business operation.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// PaymentMethodRepository defines the database operations the payment method
// service needs.
type PaymentMethodRepository interface {
	GetPaymentMethod(ctx context.Context, id uuid.UUID) (*domain.PaymentMethod, error)
	GetPaymentMethodsByUser(ctx context.Context, userID uuid.UUID) ([]domain.PaymentMethod, error)
	GetActivePaymentMethodsByUser(ctx context.Context, userID uuid.UUID) ([]domain.PaymentMethod, error)
	CreatePaymentMethod(ctx context.Context, pm *domain.PaymentMethod) (*domain.PaymentMethod, error)
	UpdatePaymentMethod(ctx context.Context, pm *domain.PaymentMethod) (*domain.PaymentMethod, error)
	SetDefaultPaymentMethod(ctx context.Context, userID, id uuid.UUID) (*domain.PaymentMethod, error)
	DeletePaymentMethod(ctx context.Context, id uuid.UUID) error
	CreateAlert(ctx context.Context, alert *domain.PaymentAlert) (*domain.PaymentAlert, error)
	GetAlertsByPaymentMethod(ctx context.Context, paymentMethodID uuid.UUID) ([]domain.PaymentAlert, error)
	GetPaymentMethodUsage(ctx context.Context, paymentMethodID uuid.UUID) (int, decimal.Decimal, error)
}

// PaymentMethodService manages payment methods and their expiry alerts.
type PaymentMethodService struct {
	repo        PaymentMethodRepository
	events      EventPublisher
	logger      *slog.Logger
	now         func() time.Time
	userLocks   *keyLocks
	methodLocks *keyLocks
}

// NewPaymentMethodService creates a new payment method service. The event
// publisher may be nil when no broker is configured.
func NewPaymentMethodService(repo PaymentMethodRepository, events EventPublisher, logger *slog.Logger) *PaymentMethodService {
	return &PaymentMethodService{
		repo:        repo,
		events:      events,
		logger:      logger,
		now:         time.Now,
		userLocks:   newKeyLocks(),
		methodLocks: newKeyLocks(),
	}
}

// Get returns one payment method as a response DTO with its derived expiry
// state and active subscription count.
func (s *PaymentMethodService) Get(ctx context.Context, id uuid.UUID) (*domain.PaymentMethodResponse, error) {
	pm, err := s.repo.GetPaymentMethod(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.toResponse(ctx, pm)
}

// GetByUser returns all of a user's payment methods.
func (s *PaymentMethodService) GetByUser(ctx context.Context, userID uuid.UUID) ([]domain.PaymentMethodResponse, error) {
	methods, err := s.repo.GetPaymentMethodsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.toResponses(ctx, methods)
}

// Create persists a new payment method. When the request marks it default, the
// previous default for the user is cleared in the same transaction.
func (s *PaymentMethodService) Create(ctx context.Context, req *domain.PaymentMethodRequest) (*domain.PaymentMethodResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	mu := s.userLocks.Acquire(req.UserID)
	defer mu.Unlock()

	pm := &domain.PaymentMethod{
		UserID:         req.UserID,
		Type:           req.Type,
		Provider:       req.Provider,
		LastFourDigits: req.LastFourDigits,
		Nickname:       req.Nickname,
		ExpiryMonth:    req.ExpiryMonth,
		ExpiryYear:     req.ExpiryYear,
		IsDefault:      req.IsDefault != nil && *req.IsDefault,
	}

	created, err := s.repo.CreatePaymentMethod(ctx, pm)
	if err != nil {
		return nil, err
	}
	s.logger.Info("payment method created", "payment_method_id", created.ID, "user_id", created.UserID)
	return s.toResponse(ctx, created)
}

// Update overwrites the mutable fields of an existing payment method.
func (s *PaymentMethodService) Update(ctx context.Context, id uuid.UUID, req *domain.PaymentMethodRequest) (*domain.PaymentMethodResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	pm, err := s.repo.GetPaymentMethod(ctx, id)
	if err != nil {
		return nil, err
	}

	mu := s.userLocks.Acquire(pm.UserID)
	defer mu.Unlock()

	pm.Type = req.Type
	pm.Provider = req.Provider
	pm.LastFourDigits = req.LastFourDigits
	pm.Nickname = req.Nickname
	pm.ExpiryMonth = req.ExpiryMonth
	pm.ExpiryYear = req.ExpiryYear
	if req.IsDefault != nil {
		pm.IsDefault = *req.IsDefault
	}

	updated, err := s.repo.UpdatePaymentMethod(ctx, pm)
	if err != nil {
		return nil, err
	}
	return s.toResponse(ctx, updated)
}

// SetDefault marks one payment method as the user's default, clearing the flag
// on every other method the user owns.
func (s *PaymentMethodService) SetDefault(ctx context.Context, id uuid.UUID) (*domain.PaymentMethodResponse, error) {
	pm, err := s.repo.GetPaymentMethod(ctx, id)
	if err != nil {
		return nil, err
	}

	mu := s.userLocks.Acquire(pm.UserID)
	defer mu.Unlock()

	updated, err := s.repo.SetDefaultPaymentMethod(ctx, pm.UserID, id)
	if err != nil {
		return nil, err
	}
	return s.toResponse(ctx, updated)
}

// Delete removes a payment method.
func (s *PaymentMethodService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeletePaymentMethod(ctx, id)
}

// Expiring returns the user's active methods that are expired or expiring
// within the given threshold. Non-positive thresholds fall back to the
// 30-day default.
func (s *PaymentMethodService) Expiring(ctx context.Context, userID uuid.UUID, daysThreshold int) ([]domain.PaymentMethodResponse, error) {
	if daysThreshold <= 0 {
		daysThreshold = domain.DefaultExpiringSoonDays
	}

	methods, err := s.repo.GetActivePaymentMethodsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	today := domain.DateOnly(s.now())
	expiring := methods[:0]
	for _, pm := range methods {
		if pm.IsExpired(today) || pm.IsExpiringSoon(today, daysThreshold) {
			expiring = append(expiring, pm)
		}
	}
	return s.toResponses(ctx, expiring)
}

// Analytics summarizes a user's payment methods: totals, expiry counts and the
// subscription load carried by each method.
func (s *PaymentMethodService) Analytics(ctx context.Context, userID uuid.UUID) (*domain.PaymentMethodAnalytics, error) {
	methods, err := s.repo.GetPaymentMethodsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	today := domain.DateOnly(s.now())
	analytics := &domain.PaymentMethodAnalytics{
		TotalMethods:          len(methods),
		SubscriptionsByMethod: make([]domain.PaymentMethodDistribution, 0, len(methods)),
	}

	for i := range methods {
		pm := &methods[i]
		if pm.IsActive {
			analytics.ActiveMethods++
		}
		switch {
		case pm.IsExpired(today):
			analytics.ExpiredCount++
		case pm.IsExpiringSoon(today, domain.DefaultExpiringSoonDays):
			analytics.ExpiringCount++
		}

		count, total, err := s.repo.GetPaymentMethodUsage(ctx, pm.ID)
		if err != nil {
			return nil, err
		}
		analytics.SubscriptionsByMethod = append(analytics.SubscriptionsByMethod, domain.PaymentMethodDistribution{
			PaymentMethodID:    pm.ID,
			Label:              pm.DisplayLabel(),
			MaskedNumber:       pm.MaskedNumber(),
			SubscriptionCount:  count,
			TotalMonthlyAmount: total,
		})
	}
	return analytics, nil
}

// CheckAlerts scans a user's active payment methods and persists an alert for
// each expired or expiring method, skipping methods that already received an
// alert of the same type within the dedup window. Returns the alerts created
// by this scan.
func (s *PaymentMethodService) CheckAlerts(ctx context.Context, userID uuid.UUID) ([]domain.PaymentAlert, error) {
	methods, err := s.repo.GetActivePaymentMethodsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	created := make([]domain.PaymentAlert, 0)
	for i := range methods {
		alert, err := s.checkMethod(ctx, &methods[i])
		if err != nil {
			return nil, err
		}
		if alert != nil {
			created = append(created, *alert)
		}
	}
	return created, nil
}

// checkMethod evaluates one payment method and creates at most one alert. The
// per-method lock serializes the dedup read with the insert so concurrent
// scans cannot double-alert.
func (s *PaymentMethodService) checkMethod(ctx context.Context, pm *domain.PaymentMethod) (*domain.PaymentAlert, error) {
	now := s.now()
	today := domain.DateOnly(now)

	var alertType, message string
	var daysUntil *int
	switch {
	case pm.IsExpired(today):
		alertType = domain.AlertTypeExpired
		message = fmt.Sprintf("Your %s card ending in %s has expired", pm.Provider, lastFour(pm))
	case pm.IsExpiringSoon(today, domain.DefaultExpiringSoonDays):
		days, _ := pm.DaysUntilExpiry(today)
		alertType = domain.AlertTypeExpiringSoon
		message = fmt.Sprintf("Your %s card ending in %s expires in %d days", pm.Provider, lastFour(pm), days)
		daysUntil = &days
	default:
		return nil, nil
	}

	mu := s.methodLocks.Acquire(pm.ID)
	defer mu.Unlock()

	recent, err := s.repo.GetAlertsByPaymentMethod(ctx, pm.ID)
	if err != nil {
		return nil, err
	}
	cutoff := now.AddDate(0, 0, -domain.AlertDedupWindowDays)
	for _, a := range recent {
		if a.AlertType == alertType && a.TriggeredAt.After(cutoff) {
			return nil, nil
		}
	}

	alert, err := s.repo.CreateAlert(ctx, &domain.PaymentAlert{
		PaymentMethodID: pm.ID,
		UserID:          pm.UserID,
		AlertType:       alertType,
		Message:         message,
		DaysUntilExpiry: daysUntil,
		TriggeredAt:     now,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("payment alert created",
		"alert_id", alert.ID,
		"payment_method_id", pm.ID,
		"alert_type", alertType,
	)
	s.publishAlertCreated(ctx, alert)
	return alert, nil
}

func (s *PaymentMethodService) publishAlertCreated(ctx context.Context, alert *domain.PaymentAlert) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, "alert.created", alert); err != nil {
		s.logger.Error("failed to publish alert event", "alert_id", alert.ID, "error", err)
	}
}

func (s *PaymentMethodService) toResponse(ctx context.Context, pm *domain.PaymentMethod) (*domain.PaymentMethodResponse, error) {
	count, _, err := s.repo.GetPaymentMethodUsage(ctx, pm.ID)
	if err != nil {
		return nil, err
	}
	resp := domain.NewPaymentMethodResponse(pm, domain.DateOnly(s.now()), count)
	return &resp, nil
}

func (s *PaymentMethodService) toResponses(ctx context.Context, methods []domain.PaymentMethod) ([]domain.PaymentMethodResponse, error) {
	out := make([]domain.PaymentMethodResponse, 0, len(methods))
	for i := range methods {
		resp, err := s.toResponse(ctx, &methods[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *resp)
	}
	return out, nil
}

func lastFour(pm *domain.PaymentMethod) string {
	if pm.LastFourDigits == nil {
		return "N/A"
	}
	return *pm.LastFourDigits
}
