package app

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/remindyoursubs/backend/internal/domain"
	"github.com/remindyoursubs/backend/internal/store"
)

type stubPaymentMethodRepo struct {
	methods map[uuid.UUID]*domain.PaymentMethod
	alerts  map[uuid.UUID][]domain.PaymentAlert
	usage   map[uuid.UUID]int
}

func newStubPaymentMethodRepo() *stubPaymentMethodRepo {
	return &stubPaymentMethodRepo{
		methods: make(map[uuid.UUID]*domain.PaymentMethod),
		alerts:  make(map[uuid.UUID][]domain.PaymentAlert),
		usage:   make(map[uuid.UUID]int),
	}
}

func (r *stubPaymentMethodRepo) GetPaymentMethod(_ context.Context, id uuid.UUID) (*domain.PaymentMethod, error) {
	pm, ok := r.methods[id]
	if !ok {
		return nil, store.ErrPaymentMethodNotFound
	}
	out := *pm
	return &out, nil
}

func (r *stubPaymentMethodRepo) GetPaymentMethodsByUser(_ context.Context, userID uuid.UUID) ([]domain.PaymentMethod, error) {
	var out []domain.PaymentMethod
	for _, pm := range r.methods {
		if pm.UserID == userID {
			out = append(out, *pm)
		}
	}
	return out, nil
}

func (r *stubPaymentMethodRepo) GetActivePaymentMethodsByUser(ctx context.Context, userID uuid.UUID) ([]domain.PaymentMethod, error) {
	all, _ := r.GetPaymentMethodsByUser(ctx, userID)
	var out []domain.PaymentMethod
	for _, pm := range all {
		if pm.IsActive {
			out = append(out, pm)
		}
	}
	return out, nil
}

func (r *stubPaymentMethodRepo) clearDefault(userID uuid.UUID, except uuid.UUID) {
	for _, pm := range r.methods {
		if pm.UserID == userID && pm.ID != except {
			pm.IsDefault = false
		}
	}
}

func (r *stubPaymentMethodRepo) CreatePaymentMethod(_ context.Context, pm *domain.PaymentMethod) (*domain.PaymentMethod, error) {
	out := *pm
	out.ID = uuid.New()
	out.IsActive = true
	out.CreatedAt = time.Now()
	out.UpdatedAt = out.CreatedAt
	if out.IsDefault {
		r.clearDefault(out.UserID, out.ID)
	}
	r.methods[out.ID] = &out
	copied := out
	return &copied, nil
}

func (r *stubPaymentMethodRepo) UpdatePaymentMethod(_ context.Context, pm *domain.PaymentMethod) (*domain.PaymentMethod, error) {
	if _, ok := r.methods[pm.ID]; !ok {
		return nil, store.ErrPaymentMethodNotFound
	}
	out := *pm
	out.UpdatedAt = time.Now()
	if out.IsDefault {
		r.clearDefault(out.UserID, out.ID)
	}
	r.methods[out.ID] = &out
	copied := out
	return &copied, nil
}

func (r *stubPaymentMethodRepo) SetDefaultPaymentMethod(_ context.Context, userID, id uuid.UUID) (*domain.PaymentMethod, error) {
	pm, ok := r.methods[id]
	if !ok || pm.UserID != userID {
		return nil, store.ErrPaymentMethodNotFound
	}
	r.clearDefault(userID, id)
	pm.IsDefault = true
	out := *pm
	return &out, nil
}

func (r *stubPaymentMethodRepo) DeletePaymentMethod(_ context.Context, id uuid.UUID) error {
	if _, ok := r.methods[id]; !ok {
		return store.ErrPaymentMethodNotFound
	}
	delete(r.methods, id)
	return nil
}

func (r *stubPaymentMethodRepo) CreateAlert(_ context.Context, alert *domain.PaymentAlert) (*domain.PaymentAlert, error) {
	out := *alert
	out.ID = uuid.New()
	r.alerts[out.PaymentMethodID] = append(r.alerts[out.PaymentMethodID], out)
	return &out, nil
}

func (r *stubPaymentMethodRepo) GetAlertsByPaymentMethod(_ context.Context, paymentMethodID uuid.UUID) ([]domain.PaymentAlert, error) {
	return append([]domain.PaymentAlert(nil), r.alerts[paymentMethodID]...), nil
}

func (r *stubPaymentMethodRepo) GetPaymentMethodUsage(_ context.Context, paymentMethodID uuid.UUID) (int, decimal.Decimal, error) {
	return r.usage[paymentMethodID], decimal.Zero, nil
}

func newTestPaymentMethodService(repo *stubPaymentMethodRepo, now time.Time) *PaymentMethodService {
	svc := NewPaymentMethodService(repo, nil, testLogger())
	svc.now = func() time.Time { return now }
	return svc
}

func cardRequest(userID uuid.UUID, provider, last4 string, month, year int, isDefault bool) *domain.PaymentMethodRequest {
	return &domain.PaymentMethodRequest{
		UserID:         userID,
		Type:           domain.TypeCreditCard,
		Provider:       provider,
		LastFourDigits: &last4,
		ExpiryMonth:    &month,
		ExpiryYear:     &year,
		IsDefault:      &isDefault,
	}
}

func TestCreateDefaultClearsPreviousDefault(t *testing.T) {
	repo := newStubPaymentMethodRepo()
	svc := newTestPaymentMethodService(repo, time.Now())
	userID := uuid.New()

	first, err := svc.Create(context.Background(), cardRequest(userID, "Visa", "1111", 12, 2030, true))
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	second, err := svc.Create(context.Background(), cardRequest(userID, "Mastercard", "2222", 12, 2030, true))
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if !second.IsDefault {
		t.Error("expected second method to be default")
	}
	if repo.methods[first.ID].IsDefault {
		t.Error("expected first method to lose its default flag")
	}

	defaults := 0
	for _, pm := range repo.methods {
		if pm.IsDefault {
			defaults++
		}
	}
	if defaults != 1 {
		t.Errorf("expected exactly one default method, got %d", defaults)
	}
}

func TestSetDefaultMovesFlag(t *testing.T) {
	repo := newStubPaymentMethodRepo()
	svc := newTestPaymentMethodService(repo, time.Now())
	userID := uuid.New()

	first, _ := svc.Create(context.Background(), cardRequest(userID, "Visa", "1111", 12, 2030, true))
	second, _ := svc.Create(context.Background(), cardRequest(userID, "Mastercard", "2222", 12, 2030, false))

	updated, err := svc.SetDefault(context.Background(), second.ID)
	if err != nil {
		t.Fatalf("SetDefault returned error: %v", err)
	}
	if !updated.IsDefault {
		t.Error("expected target method to become default")
	}
	if repo.methods[first.ID].IsDefault {
		t.Error("expected previous default to be cleared")
	}
}

func TestSetDefaultNotFound(t *testing.T) {
	repo := newStubPaymentMethodRepo()
	svc := newTestPaymentMethodService(repo, time.Now())

	if _, err := svc.SetDefault(context.Background(), uuid.New()); err != store.ErrPaymentMethodNotFound {
		t.Errorf("expected ErrPaymentMethodNotFound, got %v", err)
	}
}

func TestExpiryEndOfMonthSemantics(t *testing.T) {
	repo := newStubPaymentMethodRepo()
	userID := uuid.New()

	// Card expiring 06/2026: valid through June 30, expired from July 1.
	tests := []struct {
		name      string
		today     time.Time
		expired   bool
		expSoon   bool
		daysUntil int
	}{
		{"mid expiry month", time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC), false, true, 15},
		{"last valid day", time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC), false, true, 0},
		{"day after end", time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC), true, false, -1},
		{"well before", time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), false, false, 90},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := newTestPaymentMethodService(repo, tc.today)
			created, err := svc.Create(context.Background(), cardRequest(userID, "Visa", "4242", 6, 2026, false))
			if err != nil {
				t.Fatalf("Create returned error: %v", err)
			}
			if created.IsExpired != tc.expired {
				t.Errorf("IsExpired = %v, want %v", created.IsExpired, tc.expired)
			}
			if created.IsExpiringSoon != tc.expSoon {
				t.Errorf("IsExpiringSoon = %v, want %v", created.IsExpiringSoon, tc.expSoon)
			}
			if created.DaysUntilExpiry == nil {
				t.Fatal("expected days until expiry to be set")
			}
			if *created.DaysUntilExpiry != tc.daysUntil {
				t.Errorf("DaysUntilExpiry = %d, want %d", *created.DaysUntilExpiry, tc.daysUntil)
			}
		})
	}
}

func TestNoExpiryNeverExpires(t *testing.T) {
	repo := newStubPaymentMethodRepo()
	svc := newTestPaymentMethodService(repo, time.Date(2099, 1, 1, 0, 0, 0, 0, time.UTC))

	created, err := svc.Create(context.Background(), &domain.PaymentMethodRequest{
		UserID:   uuid.New(),
		Type:     domain.TypeEWallet,
		Provider: "GoPay",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if created.IsExpired || created.IsExpiringSoon {
		t.Error("expected method without expiry fields to never expire")
	}
	if created.DaysUntilExpiry != nil {
		t.Error("expected absent days until expiry")
	}
	if created.MaskedNumber != "N/A" {
		t.Errorf("expected masked number N/A, got %q", created.MaskedNumber)
	}
}

func TestMaskedNumber(t *testing.T) {
	repo := newStubPaymentMethodRepo()
	svc := newTestPaymentMethodService(repo, time.Now())

	created, err := svc.Create(context.Background(), cardRequest(uuid.New(), "Visa", "1234", 12, 2030, false))
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if created.MaskedNumber != "**** **** **** 1234" {
		t.Errorf("unexpected masked number %q", created.MaskedNumber)
	}
}

func TestCheckAlertsCreatesExpiredAndExpiring(t *testing.T) {
	repo := newStubPaymentMethodRepo()
	now := time.Date(2026, 7, 10, 9, 0, 0, 0, time.UTC)
	svc := newTestPaymentMethodService(repo, now)
	userID := uuid.New()

	svc.Create(context.Background(), cardRequest(userID, "Visa", "1111", 6, 2026, false))       // expired
	svc.Create(context.Background(), cardRequest(userID, "Mastercard", "2222", 7, 2026, false)) // expiring
	svc.Create(context.Background(), cardRequest(userID, "Amex", "3333", 12, 2030, false))      // fine

	alerts, err := svc.CheckAlerts(context.Background(), userID)
	if err != nil {
		t.Fatalf("CheckAlerts returned error: %v", err)
	}
	if len(alerts) != 2 {
		t.Fatalf("expected 2 alerts, got %d", len(alerts))
	}

	byType := make(map[string]domain.PaymentAlert)
	for _, a := range alerts {
		byType[a.AlertType] = a
	}

	expired, ok := byType[domain.AlertTypeExpired]
	if !ok {
		t.Fatal("expected an EXPIRED alert")
	}
	if expired.Message != "Your Visa card ending in 1111 has expired" {
		t.Errorf("unexpected expired message %q", expired.Message)
	}

	expiring, ok := byType[domain.AlertTypeExpiringSoon]
	if !ok {
		t.Fatal("expected an EXPIRING_SOON alert")
	}
	// 07/2026 ends July 31, so 21 days remain from July 10.
	if expiring.Message != "Your Mastercard card ending in 2222 expires in 21 days" {
		t.Errorf("unexpected expiring message %q", expiring.Message)
	}
	if expiring.DaysUntilExpiry == nil || *expiring.DaysUntilExpiry != 21 {
		t.Errorf("unexpected days until expiry %v", expiring.DaysUntilExpiry)
	}
}

func TestCheckAlertsDedupWindow(t *testing.T) {
	repo := newStubPaymentMethodRepo()
	now := time.Date(2026, 7, 10, 9, 0, 0, 0, time.UTC)
	svc := newTestPaymentMethodService(repo, now)
	userID := uuid.New()

	created, _ := svc.Create(context.Background(), cardRequest(userID, "Visa", "1111", 6, 2026, false))

	first, err := svc.CheckAlerts(context.Background(), userID)
	if err != nil {
		t.Fatalf("CheckAlerts returned error: %v", err)
	}
	if len(first) != 1 {
		t.Fatalf("expected 1 alert on first scan, got %d", len(first))
	}

	second, err := svc.CheckAlerts(context.Background(), userID)
	if err != nil {
		t.Fatalf("CheckAlerts returned error: %v", err)
	}
	if len(second) != 0 {
		t.Errorf("expected repeat scan within dedup window to create nothing, got %d", len(second))
	}

	// Age the stored alert past the 7-day window and scan again.
	stored := repo.alerts[created.ID]
	stored[0].TriggeredAt = now.AddDate(0, 0, -8)
	repo.alerts[created.ID] = stored

	third, err := svc.CheckAlerts(context.Background(), userID)
	if err != nil {
		t.Fatalf("CheckAlerts returned error: %v", err)
	}
	if len(third) != 1 {
		t.Errorf("expected new alert after dedup window elapsed, got %d", len(third))
	}
}

func TestCheckAlertsDifferentTypesNotDeduped(t *testing.T) {
	repo := newStubPaymentMethodRepo()
	userID := uuid.New()

	// Scan while the card is expiring, then again after it has expired.
	before := time.Date(2026, 6, 20, 0, 0, 0, 0, time.UTC)
	svc := newTestPaymentMethodService(repo, before)
	svc.Create(context.Background(), cardRequest(userID, "Visa", "1111", 6, 2026, false))

	first, err := svc.CheckAlerts(context.Background(), userID)
	if err != nil {
		t.Fatalf("CheckAlerts returned error: %v", err)
	}
	if len(first) != 1 || first[0].AlertType != domain.AlertTypeExpiringSoon {
		t.Fatalf("expected one EXPIRING_SOON alert, got %+v", first)
	}

	svc.now = func() time.Time { return time.Date(2026, 7, 2, 0, 0, 0, 0, time.UTC) }
	second, err := svc.CheckAlerts(context.Background(), userID)
	if err != nil {
		t.Fatalf("CheckAlerts returned error: %v", err)
	}
	if len(second) != 1 || second[0].AlertType != domain.AlertTypeExpired {
		t.Fatalf("expected one EXPIRED alert, got %+v", second)
	}
}

func TestExpiringHonorsThreshold(t *testing.T) {
	repo := newStubPaymentMethodRepo()
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	svc := newTestPaymentMethodService(repo, now)
	userID := uuid.New()

	svc.Create(context.Background(), cardRequest(userID, "Visa", "1111", 3, 2026, false)) // expired
	svc.Create(context.Background(), cardRequest(userID, "Mastercard", "2222", 6, 2026, false))
	svc.Create(context.Background(), cardRequest(userID, "Amex", "3333", 12, 2030, false))

	// Default 30-day window: only the expired card qualifies, the June card
	// has 60 days left.
	methods, err := svc.Expiring(context.Background(), userID, 0)
	if err != nil {
		t.Fatalf("Expiring returned error: %v", err)
	}
	if len(methods) != 1 || !methods[0].IsExpired {
		t.Fatalf("expected only the expired card, got %+v", methods)
	}

	// Widening the threshold pulls in the June card too.
	methods, err = svc.Expiring(context.Background(), userID, 90)
	if err != nil {
		t.Fatalf("Expiring returned error: %v", err)
	}
	if len(methods) != 2 {
		t.Fatalf("expected 2 methods in a 90-day window, got %d", len(methods))
	}
}

func TestAnalyticsCounts(t *testing.T) {
	repo := newStubPaymentMethodRepo()
	now := time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC)
	svc := newTestPaymentMethodService(repo, now)
	userID := uuid.New()

	svc.Create(context.Background(), cardRequest(userID, "Visa", "1111", 6, 2026, false))       // expired
	svc.Create(context.Background(), cardRequest(userID, "Mastercard", "2222", 7, 2026, false)) // expiring
	healthy, _ := svc.Create(context.Background(), cardRequest(userID, "Amex", "3333", 12, 2030, false))
	repo.usage[healthy.ID] = 3

	analytics, err := svc.Analytics(context.Background(), userID)
	if err != nil {
		t.Fatalf("Analytics returned error: %v", err)
	}

	if analytics.TotalMethods != 3 || analytics.ActiveMethods != 3 {
		t.Errorf("unexpected totals: %+v", analytics)
	}
	if analytics.ExpiredCount != 1 || analytics.ExpiringCount != 1 {
		t.Errorf("unexpected expiry counts: %+v", analytics)
	}

	var found bool
	for _, d := range analytics.SubscriptionsByMethod {
		if d.PaymentMethodID == healthy.ID {
			found = true
			if d.SubscriptionCount != 3 {
				t.Errorf("expected 3 subscriptions on healthy card, got %d", d.SubscriptionCount)
			}
			if !strings.HasSuffix(d.MaskedNumber, "3333") {
				t.Errorf("unexpected masked number %q", d.MaskedNumber)
			}
		}
	}
	if !found {
		t.Error("expected distribution entry for healthy card")
	}
}
