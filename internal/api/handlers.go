/**
 * @description
 * This file contains the HTTP handler functions for the backend. Handlers are
 * responsible for parsing incoming requests, calling the appropriate business
 * logic in the service layer, and writing the HTTP response.
 */
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/remindyoursubs/backend/internal/app"
	"github.com/remindyoursubs/backend/internal/domain"
)

// Handler holds the application services that handlers will interact with.
type Handler struct {
	users          *app.UserService
	subscriptions  *app.SubscriptionService
	paymentMethods *app.PaymentMethodService
	notifications  *app.NotificationService
	loginLimiter   *app.RedisLoginRateLimiter
	loginLimit     int
	loginWindow    time.Duration
	logger         *slog.Logger
}

// NewHandler creates a new Handler with the given services. The login limiter
// may be nil when Redis is not configured.
func NewHandler(
	users *app.UserService,
	subscriptions *app.SubscriptionService,
	paymentMethods *app.PaymentMethodService,
	notifications *app.NotificationService,
	loginLimiter *app.RedisLoginRateLimiter,
	loginLimit int,
	loginWindow time.Duration,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		users:          users,
		subscriptions:  subscriptions,
		paymentMethods: paymentMethods,
		notifications:  notifications,
		loginLimiter:   loginLimiter,
		loginLimit:     loginLimit,
		loginWindow:    loginWindow,
		logger:         logger,
	}
}

func parseUUIDParam(r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	return id, err == nil
}

// handleRegister creates a new account.
func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req domain.UserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.users.Register(r.Context(), &req)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, user)
}

// handleLogin verifies credentials and returns a JWT. Attempts are rate
// limited per client address when Redis is configured.
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if h.loginLimiter != nil {
		count, retryAfter, err := h.loginLimiter.ConsumeRateLimit(
			r.Context(), "login", r.RemoteAddr, h.loginLimit, h.loginWindow,
		)
		// Redis being down must not lock everyone out, so limiter errors
		// are logged as warnings and the request proceeds.
		if err != nil {
			h.logger.Warn("Login rate limiter unavailable", "error", err)
		}
		if err == nil && h.loginLimit > 0 && count > h.loginLimit {
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			respondWithJSON(w, http.StatusTooManyRequests, errorResponse{Error: "too many login attempts"})
			return
		}
	}

	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	resp, err := h.users.Login(r.Context(), &req)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, resp)
}

// handleListUsers returns every user.
func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, users)
}

// handleGetUser returns one user profile.
func (h *Handler) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(r, "id")
	if !ok {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	user, err := h.users.Get(r.Context(), id)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, user)
}

// handleUpdateUser overwrites a user's profile.
func (h *Handler) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(r, "id")
	if !ok {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	var req domain.UserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.users.Update(r.Context(), id, &req)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, user)
}

// handleDeleteUser removes a user account.
func (h *Handler) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(r, "id")
	if !ok {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	if err := h.users.Delete(r.Context(), id); err != nil {
		respondWithError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleListSubscriptions returns every subscription.
func (h *Handler) handleListSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := h.subscriptions.List(r.Context())
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, subs)
}

// handleGetSubscription returns one subscription.
func (h *Handler) handleGetSubscription(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(r, "id")
	if !ok {
		http.Error(w, "Invalid subscription ID", http.StatusBadRequest)
		return
	}

	sub, err := h.subscriptions.Get(r.Context(), id)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, sub)
}

// handleGetSubscriptionsByUser returns a user's subscriptions.
func (h *Handler) handleGetSubscriptionsByUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUUIDParam(r, "userId")
	if !ok {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	subs, err := h.subscriptions.GetByUser(r.Context(), userID)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, subs)
}

// handleGetMonthlyExpense returns a user's total monthly spend.
func (h *Handler) handleGetMonthlyExpense(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUUIDParam(r, "userId")
	if !ok {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	expense, err := h.subscriptions.MonthlyExpense(r.Context(), userID)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, expense)
}

// handleGetSubscriptionAnalytics returns the trend, upcoming bills and price
// distribution for a user.
func (h *Handler) handleGetSubscriptionAnalytics(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUUIDParam(r, "userId")
	if !ok {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	analytics, err := h.subscriptions.Analytics(r.Context(), userID)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, analytics)
}

// handleCreateSubscription creates a subscription.
func (h *Handler) handleCreateSubscription(w http.ResponseWriter, r *http.Request) {
	var req domain.SubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	sub, err := h.subscriptions.Create(r.Context(), &req)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, sub)
}

// handleUpdateSubscription overwrites a subscription.
func (h *Handler) handleUpdateSubscription(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(r, "id")
	if !ok {
		http.Error(w, "Invalid subscription ID", http.StatusBadRequest)
		return
	}

	var req domain.SubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	sub, err := h.subscriptions.Update(r.Context(), id, &req)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, sub)
}

// handleToggleReminder flips the reminder flag on a subscription.
func (h *Handler) handleToggleReminder(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(r, "id")
	if !ok {
		http.Error(w, "Invalid subscription ID", http.StatusBadRequest)
		return
	}

	sub, err := h.subscriptions.ToggleReminder(r.Context(), id)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, sub)
}

// handleDeleteSubscription removes a subscription.
func (h *Handler) handleDeleteSubscription(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(r, "id")
	if !ok {
		http.Error(w, "Invalid subscription ID", http.StatusBadRequest)
		return
	}

	if err := h.subscriptions.Delete(r.Context(), id); err != nil {
		respondWithError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleGetPaymentMethodsByUser returns a user's payment methods.
func (h *Handler) handleGetPaymentMethodsByUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUUIDParam(r, "userId")
	if !ok {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	methods, err := h.paymentMethods.GetByUser(r.Context(), userID)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, methods)
}

// handleGetPaymentMethod returns one payment method.
func (h *Handler) handleGetPaymentMethod(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(r, "id")
	if !ok {
		http.Error(w, "Invalid payment method ID", http.StatusBadRequest)
		return
	}

	pm, err := h.paymentMethods.Get(r.Context(), id)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, pm)
}

// handleCreatePaymentMethod stores a new payment method.
func (h *Handler) handleCreatePaymentMethod(w http.ResponseWriter, r *http.Request) {
	var req domain.PaymentMethodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	pm, err := h.paymentMethods.Create(r.Context(), &req)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, pm)
}

// handleUpdatePaymentMethod overwrites a payment method.
func (h *Handler) handleUpdatePaymentMethod(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(r, "id")
	if !ok {
		http.Error(w, "Invalid payment method ID", http.StatusBadRequest)
		return
	}

	var req domain.PaymentMethodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	pm, err := h.paymentMethods.Update(r.Context(), id, &req)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, pm)
}

// handleDeletePaymentMethod removes a payment method.
func (h *Handler) handleDeletePaymentMethod(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(r, "id")
	if !ok {
		http.Error(w, "Invalid payment method ID", http.StatusBadRequest)
		return
	}

	if err := h.paymentMethods.Delete(r.Context(), id); err != nil {
		respondWithError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSetDefaultPaymentMethod marks a payment method as the user's default.
func (h *Handler) handleSetDefaultPaymentMethod(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(r, "id")
	if !ok {
		http.Error(w, "Invalid payment method ID", http.StatusBadRequest)
		return
	}

	pm, err := h.paymentMethods.SetDefault(r.Context(), id)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, pm)
}

// handleGetExpiringPaymentMethods returns a user's expired or soon-to-expire
// methods. The ?days= query parameter overrides the 30-day threshold.
func (h *Handler) handleGetExpiringPaymentMethods(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUUIDParam(r, "userId")
	if !ok {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	days := 0
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "Invalid days threshold", http.StatusBadRequest)
			return
		}
		days = parsed
	}

	methods, err := h.paymentMethods.Expiring(r.Context(), userID, days)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, methods)
}

// handleGetPaymentMethodAnalytics returns the payment method analytics for a
// user.
func (h *Handler) handleGetPaymentMethodAnalytics(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUUIDParam(r, "userId")
	if !ok {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	analytics, err := h.paymentMethods.Analytics(r.Context(), userID)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, analytics)
}

// handleCheckAlerts runs the expiry alert scan for one user and returns the
// alerts it created.
func (h *Handler) handleCheckAlerts(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUUIDParam(r, "userId")
	if !ok {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	alerts, err := h.paymentMethods.CheckAlerts(r.Context(), userID)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, alerts)
}

// handleSendEmail delivers an email and records the notification.
func (h *Handler) handleSendEmail(w http.ResponseWriter, r *http.Request) {
	var req domain.EmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	notification, err := h.notifications.SendEmail(r.Context(), &req)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, notification)
}

// handleGetNotifications returns a user's notification history.
func (h *Handler) handleGetNotifications(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUUIDParam(r, "userId")
	if !ok {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	notifications, err := h.notifications.GetByUser(r.Context(), userID)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, notifications)
}

// handleGetUnreadNotifications returns only the unread notifications.
func (h *Handler) handleGetUnreadNotifications(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUUIDParam(r, "userId")
	if !ok {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	notifications, err := h.notifications.GetUnreadByUser(r.Context(), userID)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, notifications)
}

// handleMarkNotificationRead flags one notification as read.
func (h *Handler) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(r, "id")
	if !ok {
		http.Error(w, "Invalid notification ID", http.StatusBadRequest)
		return
	}

	notification, err := h.notifications.MarkRead(r.Context(), id)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, notification)
}
