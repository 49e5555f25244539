/**
 * @description
 * This file sets up the HTTP router using the go-chi/chi router. It defines
 * the API routes, applies middleware for logging, CORS, and authentication,
 * and maps the routes to their corresponding handler functions.
 */
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new Chi router and registers all routes.
func NewRouter(h *Handler, jwtSecret string) *chi.Mux {
	r := chi.NewRouter()

	// Setup middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any major browsers
	}))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("RemindYourSubs backend is healthy"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		// Public auth endpoints
		r.Post("/auth/register", h.handleRegister)
		r.Post("/auth/login", h.handleLogin)

		// Protected routes that require authentication
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(jwtSecret))

			r.Route("/users", func(r chi.Router) {
				r.Get("/", h.handleListUsers)
				r.Get("/{id}", h.handleGetUser)
				r.Put("/{id}", h.handleUpdateUser)
				r.Delete("/{id}", h.handleDeleteUser)
			})

			r.Route("/subscriptions", func(r chi.Router) {
				r.Get("/", h.handleListSubscriptions)
				r.Post("/", h.handleCreateSubscription)
				r.Get("/{id}", h.handleGetSubscription)
				r.Put("/{id}", h.handleUpdateSubscription)
				r.Put("/{id}/toggle-reminder", h.handleToggleReminder)
				r.Delete("/{id}", h.handleDeleteSubscription)
				r.Get("/user/{userId}", h.handleGetSubscriptionsByUser)
				r.Get("/user/{userId}/expense", h.handleGetMonthlyExpense)
				r.Get("/user/{userId}/analytics", h.handleGetSubscriptionAnalytics)
			})

			r.Route("/payment-methods", func(r chi.Router) {
				r.Post("/", h.handleCreatePaymentMethod)
				r.Get("/{id}", h.handleGetPaymentMethod)
				r.Put("/{id}", h.handleUpdatePaymentMethod)
				r.Put("/{id}/set-default", h.handleSetDefaultPaymentMethod)
				r.Delete("/{id}", h.handleDeletePaymentMethod)
				r.Get("/user/{userId}", h.handleGetPaymentMethodsByUser)
				r.Get("/user/{userId}/expiring", h.handleGetExpiringPaymentMethods)
				r.Get("/user/{userId}/analytics", h.handleGetPaymentMethodAnalytics)
				r.Post("/user/{userId}/check-alerts", h.handleCheckAlerts)
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Post("/send", h.handleSendEmail)
				r.Get("/user/{userId}", h.handleGetNotifications)
				r.Get("/user/{userId}/unread", h.handleGetUnreadNotifications)
				r.Put("/{id}/read", h.handleMarkNotificationRead)
			})
		})
	})

	return r
}
