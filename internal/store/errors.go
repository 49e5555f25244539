package store

import "errors"

// Sentinel errors surfaced to the app and API layers. The API maps the
// not-found family to 404 and ErrEmailTaken to 409.
var (
	ErrUserNotFound          = errors.New("user not found")
	ErrSubscriptionNotFound  = errors.New("subscription not found")
	ErrPaymentMethodNotFound = errors.New("payment method not found")
	ErrNotificationNotFound  = errors.New("notification not found")
	ErrPaymentAlertNotFound  = errors.New("payment alert not found")
	ErrEmailTaken            = errors.New("email already registered")
)
