package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// NotificationTypeEmail is the only delivery channel currently supported.
const NotificationTypeEmail = "EMAIL"

// Notification records one delivered message to a user, created per
// successful send attempt.
type Notification struct {
	ID             uuid.UUID  `json:"id"`
	UserID         uuid.UUID  `json:"user_id"`
	SubscriptionID *uuid.UUID `json:"subscription_id,omitempty"`
	Type           string     `json:"type"`
	Message        string     `json:"message"`
	SentAt         time.Time  `json:"sent_at"`
	IsRead         bool       `json:"is_read"`
	CreatedAt      time.Time  `json:"created_at"`
}

// EmailRequest is the payload for the send-email endpoint.
type EmailRequest struct {
	UserID         uuid.UUID  `json:"user_id"`
	SubscriptionID *uuid.UUID `json:"subscription_id,omitempty"`
	To             string     `json:"to"`
	Subject        string     `json:"subject"`
	HTML           string     `json:"html"`
}

// Validate rejects malformed requests before any send attempt.
func (r *EmailRequest) Validate() error {
	if r.UserID == uuid.Nil {
		return invalid("user_id", "user ID is required")
	}
	if strings.TrimSpace(r.To) == "" || !strings.Contains(r.To, "@") {
		return invalid("to", "a valid recipient email is required")
	}
	if strings.TrimSpace(r.Subject) == "" {
		return invalid("subject", "subject is required")
	}
	return nil
}
