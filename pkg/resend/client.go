/**
 * @description
 * Client for sending transactional email through the Resend HTTP API.
 */
package resend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.resend.com"

// Client sends email through Resend. The API key is passed per call since
// users may bring their own key.
type Client struct {
	baseURL    string
	from       string
	httpClient *http.Client
}

// NewClient creates a new Resend client. All emails are sent from the given
// address.
func NewClient(from string) *Client {
	return &Client{
		baseURL:    defaultBaseURL,
		from:       from,
		httpClient: &http.Client{Timeout: 20 * time.Second},
	}
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type apiError struct {
	Message string `json:"message"`
}

// Send delivers one email. A non-2xx response is returned as an error carrying
// the Resend error message.
func (c *Client) Send(ctx context.Context, apiKey, to, subject, html string) error {
	if apiKey == "" {
		return fmt.Errorf("resend API key is not configured")
	}

	body, err := json.Marshal(sendRequest{
		From:    c.from,
		To:      []string{to},
		Subject: subject,
		HTML:    html,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal email payload: %w", err)
	}

	url := fmt.Sprintf("%s/emails", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr apiError
		data, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Message != "" {
			return fmt.Errorf("resend returned status %d: %s", resp.StatusCode, apiErr.Message)
		}
		return fmt.Errorf("resend returned status %d", resp.StatusCode)
	}

	return nil
}
