package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Client sends transactional mail through the external mail endpoints.
type Client interface {
	SendOTP(ctx context.Context, email, otp, firstName string) error
	SendWelcome(ctx context.Context, email, firstName string) error
}

type sendResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// HTTPClient posts JSON payloads to the configured mail endpoints.
type HTTPClient struct {
	otpEndpoint     string
	welcomeEndpoint string
	httpClient      *http.Client
	logger          *slog.Logger
}

func NewHTTPClient(otpEndpoint, welcomeEndpoint string, timeout time.Duration, logger *slog.Logger) *HTTPClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPClient{
		otpEndpoint:     otpEndpoint,
		welcomeEndpoint: welcomeEndpoint,
		httpClient:      &http.Client{Timeout: timeout},
		logger:          logger,
	}
}

func (c *HTTPClient) SendOTP(ctx context.Context, email, otp, firstName string) error {
	payload := map[string]string{
		"email":     email,
		"otp":       otp,
		"firstName": firstName,
	}
	return c.post(ctx, c.otpEndpoint, payload)
}

func (c *HTTPClient) SendWelcome(ctx context.Context, email, firstName string) error {
	payload := map[string]string{
		"email":     email,
		"firstName": firstName,
	}
	return c.post(ctx, c.welcomeEndpoint, payload)
}

func (c *HTTPClient) post(ctx context.Context, endpoint string, payload map[string]string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal mail payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build mail request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("mail request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("mail service returned status %d", resp.StatusCode)
	}

	var out sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("failed to decode mail response: %w", err)
	}
	if !out.Success {
		return fmt.Errorf("mail service rejected request: %s", out.Message)
	}

	return nil
}
