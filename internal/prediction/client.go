package prediction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/devpath-io/devpath-service/internal/models"
)

// Response is the payload returned by the career prediction endpoint.
type Response struct {
	Recommendations Recommendations `json:"recommendations"`
}

type Recommendations struct {
	JobMatches []models.CareerMatch `json:"job_matches"`
}

// Client requests ranked career matches for a feature vector.
type Client interface {
	Predict(ctx context.Context, features map[string]interface{}) (*Response, error)
}

// HTTPClient calls the external prediction service over HTTP.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewHTTPClient(baseURL string, timeout time.Duration, logger *slog.Logger) *HTTPClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Predict POSTs the flat feature map to {baseURL}/predict. Any non-2xx
// status or undecodable body is returned as an error, the caller decides
// how to surface it. There is no retry.
func (c *HTTPClient) Predict(ctx context.Context, features map[string]interface{}) (*Response, error) {
	body, err := json.Marshal(features)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal features: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build prediction request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("prediction request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("Prediction service returned error status", "status", resp.StatusCode)
		return nil, fmt.Errorf("prediction service returned status %d", resp.StatusCode)
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode prediction response: %w", err)
	}

	return &out, nil
}
