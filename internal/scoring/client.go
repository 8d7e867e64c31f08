package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/greenlens-app/greenlens/internal/models"
)

var (
	// ErrRemoteUnavailable means the prediction service could not be reached
	// or answered with something other than a usable response.
	ErrRemoteUnavailable = errors.New("prediction service unavailable")

	// ErrPredictionRejected means the service answered but reported failure
	ErrPredictionRejected = errors.New("prediction rejected")
)

// Client talks to the remote prediction service
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient returns a client for the service rooted at baseURL
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Health is the body of GET /health
type Health struct {
	Status      string `json:"status,omitempty"`
	ModelLoaded bool   `json:"model_loaded"`
}

type predictRequest struct {
	Image string `json:"image"`
}

// PredictResponse is the body of POST /predict
type PredictResponse struct {
	Success        bool    `json:"success"`
	OrganicScore   float64 `json:"organic_score"`
	InorganicScore float64 `json:"inorganic_score"`
	Error          string  `json:"error,omitempty"`
}

// Health probes the service. Any failure to reach it or to decode the
// answer is reported as ErrRemoteUnavailable.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/health", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create health request: %w", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: health returned status %d", ErrRemoteUnavailable, resp.StatusCode)
	}

	var health Health
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return nil, fmt.Errorf("%w: failed to decode health response: %v", ErrRemoteUnavailable, err)
	}
	return &health, nil
}

// Predict sends one image to the service and returns its scores
func (c *Client) Predict(ctx context.Context, payload models.Payload) (models.ScorePair, error) {
	body, err := json.Marshal(predictRequest{Image: payload.DataURI()})
	if err != nil {
		return models.ScorePair{}, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return models.ScorePair{}, fmt.Errorf("failed to create predict request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return models.ScorePair{}, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.ScorePair{}, fmt.Errorf("%w: failed to read response: %v", ErrRemoteUnavailable, err)
	}

	var result struct {
		Success        *bool   `json:"success"`
		OrganicScore   float64 `json:"organic_score"`
		InorganicScore float64 `json:"inorganic_score"`
		Error          string  `json:"error"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return models.ScorePair{}, fmt.Errorf("%w: status %d: %s", ErrRemoteUnavailable, resp.StatusCode, truncate(string(raw), 200))
	}
	if result.Success == nil {
		return models.ScorePair{}, fmt.Errorf("%w: response has no success flag", ErrRemoteUnavailable)
	}

	// The service reports its own failures with success=false, sometimes
	// alongside a 4xx/5xx status.
	if !*result.Success {
		msg := result.Error
		if msg == "" {
			msg = "Prediction failed"
		}
		return models.ScorePair{}, fmt.Errorf("%w: %s", ErrPredictionRejected, msg)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return models.ScorePair{}, fmt.Errorf("%w: received status code %d", ErrRemoteUnavailable, resp.StatusCode)
	}

	return models.ScorePair{Organic: result.OrganicScore, Inorganic: result.InorganicScore}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
