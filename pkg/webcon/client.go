package webcon

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MrMartinM/webcon-import/pkg/logger"
)

// RetryPolicy controls the retry loop for element creation calls
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
}

// Delay computes the backoff before retry attempt n (0-indexed):
// BaseDelay doubled after every failed attempt.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	return p.BaseDelay << attempt
}

// Config carries the connection settings for the workflow engine API
type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	DatabaseID   string
	Path         string
	Mode         string
	Retry        RetryPolicy
	Timeout      time.Duration
}

// Client talks to the workflow engine's REST API. It performs exactly one
// authentication call per run and one element creation call per row, with
// transient failures retried under the configured policy.
type Client struct {
	cfg        Config
	httpClient *http.Client
	token      string
	log        *logger.Logger
}

// NewClient creates an unauthenticated client
func NewClient(cfg Config, log *logger.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

// Authenticate exchanges the client credentials for a bearer token. A
// response without a token is a configuration problem and fails the whole
// run; it is never retried.
func (c *Client) Authenticate(ctx context.Context) error {
	form := url.Values{}
	form.Set("client_id", c.cfg.ClientID)
	form.Set("client_secret", c.cfg.ClientSecret)
	form.Set("grant_type", "client_credentials")

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/api/oauth2/token"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("token endpoint returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var tokenResponse struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &tokenResponse); err != nil {
		return fmt.Errorf("failed to decode token response: %w", err)
	}
	if tokenResponse.AccessToken == "" {
		return fmt.Errorf("token endpoint returned no access token")
	}

	c.token = tokenResponse.AccessToken
	c.log.Info("Authenticated with the workflow engine")
	return nil
}

// CreateElement creates one workflow element, retrying transient failures
// with exponential backoff. Permanent failures and exhausted retries return
// the last error to the caller.
func (c *Client) CreateElement(ctx context.Context, element *ElementRequest) (*ElementResponse, error) {
	reqID := uuid.New().String()

	attempt := 0
	for {
		resp, err := c.createOnce(ctx, reqID, element)
		if err == nil {
			return resp, nil
		}

		if !IsRetryable(err) {
			return nil, err
		}
		if attempt >= c.cfg.Retry.MaxRetries {
			c.log.Warnf("Giving up after %d retries: %v", c.cfg.Retry.MaxRetries, err)
			return nil, err
		}

		delay := c.cfg.Retry.Delay(attempt)
		c.log.Warnf("Transient failure on attempt %d, retrying in %s: %v", attempt+1, delay, err)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		attempt++
	}
}

// createOnce performs a single element creation call
func (c *Client) createOnce(ctx context.Context, reqID string, element *ElementRequest) (*ElementResponse, error) {
	body, err := json.Marshal(element)
	if err != nil {
		return nil, fmt.Errorf("failed to encode element request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/api/data/v6.0/db/%s/elements?path=%s&mode=%s",
		strings.TrimRight(c.cfg.BaseURL, "/"),
		c.cfg.DatabaseID,
		url.QueryEscape(c.cfg.Path),
		url.QueryEscape(c.cfg.Mode))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build element request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("element request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	c.log.Debugf("Element call %s finished with status %d in %s", reqID, resp.StatusCode, time.Since(start))

	if resp.StatusCode/100 != 2 {
		return nil, parseAPIError(resp.StatusCode, raw)
	}

	var created ElementResponse
	if err := json.Unmarshal(raw, &created); err != nil {
		return nil, fmt.Errorf("failed to decode element response: %w", err)
	}
	return &created, nil
}

// parseAPIError builds an APIError from a non-2xx response body
func parseAPIError(statusCode int, raw []byte) *APIError {
	apiErr := &APIError{StatusCode: statusCode}

	var body apiErrorBody
	if err := json.Unmarshal(raw, &body); err == nil {
		apiErr.Type = body.Type
		apiErr.Description = body.Description
		apiErr.ErrorGuid = body.ErrorGuid
		apiErr.Message = body.Message
		if apiErr.Message == "" {
			apiErr.Message = body.ErrorText
		}
	}
	if apiErr.Description == "" && apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(raw))
	}
	return apiErr
}

// IsRetryable classifies a failure as transient or permanent. Connection
// failures, timeouts and 5xx responses other than 501 are transient.
// Everything else, including unknown error types, is permanent: unknown
// failures are not assumed to be transient.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	// Only explicit caller cancellation is permanent. Client receive
	// timeouts surface as context.DeadlineExceeded too, and those are
	// transport faults that must stay retryable.
	if errors.Is(err, context.Canceled) {
		return false
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	// A *url.Error that is not a context cancellation means the request
	// never produced a response: connection failure or timeout.
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}

	return false
}
