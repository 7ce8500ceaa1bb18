package consoleclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/replicatedhq/kots-sub006/internal/appconfig"
)

const (
	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 10 * time.Second

	// DefaultMaxRetries is the default number of retry attempts for failed requests
	DefaultMaxRetries = 3

	// DefaultRetryDelay is the default delay between retry attempts
	DefaultRetryDelay = 1 * time.Second

	// DefaultMaxRetryDelay is the maximum delay for exponential backoff
	DefaultMaxRetryDelay = 30 * time.Second
)

// Client represents an HTTP client for the admin console's config API
type Client struct {
	// BaseURL is the console API base URL (e.g., "http://localhost:3000")
	BaseURL string

	// Username for HTTP Basic Auth (empty disables auth)
	Username string

	// Password for HTTP Basic Auth
	Password string

	// HTTPClient is the underlying HTTP client
	HTTPClient *http.Client

	// MaxRetries is the maximum number of retry attempts for failed requests
	MaxRetries int

	// RetryDelay is the initial delay between retry attempts
	RetryDelay time.Duration

	// MaxRetryDelay is the maximum delay for exponential backoff
	MaxRetryDelay time.Duration
}

// New creates a new console API client for the given base URL
func New(baseURL string) *Client {
	return &Client{
		BaseURL:       baseURL,
		HTTPClient:    &http.Client{Timeout: DefaultTimeout},
		MaxRetries:    DefaultMaxRetries,
		RetryDelay:    DefaultRetryDelay,
		MaxRetryDelay: DefaultMaxRetryDelay,
	}
}

// SetTimeout sets the HTTP request timeout
func (c *Client) SetTimeout(timeout time.Duration) {
	c.HTTPClient.Timeout = timeout
}

// SetAuth sets HTTP Basic Auth credentials
func (c *Client) SetAuth(username, password string) {
	c.Username = username
	c.Password = password
}

// SetRetry configures retry behavior
func (c *Client) SetRetry(maxRetries int, retryDelay time.Duration) {
	c.MaxRetries = maxRetries
	c.RetryDelay = retryDelay
}

// ConfigResponse is the initial schema payload for one (slug, sequence) pair
type ConfigResponse struct {
	ConfigGroups      []appconfig.ConfigGroup `json:"configGroups"`
	DownstreamVersion int64                   `json:"downstreamVersion"`
}

// LiveConfigResponse is the recomputed tree plus validation overlay returned
// on every debounced edit
type LiveConfigResponse struct {
	ConfigGroups     []appconfig.ConfigGroup           `json:"configGroups"`
	ValidationErrors []appconfig.GroupValidationErrors `json:"validationErrors,omitempty"`
}

// SaveResponse is the outcome of persisting an edited tree
type SaveResponse struct {
	Success          bool                              `json:"success"`
	Sequence         int64                             `json:"sequence,omitempty"`
	RequiredItems    []string                          `json:"requiredItems,omitempty"`
	Error            string                            `json:"error,omitempty"`
	ValidationErrors []appconfig.GroupValidationErrors `json:"validationErrors,omitempty"`
}

type liveConfigRequest struct {
	ConfigGroups []appconfig.ConfigGroup `json:"configGroups"`
	Sequence     int64                   `json:"sequence"`
}

type saveRequest struct {
	ConfigGroups     []appconfig.ConfigGroup `json:"configGroups"`
	Sequence         int64                   `json:"sequence"`
	CreateNewVersion bool                    `json:"createNewVersion"`
}

// GetConfig retrieves the schema tree for an app at a given sequence.
// Transient failures are retried with exponential backoff.
func (c *Client) GetConfig(ctx context.Context, appSlug string, sequence int64) (*ConfigResponse, error) {
	path := fmt.Sprintf("/api/v1/app/%s/config/%d", url.PathEscape(appSlug), sequence)

	var resp ConfigResponse
	err := c.doWithRetry(ctx, func() error {
		body, err := c.do(ctx, http.MethodGet, path, nil)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			return NewParseError("failed to parse config response", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// LiveConfig submits the full edited tree for recomputation and validation.
// Never retried: the debounced caller cancels and reissues on newer edits.
func (c *Client) LiveConfig(ctx context.Context, appSlug string, sequence int64, groups []appconfig.ConfigGroup) (*LiveConfigResponse, error) {
	path := fmt.Sprintf("/api/v1/app/%s/liveconfig", url.PathEscape(appSlug))

	payload, err := json.Marshal(liveConfigRequest{ConfigGroups: groups, Sequence: sequence})
	if err != nil {
		return nil, NewParseError("failed to marshal liveconfig request", err)
	}

	body, err := c.do(ctx, http.MethodPost, path, payload)
	if err != nil {
		return nil, err
	}

	var resp LiveConfigResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, NewParseError("failed to parse liveconfig response", err)
	}
	return &resp, nil
}

// SaveConfig persists the edited tree. A rejected save (missing required
// items, validation errors) is returned as a SaveResponse, not an error;
// errors are reserved for transport and protocol failures.
func (c *Client) SaveConfig(ctx context.Context, appSlug string, sequence int64, groups []appconfig.ConfigGroup, createNewVersion bool) (*SaveResponse, error) {
	path := fmt.Sprintf("/api/v1/app/%s/config/%d/values", url.PathEscape(appSlug), sequence)

	payload, err := json.Marshal(saveRequest{ConfigGroups: groups, Sequence: sequence, CreateNewVersion: createNewVersion})
	if err != nil {
		return nil, NewParseError("failed to marshal save request", err)
	}

	var resp SaveResponse
	err = c.doWithRetry(ctx, func() error {
		body, err := c.doAllowingRejection(ctx, http.MethodPut, path, payload)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			return NewParseError("failed to parse save response", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// DownloadFile fetches a previously uploaded file's raw bytes by name.
func (c *Client) DownloadFile(ctx context.Context, appSlug string, sequence int64, filename string) ([]byte, error) {
	path := fmt.Sprintf("/api/v1/app/%s/config/%d/files/%s",
		url.PathEscape(appSlug), sequence, url.PathEscape(filename))

	var data []byte
	err := c.doWithRetry(ctx, func() error {
		body, err := c.do(ctx, http.MethodGet, path, nil)
		if err != nil {
			return err
		}
		data = body
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// doWithRetry runs attempt until it succeeds, exhausts the retry budget, or
// hits a non-retryable error. Delay doubles per attempt up to MaxRetryDelay.
func (c *Client) doWithRetry(ctx context.Context, attempt func() error) error {
	var lastErr error
	currentDelay := c.RetryDelay

	for try := 0; try <= c.MaxRetries; try++ {
		if try > 0 {
			select {
			case <-time.After(currentDelay):
			case <-ctx.Done():
				return classifyTransportError("retry wait interrupted", ctx.Err())
			}

			currentDelay *= 2
			if currentDelay > c.MaxRetryDelay {
				currentDelay = c.MaxRetryDelay
			}
		}

		err := attempt()
		if err == nil {
			return nil
		}
		lastErr = err

		if !IsRetryable(err) {
			return err
		}
	}

	return lastErr
}

// do issues one request and returns the response body. Any non-2xx status is
// an error.
func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	return c.request(ctx, method, path, payload, false)
}

// doAllowingRejection is do, except a 4xx response body is returned to the
// caller instead of being converted to an error. The save endpoint encodes
// rejection details (required items, validation errors) in its body.
func (c *Client) doAllowingRejection(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	return c.request(ctx, method, path, payload, true)
}

func (c *Client) request(ctx context.Context, method, path string, payload []byte, allowRejection bool) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, classifyTransportError("failed to create request", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Username != "" {
		req.SetBasicAuth(c.Username, c.Password)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(fmt.Sprintf("%s %s failed", method, path), err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, NewAuthError("authentication failed (check credentials)")
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransportError("failed to read response body", err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return respBody, nil
	}
	if allowRejection && resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return respBody, nil
	}

	return nil, NewHTTPError(resp.StatusCode, fmt.Sprintf("unexpected status code %d: %s", resp.StatusCode, respBody))
}
