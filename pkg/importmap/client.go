package importmap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	environmentsPath = "environments"
	importMapPath    = "import-map.json"

	// DefaultTimeout bounds a single request to the deployer.
	DefaultTimeout = 30 * time.Second
)

// ErrMissingCredentials is returned when the deployer username or password is empty.
var ErrMissingCredentials = errors.New("import-map deployer credentials are not set")

// APIError represents a failed call to the import-map deployer.
type APIError struct {
	Operation  string // "environments" or "import-map"
	StatusCode int    // HTTP status, 0 when the request did not complete
	Cause      error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("import-map deployer %s: HTTP %d", e.Operation, e.StatusCode)
	}
	return fmt.Sprintf("import-map deployer %s: %v", e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *APIError) Unwrap() error {
	return e.Cause
}

// Client talks to an import-map deployer over HTTP with basic auth.
type Client struct {
	baseURL  string
	username string
	password string
	client   *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.client = hc
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.client = &http.Client{Timeout: d}
		}
	}
}

// NewClient creates a client for the deployer at baseURL.
func NewClient(baseURL, username, password string, opts ...Option) (*Client, error) {
	if username == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	c := &Client{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		username: username,
		password: password,
		client:   &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the configured deployer URL without trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListEnvironments returns every environment known to the deployer.
func (c *Client) ListEnvironments(ctx context.Context) ([]Environment, error) {
	var resp environmentsResponse
	if err := c.get(ctx, "environments", environmentsPath, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Environments, nil
}

// FetchImportMap returns the import map deployed to the named environment.
func (c *Client) FetchImportMap(ctx context.Context, environment string) (*ImportMap, error) {
	query := url.Values{"env": []string{environment}}

	var im ImportMap
	if err := c.get(ctx, "import-map", importMapPath, query, &im); err != nil {
		return nil, err
	}
	return &im, nil
}

func (c *Client) get(ctx context.Context, operation, path string, query url.Values, out any) error {
	endpoint := fmt.Sprintf("%s/%s", c.baseURL, path)
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return &APIError{Operation: operation, Cause: err}
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return &APIError{Operation: operation, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return &APIError{
			Operation:  operation,
			StatusCode: resp.StatusCode,
			Cause:      fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &APIError{Operation: operation, Cause: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}
