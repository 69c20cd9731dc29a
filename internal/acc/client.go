// Package acc is the Autodesk Construction Cloud Takeoff API client.
// It handles 2-legged token acquisition and caching, listing endpoints
// with transparent offset pagination, and the mutation endpoints the
// exchange needs.
package acc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	defaultBaseURL = "https://developer.api.autodesk.com"
	tokenPath      = "/authentication/v2/token"
	defaultScope   = "data:read data:write"
)

// Client talks to the Takeoff API with client-credentials auth.
type Client struct {
	clientID     string
	clientSecret string
	baseURL      string
	scope        string

	httpClient *http.Client
	tokens     TokenCache
	refreshMu  sync.Mutex
	logger     *zap.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL overrides the API host, mainly for tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithTokenCache replaces the default in-memory token cache.
func WithTokenCache(tc TokenCache) Option {
	return func(c *Client) { c.tokens = tc }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a Takeoff API client.
func NewClient(clientID, clientSecret string, logger *zap.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{
		clientID:     clientID,
		clientSecret: clientSecret,
		baseURL:      defaultBaseURL,
		scope:        defaultScope,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		tokens:       NewMemoryTokenCache(),
		logger:       logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// accessToken returns a valid 2-legged token, fetching a fresh one when
// the cache has expired. The refresh lock keeps concurrent callers from
// stampeding the token endpoint.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	if token, ok := c.tokens.Get(ctx); ok {
		return token, nil
	}

	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	if token, ok := c.tokens.Get(ctx); ok {
		return token, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("scope", c.scope)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+tokenPath, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.SetBasicAuth(c.clientID, c.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("token endpoint returned %d: %s", resp.StatusCode, body)
	}

	var result struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}

	// Expire the cached token a minute early so in-flight requests do
	// not race the real expiry.
	ttl := time.Duration(result.ExpiresIn-60) * time.Second
	if ttl > 0 {
		c.tokens.Put(ctx, result.AccessToken, ttl)
	}
	return result.AccessToken, nil
}

// getPaged fetches every page of a listing endpoint and returns the
// concatenated raw results. Pages are followed with an offset query
// parameter as long as the response advertises a next page.
func (c *Client) getPaged(ctx context.Context, path string) ([]json.RawMessage, error) {
	var results []json.RawMessage
	offset := 0
	for {
		u := c.baseURL + path
		if offset > 0 {
			sep := "?"
			if strings.Contains(path, "?") {
				sep = "&"
			}
			u += sep + "offset=" + strconv.Itoa(offset)
		}

		var page pagedResponse
		if err := c.getJSON(ctx, u, &page); err != nil {
			return nil, err
		}
		results = append(results, page.Results...)
		if page.Pagination.NextURL == nil {
			return results, nil
		}
		offset += len(page.Results)
	}
}

// getJSON performs an authorized GET and decodes the response body.
func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	token, err := c.accessToken(ctx)
	if err != nil {
		return fmt.Errorf("get access token: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("GET %s returned %d: %s", url, resp.StatusCode, body)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response of %s: %w", url, err)
	}
	return nil
}

// send performs an authorized mutation and returns the upstream status
// and body verbatim.
func (c *Client) send(ctx context.Context, method, url string, body any) (int, []byte, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return 0, nil, fmt.Errorf("get access token: %w", err)
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = strings.NewReader(string(payload))
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request %s: %w", url, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("read response of %s: %w", url, err)
	}
	return resp.StatusCode, respBody, nil
}

// accProjectID strips the hub prefix ("b.") the data management APIs
// put in front of a project id; the takeoff endpoints want the bare id.
func accProjectID(projectID string) string {
	if i := strings.Index(projectID, "."); i >= 0 {
		return projectID[i+1:]
	}
	return projectID
}
