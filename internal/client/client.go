package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sonvt1710/graylog2-server/internal/shares"
)

// DefaultTimeout bounds each request when no http.Client is supplied.
const DefaultTimeout = 10 * time.Second

// APIError is a non-2xx answer from the sharing server.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("sharing api: status %d", e.Status)
	}
	return fmt.Sprintf("sharing api: %s (%d): %s", e.Code, e.Status, e.Message)
}

// Client calls the prepare and update endpoints of the sharing server.
// It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the request timeout of the default http.Client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// WithToken authenticates every request with a bearer token.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = strings.TrimSpace(token)
	}
}

// New creates a client for the server at baseURL, e.g. "http://localhost:8000".
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("client: base url is required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("client: parse base url: %w", err)
	}

	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type shareRequest struct {
	SelectedGranteeCapabilities *shares.GranteeCapabilities `json:"selected_grantee_capabilities,omitempty"`
}

type loginResponse struct {
	Token struct {
		AccessToken string `json:"access_token"`
	} `json:"token"`
}

// Login exchanges credentials for an access token. The token is returned, not stored.
func (c *Client) Login(ctx context.Context, identifier, password string) (string, error) {
	var out loginResponse
	if _, err := c.do(ctx, http.MethodPost, "/api/auth/login", map[string]string{
		"identifier": identifier,
		"password":   password,
	}, &out); err != nil {
		return "", err
	}
	if out.Token.AccessToken == "" {
		return "", errors.New("client: login returned no token")
	}
	return out.Token.AccessToken, nil
}

// Prepare asks the server for the sharing state of entity. A nil selection returns the
// persisted shares; otherwise the server evaluates the selection without applying it.
func (c *Client) Prepare(ctx context.Context, entity string, selection *shares.GranteeCapabilities) (*shares.EntityShareState, error) {
	return c.share(ctx, sharePath(entity)+"/prepare", selection)
}

// Update applies selection. A rejected selection returns the server's state together
// with an *APIError.
func (c *Client) Update(ctx context.Context, entity string, selection shares.GranteeCapabilities) (*shares.EntityShareState, error) {
	return c.share(ctx, sharePath(entity), &selection)
}

func (c *Client) share(ctx context.Context, path string, selection *shares.GranteeCapabilities) (*shares.EntityShareState, error) {
	raw, err := c.do(ctx, http.MethodPost, path, shareRequest{SelectedGranteeCapabilities: selection}, nil)
	if len(raw) == 0 || string(raw) == "null" {
		if err == nil {
			err = errors.New("client: empty sharing state")
		}
		return nil, err
	}

	state, decodeErr := shares.FromJSON(raw)
	if decodeErr != nil {
		return nil, errors.Join(err, fmt.Errorf("client: decode state: %w", decodeErr))
	}
	return state, err
}

// do performs the request and returns the raw data member. When out is non-nil the data
// member is decoded into it. The data member is returned even for error answers.
func (c *Client) do(ctx context.Context, method, path string, body, out any) (json.RawMessage, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("client: encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("client: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("client: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return nil, &APIError{Status: resp.StatusCode}
		}
		return nil, fmt.Errorf("client: decode response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest || !env.Success {
		apiErr := &APIError{Status: resp.StatusCode}
		if env.Error != nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
		}
		return env.Data, apiErr
	}

	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return nil, fmt.Errorf("client: decode data: %w", err)
		}
	}
	return env.Data, nil
}

func sharePath(entity string) string {
	return "/api/authz/shares/entities/" + url.PathEscape(entity)
}
