// Package client is a typed Go client for the todos HTTP API. It keeps the
// signed-in session, persists it through a Store and notifies listeners
// when the auth state changes.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/adanyl0v/todos/internal/models"
)

const (
	DefaultUserAgent = "todos-tui/1.0"
	defaultTimeout   = 10 * time.Second
)

var (
	ErrNotSignedIn = errors.New("not signed in")
	ErrEmptyTitle  = errors.New("empty title")
)

// APIError is returned when the API responds with a non-2xx status.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("todos api %d: %s", e.Status, e.Message)
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	store      Store
	logger     zerolog.Logger

	mu      sync.Mutex
	session *Session

	// refreshMu serializes token refreshes so that a rotated refresh
	// token is never sent twice.
	refreshMu sync.Mutex

	listenersMu    sync.Mutex
	listeners      map[int]AuthChangeFunc
	nextListenerID int
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

func WithUserAgent(userAgent string) Option {
	return func(c *Client) { c.userAgent = userAgent }
}

// WithStore persists the session. Without it the session lives in memory.
func WithStore(store Store) Option {
	return func(c *Client) { c.store = store }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  DefaultUserAgent,
		httpClient: &http.Client{Timeout: defaultTimeout},
		store:      NewMemoryStore(nil),
		logger:     zerolog.Nop(),
		listeners:  make(map[int]AuthChangeFunc),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type errorResponse struct {
	Error string `json:"error"`
}

func (c *Client) newRequest(ctx context.Context, method, path, accessToken string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
	return req, nil
}

// send performs a single request and decodes the response into out.
func (c *Client) send(ctx context.Context, method, path, accessToken string, body, out any) error {
	req, err := c.newRequest(ctx, method, path, accessToken, body)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().
			Err(err).
			Str("method", method).
			Str("path", path).
			Msg("request failed")
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}

	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Msg("request done")

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	err = json.NewDecoder(resp.Body).Decode(out)
	if err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}

	var body errorResponse
	err := json.NewDecoder(resp.Body).Decode(&body)
	if err == nil && body.Error != "" {
		apiErr.Message = body.Error
	} else {
		apiErr.Message = strings.ToLower(http.StatusText(resp.StatusCode))
	}
	return apiErr
}

// doAuthed sends an authenticated request. A 401 triggers one refresh
// and one retry.
func (c *Client) doAuthed(ctx context.Context, method, path string, body, out any) error {
	session, err := c.GetSession(ctx)
	if err != nil {
		return err
	}
	if session == nil {
		return ErrNotSignedIn
	}

	err = c.send(ctx, method, path, session.AccessToken, body, out)
	if !IsStatus(err, http.StatusUnauthorized) {
		return err
	}

	c.logger.Debug().
		Str("path", path).
		Msg("access token rejected, refreshing")
	session, err = c.refresh(ctx, session.AccessToken)
	if err != nil {
		return err
	}
	return c.send(ctx, method, path, session.AccessToken, body, out)
}

func (c *Client) notify(event models.AuthEventType, session *Session) {
	c.listenersMu.Lock()
	listeners := make([]AuthChangeFunc, 0, len(c.listeners))
	for _, fn := range c.listeners {
		listeners = append(listeners, fn)
	}
	c.listenersMu.Unlock()

	c.logger.Debug().
		Str("event", string(event)).
		Int("listeners", len(listeners)).
		Msg("auth state changed")
	for _, fn := range listeners {
		fn(event, session.clone())
	}
}
