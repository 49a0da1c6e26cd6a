package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/ward-notify-api/internal/domain"
)

var (
	// ErrNoCSRFToken is returned by mutating calls before any network I/O when
	// no anti-forgery token has been cached for the current login.
	ErrNoCSRFToken = errors.New("no anti-forgery token cached; call PrimeCSRF after login")

	// ErrNotFound reports a 404 from the server.
	ErrNotFound = errors.New("not found")
)

const csrfHeader = "X-CSRF-Token"

// FetchResult is one retrieved notification snapshot.
type FetchResult struct {
	Notifications []domain.UserNotificationView
	UnreadCount   int
}

// Client is the JSON HTTP client the agent talks to the notification API with.
// It carries the bearer token for the logged-in user and caches the
// anti-forgery token fetched once per login.
type Client struct {
	httpClient *http.Client
	baseURL    string
	bearer     string

	mu        sync.Mutex
	csrfToken string
}

// NewClient creates a client for the API at baseURL (e.g. "http://api:3000")
// authenticating with the given bearer token.
func NewClient(baseURL, bearerToken string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: baseURL,
		bearer:  bearerToken,
	}
}

type csrfResponse struct {
	CSRFToken string `json:"csrfToken"`
}

type notificationsResponse struct {
	Success       bool                          `json:"success"`
	Notifications []domain.UserNotificationView `json:"notifications"`
	UnreadCount   int                           `json:"unread_count"`
	Error         string                        `json:"error,omitempty"`
}

type unreadCountResponse struct {
	Success     bool   `json:"success"`
	UnreadCount int    `json:"unread_count"`
	Error       string `json:"error,omitempty"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// PrimeCSRF fetches and caches the anti-forgery token. Call once after login,
// before any mutating call.
func (c *Client) PrimeCSRF(ctx context.Context) error {
	var res csrfResponse
	if err := c.doJSON(ctx, http.MethodGet, "/v1/csrf", nil, &res, ""); err != nil {
		return fmt.Errorf("fetch csrf token: %w", err)
	}
	c.mu.Lock()
	c.csrfToken = res.CSRFToken
	c.mu.Unlock()
	return nil
}

// FetchNotifications retrieves the caller's notification snapshot.
func (c *Client) FetchNotifications(ctx context.Context) (*FetchResult, error) {
	var res notificationsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/v1/notifications", nil, &res, ""); err != nil {
		return nil, err
	}
	return &FetchResult{Notifications: res.Notifications, UnreadCount: res.UnreadCount}, nil
}

// FetchUnreadCount retrieves only the unread count. Used by the background
// poll while the notification view is closed.
func (c *Client) FetchUnreadCount(ctx context.Context) (int, error) {
	var res unreadCountResponse
	if err := c.doJSON(ctx, http.MethodGet, "/v1/notifications/unread-count", nil, &res, ""); err != nil {
		return 0, err
	}
	return res.UnreadCount, nil
}

// MarkRead marks a single notification read for the caller.
func (c *Client) MarkRead(ctx context.Context, id string) error {
	token, err := c.cachedCSRF()
	if err != nil {
		return err
	}
	var res messageResponse
	body := map[string]interface{}{"notification_id": id}
	return c.doJSON(ctx, http.MethodPut, "/v1/notifications/read", body, &res, token)
}

// MarkAllRead marks every notification visible to the caller read.
func (c *Client) MarkAllRead(ctx context.Context) error {
	token, err := c.cachedCSRF()
	if err != nil {
		return err
	}
	var res messageResponse
	body := map[string]interface{}{"all": true}
	return c.doJSON(ctx, http.MethodPut, "/v1/notifications/read", body, &res, token)
}

// Delete removes a single notification. A server-side 404 comes back as
// ErrNotFound so the caller can reconcile its local state.
func (c *Client) Delete(ctx context.Context, id string) error {
	token, err := c.cachedCSRF()
	if err != nil {
		return err
	}
	var res messageResponse
	body := map[string]interface{}{"notification_id": id}
	return c.doJSON(ctx, http.MethodDelete, "/v1/notifications", body, &res, token)
}

func (c *Client) cachedCSRF() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.csrfToken == "" {
		return "", ErrNoCSRFToken
	}
	return c.csrfToken, nil
}

// doJSON executes one JSON request. A non-empty csrfToken is attached as the
// anti-forgery header; it is required for mutating methods.
func (c *Client) doJSON(ctx context.Context, method, path string, body, result interface{}, csrfToken string) error {
	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.bearer)
	if csrfToken != "" {
		req.Header.Set(csrfHeader, csrfToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s %s: %w", method, path, ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s %s: status=%d body=%s", method, path, resp.StatusCode, string(respBody))
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("decode response body: %w", err)
		}
	}
	return nil
}
