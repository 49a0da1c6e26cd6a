package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/csrf", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		json.NewEncoder(w).Encode(map[string]string{"csrfToken": "tok-123"})
	})
	mux.HandleFunc("/v1/notifications", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		switch r.Method {
		case http.MethodGet:
			json.NewEncoder(w).Encode(map[string]interface{}{
				"success":      true,
				"unread_count": 2,
				"notifications": []map[string]interface{}{
					{"id": "n1", "type": "general", "title": "T", "message": "M", "is_read": false},
					{"id": "n2", "type": "system", "title": "S", "message": "M2", "is_read": false},
				},
			})
		case http.MethodDelete:
			if r.Header.Get(csrfHeader) != "tok-123" {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			var req struct {
				NotificationID string `json:"notification_id"`
			}
			json.NewDecoder(r.Body).Decode(&req)
			if req.NotificationID == "missing" {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			json.NewEncoder(w).Encode(map[string]interface{}{"success": true})
		}
	})
	mux.HandleFunc("/v1/notifications/unread-count", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "unread_count": 9})
	})
	mux.HandleFunc("/v1/notifications/read", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if r.Header.Get("Authorization") != "Bearer bearer-abc" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.Header.Get(csrfHeader) != "tok-123" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"success": true})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestClientFetchNotifications(t *testing.T) {
	srv, _ := newTestServer(t)
	c := NewClient(srv.URL, "bearer-abc")

	res, err := c.FetchNotifications(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.UnreadCount)
	require.Len(t, res.Notifications, 2)
	assert.Equal(t, "n1", res.Notifications[0].NotificationID)
}

func TestClientFetchUnreadCount(t *testing.T) {
	srv, _ := newTestServer(t)
	c := NewClient(srv.URL, "bearer-abc")

	count, err := c.FetchUnreadCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 9, count)
}

func TestClientMutationFailsFastWithoutCSRF(t *testing.T) {
	srv, hits := newTestServer(t)
	c := NewClient(srv.URL, "bearer-abc")

	// No PrimeCSRF: the call must fail before any network I/O.
	err := c.MarkRead(context.Background(), "n1")
	require.ErrorIs(t, err, ErrNoCSRFToken)
	assert.Equal(t, int32(0), atomic.LoadInt32(hits))
}

func TestClientMarkReadSendsAuthAndCSRFHeaders(t *testing.T) {
	srv, _ := newTestServer(t)
	c := NewClient(srv.URL, "bearer-abc")

	require.NoError(t, c.PrimeCSRF(context.Background()))
	require.NoError(t, c.MarkRead(context.Background(), "n1"))
}

func TestClientDeleteNotFound(t *testing.T) {
	srv, _ := newTestServer(t)
	c := NewClient(srv.URL, "bearer-abc")
	require.NoError(t, c.PrimeCSRF(context.Background()))

	err := c.Delete(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, c.Delete(context.Background(), "n1"))
}
