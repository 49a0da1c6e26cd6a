package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ward-notify-api/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// NotificationsEnvelope wraps the per-user notification snapshot.
type NotificationsEnvelope struct {
	Success       bool                          `json:"success"`
	Notifications []domain.UserNotificationView `json:"notifications"`
	UnreadCount   int                           `json:"unread_count"`
	Error         string                        `json:"error,omitempty"`
}

// UnreadCountEnvelope wraps the lightweight unread-count poll response.
type UnreadCountEnvelope struct {
	Success     bool   `json:"success"`
	UnreadCount int    `json:"unread_count"`
	Error       string `json:"error,omitempty"`
}

// DeleteEnvelope wraps deletion responses.
type DeleteEnvelope struct {
	Success      bool   `json:"success"`
	Message      string `json:"message,omitempty"`
	DeletedCount int    `json:"deleted_count"`
	Error        string `json:"error,omitempty"`
}

// CSRFEnvelope wraps the anti-forgery token response.
type CSRFEnvelope struct {
	CSRFToken string `json:"csrfToken"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

// httpError maps domain sentinel errors to HTTP statuses.
func httpError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrBadRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
