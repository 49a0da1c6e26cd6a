package handler

import (
	"encoding/json"
	"net/http"

	"github.com/ward-notify-api/internal/application/gateway"
	"github.com/ward-notify-api/internal/application/writer"
	"github.com/ward-notify-api/internal/domain"
	"github.com/ward-notify-api/internal/transport/http/middleware"
)

// NotificationHandler handles notification endpoints.
type NotificationHandler struct {
	gw     gateway.Service
	writer writer.Service
}

func NewNotificationHandler(gw gateway.Service, wr writer.Service) *NotificationHandler {
	return &NotificationHandler{gw: gw, writer: wr}
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	snap, err := h.gw.GetForUser(r.Context(), claims.UserID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, NotificationsEnvelope{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, NotificationsEnvelope{
		Success:       true,
		Notifications: snap.Notifications,
		UnreadCount:   snap.UnreadCount,
	})
}

func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	count, err := h.gw.CountUnread(r.Context(), claims.UserID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, UnreadCountEnvelope{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, UnreadCountEnvelope{Success: true, UnreadCount: count})
}

// Create accepts service-to-service creation requests. The writer never
// errors: failures come back in the result status with HTTP 200.
func (h *NotificationHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var in writer.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if in.CreatedBy == "" {
		in.CreatedBy = claims.UserID
	}
	writeJSON(w, http.StatusOK, h.writer.Create(r.Context(), in))
}

type markReadRequest struct {
	NotificationID string `json:"notification_id"`
	All            bool   `json:"all"`
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req markReadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	var err error
	switch {
	case req.All:
		err = h.gw.MarkAllRead(r.Context(), claims.UserID)
	case req.NotificationID != "":
		err = h.gw.MarkRead(r.Context(), claims.UserID, req.NotificationID)
	default:
		writeError(w, http.StatusBadRequest, "notification_id or all required")
		return
	}
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Success: true})
}

type deleteRequest struct {
	NotificationID string                  `json:"notification_id"`
	All            bool                    `json:"all"`
	Type           domain.NotificationType `json:"type"`
}

func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req deleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	var (
		deleted int
		err     error
		msg     string
	)
	switch {
	case req.All:
		deleted, err = h.gw.DeleteAll(r.Context(), claims.UserID)
		msg = "all notifications deleted"
	case req.Type != "":
		deleted, err = h.gw.DeleteByType(r.Context(), claims.UserID, req.Type)
		msg = "notifications deleted by type"
	case req.NotificationID != "":
		deleted, err = h.gw.Delete(r.Context(), claims.UserID, req.NotificationID)
		msg = "notification deleted"
	default:
		writeError(w, http.StatusBadRequest, "notification_id, all or type required")
		return
	}
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, DeleteEnvelope{Success: true, Message: msg, DeletedCount: deleted})
}
