package handler

import (
	"encoding/json"
	"net/http"

	"github.com/ward-notify-api/internal/application/suppression"
	"github.com/ward-notify-api/internal/pkg/validate"
	"github.com/ward-notify-api/internal/transport/http/middleware"
)

// SuppressionHandler exposes the session-scoped suppression gate to the ward
// data-entry forms.
type SuppressionHandler struct {
	mgr *suppression.Manager
}

func NewSuppressionHandler(mgr *suppression.Manager) *SuppressionHandler {
	return &SuppressionHandler{mgr: mgr}
}

type suppressionContext struct {
	Ward string `json:"ward" validate:"required"`
	Date string `json:"date" validate:"required"`
}

func decodeContext(w http.ResponseWriter, r *http.Request) (*suppressionContext, bool) {
	var req suppressionContext
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return nil, false
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	return &req, true
}

func (h *SuppressionHandler) Check(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	req, ok := decodeContext(w, r)
	if !ok {
		return
	}
	decision, err := h.mgr.ShouldNotify(r.Context(), claims.UserID, req.Ward, req.Date)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, decision)
}

func (h *SuppressionHandler) Sent(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	req, ok := decodeContext(w, r)
	if !ok {
		return
	}
	if err := h.mgr.MarkSent(r.Context(), claims.UserID, req.Ward, req.Date); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Success: true})
}

func (h *SuppressionHandler) DataDeleted(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.ClaimsFromContext(r.Context()); !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	req, ok := decodeContext(w, r)
	if !ok {
		return
	}
	if err := h.mgr.HandleRelatedDataDeletion(r.Context(), req.Ward, req.Date); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Success: true})
}

func (h *SuppressionHandler) Clear(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := h.mgr.ClearSession(r.Context(), claims.UserID); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Success: true})
}
