package handler

import (
	"net/http"

	"github.com/ward-notify-api/internal/infrastructure/csrf"
	"github.com/ward-notify-api/internal/transport/http/middleware"
)

// CSRFHandler issues anti-forgery tokens. Clients fetch one token per login
// and send it back in the X-CSRF-Token header on every mutating call.
type CSRFHandler struct {
	provider *csrf.Provider
}

func NewCSRFHandler(provider *csrf.Provider) *CSRFHandler {
	return &CSRFHandler{provider: provider}
}

func (h *CSRFHandler) Token(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	token, err := h.provider.Issue(claims.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not issue token")
		return
	}
	writeJSON(w, http.StatusOK, CSRFEnvelope{CSRFToken: token})
}
