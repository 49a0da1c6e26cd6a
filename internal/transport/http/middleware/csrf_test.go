package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	jwtinfra "github.com/ward-notify-api/internal/infrastructure/jwt"
)

type fakeValidator struct{ err error }

func (f *fakeValidator) Validate(userID, token string) error { return f.err }

func doCSRFRequest(t *testing.T, validator CSRFValidator, withClaims bool, token string) *httptest.ResponseRecorder {
	t.Helper()
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodDelete, "/v1/notifications", nil)
	if withClaims {
		ctx := context.WithValue(req.Context(), ClaimsKey, &jwtinfra.Claims{UserID: "u1"})
		req = req.WithContext(ctx)
	}
	if token != "" {
		req.Header.Set(CSRFHeader, token)
	}

	rec := httptest.NewRecorder()
	CSRF(validator)(next).ServeHTTP(rec, req)

	if rec.Code == http.StatusOK {
		assert.True(t, called)
	} else {
		assert.False(t, called)
	}
	return rec
}

func TestCSRF_ValidToken(t *testing.T) {
	rec := doCSRFRequest(t, &fakeValidator{}, true, "tok")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCSRF_MissingToken(t *testing.T) {
	rec := doCSRFRequest(t, &fakeValidator{}, true, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCSRF_InvalidToken(t *testing.T) {
	rec := doCSRFRequest(t, &fakeValidator{err: errors.New("bad")}, true, "tok")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCSRF_NoClaims(t *testing.T) {
	rec := doCSRFRequest(t, &fakeValidator{}, false, "tok")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
