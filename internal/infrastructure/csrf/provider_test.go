package csrf

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ward-notify-api/internal/config"
)

func newTestProvider(t *testing.T) *Provider {
	t.Helper()
	p, err := NewProvider(&config.Config{CSRFSecret: "test-secret", CSRFTokenTTL: time.Hour})
	require.NoError(t, err)
	return p
}

func TestIssueAndValidate(t *testing.T) {
	p := newTestProvider(t)

	tok, err := p.Issue("u1")
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	assert.NoError(t, p.Validate("u1", tok))
}

func TestValidate_WrongUser(t *testing.T) {
	p := newTestProvider(t)

	tok, err := p.Issue("u1")
	require.NoError(t, err)

	assert.Error(t, p.Validate("u2", tok))
}

func TestValidate_Garbage(t *testing.T) {
	p := newTestProvider(t)
	assert.Error(t, p.Validate("u1", "not-a-token"))
}

func TestValidate_Expired(t *testing.T) {
	p, err := NewProvider(&config.Config{CSRFSecret: "test-secret", CSRFTokenTTL: -time.Minute})
	require.NoError(t, err)

	tok, err := p.Issue("u1")
	require.NoError(t, err)

	assert.Error(t, p.Validate("u1", tok))
}

func TestNewProvider_MissingSecret(t *testing.T) {
	_, err := NewProvider(&config.Config{})
	assert.Error(t, err)
}
