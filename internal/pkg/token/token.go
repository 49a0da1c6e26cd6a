package token

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// NewNonce generates a cryptographically random 32-character hex nonce,
// used as the unique id claim in issued anti-forgery tokens.
func NewNonce() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	return hex.EncodeToString(b), nil
}
