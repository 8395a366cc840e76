package booking

import (
	"crypto/rand"
	"encoding/base64"
)

// tokenBytes gives 256 bits of entropy, 43 URL-safe characters encoded.
const tokenBytes = 32

// NewCancellationToken returns a random URL-safe token.
func NewCancellationToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
