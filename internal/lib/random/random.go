package random

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// TokenLength is the length of every generated reset token.
const TokenLength = 32

const rawSize = 24 // base64url of 24 bytes is exactly 32 characters

// NewToken returns an opaque URL-safe token of TokenLength characters.
func NewToken() (string, error) {
	var raw [rawSize]byte

	if _, err := rand.Read(raw[:]); err != nil {
		return "", fmt.Errorf("random.NewToken: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(raw[:]), nil
}
