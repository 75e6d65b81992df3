package keygen

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

const (
	DefaultBytes = 32
	MinBytes     = 16
	MaxBytes     = 1024
)

// Generate returns n random bytes, hex encoded.
func Generate(n int) (string, error) {
	if n < MinBytes || n > MaxBytes {
		return "", fmt.Errorf("key size must be between %d and %d bytes, got %d", MinBytes, MaxBytes, n)
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
