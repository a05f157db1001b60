package service

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

const (
	deviceTokenPrefix = "dev-"
	deviceTokenBytes  = 24

	// maxTokenAttempts bounds regeneration on a unique-token collision.
	maxTokenAttempts = 3
)

// TokenGenerator produces opaque device bearer tokens.
type TokenGenerator func() (string, error)

// NewDeviceToken returns "dev-" followed by 48 hex characters (192 bits).
func NewDeviceToken() (string, error) {
	b := make([]byte, deviceTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	return deviceTokenPrefix + hex.EncodeToString(b), nil
}
