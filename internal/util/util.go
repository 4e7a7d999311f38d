// Package util provides small helpers shared across packages.
package util

import (
	"crypto/sha256"
	"encoding/hex"
)

func ContentHash(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}

func ContentHashString(content string) string {
	return ContentHash([]byte(content))
}

// ShortID trims an identifier for display, keeping the first n characters.
func ShortID(id string, n int) string {
	if n <= 0 || len(id) <= n {
		return id
	}
	return id[:n]
}
