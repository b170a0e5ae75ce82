package utils

import (
	"crypto/sha256"
	"fmt"
)

// HashText returns a hex-encoded SHA-256 digest, used for cache keys.
func HashText(input string) string {
	sum := sha256.Sum256([]byte(input))
	return fmt.Sprintf("%x", sum)
}
