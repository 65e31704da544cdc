package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Sha256Hex computes the SHA256 hash of an input string and returns it as a hex-encoded string.
func Sha256Hex(input string) string {
	hasher := sha256.New()
	// Write operation on hash.Hash never returns an error.
	_, _ = hasher.Write([]byte(input)) //nolint:errcheck
	return hex.EncodeToString(hasher.Sum(nil))
}

// RandomTokenHex returns n random bytes as a hex-encoded string, suitable for
// opaque refresh credentials. Only the SHA256 of the result is ever persisted.
func RandomTokenHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
