package utils

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// HashContent computes the BLAKE3 hash of content and returns it as a hex string.
func HashContent(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// HashString computes the BLAKE3 hash of a string.
func HashString(s string) string {
	return HashContent([]byte(s))
}

// ShortHash returns the first n hex characters of the BLAKE3 hash of data.
// Used for version tags where a full digest is overkill.
func ShortHash(data []byte, n int) string {
	h := HashContent(data)
	if n <= 0 || n > len(h) {
		return h
	}
	return h[:n]
}
