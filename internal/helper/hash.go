package helper

import (
	"crypto/sha256"
	"encoding/hex"
)

// ContentHash fingerprints narration text so cached audio can be matched to it.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
