package idhash

import (
	"crypto/sha256"
	"encoding/hex"
)

// ComputeTokenID computes a deterministic token_id using SHA256.
// Formula: SHA256(mint)
// Returns hex-encoded hash (64 characters).
func ComputeTokenID(mint string) string {
	hash := sha256.Sum256([]byte(mint))
	return hex.EncodeToString(hash[:])
}
