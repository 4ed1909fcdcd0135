package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeMatchID computes a deterministic match_id using SHA256.
// Formula: SHA256(candidate_id|runner_id|method)
// Returns hex-encoded hash (64 characters).
func ComputeMatchID(candidateID, runnerID, method string) string {
	data := fmt.Sprintf("%s|%s|%s", candidateID, runnerID, method)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
