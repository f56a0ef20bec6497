package audit

import (
	"crypto/sha256"
	"encoding/hex"
)

// Digest returns the SHA-256 hex digest of arg. The decision sink stores
// this, never the raw argument (§9 "Audit record addressability": "the sink
// may be replicated to channels with a weaker trust boundary than the
// enforcement core").
func Digest(arg string) string {
	sum := sha256.Sum256([]byte(arg))
	return hex.EncodeToString(sum[:])
}
