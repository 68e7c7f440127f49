// Package fingerprint renders short public-key fingerprints for
// display and logging.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
)

// Of returns a short hex fingerprint of a public key.
//
// It hashes with SHA-256 and truncates to 10 bytes (20 hex chars).
func Of(pub []byte) string {
	sum := sha256.Sum256(pub)
	return hex.EncodeToString(sum[:10])
}
