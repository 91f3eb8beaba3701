// hashing.go - Password digest helpers.
//
// The digest is a plain SHA-256 hex string with no salt. The unsalted
// scheme is kept deliberately so stored digests stay comparable across
// restarts and deployments; a per-account salt would change the stored
// format. Verification is constant time once lengths match.
package server

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// hashPassword returns the deterministic hex digest stored for a password.
func hashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// digestsEqual compares two digests in constant time. Mismatched lengths
// are false without attempting the comparison.
func digestsEqual(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
