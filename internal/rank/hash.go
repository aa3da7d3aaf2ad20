// Package rank implements the frecency scoring model and command hashing
// used to rank HistoryRecords. Every function here is pure and
// side-effect-free.
package rank

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hash returns the lowercase hex SHA-256 digest of the raw command bytes.
// The default hash applies no normalization: two commands that differ by
// even a trailing space hash differently.
func Hash(cmd string) string {
	sum := sha256.Sum256([]byte(cmd))
	return hex.EncodeToString(sum[:])
}
