package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// hashKey generates a namespaced cache key ("artifact:...", "layout:...")
// by hashing the components. The full SHA-256 keeps distinct snapshots from
// ever colliding.
func hashKey(prefix string, parts ...interface{}) string {
	data, _ := json.Marshal(parts)
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(hash[:]))
}

// Hash content-addresses data as a 64-character hex SHA-256 string. The
// pipeline hashes marshaled snapshots with it, so exporting the same diagram
// twice resolves to the same cache entries.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
