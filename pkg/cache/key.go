package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// keyPrefix namespaces every key this package writes.
const keyPrefix = "emuready"

// maxInputLen is the longest input kept verbatim in a key; longer inputs
// are replaced by their SHA-256.
const maxInputLen = 200

// Key identifies a cached response.
type Key struct {
	// Procedure is the procedure name (e.g., "mobile.getGames")
	Procedure string

	// Input is the encoded request envelope. Encoding is deterministic, so
	// equal inputs give equal keys.
	Input string
}

// String generates the Redis key.
// Format: emuready:<procedure>:<input>
//
// Example:
//
//	emuready:mobile.getGames:{"0":{"json":{"limit":20,"offset":0}}}
func (k Key) String() string {
	input := k.Input
	if len(input) > maxInputLen {
		sum := sha256.Sum256([]byte(input))
		input = "sha256=" + hex.EncodeToString(sum[:])
	}
	return strings.Join([]string{keyPrefix, k.Procedure, input}, ":")
}

// procedurePattern matches every key of one procedure, or all keys when
// procedure is empty.
func procedurePattern(procedure string) string {
	if procedure == "" {
		return keyPrefix + ":*"
	}
	return keyPrefix + ":" + procedure + ":*"
}
