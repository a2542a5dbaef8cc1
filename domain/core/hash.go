package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Short returns the first 12 hex characters, for log lines and file names
func (h Hash) Short() string {
	if len(h) <= 12 {
		return string(h)
	}
	return string(h[:12])
}

// InputHash fingerprints the inputs of one curve build. Builds are
// deterministic, so equal fingerprints mean equal results.
type InputHash Hash

func (h InputHash) String() string { return Hash(h).String() }
func (h InputHash) Short() string  { return Hash(h).Short() }

// ComputeInputHash hashes named input values in key order. Floats are written
// with %v, which round-trips float64 exactly.
func ComputeInputHash(fields map[string]interface{}) InputHash {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var data strings.Builder
	for _, key := range keys {
		data.WriteString(key)
		data.WriteByte('=')
		data.WriteString(fmt.Sprintf("%v", fields[key]))
		data.WriteByte(';')
	}

	return InputHash(NewHash([]byte(data.String())))
}
