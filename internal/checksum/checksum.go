// Package checksum fingerprints template definitions so that republishing
// an unchanged definition can be detected and skipped.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// SumJSON fingerprints v via its canonical JSON encoding (map keys are
// sorted by encoding/json), so equal definitions hash equally regardless
// of source formatting.
func SumJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("checksum: marshal: %w", err)
	}
	return Sum(data), nil
}
