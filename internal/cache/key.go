package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/xkilldash9x/remedy/api/schemas"
)

const maxKeyLength = 200

// sanitizeKey maps every non-alphanumeric byte to '_' and caps the length.
func sanitizeKey(key string) string {
	var b strings.Builder
	b.Grow(min(len(key), maxKeyLength))
	for i := 0; i < len(key) && b.Len() < maxKeyLength; i++ {
		c := key[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			b.WriteByte(c)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// RequestKey derives the cache key of a fix request from its full payload,
// so any field change yields a different key.
func RequestKey(req schemas.ErrorFixRequest) string {
	// ErrorFixRequest holds only strings, ints and string slices, which
	// always encode.
	payload, _ := json.Marshal(req)
	sum := sha256.Sum256(payload)
	return "fix_" + req.Language + "_" + hex.EncodeToString(sum[:])
}
