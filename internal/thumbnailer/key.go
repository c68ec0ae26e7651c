package thumbnailer

import (
	"crypto/sha1"
	"encoding/hex"
)

// DeriveKey returns the index document key for a source object path: the
// hex SHA-1 of the path bytes. Upload and delete both recompute it, so it
// must depend on nothing but the path.
func DeriveKey(sourcePath string) string {
	sum := sha1.Sum([]byte(sourcePath))
	return hex.EncodeToString(sum[:])
}
