// Package fileid provides stable IDs for inbox documents and fingerprints of their content.
package fileid

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
)

const (
	prefix            = "file:"
	fingerprintPrefix = "sha256:"
)

// FileDocID returns a stable document ID for the given absolute path.
// Same path always yields the same ID.
func FileDocID(absolutePath string) string {
	normalized := filepath.Clean(absolutePath)
	hash := sha256.Sum256([]byte(normalized))
	return prefix + hex.EncodeToString(hash[:])
}

// Fingerprint identifies a document body, so a rewrite with identical text can be skipped.
func Fingerprint(content string) string {
	hash := sha256.Sum256([]byte(content))
	return fingerprintPrefix + hex.EncodeToString(hash[:16])
}
