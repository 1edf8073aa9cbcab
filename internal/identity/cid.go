package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// CIDPrefix tags content identifiers with the hash function that
// produced them, leaving room for future algorithm migration without
// ambiguity in stored logs.
const CIDPrefix = "sha256:"

// ComputeCID returns the content identifier for the given payload
// bytes: a SHA-256 digest rendered as "sha256:<hex>". The function is
// deterministic and collision-resistant; identical payloads always
// produce identical CIDs.
func ComputeCID(payload []byte) string {
	sum := sha256.Sum256(payload)
	return CIDPrefix + hex.EncodeToString(sum[:])
}

// ComputeCIDFor canonicalizes v and returns the CID of the canonical
// bytes. This is the form used for submission payloads, where the
// caller holds a struct rather than raw bytes.
func ComputeCIDFor(v any) (string, error) {
	canonical, err := CanonicalJSON(v)
	if err != nil {
		return "", err
	}
	return ComputeCID(canonical), nil
}

// ValidCID reports whether s is syntactically a CID this package could
// have produced.
func ValidCID(s string) bool {
	if !strings.HasPrefix(s, CIDPrefix) {
		return false
	}
	digest := strings.TrimPrefix(s, CIDPrefix)
	if len(digest) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(digest)
	return err == nil
}
