// Package identity provides content addressing and signing for
// submissions: canonical byte encoding, CID computation, and ed25519
// signatures. Everything here is a pure function of its inputs, which
// is what makes CIDs reproducible across independent validators.
package identity

import (
	"encoding/json"
	"fmt"
)

// CanonicalJSON serializes v into deterministic JSON bytes with
// recursively sorted object keys and no insignificant whitespace.
// Semantically identical values always encode to identical bytes, so
// two parties serializing the same payload derive the same CID
// regardless of original key order.
func CanonicalJSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	// Round-trip through an untyped value so struct field order is
	// replaced by encoding/json's sorted map-key order.
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("canonicalize payload: %w", err)
	}

	canonical, err := json.Marshal(generic)
	if err != nil {
		return nil, fmt.Errorf("re-marshal payload: %w", err)
	}
	return canonical, nil
}
