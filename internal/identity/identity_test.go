package identity

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peerbench/peerbench/internal/domain"
)

func TestCanonicalJSON_KeyOrderIndependence(t *testing.T) {
	a := map[string]any{
		"zeta":  1,
		"alpha": map[string]any{"nested": true, "also": "yes"},
		"mid":   []any{"x", "y"},
	}
	b := map[string]any{
		"mid":   []any{"x", "y"},
		"alpha": map[string]any{"also": "yes", "nested": true},
		"zeta":  1,
	}

	canonicalA, err := CanonicalJSON(a)
	require.NoError(t, err)
	canonicalB, err := CanonicalJSON(b)
	require.NoError(t, err)

	assert.Equal(t, canonicalA, canonicalB,
		"semantically identical values must encode to identical bytes")
}

func TestCanonicalJSON_StructFieldOrderIrrelevant(t *testing.T) {
	type first struct {
		B string `json:"b"`
		A string `json:"a"`
	}
	type second struct {
		A string `json:"a"`
		B string `json:"b"`
	}

	canonicalFirst, err := CanonicalJSON(first{A: "1", B: "2"})
	require.NoError(t, err)
	canonicalSecond, err := CanonicalJSON(second{A: "1", B: "2"})
	require.NoError(t, err)

	assert.Equal(t, canonicalFirst, canonicalSecond)
}

func TestCanonicalJSON_UnmarshalableValue(t *testing.T) {
	_, err := CanonicalJSON(make(chan int))
	assert.Error(t, err)
}

func TestComputeCID(t *testing.T) {
	payload := []byte(`{"a":1}`)

	cid := ComputeCID(payload)

	assert.True(t, strings.HasPrefix(cid, CIDPrefix))
	assert.True(t, ValidCID(cid))
	assert.Equal(t, cid, ComputeCID(payload), "CID must be deterministic")
	assert.NotEqual(t, cid, ComputeCID([]byte(`{"a":2}`)))
}

func TestComputeCIDFor_MatchesCanonicalBytes(t *testing.T) {
	payload := domain.SubmissionPayload{
		Type:        domain.PayloadScores,
		PromptSetID: "set-1",
		Scores: []domain.Score{
			{Scorer: "exact-match", PromptID: "p1", ResponseID: "r1", EntityID: "e1", Value: 1, Valid: true},
		},
	}

	cid, err := ComputeCIDFor(payload)
	require.NoError(t, err)

	canonical, err := CanonicalJSON(payload)
	require.NoError(t, err)
	assert.Equal(t, ComputeCID(canonical), cid)
}

func TestValidCID(t *testing.T) {
	tests := []struct {
		name string
		cid  string
		want bool
	}{
		{
			name: "well-formed cid",
			cid:  ComputeCID([]byte("payload")),
			want: true,
		},
		{
			name: "missing prefix",
			cid:  "deadbeef",
			want: false,
		},
		{
			name: "wrong digest length",
			cid:  CIDPrefix + "abcd",
			want: false,
		},
		{
			name: "non-hex digest",
			cid:  CIDPrefix + strings.Repeat("zz", 32),
			want: false,
		},
		{
			name: "empty string",
			cid:  "",
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidCID(tt.cid))
		})
	}
}

func TestSignAndVerify(t *testing.T) {
	keys, err := GenerateKeyPair()
	require.NoError(t, err)

	signer := NewSigner(keys)
	payload := []byte(`{"type":"scores"}`)

	sig, err := signer.Sign(payload)
	require.NoError(t, err)
	require.NotEmpty(t, sig)

	assert.True(t, Verify(payload, sig, signer.Address()))
	assert.False(t, Verify([]byte(`{"type":"tampered"}`), sig, signer.Address()),
		"signature must not verify over different bytes")

	otherKeys, err := GenerateKeyPair()
	require.NoError(t, err)
	assert.False(t, Verify(payload, sig, otherKeys.Address()),
		"signature must not verify against a different key")
}

func TestVerify_MalformedInputs(t *testing.T) {
	keys, err := GenerateKeyPair()
	require.NoError(t, err)
	payload := []byte("payload")
	sig, err := NewSigner(keys).Sign(payload)
	require.NoError(t, err)

	tests := []struct {
		name      string
		signature string
		address   string
	}{
		{name: "non-hex address", signature: sig, address: "not-hex"},
		{name: "short address", signature: sig, address: "abcd"},
		{name: "non-hex signature", signature: "not-hex", address: keys.Address()},
		{name: "short signature", signature: "abcd", address: keys.Address()},
		{name: "empty everything", signature: "", address: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, Verify(payload, tt.signature, tt.address))
		})
	}
}

func TestSigner_MissingCredential(t *testing.T) {
	signer := NewSigner(nil)

	_, err := signer.Sign([]byte("payload"))

	assert.ErrorIs(t, err, domain.ErrMissingCredential)
	assert.Empty(t, signer.Address())
}

func TestKeyPairFromSeed(t *testing.T) {
	seed := make([]byte, 32)
	for i := range seed {
		seed[i] = byte(i)
	}

	first, err := KeyPairFromSeed(seed)
	require.NoError(t, err)
	second, err := KeyPairFromSeed(seed)
	require.NoError(t, err)

	assert.Equal(t, first.Address(), second.Address(),
		"same seed must derive the same identity")

	_, err = KeyPairFromSeed([]byte("short"))
	assert.Error(t, err)
}
