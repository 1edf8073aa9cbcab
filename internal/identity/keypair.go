package identity

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/peerbench/peerbench/internal/domain"
)

// KeyPair holds an ed25519 key pair used to sign submission payloads.
// The signer address is the lowercase hex encoding of the public key.
type KeyPair struct {
	private ed25519.PrivateKey
	public  ed25519.PublicKey
}

// GenerateKeyPair creates a fresh ed25519 key pair from crypto/rand.
func GenerateKeyPair() (*KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate key pair: %w", err)
	}
	return &KeyPair{private: priv, public: pub}, nil
}

// KeyPairFromSeed derives a deterministic key pair from a 32-byte seed.
// The simulation harness uses this so persona identities are
// reproducible across runs.
func KeyPairFromSeed(seed []byte) (*KeyPair, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return &KeyPair{private: priv, public: priv.Public().(ed25519.PublicKey)}, nil
}

// Address returns the signer address for this key pair.
func (k *KeyPair) Address() string {
	return hex.EncodeToString(k.public)
}

// Signer produces signatures over payload bytes. A Signer without a key
// pair reports domain.ErrMissingCredential rather than silently
// skipping, so callers must decide whether an unsigned submission is
// still acceptable under their ingestion policy.
type Signer struct {
	keys *KeyPair
}

// NewSigner creates a Signer from the given key pair. A nil key pair is
// valid and yields a credential-less signer.
func NewSigner(keys *KeyPair) *Signer { return &Signer{keys: keys} }

// Sign signs the payload bytes and returns the hex-encoded signature.
// Returns domain.ErrMissingCredential when no key pair is configured.
func (s *Signer) Sign(payload []byte) (string, error) {
	if s.keys == nil {
		return "", domain.ErrMissingCredential
	}
	sig := ed25519.Sign(s.keys.private, payload)
	return hex.EncodeToString(sig), nil
}

// Address returns the signer address, or the empty string when no key
// pair is configured.
func (s *Signer) Address() string {
	if s.keys == nil {
		return ""
	}
	return s.keys.Address()
}

// Verify reports whether signature is a valid hex-encoded ed25519
// signature over payload by the key behind the hex-encoded address.
// Malformed addresses or signatures verify as false, never panic.
func Verify(payload []byte, signature, address string) bool {
	pub, err := hex.DecodeString(address)
	if err != nil || len(pub) != ed25519.PublicKeySize {
		return false
	}
	sig, err := hex.DecodeString(signature)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(pub), payload, sig)
}
