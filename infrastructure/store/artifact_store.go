package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/peerbench/peerbench/internal/ports"
)

var _ ports.ArtifactStore = (*FileArtifactStore)(nil)

// Side-file suffixes for signed artifacts on durable storage.
const (
	cidSuffix       = ".cid"
	signatureSuffix = ".signature"
)

// FileArtifactStore persists signed artifacts to a directory, pairing
// each artifact with <name>.cid and <name>.signature plain-text side
// files so a third party can verify integrity and attribution offline,
// without re-deriving state from a database.
type FileArtifactStore struct {
	dir string
}

// NewFileArtifactStore creates an artifact store rooted at dir,
// creating the directory if needed.
func NewFileArtifactStore(dir string) (*FileArtifactStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact dir: %w", err)
	}
	return &FileArtifactStore{dir: dir}, nil
}

// WriteSigned writes the artifact payload plus its side files. The
// signature side file is omitted when signature is empty, which is the
// unsigned open-tier case.
func (s *FileArtifactStore) WriteSigned(ctx context.Context, name string, payload []byte, cid, signature string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validArtifactName(name); err != nil {
		return err
	}

	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return fmt.Errorf("write artifact %s: %w", name, err)
	}
	if err := os.WriteFile(path+cidSuffix, []byte(cid+"\n"), 0o644); err != nil {
		return fmt.Errorf("write cid side file for %s: %w", name, err)
	}
	if signature != "" {
		if err := os.WriteFile(path+signatureSuffix, []byte(signature+"\n"), 0o644); err != nil {
			return fmt.Errorf("write signature side file for %s: %w", name, err)
		}
	}
	return nil
}

// ReadSigned reads an artifact payload and its side-file values. A
// missing signature side file yields an empty signature, matching an
// unsigned artifact.
func (s *FileArtifactStore) ReadSigned(ctx context.Context, name string) ([]byte, string, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", "", err
	}
	if err := validArtifactName(name); err != nil {
		return nil, "", "", err
	}

	path := filepath.Join(s.dir, name)
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, "", "", fmt.Errorf("read artifact %s: %w", name, err)
	}

	cidBytes, err := os.ReadFile(path + cidSuffix)
	if err != nil {
		return nil, "", "", fmt.Errorf("read cid side file for %s: %w", name, err)
	}

	var signature string
	if sigBytes, err := os.ReadFile(path + signatureSuffix); err == nil {
		signature = strings.TrimSpace(string(sigBytes))
	} else if !os.IsNotExist(err) {
		return nil, "", "", fmt.Errorf("read signature side file for %s: %w", name, err)
	}

	return payload, strings.TrimSpace(string(cidBytes)), signature, nil
}

// validArtifactName rejects names that would escape the store
// directory.
func validArtifactName(name string) error {
	if name == "" || strings.ContainsAny(name, "/\\") || name != filepath.Base(name) {
		return fmt.Errorf("invalid artifact name: %q", name)
	}
	return nil
}
