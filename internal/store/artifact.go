package store

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/tendertrack/tender-agent/internal/common"
)

// ArtifactStore persists raw recovered text keyed by source reference,
// as an audit side-channel for the pipeline.
type ArtifactStore interface {
	SaveRawText(sourceRef, text string) (string, error)
	ReadRawText(sourceRef string) (string, error)
}

// FSArtifactStore writes artifacts under a base directory. Writes are
// atomic: content lands in a temp file and is renamed into place, so a
// reader never observes a partial artifact.
type FSArtifactStore struct {
	dir string
	log *slog.Logger
}

func NewFSArtifactStore(dir string, log *slog.Logger) (*FSArtifactStore, error) {
	if log == nil {
		log = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact dir: %w", err)
	}
	return &FSArtifactStore{dir: dir, log: log}, nil
}

// SaveRawText stores text for a source reference and returns the artifact path.
func (s *FSArtifactStore) SaveRawText(sourceRef, text string) (string, error) {
	path := filepath.Join(s.dir, artifactName(sourceRef))

	tmp, err := os.CreateTemp(s.dir, ".raw-*")
	if err != nil {
		return "", fmt.Errorf("create temp artifact: %w", err)
	}
	if _, err := tmp.WriteString(text); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("close artifact: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("finalize artifact: %w", err)
	}
	s.log.Debug("raw text artifact saved", "source_ref", sourceRef, "path", path, "bytes", len(text))
	return path, nil
}

func (s *FSArtifactStore) ReadRawText(sourceRef string) (string, error) {
	b, err := os.ReadFile(filepath.Join(s.dir, artifactName(sourceRef)))
	if err != nil {
		if os.IsNotExist(err) {
			return "", common.ErrNotFound
		}
		return "", err
	}
	return string(b), nil
}

// artifactName derives a stable filename from a source reference, which
// may be a path or URL and so cannot be used verbatim.
func artifactName(sourceRef string) string {
	sum := sha256.Sum256([]byte(sourceRef))
	return hex.EncodeToString(sum[:16]) + "_raw.txt"
}
