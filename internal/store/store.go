// Package store persists tournament documents as JSON files, one per
// tournament, named after the tournament id.
//
// Documents are created once and never rewritten. A tournament whose file
// exists is considered done; that check is the crawl's only form of
// incremental progress.
package store

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/crypto/sha3"

	"github.com/Mvlo566/POKETL/internal/model"
)

// ErrExists is returned by Create when the document is already present.
var ErrExists = errors.New("document already exists")

// Written describes a document created by Create.
type Written struct {
	Path   string
	Digest string
	Size   int
}

// Store is a directory of tournament documents.
type Store struct {
	dir    string
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New returns a Store rooted at dir. The directory is created on the
// first write.
func New(dir string, opts ...Option) *Store {
	s := &Store{
		dir:    dir,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the document path for a tournament id.
func (s *Store) Path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

// Exists reports whether the document for id is present.
func (s *Store) Exists(id string) (bool, error) {
	_, err := os.Stat(s.Path(id))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("failed to stat document %s: %w", id, err)
}

// Create writes the document of t. The file appears atomically under its
// final name: content goes to a temporary file first, which is then hard
// linked into place. Create fails with ErrExists rather than replace an
// existing document.
func (s *Store) Create(t *model.Tournament) (Written, error) {
	if err := (model.TournamentSummary{ID: t.ID}).Validate(); err != nil {
		return Written{}, err
	}

	data, err := Encode(t)
	if err != nil {
		return Written{}, err
	}

	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return Written{}, fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, "."+t.ID+".*.tmp")
	if err != nil {
		return Written{}, fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return Written{}, fmt.Errorf("failed to write document %s: %w", t.ID, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return Written{}, fmt.Errorf("failed to sync document %s: %w", t.ID, err)
	}
	if err := tmp.Close(); err != nil {
		return Written{}, fmt.Errorf("failed to close document %s: %w", t.ID, err)
	}

	path := s.Path(t.ID)
	if err := os.Link(tmpPath, path); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return Written{}, fmt.Errorf("%w: %s", ErrExists, path)
		}
		return Written{}, fmt.Errorf("failed to publish document %s: %w", t.ID, err)
	}

	w := Written{Path: path, Digest: Digest(data), Size: len(data)}
	s.logger.Debug("document written", "path", w.Path, "bytes", w.Size, "sha3", w.Digest)
	return w, nil
}

// Load reads and validates the document for id.
func (s *Store) Load(id string) (*model.Tournament, error) {
	data, err := os.ReadFile(s.Path(id))
	if err != nil {
		return nil, fmt.Errorf("failed to read document %s: %w", id, err)
	}

	var t model.Tournament
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to decode document %s: %w", id, err)
	}
	return &t, nil
}

// Encode renders t the way it is stored: two-space indentation, non-ASCII
// and HTML characters kept verbatim, trailing newline.
func Encode(t *model.Tournament) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(t); err != nil {
		return nil, fmt.Errorf("failed to encode tournament %s: %w", t.ID, err)
	}
	return buf.Bytes(), nil
}

// Digest returns the hex SHA3-256 of a document.
func Digest(data []byte) string {
	sum := sha3.Sum256(data)
	return hex.EncodeToString(sum[:])
}
