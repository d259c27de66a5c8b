package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/amishk599/staywatch/internal/model"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Ensure JSONStore implements model.SeenStore.
var _ model.SeenStore = (*JSONStore)(nil)

// JSONStore keeps one site's seen IDs in a JSON array file.
type JSONStore struct {
	path string
}

// NewJSONStore returns the store for site under dir (data/seen_<site>.json).
func NewJSONStore(dir, site string) *JSONStore {
	return &JSONStore{path: filepath.Join(dir, "seen_"+site+".json")}
}

// Path returns the backing file.
func (s *JSONStore) Path() string { return s.path }

// Load reads the seen set. A missing or blank file is an empty set; a file
// that does not parse wraps model.ErrCorruptStore.
func (s *JSONStore) Load(_ context.Context) (model.IDSet, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return model.NewIDSet(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.path, err)
	}

	data = bytes.TrimPrefix(data, utf8BOM)
	if len(bytes.TrimSpace(data)) == 0 {
		return model.NewIDSet(), nil
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", model.ErrCorruptStore, s.path, err)
	}
	return model.NewIDSet(ids...), nil
}

// Save replaces the file with the sorted set. The new content is written to a
// temp file in the same directory and renamed over the old one.
func (s *JSONStore) Save(_ context.Context, ids model.IDSet) error {
	data, err := json.MarshalIndent(ids.Sorted(), "", "  ")
	if err != nil {
		return fmt.Errorf("encoding seen set: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".seen-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", tmp.Name(), err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replacing %s: %w", s.path, err)
	}
	return nil
}
