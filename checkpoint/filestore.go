package checkpoint

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/input-output-hk/catalyst-forge-libs/fs"

	"github.com/transferkit/s3copy/copytypes"
)

const fileExt = ".json"

// FileStore keeps each checkpoint as one JSON file in a directory. The
// filesystem is injected so tests can run against an in-memory one.
type FileStore struct {
	fs  fs.Filesystem
	dir string
}

// NewFileStore creates a FileStore rooted at dir on the given filesystem.
// The directory is created on first save.
func NewFileStore(filesystem fs.Filesystem, dir string) *FileStore {
	return &FileStore{fs: filesystem, dir: dir}
}

// Save writes the checkpoint under id, replacing any previous value.
func (s *FileStore) Save(ctx context.Context, id string, cp *copytypes.Checkpoint) error {
	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create checkpoint directory: %w", err)
	}

	data, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("encode checkpoint %q: %w", id, err)
	}
	if err := s.fs.WriteFile(s.path(id), data, 0o600); err != nil {
		return fmt.Errorf("write checkpoint %q: %w", id, err)
	}
	return nil
}

// Load reads the checkpoint stored under id.
func (s *FileStore) Load(ctx context.Context, id string) (*copytypes.Checkpoint, error) {
	exists, err := s.fs.Exists(s.path(id))
	if err != nil {
		return nil, fmt.Errorf("stat checkpoint %q: %w", id, err)
	}
	if !exists {
		return nil, ErrNotFound
	}

	data, err := s.fs.ReadFile(s.path(id))
	if err != nil {
		return nil, fmt.Errorf("read checkpoint %q: %w", id, err)
	}
	var cp copytypes.Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("decode checkpoint %q: %w", id, err)
	}
	return &cp, nil
}

// Delete removes the checkpoint stored under id.
func (s *FileStore) Delete(ctx context.Context, id string) error {
	exists, err := s.fs.Exists(s.path(id))
	if err != nil {
		return fmt.Errorf("stat checkpoint %q: %w", id, err)
	}
	if !exists {
		return ErrNotFound
	}
	if err := s.fs.Remove(s.path(id)); err != nil {
		return fmt.Errorf("remove checkpoint %q: %w", id, err)
	}
	return nil
}

// List returns the identifiers of all stored checkpoints.
func (s *FileStore) List(ctx context.Context) ([]string, error) {
	exists, err := s.fs.Exists(s.dir)
	if err != nil {
		return nil, fmt.Errorf("stat checkpoint directory: %w", err)
	}
	if !exists {
		return nil, nil
	}

	entries, err := s.fs.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list checkpoint directory: %w", err)
	}

	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, fileExt) {
			continue
		}
		id, err := url.PathUnescape(strings.TrimSuffix(name, fileExt))
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Close is a no-op for the filesystem store.
func (s *FileStore) Close() error {
	return nil
}

// path renders the file name for an id. Escaping keeps ids with slashes
// or other separators flat within the directory.
func (s *FileStore) path(id string) string {
	return filepath.Join(s.dir, url.PathEscape(id)+fileExt)
}

var _ Store = (*FileStore)(nil)
