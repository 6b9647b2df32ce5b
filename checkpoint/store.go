// Package checkpoint persists copy checkpoints between invocations so an
// interrupted multipart copy can resume instead of starting over.
//
// Three backends are provided: a filesystem store for single-process use,
// a BoltDB store for crash-safe local state, and a Badger store for
// write-heavy workloads. All of them persist the checkpoint's JSON shape
// and treat the identifier as an opaque string.
package checkpoint

import (
	"context"
	"errors"
	"fmt"

	"github.com/input-output-hk/catalyst-forge-libs/fs/billy"

	"github.com/transferkit/s3copy/copytypes"
)

// ErrNotFound is returned when no checkpoint exists under the given id.
var ErrNotFound = errors.New("checkpoint: not found")

// Store persists checkpoints under caller-chosen identifiers.
type Store interface {
	// Save writes the checkpoint under id, replacing any previous value.
	Save(ctx context.Context, id string, cp *copytypes.Checkpoint) error

	// Load reads the checkpoint stored under id. Returns ErrNotFound when
	// no checkpoint exists.
	Load(ctx context.Context, id string) (*copytypes.Checkpoint, error)

	// Delete removes the checkpoint stored under id. Returns ErrNotFound
	// when no checkpoint exists.
	Delete(ctx context.Context, id string) error

	// List returns the identifiers of all stored checkpoints.
	List(ctx context.Context) ([]string, error)

	// Close releases the store's resources.
	Close() error
}

// ID derives the conventional checkpoint identifier for a copy
// destination. Anything unique works as an id; this is just the scheme the
// bundled command uses.
func ID(bucket, key string) string {
	return bucket + "/" + key
}

// Open creates a store of the named backend rooted at path. Supported
// backends are "file", "bolt", and "badger".
func Open(backend, path string) (Store, error) {
	switch backend {
	case "file":
		return NewFileStore(billy.NewOSFS("/"), path), nil
	case "bolt":
		return NewBoltStore(path)
	case "badger":
		return NewBadgerStore(path)
	default:
		return nil, fmt.Errorf("checkpoint: unknown store backend %q", backend)
	}
}
