package checkpoint

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/transferkit/s3copy/copytypes"
)

var boltBucket = []byte("checkpoints")

// BoltStore keeps checkpoints in a single-file BoltDB database. Writes are
// transactional, so a crash mid-save never leaves a torn checkpoint.
type BoltStore struct {
	db *bbolt.DB
}

// NewBoltStore opens (or creates) the database at path.
func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(boltBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create checkpoint bucket: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// Save writes the checkpoint under id, replacing any previous value.
func (s *BoltStore) Save(ctx context.Context, id string, cp *copytypes.Checkpoint) error {
	data, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("encode checkpoint %q: %w", id, err)
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(boltBucket).Put([]byte(id), data)
	})
	if err != nil {
		return fmt.Errorf("write checkpoint %q: %w", id, err)
	}
	return nil
}

// Load reads the checkpoint stored under id.
func (s *BoltStore) Load(ctx context.Context, id string) (*copytypes.Checkpoint, error) {
	var cp *copytypes.Checkpoint
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(boltBucket).Get([]byte(id))
		if data == nil {
			return ErrNotFound
		}
		cp = &copytypes.Checkpoint{}
		return json.Unmarshal(data, cp)
	})
	if err != nil {
		if err == ErrNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("read checkpoint %q: %w", id, err)
	}
	return cp, nil
}

// Delete removes the checkpoint stored under id.
func (s *BoltStore) Delete(ctx context.Context, id string) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(boltBucket)
		if bucket.Get([]byte(id)) == nil {
			return ErrNotFound
		}
		return bucket.Delete([]byte(id))
	})
	if err != nil {
		if err == ErrNotFound {
			return err
		}
		return fmt.Errorf("delete checkpoint %q: %w", id, err)
	}
	return nil
}

// List returns the identifiers of all stored checkpoints.
func (s *BoltStore) List(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(boltBucket).ForEach(func(k, _ []byte) error {
			ids = append(ids, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("list checkpoints: %w", err)
	}
	return ids, nil
}

// Close closes the underlying database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

var _ Store = (*BoltStore)(nil)
