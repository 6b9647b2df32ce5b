package checkpoint

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/input-output-hk/catalyst-forge-libs/fs/billy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transferkit/s3copy/copytypes"
)

// newStores builds one store per backend so every test runs against all of
// them. The file store uses an in-memory filesystem; bolt and badger get
// throwaway directories.
func newStores(t *testing.T) map[string]Store {
	t.Helper()

	boltStore, err := NewBoltStore(filepath.Join(t.TempDir(), "checkpoints.db"))
	require.NoError(t, err)

	badgerStore, err := NewBadgerStore(t.TempDir())
	require.NoError(t, err)

	stores := map[string]Store{
		"file":   NewFileStore(billy.NewInMemoryFS(), "/checkpoints"),
		"bolt":   boltStore,
		"badger": badgerStore,
	}
	t.Cleanup(func() {
		for _, s := range stores {
			_ = s.Close()
		}
	})
	return stores
}

func sampleCheckpoint() *copytypes.Checkpoint {
	return &copytypes.Checkpoint{
		DestBucket: "replica",
		DestKey:    "videos/cam0.mp4",
		CopySize:   250_000,
		PartSize:   100_000,
		UploadID:   "upload-42",
		DoneParts: []copytypes.DonePart{
			{Number: 1, ETag: `"etag-1"`},
			{Number: 3, ETag: `"etag-3"`},
		},
	}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, store := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			id := ID("replica", "videos/cam0.mp4")
			want := sampleCheckpoint()

			require.NoError(t, store.Save(ctx, id, want))

			got, err := store.Load(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, want, got)

			ids, err := store.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{id}, ids)

			require.NoError(t, store.Delete(ctx, id))

			_, err = store.Load(ctx, id)
			assert.ErrorIs(t, err, ErrNotFound)
			assert.ErrorIs(t, store.Delete(ctx, id), ErrNotFound)
		})
	}
}

func TestStoreLoadMissing(t *testing.T) {
	ctx := context.Background()
	for name, store := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Load(ctx, "never-saved")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStoreOverwrite(t *testing.T) {
	ctx := context.Background()
	for name, store := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			first := sampleCheckpoint()
			require.NoError(t, store.Save(ctx, "cp", first))

			second := sampleCheckpoint()
			second.DoneParts = append(second.DoneParts, copytypes.DonePart{Number: 2, ETag: `"etag-2"`})
			require.NoError(t, store.Save(ctx, "cp", second))

			got, err := store.Load(ctx, "cp")
			require.NoError(t, err)
			assert.Len(t, got.DoneParts, 3)
		})
	}
}

func TestFileStoreEscapesIDs(t *testing.T) {
	ctx := context.Background()
	fsys := billy.NewInMemoryFS()
	store := NewFileStore(fsys, "/state")

	// Slashes in the id must not turn into directories.
	id := ID("my-bucket", "deep/path/my file.bin")
	require.NoError(t, store.Save(ctx, id, sampleCheckpoint()))

	entries, err := fsys.ReadDir("/state")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.NotContains(t, entries[0].Name(), "/")

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{id}, ids)
}

func TestFileStoreListEmptyDirectory(t *testing.T) {
	store := NewFileStore(billy.NewInMemoryFS(), "/nowhere")
	ids, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestOpenRejectsUnknownBackend(t *testing.T) {
	_, err := Open("redis", "/tmp/x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown store backend")
}

func TestID(t *testing.T) {
	assert.Equal(t, "replica/videos/cam0.mp4", ID("replica", "videos/cam0.mp4"))
}
