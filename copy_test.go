package s3copy

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awstypes "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transferkit/s3copy/copytypes"
	"github.com/transferkit/s3copy/errors"
	"github.com/transferkit/s3copy/internal/testutil"
)

// routingMock wraps a MockCopyAPI and counts how often each operation is
// invoked, so tests can assert which copy path was taken.
type routingMock struct {
	*testutil.MockCopyAPI

	heads     atomic.Int32
	copies    atomic.Int32
	creates   atomic.Int32
	parts     atomic.Int32
	completes atomic.Int32
	aborts    atomic.Int32
}

func newRoutingMock(size int64) *routingMock {
	rm := &routingMock{MockCopyAPI: &testutil.MockCopyAPI{}}
	rm.HeadObjectFunc = func(_ context.Context, _ *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
		rm.heads.Add(1)
		return &s3.HeadObjectOutput{ContentLength: aws.Int64(size), ETag: aws.String(`"src-etag"`)}, nil
	}
	rm.CopyObjectFunc = func(_ context.Context, _ *s3.CopyObjectInput, _ ...func(*s3.Options)) (*s3.CopyObjectOutput, error) {
		rm.copies.Add(1)
		return &s3.CopyObjectOutput{CopyObjectResult: &awstypes.CopyObjectResult{ETag: aws.String(`"copy-etag"`)}}, nil
	}
	rm.CreateMultipartUploadFunc = func(_ context.Context, params *s3.CreateMultipartUploadInput, _ ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
		rm.creates.Add(1)
		return &s3.CreateMultipartUploadOutput{
			Bucket:   params.Bucket,
			Key:      params.Key,
			UploadId: aws.String("routing-upload"),
		}, nil
	}
	rm.UploadPartCopyFunc = func(_ context.Context, params *s3.UploadPartCopyInput, _ ...func(*s3.Options)) (*s3.UploadPartCopyOutput, error) {
		rm.parts.Add(1)
		etag := testutil.PartETag(aws.ToInt32(params.PartNumber))
		return &s3.UploadPartCopyOutput{CopyPartResult: &awstypes.CopyPartResult{ETag: aws.String(etag)}}, nil
	}
	rm.CompleteMultipartUploadFunc = func(_ context.Context, _ *s3.CompleteMultipartUploadInput, _ ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
		rm.completes.Add(1)
		return &s3.CompleteMultipartUploadOutput{ETag: aws.String(`"final-etag"`)}, nil
	}
	rm.AbortMultipartUploadFunc = func(_ context.Context, _ *s3.AbortMultipartUploadInput, _ ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
		rm.aborts.Add(1)
		return &s3.AbortMultipartUploadOutput{}, nil
	}
	return rm
}

func (rm *routingMock) total() int32 {
	return rm.heads.Load() + rm.copies.Load() + rm.creates.Load() +
		rm.parts.Load() + rm.completes.Load() + rm.aborts.Load()
}

var testSource = copytypes.Source{Bucket: "src-bucket", Key: "data/source.bin"}

// TestCopy_SmallObjectUsesSingleCall tests that objects below the multipart
// threshold are copied with one CopyObject call.
func TestCopy_SmallObjectUsesSingleCall(t *testing.T) {
	rm := newRoutingMock(512 * 1024)
	client := NewWithClient(rm)

	result, err := client.Copy(context.Background(), testSource, "dst-bucket", "copy.bin")
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, int32(1), rm.heads.Load())
	assert.Equal(t, int32(1), rm.copies.Load())
	assert.Zero(t, rm.creates.Load())
	assert.Zero(t, rm.parts.Load())
	assert.Equal(t, int32(0), result.Parts)
	assert.Equal(t, int64(512*1024), result.Size)
}

// TestCopy_EmptyObjectUsesSingleCall tests that a zero-byte source still
// copies cleanly on the single-call path.
func TestCopy_EmptyObjectUsesSingleCall(t *testing.T) {
	rm := newRoutingMock(0)
	client := NewWithClient(rm)

	result, err := client.Copy(context.Background(), testSource, "dst-bucket", "empty.bin")
	require.NoError(t, err)

	assert.Equal(t, int32(1), rm.copies.Load())
	assert.Zero(t, rm.creates.Load())
	assert.Equal(t, int64(0), result.Size)
}

// TestCopy_LargeObjectUsesMultipart tests that objects at or above the
// threshold switch to the multipart path.
func TestCopy_LargeObjectUsesMultipart(t *testing.T) {
	size := int64(300 * 1024)
	rm := newRoutingMock(size)
	client := NewWithClient(rm)

	result, err := client.Copy(context.Background(), testSource, "dst-bucket", "copy.bin",
		WithMultipartThreshold(200*1024),
		WithPartSize(100*1024),
	)
	require.NoError(t, err)

	assert.Zero(t, rm.copies.Load())
	assert.Equal(t, int32(1), rm.creates.Load())
	assert.Equal(t, int32(3), rm.parts.Load())
	assert.Equal(t, int32(1), rm.completes.Load())
	assert.Equal(t, int32(3), result.Parts)
	assert.Equal(t, size, result.Size)
}

// TestCopy_ExplicitRangeUsesMultipart tests that a byte range forces the
// multipart path and skips the size lookup.
func TestCopy_ExplicitRangeUsesMultipart(t *testing.T) {
	rm := newRoutingMock(10 * 1024 * 1024)
	client := NewWithClient(rm)

	result, err := client.Copy(context.Background(), testSource, "dst-bucket", "slice.bin",
		WithRange(1024, 1024+200*1024),
		WithPartSize(100*1024),
	)
	require.NoError(t, err)

	assert.Zero(t, rm.heads.Load(), "explicit range needs no size lookup")
	assert.Zero(t, rm.copies.Load())
	assert.Equal(t, int32(2), rm.parts.Load())
	assert.Equal(t, int64(200*1024), result.Size)
}

// TestCopy_ResumeSkipsLookupAndInitiation tests that resuming a checkpoint
// goes straight to the remaining parts.
func TestCopy_ResumeSkipsLookupAndInitiation(t *testing.T) {
	rm := newRoutingMock(10 * 1024 * 1024)
	client := NewWithClient(rm)

	cp := &copytypes.Checkpoint{
		DestBucket: "dst-bucket",
		DestKey:    "resume.bin",
		CopySize:   200 * 1024,
		PartSize:   100 * 1024,
		UploadID:   "routing-upload",
		DoneParts:  []copytypes.DonePart{{Number: 1, ETag: testutil.PartETag(1)}},
	}

	result, err := client.Copy(context.Background(), testSource, "dst-bucket", "resume.bin",
		WithCheckpoint(cp),
	)
	require.NoError(t, err)

	assert.Zero(t, rm.heads.Load())
	assert.Zero(t, rm.creates.Load())
	assert.Equal(t, int32(1), rm.parts.Load())
	assert.Equal(t, int32(1), rm.completes.Load())
	assert.Equal(t, int32(2), result.Parts)
}

// TestCopy_ThresholdAboveSingleCallLimit tests that objects too large for a
// single CopyObject call use multipart even when the threshold allows them.
func TestCopy_ThresholdAboveSingleCallLimit(t *testing.T) {
	size := copytypes.MaxSimpleCopySize + 1
	rm := newRoutingMock(size)
	client := NewWithClient(rm)

	_, err := client.Copy(context.Background(), testSource, "dst-bucket", "huge.bin",
		WithMultipartThreshold(6*1024*1024*1024),
		WithPartSize(1024*1024*1024),
	)
	require.NoError(t, err)

	assert.Zero(t, rm.copies.Load())
	assert.Equal(t, int32(1), rm.creates.Load())
}

// TestCopyMultipart_ForcesMultipartForSmallObjects tests the explicit
// multipart entry point on an object Copy would have handled in one call.
func TestCopyMultipart_ForcesMultipartForSmallObjects(t *testing.T) {
	rm := newRoutingMock(250 * 1024)
	client := NewWithClient(rm)

	result, err := client.CopyMultipart(context.Background(), testSource, "dst-bucket", "copy.bin",
		WithPartSize(100*1024),
	)
	require.NoError(t, err)

	assert.Zero(t, rm.copies.Load())
	assert.Equal(t, int32(1), rm.creates.Load())
	assert.Equal(t, int32(3), rm.parts.Load())
	assert.Equal(t, int32(3), result.Parts)
}

// TestCopy_InputValidation tests that invalid inputs are rejected before any
// backend call.
func TestCopy_InputValidation(t *testing.T) {
	tests := []struct {
		name       string
		source     copytypes.Source
		destBucket string
		destKey    string
		opts       []copytypes.CopyOption
	}{
		{
			name:       "invalid source bucket",
			source:     copytypes.Source{Bucket: "ab", Key: "key.bin"},
			destBucket: "dst-bucket",
			destKey:    "key.bin",
		},
		{
			name:       "empty source key",
			source:     copytypes.Source{Bucket: "src-bucket", Key: ""},
			destBucket: "dst-bucket",
			destKey:    "key.bin",
		},
		{
			name:       "invalid destination bucket",
			source:     testSource,
			destBucket: "Invalid_Bucket",
			destKey:    "key.bin",
		},
		{
			name:       "destination key with traversal",
			source:     testSource,
			destBucket: "dst-bucket",
			destKey:    "../escape.bin",
		},
		{
			name:       "negative start offset",
			source:     testSource,
			destBucket: "dst-bucket",
			destKey:    "key.bin",
			opts:       []copytypes.CopyOption{WithRange(-1, 0)},
		},
		{
			name:       "end before start",
			source:     testSource,
			destBucket: "dst-bucket",
			destKey:    "key.bin",
			opts:       []copytypes.CopyOption{WithRange(2048, 1024)},
		},
		{
			name:       "reserved metadata key",
			source:     testSource,
			destBucket: "dst-bucket",
			destKey:    "key.bin",
			opts:       []copytypes.CopyOption{WithMetadata(map[string]string{"x-amz-meta": "v"})},
		},
		{
			name:       "malformed content type",
			source:     testSource,
			destBucket: "dst-bucket",
			destKey:    "key.bin",
			opts:       []copytypes.CopyOption{WithContentType("not a type")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rm := newRoutingMock(1024 * 1024)
			client := NewWithClient(rm)

			_, err := client.Copy(context.Background(), tt.source, tt.destBucket, tt.destKey, tt.opts...)
			require.Error(t, err)
			assert.True(t, errors.IsInvalidInput(err), "expected invalid input, got %v", err)
			assert.Zero(t, rm.total(), "no backend calls expected")

			_, err = client.CopyMultipart(context.Background(), tt.source, tt.destBucket, tt.destKey, tt.opts...)
			require.Error(t, err)
			assert.True(t, errors.IsInvalidInput(err))
			assert.Zero(t, rm.total())
		})
	}
}

// TestCopy_HeadFailurePropagates tests that a failed size lookup surfaces as
// a classified error without starting a copy.
func TestCopy_HeadFailurePropagates(t *testing.T) {
	rm := newRoutingMock(0)
	rm.HeadObjectFunc = func(_ context.Context, _ *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
		rm.heads.Add(1)
		return nil, &smithy.GenericAPIError{Code: "NotFound", Message: "Not Found"}
	}
	client := NewWithClient(rm)

	_, err := client.Copy(context.Background(), testSource, "dst-bucket", "copy.bin")
	require.Error(t, err)
	assert.True(t, errors.IsObjectNotFound(err), "got %v", err)
	assert.Zero(t, rm.copies.Load())
	assert.Zero(t, rm.creates.Load())
}

// TestAbortMultipartCopy tests identifier validation and pass-through.
func TestAbortMultipartCopy(t *testing.T) {
	t.Run("forwards identifiers", func(t *testing.T) {
		rm := newRoutingMock(0)
		var got *s3.AbortMultipartUploadInput
		rm.AbortMultipartUploadFunc = func(_ context.Context, params *s3.AbortMultipartUploadInput, _ ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
			rm.aborts.Add(1)
			got = params
			return &s3.AbortMultipartUploadOutput{}, nil
		}
		client := NewWithClient(rm)

		err := client.AbortMultipartCopy(context.Background(), "dst-bucket", "big.bin", "upload-123")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "dst-bucket", aws.ToString(got.Bucket))
		assert.Equal(t, "big.bin", aws.ToString(got.Key))
		assert.Equal(t, "upload-123", aws.ToString(got.UploadId))
	})

	t.Run("rejects empty upload id", func(t *testing.T) {
		rm := newRoutingMock(0)
		client := NewWithClient(rm)

		err := client.AbortMultipartCopy(context.Background(), "dst-bucket", "big.bin", "")
		require.Error(t, err)
		assert.True(t, errors.IsInvalidInput(err))
		assert.Zero(t, rm.total())
	})

	t.Run("rejects invalid bucket", func(t *testing.T) {
		rm := newRoutingMock(0)
		client := NewWithClient(rm)

		err := client.AbortMultipartCopy(context.Background(), "x", "big.bin", "upload-123")
		require.Error(t, err)
		assert.True(t, errors.IsInvalidInput(err))
		assert.Zero(t, rm.total())
	})
}

// TestObjectInfo tests metadata lookup and its validation.
func TestObjectInfo(t *testing.T) {
	t.Run("returns object metadata", func(t *testing.T) {
		rm := newRoutingMock(4096)
		client := NewWithClient(rm)

		info, err := client.ObjectInfo(context.Background(), testSource)
		require.NoError(t, err)
		require.NotNil(t, info)
		assert.Equal(t, testSource.Key, info.Key)
		assert.Equal(t, int64(4096), info.Size)
	})

	t.Run("rejects invalid key", func(t *testing.T) {
		rm := newRoutingMock(0)
		client := NewWithClient(rm)

		_, err := client.ObjectInfo(context.Background(), copytypes.Source{Bucket: "src-bucket", Key: ""})
		require.Error(t, err)
		assert.True(t, errors.IsInvalidInput(err))
		assert.Zero(t, rm.total())
	})
}
