package s3copy

import (
	"context"

	"github.com/transferkit/s3copy/copytypes"
	"github.com/transferkit/s3copy/errors"
	"github.com/transferkit/s3copy/internal/copier"
	"github.com/transferkit/s3copy/internal/validation"
)

// Copy copies an object between S3 locations server-side.
// It automatically chooses between a single CopyObject call and a
// checkpointed multipart copy based on the source size and the multipart
// threshold (default 100 MiB).
//
// The multipart path is also taken whenever a byte range, a checkpoint
// with an upload ID, or a source above 5 GiB is involved, since a single
// CopyObject call supports none of those.
//
// Returns:
//   - *CopyResult: Contains the destination ETag, bytes copied, part count, and duration
//   - error: Returns an error if the copy fails
//
// Errors:
//   - ErrInvalidInput: If a bucket name, key, range, or option is invalid
//   - ErrObjectNotFound: If the source object doesn't exist
//   - ErrAccessDenied: If the credentials lack permission to read or write
//   - ErrCanceled: If a cancel flag was raised before or during the copy
//   - Network errors or AWS SDK errors wrapped in Error type
//
// Example:
//
//	result, err := client.Copy(ctx,
//	    copytypes.Source{Bucket: "src-bucket", Key: "data.bin"},
//	    "dst-bucket", "backup/data.bin",
//	    s3copy.WithStorageClass(copytypes.StorageClassStandardIA),
//	)
//	if err != nil {
//	    return err
//	}
//	fmt.Printf("Copied %d bytes in %v\n", result.Size, result.Duration)
func (c *Client) Copy(
	ctx context.Context,
	source copytypes.Source,
	destBucket, destKey string,
	opts ...copytypes.CopyOption,
) (*copytypes.CopyResult, error) {
	req, err := c.prepareCopy(ctx, source, destBucket, destKey, opts)
	if err != nil {
		return nil, err
	}

	// A resumable checkpoint already committed to the multipart path.
	cfg := req.Config
	if cfg.Checkpoint != nil && cfg.Checkpoint.UploadID != "" {
		return c.copier.Multipart(ctx, req)
	}

	size := req.EndOffset - req.StartOffset
	if req.WholeObject && size < cfg.MultipartThreshold && size <= copytypes.MaxSimpleCopySize {
		return c.copier.Simple(ctx, req)
	}
	return c.copier.Multipart(ctx, req)
}

// CopyMultipart copies an object between S3 locations using the multipart
// path regardless of size, subject to the 100 KiB minimum copy size.
// Use it when you need checkpointing or parallel part copies for objects
// below the automatic threshold.
//
// Returns:
//   - *CopyResult: Contains the destination ETag, bytes copied, part count, and duration
//   - error: Returns an error if the copy fails
//
// Errors:
//   - ErrInvalidInput: If a bucket name, key, range, or option is invalid,
//     or the copy size is below the 100 KiB minimum
//   - ErrObjectNotFound: If the source object doesn't exist
//   - ErrCanceled: If a cancel flag was raised before or during the copy
//   - Network errors or AWS SDK errors wrapped in Error type
//
// Example:
//
//	cp := &copytypes.Checkpoint{}
//	result, err := client.CopyMultipart(ctx,
//	    copytypes.Source{Bucket: "src-bucket", Key: "large.bin"},
//	    "dst-bucket", "large.bin",
//	    s3copy.WithCheckpoint(cp),
//	    s3copy.WithParallel(8),
//	)
func (c *Client) CopyMultipart(
	ctx context.Context,
	source copytypes.Source,
	destBucket, destKey string,
	opts ...copytypes.CopyOption,
) (*copytypes.CopyResult, error) {
	req, err := c.prepareCopy(ctx, source, destBucket, destKey, opts)
	if err != nil {
		return nil, err
	}
	return c.copier.Multipart(ctx, req)
}

// AbortMultipartCopy aborts a multipart copy session and discards its
// uploaded parts. Interrupted copies are never aborted automatically, so
// the checkpoint can be resumed instead; call this only when the copy is
// being abandoned for good.
//
// Errors:
//   - ErrInvalidInput: If the bucket name, key, or upload ID is invalid
//   - ErrUploadNotFound: If the session doesn't exist or was already completed
func (c *Client) AbortMultipartCopy(ctx context.Context, destBucket, destKey, uploadID string) error {
	if err := validation.ValidateBucketName(destBucket); err != nil {
		return errors.NewError("abort", errors.ErrInvalidInput).
			WithBucket(destBucket).
			WithKey(destKey).
			WithMessage(err.Error())
	}
	if err := validation.ValidateObjectKey(destKey); err != nil {
		return errors.NewError("abort", errors.ErrInvalidInput).
			WithBucket(destBucket).
			WithKey(destKey).
			WithMessage(err.Error())
	}
	if uploadID == "" {
		return errors.NewError("abort", errors.ErrInvalidInput).
			WithBucket(destBucket).
			WithKey(destKey).
			WithMessage("upload ID cannot be empty")
	}
	return c.copier.Abort(ctx, destBucket, destKey, uploadID)
}

// ObjectInfo retrieves the metadata of an object without copying it.
// Useful for sizing a copy or checking preconditions up front.
//
// Returns:
//   - *ObjectInfo: Contains the object's size, ETag, content type, and metadata
//   - error: Returns an error if the lookup fails
//
// Errors:
//   - ErrInvalidInput: If the bucket name or key is invalid
//   - ErrObjectNotFound: If the object doesn't exist
func (c *Client) ObjectInfo(ctx context.Context, source copytypes.Source) (*copytypes.ObjectInfo, error) {
	if err := validation.ValidateBucketName(source.Bucket); err != nil {
		return nil, errors.NewError("head", errors.ErrInvalidInput).
			WithBucket(source.Bucket).
			WithKey(source.Key).
			WithMessage(err.Error())
	}
	if err := validation.ValidateObjectKey(source.Key); err != nil {
		return nil, errors.NewError("head", errors.ErrInvalidInput).
			WithBucket(source.Bucket).
			WithKey(source.Key).
			WithMessage(err.Error())
	}
	return c.copier.Head(ctx, source)
}

// prepareCopy validates the inputs and builds the copy request, resolving
// the byte range against the source object when the end is open.
func (c *Client) prepareCopy(
	ctx context.Context,
	source copytypes.Source,
	destBucket, destKey string,
	opts []copytypes.CopyOption,
) (*copier.Request, error) {
	config := c.applyCopyOptions(opts)
	if err := validateCopyInputs(source, destBucket, destKey, config); err != nil {
		return nil, err
	}

	req := &copier.Request{
		Source:      source,
		DestBucket:  destBucket,
		DestKey:     destKey,
		StartOffset: config.StartOffset,
		Config:      config,
	}

	// A resume knows its copy size from the checkpoint, so the source is
	// not consulted. An explicit end is kept as given and checked against
	// the checkpoint downstream.
	if config.Checkpoint != nil && config.Checkpoint.UploadID != "" {
		req.EndOffset = config.EndOffset
		if req.EndOffset == 0 {
			req.EndOffset = req.StartOffset + config.Checkpoint.CopySize
		}
		return req, nil
	}

	if config.EndOffset != 0 {
		req.EndOffset = config.EndOffset
		return req, nil
	}

	info, err := c.copier.Head(ctx, source)
	if err != nil {
		return nil, err
	}
	req.EndOffset = info.Size
	req.WholeObject = req.StartOffset == 0
	return req, nil
}

// applyCopyOptions builds the per-copy configuration from client defaults
// and the supplied options.
func (c *Client) applyCopyOptions(opts []copytypes.CopyOption) *copytypes.CopyOptionConfig {
	config := &copytypes.CopyOptionConfig{
		Parallel:           c.concurrency,
		MultipartThreshold: copytypes.DefaultMultipartThreshold,
	}
	for _, opt := range opts {
		opt(config)
	}
	return config
}

// validateCopyInputs checks everything that can be rejected without
// talking to the backend.
func validateCopyInputs(source copytypes.Source, destBucket, destKey string, config *copytypes.CopyOptionConfig) error {
	copyErr := func(bucket, key, msg string) error {
		return errors.NewError("copy", errors.ErrInvalidInput).
			WithBucket(bucket).
			WithKey(key).
			WithMessage(msg)
	}

	if err := validation.ValidateBucketName(source.Bucket); err != nil {
		return copyErr(source.Bucket, source.Key, "source: "+err.Error())
	}
	if err := validation.ValidateObjectKey(source.Key); err != nil {
		return copyErr(source.Bucket, source.Key, "source: "+err.Error())
	}
	if err := validation.ValidateBucketName(destBucket); err != nil {
		return copyErr(destBucket, destKey, err.Error())
	}
	if err := validation.ValidateObjectKey(destKey); err != nil {
		return copyErr(destBucket, destKey, err.Error())
	}
	if err := validation.ValidateMetadata(config.Metadata); err != nil {
		return copyErr(destBucket, destKey, err.Error())
	}
	if err := validation.ValidateContentType(config.ContentType); err != nil {
		return copyErr(destBucket, destKey, err.Error())
	}
	if config.StartOffset < 0 {
		return copyErr(destBucket, destKey, "start offset cannot be negative")
	}
	if config.EndOffset != 0 {
		if err := validation.ValidateCopyRange(config.StartOffset, config.EndOffset); err != nil {
			return copyErr(destBucket, destKey, err.Error())
		}
	}
	return nil
}
