// Package s3copy provides resumable server-side copies of S3 objects.
// It wraps AWS SDK v2 so the bytes never flow through the caller: small
// objects are copied with a single call, large ones as parallel part copies
// that can be checkpointed, interrupted, and resumed.
//
// The module emphasizes operational safety for long-running copies:
// every completed part is recorded in a checkpoint the caller can persist,
// and an interrupted copy picks up where it left off instead of starting
// over.
//
// Key features:
//   - Simple, zero-configuration usage with AWS credential chain
//   - Automatic routing between single-call and multipart copies
//   - Checkpointed multipart copies with resume support
//   - Bounded parallel part copies with configurable limits
//   - Cooperative cancellation that keeps the checkpoint valid
//   - Progress callbacks with consistent checkpoint snapshots
//   - Comprehensive error handling with context
//
// Example usage:
//
//	client, err := s3copy.New()
//	if err != nil {
//	    return err
//	}
//
//	// Copy an object, multipart and checkpointed when large
//	cp := &copytypes.Checkpoint{}
//	result, err := client.Copy(ctx,
//	    copytypes.Source{Bucket: "src-bucket", Key: "big/archive.tar"},
//	    "dst-bucket", "big/archive.tar",
//	    s3copy.WithCheckpoint(cp),
//	)
//	if err != nil {
//	    return err
//	}
package s3copy
