// Package internal contains private implementation details for the copy module.
// These packages are not intended for external use and may change without notice.
//
// The internal packages are organized as follows:
//   - s3api: narrow interface over the AWS SDK S3 client
//   - planner: part tiling and part size derivation
//   - pool: bounded-parallelism executor for part-copy jobs
//   - copier: the copy flows (single call, multipart, resume)
//   - validation: input validation logic
//   - log, console: logging and terminal output for the CLI
//   - testutil: mocks and LocalStack helpers for tests
package internal
