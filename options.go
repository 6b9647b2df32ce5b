// Package s3copy provides functional options for configuring client and
// per-copy behavior. These follow the functional options pattern for clean,
// composable configuration.
package s3copy

import (
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/transferkit/s3copy/copytypes"
)

// WithRegion sets the AWS region for copy operations.
// If not specified, uses the default AWS region from the credential chain.
func WithRegion(region string) copytypes.Option {
	return func(c *copytypes.ClientConfig) {
		c.Region = region
	}
}

// WithEndpoint sets a custom S3 endpoint URL.
// This is useful for S3-compatible services or local testing with LocalStack.
func WithEndpoint(endpoint string) copytypes.Option {
	return func(c *copytypes.ClientConfig) {
		c.Endpoint = endpoint
	}
}

// WithMaxRetries sets the maximum number of retry attempts for failed requests.
// Default is 3 retries. Set to 0 to keep the SDK default.
func WithMaxRetries(maxRetries int) copytypes.Option {
	return func(c *copytypes.ClientConfig) {
		c.MaxRetries = maxRetries
	}
}

// WithTimeout sets the timeout for individual requests.
// Default is no timeout (0). Values should be positive durations.
func WithTimeout(timeout time.Duration) copytypes.Option {
	return func(c *copytypes.ClientConfig) {
		c.Timeout = timeout
	}
}

// WithConcurrency sets the default number of part copies in flight per
// copy. Default is 5. Individual copies can override it with WithParallel.
func WithConcurrency(concurrency int) copytypes.Option {
	return func(c *copytypes.ClientConfig) {
		if concurrency > 0 {
			c.Concurrency = concurrency
		}
	}
}

// WithForcePathStyle forces the use of path-style URLs instead of
// virtual-hosted style. This is required for S3-compatible services that
// don't support virtual hosting. Default is false.
func WithForcePathStyle(forcePathStyle bool) copytypes.Option {
	return func(c *copytypes.ClientConfig) {
		c.ForcePathStyle = forcePathStyle
	}
}

// WithStaticCredentials sets fixed credentials instead of the default
// credential chain. The session token may be empty.
func WithStaticCredentials(accessKeyID, secretAccessKey, sessionToken string) copytypes.Option {
	return func(c *copytypes.ClientConfig) {
		c.AccessKeyID = accessKeyID
		c.SecretAccessKey = secretAccessKey
		c.SessionToken = sessionToken
	}
}

// WithAWSConfig allows providing a custom AWS configuration.
// This overrides the default configuration loading behavior.
// Use this when you need fine-grained control over AWS SDK configuration.
func WithAWSConfig(config *aws.Config) copytypes.Option {
	return func(c *copytypes.ClientConfig) {
		c.CustomAWSConfig = config
	}
}

// WithHTTPClient allows providing a custom HTTP client.
// This gives full control over HTTP behavior including timeouts and proxies.
func WithHTTPClient(client *http.Client) copytypes.Option {
	return func(c *copytypes.ClientConfig) {
		c.CustomHTTPClient = client
	}
}

// WithPartSize sets the part size in bytes for a multipart copy.
// Must be at least 100 KiB. When unset, the part size is derived from the
// copy size so that the part count stays within the backend's limit.
func WithPartSize(partSize int64) copytypes.CopyOption {
	return func(c *copytypes.CopyOptionConfig) {
		if partSize > 0 {
			c.PartSize = partSize
		}
	}
}

// WithPartSizer sets a custom part sizing function. It receives the copy
// size and returns the part size to use. WithPartSize takes precedence.
func WithPartSizer(sizer func(copySize int64) int64) copytypes.CopyOption {
	return func(c *copytypes.CopyOptionConfig) {
		c.PartSizer = sizer
	}
}

// WithParallel sets the number of part copies in flight for this copy,
// overriding the client-level concurrency.
func WithParallel(parallel int) copytypes.CopyOption {
	return func(c *copytypes.CopyOptionConfig) {
		if parallel > 0 {
			c.Parallel = parallel
		}
	}
}

// WithRange restricts the copy to the source bytes [start, end). An end of
// zero means the end of the object. Ranged copies always use the multipart
// path.
//
// When resuming from a checkpoint, supply the same range again; the
// checkpoint records only sizes, and a mismatch is rejected.
func WithRange(start, end int64) copytypes.CopyOption {
	return func(c *copytypes.CopyOptionConfig) {
		c.StartOffset = start
		c.EndOffset = end
	}
}

// WithCheckpoint attaches a checkpoint to the copy. If it carries an
// upload ID the copy resumes that session, skipping parts already done;
// otherwise the copy starts fresh and fills the checkpoint in place, so
// the caller can persist it if the copy is interrupted.
func WithCheckpoint(cp *copytypes.Checkpoint) copytypes.CopyOption {
	return func(c *copytypes.CopyOptionConfig) {
		c.Checkpoint = cp
	}
}

// WithProgress sets a progress callback for the copy. See
// copytypes.ProgressFunc for the reporting contract.
func WithProgress(fn copytypes.ProgressFunc) copytypes.CopyOption {
	return func(c *copytypes.CopyOptionConfig) {
		c.Progress = fn
	}
}

// WithCancelFlag attaches a cooperative cancellation flag to the copy.
// Raising the flag stops new part copies; the checkpoint stays valid.
func WithCancelFlag(flag *copytypes.CancelFlag) copytypes.CopyOption {
	return func(c *copytypes.CopyOptionConfig) {
		c.Cancel = flag
	}
}

// WithConditions restricts the copy to sources matching the given
// preconditions.
func WithConditions(cond *copytypes.CopyConditions) copytypes.CopyOption {
	return func(c *copytypes.CopyOptionConfig) {
		c.Conditions = cond
	}
}

// WithContentType sets the content type of the destination object.
func WithContentType(contentType string) copytypes.CopyOption {
	return func(c *copytypes.CopyOptionConfig) {
		c.ContentType = contentType
	}
}

// WithMetadata sets user metadata on the destination object. On the
// single-call copy path this switches the metadata directive to REPLACE.
func WithMetadata(metadata map[string]string) copytypes.CopyOption {
	return func(c *copytypes.CopyOptionConfig) {
		if c.Metadata == nil {
			c.Metadata = make(map[string]string)
		}
		for k, v := range metadata {
			c.Metadata[k] = v
		}
	}
}

// WithReplaceMetadata forces the REPLACE metadata directive even when no
// new metadata is supplied, clearing the source object's metadata.
func WithReplaceMetadata(replace bool) copytypes.CopyOption {
	return func(c *copytypes.CopyOptionConfig) {
		c.ReplaceMetadata = replace
	}
}

// WithStorageClass sets the storage class of the destination object.
func WithStorageClass(storageClass copytypes.StorageClass) copytypes.CopyOption {
	return func(c *copytypes.CopyOptionConfig) {
		c.StorageClass = storageClass
	}
}

// WithACL sets the canned ACL of the destination object.
func WithACL(acl copytypes.ObjectACL) copytypes.CopyOption {
	return func(c *copytypes.CopyOptionConfig) {
		c.ACL = acl
	}
}

// WithServerSideEncryption sets server-side encryption for the destination
// object.
func WithServerSideEncryption(sse *copytypes.SSEConfig) copytypes.CopyOption {
	return func(c *copytypes.CopyOptionConfig) {
		c.SSE = sse
	}
}

// WithMultipartThreshold sets the copy size at which Copy switches from a
// single server-side copy to the multipart path. Default is 100 MiB.
// Objects above 5 GiB always use the multipart path.
func WithMultipartThreshold(threshold int64) copytypes.CopyOption {
	return func(c *copytypes.CopyOptionConfig) {
		if threshold > 0 {
			c.MultipartThreshold = threshold
		}
	}
}
