// Package copytypes provides shared type definitions for the s3copy module.
package copytypes

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/smithy-go/middleware"
)

// Policy constants for multipart copies.
const (
	// MinPartSize is the smallest copy size and part size the multipart
	// path accepts, in bytes (100 KiB).
	MinPartSize int64 = 100 * 1024

	// DefaultPartSize is the part size the default sizing policy starts
	// from when the caller does not specify one (1 MiB).
	DefaultPartSize int64 = 1024 * 1024

	// MaxPartCount is the largest number of parts an upload session may
	// hold; the default sizing policy raises the part size to stay under it.
	MaxPartCount int64 = 10000

	// DefaultParallel is the number of part copies in flight when the
	// caller does not specify one.
	DefaultParallel = 5

	// DefaultMultipartThreshold is the copy size at which Copy switches
	// from a single server-side copy to the multipart path (100 MiB).
	DefaultMultipartThreshold int64 = 100 * 1024 * 1024

	// MaxSimpleCopySize is the largest object a single server-side copy
	// call can handle (5 GiB); larger objects always go multipart.
	MaxSimpleCopySize int64 = 5 * 1024 * 1024 * 1024
)

// StorageClass represents the S3 storage class for the destination object.
type StorageClass string

// Predefined S3 storage classes
const (
	// StorageClassStandard is the default S3 storage class
	StorageClassStandard StorageClass = "STANDARD"

	// StorageClassReducedRedundancy provides reduced redundancy storage
	StorageClassReducedRedundancy StorageClass = "REDUCED_REDUNDANCY"

	// StorageClassStandardIA provides infrequent access storage
	StorageClassStandardIA StorageClass = "STANDARD_IA"

	// StorageClassOneZoneIA provides one zone infrequent access storage
	StorageClassOneZoneIA StorageClass = "ONEZONE_IA"

	// StorageClassIntelligentTiering provides intelligent tiering storage
	StorageClassIntelligentTiering StorageClass = "INTELLIGENT_TIERING"

	// StorageClassGlacier provides Glacier archival storage
	StorageClassGlacier StorageClass = "GLACIER"

	// StorageClassDeepArchive provides Deep Archive storage
	StorageClassDeepArchive StorageClass = "DEEP_ARCHIVE"

	// StorageClassGlacierIR provides Glacier Instant Retrieval storage
	StorageClassGlacierIR StorageClass = "GLACIER_IR"
)

// SSEType represents the server-side encryption type for the destination.
type SSEType string

// Predefined server-side encryption types
const (
	// SSES3 uses S3-managed encryption keys
	SSES3 SSEType = "AES256"

	// SSEKMS uses AWS KMS-managed encryption keys
	SSEKMS SSEType = "aws:kms"

	// SSEC uses customer-provided encryption keys. The value is a routing
	// marker only; the wire algorithm header for SSE-C is always AES256.
	SSEC SSEType = "customer-key"
)

// ObjectACL represents the access control list for the destination object.
type ObjectACL string

// Predefined object ACLs
const (
	// ACLPrivate grants private access (default)
	ACLPrivate ObjectACL = "private"

	// ACLPublicRead grants public read access
	ACLPublicRead ObjectACL = "public-read"

	// ACLPublicReadWrite grants public read and write access
	ACLPublicReadWrite ObjectACL = "public-read-write"

	// ACLAuthenticatedRead grants authenticated users read access
	ACLAuthenticatedRead ObjectACL = "authenticated-read"

	// ACLOwnerRead grants bucket owner read access
	ACLOwnerRead ObjectACL = "bucket-owner-read"

	// ACLOwnerFullControl grants bucket owner full control
	ACLOwnerFullControl ObjectACL = "bucket-owner-full-control"
)

// Source identifies the object a copy reads from.
type Source struct {
	// Bucket is the source bucket name
	Bucket string

	// Key is the source object key
	Key string

	// VersionID selects a specific version of the source object when the
	// source bucket has versioning enabled. Empty means current version.
	VersionID string
}

// DonePart records one successfully copied part.
type DonePart struct {
	// Number is the 1-based part number within the upload session
	Number int32 `json:"number"`

	// ETag is the entity tag the backend returned for the copied part
	ETag string `json:"etag"`
}

// Checkpoint is the resumable progress record for one multipart copy.
//
// A fresh checkpoint is created after upload initiation and handed to the
// progress callback after every completed part; the caller may persist it
// and supply it back via WithCheckpoint to resume an interrupted copy. Its
// JSON shape is the only persisted-state contract.
type Checkpoint struct {
	// DestBucket is the destination bucket name
	DestBucket string `json:"destBucket"`

	// DestKey is the destination object key
	DestKey string `json:"destKey"`

	// CopySize is the total number of bytes being copied
	CopySize int64 `json:"copySize"`

	// PartSize is the part size the plan was computed with
	PartSize int64 `json:"partSize"`

	// UploadID is the backend's handle for the upload session
	UploadID string `json:"uploadId"`

	// DoneParts holds the parts copied so far. Append order follows
	// completion order and is not sorted; treat it as a set keyed by
	// part number.
	DoneParts []DonePart `json:"doneParts"`
}

// Clone returns a deep copy of the checkpoint. Progress callbacks receive
// clones so callers can retain or persist them without racing the copy.
func (c *Checkpoint) Clone() *Checkpoint {
	if c == nil {
		return nil
	}
	out := *c
	out.DoneParts = make([]DonePart, len(c.DoneParts))
	copy(out.DoneParts, c.DoneParts)
	return &out
}

// NumParts returns the total number of parts in the plan this checkpoint
// was created for.
func (c *Checkpoint) NumParts() int32 {
	if c == nil || c.PartSize <= 0 {
		return 0
	}
	return int32((c.CopySize + c.PartSize - 1) / c.PartSize)
}

// Ratio returns completed parts over total parts in [0, 1].
func (c *Checkpoint) Ratio() float64 {
	n := c.NumParts()
	if n == 0 {
		return 0
	}
	return float64(len(c.DoneParts)) / float64(n)
}

// ObjectInfo contains metadata about an object, as reported by a head call.
type ObjectInfo struct {
	// Key is the object key
	Key string

	// Size is the object size in bytes
	Size int64

	// ETag is the entity tag for the object
	ETag string

	// LastModified is when the object was last modified
	LastModified time.Time

	// ContentType is the MIME type of the object
	ContentType string

	// Metadata contains user-defined metadata
	Metadata map[string]string

	// StorageClass is the object's storage class
	StorageClass string

	// VersionID is the object version the metadata describes
	VersionID string
}

// CopyResult contains the result of a completed copy.
type CopyResult struct {
	// Bucket is the destination bucket
	Bucket string

	// Key is the destination object key
	Key string

	// ETag is the entity tag of the destination object
	ETag string

	// VersionID is the destination version ID if versioning is enabled
	VersionID string

	// Size is the number of bytes copied
	Size int64

	// Parts is the number of parts used; zero for a single-call copy
	Parts int32

	// Duration is how long the copy took
	Duration time.Duration
}

// ProgressFunc is invoked with ratio 0 after a fresh upload initiation and
// again after every completed part. The checkpoint is a clone the callback
// may keep; meta carries the raw response metadata of the triggering call.
//
// Returning a non-nil error fails the copy: no further parts start, and the
// error surfaces to the caller. The callback is serialized with checkpoint
// updates and must not invoke the owning copy recursively.
type ProgressFunc func(ratio float64, checkpoint *Checkpoint, meta middleware.Metadata) error

// CancelFlag requests cooperative cancellation of one copy invocation.
//
// The flag is observed before any remote call is issued for a part and
// again once the part pool drains; an in-flight call is allowed to finish.
// A flag belongs to a single invocation; create a fresh one per copy.
type CancelFlag struct {
	canceled atomic.Bool
}

// NewCancelFlag returns a flag in the not-canceled state.
func NewCancelFlag() *CancelFlag {
	return &CancelFlag{}
}

// Cancel requests cancellation. Safe to call from any goroutine, any
// number of times.
func (f *CancelFlag) Cancel() {
	f.canceled.Store(true)
}

// Canceled reports whether cancellation has been requested. A nil flag
// reports false.
func (f *CancelFlag) Canceled() bool {
	return f != nil && f.canceled.Load()
}

// CopyConditions restricts the copy to sources matching the given
// preconditions. They are forwarded to the backend on the copy call and on
// every part copy; the backend rejects the call when a condition fails.
type CopyConditions struct {
	// IfMatch requires the source ETag to equal this value
	IfMatch string

	// IfNoneMatch requires the source ETag to differ from this value
	IfNoneMatch string

	// IfModifiedSince requires the source to be modified after this time
	IfModifiedSince *time.Time

	// IfUnmodifiedSince requires the source to be unmodified since this time
	IfUnmodifiedSince *time.Time
}

// SSEConfig contains server-side encryption configuration for the
// destination object.
type SSEConfig struct {
	// Type is the encryption type (S3, KMS, or customer-provided)
	Type SSEType

	// KMSKeyID is the KMS key ID (required for SSE-KMS)
	KMSKeyID string

	// CustomerKey is the customer-provided encryption key (for SSE-C)
	CustomerKey string

	// CustomerKeyMD5 is the MD5 hash of the customer key (for SSE-C)
	CustomerKeyMD5 string
}

// Configuration types for functional options

// ClientConfig holds configuration for the client.
type ClientConfig struct {
	Region           string
	Endpoint         string
	MaxRetries       int
	Timeout          time.Duration
	Concurrency      int
	ForcePathStyle   bool
	AccessKeyID      string
	SecretAccessKey  string
	SessionToken     string
	CustomAWSConfig  *aws.Config
	CustomHTTPClient *http.Client
}

// CopyOptionConfig holds configuration for copy operations via functional
// options.
type CopyOptionConfig struct {
	PartSize           int64
	PartSizer          func(copySize int64) int64
	Parallel           int
	StartOffset        int64
	EndOffset          int64
	Checkpoint         *Checkpoint
	Progress           ProgressFunc
	Cancel             *CancelFlag
	Conditions         *CopyConditions
	ContentType        string
	Metadata           map[string]string
	StorageClass       StorageClass
	ACL                ObjectACL
	SSE                *SSEConfig
	ReplaceMetadata    bool
	MultipartThreshold int64
}

// Option is a functional option for configuring the client.
type (
	Option func(*ClientConfig)
	// CopyOption is a functional option for configuring copy operations.
	CopyOption func(*CopyOptionConfig)
)
