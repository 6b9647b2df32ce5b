// Package errors provides error types and handling for copy operations.
package errors

import (
	"errors"
	"fmt"

	"github.com/aws/smithy-go"
)

// Error represents a copy operation error with context about the phase that
// failed. It wraps the underlying AWS SDK error with additional context for
// better debugging.
type Error struct {
	// Op is the operation that failed (e.g., "copy", "copyParts", "complete")
	Op string

	// Bucket is the bucket name (if applicable)
	Bucket string

	// Key is the object key (if applicable)
	Key string

	// Err is the underlying error from the AWS SDK or other source
	Err error
}

// Error implements the error interface by providing a formatted error message.
func (e *Error) Error() string {
	if e.Bucket != "" && e.Key != "" {
		return fmt.Sprintf("s3copy.%s %s/%s: %v", e.Op, e.Bucket, e.Key, e.Err)
	}
	if e.Bucket != "" {
		return fmt.Sprintf("s3copy.%s bucket %s: %v", e.Op, e.Bucket, e.Err)
	}
	if e.Key != "" {
		return fmt.Sprintf("s3copy.%s object %s: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("s3copy.%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error chaining support.
func (e *Error) Unwrap() error {
	return e.Err
}

// WithBucket adds bucket context to an existing error.
func (e *Error) WithBucket(bucket string) *Error {
	e.Bucket = bucket
	return e
}

// WithKey adds object key context to an existing error.
func (e *Error) WithKey(key string) *Error {
	e.Key = key
	return e
}

// WithMessage wraps the underlying error with a custom message.
func (e *Error) WithMessage(message string) *Error {
	e.Err = fmt.Errorf("%s: %w", message, e.Err)
	return e
}

// NewError creates a new Error with the given operation and underlying error.
func NewError(op string, err error) *Error {
	return &Error{
		Op:  op,
		Err: err,
	}
}

// NewObjectError creates a new Error with bucket and key context.
func NewObjectError(op, bucket, key string, err error) *Error {
	return &Error{
		Op:     op,
		Bucket: bucket,
		Key:    key,
		Err:    err,
	}
}

// PartError attributes a failure to a single part of a multipart copy.
// It wraps the underlying cause so errors.Is/As keep working through it.
type PartError struct {
	// PartNumber is the 1-based number of the part that failed
	PartNumber int32

	// Err is the underlying cause
	Err error
}

// Error implements the error interface.
func (e *PartError) Error() string {
	return fmt.Sprintf("part %d: %v", e.PartNumber, e.Err)
}

// Unwrap returns the underlying error for error chaining support.
func (e *PartError) Unwrap() error {
	return e.Err
}

// NewPartError creates a PartError for the given part number and cause.
func NewPartError(partNumber int32, err error) *PartError {
	return &PartError{
		PartNumber: partNumber,
		Err:        err,
	}
}

// AsPartError extracts a PartError from an error chain, if present.
func AsPartError(err error) (*PartError, bool) {
	var pe *PartError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// Sentinel errors for common copy operation failures.
// These can be used with errors.Is() for error checking.
var (
	// ErrObjectNotFound indicates that the requested object does not exist
	ErrObjectNotFound = errors.New("s3copy: object not found")

	// ErrBucketNotFound indicates that the requested bucket does not exist
	ErrBucketNotFound = errors.New("s3copy: bucket not found")

	// ErrUploadNotFound indicates that the upload session does not exist,
	// typically because a resumed checkpoint's session was aborted or expired
	ErrUploadNotFound = errors.New("s3copy: upload session not found")

	// ErrAccessDenied indicates that access to the resource is denied
	ErrAccessDenied = errors.New("s3copy: access denied")

	// ErrPreconditionFailed indicates that a copy condition was not met
	ErrPreconditionFailed = errors.New("s3copy: precondition failed")

	// ErrInvalidInput indicates that the provided input is invalid
	ErrInvalidInput = errors.New("s3copy: invalid input")

	// ErrInvalidBucketName indicates that the bucket name is invalid
	ErrInvalidBucketName = errors.New("s3copy: invalid bucket name")

	// ErrInvalidObjectKey indicates that the object key is invalid
	ErrInvalidObjectKey = errors.New("s3copy: invalid object key")

	// ErrInvalidRange indicates that the requested byte range is invalid
	ErrInvalidRange = errors.New("s3copy: invalid range")

	// ErrCanceled reports caller-requested cancellation. It is a signal,
	// not a defect: the copy stopped because the cancel flag was set, and
	// the checkpoint remains valid for a later resume.
	ErrCanceled = errors.New("s3copy: canceled")
)

// IsObjectNotFound checks if an error indicates that an object was not found.
// This is a convenience function that handles both sentinel errors and wrapped errors.
func IsObjectNotFound(err error) bool {
	return errors.Is(err, ErrObjectNotFound)
}

// IsUploadNotFound checks if an error indicates that an upload session was
// not found.
func IsUploadNotFound(err error) bool {
	return errors.Is(err, ErrUploadNotFound)
}

// IsAccessDenied checks if an error indicates access was denied.
// This is a convenience function that handles both sentinel errors and wrapped errors.
func IsAccessDenied(err error) bool {
	return errors.Is(err, ErrAccessDenied)
}

// IsInvalidInput checks if an error indicates invalid input.
// This is a convenience function that handles both sentinel errors and wrapped errors.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsCanceled checks if an error reports caller-requested cancellation.
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled)
}

// FromAPIError maps a backend API error onto the package's sentinel errors
// while keeping the original error in the chain. Errors that carry no
// recognized API error code pass through unchanged.
func FromAPIError(err error) error {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return err
	}

	switch apiErr.ErrorCode() {
	case "NoSuchKey", "NotFound":
		return fmt.Errorf("%w: %w", ErrObjectNotFound, err)
	case "NoSuchBucket":
		return fmt.Errorf("%w: %w", ErrBucketNotFound, err)
	case "NoSuchUpload":
		return fmt.Errorf("%w: %w", ErrUploadNotFound, err)
	case "AccessDenied":
		return fmt.Errorf("%w: %w", ErrAccessDenied, err)
	case "PreconditionFailed":
		return fmt.Errorf("%w: %w", ErrPreconditionFailed, err)
	case "InvalidRange":
		return fmt.Errorf("%w: %w", ErrInvalidRange, err)
	default:
		return err
	}
}
