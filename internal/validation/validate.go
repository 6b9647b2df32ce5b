// Package validation provides centralized input validation for copy
// requests. Bucket names, object keys, byte ranges, and user metadata are
// all checked before any request reaches the backend.
package validation

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"github.com/transferkit/s3copy/errors"
)

// ValidateBucketName validates that a bucket name is DNS-compliant
// according to the S3 naming rules. Returns ErrInvalidBucketName if the
// bucket name is invalid.
func ValidateBucketName(bucket string) error {
	if bucket == "" {
		return bucketError(bucket, "bucket name cannot be empty")
	}
	if len(bucket) < 3 || len(bucket) > 63 {
		return bucketError(bucket, "bucket name must be between 3 and 63 characters long")
	}

	for _, r := range bucket {
		if !isBucketRune(r) {
			return bucketError(bucket, "bucket name can only contain lowercase letters, numbers, dots, and hyphens")
		}
	}

	if bucket[0] == '-' || bucket[0] == '.' || bucket[len(bucket)-1] == '-' || bucket[len(bucket)-1] == '.' {
		return bucketError(bucket, "bucket name cannot start or end with a hyphen or dot")
	}
	if strings.Contains(bucket, "..") {
		return bucketError(bucket, "bucket name cannot contain adjacent dots")
	}
	if looksLikeIPAddress(bucket) {
		return bucketError(bucket, "bucket name cannot be formatted as an IP address")
	}

	return nil
}

// ValidateObjectKey validates that an object key is valid according to the
// S3 rules. This includes preventing path traversal attempts and rejecting
// control characters.
func ValidateObjectKey(key string) error {
	if key == "" {
		return keyError(key, "object key cannot be empty")
	}
	if len(key) > 1024 {
		return keyError(key, "object key cannot exceed 1024 bytes")
	}
	if hasPathTraversal(key) {
		return keyError(key, "object key cannot contain path traversal sequences")
	}
	for _, r := range key {
		if unicode.IsControl(r) {
			return keyError(key, "object key cannot contain control characters")
		}
	}

	return nil
}

// ValidateCopyRange validates a resolved byte range. Start is inclusive
// and end exclusive, so a valid range always has end greater than start.
func ValidateCopyRange(start, end int64) error {
	if start < 0 {
		return errors.NewError("validateRange", errors.ErrInvalidRange).
			WithMessage(fmt.Sprintf("range start %d cannot be negative", start))
	}
	if end <= start {
		return errors.NewError("validateRange", errors.ErrInvalidRange).
			WithMessage(fmt.Sprintf("range end %d must be greater than start %d", end, start))
	}

	return nil
}

// ValidateMetadata validates metadata keys and values according to the S3
// rules before they are attached to the destination object.
func ValidateMetadata(metadata map[string]string) error {
	for key, value := range metadata {
		if err := validateMetadataKey(key); err != nil {
			return err
		}
		if err := validateMetadataValue(value); err != nil {
			return err
		}
	}

	return nil
}

// mimePattern matches a type/subtype pair with an optional parameter list.
var mimePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9\-+.]*\/[a-zA-Z0-9][a-zA-Z0-9\-+.]*(\s*;.*)?$`)

// ValidateContentType validates that a content type is a well-formed MIME
// type. An empty content type is allowed; the backend keeps the source's.
func ValidateContentType(contentType string) error {
	if contentType == "" {
		return nil
	}
	if !mimePattern.MatchString(contentType) {
		return errors.NewError("validateContentType", errors.ErrInvalidInput).
			WithMessage("content type must be a valid MIME type")
	}

	return nil
}

func bucketError(bucket, msg string) error {
	return errors.NewError("validateBucketName", errors.ErrInvalidBucketName).
		WithBucket(bucket).
		WithMessage(msg)
}

func keyError(key, msg string) error {
	return errors.NewError("validateObjectKey", errors.ErrInvalidObjectKey).
		WithKey(key).
		WithMessage(msg)
}

// isBucketRune checks if a character is valid in a bucket name.
func isBucketRune(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || r == '.' || r == '-'
}

// looksLikeIPAddress checks if a string is formatted as an IPv4 address.
func looksLikeIPAddress(s string) bool {
	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return false
	}

	for _, part := range parts {
		if part == "" {
			return false
		}
		num := 0
		for _, r := range part {
			if r < '0' || r > '9' {
				return false
			}
			num = num*10 + int(r-'0')
		}
		if num > 255 {
			return false
		}
	}

	return true
}

// hasPathTraversal checks for path traversal attempts in object keys.
func hasPathTraversal(key string) bool {
	if strings.Contains(key, "..") {
		return true
	}

	cleaned := filepath.Clean(key)
	if strings.HasPrefix(cleaned, "..") || strings.HasPrefix(cleaned, "/") {
		return true
	}
	// Windows-style absolute paths
	if len(cleaned) >= 3 && cleaned[1] == ':' && (cleaned[2] == '\\' || cleaned[2] == '/') {
		return true
	}

	return false
}

// validateMetadataKey validates a metadata key according to the S3 rules.
func validateMetadataKey(key string) error {
	if key == "" {
		return errors.NewError("validateMetadata", errors.ErrInvalidInput).
			WithMessage("metadata key cannot be empty")
	}
	if len(key) > 128 {
		return errors.NewError("validateMetadata", errors.ErrInvalidInput).
			WithMessage("metadata key cannot exceed 128 characters")
	}

	// Prefixes the backend reserves for its own headers.
	for _, prefix := range []string{"aws:", "x-amz-"} {
		if strings.HasPrefix(strings.ToLower(key), prefix) {
			return errors.NewError("validateMetadata", errors.ErrInvalidInput).
				WithMessage(fmt.Sprintf("metadata key cannot start with reserved prefix: %s", prefix))
		}
	}

	for _, r := range key {
		if r < 33 || r > 126 {
			return errors.NewError("validateMetadata", errors.ErrInvalidInput).
				WithMessage("metadata key can only contain printable ASCII characters")
		}
	}

	return nil
}

// validateMetadataValue validates a metadata value according to the S3 rules.
func validateMetadataValue(value string) error {
	if len(value) > 2048 {
		return errors.NewError("validateMetadata", errors.ErrInvalidInput).
			WithMessage("metadata value cannot exceed 2048 characters")
	}

	for _, r := range value {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			return errors.NewError("validateMetadata", errors.ErrInvalidInput).
				WithMessage("metadata value cannot contain control characters")
		}
	}

	return nil
}
