// Package testutil provides test helper functions.
package testutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// GenerateTestBucketName generates a unique bucket name for testing.
// The name satisfies the S3 naming rules and is unlikely to collide.
func GenerateTestBucketName(prefix string) string {
	return fmt.Sprintf("%s-%d-%d", prefix, time.Now().UnixNano(), rand.Intn(10000))
}

// GenerateTestKey generates a unique object key for testing.
func GenerateTestKey(prefix string) string {
	return fmt.Sprintf("%s/%d/test-object-%d.bin", prefix, time.Now().UnixNano(), rand.Intn(10000))
}

// DeterministicData generates size bytes from the given seed. The same seed
// always yields the same bytes, so copied objects can be verified without
// keeping the payload around.
func DeterministicData(seed int64, size int) []byte {
	r := rand.New(rand.NewSource(seed))
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(r.Intn(256))
	}
	return data
}

// PutTestObject uploads the given payload so a copy test has a source to
// work against.
func PutTestObject(ctx context.Context, client *s3.Client, bucket, key string, data []byte) error {
	_, err := client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("failed to put object %s/%s: %w", bucket, key, err)
	}
	return nil
}

// GetObjectBytes downloads an object in full. Copy tests use it to compare
// the destination against the source payload.
func GetObjectBytes(ctx context.Context, client *s3.Client, bucket, key string) ([]byte, error) {
	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s/%s: %w", bucket, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object body: %w", err)
	}
	return data, nil
}

// ObjectSize returns the reported size of an object.
func ObjectSize(ctx context.Context, client *s3.Client, bucket, key string) (int64, error) {
	out, err := client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to head object %s/%s: %w", bucket, key, err)
	}
	return aws.ToInt64(out.ContentLength), nil
}
