package main

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/transferkit/s3copy/copytypes"
)

// parseS3URL parses an s3://bucket/key URL into a source descriptor.
// A versionId query parameter selects a specific source version.
func parseS3URL(raw string) (copytypes.Source, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return copytypes.Source{}, fmt.Errorf("invalid S3 URL %q: %w", raw, err)
	}
	if u.Scheme != "s3" {
		return copytypes.Source{}, fmt.Errorf("invalid S3 URL %q: expected s3://bucket/key", raw)
	}

	key := strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return copytypes.Source{}, fmt.Errorf("invalid S3 URL %q: expected s3://bucket/key", raw)
	}

	return copytypes.Source{
		Bucket:    u.Host,
		Key:       key,
		VersionID: u.Query().Get("versionId"),
	}, nil
}
