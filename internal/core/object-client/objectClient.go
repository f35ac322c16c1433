package objectclient

import (
	"fmt"
	"strings"
)

// IsS3URI reports whether s looks like s3://bucket/prefix.
func IsS3URI(s string) bool {
	return strings.HasPrefix(s, "s3://")
}

// ParseS3URI splits s3://bucket/some/prefix into bucket and key prefix.
func ParseS3URI(s string) (bucket, key string, err error) {
	if !IsS3URI(s) {
		return "", "", fmt.Errorf("not an s3 uri: %q", s)
	}
	rest := strings.TrimPrefix(s, "s3://")
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("s3 uri %q has no bucket", s)
	}
	return bucket, key, nil
}
