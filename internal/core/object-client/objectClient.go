package objectclient

import (
	"context"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// s3API is the slice of the S3 client this package calls. It lets tests swap
// in an in-memory bucket.
type s3API interface {
	s3.ListObjectsV2APIClient
	manager.UploadAPIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// snapshotDir holds extracted-text snapshots written back to the bucket.
// Listing skips it so the pipeline never ingests its own output.
const snapshotDir = "extracted/"

// normalisePrefix makes a non-empty prefix end in a slash.
func normalisePrefix(p string) string {
	p = strings.TrimLeft(strings.TrimSpace(p), "/")
	if p != "" && !strings.HasSuffix(p, "/") {
		p += "/"
	}
	return p
}

// nameFromKey strips the configured prefix. It returns false for folder
// markers and snapshot keys.
func nameFromKey(prefix, key string) (string, bool) {
	if !strings.HasPrefix(key, prefix) {
		return "", false
	}
	name := strings.TrimPrefix(key, prefix)
	if name == "" || strings.HasSuffix(name, "/") || strings.HasPrefix(name, snapshotDir) {
		return "", false
	}
	return name, true
}

// SnapshotKey is where the extracted text of a document is kept.
func SnapshotKey(provider, name string) string {
	return path.Join(strings.TrimSuffix(snapshotDir, "/"), provider, name) + ".txt"
}
