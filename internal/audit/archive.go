package audit

import (
	"context"
	"path"
)

// Archiver mirrors audit files to secondary storage.
type Archiver interface {
	Archive(ctx context.Context, key string, data []byte) error
}

// ObjectPutter is the subset of the object storage client the S3 archiver needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, key string, data []byte, contentType string) error
}

// S3Archiver uploads audit files to an S3-compatible bucket under a prefix.
type S3Archiver struct {
	client ObjectPutter
	prefix string
}

var _ Archiver = (*S3Archiver)(nil)

// NewS3Archiver returns an archiver writing through client.
func NewS3Archiver(client ObjectPutter, prefix string) *S3Archiver {
	return &S3Archiver{client: client, prefix: prefix}
}

// Archive uploads data as prefix/key.
func (a *S3Archiver) Archive(ctx context.Context, key string, data []byte) error {
	return a.client.PutObject(ctx, path.Join(a.prefix, key), data, "application/json")
}
