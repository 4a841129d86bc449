package port

import (
	"context"
	"io"
)

// UploadInput is one rendered export. Bucket is ignored by the local sink.
type UploadInput struct {
	Bucket      string
	Key         string
	Body        io.Reader
	ContentType string
	Size        int64
}

// UploadOutput reports where the export landed.
type UploadOutput struct {
	Location string
	ETag     string
}

// ObjectStorage is an export sink: a local directory or an S3 bucket.
// Delete of a missing key succeeds.
type ObjectStorage interface {
	Upload(ctx context.Context, input UploadInput) (*UploadOutput, error)
	Delete(ctx context.Context, bucket, key string) error
	GetPresignedURL(ctx context.Context, bucket, key string, expirySeconds int64) (string, error)
}
