package blob

import (
	"context"

	infraS3 "btocore/internal/infra/blob/s3"
)

// S3Config re-exports the S3 driver configuration.
type S3Config = infraS3.Config

// FakeS3Bucket re-exports the offline S3 transport used in tests.
type FakeS3Bucket = infraS3.FakeBucket

// NewS3 constructs an S3-backed Store.
func NewS3(ctx context.Context, cfg S3Config) (Store, error) {
	return infraS3.New(ctx, cfg)
}

// NewFakeS3 returns an S3 Store served by an in-memory bucket.
func NewFakeS3(ctx context.Context) (Store, *FakeS3Bucket, error) {
	return infraS3.NewFake(ctx)
}
