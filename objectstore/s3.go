package objectstore

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Backend fetches s3://bucket/key URLs through aws-sdk-go-v2, the S3
// client the rest of the retrieval pack pulls in for blob storage
// (SPEC_FULL.md §11).
type S3Backend struct {
	client *s3.Client
}

// NewS3Backend loads the default AWS config chain (env vars, shared
// config file, instance profile) the way the SDK's own examples do.
func NewS3Backend(ctx context.Context) (*S3Backend, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &S3Backend{client: s3.NewFromConfig(cfg)}, nil
}

func (b *S3Backend) Fetch(ctx context.Context, u *url.URL) ([]byte, error) {
	bucket := u.Host
	key := strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return nil, fmt.Errorf("s3 url %q must be s3://bucket/key", u)
	}

	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get s3://%s/%s: %w", bucket, key, err)
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}
