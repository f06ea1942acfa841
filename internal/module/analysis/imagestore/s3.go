package imagestore

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// s3Store fetches images from an S3-compatible bucket.
type s3Store struct {
	client *s3.Client
	bucket string
}

// NewS3Store creates an S3-backed image store.
func NewS3Store(client *s3.Client, bucket string) Store {
	return &s3Store{client: client, bucket: bucket}
}

func (s *s3Store) Fetch(ctx context.Context, ref string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(ref),
	})
	if err != nil {
		return nil, fmt.Errorf("get image %q: %w", ref, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read image %q: %w", ref, err)
	}
	return data, nil
}

var _ Store = (*s3Store)(nil)
