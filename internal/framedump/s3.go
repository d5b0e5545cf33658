package framedump

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// PutObjectAPI is the subset of the S3 client used by S3Sink.
type PutObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Sink uploads frames to an S3 bucket under
// <prefix>/<yyyy-mm-dd>/<name>.png.
type S3Sink struct {
	client PutObjectAPI
	bucket string
	prefix string
}

var _ Sink = (*S3Sink)(nil)

// NewS3Sink builds a client from the default AWS credential chain.
func NewS3Sink(ctx context.Context, bucket, region, prefix string) (*S3Sink, error) {
	if bucket == "" {
		return nil, errors.New("framedump: bucket must not be empty")
	}
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("framedump: load AWS config: %w", err)
	}
	return NewS3SinkWithClient(s3.NewFromConfig(cfg), bucket, prefix), nil
}

// NewS3SinkWithClient wraps an existing client.
func NewS3SinkWithClient(client PutObjectAPI, bucket, prefix string) *S3Sink {
	return &S3Sink{client: client, bucket: bucket, prefix: prefix}
}

// Save implements Sink.
func (s *S3Sink) Save(ctx context.Context, f Frame) error {
	files, err := encode(f)
	if err != nil {
		return err
	}
	day := f.At.Format("2006-01-02")
	for name, data := range files {
		key := path.Join(s.prefix, day, name)
		_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(s.bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(data),
			ContentType: aws.String("image/png"),
			Metadata: map[string]string{
				"frame-id":  f.ID,
				"magnitude": strconv.FormatFloat(f.Magnitude, 'f', 2, 64),
			},
		})
		if err != nil {
			return fmt.Errorf("framedump: upload %s: %w", key, err)
		}
	}
	return nil
}
