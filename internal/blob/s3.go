package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"imgexport/internal/domain"
)

// ObjectGetter is the part of the S3 client the source uses.
type ObjectGetter interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Config holds the object-storage connection settings.
type S3Config struct {
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

// NewS3Client builds a client. Static credentials are used when both keys are
// set; otherwise the default AWS credential chain applies. A custom endpoint
// switches to path-style addressing for S3-compatible stores.
func NewS3Client(ctx context.Context, c S3Config) (*s3.Client, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(c.Region)}
	if c.AccessKeyID != "" && c.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AccessKeyID, c.SecretAccessKey, ""),
		))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if c.Endpoint != "" {
			o.BaseEndpoint = aws.String(c.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// S3Source reads s3://bucket/key URLs.
type S3Source struct {
	client ObjectGetter
}

func NewS3Source(client ObjectGetter) *S3Source {
	return &S3Source{client: client}
}

func (s *S3Source) Fetch(ctx context.Context, rawURL string) (domain.ImageBytes, error) {
	bucket, key, err := splitS3URL(rawURL)
	if err != nil {
		return domain.ImageBytes{}, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return domain.ImageBytes{}, fmt.Errorf("%w: s3://%s/%s: %w", domain.ErrFetch, bucket, key, domain.ErrNotFound)
		}
		return domain.ImageBytes{}, fmt.Errorf("%w: s3://%s/%s: %v", domain.ErrFetch, bucket, key, err)
	}
	defer out.Body.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(io.LimitReader(out.Body, MaxBytes+1)); err != nil {
		return domain.ImageBytes{}, fmt.Errorf("%w: read body for %q: %v", domain.ErrFetch, key, err)
	}
	if buf.Len() > MaxBytes {
		return domain.ImageBytes{}, fmt.Errorf("%w: object exceeds %d bytes", domain.ErrFetch, MaxBytes)
	}
	return domain.ImageBytes{Data: buf.Bytes(), MIME: resolveMIME(aws.ToString(out.ContentType), buf.Bytes())}, nil
}

func splitS3URL(rawURL string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(rawURL, "s3://")
	if ok {
		bucket, key, ok = strings.Cut(rest, "/")
	}
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("%w: invalid s3 url %q", domain.ErrFetch, rawURL)
	}
	return bucket, key, nil
}
