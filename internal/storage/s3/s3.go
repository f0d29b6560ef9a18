package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ErrDisabled is returned by NewFromEnv when no bucket is configured.
var ErrDisabled = errors.New("s3: storage not configured")

type S3Client struct {
	Client     *s3.Client
	Bucket     string
	endpoint   string
	publicBase string
}

// NewFromEnv builds an S3-compatible client (AWS, R2, MinIO) from AWS_ENDPOINT,
// AWS_REGION, AWS_BUCKET, AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY and
// COVER_PUBLIC_BASE_URL.
func NewFromEnv(ctx context.Context) (*S3Client, error) {
	bucket := os.Getenv("AWS_BUCKET")
	if bucket == "" {
		return nil, ErrDisabled
	}
	endpoint := os.Getenv("AWS_ENDPOINT")
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = "auto"
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if id := os.Getenv("AWS_ACCESS_KEY_ID"); id != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(id, os.Getenv("AWS_SECRET_ACCESS_KEY"), ""),
		))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		o.UsePathStyle = os.Getenv("AWS_PATH_STYLE") == "1"
	})

	return &S3Client{
		Client:     client,
		Bucket:     bucket,
		endpoint:   endpoint,
		publicBase: os.Getenv("COVER_PUBLIC_BASE_URL"),
	}, nil
}

// PutCover uploads body under objectKey and returns its public URL.
// size MUST be set; R2 rejects chunked uploads without it.
func (s *S3Client) PutCover(ctx context.Context, objectKey string, body io.Reader, size int64, contentType string) (string, error) {
	_, err := s.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.Bucket),
		Key:           aws.String(objectKey),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
		CacheControl:  aws.String("public, max-age=31536000, immutable"),
	})
	if err != nil {
		return "", fmt.Errorf("s3: put object %s: %w", objectKey, err)
	}
	return s.PublicURL(objectKey), nil
}

// PublicURL is COVER_PUBLIC_BASE_URL/key when set, else endpoint/bucket/key.
func (s *S3Client) PublicURL(objectKey string) string {
	if s.publicBase != "" {
		return strings.TrimRight(s.publicBase, "/") + "/" + objectKey
	}
	base := strings.TrimRight(s.endpoint, "/")
	if base == "" {
		base = "https://" + s.Bucket + ".s3.amazonaws.com"
		return base + "/" + objectKey
	}
	return base + "/" + s.Bucket + "/" + objectKey
}

// KeyFromURL recovers the object key of a URL produced by PublicURL.
func (s *S3Client) KeyFromURL(url string) (string, bool) {
	prefix := strings.TrimSuffix(s.PublicURL("x"), "x")
	if !strings.HasPrefix(url, prefix) || len(url) == len(prefix) {
		return "", false
	}
	return strings.TrimPrefix(url, prefix), true
}
