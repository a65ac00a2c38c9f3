package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"vidshare/internal/core/ports"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ErrBucketRequired is returned when no bucket is configured.
var ErrBucketRequired = errors.New("s3 bucket not configured")

// S3Options configures the presigner.
type S3Options struct {
	Bucket          string
	Region          string
	CDNURL          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

// S3Presigner issues presigned PUT URLs against a single bucket.
type S3Presigner struct {
	presign func(ctx context.Context, input *s3.PutObjectInput, expires time.Duration) (string, error)
	bucket  string
	region  string
	cdnURL  string
}

// NewS3Presigner loads AWS configuration and verifies that credentials can be
// resolved. Static keys take precedence over the default provider chain.
func NewS3Presigner(ctx context.Context, opts S3Options) (*S3Presigner, error) {
	if strings.TrimSpace(opts.Bucket) == "" {
		return nil, ErrBucketRequired
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(opts.Region),
	}
	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}
	if _, err := cfg.Credentials.Retrieve(ctx); err != nil {
		return nil, fmt.Errorf("resolve aws credentials: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})
	presignClient := s3.NewPresignClient(client)

	return &S3Presigner{
		presign: func(ctx context.Context, input *s3.PutObjectInput, expires time.Duration) (string, error) {
			req, err := presignClient.PresignPutObject(ctx, input, s3.WithPresignExpires(expires))
			if err != nil {
				return "", err
			}
			return req.URL, nil
		},
		bucket: opts.Bucket,
		region: opts.Region,
		cdnURL: strings.TrimRight(opts.CDNURL, "/"),
	}, nil
}

// PresignPut returns a URL that accepts a single PUT of contentType to key.
func (p *S3Presigner) PresignPut(ctx context.Context, key, contentType string, expires time.Duration) (string, error) {
	return p.presign(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, expires)
}

// PublicURL is where the object is served after upload: the CDN when one is
// configured, the regional bucket endpoint otherwise.
func (p *S3Presigner) PublicURL(key string) string {
	return PublicObjectURL(p.cdnURL, p.bucket, p.region, key)
}

// PublicObjectURL builds a viewer-facing object URL. Each key segment is
// path-escaped; the slashes between them are kept.
func PublicObjectURL(cdnURL, bucket, region, key string) string {
	segments := strings.Split(key, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	path := strings.Join(segments, "/")

	if cdn := strings.TrimRight(cdnURL, "/"); cdn != "" {
		return cdn + "/" + path
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", bucket, region, path)
}

var _ ports.ObjectPresigner = (*S3Presigner)(nil)
