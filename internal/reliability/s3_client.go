package reliability

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	appconfig "github.com/aristath/mindset/internal/config"
)

// ObjectInfo describes a single stored object.
type ObjectInfo struct {
	Key       string
	SizeBytes int64
}

// ObjectStore is the storage surface the backup service needs.
// Satisfied by S3Client; mocked in tests.
type ObjectStore interface {
	Upload(ctx context.Context, name string, body io.Reader, size int64) error
	List(ctx context.Context, namePrefix string) ([]ObjectInfo, error)
	Delete(ctx context.Context, name string) error
}

// S3Client uploads backup archives to an S3-compatible bucket.
// Works with AWS S3 as well as R2/MinIO style endpoints.
type S3Client struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
	prefix   string
	log      zerolog.Logger
}

// NewS3Client creates a client from backup configuration
func NewS3Client(ctx context.Context, cfg *appconfig.BackupConfig, log zerolog.Logger) (*S3Client, error) {
	if cfg == nil || cfg.Bucket == "" {
		return nil, fmt.Errorf("backup bucket not configured")
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Client{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   cfg.Bucket,
		prefix:   strings.Trim(cfg.Prefix, "/"),
		log:      log.With().Str("component", "s3_client").Logger(),
	}, nil
}

// key joins the configured prefix with an object name
func (c *S3Client) key(name string) string {
	if c.prefix == "" {
		return name
	}
	return c.prefix + "/" + name
}

// Upload stores an object under the configured prefix
func (c *S3Client) Upload(ctx context.Context, name string, body io.Reader, size int64) error {
	key := c.key(name)

	c.log.Debug().
		Str("key", key).
		Int64("size_bytes", size).
		Msg("Uploading object")

	_, err := c.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
		Body:   body,
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}

	return nil
}

// List returns objects whose name starts with namePrefix, prefix-stripped
func (c *S3Client) List(ctx context.Context, namePrefix string) ([]ObjectInfo, error) {
	keyPrefix := c.key(namePrefix)

	var objects []ObjectInfo
	paginator := s3.NewListObjectsV2Paginator(c.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(c.bucket),
		Prefix: aws.String(keyPrefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}

		for _, obj := range page.Contents {
			if obj.Key == nil {
				continue
			}
			name := *obj.Key
			if c.prefix != "" {
				name = strings.TrimPrefix(name, c.prefix+"/")
			}

			var size int64
			if obj.Size != nil {
				size = *obj.Size
			}

			objects = append(objects, ObjectInfo{Key: name, SizeBytes: size})
		}
	}

	return objects, nil
}

// Delete removes an object under the configured prefix
func (c *S3Client) Delete(ctx context.Context, name string) error {
	key := c.key(name)

	_, err := c.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}

	c.log.Debug().Str("key", key).Msg("Deleted object")
	return nil
}
