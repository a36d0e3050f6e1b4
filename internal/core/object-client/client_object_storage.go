// Package objectclient talks to an S3 bucket. The bucket is both a document
// source, listed under a prefix, and the sink for extracted-text snapshots.
package objectclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	cfg "github.com/markdave123-py/docsync/internal/config"
	"github.com/markdave123-py/docsync/internal/core"
	"github.com/markdave123-py/docsync/internal/core/providers"
	"github.com/markdave123-py/docsync/internal/logger"
	"github.com/markdave123-py/docsync/internal/models"
)

// ProviderName identifies documents listed from the bucket.
const ProviderName = "s3"

type S3Client struct {
	client   s3API
	region   string
	bucket   string
	prefix   string
	allowed  []string
	maxBytes int64
}

var (
	_ core.Provider     = (*S3Client)(nil)
	_ core.ObjectClient = (*S3Client)(nil)
)

func NewS3Client(ctx context.Context, cfg *cfg.Config) (*S3Client, error) {
	if cfg.AwsAccessKey == "" || cfg.AwsSecretKey == "" {
		return nil, fmt.Errorf("%w: AWS credentials not set", core.ErrConfiguration)
	}
	if cfg.AwsRegion == "" {
		return nil, fmt.Errorf("%w: AWS_REGION not set", core.ErrConfiguration)
	}
	if cfg.BucketName == "" {
		return nil, fmt.Errorf("%w: S3 bucket name not set", core.ErrConfiguration)
	}

	awsCfg, err := config.LoadDefaultConfig(
		ctx,
		config.WithRegion(cfg.AwsRegion),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AwsAccessKey, cfg.AwsSecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	logger.FromContext(ctx).Info("s3 client ready", "bucket", cfg.BucketName, "region", cfg.AwsRegion)
	return newWithAPI(s3.NewFromConfig(awsCfg), cfg.AwsRegion, cfg.BucketName, cfg.BucketPrefix,
		cfg.AllowedExtensions, cfg.MaxFetchBytes), nil
}

func newWithAPI(api s3API, region, bucket, prefix string, allowed []string, maxBytes int64) *S3Client {
	return &S3Client{
		client:   api,
		region:   region,
		bucket:   bucket,
		prefix:   normalisePrefix(prefix),
		allowed:  allowed,
		maxBytes: maxBytes,
	}
}

func (c *S3Client) Name() string { return ProviderName }

// Locate maps a seed name to its object key.
func (c *S3Client) Locate(name string) string { return c.prefix + name }

// List pages through every object under the prefix.
func (c *S3Client) List(ctx context.Context) ([]models.DocumentRef, error) {
	pager := s3.NewListObjectsV2Paginator(c.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(c.bucket),
		Prefix: aws.String(c.prefix),
	})
	var refs []models.DocumentRef
	for pager.HasMorePages() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: list s3://%s/%s: %w", core.ErrProviderUnavailable, c.bucket, c.prefix, err)
		}
		for _, obj := range page.Contents {
			if ref, ok := c.refFor(obj); ok {
				refs = append(refs, ref)
			}
		}
	}
	return providers.FilterAllowed(refs, c.allowed), nil
}

func (c *S3Client) refFor(obj types.Object) (models.DocumentRef, bool) {
	key := aws.ToString(obj.Key)
	name, ok := nameFromKey(c.prefix, key)
	if !ok {
		return models.DocumentRef{}, false
	}
	return models.DocumentRef{
		Provider:     ProviderName,
		Name:         name,
		Locator:      key,
		SizeBytes:    obj.Size,
		LastModified: obj.LastModified,
		ETag:         strings.Trim(aws.ToString(obj.ETag), `"`),
		ContentHint:  providers.ContentHint(name),
	}, true
}

// Fetch downloads one object, refusing anything above the size ceiling.
func (c *S3Client) Fetch(ctx context.Context, ref models.DocumentRef) ([]byte, error) {
	if c.maxBytes > 0 && ref.SizeBytes != nil && *ref.SizeBytes > c.maxBytes {
		return nil, fmt.Errorf("%w: %s is %d bytes", core.ErrSizeExceeded, ref.Name, *ref.SizeBytes)
	}

	ctxGet, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	resp, err := c.client.GetObject(ctxGet, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(ref.Locator),
	})
	if err != nil {
		var missing *types.NoSuchKey
		if errors.As(err, &missing) {
			return nil, fmt.Errorf("%w: s3 object %s not found", core.ErrProviderUnavailable, ref.Locator)
		}
		return nil, fmt.Errorf("%w: s3 get failed: %w", core.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if c.maxBytes > 0 && aws.ToInt64(resp.ContentLength) > c.maxBytes {
		return nil, fmt.Errorf("%w: %s is %d bytes", core.ErrSizeExceeded, ref.Name, aws.ToInt64(resp.ContentLength))
	}
	return providers.ReadLimited(resp.Body, c.maxBytes)
}

// UploadFile uploads data under the configured prefix and returns its URL.
func (c *S3Client) UploadFile(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	uploader := manager.NewUploader(c.client)
	fullKey := c.prefix + strings.TrimLeft(key, "/")

	input := &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(fullKey),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	}

	ctxUpload, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	if _, err := uploader.Upload(ctxUpload, input); err != nil {
		return "", fmt.Errorf("%w: s3 upload failed: %w", core.ErrStoreWrite, err)
	}

	escaped := (&url.URL{Path: fullKey}).EscapedPath()
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", c.bucket, c.region, escaped), nil
}
