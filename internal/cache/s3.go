package cache

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/trimedia/tri-zvuk/internal/config"
	"github.com/trimedia/tri-zvuk/internal/domain"
	"github.com/trimedia/tri-zvuk/internal/observability"
)

// S3Store writes cache entries into an S3 bucket using the same key layout
// as the filesystem backend. Deployments that share the cache across
// workers use this instead of a local directory.
type S3Store struct {
	client  *s3.Client
	bucket  string
	logger  observability.Logger
	metrics observability.Metrics
}

// NewS3Store builds the S3 client from the worker configuration. A custom
// endpoint with static credentials is supported for local object stores.
func NewS3Store(cfg config.CacheConfig, logger observability.Logger, metrics observability.Metrics) (*S3Store, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.S3Region),
	}
	if cfg.S3AccessKey != "" && cfg.S3SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})

	logger.Info(context.Background(), "S3 cache initialized", observability.Fields{
		"bucket": cfg.S3Bucket,
		"region": cfg.S3Region,
	})

	return &S3Store{
		client:  client,
		bucket:  cfg.S3Bucket,
		logger:  logger,
		metrics: metrics,
	}, nil
}

// Put stores the tier object at key <hash>/zvuk/<tier>[.<ext>] and returns
// the s3:// location.
func (s *S3Store) Put(ctx context.Context, hash string, tier domain.QualityTier, ext string, data []byte) (string, error) {
	start := time.Now()
	s.metrics.StartOperation("cache_put")
	defer s.metrics.EndOperation("cache_put")
	defer func() {
		s.metrics.RecordDuration("cache_put", time.Since(start).Seconds())
	}()

	key := EntryKey(hash, tier, ext)

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	}
	if ct := contentTypeForExt(ext); ct != "" {
		input.ContentType = aws.String(ct)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		s.metrics.RecordError("cache_put", "s3")
		return "", domain.ErrPersistFailed("writing cache object", err)
	}

	s.metrics.RecordSuccess("cache_put")
	s.logger.Info(ctx, "Cache object written", observability.Fields{
		"bucket": s.bucket,
		"key":    key,
		"bytes":  len(data),
	})

	return fmt.Sprintf("s3://%s/%s", s.bucket, key), nil
}

// Healthy verifies the bucket is reachable.
func (s *S3Store) Healthy(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		return fmt.Errorf("cache bucket unavailable: %w", err)
	}
	return nil
}

func contentTypeForExt(ext string) string {
	if ext == "" {
		return "application/octet-stream"
	}
	return mime.TypeByExtension("." + ext)
}
