package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"roomcast/internal/pkg/logx"
)

// s3Store keeps the snapshot as a single object in an S3-compatible bucket.
type s3Store struct {
	bucket   string
	key      string
	client   *s3.Client
	uploader *manager.Uploader
}

// newS3Store initializes the S3 client using a custom configuration that supports S3-compatible endpoints.
func newS3Store(ctx context.Context, cfg ServiceConfig) (*s3Store, error) {
	if cfg.S3BucketName == "" || cfg.S3ObjectKey == "" {
		return nil, errors.New("storage: s3 bucket and object key are required")
	}

	region := cfg.S3Region
	if region == "" {
		region = "auto"
	}

	sdkCfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3AccessKeyID,
			cfg.S3SecretAccessKey,
			"",
		)),
		config.WithRegion(region),
	)
	if err != nil {
		logx.Error(err, "Failed to load AWS SDK config")
		return nil, fmt.Errorf("failed to initialize S3 client configuration: %w", err)
	}

	client := s3.NewFromConfig(sdkCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
		}
		o.UsePathStyle = true
	})

	return &s3Store{
		bucket:   cfg.S3BucketName,
		key:      cfg.S3ObjectKey,
		client:   client,
		uploader: manager.NewUploader(client),
	}, nil
}

func (s *s3Store) Load(ctx context.Context) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		var notFound *types.NotFound
		if errors.As(err, &noKey) || errors.As(err, &notFound) {
			return nil, ErrNotFound
		}
		logx.Error(err, "Failed to fetch history object", "bucket", s.bucket, "key", s.key)
		return nil, fmt.Errorf("failed to fetch history object from S3: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read history object body: %w", err)
	}

	return data, nil
}

func (s *s3Store) Save(ctx context.Context, data []byte) error {
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		logx.Error(err, "S3 upload of history snapshot failed", "bucket", s.bucket, "key", s.key)
		return fmt.Errorf("failed to upload history object to S3: %w", err)
	}

	return nil
}

func (s *s3Store) Close() error {
	return nil
}
