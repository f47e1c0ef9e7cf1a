package minio

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"sentiscope/internal/config"
	"sentiscope/internal/port"
)

// bucketAPI is the part of *minio.Client used to prepare the bucket.
type bucketAPI interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
}

type minioClient struct {
	client  *minio.Client
	buckets bucketAPI
	bucket  string
	region  string

	mu    sync.Mutex
	ready bool
}

// NewMinIOClient creates a MinIO-backed ObjectStorage bound to cfg.Bucket.
// The bucket is created on first write if it does not exist.
func NewMinIOClient(cfg *config.MinIOConfig) (port.ObjectStorage, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("minio endpoint is required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("minio bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}

	return &minioClient{client: client, buckets: client, bucket: bucket, region: region}, nil
}

// ensureBucket makes sure the bucket exists. Only success is remembered, so a
// failed check is retried on the next write.
func (c *minioClient) ensureBucket(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ready {
		return nil
	}

	exists, err := c.buckets.BucketExists(ctx, c.bucket)
	if err != nil {
		return fmt.Errorf("minio bucket %s: %w", c.bucket, err)
	}
	if !exists {
		err = c.buckets.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{Region: c.region})
		if err != nil && minio.ToErrorResponse(err).Code != "BucketAlreadyOwnedByYou" {
			return fmt.Errorf("minio bucket %s: %w", c.bucket, err)
		}
	}
	c.ready = true
	return nil
}

func (c *minioClient) Put(ctx context.Context, input port.PutInput) error {
	if err := c.ensureBucket(ctx); err != nil {
		return err
	}
	size := input.Size
	if size <= 0 {
		size = -1
	}
	_, err := c.client.PutObject(ctx, c.bucket, input.Key, input.Body, size, minio.PutObjectOptions{
		ContentType: input.ContentType,
	})
	if err != nil {
		return fmt.Errorf("minio put %s: %w", input.Key, err)
	}
	return nil
}

func (c *minioClient) Delete(ctx context.Context, key string) error {
	if err := c.client.RemoveObject(ctx, c.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("minio delete %s: %w", key, err)
	}
	return nil
}

func (c *minioClient) PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	u, err := c.client.PresignedGetObject(ctx, c.bucket, key, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("minio presign %s: %w", key, err)
	}
	return u.String(), nil
}
