package photostore

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	fiberlog "github.com/gofiber/fiber/v2/log"
)

// Client wraps the S3 client for original and restored photo objects.
type Client struct {
	s3Client *s3.Client
	config   *Config
}

var (
	defaultClient *Client
	setupOnce     sync.Once
)

// NewClient creates a new photo storage client.
func NewClient(cfg *Config) (*Client, error) {
	if !cfg.IsEnabled() {
		return nil, fmt.Errorf("photo storage is not configured")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
			// S3-compatible providers generally require path-style URLs.
			o.UsePathStyle = true
			o.UseAccelerate = false
		}
	})

	client := &Client{
		s3Client: s3Client,
		config:   cfg,
	}

	// Test connection
	if _, err := s3Client.HeadBucket(context.Background(), &s3.HeadBucketInput{
		Bucket: aws.String(cfg.Bucket),
	}); err != nil {
		return nil, fmt.Errorf("bucket %s not accessible: %w", cfg.Bucket, err)
	}

	fiberlog.Infof("[PhotoStore] initialized S3 client for bucket: %s", cfg.Bucket)
	return client, nil
}

// GetClient returns the process-wide photo storage client, initializing it
// from the environment on first use. Returns nil when storage is not
// configured; callers must treat that as "uploads disabled".
func GetClient() *Client {
	setupOnce.Do(func() {
		cfg := NewConfigFromEnv()
		if !cfg.IsEnabled() {
			fiberlog.Warn("[PhotoStore] S3 not configured, photo uploads are disabled")
			return
		}
		client, err := NewClient(cfg)
		if err != nil {
			fiberlog.Errorf("[PhotoStore] setup failed: %v", err)
			return
		}
		defaultClient = client
	})
	return defaultClient
}

// Upload streams an object into the photo bucket.
func (c *Client) Upload(ctx context.Context, objectKey, contentType string, body io.Reader, size int64) error {
	_, err := c.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.config.Bucket),
		Key:           aws.String(objectKey),
		Body:          body,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", objectKey, err)
	}
	return nil
}

// Delete removes an object from the photo bucket.
func (c *Client) Delete(ctx context.Context, objectKey string) error {
	_, err := c.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.config.Bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", objectKey, err)
	}
	return nil
}

// PublicURL returns the address the inference API fetches objects from.
func (c *Client) PublicURL(objectKey string) string {
	if c.config.PublicBaseURL != "" {
		return fmt.Sprintf("%s/%s", c.config.PublicBaseURL, objectKey)
	}
	if c.config.EndpointURL != "" {
		return fmt.Sprintf("%s/%s/%s", c.config.EndpointURL, c.config.Bucket, objectKey)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", c.config.Bucket, c.config.Region, objectKey)
}
