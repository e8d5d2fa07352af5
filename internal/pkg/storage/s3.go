package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Config for the S3-compatible object store holding item images
type Config struct {
	Endpoint        string // empty for AWS S3 proper
	Region          string
	AccessKeyID     string
	AccessKeySecret string
	BucketName      string
	PublicURL       string // CDN URL prefix
}

// Store uploads item images to an S3-compatible bucket
type Store struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

// New creates an image store.
// Returns nil if config is incomplete (uploads disabled).
func New(cfg Config) *Store {
	if cfg.AccessKeyID == "" || cfg.AccessKeySecret == "" || cfg.BucketName == "" {
		log.Warn().Msg("Object storage config incomplete, image uploads disabled")
		return nil
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.AccessKeySecret,
			"",
		)),
		awsconfig.WithRegion(cfg.Region),
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create object storage client config")
		return nil
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	publicURL := cfg.PublicURL
	if publicURL == "" {
		publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.BucketName, cfg.Region)
	}

	log.Info().Str("bucket", cfg.BucketName).Str("public_url", publicURL).Msg("Object storage initialized")

	return &Store{
		client:    client,
		bucket:    cfg.BucketName,
		publicURL: strings.TrimSuffix(publicURL, "/"),
	}
}

// Enabled reports whether uploads are configured
func (s *Store) Enabled() bool {
	return s != nil
}

// AllowedImageTypes for validation
var AllowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

// MaxFileSize in bytes (10MB)
const MaxFileSize = 10 * 1024 * 1024

// Put stores an object and returns its public URL.
// Keys are namespaced per user: items/2025/09/{user}/{random}{ext}
func (s *Store) Put(ctx context.Context, userID uuid.UUID, ext string, contentType string, data []byte) (string, error) {
	if s == nil {
		return "", fmt.Errorf("object storage not configured")
	}

	key := fmt.Sprintf("items/%s/%s/%s%s",
		time.Now().Format("2006/01"),
		userID.String(),
		uuid.New().String(),
		ext,
	)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}

	return fmt.Sprintf("%s/%s", s.publicURL, key), nil
}

// Delete removes an object by its public URL. Unknown URLs are ignored.
func (s *Store) Delete(ctx context.Context, publicURL string) error {
	if s == nil {
		return nil
	}
	key := strings.TrimPrefix(publicURL, s.publicURL+"/")
	if key == publicURL {
		return nil
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	return err
}
