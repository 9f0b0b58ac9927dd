package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type CloudflareR2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicBaseURL   string
}

type cloudflareR2Store struct {
	s3Client      *s3.Client
	presigner     *s3.PresignClient
	bucketName    string
	publicBaseURL string
	logger        *slog.Logger
}

func NewCloudflareR2Store(ctx context.Context, cfg CloudflareR2Config, logger *slog.Logger) (ImageStore, error) {
	if cfg.AccountID == "" || cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" || cfg.BucketName == "" || cfg.PublicBaseURL == "" {
		return nil, errors.New("invalid Cloudflare R2 configuration: all fields are required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	r2Resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		return aws.Endpoint{
			URL:           fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID),
			SigningRegion: "auto", // R2 подписывается с регионом auto
		}, nil
	})

	sdkCfg, err := config.LoadDefaultConfig(ctx,
		config.WithEndpointResolverWithOptions(r2Resolver),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
		config.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS SDK config for R2: %w", err)
	}

	s3Client := s3.NewFromConfig(sdkCfg)

	return &cloudflareR2Store{
		s3Client:      s3Client,
		presigner:     s3.NewPresignClient(s3Client),
		bucketName:    cfg.BucketName,
		publicBaseURL: cfg.PublicBaseURL,
		logger:        logger,
	}, nil
}

func (s *cloudflareR2Store) PresignUpload(ctx context.Context, key, contentType string, expires time.Duration) (*PresignedUpload, error) {
	req, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(expires))
	if err != nil {
		return nil, fmt.Errorf("failed to presign upload to R2 (key: %s): %w", key, err)
	}

	return &PresignedUpload{
		Key:         key,
		URL:         req.URL,
		ContentType: contentType,
		PublicURL:   s.GetPublicURL(key),
	}, nil
}

func (s *cloudflareR2Store) Delete(ctx context.Context, key string) error {
	_, err := s.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object from R2 (key: %s): %w", key, err)
	}
	return nil
}

func (s *cloudflareR2Store) GetPublicURL(key string) string {
	u, err := PublicURL(s.publicBaseURL, key)
	if err != nil {
		s.logger.Warn("failed to build public url", slog.String("key", key), slog.Any("error", err))
		return ""
	}
	return u
}

// PublicURL joins the bucket's public base URL and an object key.
func PublicURL(baseURL, key string) (string, error) {
	if baseURL == "" || key == "" {
		return "", nil
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid public base url %q: %w", baseURL, err)
	}
	return base.JoinPath(strings.TrimPrefix(key, "/")).String(), nil
}
