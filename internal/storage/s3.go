package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"story-backend/internal/apperrors"
	appconfig "story-backend/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

// S3Store keeps story media in an S3 bucket (or any S3 compatible endpoint)
type S3Store struct {
	client        *s3.Client
	bucket        string
	region        string
	publicBaseURL string
}

// NewS3Store creates a new S3 store from the aws config section
func NewS3Store(ctx context.Context, cfg appconfig.AWSConfig) (*S3Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
		o.EndpointOptions.DisableHTTPS = cfg.DisableSSL
	})

	log.Info().
		Str("bucket", cfg.S3Bucket).
		Str("region", cfg.Region).
		Str("endpoint", cfg.Endpoint).
		Msg("S3 store configured")

	return &S3Store{
		client:        client,
		bucket:        cfg.S3Bucket,
		region:        cfg.Region,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
	}, nil
}

// Upload writes an object under key
func (s *S3Store) Upload(ctx context.Context, key, contentType string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return apperrors.Storage("upload "+key, err)
	}
	return nil
}

// Delete removes the object under key. S3 treats a missing key as success,
// which keeps delete-by-key safe to retry.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return apperrors.Storage("delete "+key, err)
	}
	return nil
}

// PublicURL returns the URL clients fetch the object from
func (s *S3Store) PublicURL(key string) string {
	return PublicURL(s.publicBaseURL, s.bucket, s.region, key)
}

// PublicURL builds an object URL: publicBaseURL/key when a base is configured,
// the virtual-hosted AWS URL otherwise.
func PublicURL(publicBaseURL, bucket, region, key string) string {
	if publicBaseURL != "" {
		return publicBaseURL + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", bucket, region, key)
}
