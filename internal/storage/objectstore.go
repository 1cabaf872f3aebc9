// Package storage uploads menu photos to an S3-compatible bucket so that
// saved sessions can reference their source images by URL.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"menulens.app/menu-digitalizer/internal/config"
)

type ObjectStore struct {
	client  *s3.Client
	bucket  string
	baseURL string
}

// NewObjectStoreFromConfig builds the uploader from the R2_* settings.
// Returns (nil, nil) when no endpoint is configured; image uploads are
// optional and the rest of the pipeline does not depend on them.
func NewObjectStoreFromConfig(ctx context.Context) (*ObjectStore, error) {
	cfg := config.AppConfig
	if cfg.R2Endpoint == "" {
		return nil, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(
		ctx,
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.R2AccessKey, cfg.R2SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load object storage config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.R2Endpoint)
	})

	return &ObjectStore{
		client:  client,
		bucket:  cfg.R2Bucket,
		baseURL: strings.TrimSuffix(cfg.R2PublicBaseURL, "/"),
	}, nil
}

// UploadImage stores the image bytes under key and returns its public URL.
func (o *ObjectStore) UploadImage(ctx context.Context, key, contentType string, data []byte) (string, error) {
	_, err := o.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &o.bucket,
		Key:         &key,
		Body:        bytes.NewReader(data),
		ContentType: &contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload image %s: %w", key, err)
	}

	if o.baseURL != "" {
		return fmt.Sprintf("%s/%s", o.baseURL, key), nil
	}
	return fmt.Sprintf("https://%s/%s", o.bucket, key), nil
}
