// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package media stores user-uploaded binary assets.

Core Responsibilities:

  - Storage: Persists processed assets to S3-compatible object storage.
  - Processing: Normalizes avatar uploads to a fixed-size JPEG.
  - Addressing: Returns stable public URLs for stored objects.

The Storage interface keeps the account service independent of the concrete
backend; tests substitute an in-memory implementation.
*/
package media

import (
	"bytes"
	stdctx "context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Storage persists a processed asset and returns its public URL.
type Storage interface {
	Put(context stdctx.Context, key string, contentType string, payload []byte) (string, error)
}

// S3Storage is the production Storage backed by S3-compatible object storage.
type S3Storage struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

// S3Config carries the settings needed to reach the object store.
type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string // non-empty for MinIO and other S3-compatible stores
	AccessKey string
	SecretKey string
	PublicURL string // base URL assets are served from, without trailing slash
}

// NewS3Storage builds the S3 client.
//
// When Endpoint is set, path-style addressing is enabled so MinIO-style
// deployments resolve buckets correctly.
func NewS3Storage(context stdctx.Context, config S3Config) (*S3Storage, error) {
	options := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(config.Region),
	}
	if config.AccessKey != "" {
		options = append(options, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(config.AccessKey, config.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context, options...)
	if err != nil {
		return nil, fmt.Errorf("media: load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if config.Endpoint != "" {
			o.BaseEndpoint = aws.String(config.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Storage{
		client:    client,
		bucket:    config.Bucket,
		publicURL: strings.TrimSuffix(config.PublicURL, "/"),
	}, nil
}

// Put implements Storage.
func (s *S3Storage) Put(context stdctx.Context, key string, contentType string, payload []byte) (string, error) {
	_, err := s.client.PutObject(context, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
		Body:        bytes.NewReader(payload),
	})
	if err != nil {
		return "", fmt.Errorf("media: put %q: %w", key, err)
	}

	return fmt.Sprintf("%s/%s", s.publicURL, key), nil
}
