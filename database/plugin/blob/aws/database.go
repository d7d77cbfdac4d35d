// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package aws

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/blinklabs-io/etched/database/plugin"
	"github.com/blinklabs-io/etched/database/plugin/blob/objectstore"
	"github.com/blinklabs-io/etched/database/types"
	"github.com/prometheus/client_golang/prometheus"
)

// BlobStoreS3 stores data in an AWS S3 (or S3 compatible) bucket
type BlobStoreS3 struct {
	*objectstore.Store
	promRegistry prometheus.Registerer
	logger       *slog.Logger
	client       *s3.Client
	bucket       string
	prefix       string
	region       string
	endpoint     string
	timeout      time.Duration
	encrypt      bool
}

// New creates and starts an S3-backed blob store. dataDir must be
// "s3://bucket" or "s3://bucket/prefix"
func New(
	dataDir string,
	logger *slog.Logger,
	promRegistry prometheus.Registerer,
) (*BlobStoreS3, error) {
	bucket, keyPrefix, err := ParseDataDir(dataDir)
	if err != nil {
		return nil, err
	}
	d := NewWithOptions(
		WithBucket(bucket),
		WithPrefix(keyPrefix),
		WithLogger(logger),
		WithPromRegistry(promRegistry),
	)
	if err := d.Start(); err != nil {
		return nil, err
	}
	return d, nil
}

// ParseDataDir splits an "s3://bucket[/prefix]" location
func ParseDataDir(dataDir string) (string, string, error) {
	path, ok := strings.CutPrefix(dataDir, "s3://")
	if !ok {
		return "", "", errors.New(
			"s3 blob: expected dataDir='s3://<bucket>[/prefix]'",
		)
	}
	bucket, keyPrefix, _ := strings.Cut(path, "/")
	if bucket == "" {
		return "", "", errors.New("s3 blob: invalid S3 path (missing bucket)")
	}
	keyPrefix = strings.Trim(keyPrefix, "/")
	if keyPrefix != "" {
		keyPrefix += "/"
	}
	return bucket, keyPrefix, nil
}

// NewWithOptions creates an S3-backed blob store without contacting AWS
func NewWithOptions(opts ...BlobStoreS3OptionFunc) *BlobStoreS3 {
	d := &BlobStoreS3{}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// SetLogger implements plugin.Configurable
func (d *BlobStoreS3) SetLogger(logger *slog.Logger) {
	d.logger = logger
}

// SetPromRegistry implements plugin.Configurable
func (d *BlobStoreS3) SetPromRegistry(registry prometheus.Registerer) {
	d.promRegistry = registry
}

// Start implements the plugin.Plugin interface
func (d *BlobStoreS3) Start() error {
	if d.bucket == "" {
		return errors.New("s3 blob: bucket not set")
	}
	if d.logger == nil {
		d.logger = plugin.DiscardLogger()
	}
	timeout := d.timeout
	if timeout == 0 {
		timeout = objectstore.DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return fmt.Errorf("s3 blob: load default AWS config: %w", err)
	}
	if d.region != "" {
		awsCfg.Region = d.region
	}
	d.client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if d.endpoint != "" {
			o.BaseEndpoint = aws.String(d.endpoint)
			// Self-hosted S3 implementations rarely support virtual hosts
			o.UsePathStyle = true
		}
	})
	d.Store = objectstore.NewStore(objectstore.Config{
		Backend:      d,
		Logger:       d.logger,
		PromRegistry: d.promRegistry,
		Name:         "s3",
		Timeout:      timeout,
		Encrypt:      d.encrypt,
	})
	d.logger.Info(
		fmt.Sprintf("using S3 bucket %s", d.bucket),
		"component", "database",
		"prefix", d.prefix,
		"encrypt", d.encrypt,
	)
	return nil
}

// Stop implements the plugin.Plugin interface
func (d *BlobStoreS3) Stop() error {
	return nil
}

// Close implements the BlobStore interface
func (d *BlobStoreS3) Close() error {
	return d.Stop()
}

// Client returns the S3 client
func (d *BlobStoreS3) Client() *s3.Client {
	return d.client
}

func (d *BlobStoreS3) fullKey(key string) string {
	return d.prefix + key
}

func isS3NotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	var noSuchKey *s3types.NoSuchKey
	return errors.As(err, &noSuchKey)
}

// GetObject implements objectstore.Backend
func (d *BlobStoreS3) GetObject(ctx context.Context, key string) ([]byte, error) {
	out, err := d.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(d.fullKey(key)),
	})
	if err != nil {
		if isS3NotFound(err) {
			return nil, types.ErrBlobKeyNotFound
		}
		return nil, err
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

// PutObject implements objectstore.Backend
func (d *BlobStoreS3) PutObject(ctx context.Context, key string, value []byte) error {
	_, err := d.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(d.fullKey(key)),
		Body:   bytes.NewReader(value),
	})
	return err
}

// DeleteObject implements objectstore.Backend
func (d *BlobStoreS3) DeleteObject(ctx context.Context, key string) error {
	_, err := d.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(d.fullKey(key)),
	})
	if err != nil && isS3NotFound(err) {
		return types.ErrBlobKeyNotFound
	}
	return err
}

// ListKeys implements objectstore.Backend
func (d *BlobStoreS3) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(d.bucket),
	}
	if full := d.fullKey(prefix); full != "" {
		input.Prefix = aws.String(full)
	}
	paginator := s3.NewListObjectsV2Paginator(d.client, input)
	keys := make([]string, 0)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Contents {
			keys = append(keys, strings.TrimPrefix(aws.ToString(obj.Key), d.prefix))
		}
	}
	return keys, nil
}

// SignedURL returns a presigned GET URL for an object. Encrypted stores
// cannot hand out direct URLs since the object is a SOPS document.
func (d *BlobStoreS3) SignedURL(key []byte, expires time.Duration) (*url.URL, error) {
	if d.client == nil {
		return nil, types.ErrBlobStoreUnavailable
	}
	if d.encrypt {
		return nil, errors.New("s3: signed URLs unavailable for encrypted store")
	}
	fullKey := d.fullKey(string(key))
	presignClient := s3.NewPresignClient(d.client)
	presigned, err := presignClient.PresignGetObject(
		context.Background(),
		&s3.GetObjectInput{
			Bucket: aws.String(d.bucket),
			Key:    aws.String(fullKey),
		},
		s3.WithPresignExpires(expires),
	)
	if err != nil {
		return nil, fmt.Errorf("s3: failed to generate presigned url: %w", err)
	}
	u, err := url.Parse(presigned.URL)
	if err != nil {
		return nil, fmt.Errorf("s3: failed to parse presigned url: %w", err)
	}
	return u, nil
}
