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

package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/blinklabs-io/etched/database/plugin"
	"github.com/blinklabs-io/etched/database/plugin/blob/objectstore"
	"github.com/blinklabs-io/etched/database/types"
	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// BlobStoreGCS stores data in a Google Cloud Storage bucket
type BlobStoreGCS struct {
	*objectstore.Store
	promRegistry    prometheus.Registerer
	logger          *slog.Logger
	client          *storage.Client
	bucket          *storage.BucketHandle
	bucketName      string
	credentialsFile string
	timeout         time.Duration
	encrypt         bool
}

// New creates and starts a GCS-backed blob store. dataDir must be
// "gcs://bucket"
func New(
	dataDir string,
	logger *slog.Logger,
	promRegistry prometheus.Registerer,
) (*BlobStoreGCS, error) {
	bucketName, _ := strings.CutPrefix(dataDir, "gcs://")
	if bucketName == "" || bucketName == dataDir {
		return nil, errors.New(
			"gcs blob: bucket not set (expected dataDir='gcs://<bucket>')",
		)
	}
	d := NewWithOptions(
		WithBucket(bucketName),
		WithLogger(logger),
		WithPromRegistry(promRegistry),
	)
	if err := d.Start(); err != nil {
		return nil, err
	}
	return d, nil
}

// NewWithOptions creates a GCS-backed blob store without contacting GCS
func NewWithOptions(opts ...BlobStoreGCSOptionFunc) *BlobStoreGCS {
	d := &BlobStoreGCS{}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// ValidateCredentials checks that a configured credentials file exists
func ValidateCredentials(credentialsFile string) error {
	if credentialsFile == "" {
		return nil
	}
	if _, err := os.Stat(credentialsFile); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf(
				"GCS credentials file does not exist: %s",
				credentialsFile,
			)
		}
		return fmt.Errorf("failed to read GCS credentials file: %w", err)
	}
	return nil
}

// SetLogger implements plugin.Configurable
func (d *BlobStoreGCS) SetLogger(logger *slog.Logger) {
	d.logger = logger
}

// SetPromRegistry implements plugin.Configurable
func (d *BlobStoreGCS) SetPromRegistry(registry prometheus.Registerer) {
	d.promRegistry = registry
}

// Start implements the plugin.Plugin interface
func (d *BlobStoreGCS) Start() error {
	if d.bucketName == "" {
		return errors.New("gcs blob: bucket not set")
	}
	if err := ValidateCredentials(d.credentialsFile); err != nil {
		return err
	}
	if d.logger == nil {
		d.logger = plugin.DiscardLogger()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	clientOpts := []option.ClientOption{
		storage.WithDisabledClientMetrics(),
	}
	if d.credentialsFile != "" {
		clientOpts = append(
			clientOpts,
			option.WithCredentialsFile(d.credentialsFile),
		)
	}
	client, err := storage.NewGRPCClient(ctx, clientOpts...)
	if err != nil {
		return fmt.Errorf(
			"gcs blob: failed in creating storage client: %w",
			err,
		)
	}
	d.client = client
	d.bucket = client.Bucket(d.bucketName)
	d.Store = objectstore.NewStore(objectstore.Config{
		Backend:      d,
		Logger:       d.logger,
		PromRegistry: d.promRegistry,
		Name:         "gcs",
		Timeout:      d.timeout,
		Encrypt:      d.encrypt,
	})
	d.logger.Info(
		fmt.Sprintf("using GCS bucket %s", d.bucketName),
		"component", "database",
		"encrypt", d.encrypt,
	)
	return nil
}

// Stop implements the plugin.Plugin interface
func (d *BlobStoreGCS) Stop() error {
	return d.Close()
}

// Close closes the GCS client
func (d *BlobStoreGCS) Close() error {
	if d.client == nil {
		return nil
	}
	err := d.client.Close()
	d.client = nil
	return err
}

// Client returns the GCS client
func (d *BlobStoreGCS) Client() *storage.Client {
	return d.client
}

// GetObject implements objectstore.Backend
func (d *BlobStoreGCS) GetObject(ctx context.Context, key string) ([]byte, error) {
	r, err := d.bucket.Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, types.ErrBlobKeyNotFound
		}
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// PutObject implements objectstore.Backend
func (d *BlobStoreGCS) PutObject(ctx context.Context, key string, value []byte) error {
	w := d.bucket.Object(key).NewWriter(ctx)
	if _, err := w.Write(value); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

// DeleteObject implements objectstore.Backend
func (d *BlobStoreGCS) DeleteObject(ctx context.Context, key string) error {
	err := d.bucket.Object(key).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return types.ErrBlobKeyNotFound
	}
	return err
}

// ListKeys implements objectstore.Backend
func (d *BlobStoreGCS) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	it := d.bucket.Objects(ctx, &storage.Query{Prefix: prefix})
	keys := make([]string, 0)
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		keys = append(keys, attrs.Name)
	}
	return keys, nil
}

// SignedURL returns a V4 signed GET URL for an object
func (d *BlobStoreGCS) SignedURL(key []byte, expires time.Duration) (*url.URL, error) {
	if d.bucket == nil {
		return nil, types.ErrBlobStoreUnavailable
	}
	if d.encrypt {
		return nil, errors.New("gcs: signed URLs unavailable for encrypted store")
	}
	signed, err := d.bucket.SignedURL(
		string(key),
		&storage.SignedURLOptions{
			Method:  http.MethodGet,
			Expires: time.Now().Add(expires),
			Scheme:  storage.SigningSchemeV4,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("gcs: failed to sign url: %w", err)
	}
	return url.Parse(signed)
}
