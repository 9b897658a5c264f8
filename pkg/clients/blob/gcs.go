package blob

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/mamadbah2/pettycash/internal/config"
	"github.com/mamadbah2/pettycash/internal/domain/models"
)

const defaultPublicBase = "https://storage.googleapis.com"

// GCSStore writes invoice and transfer documents to a Cloud Storage bucket.
// Writes to an existing key replace the object.
type GCSStore struct {
	client     *storage.Client
	bucket     string
	publicBase string
	logger     *zap.Logger
}

// NewGCSStore opens a storage client. Explicit JSON credentials win over
// application default credentials.
func NewGCSStore(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (*GCSStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Bucket == "" {
		return nil, errors.New("GCS_BUCKET is required")
	}

	var opts []option.ClientOption
	if strings.TrimSpace(cfg.CredentialsJSON) != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage client: %w", err)
	}

	base := strings.TrimSuffix(cfg.PublicBaseURL, "/")
	if base == "" {
		base = defaultPublicBase
	}

	return &GCSStore{client: client, bucket: cfg.Bucket, publicBase: base, logger: logger}, nil
}

// Put uploads data under key. ViewURL carries the object generation so
// browsers never show a cached copy of a replaced scan.
func (s *GCSStore) Put(ctx context.Context, key string, data []byte, contentType string) (models.BlobRef, error) {
	if key == "" || strings.Contains(key, "..") || strings.HasPrefix(key, "/") {
		return models.BlobRef{}, fmt.Errorf("invalid object key %q", key)
	}

	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = "no-cache, max-age=0"

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return models.BlobRef{}, fmt.Errorf("upload %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return models.BlobRef{}, fmt.Errorf("finalize upload %s: %w", key, err)
	}

	url := s.URL(key)
	ref := models.BlobRef{Key: key, URL: url, ViewURL: url}
	if attrs := w.Attrs(); attrs != nil {
		ref.ViewURL = url + "?generation=" + strconv.FormatInt(attrs.Generation, 10)
	}

	s.logger.Debug("object uploaded", zap.String("key", key), zap.Int("bytes", len(data)))
	return ref, nil
}

// Delete removes an object; a missing object is not an error.
func (s *GCSStore) Delete(ctx context.Context, key string) error {
	err := s.client.Bucket(s.bucket).Object(key).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// URL is the public address of key.
func (s *GCSStore) URL(key string) string {
	return fmt.Sprintf("%s/%s/%s", s.publicBase, s.bucket, key)
}

// Close releases the storage client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}
