package helpers

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

// NewGCSClient creates a Google Cloud Storage client. If credsPath is empty, ADC is used.
func NewGCSClient(ctx context.Context, credsPath string) (*storage.Client, error) {
	if credsPath == "" {
		return storage.NewClient(ctx)
	}
	return storage.NewClient(ctx, option.WithCredentialsFile(credsPath))
}

const GCSUploadTimeout = 10 * time.Second

// GCSStore uploads objects into a single bucket.
type GCSStore struct {
	Client  *storage.Client
	Bucket  string
	Timeout time.Duration
}

func NewGCSStore(client *storage.Client, bucket string) *GCSStore {
	return &GCSStore{Client: client, Bucket: bucket, Timeout: GCSUploadTimeout}
}

func (s *GCSStore) timeout() time.Duration {
	if s.Timeout > 0 {
		return s.Timeout
	}
	return GCSUploadTimeout
}

// Upload streams r into bucket/objectPath and returns the object's public URL.
func (s *GCSStore) Upload(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error) {
	if s == nil || s.Client == nil || s.Bucket == "" {
		return "", fmt.Errorf("gcs not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout())
	defer cancel()

	wc := s.Client.Bucket(s.Bucket).Object(objectPath).NewWriter(ctx)
	wc.ContentType = contentType
	wc.ChunkSize = 0 // disable chunking for small files
	if _, err := io.Copy(wc, r); err != nil {
		_ = wc.Close()
		return "", err
	}
	if err := wc.Close(); err != nil {
		return "", err
	}
	return PublicURL(s.Bucket, objectPath), nil
}

// OfferImagePath builds a unique object path for an offer image, keeping the file extension.
func OfferImagePath(offerID, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return path.Join("offers", offerID, uuid.NewString()+ext)
}

// PublicURL builds a public URL for an object (assuming public read access or signed URLs)
func PublicURL(bucket, objectPath string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, objectPath)
}
