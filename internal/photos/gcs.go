package photos

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSStore stores photos in a Google Cloud Storage bucket. Credentials come
// from Application Default Credentials unless overridden by client options.
type GCSStore struct {
	client *storage.Client
	bucket string
}

// NewGCSStore connects to the given bucket.
func NewGCSStore(ctx context.Context, bucket string, opts ...option.ClientOption) (*GCSStore, error) {
	if bucket == "" {
		return nil, fmt.Errorf("bucket is required")
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return &GCSStore{client: client, bucket: bucket}, nil
}

func (s *GCSStore) object(ref string) *storage.ObjectHandle {
	return s.client.Bucket(s.bucket).Object(ref)
}

// Upload stores the photo and returns its reference.
func (s *GCSStore) Upload(ctx context.Context, area Area, name string, r io.Reader) (string, error) {
	ref := Ref(area, name)

	w := s.object(ref).NewWriter(ctx)
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("failed to write photo %s: %w", ref, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize photo %s: %w", ref, err)
	}
	return ref, nil
}

// Download returns the photo bytes for a reference.
func (s *GCSStore) Download(ctx context.Context, ref string) ([]byte, error) {
	rc, err := s.object(ref).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open photo %s: %w", ref, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read photo %s: %w", ref, err)
	}
	return data, nil
}

// Move copies the photo into another area and deletes the source.
func (s *GCSStore) Move(ctx context.Context, ref string, area Area) (string, error) {
	dst := Rehome(ref, area)
	if dst == ref {
		return ref, nil
	}

	if _, err := s.object(dst).CopierFrom(s.object(ref)).Run(ctx); err != nil {
		return "", fmt.Errorf("failed to copy photo %s: %w", ref, err)
	}
	if err := s.Delete(ctx, ref); err != nil {
		return "", err
	}
	return dst, nil
}

// Delete removes the photo. An absent reference is a no-op.
func (s *GCSStore) Delete(ctx context.Context, ref string) error {
	err := s.object(ref).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("failed to delete photo %s: %w", ref, err)
	}
	return nil
}

// Close releases the underlying client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}

var _ Store = (*GCSStore)(nil)
