// Package local stores exports in a directory on the local filesystem.
package local

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"docanalyst/internal/port"
)

// ErrKeyOutsideRoot is returned for keys that would resolve outside the root.
var ErrKeyOutsideRoot = errors.New("object key escapes storage root")

type dirStore struct {
	root string
}

// NewDirStore creates an ObjectStorage rooted at dir. Buckets become
// sub-directories; an empty bucket writes directly under dir.
func NewDirStore(dir string) (port.ObjectStorage, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving export dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("creating export dir: %w", err)
	}
	return &dirStore{root: abs}, nil
}

func (s *dirStore) path(bucket, key string) (string, error) {
	p := filepath.Join(s.root, bucket, filepath.FromSlash(key))
	if p == s.root || !strings.HasPrefix(p, s.root+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrKeyOutsideRoot, key)
	}
	return p, nil
}

func (s *dirStore) Upload(ctx context.Context, input port.UploadInput) (*port.UploadOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dst, err := s.path(input.Bucket, input.Key)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return nil, fmt.Errorf("local upload: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return nil, fmt.Errorf("local upload: %w", err)
	}
	defer os.Remove(tmp.Name())

	h := md5.New()
	if _, err := io.Copy(io.MultiWriter(tmp, h), input.Body); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("local upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("local upload: %w", err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return nil, fmt.Errorf("local upload: %w", err)
	}

	return &port.UploadOutput{
		Location: dst,
		ETag:     `"` + hex.EncodeToString(h.Sum(nil)) + `"`,
	}, nil
}

func (s *dirStore) Delete(_ context.Context, bucket, key string) error {
	p, err := s.path(bucket, key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("local delete: %w", err)
	}
	return nil
}

// GetPresignedURL returns a file:// URL; local files carry no expiry.
func (s *dirStore) GetPresignedURL(_ context.Context, bucket, key string, _ int64) (string, error) {
	p, err := s.path(bucket, key)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(p); err != nil {
		return "", fmt.Errorf("local presign: %w", err)
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(p)}).String(), nil
}
