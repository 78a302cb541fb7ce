// Package storage keeps uploaded poster images on the local filesystem.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/streaming-catalog/internal/model"
)

// ErrInvalidID is returned for ids that would resolve outside the base dir.
var ErrInvalidID = errors.New("invalid image id")

// FilesystemImageStore writes images under baseDir and serves them from
// publicPrefix (e.g. "http://localhost:5000/uploads").  The image id is the
// path relative to baseDir.
type FilesystemImageStore struct {
	baseDir      string
	publicPrefix string
}

func NewFilesystemImageStore(baseDir, publicPrefix string) (*FilesystemImageStore, error) {
	// Ensure base dir exists
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &FilesystemImageStore{baseDir: baseDir, publicPrefix: strings.TrimRight(publicPrefix, "/")}, nil
}

// Dir is the directory served as static files.
func (s *FilesystemImageStore) Dir() string { return s.baseDir }

// Save streams body into folder under a fresh random name.
func (s *FilesystemImageStore) Save(ctx context.Context, folder string, body io.Reader, ext string) (model.Image, error) {
	if err := ctx.Err(); err != nil {
		return model.Image{}, err
	}
	id := filepath.ToSlash(filepath.Join(folder, uuid.NewString()+strings.ToLower(ext)))
	fullPath, err := s.resolve(id)
	if err != nil {
		return model.Image{}, err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return model.Image{}, err
	}

	out, err := os.OpenFile(fullPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return model.Image{}, err
	}
	if _, err := io.Copy(out, body); err != nil {
		_ = out.Close()
		_ = os.Remove(fullPath)
		return model.Image{}, err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(fullPath)
		return model.Image{}, err
	}
	return model.Image{URL: s.publicPrefix + "/" + id, ID: id}, nil
}

// Delete removes an image.  A missing file is not an error.
func (s *FilesystemImageStore) Delete(_ context.Context, id string) error {
	fullPath, err := s.resolve(id)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *FilesystemImageStore) resolve(id string) (string, error) {
	if id == "" || filepath.IsAbs(id) {
		return "", ErrInvalidID
	}
	clean := filepath.Clean(filepath.FromSlash(id))
	if clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", ErrInvalidID
	}
	return filepath.Join(s.baseDir, clean), nil
}
