package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/spec-kit/maintenance-service/pkg/util"
)

// FileStore persists uploaded problem images. The core never inspects
// file contents; it only keeps the returned references on the ticket.
type FileStore interface {
	Save(ctx context.Context, fileName string, data []byte) (string, error)
	Delete(ctx context.Context, reference string) error
}

var allowedExtensions = map[string]struct{}{
	".png": {}, ".jpg": {}, ".jpeg": {}, ".gif": {},
}

// DiskStore stores files under a local uploads directory with
// timestamped unique names.
type DiskStore struct {
	dir     string
	maxSize int64
}

// NewDiskStore creates the uploads directory if needed.
func NewDiskStore(dir string, maxSize int64) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads dir: %w", err)
	}
	return &DiskStore{dir: dir, maxSize: maxSize}, nil
}

// Save writes the file and returns its reference (the stored name).
func (s *DiskStore) Save(ctx context.Context, fileName string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	if _, ok := allowedExtensions[ext]; !ok {
		return "", apperrors.NewValidationError("unsupported file type", map[string]any{"file_name": fileName})
	}
	if s.maxSize > 0 && int64(len(data)) > s.maxSize {
		return "", apperrors.NewValidationError("file too large", map[string]any{"file_name": fileName})
	}
	name := time.Now().UTC().Format("20060102_150405") + "_" + uuid.NewString()[:8] + ext
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	return name, nil
}

// Delete removes a stored file. A missing file is not an error; the
// reference may already have been cleaned up.
func (s *DiskStore) Delete(ctx context.Context, reference string) error {
	// reject path traversal in stored references
	if reference != filepath.Base(reference) {
		return apperrors.NewValidationError("invalid file reference", map[string]any{"reference": reference})
	}
	err := os.Remove(filepath.Join(s.dir, reference))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
