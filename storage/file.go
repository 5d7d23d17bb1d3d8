package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/svlns-gdc/journal-backend/interfaces"
)

// FileConnector stores artifacts on the local file system. It serves as
// the development and test backend and as a last-resort local mirror.
type FileConnector struct {
	baseDir     string
	log         *slog.Logger
	locationURI string
}

// NewFileConnector creates a file system connector rooted at baseDir,
// creating the directory if needed.
func NewFileConnector(baseDir string, log *slog.Logger) (*FileConnector, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &FileConnector{
		baseDir:     baseDir,
		log:         log,
		locationURI: fmt.Sprintf("file://%s", baseDir),
	}, nil
}

// Upload writes the payload under the base directory and returns a
// file:// URL. Re-uploading the same filename overwrites in place.
func (c *FileConnector) Upload(ctx context.Context, filename string, data []byte) (string, error) {
	path := filepath.Join(c.baseDir, filepath.Clean("/"+filename))

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	c.log.Debug("Stored content in file",
		slog.String("path", path),
		slog.Int("size", len(data)))

	return "file://" + path, nil
}

// Fetch reads the payload behind a file:// URL. Paths outside the base
// directory are rejected.
func (c *FileConnector) Fetch(ctx context.Context, url string) ([]byte, error) {
	path := filepath.Clean(strings.TrimPrefix(url, "file://"))

	rel, err := filepath.Rel(c.baseDir, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil, interfaces.ErrContentNotFound
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, interfaces.ErrContentNotFound
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}

// Probe checks that the base directory still exists.
func (c *FileConnector) Probe(ctx context.Context) bool {
	if _, err := os.Stat(c.baseDir); err != nil {
		c.log.Debug("File connector unavailable", "err", err)
		return false
	}
	return true
}

// Type returns the provider type tag.
func (c *FileConnector) Type() interfaces.ProviderType {
	return interfaces.ProviderFile
}

// Name returns an identifier for logging.
func (c *FileConnector) Name() string {
	return fmt.Sprintf("file-%s", filepath.Base(c.baseDir))
}

// LocationURI returns the URI identifying this connector's target.
func (c *FileConnector) LocationURI() string {
	return c.locationURI
}
