// Package storage keeps uploaded job files (sliced model files) on the
// local filesystem under a single base directory.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

var (
	ErrDisallowedExtension = errors.New("file extension not allowed")
	ErrUnsafeFilename      = errors.New("filename escapes upload directory")
)

// allowedExtensions are the upload types the lab accepts.
var allowedExtensions = map[string]bool{
	".gcode":  true,
	".bgcode": true,
	".stl":    true,
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// UploadStore stores job files under baseDir with sanitized names.
type UploadStore struct {
	baseDir string
	logger  *zap.Logger
}

// NewUploadStore creates the base directory if needed.
func NewUploadStore(baseDir string, logger *zap.Logger) (*UploadStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &UploadStore{baseDir: baseDir, logger: logger}, nil
}

// Save writes an upload and returns the stored (sanitized) filename.
func (s *UploadStore) Save(filename string, content []byte) (string, error) {
	name, err := s.safeName(filename)
	if err != nil {
		return "", err
	}

	fullPath := filepath.Join(s.baseDir, name)
	if err := os.WriteFile(fullPath, content, 0644); err != nil {
		s.logger.Error("Failed to write upload",
			zap.String("path", fullPath), zap.Error(err))
		return "", fmt.Errorf("failed to write upload: %w", err)
	}

	s.logger.Debug("Upload saved",
		zap.String("name", name), zap.Int("size", len(content)))
	return name, nil
}

// Path resolves a stored filename for download, rejecting traversal.
func (s *UploadStore) Path(filename string) (string, error) {
	name, err := s.safeName(filename)
	if err != nil {
		return "", err
	}
	fullPath := filepath.Join(s.baseDir, name)
	if _, err := os.Stat(fullPath); err != nil {
		return "", fmt.Errorf("upload not found: %w", err)
	}
	return fullPath, nil
}

// safeName sanitizes a client-supplied filename: base name only, shell
// and path metacharacters collapsed, extension allow-listed.
func (s *UploadStore) safeName(filename string) (string, error) {
	name := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	name = unsafeChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if name == "" {
		return "", ErrUnsafeFilename
	}
	ext := strings.ToLower(filepath.Ext(name))
	if !allowedExtensions[ext] {
		return "", fmt.Errorf("%w: %s", ErrDisallowedExtension, ext)
	}
	return name, nil
}
