package filestorage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/yigit/sqlguide/internal/pkg/logger"
)

// LocalStorage handles saving files to the local filesystem.
type LocalStorage struct {
	basePath string // The root directory where files will be stored
	baseURL  string // The URL prefix the directory is served under
}

// NewLocalStorage creates a new LocalStorage instance.
// basePath is the required directory path on the server.
// baseURL is the prefix returned file URLs start with, e.g. "/reports".
func NewLocalStorage(basePath, baseURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		logger.Error().Err(err).Str("path", basePath).Msg("Failed to create storage directory")
		return nil, fmt.Errorf("failed to create storage directory %s: %w", basePath, err)
	}
	logger.Debug().Str("path", basePath).Msg("Local storage directory ensured")

	return &LocalStorage{
		basePath: basePath,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}, nil
}

// BasePath returns the storage root
func (ls *LocalStorage) BasePath() string {
	return ls.basePath
}

// SaveFile writes content to a temporary file and renames it into place,
// so readers never see a partial report.
func (ls *LocalStorage) SaveFile(subPath, name string, content io.Reader) (*FileInfo, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return nil, fmt.Errorf("invalid file name %q", name)
	}
	if strings.Contains(subPath, "..") {
		return nil, fmt.Errorf("invalid sub path %q", subPath)
	}

	fullDirPath := filepath.Join(ls.basePath, filepath.FromSlash(subPath))
	if err := os.MkdirAll(fullDirPath, 0o755); err != nil {
		logger.Error().Err(err).Str("path", fullDirPath).Msg("Failed to create subdirectory")
		return nil, fmt.Errorf("failed to create subdirectory: %w", err)
	}

	tmp, err := os.CreateTemp(fullDirPath, "."+name+".*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	size, err := io.Copy(tmp, content)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		logger.Error().Err(err).Str("path", tmp.Name()).Msg("Failed to write file content")
		return nil, fmt.Errorf("failed to save file content: %w", err)
	}

	dstPath := filepath.Join(fullDirPath, name)
	if err := os.Rename(tmp.Name(), dstPath); err != nil {
		return nil, fmt.Errorf("failed to move file into place: %w", err)
	}

	info := &FileInfo{
		Path:     dstPath,
		URL:      path.Join("/", ls.baseURL, subPath, name),
		FileSize: size,
	}
	if ls.baseURL == "" {
		info.URL = path.Join(subPath, name)
	}
	logger.Debug().Str("path", dstPath).Int64("size", size).Msg("File saved successfully")
	return info, nil
}

// GetFullPath returns the full filesystem path for a given file URL
func (ls *LocalStorage) GetFullPath(fileURL string) string {
	rel := strings.TrimPrefix(fileURL, ls.baseURL)
	rel = strings.TrimPrefix(rel, "/")
	return filepath.Join(ls.basePath, filepath.FromSlash(rel))
}

// DeleteFile removes a file from storage. Missing files are not an error.
func (ls *LocalStorage) DeleteFile(fileURL string) error {
	fullPath := ls.GetFullPath(fileURL)
	if err := os.Remove(fullPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Error().Err(err).Str("path", fullPath).Msg("Failed to delete file")
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}
