package filestorage

import "io"

// FileInfo represents information about a stored file
type FileInfo struct {
	Path     string // Path on disk
	URL      string // URL under which the file is served
	FileSize int64  // Size in bytes
}

// FileStorage defines the interface for storing generated files such as
// verification reports
type FileStorage interface {
	// SaveFile writes content under subPath/name, replacing any older file
	SaveFile(subPath, name string, content io.Reader) (*FileInfo, error)

	// DeleteFile removes a file given its URL
	DeleteFile(fileURL string) error

	// GetFullPath returns the full filesystem path for a given file URL
	GetFullPath(fileURL string) string
}
