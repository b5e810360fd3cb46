package catalog

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// validator checks ingestion inputs before any parsing starts
type validator struct{}

// newValidator creates a new validator instance
func newValidator() *validator {
	return &validator{}
}

// validatePath validates a single file or directory path
func (v *validator) validatePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("path cannot be empty")
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return fmt.Errorf("failed to stat path %s: %w", path, err)
	}

	// For files, check if they are supported
	if !info.IsDir() && !isSupportedFile(path) {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	return nil
}

// validateReader validates a reader input
func (v *validator) validateReader(reader io.Reader, tableName string, fileType FileType) error {
	if reader == nil {
		return errors.New("reader cannot be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return errors.New("table name must be specified for reader input")
	}
	if fileType == FileTypeUnsupported {
		return fmt.Errorf("%w: file type must be specified for reader input", ErrUnsupportedFormat)
	}

	// Peek only where it does not consume the reader
	if stringReader, ok := reader.(*strings.Reader); ok && stringReader.Len() == 0 {
		return fmt.Errorf("%w: empty %s data", ErrEmptyData, fileType)
	}
	return nil
}

// validateCollected reports an error when no input file survived collection
func (v *validator) validateCollected(collectedPaths, originalPaths []string) error {
	if len(collectedPaths) > 0 {
		return nil
	}
	for _, path := range originalPaths {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			return fmt.Errorf("%w: no supported files found in directory", ErrEmptyData)
		}
	}
	return fmt.Errorf("%w: no valid input files found", ErrEmptyData)
}
