package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// fileCollector expands ingestion paths into the list of files to parse
type fileCollector struct {
	validator *validator
}

// newFileCollector creates a new file collector instance
func newFileCollector() *fileCollector {
	return &fileCollector{
		validator: newValidator(),
	}
}

// collect validates and collects all files from the given paths.
// Directories are walked recursively; unsupported files inside them are skipped,
// while an unsupported file named explicitly is an error. When both "x.csv" and
// "x.csv.gz" are found in the same directory only the uncompressed file is kept.
func (fc *fileCollector) collect(paths []string) ([]string, error) {
	var collectedPaths []string
	processedFiles := make(map[string]bool)

	for _, path := range paths {
		if err := fc.validator.validatePath(path); err != nil {
			return nil, err
		}

		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("failed to stat path %s: %w", path, err)
		}

		if info.IsDir() {
			dirFiles, err := fc.collectFromDirectory(path, processedFiles)
			if err != nil {
				return nil, err
			}
			collectedPaths = append(collectedPaths, dirFiles...)
			continue
		}
		if err := fc.addSingleFile(path, processedFiles, &collectedPaths); err != nil {
			return nil, err
		}
	}

	if err := fc.validator.validateCollected(collectedPaths, paths); err != nil {
		return nil, err
	}
	return collectedPaths, nil
}

// collectFromDirectory recursively collects all supported files from a directory
func (fc *fileCollector) collectFromDirectory(dirPath string, processedFiles map[string]bool) ([]string, error) {
	var found []string

	err := filepath.WalkDir(dirPath, func(filePath string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isSupportedFile(filePath) {
			return nil
		}
		absPath, err := filepath.Abs(filePath)
		if err != nil {
			return fmt.Errorf("failed to get absolute path for %s: %w", filePath, err)
		}
		if !processedFiles[absPath] {
			processedFiles[absPath] = true
			found = append(found, filePath)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory %s: %w", dirPath, err)
	}

	return deduplicateCompressedFiles(found), nil
}

// addSingleFile adds a single file to the collected paths
func (fc *fileCollector) addSingleFile(filePath string, processedFiles map[string]bool, collectedPaths *[]string) error {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for %s: %w", filePath, err)
	}
	if !processedFiles[absPath] {
		processedFiles[absPath] = true
		*collectedPaths = append(*collectedPaths, filePath)
	}
	return nil
}

// deduplicateCompressedFiles removes compressed files when their uncompressed versions exist
// in the same directory. The result is sorted by path.
func deduplicateCompressedFiles(files []string) []string {
	uncompressed := make(map[string]bool)
	for _, file := range files {
		if detectCompressionType(file) == CompressionNone {
			uncompressed[file] = true
		}
	}

	result := make([]string, 0, len(files))
	for _, file := range files {
		if detectCompressionType(file) != CompressionNone && uncompressed[removeCompressionExtension(file)] {
			continue
		}
		result = append(result, file)
	}
	sort.Strings(result)
	return result
}
