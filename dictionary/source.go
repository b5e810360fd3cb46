package dictionary

import (
	"context"
	"errors"
	"fmt"

	"github.com/nao1215/catalog"
	"github.com/nao1215/catalog/domain/model"
)

// Source provides data dictionary entries.
type Source interface {
	// Entries returns every dictionary entry, grouped by table.
	Entries(ctx context.Context) ([]model.DictionaryEntry, error)
}

// FileSource reads a dictionary from a file in any format the ingestor supports.
type FileSource struct {
	path     string
	ingestor *catalog.Ingestor
}

// NewFileSource creates a FileSource. A nil ingestor means catalog.NewIngestor defaults.
func NewFileSource(path string, ingestor *catalog.Ingestor) (*FileSource, error) {
	if path == "" {
		return nil, errors.New("dictionary path cannot be empty")
	}
	if ingestor == nil {
		var err error
		if ingestor, err = catalog.NewIngestor(); err != nil {
			return nil, err
		}
	}
	return &FileSource{path: path, ingestor: ingestor}, nil
}

// Entries implements Source.
func (s *FileSource) Entries(ctx context.Context) ([]model.DictionaryEntry, error) {
	sample, err := s.ingestor.ReadFile(ctx, s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dictionary: %w", err)
	}
	entries, err := catalog.DictionaryFromSample(sample)
	if err != nil {
		return nil, fmt.Errorf("invalid dictionary %s: %w", s.path, err)
	}
	return entries, nil
}

// ForTable returns the entries of one table, preserving order.
func ForTable(entries []model.DictionaryEntry, tableName string) []model.DictionaryEntry {
	var filtered []model.DictionaryEntry
	for _, entry := range entries {
		if entry.TableName == tableName {
			filtered = append(filtered, entry)
		}
	}
	return filtered
}

// TableNames returns the distinct table names in first-seen order.
func TableNames(entries []model.DictionaryEntry) []string {
	var names []string
	seen := make(map[string]bool)
	for _, entry := range entries {
		if !seen[entry.TableName] {
			seen[entry.TableName] = true
			names = append(names, entry.TableName)
		}
	}
	return names
}
