package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nao1215/catalog/domain/model"
)

// OutputFormat represents the file format of an exported dictionary
type OutputFormat int

const (
	// OutputFormatCSV represents CSV output format
	OutputFormatCSV OutputFormat = iota
	// OutputFormatTSV represents TSV output format
	OutputFormatTSV
	// OutputFormatLTSV represents LTSV output format
	OutputFormatLTSV
)

// String returns the string representation of OutputFormat
func (f OutputFormat) String() string {
	switch f {
	case OutputFormatTSV:
		return "tsv"
	case OutputFormatLTSV:
		return "ltsv"
	default:
		return "csv"
	}
}

// Extension returns the file extension for the format
func (f OutputFormat) Extension() string {
	switch f {
	case OutputFormatTSV:
		return extTSV
	case OutputFormatLTSV:
		return extLTSV
	default:
		return extCSV
	}
}

// ExportOptions configures how dictionary entries are written.
//
// Example:
//
//	options := NewExportOptions().
//		WithFormat(OutputFormatTSV).
//		WithCompression(CompressionGZ)
type ExportOptions struct {
	// Format specifies the output file format
	Format OutputFormat
	// Compression specifies the compression type
	Compression CompressionType
}

// NewExportOptions creates default export options (CSV, no compression).
func NewExportOptions() ExportOptions {
	return ExportOptions{
		Format:      OutputFormatCSV,
		Compression: CompressionNone,
	}
}

// WithFormat sets the output file format.
func (o ExportOptions) WithFormat(format OutputFormat) ExportOptions {
	o.Format = format
	return o
}

// WithCompression adds compression to the output. bzip2 can be read but not written.
func (o ExportOptions) WithCompression(compression CompressionType) ExportOptions {
	o.Compression = compression
	return o
}

// FileExtension returns the complete file extension including compression
func (o ExportOptions) FileExtension() string {
	return o.Format.Extension() + o.Compression.Extension()
}

// ExportOptionsFromPath derives options from an output path such as "dictionary.tsv.gz".
func ExportOptionsFromPath(path string) (ExportOptions, error) {
	options := NewExportOptions().WithCompression(detectCompressionType(path))
	switch detectFileType(path) {
	case FileTypeCSV:
		options = options.WithFormat(OutputFormatCSV)
	case FileTypeTSV:
		options = options.WithFormat(OutputFormatTSV)
	case FileTypeLTSV:
		options = options.WithFormat(OutputFormatLTSV)
	default:
		return ExportOptions{}, fmt.Errorf("%w: dictionaries can be exported as csv, tsv or ltsv: %s",
			ErrUnsupportedFormat, filepath.Base(path))
	}
	return options, nil
}

// dictionaryHeader is the header written by DumpDictionary. DictionaryFromSample reads it back.
var dictionaryHeader = []string{
	"table_name", "column_name", "logical_table_name", "logical_column_name",
	"description", "data_type", "is_primary_key", "is_foreign_key", "is_nullable",
}

func dictionaryRecord(e model.DictionaryEntry) []string {
	return []string{
		e.TableName, e.ColumnName, e.LogicalTableName, e.LogicalColumnName,
		e.Description, e.DataType,
		strconv.FormatBool(e.IsPrimaryKey), strconv.FormatBool(e.IsForeignKey), strconv.FormatBool(e.IsNullable),
	}
}

// ProposeEntries turns ingestion results into draft dictionary entries: one entry
// per column with the inferred type as data type. A column is proposed nullable
// when one of its sampled values was blank. Two files with the same table name
// (a/users.csv and b/users.csv) yield duplicate keys, which DumpDictionary rejects.
func ProposeEntries(results ...*IngestionResult) []model.DictionaryEntry {
	var entries []model.DictionaryEntry
	for _, result := range results {
		if result == nil {
			continue
		}
		for _, column := range result.Schema {
			entries = append(entries, model.DictionaryEntry{
				TableName:   result.TableName,
				ColumnName:  column.Name,
				Description: column.Comment,
				DataType:    column.Type.String(),
				IsNullable:  len(column.Sample) < result.RowsSampled,
			})
		}
	}
	return entries
}

// DumpDictionary writes entries to w in the given format and compression.
// Entries with blank names or duplicate (table, column) keys are rejected before
// anything is written, so every dump can be read back by DictionaryFromSample.
func DumpDictionary(w io.Writer, entries []model.DictionaryEntry, options ExportOptions) error {
	if err := validateEntries(entries); err != nil {
		return err
	}
	return dumpDictionary(w, entries, options)
}

func dumpDictionary(w io.Writer, entries []model.DictionaryEntry, options ExportOptions) (err error) {
	writer, closeWriter, err := NewCompressionHandler(options.Compression).CreateWriter(w)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := closeWriter(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to finish %s output: %w", options.Compression, closeErr)
		}
	}()

	switch options.Format {
	case OutputFormatLTSV:
		return writeLTSV(writer, entries)
	case OutputFormatTSV:
		return writeDelimited(writer, entries, tsvDelimiter)
	default:
		return writeDelimited(writer, entries, csvDelimiter)
	}
}

// SaveDictionary writes entries to a file. Options are derived from the path.
func SaveDictionary(path string, entries []model.DictionaryEntry) (err error) {
	options, err := ExportOptionsFromPath(path)
	if err != nil {
		return err
	}
	if options.Compression == CompressionBZ2 {
		return errors.New("bzip2 compression is not supported for writing")
	}
	if err := validateEntries(entries); err != nil {
		return err
	}

	f, err := os.Create(path) //nolint:gosec // User-provided path is necessary for file operations
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return dumpDictionary(f, entries, options)
}

func writeDelimited(w io.Writer, entries []model.DictionaryEntry, delimiter rune) error {
	csvWriter := csv.NewWriter(w)
	csvWriter.Comma = delimiter
	if err := csvWriter.Write(dictionaryHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, entry := range entries {
		if err := csvWriter.Write(dictionaryRecord(entry)); err != nil {
			return fmt.Errorf("failed to write entry %s: %w", entry.Key(), err)
		}
	}
	csvWriter.Flush()
	return csvWriter.Error()
}

// writeLTSV writes one "label:value" line per entry. Tabs and newlines in values
// are replaced by spaces since LTSV has no escaping.
func writeLTSV(w io.Writer, entries []model.DictionaryEntry) error {
	clean := strings.NewReplacer("\t", " ", "\n", " ", "\r", " ")
	for _, entry := range entries {
		record := dictionaryRecord(entry)
		fields := make([]string, len(record))
		for i, value := range record {
			fields[i] = dictionaryHeader[i] + ":" + clean.Replace(value)
		}
		if _, err := io.WriteString(w, strings.Join(fields, "\t")+"\n"); err != nil {
			return fmt.Errorf("failed to write entry %s: %w", entry.Key(), err)
		}
	}
	return nil
}
