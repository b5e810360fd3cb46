package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/xxh3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nao1215/catalog/domain/model"
)

// IngestionResult is the outcome of ingesting one file.
type IngestionResult struct {
	// ID identifies this ingestion pass.
	ID uuid.UUID `json:"id" yaml:"id"`
	// Path is the file the result was produced from (empty for readers).
	Path string `json:"path" yaml:"path"`
	// TableName is derived from the file name.
	TableName string `json:"tableName" yaml:"table_name"`
	// FileType is the detected format.
	FileType FileType `json:"fileType" yaml:"file_type"`
	// Schema holds one descriptor per column, in column order.
	Schema model.Schema `json:"columns" yaml:"columns"`
	// Fingerprint is a hash of the sampled content, see Fingerprint.
	Fingerprint string `json:"fingerprint" yaml:"fingerprint"`
	// RowsSampled is the number of data rows the schema was inferred from.
	RowsSampled int `json:"rowsSampled" yaml:"rows_sampled"`
}

// Ingestor parses files into samples and infers their schemas.
// An Ingestor is immutable after construction and safe for concurrent use.
type Ingestor struct {
	formats    FormatTable
	sampleRows int
	workers    int
	logger     *zap.Logger
	collector  *fileCollector
	validator  *validator
}

// IngestOption configures an Ingestor.
type IngestOption func(*Ingestor)

// WithFormatSettings replaces the per-file-type settings table.
func WithFormatSettings(formats FormatTable) IngestOption {
	return func(i *Ingestor) {
		i.formats = formats
	}
}

// WithSampleRows sets how many data rows are read per file for inference.
func WithSampleRows(n int) IngestOption {
	return func(i *Ingestor) {
		i.sampleRows = n
	}
}

// WithWorkers sets how many files IngestFiles parses concurrently.
func WithWorkers(n int) IngestOption {
	return func(i *Ingestor) {
		i.workers = n
	}
}

// WithIngestLogger sets the logger.
func WithIngestLogger(logger *zap.Logger) IngestOption {
	return func(i *Ingestor) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// NewIngestor creates an Ingestor with the default format table, a sample of
// DefaultSampleRows rows and DefaultWorkers workers.
func NewIngestor(opts ...IngestOption) (*Ingestor, error) {
	i := &Ingestor{
		formats:    DefaultFormatTable(),
		sampleRows: DefaultSampleRows,
		workers:    DefaultWorkers,
		logger:     zap.NewNop(),
		collector:  newFileCollector(),
		validator:  newValidator(),
	}
	for _, opt := range opts {
		opt(i)
	}

	if i.sampleRows < MinSampleRows {
		return nil, fmt.Errorf("%w: sample rows must be at least %d, got %d", ErrInvalidConfig, MinSampleRows, i.sampleRows)
	}
	if i.workers < 1 {
		return nil, fmt.Errorf("%w: workers must be at least 1, got %d", ErrInvalidConfig, i.workers)
	}
	if err := i.formats.Validate(); err != nil {
		return nil, err
	}
	i.logger = i.logger.Named("ingest")
	return i, nil
}

// ParseReader parses at most the configured number of sample rows from r.
// The content of r must already be decompressed.
func (i *Ingestor) ParseReader(ctx context.Context, r io.Reader, fileType FileType, tableName string) (*Sample, error) {
	if err := i.validator.validateReader(r, tableName, fileType); err != nil {
		return nil, err
	}
	return newSampleParser(fileType, tableName, i.formats.Settings(fileType), i.sampleRows).parse(ctx, r)
}

// ReadFile parses every row of a file. It is meant for small reference files
// such as data dictionaries, not for sampling uploads.
func (i *Ingestor) ReadFile(ctx context.Context, path string) (*Sample, error) {
	if err := i.validator.validatePath(path); err != nil {
		return nil, err
	}
	return i.parseFile(ctx, newFile(path), 0)
}

// IngestFile samples a file and infers its schema.
func (i *Ingestor) IngestFile(ctx context.Context, path string) (*IngestionResult, error) {
	if err := i.validator.validatePath(path); err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat path %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory, use IngestFiles", ErrInvalidData, path)
	}
	return i.ingest(ctx, newFile(path))
}

// IngestFiles ingests files and directories concurrently. Directories are walked
// recursively for supported files. Results keep the order of the collected files;
// the first error cancels the remaining work.
func (i *Ingestor) IngestFiles(ctx context.Context, paths []string) ([]*IngestionResult, error) {
	if len(paths) == 0 {
		return nil, errors.New("at least one path must be provided")
	}
	files, err := i.collector.collect(paths)
	if err != nil {
		return nil, err
	}

	results := make([]*IngestionResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(i.workers)
	for idx, path := range files {
		g.Go(func() error {
			result, err := i.ingest(gctx, newFile(path))
			if err != nil {
				return err
			}
			results[idx] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (i *Ingestor) ingest(ctx context.Context, f *file) (*IngestionResult, error) {
	start := time.Now()
	sample, err := i.parseFile(ctx, f, i.sampleRows)
	if err != nil {
		return nil, err
	}

	schema, err := InferSchema(sample)
	if err != nil {
		return nil, NewErrorContext("infer", f.path).WithTable(sample.TableName).Error(err)
	}

	result := &IngestionResult{
		ID:          uuid.New(),
		Path:        f.path,
		TableName:   sample.TableName,
		FileType:    f.fileType,
		Schema:      schema,
		Fingerprint: Fingerprint(sample),
		RowsSampled: len(sample.Rows),
	}
	i.logger.Info("Ingested file",
		zap.String("ingestion_id", result.ID.String()),
		zap.String("path", f.path),
		zap.String("file_type", f.fileType.String()),
		zap.String("compression", f.compression.String()),
		zap.Int("columns", len(schema)),
		zap.Int("rows_sampled", result.RowsSampled),
		zap.Duration("elapsed", time.Since(start)))
	return result, nil
}

// parseFile opens, decompresses and parses a file, reading at most maxRows rows
// (all rows when maxRows is zero).
func (i *Ingestor) parseFile(ctx context.Context, f *file, maxRows int) (*Sample, error) {
	if f.fileType == FileTypeUnsupported {
		return nil, NewErrorContext("parse", f.path).Error(ErrUnsupportedFormat)
	}

	if f.isCompressed() {
		i.logger.Debug("Decompressing file", zap.String("path", f.path), zap.String("compression", f.compression.String()))
	}
	reader, cleanup, err := f.openReader()
	if err != nil {
		return nil, NewErrorContext("open", f.path).Error(err)
	}
	defer func() {
		if closeErr := cleanup(); closeErr != nil {
			i.logger.Warn("Failed to close file", zap.String("path", f.path), zap.Error(closeErr))
		}
	}()

	tableName := tableFromFilePath(f.path)
	sample, err := newSampleParser(f.fileType, tableName, i.formats.Settings(f.fileType), maxRows).parse(ctx, reader)
	if err != nil {
		return nil, NewErrorContext("parse", f.path).WithTable(tableName).Error(err)
	}
	return sample, nil
}

// Fingerprint returns a hex xxh3 hash of the sample's column names and values.
// Equal samples have equal fingerprints, so re-uploads of identical content can be detected.
func Fingerprint(sample *Sample) string {
	if sample == nil {
		return ""
	}
	h := xxh3.New()
	writeField := func(s string) {
		_, _ = h.WriteString(strconv.Itoa(len(s)))
		_, _ = h.WriteString(":")
		_, _ = h.WriteString(s)
	}

	for _, name := range sample.ColumnNames {
		writeField(name)
	}
	_, _ = h.WriteString("|")
	for _, row := range sample.Rows {
		for j := range sample.ColumnNames {
			if j >= len(row) || row[j] == nil {
				_, _ = h.WriteString("~")
				continue
			}
			writeField(renderValue(row[j]))
		}
		_, _ = h.WriteString("\n")
	}
	return fmt.Sprintf("%016x", h.Sum64())
}
