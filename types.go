package catalog

import (
	"fmt"
	"strings"
)

// Sampling constants (rows-based)
const (
	// DefaultSampleRows is the number of data rows per column used for type inference.
	// Five rows are enough to classify a column; more rows only raise confidence.
	DefaultSampleRows = 5
	// MinSampleRows is the minimum allowed sample size
	MinSampleRows = 1
	// DefaultWorkers is the default number of files parsed concurrently
	DefaultWorkers = 4
)

// File format delimiters
const (
	// csvDelimiter is the delimiter for CSV files
	csvDelimiter = ','
	// tsvDelimiter is the delimiter for TSV files
	tsvDelimiter = '\t'
)

// Sample is the parser layer's output for one file: column names plus row-major values.
//
// Values are whatever the format parser produced: nil, string, bool, numeric types,
// time.Time, or []any / map[string]any for structured sources.
type Sample struct {
	// TableName is derived from the file name (or given by the caller for readers).
	TableName string
	// ColumnNames holds the header in column order.
	ColumnNames []string
	// Rows holds the data rows. A row may be shorter than the header but never longer.
	Rows [][]any
}

// NewSample creates a sample from a header and rows.
func NewSample(tableName string, columnNames []string, rows [][]any) *Sample {
	return &Sample{
		TableName:   tableName,
		ColumnNames: columnNames,
		Rows:        rows,
	}
}

// NewSampleFromRecords creates a sample from string records, as produced by text formats.
func NewSampleFromRecords(tableName string, columnNames []string, records [][]string) *Sample {
	rows := make([][]any, len(records))
	for i, record := range records {
		row := make([]any, len(record))
		for j, v := range record {
			row[j] = v
		}
		rows[i] = row
	}
	return NewSample(tableName, columnNames, rows)
}

// Column returns the values of the i-th column. Missing cells are nil.
func (s *Sample) Column(i int) []any {
	values := make([]any, len(s.Rows))
	for r, row := range s.Rows {
		if i < len(row) {
			values[r] = row[i]
		}
	}
	return values
}

// Head returns a sample bounded to the first n rows. n < MinSampleRows means DefaultSampleRows.
func (s *Sample) Head(n int) *Sample {
	if n < MinSampleRows {
		n = DefaultSampleRows
	}
	if len(s.Rows) <= n {
		return s
	}
	return NewSample(s.TableName, s.ColumnNames, s.Rows[:n])
}

// Validate checks the shape of the sample.
func (s *Sample) Validate() error {
	if s == nil {
		return fmt.Errorf("%w: sample is nil", ErrInvalidShape)
	}
	if len(s.ColumnNames) == 0 {
		return fmt.Errorf("%w: sample has no columns", ErrInvalidShape)
	}
	if err := validateColumnNames(s.ColumnNames); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidShape, err)
	}
	for i, row := range s.Rows {
		if len(row) > len(s.ColumnNames) {
			return fmt.Errorf("%w: row %d has %d values for %d columns",
				ErrInvalidShape, i+1, len(row), len(s.ColumnNames))
		}
	}
	return nil
}

// validateColumnNames checks for blank and duplicate column names and returns error if found.
// Column name comparison is case-sensitive after trimming whitespace.
func validateColumnNames(columns []string) error {
	columnsSeen := make(map[string]bool)
	for i, col := range columns {
		trimmedCol := strings.TrimSpace(col)
		if trimmedCol == "" {
			return fmt.Errorf("column %d has an empty name", i+1)
		}
		if columnsSeen[trimmedCol] {
			return fmt.Errorf("%w: %s", errDuplicateColumnName, col)
		}
		columnsSeen[trimmedCol] = true
	}
	return nil
}
