package catalog

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/nao1215/catalog/domain/model"
)

const customersCSV = "cust_id,email,signup,vip,balance\n" +
	"1,alice@example.com,2024-01-15,true,10.5\n" +
	"2,bob@example.com,2024-02-01,false,0.25\n" +
	"3,,2024-03-10,true,7.75\n"

func writeFile(t *testing.T, path string, data []byte) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func newTestIngestor(t *testing.T, opts ...IngestOption) *Ingestor {
	t.Helper()
	ingestor, err := NewIngestor(opts...)
	require.NoError(t, err)
	return ingestor
}

func schemaTypes(schema model.Schema) []model.TypeTag {
	types := make([]model.TypeTag, len(schema))
	for i, column := range schema {
		types[i] = column.Type
	}
	return types
}

func TestNewIngestor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opts []IngestOption
	}{
		{name: "zero sample rows", opts: []IngestOption{WithSampleRows(0)}},
		{name: "zero workers", opts: []IngestOption{WithWorkers(0)}},
		{name: "bad format table", opts: []IngestOption{WithFormatSettings(DefaultFormatTable().With(FileTypeCSV, FormatSettings{}))}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := NewIngestor(tt.opts...)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestIngestor_IngestFile(t *testing.T) {
	t.Parallel()

	t.Run("csv", func(t *testing.T) {
		t.Parallel()

		path := writeFile(t, filepath.Join(t.TempDir(), "customers.csv"), []byte(customersCSV))
		result, err := newTestIngestor(t).IngestFile(context.Background(), path)
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, result.ID)
		assert.Equal(t, path, result.Path)
		assert.Equal(t, "customers", result.TableName)
		assert.Equal(t, FileTypeCSV, result.FileType)
		assert.Equal(t, 3, result.RowsSampled)
		assert.Len(t, result.Fingerprint, 16)
		assert.Equal(t, []string{"cust_id", "email", "signup", "vip", "balance"}, result.Schema.Names())
		assert.Equal(t, []model.TypeTag{
			model.TypeInteger, model.TypeString, model.TypeDate, model.TypeBoolean, model.TypeNumber,
		}, schemaTypes(result.Schema))
		assert.Equal(t, []string{"alice@example.com", "bob@example.com"}, result.Schema[1].Sample)
	})

	t.Run("sample is bounded", func(t *testing.T) {
		t.Parallel()

		path := writeFile(t, filepath.Join(t.TempDir(), "customers.csv"), []byte(customersCSV))
		result, err := newTestIngestor(t, WithSampleRows(2)).IngestFile(context.Background(), path)
		require.NoError(t, err)
		assert.Equal(t, 2, result.RowsSampled)
		assert.Len(t, result.Schema[0].Sample, 2)
	})

	for _, compression := range []CompressionType{CompressionGZ, CompressionXZ, CompressionZSTD} {
		t.Run("compressed "+compression.String(), func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "customers.csv"+compression.Extension())
			writeFile(t, path, compress(t, compression, customersCSV))

			result, err := newTestIngestor(t).IngestFile(context.Background(), path)
			require.NoError(t, err)
			assert.Equal(t, "customers", result.TableName)
			assert.Equal(t, FileTypeCSV, result.FileType)
			assert.Equal(t, model.TypeNumber, result.Schema[4].Type)
		})
	}

	t.Run("ndjson", func(t *testing.T) {
		t.Parallel()

		path := writeFile(t, filepath.Join(t.TempDir(), "events.ndjson"),
			[]byte("{\"id\": 1, \"tags\": [\"a\"], \"meta\": {\"k\": 1}}\n{\"id\": 2, \"tags\": [], \"meta\": null}\n"))
		result, err := newTestIngestor(t).IngestFile(context.Background(), path)
		require.NoError(t, err)
		assert.Equal(t, []model.TypeTag{model.TypeInteger, model.TypeArray, model.TypeObject}, schemaTypes(result.Schema))
	})

	t.Run("errors", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		ingestor := newTestIngestor(t)
		ctx := context.Background()

		_, err := ingestor.IngestFile(ctx, dir)
		assert.ErrorIs(t, err, ErrInvalidData)

		_, err = ingestor.IngestFile(ctx, filepath.Join(dir, "missing.csv"))
		assert.ErrorIs(t, err, ErrFileNotFound)

		_, err = ingestor.IngestFile(ctx, writeFile(t, filepath.Join(dir, "notes.txt"), []byte("hello")))
		assert.ErrorIs(t, err, ErrUnsupportedFormat)

		_, err = ingestor.IngestFile(ctx, writeFile(t, filepath.Join(dir, "empty.csv"), nil))
		assert.ErrorIs(t, err, ErrEmptyData)
		assert.Contains(t, err.Error(), "empty.csv")

		_, err = ingestor.IngestFile(ctx, "")
		assert.Error(t, err)
	})

	t.Run("logs each file", func(t *testing.T) {
		t.Parallel()

		core, logs := observer.New(zapcore.InfoLevel)
		path := writeFile(t, filepath.Join(t.TempDir(), "customers.csv"), []byte(customersCSV))
		result, err := newTestIngestor(t, WithIngestLogger(zap.New(core))).IngestFile(context.Background(), path)
		require.NoError(t, err)

		entries := logs.FilterMessage("Ingested file").All()
		require.Len(t, entries, 1)
		assert.Equal(t, "ingest", entries[0].LoggerName)
		fields := entries[0].ContextMap()
		assert.Equal(t, result.ID.String(), fields["ingestion_id"])
		assert.Equal(t, "csv", fields["file_type"])
		assert.Equal(t, int64(5), fields["columns"])
	})
}

func TestIngestor_IngestFiles(t *testing.T) {
	t.Parallel()

	t.Run("walks directories and skips duplicates", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "customers.csv"), []byte(customersCSV))
		writeFile(t, filepath.Join(dir, "customers.csv.gz"), compress(t, CompressionGZ, customersCSV))
		writeFile(t, filepath.Join(dir, "nested", "orders.tsv"), []byte("order_id\ttotal\n1\t9.99\n"))
		writeFile(t, filepath.Join(dir, "readme.txt"), []byte("ignored"))
		single := writeFile(t, filepath.Join(t.TempDir(), "logs.ltsv"), []byte("host:a\tstatus:200\n"))

		results, err := newTestIngestor(t, WithWorkers(2)).IngestFiles(context.Background(), []string{dir, single})
		require.NoError(t, err)
		require.Len(t, results, 3)

		assert.Equal(t, "customers", results[0].TableName)
		assert.Equal(t, CompressionNone, detectCompressionType(results[0].Path))
		assert.Equal(t, "orders", results[1].TableName)
		assert.Equal(t, "logs", results[2].TableName)
	})

	t.Run("the same file twice is ingested once", func(t *testing.T) {
		t.Parallel()

		path := writeFile(t, filepath.Join(t.TempDir(), "customers.csv"), []byte(customersCSV))
		results, err := newTestIngestor(t).IngestFiles(context.Background(), []string{path, path})
		require.NoError(t, err)
		assert.Len(t, results, 1)
	})

	t.Run("errors", func(t *testing.T) {
		t.Parallel()

		ingestor := newTestIngestor(t)
		ctx := context.Background()

		_, err := ingestor.IngestFiles(ctx, nil)
		assert.Error(t, err)

		onlyText := t.TempDir()
		writeFile(t, filepath.Join(onlyText, "readme.txt"), []byte("x"))
		_, err = ingestor.IngestFiles(ctx, []string{onlyText})
		assert.ErrorIs(t, err, ErrEmptyData)

		broken := t.TempDir()
		writeFile(t, filepath.Join(broken, "good.csv"), []byte(customersCSV))
		writeFile(t, filepath.Join(broken, "bad.json"), []byte("[1, 2]"))
		_, err = ingestor.IngestFiles(ctx, []string{broken})
		assert.ErrorIs(t, err, ErrInvalidData)
	})

	t.Run("canceled context", func(t *testing.T) {
		t.Parallel()

		path := writeFile(t, filepath.Join(t.TempDir(), "customers.csv"), []byte(customersCSV))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := newTestIngestor(t).IngestFiles(ctx, []string{path})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestIngestor_ParseReader(t *testing.T) {
	t.Parallel()

	ingestor := newTestIngestor(t, WithSampleRows(2))
	ctx := context.Background()

	sample, err := ingestor.ParseReader(ctx, strings.NewReader(customersCSV), FileTypeCSV, "upload")
	require.NoError(t, err)
	assert.Equal(t, "upload", sample.TableName)
	assert.Len(t, sample.Rows, 2)

	_, err = ingestor.ParseReader(ctx, strings.NewReader(""), FileTypeCSV, "upload")
	assert.ErrorIs(t, err, ErrEmptyData)

	_, err = ingestor.ParseReader(ctx, strings.NewReader("a"), FileTypeUnsupported, "upload")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = ingestor.ParseReader(ctx, strings.NewReader("a"), FileTypeCSV, " ")
	assert.Error(t, err)

	_, err = ingestor.ParseReader(ctx, nil, FileTypeCSV, "upload")
	assert.Error(t, err)
}

func TestIngestor_ReadFile(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	b.WriteString("n\n")
	for i := 0; i < 20; i++ {
		b.WriteString("1\n")
	}
	path := writeFile(t, filepath.Join(t.TempDir(), "numbers.csv"), []byte(b.String()))

	sample, err := newTestIngestor(t, WithSampleRows(1)).ReadFile(context.Background(), path)
	require.NoError(t, err)
	assert.Len(t, sample.Rows, 20)
	assert.Equal(t, "numbers", sample.TableName)
}

func TestFingerprint(t *testing.T) {
	t.Parallel()

	base := NewSampleFromRecords("a", []string{"id", "name"}, [][]string{{"1", "x"}})

	tests := []struct {
		name  string
		other *Sample
		equal bool
	}{
		{name: "same content, other table", other: NewSampleFromRecords("b", []string{"id", "name"}, [][]string{{"1", "x"}}), equal: true},
		{name: "different value", other: NewSampleFromRecords("a", []string{"id", "name"}, [][]string{{"1", "y"}})},
		{name: "different header", other: NewSampleFromRecords("a", []string{"id", "title"}, [][]string{{"1", "x"}})},
		{name: "shifted boundary", other: NewSampleFromRecords("a", []string{"id", "name"}, [][]string{{"1x", ""}})},
		{name: "missing versus empty", other: NewSample("a", []string{"id", "name"}, [][]any{{"1"}})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if tt.equal {
				assert.Equal(t, Fingerprint(base), Fingerprint(tt.other))
			} else {
				assert.NotEqual(t, Fingerprint(base), Fingerprint(tt.other))
			}
		})
	}

	assert.Empty(t, Fingerprint(nil))

	dir := t.TempDir()
	first := writeFile(t, filepath.Join(dir, "first.csv"), []byte(customersCSV))
	second := writeFile(t, filepath.Join(dir, "second.csv.gz"), compress(t, CompressionGZ, customersCSV))
	results, err := newTestIngestor(t).IngestFiles(context.Background(), []string{first, second})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, results[0].Fingerprint, results[1].Fingerprint)
	assert.NotEqual(t, results[0].ID, results[1].ID)
}
