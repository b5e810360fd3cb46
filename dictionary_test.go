package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nao1215/catalog/domain/model"
)

func TestDictionaryFromSample(t *testing.T) {
	t.Parallel()

	t.Run("snake case header", func(t *testing.T) {
		t.Parallel()

		sample := NewSampleFromRecords("dictionary",
			[]string{"table_name", "column_name", "logical_table_name", "logical_column_name", "description", "data_type", "is_primary_key", "is_foreign_key", "is_nullable"},
			[][]string{
				{"customers", "cust_id", "Customer", "Customer ID", "surrogate key", "integer", "true", "false", "no"},
				{"customers", "email", "Customer", "Email", "", "string", "", "", "yes"},
			})

		entries, err := DictionaryFromSample(sample)
		require.NoError(t, err)
		assert.Equal(t, []model.DictionaryEntry{
			{
				TableName: "customers", ColumnName: "cust_id",
				LogicalTableName: "Customer", LogicalColumnName: "Customer ID",
				Description: "surrogate key", DataType: "integer", IsPrimaryKey: true,
			},
			{
				TableName: "customers", ColumnName: "email",
				LogicalTableName: "Customer", LogicalColumnName: "Email",
				DataType: "string", IsNullable: true,
			},
		}, entries)
	})

	t.Run("header aliases and unknown columns", func(t *testing.T) {
		t.Parallel()

		sample := NewSample("dictionary",
			[]string{"Table", "Column Name", "owner", "Type", "Primary-Key"},
			[][]any{{" orders ", "order_id", "sales", "integer", int64(1)}})

		entries, err := DictionaryFromSample(sample)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, model.DictionaryEntry{
			TableName: "orders", ColumnName: "order_id", DataType: "integer", IsPrimaryKey: true,
		}, entries[0])
	})

	t.Run("native booleans", func(t *testing.T) {
		t.Parallel()

		sample := NewSample("d", []string{"tableName", "columnName", "nullable"}, [][]any{{"t", "c", true}, {"t", "d", nil}})
		entries, err := DictionaryFromSample(sample)
		require.NoError(t, err)
		assert.True(t, entries[0].IsNullable)
		assert.False(t, entries[1].IsNullable)
	})

	t.Run("rows without table or column are skipped", func(t *testing.T) {
		t.Parallel()

		sample := NewSampleFromRecords("d", []string{"table", "column"}, [][]string{{"t", "a"}, {"", "b"}, {"t", " "}, {"t"}})
		entries, err := DictionaryFromSample(sample)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "a", entries[0].ColumnName)
	})

	t.Run("errors", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name   string
			sample *Sample
			want   error
		}{
			{
				name:   "no table header",
				sample: NewSampleFromRecords("d", []string{"column"}, [][]string{{"a"}}),
				want:   ErrInvalidShape,
			},
			{
				name:   "no column header",
				sample: NewSampleFromRecords("d", []string{"table"}, [][]string{{"a"}}),
				want:   ErrInvalidShape,
			},
			{
				name:   "bad flag",
				sample: NewSampleFromRecords("d", []string{"table", "column", "nullable"}, [][]string{{"t", "a", "maybe"}}),
				want:   ErrInvalidData,
			},
			{
				name:   "duplicate entry",
				sample: NewSampleFromRecords("d", []string{"table", "column"}, [][]string{{"t", "a"}, {"t", "a"}}),
				want:   ErrInvalidShape,
			},
			{
				name:   "nil sample",
				sample: nil,
				want:   ErrInvalidShape,
			},
		}
		for _, tt := range tests {
			_, err := DictionaryFromSample(tt.sample)
			assert.ErrorIs(t, err, tt.want, tt.name)
		}
	})
}

func TestParseFlag(t *testing.T) {
	t.Parallel()

	for _, value := range []string{"true", "TRUE", "yes", "Y", "1", "t", " True "} {
		got, err := ParseFlag(value)
		require.NoError(t, err, value)
		assert.True(t, got, value)
	}
	for _, value := range []string{"", "false", "No", "n", "0", "F"} {
		got, err := ParseFlag(value)
		require.NoError(t, err, value)
		assert.False(t, got, value)
	}
	_, err := ParseFlag("maybe")
	assert.Error(t, err)
}
