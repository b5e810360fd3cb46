package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSampleFromRecords(t *testing.T) {
	t.Parallel()

	sample := NewSampleFromRecords("users", []string{"id", "name"}, [][]string{{"1", "alice"}, {"2"}})
	assert.Equal(t, "users", sample.TableName)
	assert.Equal(t, [][]any{{"1", "alice"}, {"2"}}, sample.Rows)
	require.NoError(t, sample.Validate())
}

func TestSample_Column(t *testing.T) {
	t.Parallel()

	sample := NewSample("t", []string{"a", "b"}, [][]any{{"1", "x"}, {"2"}, {nil, "z"}})
	assert.Equal(t, []any{"1", "2", nil}, sample.Column(0))
	assert.Equal(t, []any{"x", nil, "z"}, sample.Column(1))
	assert.Equal(t, []any{nil, nil, nil}, sample.Column(5))
}

func TestSample_Head(t *testing.T) {
	t.Parallel()

	rows := make([][]any, 8)
	for i := range rows {
		rows[i] = []any{i}
	}
	sample := NewSample("t", []string{"n"}, rows)

	tests := []struct {
		name string
		n    int
		want int
	}{
		{name: "bounded", n: 3, want: 3},
		{name: "larger than sample", n: 20, want: 8},
		{name: "zero means default", n: 0, want: DefaultSampleRows},
		{name: "negative means default", n: -1, want: DefaultSampleRows},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			head := sample.Head(tt.n)
			assert.Len(t, head.Rows, tt.want)
			assert.Equal(t, sample.ColumnNames, head.ColumnNames)
			assert.Equal(t, 0, head.Rows[0][0])
		})
	}
}

func TestSample_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		sample  *Sample
		wantErr bool
	}{
		{name: "valid", sample: NewSample("t", []string{"a", "b"}, [][]any{{"1", "2"}, {"3"}})},
		{name: "header only", sample: NewSample("t", []string{"a"}, nil)},
		{name: "nil", sample: nil, wantErr: true},
		{name: "no header", sample: NewSample("t", []string{}, nil), wantErr: true},
		{name: "duplicate header", sample: NewSample("t", []string{"a", "a"}, nil), wantErr: true},
		{name: "blank header", sample: NewSample("t", []string{""}, nil), wantErr: true},
		{name: "long row", sample: NewSample("t", []string{"a"}, [][]any{{"1", "2"}}), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.sample.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidShape)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidateColumnNames_Duplicate(t *testing.T) {
	t.Parallel()

	err := validateColumnNames([]string{"id", "name", "id "})
	assert.ErrorIs(t, err, errDuplicateColumnName)
	assert.Contains(t, err.Error(), "id")
}
