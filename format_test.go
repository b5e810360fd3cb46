package catalog

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEncoding(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		want    Encoding
		wantErr bool
	}{
		{name: "", want: EncodingUTF8},
		{name: "UTF8", want: EncodingUTF8},
		{name: "cp1252", want: EncodingWindows1252},
		{name: "Windows-1252", want: EncodingWindows1252},
		{name: "latin1", want: EncodingISO88591},
		{name: "shift_jis", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseEncoding(tt.name)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncoding_Decode(t *testing.T) {
	t.Parallel()

	raw := "caf\xe9"
	for _, enc := range []Encoding{EncodingWindows1252, EncodingISO88591} {
		got, err := io.ReadAll(enc.decode(strings.NewReader(raw)))
		require.NoError(t, err)
		assert.Equal(t, "café", string(got), enc)
	}

	got, err := io.ReadAll(EncodingUTF8.decode(strings.NewReader("café")))
	require.NoError(t, err)
	assert.Equal(t, "café", string(got))
}

func TestFormatTable(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		table := DefaultFormatTable()
		assert.Equal(t, ',', table.Settings(FileTypeCSV).Delimiter)
		assert.Equal(t, '\t', table.Settings(FileTypeTSV).Delimiter)
		assert.Equal(t, EncodingUTF8, table.Settings(FileTypeJSON).Encoding)
		assert.Equal(t, FormatSettings{}, table.Settings(FileTypeUnsupported))
		assert.NoError(t, table.Validate())
	})

	t.Run("With does not modify the receiver", func(t *testing.T) {
		t.Parallel()

		base := DefaultFormatTable()
		changed := base.With(FileTypeCSV, FormatSettings{Delimiter: ';', Encoding: EncodingWindows1252})

		assert.Equal(t, ';', changed.Settings(FileTypeCSV).Delimiter)
		assert.Equal(t, ',', base.Settings(FileTypeCSV).Delimiter)
		assert.Equal(t, base.Settings(FileTypeTSV), changed.Settings(FileTypeTSV))
	})

	t.Run("Validate", func(t *testing.T) {
		t.Parallel()

		tests := map[string]FormatTable{
			"missing delimiter": DefaultFormatTable().With(FileTypeCSV, FormatSettings{}),
			"quote delimiter":   DefaultFormatTable().With(FileTypeTSV, FormatSettings{Delimiter: '"'}),
			"newline delimiter": DefaultFormatTable().With(FileTypeCSV, FormatSettings{Delimiter: '\n'}),
			"unknown encoding":  DefaultFormatTable().With(FileTypeJSON, FormatSettings{Encoding: "ebcdic"}),
		}
		for name, table := range tests {
			assert.ErrorIs(t, table.Validate(), ErrInvalidConfig, name)
		}
	})
}
