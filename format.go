package catalog

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// Encoding is the character encoding of a text upload.
type Encoding string

const (
	// EncodingUTF8 is the default encoding
	EncodingUTF8 Encoding = "utf-8"
	// EncodingWindows1252 is the encoding of many spreadsheet CSV exports
	EncodingWindows1252 Encoding = "windows-1252"
	// EncodingISO88591 is Latin-1
	EncodingISO88591 Encoding = "iso-8859-1"
)

// ParseEncoding converts a configuration value to an Encoding.
func ParseEncoding(name string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return EncodingUTF8, nil
	case "windows-1252", "cp1252":
		return EncodingWindows1252, nil
	case "iso-8859-1", "latin1", "latin-1":
		return EncodingISO88591, nil
	default:
		return "", fmt.Errorf("%w: unknown encoding %q", ErrInvalidConfig, name)
	}
}

// decode wraps r so that it yields UTF-8.
func (e Encoding) decode(r io.Reader) io.Reader {
	switch e {
	case EncodingWindows1252:
		return charmap.Windows1252.NewDecoder().Reader(r)
	case EncodingISO88591:
		return charmap.ISO8859_1.NewDecoder().Reader(r)
	default:
		return r
	}
}

// FormatSettings holds the ingestion settings of one file type.
// Fields that do not apply to a format are ignored by its parser.
type FormatSettings struct {
	// Delimiter separates fields of delimited text (CSV, TSV).
	Delimiter rune
	// LazyQuotes tolerates bare quotes inside unquoted CSV fields.
	LazyQuotes bool
	// Encoding is the character encoding of text formats.
	Encoding Encoding
	// Sheet selects the Excel sheet; empty means the first sheet.
	Sheet string
	// RecordTag names the repeated XML element holding one row; empty means
	// the children of the document root.
	RecordTag string
}

// FormatTable maps each file type to its ingestion settings. It is a value:
// With returns a modified copy and never changes the receiver.
type FormatTable struct {
	settings map[FileType]FormatSettings
}

// DefaultFormatTable returns the default settings for every supported file type.
func DefaultFormatTable() FormatTable {
	return FormatTable{settings: map[FileType]FormatSettings{
		FileTypeCSV:     {Delimiter: csvDelimiter, Encoding: EncodingUTF8},
		FileTypeTSV:     {Delimiter: tsvDelimiter, Encoding: EncodingUTF8},
		FileTypeLTSV:    {Encoding: EncodingUTF8},
		FileTypeParquet: {},
		FileTypeXLSX:    {},
		FileTypeJSON:    {Encoding: EncodingUTF8},
		FileTypeXML:     {},
	}}
}

// Settings returns the settings of a file type. Unknown types get zero settings.
func (t FormatTable) Settings(fileType FileType) FormatSettings {
	return t.settings[fileType]
}

// With returns a copy of the table with the settings of one file type replaced.
func (t FormatTable) With(fileType FileType, settings FormatSettings) FormatTable {
	copied := make(map[FileType]FormatSettings, len(t.settings)+1)
	for k, v := range t.settings {
		copied[k] = v
	}
	copied[fileType] = settings
	return FormatTable{settings: copied}
}

// Validate checks the settings of every file type.
func (t FormatTable) Validate() error {
	for fileType, s := range t.settings {
		switch fileType {
		case FileTypeCSV, FileTypeTSV:
			if s.Delimiter == 0 || s.Delimiter == '\n' || s.Delimiter == '\r' || s.Delimiter == '"' {
				return fmt.Errorf("%w: invalid delimiter %q for %s", ErrInvalidConfig, s.Delimiter, fileType)
			}
		}
		if s.Encoding != "" {
			if _, err := ParseEncoding(string(s.Encoding)); err != nil {
				return err
			}
		}
	}
	return nil
}
