package catalog

import (
	"fmt"
	"path/filepath"
	"strings"
)

// FileType represents supported file formats. Compression is tracked separately
// by CompressionType, so "users.csv.gz" is FileTypeCSV with CompressionGZ.
type FileType int

const (
	// FileTypeCSV represents CSV file type
	FileTypeCSV FileType = iota
	// FileTypeTSV represents TSV file type
	FileTypeTSV
	// FileTypeLTSV represents LTSV file type
	FileTypeLTSV
	// FileTypeParquet represents Parquet file type
	FileTypeParquet
	// FileTypeXLSX represents Excel XLSX file type
	FileTypeXLSX
	// FileTypeJSON represents JSON (array of objects) and newline-delimited JSON
	FileTypeJSON
	// FileTypeXML represents XML file type
	FileTypeXML
	// FileTypeUnsupported represents unsupported file type
	FileTypeUnsupported
)

// File extensions
const (
	// extCSV is the CSV file extension
	extCSV = ".csv"
	// extTSV is the TSV file extension
	extTSV = ".tsv"
	// extLTSV is the LTSV file extension
	extLTSV = ".ltsv"
	// extParquet is the Parquet file extension
	extParquet = ".parquet"
	// extXLSX is the Excel XLSX file extension
	extXLSX = ".xlsx"
	// extJSON is the JSON file extension
	extJSON = ".json"
	// extNDJSON is the newline-delimited JSON file extension
	extNDJSON = ".ndjson"
	// extJSONL is the JSON Lines file extension
	extJSONL = ".jsonl"
	// extXML is the XML file extension
	extXML = ".xml"
	// extGZ is the gzip compression extension
	extGZ = ".gz"
	// extBZ2 is the bzip2 compression extension
	extBZ2 = ".bz2"
	// extXZ is the xz compression extension
	extXZ = ".xz"
	// extZSTD is the zstd compression extension
	extZSTD = ".zst"
)

// compressionExtensions lists every recognized compression suffix
var compressionExtensions = []string{extGZ, extBZ2, extXZ, extZSTD}

// String returns the lower-case format name used in configuration and logs
func (ft FileType) String() string {
	switch ft {
	case FileTypeCSV:
		return "csv"
	case FileTypeTSV:
		return "tsv"
	case FileTypeLTSV:
		return "ltsv"
	case FileTypeParquet:
		return "parquet"
	case FileTypeXLSX:
		return "xlsx"
	case FileTypeJSON:
		return "json"
	case FileTypeXML:
		return "xml"
	default:
		return "unsupported"
	}
}

// MarshalText encodes the format name
func (ft FileType) MarshalText() ([]byte, error) {
	return []byte(ft.String()), nil
}

// extension returns the file extension for the FileType
func (ft FileType) extension() string {
	switch ft {
	case FileTypeCSV:
		return extCSV
	case FileTypeTSV:
		return extTSV
	case FileTypeLTSV:
		return extLTSV
	case FileTypeParquet:
		return extParquet
	case FileTypeXLSX:
		return extXLSX
	case FileTypeJSON:
		return extJSON
	case FileTypeXML:
		return extXML
	default:
		return ""
	}
}

// ParseFileType converts a format name ("csv", "xlsx", ".json", ...) to a FileType.
func ParseFileType(name string) (FileType, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if !strings.HasPrefix(name, ".") {
		name = "." + name
	}
	if ft := fileTypeFromExtension(name); ft != FileTypeUnsupported {
		return ft, nil
	}
	return FileTypeUnsupported, fmt.Errorf("%w: %s", ErrUnsupportedFormat, strings.TrimPrefix(name, "."))
}

// file represents a file on disk that can be turned into a Sample
type file struct {
	path        string
	fileType    FileType
	compression CompressionType
}

// newFile creates a new file
func newFile(path string) *file {
	return &file{
		path:        path,
		fileType:    detectFileType(path),
		compression: detectCompressionType(path),
	}
}

// isCompressed returns true if file is compressed
func (f *file) isCompressed() bool {
	return f.compression != CompressionNone
}

// detectFileType detects file type from extension, ignoring a compression suffix
func detectFileType(path string) FileType {
	return fileTypeFromExtension(strings.ToLower(filepath.Ext(removeCompressionExtension(path))))
}

func fileTypeFromExtension(ext string) FileType {
	switch ext {
	case extCSV:
		return FileTypeCSV
	case extTSV:
		return FileTypeTSV
	case extLTSV:
		return FileTypeLTSV
	case extParquet:
		return FileTypeParquet
	case extXLSX:
		return FileTypeXLSX
	case extJSON, extNDJSON, extJSONL:
		return FileTypeJSON
	case extXML:
		return FileTypeXML
	default:
		return FileTypeUnsupported
	}
}

// detectCompressionType detects the compression type from a file path
func detectCompressionType(path string) CompressionType {
	path = strings.ToLower(path)

	switch {
	case strings.HasSuffix(path, extGZ):
		return CompressionGZ
	case strings.HasSuffix(path, extBZ2):
		return CompressionBZ2
	case strings.HasSuffix(path, extXZ):
		return CompressionXZ
	case strings.HasSuffix(path, extZSTD):
		return CompressionZSTD
	default:
		return CompressionNone
	}
}

// removeCompressionExtension removes the compression extension from a file path if present
func removeCompressionExtension(path string) string {
	for _, ext := range compressionExtensions {
		if strings.HasSuffix(strings.ToLower(path), ext) {
			return path[:len(path)-len(ext)]
		}
	}
	return path
}

// isSupportedFile checks if the file has a supported extension
func isSupportedFile(fileName string) bool {
	return detectFileType(fileName) != FileTypeUnsupported
}

// tableFromFilePath creates table name from file path
// "users.csv" becomes "users", "data.json.gz" becomes "data".
func tableFromFilePath(filePath string) string {
	fileName := removeCompressionExtension(filepath.Base(filePath))
	return strings.TrimSuffix(fileName, filepath.Ext(fileName))
}
