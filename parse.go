package catalog

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	pqfile "github.com/apache/arrow/go/v18/parquet/file"
	"github.com/apache/arrow/go/v18/parquet/pqarrow"
	"github.com/xuri/excelize/v2"
)

// utf8BOM is stripped from the first header cell of text formats
const utf8BOM = "\ufeff"

// sampleParser turns the (already decompressed) content of one file into a Sample.
type sampleParser struct {
	fileType  FileType
	tableName string
	settings  FormatSettings
	// maxRows bounds the number of data rows read; zero or less reads every row.
	maxRows int
}

// newSampleParser creates a new parser
func newSampleParser(fileType FileType, tableName string, settings FormatSettings, maxRows int) *sampleParser {
	return &sampleParser{
		fileType:  fileType,
		tableName: tableName,
		settings:  settings,
		maxRows:   maxRows,
	}
}

// full reports whether n rows already satisfy the row bound
func (p *sampleParser) full(n int) bool {
	return p.maxRows > 0 && n >= p.maxRows
}

// parse parses data from reader based on file type
func (p *sampleParser) parse(ctx context.Context, reader io.Reader) (*Sample, error) {
	var (
		sample *Sample
		err    error
	)
	switch p.fileType {
	case FileTypeCSV, FileTypeTSV:
		sample, err = p.parseDelimited(ctx, reader)
	case FileTypeLTSV:
		sample, err = p.parseLTSV(ctx, reader)
	case FileTypeParquet:
		sample, err = p.parseParquet(ctx, reader)
	case FileTypeXLSX:
		sample, err = p.parseXLSX(ctx, reader)
	case FileTypeJSON:
		sample, err = p.parseJSON(ctx, reader)
	case FileTypeXML:
		sample, err = p.parseXML(ctx, reader)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, p.fileType)
	}
	if err != nil {
		return nil, err
	}
	if err := sample.Validate(); err != nil {
		return nil, err
	}
	return sample, nil
}

// parseDelimited parses CSV or TSV data, reading the header and at most maxRows records
func (p *sampleParser) parseDelimited(ctx context.Context, reader io.Reader) (*Sample, error) {
	csvReader := csv.NewReader(p.settings.Encoding.decode(reader))
	if p.settings.Delimiter != 0 {
		csvReader.Comma = p.settings.Delimiter
	}
	csvReader.LazyQuotes = p.settings.LazyQuotes
	csvReader.FieldsPerRecord = -1

	headerRecord, err := csvReader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty %s data", ErrEmptyData, p.fileType)
		}
		return nil, fmt.Errorf("%w: failed to read %s header: %w", ErrInvalidData, p.fileType, err)
	}
	headers := stripHeaderBOM(headerRecord)

	var records [][]string
	for !p.full(len(records)) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := csvReader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("%w: failed to read %s record: %w", ErrInvalidData, p.fileType, err)
		}
		records = append(records, record)
	}
	return NewSampleFromRecords(p.tableName, headers, records), nil
}

// parseLTSV parses LTSV data. Labels become columns in first-seen order.
func (p *sampleParser) parseLTSV(ctx context.Context, reader io.Reader) (*Sample, error) {
	scanner := bufio.NewScanner(p.settings.Encoding.decode(reader))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var labels []string
	seen := make(map[string]bool)
	var recordMaps []map[string]string

	for scanner.Scan() && !p.full(len(recordMaps)) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		recordMap := make(map[string]string)
		for pair := range strings.SplitSeq(line, "\t") {
			kv := strings.SplitN(pair, ":", 2)
			if len(kv) != 2 {
				continue
			}
			key := strings.TrimSpace(kv[0])
			recordMap[key] = strings.TrimSpace(kv[1])
			if !seen[key] {
				seen[key] = true
				labels = append(labels, key)
			}
		}
		if len(recordMap) > 0 {
			recordMaps = append(recordMaps, recordMap)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to read LTSV: %w", ErrInvalidData, err)
	}
	if len(recordMaps) == 0 {
		return nil, fmt.Errorf("%w: no valid LTSV records found", ErrEmptyData)
	}

	rows := make([][]any, 0, len(recordMaps))
	for _, recordMap := range recordMaps {
		row := make([]any, len(labels))
		for i, label := range labels {
			if val, exists := recordMap[label]; exists {
				row[i] = val
			}
		}
		rows = append(rows, row)
	}
	return NewSample(p.tableName, labels, rows), nil
}

// parseXLSX parses one sheet of an Excel workbook. The first row is the header.
func (p *sampleParser) parseXLSX(ctx context.Context, reader io.Reader) (*Sample, error) {
	xlsxFile, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open Excel data: %w", ErrInvalidData, err)
	}
	defer func() {
		_ = xlsxFile.Close() // Ignore close error
	}()

	sheetName := p.settings.Sheet
	if sheetName == "" {
		sheetNames := xlsxFile.GetSheetList()
		if len(sheetNames) == 0 {
			return nil, fmt.Errorf("%w: no sheets found in Excel data", ErrEmptyData)
		}
		sheetName = sheetNames[0]
	}

	rows, err := xlsxFile.Rows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read sheet %s: %w", ErrInvalidData, sheetName, err)
	}
	defer func() {
		_ = rows.Close() // Ignore close error
	}()

	var sheetRows [][]string
	// One extra row for the header
	for rows.Next() && (p.maxRows <= 0 || len(sheetRows) < p.maxRows+1) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		columns, err := rows.Columns()
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read sheet %s: %w", ErrInvalidData, sheetName, err)
		}
		sheetRows = append(sheetRows, columns)
	}
	if len(sheetRows) == 0 {
		return nil, fmt.Errorf("%w: sheet %s is empty", ErrEmptyData, sheetName)
	}

	headers, records := convertXLSXRowsToTable(sheetRows)
	tableName := p.tableName
	if p.settings.Sheet != "" {
		tableName = p.tableName + "_" + sheetName
	}
	return NewSampleFromRecords(tableName, headers, records), nil
}

// convertXLSXRowsToTable converts XLSX rows to table headers and records
// First row becomes headers, remaining rows become records padded to the header width
func convertXLSXRowsToTable(rows [][]string) ([]string, [][]string) {
	var headers []string
	var records [][]string

	if len(rows) > 0 {
		headers = make([]string, len(rows[0]))
		copy(headers, rows[0])
	}

	if len(rows) > 1 {
		records = make([][]string, len(rows)-1)
		for i, row := range rows[1:] {
			record := make([]string, len(headers))
			for j := range headers {
				if j < len(row) {
					record[j] = row[j]
				}
			}
			records[i] = record
		}
	}

	return headers, records
}

// parseParquet parses Parquet data. Values keep their Arrow types (ints, floats, bools, times).
func (p *sampleParser) parseParquet(ctx context.Context, reader io.Reader) (*Sample, error) {
	// Read all data into memory (Parquet requires random access)
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet data: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty parquet file", ErrEmptyData)
	}

	pqReader, err := pqfile.NewParquetReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create parquet reader: %w", ErrInvalidData, err)
	}
	defer pqReader.Close()

	arrowReader, err := pqarrow.NewFileReader(pqReader, pqarrow.ArrowReadProperties{}, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create arrow reader: %w", ErrInvalidData, err)
	}

	table, err := arrowReader.ReadTable(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read table: %w", ErrInvalidData, err)
	}
	defer table.Release()

	schema := table.Schema()
	headers := make([]string, schema.NumFields())
	for i, field := range schema.Fields() {
		headers[i] = field.Name
	}

	tableReader := array.NewTableReader(table, 0)
	defer tableReader.Release()

	var rows [][]any
	for tableReader.Next() && !p.full(len(rows)) {
		batch := tableReader.Record()
		for i := 0; i < int(batch.NumRows()) && !p.full(len(rows)); i++ {
			row := make([]any, batch.NumCols())
			for j, col := range batch.Columns() {
				row[j] = arrowValue(col, i)
			}
			rows = append(rows, row)
		}
	}
	if err := tableReader.Err(); err != nil {
		return nil, fmt.Errorf("%w: error reading table records: %w", ErrInvalidData, err)
	}
	return NewSample(p.tableName, headers, rows), nil
}

// arrowValue extracts the i-th value of an Arrow array as a plain Go value.
func arrowValue(col arrow.Array, i int) any {
	if col.IsNull(i) {
		return nil
	}
	switch c := col.(type) {
	case *array.Boolean:
		return c.Value(i)
	case *array.Int8:
		return c.Value(i)
	case *array.Int16:
		return c.Value(i)
	case *array.Int32:
		return c.Value(i)
	case *array.Int64:
		return c.Value(i)
	case *array.Uint8:
		return c.Value(i)
	case *array.Uint16:
		return c.Value(i)
	case *array.Uint32:
		return c.Value(i)
	case *array.Uint64:
		return c.Value(i)
	case *array.Float32:
		return c.Value(i)
	case *array.Float64:
		return c.Value(i)
	case *array.String:
		return c.Value(i)
	case *array.LargeString:
		return c.Value(i)
	case *array.Date32:
		return c.Value(i).ToTime()
	case *array.Date64:
		return c.Value(i).ToTime()
	case *array.Timestamp:
		unit := c.DataType().(*arrow.TimestampType).Unit
		return c.Value(i).ToTime(unit)
	case *array.List:
		start, end := c.ValueOffsets(i)
		values := c.ListValues()
		items := make([]any, 0, end-start)
		for k := start; k < end; k++ {
			items = append(items, arrowValue(values, int(k)))
		}
		return items
	case *array.Struct:
		structType := c.DataType().(*arrow.StructType)
		object := make(map[string]any, c.NumField())
		for k := 0; k < c.NumField(); k++ {
			object[structType.Field(k).Name] = arrowValue(c.Field(k), i)
		}
		return object
	default:
		return col.ValueStr(i)
	}
}

// parseJSON parses a top-level array of objects or a stream of objects (NDJSON).
// Keys become columns in first-seen order; nested values stay []any / map[string]any.
// Numbers are kept as json.Number so that "3.0" is not collapsed into 3.
func (p *sampleParser) parseJSON(ctx context.Context, reader io.Reader) (*Sample, error) {
	dec := json.NewDecoder(p.settings.Encoding.decode(reader))
	dec.UseNumber()

	first, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty JSON data", ErrEmptyData)
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidData, err)
	}

	var objects []jsonObject
	switch first {
	case json.Delim('['):
		for dec.More() && !p.full(len(objects)) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			object, err := decodeJSONObject(dec)
			if err != nil {
				return nil, err
			}
			objects = append(objects, object)
		}
	case json.Delim('{'):
		object, err := decodeJSONObjectBody(dec)
		if err != nil {
			return nil, err
		}
		objects = append(objects, object)
		for dec.More() && !p.full(len(objects)) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			object, err := decodeJSONObject(dec)
			if err != nil {
				return nil, err
			}
			objects = append(objects, object)
		}
	default:
		return nil, fmt.Errorf("%w: JSON must be an array of objects or a stream of objects", ErrInvalidData)
	}

	if len(objects) == 0 {
		return nil, fmt.Errorf("%w: no JSON objects found", ErrEmptyData)
	}
	headers, rows := flattenObjects(objects)
	return NewSample(p.tableName, headers, rows), nil
}

// jsonObject keeps the key order of a decoded object.
type jsonObject struct {
	keys   []string
	values map[string]any
}

func decodeJSONObject(dec *json.Decoder) (jsonObject, error) {
	tok, err := dec.Token()
	if err != nil {
		return jsonObject{}, fmt.Errorf("%w: %w", ErrInvalidData, err)
	}
	if tok != json.Delim('{') {
		return jsonObject{}, fmt.Errorf("%w: expected JSON object, got %v", ErrInvalidData, tok)
	}
	return decodeJSONObjectBody(dec)
}

// decodeJSONObjectBody reads the members of an object whose opening brace was consumed.
func decodeJSONObjectBody(dec *json.Decoder) (jsonObject, error) {
	object := jsonObject{values: make(map[string]any)}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return jsonObject{}, fmt.Errorf("%w: %w", ErrInvalidData, err)
		}
		key, ok := tok.(string)
		if !ok {
			return jsonObject{}, fmt.Errorf("%w: invalid JSON object key %v", ErrInvalidData, tok)
		}
		var value any
		if err := dec.Decode(&value); err != nil {
			return jsonObject{}, fmt.Errorf("%w: %w", ErrInvalidData, err)
		}
		if _, dup := object.values[key]; !dup {
			object.keys = append(object.keys, key)
		}
		object.values[key] = value
	}
	if _, err := dec.Token(); err != nil {
		return jsonObject{}, fmt.Errorf("%w: %w", ErrInvalidData, err)
	}
	return object, nil
}

// flattenObjects turns ordered objects into a header (union of keys) and rows.
func flattenObjects(objects []jsonObject) ([]string, [][]any) {
	var headers []string
	seen := make(map[string]bool)
	for _, object := range objects {
		for _, key := range object.keys {
			if !seen[key] {
				seen[key] = true
				headers = append(headers, key)
			}
		}
	}

	rows := make([][]any, len(objects))
	for i, object := range objects {
		row := make([]any, len(headers))
		for j, key := range headers {
			row[j] = object.values[key]
		}
		rows[i] = row
	}
	return headers, rows
}

// parseXML parses repeated record elements. Without a configured record tag the
// children of the document root are the records. Child elements become columns,
// attributes become "@name" columns, nested elements become objects and repeated
// elements become arrays.
func (p *sampleParser) parseXML(ctx context.Context, reader io.Reader) (*Sample, error) {
	dec := xml.NewDecoder(reader)
	dec.CharsetReader = func(label string, input io.Reader) (io.Reader, error) {
		encoding, err := ParseEncoding(label)
		if err != nil {
			return nil, err
		}
		return encoding.decode(input), nil
	}

	var objects []jsonObject
	depth := 0
	for !p.full(len(objects)) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("%w: %w", ErrInvalidData, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			isRecord := depth == 2
			if p.settings.RecordTag != "" {
				isRecord = t.Name.Local == p.settings.RecordTag
			}
			if !isRecord {
				continue
			}
			node, err := parseXMLElement(dec, t)
			if err != nil {
				return nil, err
			}
			depth--
			objects = append(objects, node.record())
		case xml.EndElement:
			depth--
		}
	}

	if len(objects) == 0 {
		return nil, fmt.Errorf("%w: no XML records found", ErrEmptyData)
	}
	headers, rows := flattenObjects(objects)
	return NewSample(p.tableName, headers, rows), nil
}

// xmlNode is an element read into memory.
type xmlNode struct {
	name     string
	attrs    []xml.Attr
	children []*xmlNode
	text     strings.Builder
}

// parseXMLElement reads the subtree of start up to and including its end element.
func parseXMLElement(dec *xml.Decoder, start xml.StartElement) (*xmlNode, error) {
	node := &xmlNode{name: start.Name.Local, attrs: start.Attr}
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: unterminated element %s: %w", ErrInvalidData, node.name, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			child, err := parseXMLElement(dec, t)
			if err != nil {
				return nil, err
			}
			node.children = append(node.children, child)
		case xml.CharData:
			node.text.Write(t)
		case xml.EndElement:
			return node, nil
		}
	}
}

// record flattens one record element into ordered fields.
func (n *xmlNode) record() jsonObject {
	if len(n.children) == 0 && len(n.attrs) == 0 {
		return jsonObject{
			keys:   []string{n.name},
			values: map[string]any{n.name: strings.TrimSpace(n.text.String())},
		}
	}
	return n.fields()
}

// fields returns attributes and child elements as ordered keys and values.
func (n *xmlNode) fields() jsonObject {
	object := jsonObject{values: make(map[string]any)}
	add := func(key string, value any) {
		existing, ok := object.values[key]
		if !ok {
			object.keys = append(object.keys, key)
			object.values[key] = value
			return
		}
		if items, isList := existing.([]any); isList {
			object.values[key] = append(items, value)
			return
		}
		object.values[key] = []any{existing, value}
	}

	for _, attr := range n.attrs {
		add("@"+attr.Name.Local, attr.Value)
	}
	for _, child := range n.children {
		add(child.name, child.value())
	}
	if text := strings.TrimSpace(n.text.String()); text != "" {
		add("#text", text)
	}
	return object
}

// value converts an element to a scalar (text) or an object.
func (n *xmlNode) value() any {
	if len(n.children) == 0 && len(n.attrs) == 0 {
		return strings.TrimSpace(n.text.String())
	}
	return n.fields().values
}

// stripHeaderBOM removes a UTF-8 BOM from the first header cell if present.
func stripHeaderBOM(headers []string) []string {
	if len(headers) > 0 {
		headers[0] = strings.TrimPrefix(headers[0], utf8BOM)
	}
	return headers
}
