package catalog

import (
	"fmt"
	"strings"

	"github.com/nao1215/catalog/domain/model"
)

// dictionaryField identifies one DictionaryEntry field in a dictionary file header
type dictionaryField int

const (
	fieldTableName dictionaryField = iota
	fieldColumnName
	fieldLogicalTableName
	fieldLogicalColumnName
	fieldDescription
	fieldDataType
	fieldIsPrimaryKey
	fieldIsForeignKey
	fieldIsNullable
)

// dictionaryHeaderAliases maps normalized header names to fields.
// Headers are normalized by lower-casing and dropping '_', '-' and spaces.
var dictionaryHeaderAliases = map[string]dictionaryField{
	"tablename":         fieldTableName,
	"table":             fieldTableName,
	"columnname":        fieldColumnName,
	"column":            fieldColumnName,
	"logicaltablename":  fieldLogicalTableName,
	"logicaltable":      fieldLogicalTableName,
	"logicalcolumnname": fieldLogicalColumnName,
	"logicalcolumn":     fieldLogicalColumnName,
	"description":       fieldDescription,
	"datatype":          fieldDataType,
	"type":              fieldDataType,
	"isprimarykey":      fieldIsPrimaryKey,
	"primarykey":        fieldIsPrimaryKey,
	"isforeignkey":      fieldIsForeignKey,
	"foreignkey":        fieldIsForeignKey,
	"isnullable":        fieldIsNullable,
	"nullable":          fieldIsNullable,
}

func normalizeHeader(header string) string {
	return strings.NewReplacer("_", "", "-", "", " ", "").Replace(strings.ToLower(strings.TrimSpace(header)))
}

// DictionaryFromSample converts a parsed dictionary file into entries, one per row.
//
// Columns are recognized by header name ("table_name", "tableName" and "table" all
// name the table). A table and a column header are required; unknown headers are
// ignored. Boolean cells accept true/false, yes/no, y/n and 1/0; a blank cell is false.
// Rows whose table or column cell is blank are skipped.
func DictionaryFromSample(sample *Sample) ([]model.DictionaryEntry, error) {
	if err := sample.Validate(); err != nil {
		return nil, err
	}

	positions := make(map[dictionaryField]int)
	for i, header := range sample.ColumnNames {
		field, ok := dictionaryHeaderAliases[normalizeHeader(header)]
		if !ok {
			continue
		}
		if _, dup := positions[field]; !dup {
			positions[field] = i
		}
	}
	if _, ok := positions[fieldTableName]; !ok {
		return nil, fmt.Errorf("%w: dictionary has no table name column", ErrInvalidShape)
	}
	if _, ok := positions[fieldColumnName]; !ok {
		return nil, fmt.Errorf("%w: dictionary has no column name column", ErrInvalidShape)
	}

	entries := make([]model.DictionaryEntry, 0, len(sample.Rows))
	for r, row := range sample.Rows {
		cell := func(field dictionaryField) string {
			i, ok := positions[field]
			if !ok || i >= len(row) || row[i] == nil {
				return ""
			}
			return strings.TrimSpace(renderValue(row[i]))
		}
		flag := func(field dictionaryField) (bool, error) {
			v, err := ParseFlag(cell(field))
			if err != nil {
				return false, fmt.Errorf("%w: row %d: %w", ErrInvalidData, r+1, err)
			}
			return v, nil
		}

		entry := model.DictionaryEntry{
			TableName:         cell(fieldTableName),
			ColumnName:        cell(fieldColumnName),
			LogicalTableName:  cell(fieldLogicalTableName),
			LogicalColumnName: cell(fieldLogicalColumnName),
			Description:       cell(fieldDescription),
			DataType:          cell(fieldDataType),
		}
		if entry.TableName == "" || entry.ColumnName == "" {
			continue
		}

		var err error
		if entry.IsPrimaryKey, err = flag(fieldIsPrimaryKey); err != nil {
			return nil, err
		}
		if entry.IsForeignKey, err = flag(fieldIsForeignKey); err != nil {
			return nil, err
		}
		if entry.IsNullable, err = flag(fieldIsNullable); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if err := validateEntries(entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// ParseFlag parses the boolean spellings found in hand-written dictionaries.
func ParseFlag(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "yes", "y", "1", "t":
		return true, nil
	case "", "false", "no", "n", "0", "f":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean %q", value)
	}
}

