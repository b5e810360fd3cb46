package catalog

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/nao1215/catalog/domain/model"
)

var (
	// integerPattern matches an optional minus sign followed by digits only.
	// "007" is an integer; leading zeros are kept as written.
	integerPattern = regexp.MustCompile(`^-?\d+$`)
	// numberPattern matches a decimal written with a point. "3.0" is a number, not an integer.
	numberPattern = regexp.MustCompile(`^-?\d+\.\d+$`)
	// isoTimestampPattern matches the timestamp form produced by JSON serializers.
	isoTimestampPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{3}Z$`)
)

// datetimePattern represents a cached datetime pattern with compiled regex
type datetimePattern struct {
	pattern *regexp.Regexp
	formats []string // Multiple formats for the same pattern
}

// Cached datetime patterns, most common first for early termination
var cachedDatetimePatterns = []datetimePattern{
	// ISO8601 formats with timezone
	{
		regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d+)?(Z|[+-]\d{2}:\d{2})$`),
		[]string{time.RFC3339, time.RFC3339Nano},
	},
	// ISO8601 formats without timezone
	{
		regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}(:\d{2}(\.\d+)?)?$`),
		[]string{"2006-01-02T15:04:05", "2006-01-02T15:04:05.000", "2006-01-02T15:04"},
	},
	// ISO8601 date and time with space
	{
		regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}(\.\d+)?$`),
		[]string{"2006-01-02 15:04:05", "2006-01-02 15:04:05.000"},
	},
	// ISO8601 date only
	{
		regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`),
		[]string{"2006-01-02"},
	},
	{
		regexp.MustCompile(`^\d{4}/\d{1,2}/\d{1,2}$`),
		[]string{"2006/1/2", "2006/01/02"},
	},
	// US formats
	{
		regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{4} \d{1,2}:\d{2}:\d{2}( (AM|PM))?$`),
		[]string{"1/2/2006 15:04:05", "1/2/2006 3:04:05 PM", "01/02/2006 15:04:05"},
	},
	{
		regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{4}$`),
		[]string{"1/2/2006", "01/02/2006"},
	},
	// European formats
	{
		regexp.MustCompile(`^\d{1,2}\.\d{1,2}\.\d{4} \d{1,2}:\d{2}:\d{2}$`),
		[]string{"2.1.2006 15:04:05", "02.01.2006 15:04:05"},
	},
	{
		regexp.MustCompile(`^\d{1,2}\.\d{1,2}\.\d{4}$`),
		[]string{"2.1.2006", "02.01.2006"},
	},
	// Time only
	{
		regexp.MustCompile(`^\d{1,2}:\d{2}:\d{2}(\.\d+)?$`),
		[]string{"15:04:05", "15:04:05.000", "3:04:05"},
	},
	{
		regexp.MustCompile(`^\d{1,2}:\d{2}$`),
		[]string{"15:04", "3:04"},
	},
}

// textualDatetimeFormats are layouts with month or weekday names. They have no
// cheap regex, so they are tried directly after the numeric patterns fail.
var textualDatetimeFormats = []string{
	time.RFC1123,
	time.RFC1123Z,
	time.RFC850,
	time.RFC822,
	time.RFC822Z,
	time.ANSIC,
	time.UnixDate,
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
	"02-Jan-2006",
	"Mon, 2 Jan 2006",
	"Mon Jan 2 2006",
}

// Date detection limits
const (
	// MinDatetimeLength is the minimum reasonable length for datetime values
	MinDatetimeLength = 4
	// MaxDatetimeLength is the maximum reasonable length for datetime values
	MaxDatetimeLength = 40
)

// InferType infers the semantic type of a column from its sampled values.
//
// Nil values and strings that are empty after trimming are ignored. If nothing
// remains, the result is model.TypeString: an empty sample carries no evidence,
// and string is the policy default rather than a derived fact.
//
// Every remaining value is classified on its own (see classifyValue). One distinct
// tag across the sample is the column type; more than one yields model.TypeMixed.
func InferType(values []any) model.TypeTag {
	var resolved model.TypeTag
	for _, value := range values {
		if isEmptyValue(value) {
			continue
		}
		tag := classifyValue(value)
		if resolved == "" {
			resolved = tag
			continue
		}
		if tag != resolved {
			return model.TypeMixed
		}
	}
	if resolved == "" {
		return model.TypeString
	}
	return resolved
}

// InferColumn builds a column descriptor from a name and its sampled values.
func InferColumn(name string, values []any) model.Column {
	column := model.Column{
		Name: name,
		Type: InferType(values),
	}
	for _, value := range values {
		if isEmptyValue(value) {
			continue
		}
		column.Sample = append(column.Sample, renderValue(value))
	}
	return column
}

// InferSchema infers one column descriptor per column of the sample, in header order.
// The sample should already be bounded by the parser layer; every row given is used.
func InferSchema(sample *Sample) (model.Schema, error) {
	if err := sample.Validate(); err != nil {
		return nil, err
	}
	schema := make(model.Schema, len(sample.ColumnNames))
	for i, name := range sample.ColumnNames {
		schema[i] = InferColumn(strings.TrimSpace(name), sample.Column(i))
	}
	return schema, nil
}

// isEmptyValue reports whether a value is null or blank text.
func isEmptyValue(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case json.Number:
		return strings.TrimSpace(v.String()) == ""
	default:
		return false
	}
}

// classifyValue determines the type of a single non-empty value.
// Precedence: integer, number, boolean, date, array/object, string.
func classifyValue(value any) model.TypeTag {
	switch v := value.(type) {
	case string:
		return classifyString(strings.TrimSpace(v))
	case json.Number:
		tag := classifyString(v.String())
		if tag != model.TypeString {
			return tag
		}
		// Exponent forms such as 1e5 are still numbers.
		if f, err := v.Float64(); err == nil {
			return classifyFloat(f)
		}
		return tag
	case bool:
		return model.TypeBoolean
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return model.TypeInteger
	case float32:
		return classifyFloat(float64(v))
	case float64:
		return classifyFloat(v)
	case time.Time:
		return model.TypeDate
	case []any:
		return model.TypeArray
	case map[string]any:
		return model.TypeObject
	case []byte:
		return classifyString(strings.TrimSpace(string(v)))
	}

	switch reflect.ValueOf(value).Kind() {
	case reflect.Slice, reflect.Array:
		return model.TypeArray
	case reflect.Map, reflect.Struct:
		return model.TypeObject
	default:
		return classifyString(strings.TrimSpace(fmt.Sprint(value)))
	}
}

// classifyString applies the textual rules to a trimmed value.
func classifyString(value string) model.TypeTag {
	switch {
	case integerPattern.MatchString(value):
		return model.TypeInteger
	case numberPattern.MatchString(value):
		return model.TypeNumber
	case strings.EqualFold(value, "true"), strings.EqualFold(value, "false"):
		return model.TypeBoolean
	case isDatetime(value):
		return model.TypeDate
	default:
		return model.TypeString
	}
}

// classifyFloat classifies a numeric value that is already parsed: whole numbers are integers.
func classifyFloat(f float64) model.TypeTag {
	if !math.IsInf(f, 0) && !math.IsNaN(f) && f == math.Trunc(f) {
		return model.TypeInteger
	}
	return model.TypeNumber
}

// isDatetime checks if a string value represents a date, time or timestamp
func isDatetime(value string) bool {
	if isoTimestampPattern.MatchString(value) {
		return true
	}

	// Quick length-based filtering to avoid regex on obviously non-datetime values
	valueLen := len(value)
	if valueLen < MinDatetimeLength || valueLen > MaxDatetimeLength {
		return false
	}

	// A datetime always contains at least one digit
	if !strings.ContainsAny(value, "0123456789") {
		return false
	}

	for _, dp := range cachedDatetimePatterns {
		if !dp.pattern.MatchString(value) {
			continue
		}
		for _, format := range dp.formats {
			if _, err := time.Parse(format, value); err == nil {
				return true
			}
		}
	}

	for _, format := range textualDatetimeFormats {
		if _, err := time.Parse(format, value); err == nil {
			return true
		}
	}
	return false
}

// renderValue returns the text form of a value for display in a column sample.
func renderValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case time.Time:
		return v.Format(time.RFC3339)
	case []any, map[string]any:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	default:
		return fmt.Sprint(v)
	}
}
