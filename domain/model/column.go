package model

import "fmt"

// TypeTag is the semantic type inferred for a column.
type TypeTag string

const (
	// TypeInteger is a whole number written without a decimal point
	TypeInteger TypeTag = "integer"
	// TypeNumber is a non-integer numeric value
	TypeNumber TypeTag = "number"
	// TypeBoolean is true or false
	TypeBoolean TypeTag = "boolean"
	// TypeDate is a date, time or timestamp
	TypeDate TypeTag = "date"
	// TypeArray is a sequence value from a structured source (JSON, XML)
	TypeArray TypeTag = "array"
	// TypeObject is a keyed value from a structured source (JSON, XML)
	TypeObject TypeTag = "object"
	// TypeString is the fallback for anything else
	TypeString TypeTag = "string"
	// TypeMixed is used when a sample resolves to more than one tag
	TypeMixed TypeTag = "mixed"
)

// typeTags lists every valid tag in declaration order.
var typeTags = []TypeTag{
	TypeInteger,
	TypeNumber,
	TypeBoolean,
	TypeDate,
	TypeArray,
	TypeObject,
	TypeString,
	TypeMixed,
}

// TypeTags returns all valid type tags.
func TypeTags() []TypeTag {
	tags := make([]TypeTag, len(typeTags))
	copy(tags, typeTags)
	return tags
}

// IsValid reports whether the tag is one of the known tags.
func (t TypeTag) IsValid() bool {
	for _, tag := range typeTags {
		if t == tag {
			return true
		}
	}
	return false
}

// String returns the tag name.
func (t TypeTag) String() string {
	return string(t)
}

// ParseTypeTag converts a string to a TypeTag.
func ParseTypeTag(s string) (TypeTag, error) {
	tag := TypeTag(s)
	if !tag.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidTypeTag, s)
	}
	return tag, nil
}

// Column describes one column of an ingested file.
type Column struct {
	// Name is the column name as it appears in the source header.
	Name string `json:"name" yaml:"name"`
	// Type is the inferred (or user-reclassified) type.
	Type TypeTag `json:"type" yaml:"type"`
	// Comment is free text attached by the caller.
	Comment string `json:"comment" yaml:"comment"`
	// Sample holds the non-empty values the type was inferred from, rendered as text.
	Sample []string `json:"sample,omitempty" yaml:"sample,omitempty"`
}

// Schema is an ordered list of columns. Column names are unique.
type Schema []Column

// Names returns the column names in order.
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, c := range s {
		names[i] = c.Name
	}
	return names
}

// Column returns the column with the given name.
func (s Schema) Column(name string) (Column, bool) {
	for _, c := range s {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Reclassify overrides the type of a column.
func (s Schema) Reclassify(name string, tag TypeTag) error {
	if !tag.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidTypeTag, tag)
	}
	for i := range s {
		if s[i].Name == name {
			s[i].Type = tag
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownColumn, name)
}

// Equal compares two schemas, ignoring samples.
func (s Schema) Equal(other Schema) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i].Name != other[i].Name || s[i].Type != other[i].Type || s[i].Comment != other[i].Comment {
			return false
		}
	}
	return true
}
