// Package model provides domain model for catalog
package model

import "errors"

var (
	// ErrUnknownColumn is returned when a schema does not contain the requested column
	ErrUnknownColumn = errors.New("unknown column")

	// ErrInvalidTypeTag is returned when a type tag is not one of the known tags
	ErrInvalidTypeTag = errors.New("invalid type tag")

	// ErrNotCandidate is returned when resolving a match to an entry that is not one of its candidates
	ErrNotCandidate = errors.New("dictionary column is not a match candidate")
)
