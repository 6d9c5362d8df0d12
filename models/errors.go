package models

import (
	"errors"
	"fmt"
)

// Failure kinds of a report run. All of them abort the run before any
// report text is produced.
var (
	ErrMalformedArchive      = errors.New("malformed archive")
	ErrMalformedTable        = errors.New("malformed table")
	ErrNoMatchingInstrument  = errors.New("no matching instrument")
	ErrAmbiguousSnapshot     = errors.New("ambiguous snapshot")
	ErrIncompleteAggregation = errors.New("incomplete aggregation")
)

// IncompleteAggregationError names the field that kept a category from
// being summed.
type IncompleteAggregationError struct {
	Category Category
	Field    string
}

func (e *IncompleteAggregationError) Error() string {
	return fmt.Sprintf("%s: %s field %s is unavailable", ErrIncompleteAggregation, e.Category, e.Field)
}

func (e *IncompleteAggregationError) Unwrap() error {
	return ErrIncompleteAggregation
}
