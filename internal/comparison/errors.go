package comparison

import (
	"errors"
	"fmt"
)

// ErrNoPredictions is returned when a source has no predicted column to analyze.
var ErrNoPredictions = errors.New("no predictions available for model")

// MalformedInputError reports a missing or unparseable required field.
// Row is -1 when the problem is not tied to a single row.
type MalformedInputError struct {
	Source string
	Column string
	Row    int
	Reason string
	Err    error
}

func (e *MalformedInputError) Error() string {
	msg := fmt.Sprintf("malformed input for %q", e.Source)
	if e.Column != "" {
		msg += fmt.Sprintf(" column %q", e.Column)
	}
	if e.Row >= 0 {
		msg += fmt.Sprintf(" row %d", e.Row)
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedInputError) Unwrap() error { return e.Err }

// SchemaError reports a source table that cannot take part in a merge.
type SchemaError struct {
	Source string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Source == "" {
		return "schema error: " + e.Reason
	}
	return fmt.Sprintf("schema error for %q: %s", e.Source, e.Reason)
}

// Warning is a non-fatal degradation surfaced to the user.
type Warning struct {
	Source  string `json:"source"`
	Column  string `json:"column,omitempty"`
	Message string `json:"message"`
}

func (w Warning) String() string {
	if w.Column == "" {
		return fmt.Sprintf("%s: %s", w.Source, w.Message)
	}
	return fmt.Sprintf("%s (%s): %s", w.Source, w.Column, w.Message)
}
