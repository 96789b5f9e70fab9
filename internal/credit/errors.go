package credit

import (
	"sort"
	"strings"
)

// ValidationError reports every rejected field of a payload at once.
type ValidationError struct {
	Message string
	Fields  map[string][]string
}

// NewValidationError builds an empty validation error with the given summary.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message, Fields: map[string][]string{}}
}

// Add records a message for field.
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = map[string][]string{}
	}
	e.Fields[field] = append(e.Fields[field], message)
}

// Has reports whether field already carries an error.
func (e *ValidationError) Has(field string) bool {
	_, ok := e.Fields[field]
	return ok
}

// Empty reports whether no field errors were collected.
func (e *ValidationError) Empty() bool {
	return e == nil || len(e.Fields) == 0
}

// FieldNames returns the rejected field paths in sorted order.
func (e *ValidationError) FieldNames() []string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Merge appends all field errors from other.
func (e *ValidationError) Merge(other *ValidationError) {
	if other == nil {
		return
	}
	for field, messages := range other.Fields {
		for _, message := range messages {
			e.Add(field, message)
		}
	}
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "invalid fields: " + strings.Join(e.FieldNames(), ", ")
}
