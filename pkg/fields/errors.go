package fields

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownFieldType is matched by every UnknownFieldTypeError.
	ErrUnknownFieldType = errors.New("fields: unknown field type")
	// ErrMissingItems is returned for array properties without an items fragment.
	ErrMissingItems = errors.New("fields: array property requires items")
	// ErrUnresolvedReference is returned when an items "$$ref" names no definition
	// and carries no inline properties.
	ErrUnresolvedReference = errors.New("fields: unresolved reference")
	// ErrCyclicReference is returned when item references loop back onto
	// themselves. Fields are built eagerly so a cycle would never terminate.
	ErrCyclicReference = errors.New("fields: cyclic reference")
	// ErrMaxDepth is returned when nesting exceeds the configured depth.
	ErrMaxDepth = errors.New("fields: maximum nesting depth exceeded")
)

// UnknownFieldTypeError reports a type tag with no registered variant.
type UnknownFieldTypeError struct {
	Tag string
	Key string
}

func (e *UnknownFieldTypeError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("fields: unknown field type %q", e.Tag)
	}
	return fmt.Sprintf("fields: unknown field type %q for property %q", e.Tag, e.Key)
}

// Is lets errors.Is match ErrUnknownFieldType.
func (e *UnknownFieldTypeError) Is(target error) bool {
	return target == ErrUnknownFieldType
}
