package buyer

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrNotFound            = errors.New("buyer not found")
	ErrUnauthorized        = errors.New("buyer belongs to another user")
	ErrConflict            = errors.New("buyer was modified concurrently")
	ErrValidation          = errors.New("validation failed")
	ErrConstraintViolation = errors.New("buyer violates storage constraints")
)

// ValidationError carries per-field messages keyed by attribute name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Messages(), "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Messages lists the field errors as "field: message" strings in key order.
func (e *ValidationError) Messages() []string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+": "+e.Fields[k])
	}
	return out
}
