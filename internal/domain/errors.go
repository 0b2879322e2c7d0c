package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// NotFoundError represents a missing owner or entity row.
type NotFoundError struct {
	Resource string
	ID       int64
	// Message replaces the generated text when set.
	Message string
}

func (e NotFoundError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Resource == "" {
		return "not found"
	}
	if e.ID == 0 {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %d not found", e.Resource, e.ID)
}

// Is enables errors.Is matching on NotFoundError regardless of resource.
func (e NotFoundError) Is(target error) bool {
	_, ok := target.(NotFoundError)
	if ok {
		return true
	}
	_, ok = target.(*NotFoundError)
	return ok
}

// ErrNotFound is the sentinel error for missing resources.
var ErrNotFound = NotFoundError{}

var (
	// ErrDuplicatePair is returned by an association store when asked to insert
	// an (owner, member) pair that already exists. The sync service treats it as
	// a retryable conflict.
	ErrDuplicatePair = errors.New("association pair already exists")

	// ErrConflict is surfaced when a sync kept hitting duplicate pairs after retrying.
	ErrConflict = errors.New("concurrent modification, please retry")

	// ErrStoreUnavailable wraps transport/connection failures of the persistence layer.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrAlreadyExists is used for unique-name style conflicts on base entities.
	ErrAlreadyExists = errors.New("already exists")
)

// ValidationError describes a malformed request or desired member ids that
// do not resolve to existing rows.
type ValidationError struct {
	Field      string
	Message    string
	InvalidIDs []int64
	// Fields carries per-field messages when several inputs failed at once.
	Fields map[string][]string
}

// FieldErrors returns every message keyed by field, folding Field/Message in.
func (e *ValidationError) FieldErrors() map[string][]string {
	out := make(map[string][]string, len(e.Fields)+1)
	for k, v := range e.Fields {
		out[k] = append([]string(nil), v...)
	}
	if e.Field != "" {
		out[e.Field] = append(out[e.Field], e.Error())
	}
	return out
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	if e.Field == "" && e.Message == "" && len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, strings.Join(e.Fields[k], "; "))
		}
		return strings.Join(parts, "; ")
	}
	if e.Field != "" {
		b.WriteString(e.Field)
		b.WriteString(": ")
	}
	if e.Message != "" {
		b.WriteString(e.Message)
	} else {
		b.WriteString("validation failed")
	}
	if len(e.InvalidIDs) > 0 {
		ids := make([]string, len(e.InvalidIDs))
		for i, id := range e.InvalidIDs {
			ids[i] = fmt.Sprint(id)
		}
		b.WriteString(" (invalid ids: ")
		b.WriteString(strings.Join(ids, ", "))
		b.WriteString(")")
	}
	return b.String()
}

// NewInvalidIDsError builds the ValidationError returned when member ids do not exist.
func NewInvalidIDsError(field string, ids []int64) *ValidationError {
	sorted := append([]int64(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return &ValidationError{
		Field:      field,
		Message:    "the selected ids are invalid",
		InvalidIDs: sorted,
	}
}

// IsValidation reports whether err carries a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
