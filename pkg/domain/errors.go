package domain

import (
	"fmt"
	"strings"
)

// FieldViolation records a single failed validation rule on a named field.
type FieldViolation struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// ValidationError aggregates every field violation found in a payload. The
// validator never stops at the first failure, so callers always see the full
// list of problems in one pass.
type ValidationError struct {
	Violations []FieldViolation
}

func (e ValidationError) Error() string {
	if len(e.Violations) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		fields = append(fields, v.Field)
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(fields, ", "))
}

// ByField groups the violation messages per field name.
func (e ValidationError) ByField() map[string][]string {
	out := make(map[string][]string, len(e.Violations))
	for _, v := range e.Violations {
		out[v.Field] = append(out[v.Field], v.Message)
	}
	return out
}

// NotFoundError is returned when a referenced id does not exist.
type NotFoundError struct {
	Entity EntityType
	ID     string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// ForbiddenError is returned when the caller is not allowed to perform the
// requested mutation (only the owning user may ever mutate a proposal).
type ForbiddenError struct {
	Reason string
}

func (e ForbiddenError) Error() string {
	if e.Reason == "" {
		return "forbidden"
	}
	return "forbidden: " + e.Reason
}

// InvalidStateError is returned when a mutation is attempted outside the
// Pending state.
type InvalidStateError struct {
	Entity EntityType
	ID     string
	Status Status
}

func (e InvalidStateError) Error() string {
	return fmt.Sprintf("%s %s is %s; only Pending records may be modified", e.Entity, e.ID, e.Status)
}

// ConflictError is returned when a concurrent identity-resolution race could
// not be settled by the insert-or-fetch retry.
type ConflictError struct {
	Entity EntityType
	Key    string
}

func (e ConflictError) Error() string {
	return fmt.Sprintf("%s identity conflict on %q", e.Entity, e.Key)
}
