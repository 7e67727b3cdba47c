package rule

import (
	"fmt"
	"strings"
)

// ValidationError reports a malformed rule at save time. The store never
// persists a rule that fails validation.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid rule: %s", strings.Join(e.Problems, "; "))
}

// EvaluationError reports a runtime evaluation failure for a single
// condition (malformed regex, unsupported operator). The condition is
// treated as non-matching; the batch continues.
type EvaluationError struct {
	Field    Field
	Operator Operator
	Reason   string
	Err      error
}

func (e *EvaluationError) Error() string {
	msg := fmt.Sprintf("evaluation failed for %s %s: %s", e.Field, e.Operator, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *EvaluationError) Unwrap() error {
	return e.Err
}

// ReferenceError reports an action pointing at a resource that no longer
// exists, e.g. assignCategory to a deleted category.
type ReferenceError struct {
	Resource string
	ID       string
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("%s %q does not exist", e.Resource, e.ID)
}

// PersistenceError reports a storage failure while writing item mutations
// or rule statistics after retries were exhausted.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failed (%s): %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
