package game

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned for unknown session ids.
var ErrSessionNotFound = errors.New("session not found")

// ParseError means the generator response could not be coerced into a
// structurally valid task batch.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("task payload invalid: %s", e.Reason)
}

// CountMismatchError means a batch violated the exact count or exact
// vulnerable-count contract. It always names both numbers.
type CountMismatchError struct {
	What     string
	Expected int
	Actual   int
}

func (e *CountMismatchError) Error() string {
	return fmt.Sprintf("generator returned an unexpected %s: %d (expected %d)", e.What, e.Actual, e.Expected)
}

// UnknownTaskError rejects an answer for a task id outside the session.
type UnknownTaskError struct {
	TaskID string
}

func (e *UnknownTaskError) Error() string {
	return fmt.Sprintf("unknown task id: %s", e.TaskID)
}

// DuplicateAnswerError rejects a submission batch that addresses the same
// task twice.
type DuplicateAnswerError struct {
	TaskID string
}

func (e *DuplicateAnswerError) Error() string {
	return fmt.Sprintf("duplicate answer for task id: %s", e.TaskID)
}
