package services

import (
	"errors"
	"fmt"
)

// Workflow error kinds. Controllers map these to HTTP statuses; StaleVersion
// and LoadExceeded are recoverable by the caller (re-read + retry, or
// override / alternate candidate).
var (
	ErrInvalidTransition   = errors.New("invalid transition")
	ErrMissingAssignment   = errors.New("approve-for-review requires an associate editor")
	ErrStaleVersion        = errors.New("stale submission version")
	ErrReviewerUnavailable = errors.New("reviewer unavailable")
	ErrLoadExceeded        = errors.New("reviewer load exceeded")
	ErrNotFound            = errors.New("record not found")
	ErrQuorumNotReached    = errors.New("review quorum not reached")
	ErrDuplicateAssignment = errors.New("reviewer already has an active assignment for this submission")
	ErrAssignmentClosed    = errors.New("assignment is already closed")
)

// WorkflowError wraps a sentinel with the context a dashboard needs to
// self-correct: the submission's current status and the decisions legal
// from it for the caller's role.
type WorkflowError struct {
	Err              error
	CurrentStatus    string
	CurrentVersion   int
	AllowedDecisions []string
}

func (e *WorkflowError) Error() string {
	if e.CurrentStatus == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s (current status: %s)", e.Err.Error(), e.CurrentStatus)
}

func (e *WorkflowError) Unwrap() error {
	return e.Err
}
