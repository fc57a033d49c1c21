package domain

import (
	"errors"
	"fmt"
)

// Validation rejections. The operation is a no-op; the UI decides whether to surface it.
var (
	ErrBlankName        = errors.New("name must not be blank")
	ErrIncompleteSet    = errors.New("set is missing required values")
	ErrSetCompleted     = errors.New("set is already completed")
	ErrUnknownField     = errors.New("field does not belong to this exercise kind")
	ErrNoExercises      = errors.New("session has no exercises")
	ErrNoCompletedSets  = errors.New("session has no completed sets")
	ErrInvalidSetting   = errors.New("invalid setting value")
	ErrInvalidDirection = errors.New("direction must be -1 or 1")
	ErrWrongState       = errors.New("operation not allowed in current session state")
	ErrLastFolder       = errors.New("cannot delete the last remaining folder")
	ErrDuplicateName    = errors.New("name already exists")
)

// Conflict warnings. These need an explicit user decision before proceeding.
var (
	ErrSessionConflict = errors.New("a session with exercises is already in progress")
	ErrIncompleteSets  = errors.New("session has incomplete sets")
)

// Not-found rejections.
var (
	ErrNotFound         = errors.New("record not found")
	ErrTemplateNotFound = errors.New("workout template not found")
	ErrFolderNotFound   = errors.New("folder not found")
	ErrExerciseNotFound = errors.New("exercise not found")
	ErrIndexOutOfRange  = errors.New("index out of range")
	ErrNoActiveSession  = errors.New("no active session")
	ErrNoPendingStart   = errors.New("no pending session start")
)

// IncompleteSetsError is returned by Finish when some sets are not completed and
// the caller has not confirmed that they may be dropped.
type IncompleteSetsError struct {
	Incomplete int
	Completed  int
}

func (e *IncompleteSetsError) Error() string {
	return fmt.Sprintf("%d incomplete sets will be dropped (%d completed)", e.Incomplete, e.Completed)
}

func (e *IncompleteSetsError) Unwrap() error { return ErrIncompleteSets }

// IsValidation reports whether err is a validation rejection.
func IsValidation(err error) bool {
	return errors.Is(err, ErrBlankName) ||
		errors.Is(err, ErrIncompleteSet) ||
		errors.Is(err, ErrSetCompleted) ||
		errors.Is(err, ErrUnknownField) ||
		errors.Is(err, ErrNoExercises) ||
		errors.Is(err, ErrNoCompletedSets) ||
		errors.Is(err, ErrInvalidSetting) ||
		errors.Is(err, ErrInvalidDirection) ||
		errors.Is(err, ErrWrongState) ||
		errors.Is(err, ErrLastFolder) ||
		errors.Is(err, ErrDuplicateName)
}

// IsConflict reports whether err requires user confirmation.
func IsConflict(err error) bool {
	return errors.Is(err, ErrSessionConflict) || errors.Is(err, ErrIncompleteSets)
}

// IsNotFound reports whether err refers to something that no longer exists.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrTemplateNotFound) ||
		errors.Is(err, ErrFolderNotFound) ||
		errors.Is(err, ErrExerciseNotFound) ||
		errors.Is(err, ErrIndexOutOfRange) ||
		errors.Is(err, ErrNoActiveSession) ||
		errors.Is(err, ErrNoPendingStart)
}
