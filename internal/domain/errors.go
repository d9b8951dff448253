package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransition is returned when a state machine is used out of order,
	// e.g. closing a session that is not in progress or moving a deleted level.
	ErrInvalidTransition = errors.New("invalid state transition")
	// ErrAlreadyFinished is returned when an answer is submitted twice for one attempt.
	ErrAlreadyFinished = errors.New("question already finished")
	// ErrNoQuestionAvailable indicates the categories bound to a level hold no usable question.
	ErrNoQuestionAvailable = errors.New("no question available")
	// ErrNotFound is the parent of all entity lookup failures.
	ErrNotFound = errors.New("not found")
	// ErrPermissionDenied is returned by capability and ownership checks.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrInvalidInput wraps validation failures of admin input.
	ErrInvalidInput = errors.New("invalid input")
)

var (
	ErrGameNotFound        = fmt.Errorf("game %w", ErrNotFound)
	ErrLevelNotFound       = fmt.Errorf("level %w", ErrNotFound)
	ErrSessionNotFound     = fmt.Errorf("game session %w", ErrNotFound)
	ErrQuestionNotFound    = fmt.Errorf("question %w", ErrNotFound)
	ErrMdlQuestionNotFound = fmt.Errorf("question bank entry %w", ErrNotFound)
	ErrFileNotFound        = fmt.Errorf("file %w", ErrNotFound)
)
