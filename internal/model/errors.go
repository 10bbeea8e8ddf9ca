package model

import "errors"

var (
	// ErrNotFound is returned when a resource is not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when a resource already exists.
	ErrAlreadyExists = errors.New("already exists")
	// ErrNotValid is returned when a resource is not valid.
	ErrNotValid = errors.New("not valid")
	// ErrNotInitialized is returned when the project town directory has not been created.
	ErrNotInitialized = errors.New("not initialized")
	// ErrInvalidState is returned when the pipeline is not in the phase an operation requires.
	ErrInvalidState = errors.New("invalid pipeline state")
	// ErrNothingToDo is returned when an operation has no work to act on. It is not a failure.
	ErrNothingToDo = errors.New("nothing to do")
)
