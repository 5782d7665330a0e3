package graphics

import "errors"

// Failure taxonomy of the graphics core. All of these signal caller
// mistakes and are fatal to the requested operation: nothing is retried
// internally and no partial state is left behind.
var (
	// ErrInvalidState is returned when an operation is not legal in the
	// object's current lifecycle state (command list, render pass).
	ErrInvalidState = errors.New("invalid state")
	// ErrInvalidConfiguration is returned for programming/configuration
	// mistakes: sentinel heap types, attachments without textures,
	// out-of-range sizes.
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrNotFound is returned when a heap or resource is absent at the
	// requested index.
	ErrNotFound = errors.New("not found")
	// ErrUnderflow is returned when popping an empty debug group stack.
	ErrUnderflow = errors.New("underflow")
)
