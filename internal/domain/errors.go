package domain

import "errors"

var (
	// ErrInvalidConfig marks a configuration error detected at construction time.
	// Wrapped with context by the component that detects it.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrNotImplemented marks an evaluation path that is accepted syntactically
	// but not implemented (American payoff evaluation).
	ErrNotImplemented = errors.New("not implemented")
)
