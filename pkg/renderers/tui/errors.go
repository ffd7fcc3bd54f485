package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("tui: aborted")
	// ErrCancelled is returned by Run when the user chose to cancel the
	// wizard and the controller accepted it.
	ErrCancelled = errors.New("tui: wizard cancelled")
)
