package service

import "errors"

// Operator-facing logic errors. Network and device failures are reported
// with the remote package's error classes instead.
var (
	ErrNotEditing        = errors.New("editor is not open")
	ErrEditorOpen        = errors.New("editor is already open")
	ErrCommitInFlight    = errors.New("a commit is already in progress")
	ErrConfigNotLoaded   = errors.New("active configuration is not loaded yet")
	ErrMaintenanceActive = errors.New("maintenance mode is active; actuator commands are blocked")
	ErrUnknownCommand    = errors.New("unknown command")
	ErrUnknownField      = errors.New("unknown configuration field")
	ErrNoSession         = errors.New("no active session")
	ErrInvalidSession    = errors.New("invalid or expired session token")
)
