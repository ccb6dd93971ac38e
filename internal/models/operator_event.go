package models

import "time"

// OperatorEvent is a single audit log entry.
type OperatorEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`        // see Event* constants
	Description string    `json:"description"` // human-readable
	Metadata    any       `json:"metadata,omitempty"`
}

const (
	EventSignIn              = "SIGN_IN"
	EventSignOut             = "SIGN_OUT"
	EventAuthFailure         = "AUTH_FAILURE"
	EventConfigCommit        = "CONFIG_COMMIT"
	EventCommitFailed        = "COMMIT_FAILED"
	EventCommand             = "COMMAND"
	EventCommandRejected     = "COMMAND_REJECTED"
	EventMaintenanceExit     = "MAINTENANCE_EXIT"
	EventMaintenanceMismatch = "MAINTENANCE_MISMATCH"
)
