package service

import (
	"context"

	"smart_hatchery/internal/models"
)

// Authorization covers the operator session.
type Authorization interface {
	SignIn(ctx context.Context, creds models.Credentials) (SessionInfo, error)
	SignUp(ctx context.Context, creds models.Credentials) (string, error)
	SignOut(ctx context.Context) error
	Authorize(token string) (string, error)
	SessionStatus() SessionInfo
}

// Monitoring exposes read-only dashboard state.
type Monitoring interface {
	Snapshot() (models.DashboardSnapshot, error)
	History() ([]models.HistoryPoint, error)
}

// Editor stages configuration changes and commits them.
type Editor interface {
	OpenEditor() (models.EditorView, error)
	EditorView() (models.EditorView, error)
	ApplyPreset(name string) (models.EditorView, error)
	EditFields(fields map[string]any) (models.EditorView, error)
	CancelEditor() error
	CommitEditor(ctx context.Context) (models.Configuration, error)
}

// Control sends gated actuator commands.
type Control interface {
	SendCommand(ctx context.Context, name string) error
	ExitMaintenance(ctx context.Context) (models.Configuration, error)
	Commands() []string
	Presets() []models.Preset
}

// EventLog exposes the operator audit log.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.OperatorEvent, error)
	EventRecorder
}

// Archive serves history kept beyond the device's window.
type Archive interface {
	Range(ctx context.Context, f HistoryFilter) ([]models.HistoryPoint, error)
	HistoryArchiver
}

// Service aggregates everything the HTTP layer calls.
type Service struct {
	Authorization
	Monitoring
	Editor
	Control
	EventLog
	Archive
}

// NewService exposes one console through all facets.
func NewService(console *ConsoleService, events EventLog, archive Archive) *Service {
	return &Service{
		Authorization: console,
		Monitoring:    console,
		Editor:        console,
		Control:       console,
		EventLog:      events,
		Archive:       archive,
	}
}
