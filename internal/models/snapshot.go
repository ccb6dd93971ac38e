package models

import "time"

// CountdownState is the time left until the next egg turn.
type CountdownState struct {
	SecondsRemaining int    `json:"seconds_remaining"`
	PeriodSeconds    int    `json:"period_seconds"`
	Display          string `json:"display"` // HH:MM:SS
}

// EditorView is a read-only view of an open editor session.
type EditorView struct {
	Draft    Configuration `json:"draft"`
	Interval IntervalParts `json:"interval"`
}

// DashboardSnapshot is a consistent copy of everything the dashboard shows.
// Reading and History always come from the same poll cycle.
type DashboardSnapshot struct {
	Reading    Reading        `json:"reading"`
	History    []HistoryPoint `json:"history"`
	Countdown  CountdownState `json:"countdown"`
	Active     *Configuration `json:"active,omitempty"`
	EditorOpen bool           `json:"editor_open"`
	CanCommand bool           `json:"can_command"`
	Cycle      uint64         `json:"cycle"`
	UpdatedAt  time.Time      `json:"updated_at"`
}
