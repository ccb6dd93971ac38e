package service

import "time"

// LogFilter selects operator events by time range and type.
type LogFilter struct {
	From time.Time // inclusive; zero means no lower bound
	To   time.Time // inclusive; zero means no upper bound
	Type string    // "", "SIGN_IN", "CONFIG_COMMIT", "COMMAND", ...
}

// HistoryFilter selects archived history points.
type HistoryFilter struct {
	From  time.Time // inclusive; zero means no lower bound
	To    time.Time // inclusive; zero means no upper bound
	Limit int       // 0 means the archive default
}

// SessionInfo describes the signed-in operator.
type SessionInfo struct {
	Active      bool      `json:"active"`
	Username    string    `json:"username,omitempty"`
	ExpiresAt   time.Time `json:"expires_at,omitempty"`
	AccessToken string    `json:"access_token,omitempty"` // SignIn only
}
