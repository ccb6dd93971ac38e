package models

// Configuration is the device configuration exchanged via /settings.
type Configuration struct {
	PresetName           string  `json:"preset_name"`
	TargetTempLow        float64 `json:"target_temp_low"`
	TargetTempHigh       float64 `json:"target_temp_high"`
	TargetHumLow         float64 `json:"target_hum_low"`
	TempOffset           float64 `json:"temp_offset"`
	HumOffset            float64 `json:"hum_offset"`
	ServoIntervalSeconds int     `json:"servo_interval"` // seconds, >= 0
	IsMaintenance        bool    `json:"is_maintenance"`
}

// Clone returns an independent copy. Draft and active configurations must
// never alias, so any reference-typed field added here has to be copied too.
func (c *Configuration) Clone() *Configuration {
	if c == nil {
		return nil
	}
	out := *c
	return &out
}

// Interval bounds for the h/m/s editor view.
const (
	MaxIntervalHours   = 99
	MaxIntervalMinutes = 59
	MaxIntervalSeconds = 59

	MaxServoIntervalSeconds = MaxIntervalHours*3600 + MaxIntervalMinutes*60 + MaxIntervalSeconds
)

// IntervalParts is the servo interval decomposed for editing.
type IntervalParts struct {
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
	Seconds int `json:"seconds"`
}

// SplitInterval decomposes seconds into h/m/s, clamped to 00:00:00..99:59:59.
func SplitInterval(seconds int) IntervalParts {
	if seconds < 0 {
		seconds = 0
	}
	if seconds > MaxServoIntervalSeconds {
		seconds = MaxServoIntervalSeconds
	}
	return IntervalParts{
		Hours:   seconds / 3600,
		Minutes: seconds % 3600 / 60,
		Seconds: seconds % 60,
	}
}

// Total recombines the parts as h*3600 + m*60 + s.
func (p IntervalParts) Total() int {
	return p.Hours*3600 + p.Minutes*60 + p.Seconds
}

// Clamp forces each part into its editing range.
func (p IntervalParts) Clamp() IntervalParts {
	return IntervalParts{
		Hours:   clampInt(p.Hours, 0, MaxIntervalHours),
		Minutes: clampInt(p.Minutes, 0, MaxIntervalMinutes),
		Seconds: clampInt(p.Seconds, 0, MaxIntervalSeconds),
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
