package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// HistoryPoint is one entry of the device's recent history window.
type HistoryPoint struct {
	ID          int        `json:"id,omitempty"`
	Timestamp   DeviceTime `json:"timestamp"`
	Temperature float64    `json:"temperature"`
	Humidity    float64    `json:"humidity"`
	Status      Status     `json:"status"`
}

// DeviceTime accepts the device's ISO timestamps, which may omit the zone.
// Zone-less values are taken as UTC.
type DeviceTime struct {
	time.Time
}

var deviceTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseDeviceTime parses s with the layouts the device is known to emit.
func ParseDeviceTime(s string) (time.Time, error) {
	for _, layout := range deviceTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid device timestamp %q", s)
}

func (t *DeviceTime) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := ParseDeviceTime(s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

func (t DeviceTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}
