package models

// Status is the device-side classification of the current climate.
type Status string

const (
	StatusWaiting Status = "WAITING"
	StatusOptimal Status = "OPTIMAL"
	StatusWarning Status = "WARNING"
	StatusDanger  Status = "DANGER"
)

// Reading is a single telemetry sample as reported by GET /latest.
type Reading struct {
	Temperature   float64 `json:"temperature"`   // °C
	Humidity      float64 `json:"humidity"`      // %RH
	Status        Status  `json:"status"`        // WAITING | OPTIMAL | WARNING | DANGER
	IsMaintenance bool    `json:"is_maintenance"`
}

// WaitingReading is what the dashboard shows before the first successful poll.
func WaitingReading() Reading {
	return Reading{Status: StatusWaiting}
}
