package models

// Preset is a named species profile used to prefill the draft configuration.
type Preset struct {
	Name                 string  `json:"name"`
	TargetTempLow        float64 `json:"target_temp_low"`
	TargetTempHigh       float64 `json:"target_temp_high"`
	TargetHumLow         float64 `json:"target_hum_low"`
	ServoIntervalSeconds int     `json:"servo_interval"`
}
