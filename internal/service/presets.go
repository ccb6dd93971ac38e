package service

import (
	"strings"

	"smart_hatchery/internal/models"
)

// Reference species profiles.
var defaultPresets = []models.Preset{
	{Name: "AYAM", TargetTempLow: 37.5, TargetTempHigh: 38.0, TargetHumLow: 50.0, ServoIntervalSeconds: 7200},
	{Name: "BEBEK", TargetTempLow: 37.0, TargetTempHigh: 37.5, TargetHumLow: 60.0, ServoIntervalSeconds: 10800},
}

// PresetCatalog is a read-only lookup of named profiles.
type PresetCatalog struct {
	byName map[string]models.Preset
	order  []string
}

// NewPresetCatalog builds a catalog; later entries with the same name win.
func NewPresetCatalog(presets ...models.Preset) *PresetCatalog {
	c := &PresetCatalog{byName: make(map[string]models.Preset, len(presets))}
	for _, p := range presets {
		key := normalizePresetName(p.Name)
		if key == "" {
			continue
		}
		if _, seen := c.byName[key]; !seen {
			c.order = append(c.order, key)
		}
		p.Name = key
		c.byName[key] = p
	}
	return c
}

func DefaultPresetCatalog() *PresetCatalog {
	return NewPresetCatalog(defaultPresets...)
}

func (c *PresetCatalog) Resolve(name string) (models.Preset, bool) {
	p, ok := c.byName[normalizePresetName(name)]
	return p, ok
}

// List returns the presets in catalog order.
func (c *PresetCatalog) List() []models.Preset {
	out := make([]models.Preset, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.byName[name])
	}
	return out
}

func normalizePresetName(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
