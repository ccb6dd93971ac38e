package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"

	"smart_hatchery/internal/models"

	"github.com/spf13/cast"
)

// Draft fields accepted by EditFields.
const (
	FieldPresetName      = "preset_name"
	FieldTargetTempLow   = "target_temp_low"
	FieldTargetTempHigh  = "target_temp_high"
	FieldTargetHumLow    = "target_hum_low"
	FieldTempOffset      = "temp_offset"
	FieldHumOffset       = "hum_offset"
	FieldIsMaintenance   = "is_maintenance"
	FieldIntervalHours   = "interval_hours"
	FieldIntervalMinutes = "interval_minutes"
	FieldIntervalSeconds = "interval_seconds"
)

// ConfigWriter persists a configuration on the device.
type ConfigWriter interface {
	SetConfiguration(ctx context.Context, cfg models.Configuration) error
}

// StagingStore holds the active configuration and, while the editor is
// open, a draft copy plus its h/m/s interval view. The lock is never held
// across a device call.
type StagingStore struct {
	presets *PresetCatalog

	mu         sync.Mutex
	active     *models.Configuration
	draft      *models.Configuration
	interval   models.IntervalParts
	committing bool
}

func NewStagingStore(presets *PresetCatalog) *StagingStore {
	if presets == nil {
		presets = DefaultPresetCatalog()
	}
	return &StagingStore{presets: presets}
}

// SetActive replaces the active configuration with a copy of cfg.
func (s *StagingStore) SetActive(cfg *models.Configuration) {
	s.mu.Lock()
	s.active = cfg.Clone()
	s.mu.Unlock()
}

// Active returns a copy of the active configuration, or nil if unset.
func (s *StagingStore) Active() *models.Configuration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active.Clone()
}

func (s *StagingStore) Editing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft != nil
}

// Open starts an editor session with draft = copy of active.
func (s *StagingStore) Open() (models.EditorView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draft != nil {
		return models.EditorView{}, ErrEditorOpen
	}
	if s.active == nil {
		return models.EditorView{}, ErrConfigNotLoaded
	}
	s.draft = s.active.Clone()
	s.interval = models.SplitInterval(s.draft.ServoIntervalSeconds)
	return s.viewLocked(), nil
}

func (s *StagingStore) View() (models.EditorView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draft == nil {
		return models.EditorView{}, ErrNotEditing
	}
	return s.viewLocked(), nil
}

// ApplyPreset copies a preset's targets and interval into the draft.
// Offsets and the maintenance flag are kept. An unknown name changes
// nothing and is not an error.
func (s *StagingStore) ApplyPreset(name string) (models.EditorView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.mutableLocked(); err != nil {
		return models.EditorView{}, err
	}
	p, ok := s.presets.Resolve(name)
	if !ok {
		return s.viewLocked(), nil
	}
	s.draft.PresetName = p.Name
	s.draft.TargetTempLow = p.TargetTempLow
	s.draft.TargetTempHigh = p.TargetTempHigh
	s.draft.TargetHumLow = p.TargetHumLow
	s.draft.ServoIntervalSeconds = p.ServoIntervalSeconds
	s.interval = models.SplitInterval(p.ServoIntervalSeconds)
	return s.viewLocked(), nil
}

// EditFields sets draft fields. Numeric input that does not parse becomes
// 0; interval parts are clamped to their ranges. Field names are checked
// before anything is applied.
func (s *StagingStore) EditFields(fields map[string]any) (models.EditorView, error) {
	for name := range fields {
		if !isDraftField(name) {
			return models.EditorView{}, fmt.Errorf("%w: %q", ErrUnknownField, name)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.mutableLocked(); err != nil {
		return models.EditorView{}, err
	}
	for name, value := range fields {
		s.setFieldLocked(name, value)
	}
	return s.viewLocked(), nil
}

// EditField sets a single draft field.
func (s *StagingStore) EditField(name string, value any) (models.EditorView, error) {
	return s.EditFields(map[string]any{name: value})
}

// Cancel discards the draft.
func (s *StagingStore) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.mutableLocked(); err != nil {
		return err
	}
	s.draft = nil
	s.interval = models.IntervalParts{}
	return nil
}

// Commit sends the draft to the device. On success the payload becomes
// active and the editor closes; on failure the draft is left untouched.
func (s *StagingStore) Commit(ctx context.Context, w ConfigWriter) (models.Configuration, error) {
	s.mu.Lock()
	if err := s.mutableLocked(); err != nil {
		s.mu.Unlock()
		return models.Configuration{}, err
	}
	payload := buildPayload(*s.draft, s.interval)
	s.committing = true
	s.mu.Unlock()

	err := w.SetConfiguration(ctx, payload)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.committing = false
	if err != nil {
		return models.Configuration{}, err
	}
	s.active = payload.Clone()
	s.draft = nil
	s.interval = models.IntervalParts{}
	return payload, nil
}

// Promote sends cfg to the device without an editor session and makes it
// active on success. An open draft is left as it is.
func (s *StagingStore) Promote(ctx context.Context, w ConfigWriter, cfg models.Configuration) (models.Configuration, error) {
	s.mu.Lock()
	if s.committing {
		s.mu.Unlock()
		return models.Configuration{}, ErrCommitInFlight
	}
	payload := buildPayload(cfg, models.SplitInterval(cfg.ServoIntervalSeconds))
	s.committing = true
	s.mu.Unlock()

	err := w.SetConfiguration(ctx, payload)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.committing = false
	if err != nil {
		return models.Configuration{}, err
	}
	s.active = payload.Clone()
	return payload, nil
}

func (s *StagingStore) mutableLocked() error {
	if s.draft == nil {
		return ErrNotEditing
	}
	if s.committing {
		return ErrCommitInFlight
	}
	return nil
}

func (s *StagingStore) viewLocked() models.EditorView {
	return models.EditorView{Draft: *s.draft.Clone(), Interval: s.interval}
}

func (s *StagingStore) setFieldLocked(name string, value any) {
	switch name {
	case FieldPresetName:
		s.draft.PresetName = strings.TrimSpace(cast.ToString(value))
	case FieldTargetTempLow:
		s.draft.TargetTempLow = toFloat(value)
	case FieldTargetTempHigh:
		s.draft.TargetTempHigh = toFloat(value)
	case FieldTargetHumLow:
		s.draft.TargetHumLow = toFloat(value)
	case FieldTempOffset:
		s.draft.TempOffset = toFloat(value)
	case FieldHumOffset:
		s.draft.HumOffset = toFloat(value)
	case FieldIsMaintenance:
		s.draft.IsMaintenance = toBool(value)
	case FieldIntervalHours:
		s.interval.Hours = toInt(value)
	case FieldIntervalMinutes:
		s.interval.Minutes = toInt(value)
	case FieldIntervalSeconds:
		s.interval.Seconds = toInt(value)
	}
	s.interval = s.interval.Clamp()
}

func isDraftField(name string) bool {
	switch name {
	case FieldPresetName, FieldTargetTempLow, FieldTargetTempHigh, FieldTargetHumLow,
		FieldTempOffset, FieldHumOffset, FieldIsMaintenance,
		FieldIntervalHours, FieldIntervalMinutes, FieldIntervalSeconds:
		return true
	}
	return false
}

// buildPayload is the last stop before a configuration leaves the client:
// every field is coerced to its declared type and range.
func buildPayload(draft models.Configuration, interval models.IntervalParts) models.Configuration {
	return models.Configuration{
		PresetName:           strings.TrimSpace(draft.PresetName),
		TargetTempLow:        finite(draft.TargetTempLow),
		TargetTempHigh:       finite(draft.TargetTempHigh),
		TargetHumLow:         finite(draft.TargetHumLow),
		TempOffset:           finite(draft.TempOffset),
		HumOffset:            finite(draft.HumOffset),
		ServoIntervalSeconds: interval.Clamp().Total(),
		IsMaintenance:        draft.IsMaintenance,
	}
}

func toFloat(v any) float64 {
	if s, ok := v.(string); ok {
		v = strings.TrimSpace(s)
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0
	}
	return finite(f)
}

func toInt(v any) int {
	return int(toFloat(v))
}

func toBool(v any) bool {
	if s, ok := v.(string); ok {
		v = strings.TrimSpace(s)
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return false
	}
	return b
}

func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
