package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"smart_hatchery/internal/logger"
	"smart_hatchery/internal/metric"
	"smart_hatchery/internal/models"
	"smart_hatchery/internal/remote"
)

const (
	// DefaultTickInterval drives the turn countdown.
	DefaultTickInterval = time.Second

	initialLoadTimeout = 10 * time.Second
)

// CommandSender sends actuator commands to the device.
type CommandSender interface {
	SendCommand(ctx context.Context, name string) error
}

// DeviceAPI is everything a dashboard needs from the device.
type DeviceAPI interface {
	DeviceReader
	ConfigWriter
	CommandSender
}

type DashboardConfig struct {
	PollInterval time.Duration
	TickInterval time.Duration
}

type DashboardDeps struct {
	Device  DeviceAPI
	Presets *PresetCatalog
	Gate    *CommandGate
	Events  EventRecorder   // optional
	Archive HistoryArchiver // optional
	// OnAuthFailure is called when the device rejects the session token.
	// It must not block on Shutdown.
	OnAuthFailure func(err error)
	Log           *logger.Logger
	Metric        *metric.Metric
}

// pendingMaintenance remembers an optimistic maintenance flag until a poll
// cycle started after the commit reports the device's own value.
type pendingMaintenance struct {
	value      bool
	afterCycle uint64
}

// Dashboard is one operator's live session: telemetry, turn countdown,
// configuration staging and gated commands. Start launches the poll and
// tick loops; Shutdown stops both and waits for them.
type Dashboard struct {
	cfg       DashboardConfig
	device    DeviceAPI
	gate      *CommandGate
	events    EventRecorder
	archive   HistoryArchiver
	onAuth    func(err error)
	log       *logger.Logger
	metric    *metric.Metric
	store     *StagingStore
	countdown *Countdown
	poller    *TelemetryPoller

	mu        sync.RWMutex
	reading   models.Reading
	history   []models.HistoryPoint
	lastCycle uint64
	updatedAt time.Time
	pending   *pendingMaintenance

	runMu   sync.Mutex
	runCtx  context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
	closed  bool
}

func NewDashboard(cfg DashboardConfig, deps DashboardDeps) *Dashboard {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	if deps.Gate == nil {
		deps.Gate = NewCommandGate()
	}
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}

	d := &Dashboard{
		cfg:     cfg,
		device:  deps.Device,
		gate:    deps.Gate,
		events:  deps.Events,
		archive: deps.Archive,
		onAuth:  deps.OnAuthFailure,
		log:     log,
		metric:  deps.Metric,
		store:   NewStagingStore(deps.Presets),
		reading: models.WaitingReading(),
		runCtx:  context.Background(),
	}
	d.countdown = NewCountdown(DefaultServoIntervalSeconds, deps.Metric.Countdown)
	d.poller = NewTelemetryPoller(deps.Device, d, PollerOptions{
		Before:        d.ensureActive,
		OnAuthFailure: d.authFailed,
		Log:           log,
		Metric:        deps.Metric,
	})
	return d
}

// Start loads the active configuration once and launches the loops under
// parent. A failed load other than an auth failure is retried by the poller.
func (d *Dashboard) Start(parent context.Context) error {
	d.runMu.Lock()
	defer d.runMu.Unlock()
	if d.closed {
		return ErrNoSession
	}
	if d.started {
		return nil
	}

	loadCtx, cancelLoad := context.WithTimeout(parent, initialLoadTimeout)
	err := d.ensureActive(loadCtx)
	cancelLoad()
	if errors.Is(err, remote.ErrUnauthorized) {
		return err
	}
	if err != nil {
		d.log.Warnw("initial_config_load_failed", "err", err)
	}

	d.runCtx, d.cancel = context.WithCancel(parent)
	d.started = true
	d.wg.Add(2)
	go func() {
		defer d.wg.Done()
		d.poller.Run(d.runCtx, d.cfg.PollInterval)
	}()
	go func() {
		defer d.wg.Done()
		d.countdown.Run(d.runCtx, d.cfg.TickInterval)
	}()
	return nil
}

// Shutdown stops both loops and waits for them. Operations called
// afterwards return ErrNoSession.
func (d *Dashboard) Shutdown() {
	d.runMu.Lock()
	if d.closed {
		d.runMu.Unlock()
		return
	}
	d.closed = true
	if d.cancel != nil {
		d.cancel()
	}
	d.runMu.Unlock()

	d.wg.Wait()
}

func (d *Dashboard) alive() error {
	d.runMu.Lock()
	defer d.runMu.Unlock()
	if d.closed {
		return ErrNoSession
	}
	return nil
}

// bind derives a request context that is also canceled by Shutdown.
func (d *Dashboard) bind(ctx context.Context) (context.Context, context.CancelFunc) {
	d.runMu.Lock()
	runCtx := d.runCtx
	d.runMu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(runCtx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// ensureActive loads the active configuration while it is missing.
func (d *Dashboard) ensureActive(ctx context.Context) error {
	if d.store.Active() != nil {
		return nil
	}
	cfg, err := d.device.GetConfiguration(ctx)
	if err != nil {
		return err
	}
	if cfg == nil {
		return ErrConfigNotLoaded
	}
	d.store.SetActive(cfg)
	d.countdown.Reset(cfg.ServoIntervalSeconds)
	d.log.Infow("active_config_loaded", "preset", cfg.PresetName, "servo_interval", cfg.ServoIntervalSeconds)
	return nil
}

func (d *Dashboard) authFailed(err error) {
	d.record(context.Background(), models.EventAuthFailure, "device rejected session token", map[string]any{"err": err.Error()})
	if d.onAuth != nil {
		d.onAuth(err)
	}
}

// handleActionError routes auth failures of operator actions to the same
// path as poll auth failures.
func (d *Dashboard) handleActionError(err error) {
	if errors.Is(err, remote.ErrUnauthorized) {
		d.authFailed(err)
	}
}

// ApplyTelemetry replaces reading and history together. Results from a
// cycle older than the last applied one are dropped.
func (d *Dashboard) ApplyTelemetry(ctx context.Context, t Telemetry) bool {
	history := make([]models.HistoryPoint, len(t.History))
	copy(history, t.History)

	if d.isClosed() {
		return false
	}

	reading := t.Reading
	d.mu.Lock()
	if t.Cycle <= d.lastCycle {
		d.mu.Unlock()
		return false
	}
	var mismatch *pendingMaintenance
	if p := d.pending; p != nil {
		if t.Cycle <= p.afterCycle {
			// issued before the commit; keep the optimistic flag
			reading.IsMaintenance = p.value
		} else {
			if p.value != reading.IsMaintenance {
				mismatch = p
			}
			d.pending = nil
		}
	}
	d.lastCycle = t.Cycle
	d.reading = reading
	d.history = history
	d.updatedAt = t.FetchedAt
	d.mu.Unlock()

	d.metric.Reading(t.Reading.Temperature, t.Reading.Humidity)

	if mismatch != nil {
		d.log.Warnw("maintenance_flag_mismatch",
			"committed", mismatch.value, "reported", t.Reading.IsMaintenance, "cycle", t.Cycle)
		d.record(ctx, models.EventMaintenanceMismatch, "device did not confirm committed maintenance flag",
			map[string]any{"committed": mismatch.value, "reported": t.Reading.IsMaintenance})
	}
	if d.archive != nil {
		if err := d.archive.Store(ctx, history); err != nil {
			d.metric.ErrorCounter("archive")
			d.log.Warnw("history_archive_failed", "err", err)
		}
	}
	return true
}

func (d *Dashboard) isClosed() bool {
	d.runMu.Lock()
	defer d.runMu.Unlock()
	return d.closed
}

// Snapshot returns a consistent copy of the dashboard state.
func (d *Dashboard) Snapshot() models.DashboardSnapshot {
	active := d.store.Active()

	d.mu.RLock()
	history := make([]models.HistoryPoint, len(d.history))
	copy(history, d.history)
	snap := models.DashboardSnapshot{
		Reading:   d.reading,
		History:   history,
		Cycle:     d.lastCycle,
		UpdatedAt: d.updatedAt,
	}
	d.mu.RUnlock()

	snap.Countdown = d.countdown.State()
	snap.Active = active
	snap.EditorOpen = d.store.Editing()
	snap.CanCommand = d.gate.CanSend(active)
	return snap
}

// History returns the current history window.
func (d *Dashboard) History() []models.HistoryPoint {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]models.HistoryPoint, len(d.history))
	copy(out, d.history)
	return out
}

func (d *Dashboard) Reading() models.Reading {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.reading
}

func (d *Dashboard) Countdown() models.CountdownState {
	return d.countdown.State()
}

func (d *Dashboard) ActiveConfiguration() *models.Configuration {
	return d.store.Active()
}

func (d *Dashboard) OpenEditor() (models.EditorView, error) {
	if err := d.alive(); err != nil {
		return models.EditorView{}, err
	}
	return d.store.Open()
}

func (d *Dashboard) EditorView() (models.EditorView, error) {
	if err := d.alive(); err != nil {
		return models.EditorView{}, err
	}
	return d.store.View()
}

func (d *Dashboard) ApplyPreset(name string) (models.EditorView, error) {
	if err := d.alive(); err != nil {
		return models.EditorView{}, err
	}
	return d.store.ApplyPreset(name)
}

func (d *Dashboard) EditFields(fields map[string]any) (models.EditorView, error) {
	if err := d.alive(); err != nil {
		return models.EditorView{}, err
	}
	return d.store.EditFields(fields)
}

func (d *Dashboard) CancelEditor() error {
	if err := d.alive(); err != nil {
		return err
	}
	return d.store.Cancel()
}

// CommitEditor commits the draft. On success the countdown restarts with
// the committed interval and the displayed reading takes the committed
// maintenance flag until the next poll reports the device's value.
func (d *Dashboard) CommitEditor(ctx context.Context) (models.Configuration, error) {
	if err := d.alive(); err != nil {
		return models.Configuration{}, err
	}
	ctx, done := d.bind(ctx)
	defer done()

	cfg, err := d.store.Commit(ctx, d.device)
	if err != nil {
		if !isLogicError(err) {
			d.metric.Commit("failed")
			d.log.Warnw("config_commit_failed", "err", err)
			d.record(ctx, models.EventCommitFailed, err.Error(), nil)
			d.handleActionError(err)
		}
		return models.Configuration{}, err
	}

	d.countdown.Reset(cfg.ServoIntervalSeconds)
	d.applyOptimisticMaintenance(cfg.IsMaintenance)
	d.metric.Commit("ok")
	d.log.Infow("config_committed", "preset", cfg.PresetName, "servo_interval", cfg.ServoIntervalSeconds,
		"is_maintenance", cfg.IsMaintenance)
	d.record(ctx, models.EventConfigCommit, "configuration committed", cfg)
	return cfg, nil
}

// SendCommand passes name through the command gate and sends it. A
// gated command never reaches the device.
func (d *Dashboard) SendCommand(ctx context.Context, name string) error {
	if err := d.alive(); err != nil {
		return err
	}
	name = normalizeCommand(name)
	if err := d.gate.Check(name, d.store.Active()); err != nil {
		d.metric.Command(name, "rejected")
		if !errors.Is(err, ErrUnknownCommand) {
			d.record(ctx, models.EventCommandRejected, err.Error(), map[string]any{"command": name})
		}
		return err
	}

	ctx, done := d.bind(ctx)
	defer done()
	if err := d.device.SendCommand(ctx, name); err != nil {
		d.metric.Command(name, "failed")
		d.log.Warnw("command_failed", "command", name, "err", err)
		d.handleActionError(err)
		return err
	}

	if name == CommandServoTurn {
		d.countdown.Restart()
	}
	d.metric.Command(name, "ok")
	d.log.Infow("command_sent", "command", name)
	d.record(ctx, models.EventCommand, "command sent", map[string]any{"command": name})
	return nil
}

// ExitMaintenance commits the active configuration with maintenance off.
// It is the one action the command gate does not apply to, and is a no-op
// when maintenance is already off.
func (d *Dashboard) ExitMaintenance(ctx context.Context) (models.Configuration, error) {
	if err := d.alive(); err != nil {
		return models.Configuration{}, err
	}
	active := d.store.Active()
	if active == nil {
		return models.Configuration{}, ErrConfigNotLoaded
	}
	if !active.IsMaintenance {
		return *active, nil
	}

	ctx, done := d.bind(ctx)
	defer done()

	next := *active.Clone()
	next.IsMaintenance = false
	cfg, err := d.store.Promote(ctx, d.device, next)
	if err != nil {
		if !isLogicError(err) {
			d.metric.Commit("failed")
			d.log.Warnw("maintenance_exit_failed", "err", err)
			d.handleActionError(err)
		}
		return models.Configuration{}, err
	}

	if cfg.ServoIntervalSeconds != active.ServoIntervalSeconds {
		d.countdown.Reset(cfg.ServoIntervalSeconds)
	}
	d.applyOptimisticMaintenance(false)
	d.metric.Commit("ok")
	d.log.Infow("maintenance_exited")
	d.record(ctx, models.EventMaintenanceExit, "maintenance mode exited", nil)
	return cfg, nil
}

func (d *Dashboard) applyOptimisticMaintenance(value bool) {
	d.mu.Lock()
	d.reading.IsMaintenance = value
	d.pending = &pendingMaintenance{value: value, afterCycle: d.poller.LastIssued()}
	d.mu.Unlock()
}

func (d *Dashboard) record(ctx context.Context, typ, description string, meta any) {
	if d.events == nil {
		return
	}
	d.events.Record(context.WithoutCancel(ctx), typ, description, meta)
}

func isLogicError(err error) bool {
	return errors.Is(err, ErrNotEditing) ||
		errors.Is(err, ErrEditorOpen) ||
		errors.Is(err, ErrCommitInFlight) ||
		errors.Is(err, ErrConfigNotLoaded) ||
		errors.Is(err, ErrNoSession)
}
