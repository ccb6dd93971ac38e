package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"smart_hatchery/internal/models"
	"smart_hatchery/internal/remote"
)

type fakeArchive struct {
	mu     sync.Mutex
	stored int
	err    error
}

func (a *fakeArchive) Store(ctx context.Context, points []models.HistoryPoint) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stored += len(points)
	return a.err
}

func newTestDashboard(dev *fakeDevice, rec *recorder, onAuth func(error)) *Dashboard {
	return NewDashboard(DashboardConfig{
		PollInterval: 5 * time.Millisecond,
		TickInterval: 5 * time.Millisecond,
	}, DashboardDeps{
		Device:        dev,
		Events:        rec,
		OnAuthFailure: onAuth,
	})
}

// loadedDashboard returns a dashboard with the active configuration loaded
// but without its loops running.
func loadedDashboard(t *testing.T, cfg *models.Configuration) (*Dashboard, *fakeDevice, *recorder) {
	t.Helper()
	dev := &fakeDevice{config: cfg, history: samplePoints()}
	rec := &recorder{}
	d := newTestDashboard(dev, rec, nil)
	if err := d.ensureActive(context.Background()); err != nil {
		t.Fatalf("ensureActive: %v", err)
	}
	return d, dev, rec
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func TestDashboard_StartAndShutdown(t *testing.T) {
	t.Parallel()

	dev := &fakeDevice{
		config:  ayamConfig(),
		reading: models.Reading{Temperature: 37.8, Humidity: 52, Status: models.StatusOptimal},
		history: samplePoints(),
	}
	d := newTestDashboard(dev, &recorder{}, nil)

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if got := d.Countdown().PeriodSeconds; got != 7200 {
		t.Fatalf("countdown period = %d; want 7200", got)
	}
	waitFor(t, "first poll", func() bool { return d.Snapshot().Cycle >= 1 })

	snap := d.Snapshot()
	if snap.Reading.Temperature != 37.8 || len(snap.History) != 2 || snap.Active == nil || !snap.CanCommand {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}

	d.Shutdown()
	d.Shutdown() // idempotent

	_, reads, hist, _, _ := dev.counts()
	remaining := d.Countdown().SecondsRemaining
	time.Sleep(30 * time.Millisecond)
	_, reads2, hist2, _, _ := dev.counts()
	if reads2 != reads || hist2 != hist {
		t.Fatalf("poll continued after Shutdown: reads %d->%d history %d->%d", reads, reads2, hist, hist2)
	}
	if got := d.Countdown().SecondsRemaining; got != remaining {
		t.Fatalf("countdown kept ticking after Shutdown: %d -> %d", remaining, got)
	}

	if err := d.SendCommand(context.Background(), CommandFanOn); !errors.Is(err, ErrNoSession) {
		t.Fatalf("SendCommand after Shutdown: %v", err)
	}
	if _, err := d.OpenEditor(); !errors.Is(err, ErrNoSession) {
		t.Fatalf("OpenEditor after Shutdown: %v", err)
	}
	if err := d.Start(context.Background()); !errors.Is(err, ErrNoSession) {
		t.Fatalf("Start after Shutdown: %v", err)
	}
}

func TestDashboard_StartRejectedToken(t *testing.T) {
	t.Parallel()

	dev := &fakeDevice{configErr: remote.ErrUnauthorized}
	d := newTestDashboard(dev, &recorder{}, nil)
	if err := d.Start(context.Background()); !errors.Is(err, remote.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	d.Shutdown()
}

func TestDashboard_StartRetriesConfigLoad(t *testing.T) {
	t.Parallel()

	dev := &fakeDevice{configErr: remote.ErrUnavailable, history: samplePoints()}
	d := newTestDashboard(dev, &recorder{}, nil)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start should tolerate an unavailable device: %v", err)
	}
	defer d.Shutdown()

	if d.ActiveConfiguration() != nil {
		t.Fatalf("active must be unset while the device is down")
	}
	if err := d.SendCommand(context.Background(), CommandLampOn); !errors.Is(err, ErrConfigNotLoaded) {
		t.Fatalf("command before load: %v", err)
	}

	dev.set(func(f *fakeDevice) {
		f.configErr = nil
		f.config = ayamConfig()
	})
	waitFor(t, "config load", func() bool { return d.ActiveConfiguration() != nil })
}

func TestDashboard_AuthFailureDuringPoll(t *testing.T) {
	t.Parallel()

	dev := &fakeDevice{config: ayamConfig(), history: samplePoints()}
	rec := &recorder{}
	var mu sync.Mutex
	var got []error
	d := newTestDashboard(dev, rec, func(err error) {
		mu.Lock()
		got = append(got, err)
		mu.Unlock()
	})
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer d.Shutdown()

	dev.set(func(f *fakeDevice) { f.readErr = remote.ErrUnauthorized })
	waitFor(t, "auth failure hook", func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	})
	if !rec.has(models.EventAuthFailure) {
		t.Fatalf("expected %s event, got %v", models.EventAuthFailure, rec.types())
	}
}

func TestDashboard_GatedCommandsNeverReachDevice(t *testing.T) {
	t.Parallel()

	maint := ayamConfig()
	maint.IsMaintenance = true
	d, dev, rec := loadedDashboard(t, maint)

	for _, name := range []string{CommandLampOn, CommandFanOff, CommandServoTurn, CommandAllOff, CommandTestAll} {
		if err := d.SendCommand(context.Background(), name); !errors.Is(err, ErrMaintenanceActive) {
			t.Fatalf("%s: expected ErrMaintenanceActive, got %v", name, err)
		}
	}
	if err := d.SendCommand(context.Background(), "SELF_DESTRUCT"); !errors.Is(err, ErrUnknownCommand) {
		t.Fatalf("unknown command: %v", err)
	}
	if _, _, _, _, cmds := dev.counts(); cmds != 0 {
		t.Fatalf("device received %d commands", cmds)
	}
	if !rec.has(models.EventCommandRejected) {
		t.Fatalf("expected rejection events, got %v", rec.types())
	}
	if d.Snapshot().CanCommand {
		t.Fatalf("CanCommand must be false in maintenance")
	}
}

func TestDashboard_ServoTurnRestartsCountdown(t *testing.T) {
	t.Parallel()

	d, dev, rec := loadedDashboard(t, ayamConfig())
	for i := 0; i < 5; i++ {
		d.countdown.Tick()
	}

	if err := d.SendCommand(context.Background(), "fan_on"); err != nil {
		t.Fatalf("FAN_ON: %v", err)
	}
	if got := d.Countdown().SecondsRemaining; got != 7195 {
		t.Fatalf("FAN_ON must not touch the countdown, remaining=%d", got)
	}

	if err := d.SendCommand(context.Background(), CommandServoTurn); err != nil {
		t.Fatalf("SERVO_TURN: %v", err)
	}
	if got := d.Countdown().SecondsRemaining; got != 7200 {
		t.Fatalf("remaining = %d; want 7200", got)
	}
	if len(dev.commands) != 2 || dev.commands[0] != CommandFanOn || dev.commands[1] != CommandServoTurn {
		t.Fatalf("commands sent: %v", dev.commands)
	}
	if !rec.has(models.EventCommand) {
		t.Fatalf("expected COMMAND event")
	}
}

func TestDashboard_CommandFailureKeepsCountdown(t *testing.T) {
	t.Parallel()

	d, dev, _ := loadedDashboard(t, ayamConfig())
	dev.set(func(f *fakeDevice) { f.cmdErr = remote.ErrUnavailable })
	d.countdown.Tick()

	if err := d.SendCommand(context.Background(), CommandServoTurn); !errors.Is(err, remote.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if got := d.Countdown().SecondsRemaining; got != 7199 {
		t.Fatalf("failed SERVO_TURN restarted the countdown: %d", got)
	}
}

func TestDashboard_CommitResetsCountdownAndFlag(t *testing.T) {
	t.Parallel()

	d, dev, rec := loadedDashboard(t, ayamConfig())
	d.countdown.Tick()

	if _, err := d.OpenEditor(); err != nil {
		t.Fatalf("OpenEditor: %v", err)
	}
	if _, err := d.ApplyPreset("BEBEK"); err != nil {
		t.Fatalf("ApplyPreset: %v", err)
	}
	if _, err := d.EditFields(map[string]any{FieldIsMaintenance: true}); err != nil {
		t.Fatalf("EditFields: %v", err)
	}
	cfg, err := d.CommitEditor(context.Background())
	if err != nil {
		t.Fatalf("CommitEditor: %v", err)
	}
	if cfg.ServoIntervalSeconds != 10800 || dev.posted[0] != cfg {
		t.Fatalf("unexpected commit %+v, posted %+v", cfg, dev.posted)
	}
	cd := d.Countdown()
	if cd.PeriodSeconds != 10800 || cd.SecondsRemaining != 10800 {
		t.Fatalf("countdown not reset: %+v", cd)
	}
	snap := d.Snapshot()
	if !snap.Reading.IsMaintenance || snap.CanCommand || snap.EditorOpen {
		t.Fatalf("snapshot after commit: %+v", snap)
	}
	if !rec.has(models.EventConfigCommit) {
		t.Fatalf("expected CONFIG_COMMIT event")
	}
}

func TestDashboard_CommitUnauthorizedReportsAuthFailure(t *testing.T) {
	t.Parallel()

	dev := &fakeDevice{config: ayamConfig(), setErr: remote.ErrUnauthorized}
	rec := &recorder{}
	calls := 0
	d := newTestDashboard(dev, rec, func(error) { calls++ })
	if err := d.ensureActive(context.Background()); err != nil {
		t.Fatalf("ensureActive: %v", err)
	}
	if _, err := d.OpenEditor(); err != nil {
		t.Fatalf("OpenEditor: %v", err)
	}

	if _, err := d.CommitEditor(context.Background()); !errors.Is(err, remote.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("auth hook calls = %d; want 1", calls)
	}
	if !rec.has(models.EventCommitFailed) || !rec.has(models.EventAuthFailure) {
		t.Fatalf("events: %v", rec.types())
	}
	if _, err := d.EditorView(); err != nil {
		t.Fatalf("draft must survive a failed commit: %v", err)
	}
}

func TestDashboard_ExitMaintenanceBypassesGate(t *testing.T) {
	t.Parallel()

	maint := ayamConfig()
	maint.IsMaintenance = true
	d, dev, rec := loadedDashboard(t, maint)

	if d.gate.CanSend(d.ActiveConfiguration()) {
		t.Fatalf("precondition: gate must be closed")
	}
	cfg, err := d.ExitMaintenance(context.Background())
	if err != nil {
		t.Fatalf("ExitMaintenance: %v", err)
	}
	want := *ayamConfig()
	if cfg != want || len(dev.posted) != 1 || dev.posted[0] != want {
		t.Fatalf("posted %+v; want %+v", dev.posted, want)
	}
	if !d.Snapshot().CanCommand {
		t.Fatalf("gate should open after exit")
	}
	if !rec.has(models.EventMaintenanceExit) {
		t.Fatalf("expected MAINTENANCE_EXIT event")
	}

	// already off: no device call
	if _, err := d.ExitMaintenance(context.Background()); err != nil {
		t.Fatalf("second ExitMaintenance: %v", err)
	}
	if _, _, _, set, _ := dev.counts(); set != 1 {
		t.Fatalf("no-op exit contacted the device, set calls=%d", set)
	}
}

func TestDashboard_ExitMaintenanceNotLoaded(t *testing.T) {
	t.Parallel()

	d := newTestDashboard(&fakeDevice{}, &recorder{}, nil)
	if _, err := d.ExitMaintenance(context.Background()); !errors.Is(err, ErrConfigNotLoaded) {
		t.Fatalf("expected ErrConfigNotLoaded, got %v", err)
	}
}

func TestDashboard_OptimisticMaintenanceReconcile(t *testing.T) {
	t.Parallel()

	d, _, rec := loadedDashboard(t, ayamConfig())
	ctx := context.Background()

	// cycle 1 applied, cycle 2 in flight when the commit lands
	if !d.ApplyTelemetry(ctx, Telemetry{Cycle: 1, Reading: models.Reading{Status: models.StatusOptimal}}) {
		t.Fatalf("cycle 1 rejected")
	}
	d.poller.seq.Store(2)

	if _, err := d.OpenEditor(); err != nil {
		t.Fatalf("OpenEditor: %v", err)
	}
	if _, err := d.EditFields(map[string]any{FieldIsMaintenance: true}); err != nil {
		t.Fatalf("EditFields: %v", err)
	}
	if _, err := d.CommitEditor(ctx); err != nil {
		t.Fatalf("CommitEditor: %v", err)
	}
	if !d.Reading().IsMaintenance {
		t.Fatalf("committed flag must show immediately")
	}

	// the in-flight cycle still reports the old flag
	if !d.ApplyTelemetry(ctx, Telemetry{Cycle: 2, Reading: models.Reading{Status: models.StatusOptimal}}) {
		t.Fatalf("cycle 2 rejected")
	}
	if !d.Reading().IsMaintenance {
		t.Fatalf("a cycle issued before the commit overwrote the flag")
	}
	if rec.has(models.EventMaintenanceMismatch) {
		t.Fatalf("no mismatch expected yet")
	}

	// a cycle issued after the commit disagrees: the device wins
	if !d.ApplyTelemetry(ctx, Telemetry{Cycle: 3, Reading: models.Reading{Status: models.StatusOptimal}}) {
		t.Fatalf("cycle 3 rejected")
	}
	if d.Reading().IsMaintenance {
		t.Fatalf("polled value must win after reconciliation")
	}
	if !rec.has(models.EventMaintenanceMismatch) {
		t.Fatalf("expected mismatch event, got %v", rec.types())
	}
}

func TestDashboard_ApplyTelemetryDropsStaleAndArchives(t *testing.T) {
	t.Parallel()

	dev := &fakeDevice{config: ayamConfig()}
	archive := &fakeArchive{err: errors.New("disk full")}
	d := NewDashboard(DashboardConfig{}, DashboardDeps{Device: dev, Archive: archive})
	ctx := context.Background()

	if !d.ApplyTelemetry(ctx, Telemetry{Cycle: 5, Reading: models.Reading{Temperature: 38}, History: samplePoints()}) {
		t.Fatalf("cycle 5 rejected")
	}
	if d.ApplyTelemetry(ctx, Telemetry{Cycle: 4, Reading: models.Reading{Temperature: 20}}) {
		t.Fatalf("stale cycle 4 applied")
	}
	if got := d.Reading().Temperature; got != 38 {
		t.Fatalf("reading = %v; want 38", got)
	}
	if len(d.History()) != 2 {
		t.Fatalf("history lost")
	}
	archive.mu.Lock()
	defer archive.mu.Unlock()
	if archive.stored != 2 {
		t.Fatalf("archived %d points; want 2", archive.stored)
	}
}

func TestDashboard_WaitingBeforeFirstPoll(t *testing.T) {
	t.Parallel()

	d := newTestDashboard(&fakeDevice{}, &recorder{}, nil)
	snap := d.Snapshot()
	if snap.Reading.Status != models.StatusWaiting || snap.Active != nil || snap.CanCommand {
		t.Fatalf("unexpected initial snapshot: %+v", snap)
	}
	if snap.Countdown.Display != "02:00:00" {
		t.Fatalf("initial countdown display %q", snap.Countdown.Display)
	}
}
