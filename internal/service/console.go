package service

import (
	"context"
	"crypto/subtle"
	"sync"

	"smart_hatchery/internal/logger"
	"smart_hatchery/internal/models"
	"smart_hatchery/internal/remote"
	"smart_hatchery/internal/session"
)

// Authenticator is the account side of the device API.
type Authenticator interface {
	Login(ctx context.Context, creds models.Credentials) (remote.TokenResponse, error)
	Register(ctx context.Context, creds models.Credentials) (remote.Ack, error)
}

// DashboardFactory builds a dashboard whose auth failures are reported to
// onAuthFailure.
type DashboardFactory func(onAuthFailure func(err error)) *Dashboard

// ConsoleService owns the operator session and the dashboard that lives
// as long as it does. Invalidating the session, by sign-out or by the
// device rejecting the token, shuts the dashboard down.
type ConsoleService struct {
	base    context.Context
	auth    Authenticator
	session *session.Session
	factory DashboardFactory
	presets *PresetCatalog
	gate    *CommandGate
	events  EventRecorder
	log     *logger.Logger

	signMu sync.Mutex

	mu      sync.RWMutex
	current *Dashboard
	gen     uint64

	wg sync.WaitGroup
}

type ConsoleDeps struct {
	Auth    Authenticator
	Session *session.Session
	Factory DashboardFactory
	Presets *PresetCatalog
	Gate    *CommandGate
	Events  EventRecorder // optional
	Log     *logger.Logger
}

// NewConsoleService wires the console. base bounds the lifetime of every
// dashboard it starts.
func NewConsoleService(base context.Context, deps ConsoleDeps) *ConsoleService {
	if deps.Presets == nil {
		deps.Presets = DefaultPresetCatalog()
	}
	if deps.Gate == nil {
		deps.Gate = NewCommandGate()
	}
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	c := &ConsoleService{
		base:    base,
		auth:    deps.Auth,
		session: deps.Session,
		factory: deps.Factory,
		presets: deps.Presets,
		gate:    deps.Gate,
		events:  deps.Events,
		log:     deps.Log,
	}
	c.session.OnInvalidate(c.onInvalidate)
	return c
}

// SignIn logs in against the device and starts a fresh dashboard. Any
// previous session is replaced.
func (c *ConsoleService) SignIn(ctx context.Context, creds models.Credentials) (SessionInfo, error) {
	c.signMu.Lock()
	defer c.signMu.Unlock()

	tok, err := c.auth.Login(ctx, creds)
	if err != nil {
		c.log.Infow("sign_in_failed", "username", creds.Username, "err", err)
		return SessionInfo{}, err
	}

	c.session.Invalidate(session.ReasonReplaced)
	c.session.Set(tok.AccessToken, creds.Username)

	c.mu.Lock()
	c.gen++
	gen := c.gen
	d := c.factory(func(err error) { c.dashboardAuthFailed(gen, err) })
	c.current = d
	c.mu.Unlock()

	if err := d.Start(c.base); err != nil {
		c.log.Warnw("dashboard_start_failed", "err", err)
		c.session.Invalidate(session.ReasonAuthFailure)
		return SessionInfo{}, err
	}

	info := c.SessionStatus()
	info.AccessToken = tok.AccessToken
	c.log.Infow("signed_in", "username", info.Username)
	c.record(ctx, models.EventSignIn, "operator signed in", map[string]any{"username": info.Username})
	return info, nil
}

// SignUp forwards a registration to the device and returns its message.
func (c *ConsoleService) SignUp(ctx context.Context, creds models.Credentials) (string, error) {
	ack, err := c.auth.Register(ctx, creds)
	if err != nil {
		return "", err
	}
	return ack.Msg, nil
}

// SignOut ends the current session.
func (c *ConsoleService) SignOut(ctx context.Context) error {
	c.signMu.Lock()
	defer c.signMu.Unlock()
	username := c.session.Username()
	if !c.session.Invalidate(session.ReasonSignOut) {
		return ErrNoSession
	}
	c.record(ctx, models.EventSignOut, "operator signed out", map[string]any{"username": username})
	return nil
}

// Authorize checks a bearer token presented to the local API against the
// session token and returns the operator name.
func (c *ConsoleService) Authorize(token string) (string, error) {
	current, ok := c.session.Token()
	if !ok {
		return "", ErrNoSession
	}
	if subtle.ConstantTimeCompare([]byte(current), []byte(token)) != 1 {
		return "", ErrInvalidSession
	}
	return c.session.Username(), nil
}

func (c *ConsoleService) SessionStatus() SessionInfo {
	if !c.session.Active() {
		return SessionInfo{}
	}
	return SessionInfo{
		Active:    true,
		Username:  c.session.Username(),
		ExpiresAt: c.session.ExpiresAt(),
	}
}

// Close ends the session and waits for the dashboard to stop.
func (c *ConsoleService) Close() {
	c.session.Invalidate(session.ReasonSignOut)
	c.wg.Wait()
}

func (c *ConsoleService) dashboardAuthFailed(gen uint64, err error) {
	c.mu.RLock()
	stale := gen != c.gen
	c.mu.RUnlock()
	if stale {
		return
	}
	c.log.Warnw("session_rejected_by_device", "err", err)
	c.session.Invalidate(session.ReasonAuthFailure)
}

// onInvalidate may run on a dashboard goroutine, so the shutdown is
// handed to another goroutine.
func (c *ConsoleService) onInvalidate(reason string) {
	c.mu.Lock()
	d := c.current
	c.current = nil
	c.mu.Unlock()
	if d == nil {
		return
	}
	c.log.Infow("session_invalidated", "reason", reason)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		d.Shutdown()
	}()
}

func (c *ConsoleService) dashboard() (*Dashboard, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current == nil {
		return nil, ErrNoSession
	}
	return c.current, nil
}

func (c *ConsoleService) record(ctx context.Context, typ, description string, meta any) {
	if c.events == nil {
		return
	}
	c.events.Record(context.WithoutCancel(ctx), typ, description, meta)
}

// Monitoring

func (c *ConsoleService) Snapshot() (models.DashboardSnapshot, error) {
	d, err := c.dashboard()
	if err != nil {
		return models.DashboardSnapshot{}, err
	}
	return d.Snapshot(), nil
}

func (c *ConsoleService) History() ([]models.HistoryPoint, error) {
	d, err := c.dashboard()
	if err != nil {
		return nil, err
	}
	return d.History(), nil
}

// Editor

func (c *ConsoleService) OpenEditor() (models.EditorView, error) {
	d, err := c.dashboard()
	if err != nil {
		return models.EditorView{}, err
	}
	return d.OpenEditor()
}

func (c *ConsoleService) EditorView() (models.EditorView, error) {
	d, err := c.dashboard()
	if err != nil {
		return models.EditorView{}, err
	}
	return d.EditorView()
}

func (c *ConsoleService) ApplyPreset(name string) (models.EditorView, error) {
	d, err := c.dashboard()
	if err != nil {
		return models.EditorView{}, err
	}
	return d.ApplyPreset(name)
}

func (c *ConsoleService) EditFields(fields map[string]any) (models.EditorView, error) {
	d, err := c.dashboard()
	if err != nil {
		return models.EditorView{}, err
	}
	return d.EditFields(fields)
}

func (c *ConsoleService) CancelEditor() error {
	d, err := c.dashboard()
	if err != nil {
		return err
	}
	return d.CancelEditor()
}

func (c *ConsoleService) CommitEditor(ctx context.Context) (models.Configuration, error) {
	d, err := c.dashboard()
	if err != nil {
		return models.Configuration{}, err
	}
	return d.CommitEditor(ctx)
}

// Control

func (c *ConsoleService) SendCommand(ctx context.Context, name string) error {
	d, err := c.dashboard()
	if err != nil {
		return err
	}
	return d.SendCommand(ctx, name)
}

func (c *ConsoleService) ExitMaintenance(ctx context.Context) (models.Configuration, error) {
	d, err := c.dashboard()
	if err != nil {
		return models.Configuration{}, err
	}
	return d.ExitMaintenance(ctx)
}

func (c *ConsoleService) Commands() []string {
	return c.gate.Commands()
}

func (c *ConsoleService) Presets() []models.Preset {
	return c.presets.List()
}
