package service

import (
	"context"
	"sync"

	"smart_hatchery/internal/models"
	"smart_hatchery/internal/remote"
)

// fakeDevice is a hand-rolled DeviceAPI + Authenticator with call counters.
type fakeDevice struct {
	mu sync.Mutex

	config    *models.Configuration
	configErr error
	reading   models.Reading
	readErr   error
	history   []models.HistoryPoint
	histErr   error
	setErr    error
	cmdErr    error
	loginTok  string
	loginErr  error

	configCalls  int
	readingCalls int
	historyCalls int
	setCalls     int
	commandCalls int
	commands     []string
	posted       []models.Configuration

	// block, when set, holds SetConfiguration until closed.
	block chan struct{}
}

func (f *fakeDevice) GetConfiguration(ctx context.Context) (*models.Configuration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.configCalls++
	if f.configErr != nil {
		return nil, f.configErr
	}
	return f.config.Clone(), nil
}

func (f *fakeDevice) GetLatestReading(ctx context.Context) (models.Reading, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readingCalls++
	return f.reading, f.readErr
}

func (f *fakeDevice) GetHistory(ctx context.Context) ([]models.HistoryPoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.historyCalls++
	if f.histErr != nil {
		return nil, f.histErr
	}
	out := make([]models.HistoryPoint, len(f.history))
	copy(out, f.history)
	return out, nil
}

func (f *fakeDevice) SetConfiguration(ctx context.Context, cfg models.Configuration) error {
	f.mu.Lock()
	block := f.block
	f.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.setCalls++
	f.posted = append(f.posted, cfg)
	if f.setErr != nil {
		return f.setErr
	}
	f.config = cfg.Clone()
	return nil
}

func (f *fakeDevice) SendCommand(ctx context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commandCalls++
	f.commands = append(f.commands, name)
	return f.cmdErr
}

func (f *fakeDevice) Login(ctx context.Context, creds models.Credentials) (remote.TokenResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loginErr != nil {
		return remote.TokenResponse{}, f.loginErr
	}
	return remote.TokenResponse{AccessToken: f.loginTok, TokenType: "bearer"}, nil
}

func (f *fakeDevice) Register(ctx context.Context, creds models.Credentials) (remote.Ack, error) {
	return remote.Ack{Msg: "Registrasi Berhasil"}, nil
}

func (f *fakeDevice) set(fn func(f *fakeDevice)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *fakeDevice) counts() (config, reading, history, set, command int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.configCalls, f.readingCalls, f.historyCalls, f.setCalls, f.commandCalls
}

// recorder captures audit events.
type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) Record(ctx context.Context, typ, description string, meta any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, typ)
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	copy(out, r.events)
	return out
}

func (r *recorder) has(typ string) bool {
	for _, t := range r.types() {
		if t == typ {
			return true
		}
	}
	return false
}

func ayamConfig() *models.Configuration {
	return &models.Configuration{
		PresetName:           "AYAM",
		TargetTempLow:        37.5,
		TargetTempHigh:       38.0,
		TargetHumLow:         50.0,
		TempOffset:           0.3,
		HumOffset:            -1.5,
		ServoIntervalSeconds: 7200,
	}
}
