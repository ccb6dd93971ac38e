package handlers

import (
	"context"
	"net/http"
	"time"

	"smart_hatchery/internal/models"
	"smart_hatchery/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signInInfo service.SessionInfo
	signInErr  error
	signUpMsg  string
	signUpErr  error
	signOutErr error
	authUser   string
	authErr    error

	lastCreds      models.Credentials
	lastAuthToken  string
	signOutCalls   int
	session        service.SessionInfo
}

func (m *mockAuth) SignIn(ctx context.Context, creds models.Credentials) (service.SessionInfo, error) {
	m.lastCreds = creds
	return m.signInInfo, m.signInErr
}
func (m *mockAuth) SignUp(ctx context.Context, creds models.Credentials) (string, error) {
	m.lastCreds = creds
	return m.signUpMsg, m.signUpErr
}
func (m *mockAuth) SignOut(ctx context.Context) error {
	m.signOutCalls++
	return m.signOutErr
}
func (m *mockAuth) Authorize(token string) (string, error) {
	m.lastAuthToken = token
	return m.authUser, m.authErr
}
func (m *mockAuth) SessionStatus() service.SessionInfo {
	return m.session
}

type mockMonitoring struct {
	snap    models.DashboardSnapshot
	history []models.HistoryPoint
	err     error
}

func (m *mockMonitoring) Snapshot() (models.DashboardSnapshot, error) {
	return m.snap, m.err
}
func (m *mockMonitoring) History() ([]models.HistoryPoint, error) {
	return m.history, m.err
}

type mockEditor struct {
	view       models.EditorView
	committed  models.Configuration
	err        error
	lastPreset string
	lastFields map[string]any
	calls      map[string]int
}

func (m *mockEditor) hit(op string) {
	if m.calls == nil {
		m.calls = map[string]int{}
	}
	m.calls[op]++
}

func (m *mockEditor) OpenEditor() (models.EditorView, error) {
	m.hit("open")
	return m.view, m.err
}
func (m *mockEditor) EditorView() (models.EditorView, error) {
	m.hit("view")
	return m.view, m.err
}
func (m *mockEditor) ApplyPreset(name string) (models.EditorView, error) {
	m.hit("preset")
	m.lastPreset = name
	return m.view, m.err
}
func (m *mockEditor) EditFields(fields map[string]any) (models.EditorView, error) {
	m.hit("fields")
	m.lastFields = fields
	return m.view, m.err
}
func (m *mockEditor) CancelEditor() error {
	m.hit("cancel")
	return m.err
}
func (m *mockEditor) CommitEditor(ctx context.Context) (models.Configuration, error) {
	m.hit("commit")
	return m.committed, m.err
}

type mockControl struct {
	sendErr     error
	exitCfg     models.Configuration
	exitErr     error
	lastCommand string
	sendCalls   int
	exitCalls   int
}

func (m *mockControl) SendCommand(ctx context.Context, name string) error {
	m.sendCalls++
	m.lastCommand = name
	return m.sendErr
}
func (m *mockControl) ExitMaintenance(ctx context.Context) (models.Configuration, error) {
	m.exitCalls++
	return m.exitCfg, m.exitErr
}
func (m *mockControl) Commands() []string {
	return []string{service.CommandLampOn, service.CommandServoTurn}
}
func (m *mockControl) Presets() []models.Preset {
	return service.DefaultPresetCatalog().List()
}

type mockEventLog struct {
	resp     []models.OperatorEvent
	err      error
	lastFrom time.Time
	lastTo   time.Time
	lastType string
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.OperatorEvent, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	return m.resp, m.err
}
func (m *mockEventLog) Record(ctx context.Context, typ, description string, meta any) {}

type mockArchive struct {
	points     []models.HistoryPoint
	err        error
	lastFilter service.HistoryFilter
	rangeCalls int
}

func (m *mockArchive) Range(ctx context.Context, f service.HistoryFilter) ([]models.HistoryPoint, error) {
	m.rangeCalls++
	m.lastFilter = f
	return m.points, m.err
}
func (m *mockArchive) Store(ctx context.Context, points []models.HistoryPoint) error {
	return nil
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
