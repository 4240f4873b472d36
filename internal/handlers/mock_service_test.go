package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"reflowctl/internal/logger"
	"reflowctl/internal/models"
	"reflowctl/internal/service"
)

type mockConnector struct {
	connectErr      error
	connectCalls    int
	lastCfg         models.ConnConfig
	disconnectCalls int
}

func (m *mockConnector) Connect(cfg models.ConnConfig) error {
	m.connectCalls++
	m.lastCfg = cfg
	return m.connectErr
}

func (m *mockConnector) Disconnect() error {
	m.disconnectCalls++
	return nil
}

type mockCommander struct {
	startErr, stopErr, fanErr     error
	startCalls, stopCalls, fanCalls int
}

func (m *mockCommander) Start(ctx context.Context) error {
	m.startCalls++
	return m.startErr
}

func (m *mockCommander) Stop(ctx context.Context) error {
	m.stopCalls++
	return m.stopErr
}

func (m *mockCommander) ToggleFan(ctx context.Context) error {
	m.fanCalls++
	return m.fanErr
}

type mockMonitoring struct {
	sample    models.TelemetrySample
	statusErr error
	connected bool
	last      time.Time
}

func (m *mockMonitoring) Status(ctx context.Context) (models.TelemetrySample, error) {
	if m.statusErr != nil {
		return models.TelemetrySample{}, m.statusErr
	}
	return m.sample, nil
}

func (m *mockMonitoring) Connected() bool          { return m.connected }
func (m *mockMonitoring) LastSampleAt() time.Time { return m.last }

type mockProfiles struct {
	saved   []models.Profile
	saveErr error
	profile models.Profile
	loadErr error
}

func (m *mockProfiles) SaveProfile(ctx context.Context, p models.Profile) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append(m.saved, p)
	return nil
}

func (m *mockProfiles) LoadProfile(ctx context.Context) (models.Profile, error) {
	if m.loadErr != nil {
		return models.Profile{}, m.loadErr
	}
	return m.profile, nil
}

type recordedEvent struct {
	typ, message string
	meta         any
}

type mockEvents struct {
	recorded   []recordedEvent
	listResult []models.SessionEvent
	listErr    error
	lastFilter service.EventFilter
	listCalls  int
}

func (m *mockEvents) Record(ctx context.Context, typ, message string, meta any) error {
	m.recorded = append(m.recorded, recordedEvent{typ: typ, message: message, meta: meta})
	return nil
}

func (m *mockEvents) List(ctx context.Context, f service.EventFilter) ([]models.SessionEvent, error) {
	m.listCalls++
	m.lastFilter = f
	return m.listResult, m.listErr
}

// testService bundles the mocks behind a Service the handler accepts. The
// poller runs against the monitoring mock with an interval long enough that
// only its initial poll ever fires.
func testService(conn *mockConnector, cmd *mockCommander, mon *mockMonitoring, prof *mockProfiles, ev *mockEvents) *service.Service {
	return &service.Service{
		Connector:  conn,
		Commander:  cmd,
		Monitoring: mon,
		Profiles:   prof,
		EventLog:   ev,
		Poller:     service.NewPoller(mon, time.Hour, logger.Get(logger.ErrorLevel)),
		Telemetry:  service.NewLog(),
	}
}

func newTestRouter(s *service.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewHandler(s, logger.Get(logger.ErrorLevel)).InitRoutes()
}
