package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"sync"
	"time"

	"reflowctl/internal/logger"
	"reflowctl/internal/models"
	"reflowctl/internal/transport"
)

var (
	// ErrNotConnected is returned by every operation while no link is up.
	ErrNotConnected = errors.New("session: not connected")
	// ErrUnreachable wraps a per-request transport failure. The session does
	// not disconnect on it; the caller decides after repeated failures.
	ErrUnreachable = errors.New("session: device unreachable")
	// ErrInvalidProfile marks a profile that fails validation or a loaded
	// preset with missing required fields.
	ErrInvalidProfile = errors.New("session: invalid profile")
	// ErrUnsupported marks operations the active link cannot carry
	// (fan toggle and preset storage over the serial line).
	ErrUnsupported = errors.New("session: operation not supported over this link")
)

// ConnectError reports a failed connection attempt as one human-readable
// message per attempt.
type ConnectError struct {
	Config models.ConnConfig
	Err    error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("connection to %s failed: %v", e.Config, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// serialReadings are the last temperatures seen on the line transport.
// GET_TEMP answers with any field count other than three are a no-update,
// so prior values are retained here.
type serialReadings struct {
	top, bottom, ir float64
}

// Session is the transport-independent command surface toward one station.
// A single mutex serializes every transport access: the line protocol cannot
// interleave requests, and the same discipline is applied to the REST path.
type Session struct {
	log *logger.Logger

	mu        sync.Mutex
	cfg       models.ConnConfig
	tr        transport.Transport
	connected bool

	lastSample time.Time
	serial     serialReadings

	// profile is the client-side preset store for the serial path, which has
	// no preset commands; Start derives its A/B/P targets from it.
	profile *models.Profile

	// open is swapped out by tests.
	open func(models.ConnConfig) (transport.Transport, error)
}

func NewSession(log *logger.Logger) *Session {
	return &Session{
		log:    log,
		serial: serialReadings{top: math.NaN(), bottom: math.NaN(), ir: math.NaN()},
		open:   transport.Open,
	}
}

// Connect establishes the link described by cfg. On failure the session state
// is unchanged.
func (s *Session) Connect(cfg models.ConnConfig) error {
	if err := cfg.Validate(); err != nil {
		return &ConnectError{Config: cfg, Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.connected {
		return &ConnectError{Config: cfg, Err: errors.New("already connected; disconnect first")}
	}

	tr, err := s.open(cfg)
	if err != nil {
		return &ConnectError{Config: cfg, Err: err}
	}

	s.cfg = cfg
	s.tr = tr
	s.connected = true
	s.serial = serialReadings{top: math.NaN(), bottom: math.NaN(), ir: math.NaN()}
	s.lastSample = time.Time{}
	s.log.Infow("connected", "endpoint", cfg.String())
	return nil
}

// Disconnect closes the link if one is open. Idempotent; always leaves the
// session disconnected. An in-flight request holds the lock, so Disconnect
// waits at most one transport timeout.
func (s *Session) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	if s.tr != nil {
		err = s.tr.Close()
		s.log.Infow("disconnected", "endpoint", s.cfg.String())
	}
	s.tr = nil
	s.connected = false
	return err
}

// Connected reports whether a link is up.
func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// LastSampleAt returns the time the last status sample was obtained, zero if
// none yet. Callers use it to surface stale telemetry.
func (s *Session) LastSampleAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSample
}

// Status fetches one telemetry sample. A transport failure is returned as
// ErrUnreachable without touching the connection.
func (s *Session) Status(ctx context.Context) (models.TelemetrySample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		return models.TelemetrySample{}, ErrNotConnected
	}

	now := time.Now()
	if s.cfg.Kind == models.ConnSerial {
		line, err := s.tr.Request(ctx, transport.Request{Endpoint: cmdGetTemp, WantReply: true})
		if err != nil {
			return models.TelemetrySample{}, translate(err)
		}
		if top, bottom, ir, ok := decodeTempLine(string(line)); ok {
			s.serial = serialReadings{top: top, bottom: bottom, ir: ir}
		}
		sample := models.TelemetrySample{
			Time:      now,
			TopC:      s.serial.top,
			BottomC:   s.serial.bottom,
			IRC:       s.serial.ir,
			ExternalC: math.NaN(), // no external TC on the serial line
			State:     models.StateUnknown,
		}
		s.lastSample = now
		return sample, nil
	}

	data, err := s.tr.Request(ctx, transport.Request{Endpoint: epStatus})
	if err != nil {
		return models.TelemetrySample{}, translate(err)
	}
	sample, err := decodeStatus(data, now)
	if err != nil {
		return models.TelemetrySample{}, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	s.lastSample = now
	return sample, nil
}

// Start begins the reflow process. Over the network this is POST /start; over
// the serial line it sets the per-heater targets from the retained profile's
// first phase.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		return ErrNotConnected
	}
	if s.cfg.Kind == models.ConnNetwork {
		return s.post(ctx, epStart)
	}

	if s.profile == nil || len(s.profile.Phases) == 0 {
		return fmt.Errorf("%w: no profile loaded for serial start", ErrInvalidProfile)
	}
	ph := s.profile.Phases[0]
	cmds := make([]string, 0, 3)
	if ph.UseTop {
		cmds = append(cmds, fmt.Sprintf("%s%d", cmdSetTop, ph.TargetC))
	}
	if ph.UseBottom {
		cmds = append(cmds, fmt.Sprintf("%s%d", cmdSetBottom, ph.TargetC))
	}
	if ph.UseIR {
		cmds = append(cmds, fmt.Sprintf("%s%d", cmdSetPreheat, ph.TargetC))
	}
	return s.sendTokens(ctx, cmds)
}

// Stop halts the process: POST /stop over the network, all-heaters-off over
// the serial line.
func (s *Session) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		return ErrNotConnected
	}
	if s.cfg.Kind == models.ConnNetwork {
		return s.post(ctx, epStop)
	}
	return s.sendTokens(ctx, []string{cmdTopOff, cmdBottomOff, cmdPreheatOff})
}

// ToggleFan flips the cooling fan. The serial line has no fan command.
func (s *Session) ToggleFan(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		return ErrNotConnected
	}
	if s.cfg.Kind == models.ConnSerial {
		return fmt.Errorf("%w: fan control", ErrUnsupported)
	}
	return s.post(ctx, epFan)
}

// SaveProfile validates p and pushes it to the station. Over serial the
// profile is retained client-side instead, since the wire has no presets.
func (s *Session) SaveProfile(ctx context.Context, p models.Profile) error {
	if verrs := ValidateProfile(p); len(verrs) > 0 {
		return fmt.Errorf("%w: %v", ErrInvalidProfile, verrs)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		return ErrNotConnected
	}
	if s.cfg.Kind == models.ConnSerial {
		cp := p
		cp.Phases = append([]models.Phase(nil), p.Phases...)
		s.profile = &cp
		return nil
	}

	body, err := encodeProfile(p)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}
	_, err = s.tr.Request(ctx, transport.Request{Endpoint: epPreset, Method: http.MethodPost, Body: body})
	if err != nil {
		return translate(err)
	}
	return nil
}

// LoadProfile pulls the station's preset. Missing required fields in the
// payload are rejected with ErrInvalidProfile rather than defaulted.
func (s *Session) LoadProfile(ctx context.Context) (models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		return models.Profile{}, ErrNotConnected
	}
	if s.cfg.Kind == models.ConnSerial {
		if s.profile == nil {
			return models.Profile{}, fmt.Errorf("%w: preset storage", ErrUnsupported)
		}
		cp := *s.profile
		cp.Phases = append([]models.Phase(nil), s.profile.Phases...)
		return cp, nil
	}

	data, err := s.tr.Request(ctx, transport.Request{Endpoint: epPreset})
	if err != nil {
		return models.Profile{}, translate(err)
	}
	p, err := decodeProfile(data)
	if err != nil {
		return models.Profile{}, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}
	return p, nil
}

// post issues a body-less POST command. Caller holds the lock.
func (s *Session) post(ctx context.Context, endpoint string) error {
	_, err := s.tr.Request(ctx, transport.Request{Endpoint: endpoint, Method: http.MethodPost})
	if err != nil {
		return translate(err)
	}
	return nil
}

// sendTokens writes fire-and-forget line commands. Caller holds the lock.
func (s *Session) sendTokens(ctx context.Context, tokens []string) error {
	for _, tok := range tokens {
		if _, err := s.tr.Request(ctx, transport.Request{Endpoint: tok}); err != nil {
			return translate(err)
		}
	}
	return nil
}

// translate maps a transport failure to the session taxonomy.
func translate(err error) error {
	return fmt.Errorf("%w: %v", ErrUnreachable, err)
}
