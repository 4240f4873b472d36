package service

import (
	"context"
	"time"

	"reflowctl/internal/logger"
	"reflowctl/internal/models"
	"reflowctl/internal/repository"
)

// Connector owns the connect/disconnect lifecycle of the device link.
type Connector interface {
	Connect(cfg models.ConnConfig) error
	Disconnect() error
}

// Commander issues process commands over the active link.
type Commander interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	ToggleFan(ctx context.Context) error
}

// Monitoring exposes the read-only telemetry surface.
type Monitoring interface {
	Status(ctx context.Context) (models.TelemetrySample, error)
	Connected() bool
	LastSampleAt() time.Time
}

// Profiles pushes and pulls reflow presets.
type Profiles interface {
	SaveProfile(ctx context.Context, p models.Profile) error
	LoadProfile(ctx context.Context) (models.Profile, error)
}

// EventLog is the session-event archive surface.
type EventLog interface {
	Record(ctx context.Context, typ, message string, meta any) error
	List(ctx context.Context, f EventFilter) ([]models.SessionEvent, error)
}

// Service aggregates the sub-services behind their interfaces.
type Service struct {
	Connector
	Commander
	Monitoring
	Profiles
	EventLog

	Poller    *Poller
	Telemetry *Log
}

// NewService wires one session, its poller, the in-memory telemetry log and
// the sqlite archive together. Every published sample lands in both the log
// and the archive.
func NewService(repos *repository.Repository, log *logger.Logger, pollInterval time.Duration) *Service {
	sess := NewSession(log)
	tlog := NewLog()
	poller := NewPoller(sess, pollInterval, log)

	poller.Subscribe(tlog.Append)
	poller.Subscribe(func(sample models.TelemetrySample) {
		if err := repos.Samples.Append(context.Background(), sample); err != nil {
			log.Debugw("sample_archive_failed", "err", err)
		}
	})

	return &Service{
		Connector:  sess,
		Commander:  sess,
		Monitoring: sess,
		Profiles:   sess,
		EventLog:   NewEventLogService(repos.Events),
		Poller:     poller,
		Telemetry:  tlog,
	}
}
