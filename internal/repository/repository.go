package repository

import (
	"context"
	"database/sql"
	"time"

	"reflowctl/internal/models"
	"reflowctl/internal/repository/db"
)

// SampleRepo archives published telemetry samples.
type SampleRepo interface {
	Append(ctx context.Context, s models.TelemetrySample) error
	List(ctx context.Context, from, to time.Time) ([]models.LogEntry, error)
}

// EventRepo archives session events (connects, commands, exports).
type EventRepo interface {
	Append(ctx context.Context, e models.SessionEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]models.SessionEvent, error)
}

type Repository struct {
	Samples SampleRepo
	Events  EventRepo
}

func NewRepository(sqlDB *sql.DB) *Repository {
	return &Repository{
		Samples: NewSampleSQLite(sqlDB),
		Events:  NewEventSQLite(sqlDB),
	}
}

// InitDB opens the sqlite archive and ensures the schema exists.
func InitDB(path string) (*sql.DB, error) {
	return db.InitDB(path)
}
