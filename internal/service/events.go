package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"reflowctl/internal/models"
	"reflowctl/internal/repository"
)

// EventFilter narrows an archive query by time range and event type.
type EventFilter struct {
	From time.Time // inclusive; zero means no lower bound
	To   time.Time // inclusive; zero means no upper bound
	Type string    // "", "CONNECT", "DISCONNECT", "START", "STOP", "FAN", "EXPORT", "ERROR"
}

var errInvalidTimeRange = errors.New("invalid time range: From must be <= To")

// EventLogService exposes the session-event archive.
type EventLogService struct {
	repo repository.EventRepo
}

func NewEventLogService(repo repository.EventRepo) *EventLogService {
	return &EventLogService{repo: repo}
}

// Record appends one event; id and timestamp are filled by the repository
// when absent.
func (s *EventLogService) Record(ctx context.Context, typ, message string, meta any) error {
	return s.repo.Append(ctx, models.SessionEvent{
		OccurredAt: time.Now().UTC(),
		Type:       normalizeEventType(typ),
		Message:    message,
		Metadata:   meta,
	})
}

// List returns archived events matching f, oldest first.
func (s *EventLogService) List(ctx context.Context, f EventFilter) ([]models.SessionEvent, error) {
	from := toUTC(f.From)
	to := toUTC(f.To)
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return nil, errInvalidTimeRange
	}
	return s.repo.List(ctx, from, to, normalizeEventType(f.Type))
}

func normalizeEventType(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// toUTC normalizes non-zero times, preserving the zero value.
func toUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}
