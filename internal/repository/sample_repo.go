package repository

import (
	"context"
	"database/sql"
	"math"
	"time"

	"github.com/google/uuid"

	"reflowctl/internal/models"
)

type SampleSQLite struct {
	db *sql.DB
}

func NewSampleSQLite(db *sql.DB) *SampleSQLite { return &SampleSQLite{db: db} }

const (
	insertSampleSQL = `
		INSERT INTO telemetry_samples
			(id, at, top_c, bottom_c, ir_c, external_c, state, phase, remaining_s, out_top, out_bottom, out_ir)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	selectSamplesSQL = `
		SELECT at, top_c, bottom_c, ir_c, external_c, state, phase, remaining_s, out_top, out_bottom, out_ir
		FROM telemetry_samples
	`
)

// nullTemp maps an unknown-sensor NaN to SQL NULL; sqlite rejects NaN REALs.
func nullTemp(v float64) sql.NullFloat64 {
	if math.IsNaN(v) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func tempOrNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}

// Append inserts one sample row with a fresh id. The sample time is stored
// as UTC.
func (r *SampleSQLite) Append(ctx context.Context, s models.TelemetrySample) error {
	at := s.Time
	if at.IsZero() {
		at = time.Now()
	}
	_, err := r.db.ExecContext(ctx, insertSampleSQL,
		uuid.NewString(),
		at.UTC().Format(timestampLayout),
		nullTemp(s.TopC),
		nullTemp(s.BottomC),
		nullTemp(s.IRC),
		nullTemp(s.ExternalC),
		string(s.State),
		s.Phase,
		s.RemainingSeconds,
		s.OutTop,
		s.OutBottom,
		s.OutIR,
	)
	return err
}

// List returns archived samples within [from, to] (inclusive; zero bounds are
// open), oldest first.
func (r *SampleSQLite) List(ctx context.Context, from, to time.Time) ([]models.LogEntry, error) {
	q := selectSamplesSQL
	var (
		conds []string
		args  []any
	)
	if !from.IsZero() {
		conds = append(conds, "at >= ?")
		args = append(args, from.UTC().Format(timestampLayout))
	}
	if !to.IsZero() {
		conds = append(conds, "at <= ?")
		args = append(args, to.UTC().Format(timestampLayout))
	}
	q += whereClause(conds) + " ORDER BY at ASC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.LogEntry, 0, 64)
	for rows.Next() {
		var (
			e                    models.LogEntry
			at                   string
			top, bottom, ir, ext sql.NullFloat64
			state                string
		)
		if err := rows.Scan(
			&at,
			&top, &bottom, &ir, &ext,
			&state,
			&e.Sample.Phase,
			&e.Sample.RemainingSeconds,
			&e.Sample.OutTop,
			&e.Sample.OutBottom,
			&e.Sample.OutIR,
		); err != nil {
			return nil, err
		}
		ts, err := time.Parse(timestampLayout, at)
		if err != nil {
			return nil, err
		}
		e.Time = ts
		e.Sample.Time = e.Time
		e.Sample.TopC = tempOrNaN(top)
		e.Sample.BottomC = tempOrNaN(bottom)
		e.Sample.IRC = tempOrNaN(ir)
		e.Sample.ExternalC = tempOrNaN(ext)
		e.Sample.State = models.ProcessState(state)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
