package models

import (
	"encoding/json"
	"math"
	"time"
)

// ProcessState mirrors the state reported by the station. The client never
// computes transitions; it repeats what the device said.
type ProcessState string

const (
	StateUnknown ProcessState = "UNKNOWN" // serial link carries no process metadata
	StateIdle    ProcessState = "IDLE"
	StateRunning ProcessState = "RUNNING"
	StateAborted ProcessState = "ABORTED"
)

// ParseProcessState maps a reported state string to a ProcessState,
// falling back to StateUnknown for anything unrecognized.
func ParseProcessState(s string) ProcessState {
	switch ProcessState(s) {
	case StateIdle, StateRunning, StateAborted:
		return ProcessState(s)
	default:
		return StateUnknown
	}
}

// TelemetrySample is one snapshot of station telemetry. Temperatures are in
// °C; a sensor the active transport cannot report is NaN, never zero.
type TelemetrySample struct {
	Time             time.Time    `json:"time"`
	TopC             float64      `json:"top_c"`
	BottomC          float64      `json:"bottom_c"`
	IRC              float64      `json:"ir_c"`
	ExternalC        float64      `json:"external_c"`
	State            ProcessState `json:"state"`
	Phase            string       `json:"phase,omitempty"`
	RemainingSeconds int          `json:"remaining_seconds"`
	OutTop           int          `json:"out_top"`    // heater duty, percent
	OutBottom        int          `json:"out_bottom"` // heater duty, percent
	OutIR            int          `json:"out_ir"`     // heater duty, percent
}

// KnownTemp reports whether v is an actual reading rather than an
// unknown-sensor placeholder.
func KnownTemp(v float64) bool {
	return !math.IsNaN(v)
}

// sampleWire carries the JSON form of a sample. Unknown temperatures are null
// on the wire; NaN has no JSON encoding.
type sampleWire struct {
	Time             time.Time    `json:"time"`
	TopC             *float64     `json:"top_c"`
	BottomC          *float64     `json:"bottom_c"`
	IRC              *float64     `json:"ir_c"`
	ExternalC        *float64     `json:"external_c"`
	State            ProcessState `json:"state"`
	Phase            string       `json:"phase,omitempty"`
	RemainingSeconds int          `json:"remaining_seconds"`
	OutTop           int          `json:"out_top"`
	OutBottom        int          `json:"out_bottom"`
	OutIR            int          `json:"out_ir"`
}

func tempPtr(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

func tempVal(p *float64) float64 {
	if p == nil {
		return math.NaN()
	}
	return *p
}

func (s TelemetrySample) MarshalJSON() ([]byte, error) {
	return json.Marshal(sampleWire{
		Time:             s.Time,
		TopC:             tempPtr(s.TopC),
		BottomC:          tempPtr(s.BottomC),
		IRC:              tempPtr(s.IRC),
		ExternalC:        tempPtr(s.ExternalC),
		State:            s.State,
		Phase:            s.Phase,
		RemainingSeconds: s.RemainingSeconds,
		OutTop:           s.OutTop,
		OutBottom:        s.OutBottom,
		OutIR:            s.OutIR,
	})
}

func (s *TelemetrySample) UnmarshalJSON(data []byte) error {
	var w sampleWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*s = TelemetrySample{
		Time:             w.Time,
		TopC:             tempVal(w.TopC),
		BottomC:          tempVal(w.BottomC),
		IRC:              tempVal(w.IRC),
		ExternalC:        tempVal(w.ExternalC),
		State:            w.State,
		Phase:            w.Phase,
		RemainingSeconds: w.RemainingSeconds,
		OutTop:           w.OutTop,
		OutBottom:        w.OutBottom,
		OutIR:            w.OutIR,
	}
	return nil
}

// LogEntry is one row of the telemetry log.
type LogEntry struct {
	Time   time.Time       `json:"time"`
	Sample TelemetrySample `json:"sample"`
}
