package service

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"reflowctl/internal/models"
)

// Line protocol tokens and REST endpoints, fixed by the station firmware.
const (
	cmdSetTop     = "A" // A<int> sets the top-heater target
	cmdSetBottom  = "B" // B<int> sets the bottom-heater target
	cmdSetPreheat = "P" // P<int> sets the preheater (IR table) target
	cmdTopOff     = "T"
	cmdBottomOff  = "U"
	cmdPreheatOff = "H"
	cmdGetTemp    = "GET_TEMP"

	epStatus = "status"
	epStart  = "start"
	epStop   = "stop"
	epFan    = "fan"
	epPreset = "preset"
)

// decodeTempLine parses a GET_TEMP response "top,bottom,preheat". Any other
// field count, or a non-numeric field, is a no-update (ok=false).
func decodeTempLine(line string) (top, bottom, ir float64, ok bool) {
	fields := strings.Split(strings.TrimSpace(line), ",")
	if len(fields) != 3 {
		return 0, 0, 0, false
	}
	vals := make([]float64, 3)
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return 0, 0, 0, false
		}
		vals[i] = v
	}
	return vals[0], vals[1], vals[2], true
}

// statusWire is the GET /status payload.
type statusWire struct {
	Top       float64 `json:"top"`
	Bottom    float64 `json:"bottom"`
	IR        float64 `json:"ir"`
	External  float64 `json:"external"`
	State     string  `json:"state"`
	Phase     string  `json:"phase"`
	Remain    int     `json:"remain"`
	OutTop    int     `json:"outTop"`
	OutBottom int     `json:"outBottom"`
	OutIR     int     `json:"outIR"`
}

func decodeStatus(data []byte, at time.Time) (models.TelemetrySample, error) {
	var w statusWire
	if err := json.Unmarshal(data, &w); err != nil {
		return models.TelemetrySample{}, fmt.Errorf("decode status: %w", err)
	}
	return models.TelemetrySample{
		Time:             at,
		TopC:             w.Top,
		BottomC:          w.Bottom,
		IRC:              w.IR,
		ExternalC:        w.External,
		State:            models.ParseProcessState(w.State),
		Phase:            w.Phase,
		RemainingSeconds: w.Remain,
		OutTop:           w.OutTop,
		OutBottom:        w.OutBottom,
		OutIR:            w.OutIR,
	}, nil
}

// profileWire / phaseWire carry the preset JSON shape. Encoding uses the
// value forms; decoding uses pointer fields so a missing required field is
// detected instead of silently defaulted.
type phaseWire struct {
	Name      string  `json:"name"`
	TargetC   int     `json:"targetC"`
	Seconds   int     `json:"seconds"`
	Kp        float64 `json:"Kp"`
	Ki        float64 `json:"Ki"`
	UseTop    bool    `json:"useTop"`
	UseBottom bool    `json:"useBottom"`
	UseIR     bool    `json:"useIR"`
}

type profileWire struct {
	Name       string      `json:"name"`
	OverLimitC int         `json:"overLimitC"`
	N          int         `json:"n"`
	Phases     []phaseWire `json:"phases"`
}

type phaseWireStrict struct {
	Name      *string  `json:"name"`
	TargetC   *int     `json:"targetC"`
	Seconds   *int     `json:"seconds"`
	Kp        *float64 `json:"Kp"`
	Ki        *float64 `json:"Ki"`
	UseTop    *bool    `json:"useTop"`
	UseBottom *bool    `json:"useBottom"`
	UseIR     *bool    `json:"useIR"`
}

type profileWireStrict struct {
	Name       *string           `json:"name"`
	OverLimitC *int              `json:"overLimitC"`
	Phases     []phaseWireStrict `json:"phases"`
}

func encodeProfile(p models.Profile) ([]byte, error) {
	w := profileWire{
		Name:       p.Name,
		OverLimitC: p.OverLimitC,
		N:          len(p.Phases),
		Phases:     make([]phaseWire, 0, len(p.Phases)),
	}
	for _, ph := range p.Phases {
		w.Phases = append(w.Phases, phaseWire{
			Name:      ph.Name,
			TargetC:   ph.TargetC,
			Seconds:   ph.Seconds,
			Kp:        ph.Kp,
			Ki:        ph.Ki,
			UseTop:    ph.UseTop,
			UseBottom: ph.UseBottom,
			UseIR:     ph.UseIR,
		})
	}
	return json.Marshal(w)
}

func decodeProfile(data []byte) (models.Profile, error) {
	var w profileWireStrict
	if err := json.Unmarshal(data, &w); err != nil {
		return models.Profile{}, fmt.Errorf("decode preset: %w", err)
	}
	if w.Name == nil {
		return models.Profile{}, fmt.Errorf("preset missing field name")
	}
	if w.OverLimitC == nil {
		return models.Profile{}, fmt.Errorf("preset missing field overLimitC")
	}
	if w.Phases == nil {
		return models.Profile{}, fmt.Errorf("preset missing field phases")
	}

	p := models.Profile{
		Name:       *w.Name,
		OverLimitC: *w.OverLimitC,
		Phases:     make([]models.Phase, 0, len(w.Phases)),
	}
	for i, ph := range w.Phases {
		if ph.Name == nil || ph.TargetC == nil || ph.Seconds == nil ||
			ph.Kp == nil || ph.Ki == nil ||
			ph.UseTop == nil || ph.UseBottom == nil || ph.UseIR == nil {
			return models.Profile{}, fmt.Errorf("preset phase %d has missing fields", i)
		}
		p.Phases = append(p.Phases, models.Phase{
			Name:      *ph.Name,
			TargetC:   *ph.TargetC,
			Seconds:   *ph.Seconds,
			Kp:        *ph.Kp,
			Ki:        *ph.Ki,
			UseTop:    *ph.UseTop,
			UseBottom: *ph.UseBottom,
			UseIR:     *ph.UseIR,
		})
	}
	return p, nil
}
