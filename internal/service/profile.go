package service

import (
	"fmt"

	"reflowctl/internal/models"
)

// Field ranges accepted by the station firmware.
const (
	MinTargetC = 50
	MaxTargetC = 400
	MinSeconds = 1
	MaxSeconds = 3600
	MinKp      = 0.1
	MaxKp      = 10.0
	MinKi      = 0.001
	MaxKi      = 1.0
)

// ValidationError names one out-of-range profile field.
type ValidationError struct {
	Field string
	Msg   string
}

func (e ValidationError) Error() string {
	return e.Field + ": " + e.Msg
}

// ValidateProfile checks every phase field against its range, that the phase
// sequence is non-empty, and that the safety ceiling is not below any phase
// target. A nil result means the profile can be submitted.
func ValidateProfile(p models.Profile) []ValidationError {
	var errs []ValidationError

	if len(p.Phases) == 0 {
		errs = append(errs, ValidationError{Field: "phases", Msg: "profile needs at least one phase"})
		return errs
	}

	for i, ph := range p.Phases {
		field := func(name string) string { return fmt.Sprintf("phases[%d].%s", i, name) }
		if ph.TargetC < MinTargetC || ph.TargetC > MaxTargetC {
			errs = append(errs, ValidationError{
				Field: field("targetC"),
				Msg:   fmt.Sprintf("%d outside [%d, %d]", ph.TargetC, MinTargetC, MaxTargetC),
			})
		}
		if ph.Seconds < MinSeconds || ph.Seconds > MaxSeconds {
			errs = append(errs, ValidationError{
				Field: field("seconds"),
				Msg:   fmt.Sprintf("%d outside [%d, %d]", ph.Seconds, MinSeconds, MaxSeconds),
			})
		}
		if ph.Kp < MinKp || ph.Kp > MaxKp {
			errs = append(errs, ValidationError{
				Field: field("kp"),
				Msg:   fmt.Sprintf("%g outside [%g, %g]", ph.Kp, MinKp, MaxKp),
			})
		}
		if ph.Ki < MinKi || ph.Ki > MaxKi {
			errs = append(errs, ValidationError{
				Field: field("ki"),
				Msg:   fmt.Sprintf("%g outside [%g, %g]", ph.Ki, MinKi, MaxKi),
			})
		}
	}

	// A safety ceiling below a phase target is meaningless.
	if maxT := p.MaxTargetC(); p.OverLimitC < maxT {
		errs = append(errs, ValidationError{
			Field: "overLimitC",
			Msg:   fmt.Sprintf("%d below the highest phase target %d", p.OverLimitC, maxT),
		})
	}

	return errs
}
