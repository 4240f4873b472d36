package models

// Phase is one stage of a reflow profile.
type Phase struct {
	Name      string  `json:"name"`
	TargetC   int     `json:"target_c"`
	Seconds   int     `json:"seconds"`
	Kp        float64 `json:"kp"`
	Ki        float64 `json:"ki"`
	UseTop    bool    `json:"use_top"`
	UseBottom bool    `json:"use_bottom"`
	UseIR     bool    `json:"use_ir"`
}

// Profile is a named, ordered sequence of thermal phases. Order is execution
// order. Once pushed to the station the device copy is authoritative.
type Profile struct {
	Name       string  `json:"name"`
	OverLimitC int     `json:"over_limit_c"` // safety ceiling, °C
	Phases     []Phase `json:"phases"`
}

// MaxTargetC returns the highest phase target, or 0 for an empty profile.
func (p Profile) MaxTargetC() int {
	max := 0
	for _, ph := range p.Phases {
		if ph.TargetC > max {
			max = ph.TargetC
		}
	}
	return max
}
