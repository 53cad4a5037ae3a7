package cranial

import (
	"fmt"
	"strings"
)

// Mode is the interaction mode a click is interpreted under. Exactly one
// mode is active on a Session. The concrete modes are Idle, Calibrating,
// Capturing and CapturingAux.
type Mode interface {
	String() string
	mode()
}

// Idle ignores clicks.
type Idle struct{}

// Calibrating routes clicks to the Calibrator.
type Calibrating struct{}

// Capturing places the start and end points of one measurement.
type Capturing struct {
	Measurement Measurement
}

// CapturingAux places a single auxiliary landmark.
type CapturingAux struct {
	Aux Aux
}

func (Idle) mode()         {}
func (Calibrating) mode()  {}
func (Capturing) mode()    {}
func (CapturingAux) mode() {}

func (Idle) String() string           { return "idle" }
func (Calibrating) String() string    { return "calibrating" }
func (m Capturing) String() string    { return string(m.Measurement) }
func (m CapturingAux) String() string { return string(m.Aux) }

// ParseMode resolves a mode name: "idle", "calibrating" (or "calibration"),
// a measurement name or an auxiliary landmark name.
func ParseMode(s string) (Mode, error) {
	name := strings.TrimSpace(s)
	switch strings.ToLower(name) {
	case "", "idle", "none":
		return Idle{}, nil
	case "calibrating", "calibration", "calibrate":
		return Calibrating{}, nil
	}
	if m, ok := ParseMeasurement(name); ok {
		return Capturing{Measurement: m}, nil
	}
	if a, ok := ParseAux(name); ok {
		return CapturingAux{Aux: a}, nil
	}
	return nil, fmt.Errorf("unknown mode %q", s)
}
