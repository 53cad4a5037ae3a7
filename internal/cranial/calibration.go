package cranial

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// LengthPrompter asks the user for the real-world length between the two
// calibration points. It is called synchronously after the second
// calibration click. ok is false when the prompt was dismissed.
type LengthPrompter interface {
	PromptLength() (input string, ok bool)
}

// PromptFunc adapts a function to the LengthPrompter interface.
type PromptFunc func() (string, bool)

// PromptLength calls f.
func (f PromptFunc) PromptLength() (string, bool) { return f() }

// Calibration is a completed photo calibration. It is a value: it does not
// change once computed and is discarded wholesale on recalibration.
type Calibration struct {
	Start    NormPoint   `json:"start"`
	End      NormPoint   `json:"end"`
	LengthMM float64     `json:"length_mm"`
	Factor   float64     `json:"mm_per_pixel"`
	Axis     AxisScaling `json:"axis_scaling"`
	Geometry Geometry    `json:"geometry"`
}

// ParseLength parses a user-entered length in millimetres. A comma is
// accepted as the decimal separator. The result is positive and finite.
func ParseLength(input string) (float64, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return 0, fmt.Errorf("%w: length is required", ErrCalibrationInvalidInput)
	}
	s = strings.Replace(s, ",", ".", 1)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrCalibrationInvalidInput, input)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, fmt.Errorf("%w: length must be a positive number, got %q", ErrCalibrationInvalidInput, input)
	}
	return v, nil
}

// ComputeCalibration derives the millimetres-per-pixel factor for a
// reference segment of known length.
//
// With AxisWidth scaling the factor is lengthMM / (normalizedDistance * W).
func ComputeCalibration(start, end NormPoint, lengthMM float64, g Geometry, axis AxisScaling) (*Calibration, error) {
	if !g.Valid() {
		return nil, ErrInvalidGeometry
	}
	if math.IsNaN(lengthMM) || math.IsInf(lengthMM, 0) || lengthMM <= 0 {
		return nil, fmt.Errorf("%w: length must be positive", ErrCalibrationInvalidInput)
	}
	px := g.PixelDistance(start, end, axis)
	if px == 0 {
		return nil, fmt.Errorf("%w: calibration points coincide", ErrCalibrationInvalidInput)
	}
	return &Calibration{
		Start:    start,
		End:      end,
		LengthMM: lengthMM,
		Factor:   lengthMM / px,
		Axis:     axis,
		Geometry: g,
	}, nil
}

// Calibrator collects the two calibration clicks and the reference length.
type Calibrator struct {
	prompter LengthPrompter
	start    *NormPoint
	current  *Calibration
}

// NewCalibrator returns a Calibrator that asks prompter for the length.
func NewCalibrator(prompter LengthPrompter) *Calibrator {
	return &Calibrator{prompter: prompter}
}

// Begin discards the current calibration and any pending start point.
func (c *Calibrator) Begin() {
	c.start = nil
	c.current = nil
}

// abandon drops a pending start point but keeps a completed calibration.
func (c *Calibrator) abandon() {
	c.start = nil
}

// Click records a calibration point. The first click stores the start point.
// The second click prompts for the length and, on valid input, completes the
// calibration and returns it. On invalid input both points are discarded and
// an error wrapping ErrCalibrationInvalidInput is returned; the caller may
// simply click again.
func (c *Calibrator) Click(p NormPoint, g Geometry, axis AxisScaling) (*Calibration, error) {
	if c.start == nil {
		start := p
		c.start = &start
		return nil, nil
	}
	start := *c.start
	c.start = nil

	if c.prompter == nil {
		return nil, fmt.Errorf("%w: no length prompt available", ErrCalibrationInvalidInput)
	}
	input, ok := c.prompter.PromptLength()
	if !ok {
		return nil, fmt.Errorf("%w: length prompt dismissed", ErrCalibrationInvalidInput)
	}
	length, err := ParseLength(input)
	if err != nil {
		return nil, err
	}
	cal, err := ComputeCalibration(start, p, length, g, axis)
	if err != nil {
		return nil, err
	}
	c.current = cal
	return cal, nil
}

// Pending returns the start point awaiting its end point.
func (c *Calibrator) Pending() (NormPoint, bool) {
	if c.start == nil {
		return NormPoint{}, false
	}
	return *c.start, true
}

// Calibration returns the completed calibration, or nil.
func (c *Calibrator) Calibration() *Calibration {
	if c.current == nil {
		return nil
	}
	cal := *c.current
	return &cal
}

// Calibrated reports whether a calibration factor is available.
func (c *Calibrator) Calibrated() bool { return c.current != nil }
