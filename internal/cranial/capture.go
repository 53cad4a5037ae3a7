package cranial

import "fmt"

// ClickOutcome describes what a click did.
type ClickOutcome string

const (
	OutcomeIgnored          ClickOutcome = "ignored"
	OutcomeAppended         ClickOutcome = "appended"
	OutcomeCalibrationStart ClickOutcome = "calibration_start"
	OutcomeCalibrated       ClickOutcome = "calibrated"
)

// ClickResult reports the effect of Session.Click.
type ClickResult struct {
	Outcome ClickOutcome `json:"outcome"`

	// Label is set when a landmark was appended.
	Label Label `json:"label,omitempty"`

	// Mode is the mode active after the click.
	Mode string `json:"mode"`

	// Calibration is set when the click completed a calibration.
	Calibration *Calibration `json:"calibration,omitempty"`
}

// SessionOptions configures a Session.
type SessionOptions struct {
	// Axis selects the pixel scaling for calibration and derivation.
	// The zero value means AxisWidth.
	Axis AxisScaling

	// Prompter supplies the calibration length after the second
	// calibration click.
	Prompter LengthPrompter
}

// Session is the landmark capture state machine for one photo.
type Session struct {
	geom   Geometry
	axis   AxisScaling
	mode   Mode
	cal    *Calibrator
	set    MeasurementSet
	frozen bool
}

// NewSession starts a session on a photo of the given geometry.
func NewSession(g Geometry, opts SessionOptions) (*Session, error) {
	if !g.Valid() {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidGeometry, g.Width, g.Height)
	}
	axis := opts.Axis
	if axis == "" {
		axis = AxisWidth
	}
	return &Session{
		geom: g,
		axis: axis,
		mode: Idle{},
		cal:  NewCalibrator(opts.Prompter),
	}, nil
}

// SetPrompter replaces the calibration length prompter.
func (s *Session) SetPrompter(p LengthPrompter) {
	s.cal.prompter = p
}

// LoadPhoto switches the session to a new photo: points, calibration and
// the frozen flag are cleared and the mode returns to Idle.
func (s *Session) LoadPhoto(g Geometry) error {
	if !g.Valid() {
		return fmt.Errorf("%w: %dx%d", ErrInvalidGeometry, g.Width, g.Height)
	}
	s.geom = g
	s.mode = Idle{}
	s.cal.Begin()
	s.set.clear()
	s.frozen = false
	return nil
}

// Geometry returns the photo geometry.
func (s *Session) Geometry() Geometry { return s.geom }

// Axis returns the axis scaling in effect.
func (s *Session) Axis() AxisScaling { return s.axis }

// Mode returns the active mode.
func (s *Session) Mode() Mode { return s.mode }

// Calibration returns the completed calibration, or nil.
func (s *Session) Calibration() *Calibration { return s.cal.Calibration() }

// Frozen reports whether Calculate has frozen the measurement set.
func (s *Session) Frozen() bool { return s.frozen }

// BeginCalibration discards the current calibration and enters Calibrating.
func (s *Session) BeginCalibration() {
	s.cal.Begin()
	s.mode = Calibrating{}
}

// SelectMode makes m the active mode. Selecting Calibrating is the same as
// BeginCalibration. Leaving Calibrating drops a pending start point.
// Capture modes require a completed calibration.
func (s *Session) SelectMode(m Mode) error {
	switch m := m.(type) {
	case nil, Idle:
		s.leaveCalibration()
		s.mode = Idle{}
	case Calibrating:
		s.BeginCalibration()
	case Capturing:
		if err := s.checkCapture(); err != nil {
			return err
		}
		s.leaveCalibration()
		s.mode = m
	case CapturingAux:
		if err := s.checkCapture(); err != nil {
			return err
		}
		s.leaveCalibration()
		s.mode = m
	default:
		return fmt.Errorf("unsupported mode %T", m)
	}
	return nil
}

func (s *Session) checkCapture() error {
	if !s.cal.Calibrated() {
		return ErrCalibrationRequired
	}
	if s.frozen {
		return ErrMeasurementFrozen
	}
	return nil
}

func (s *Session) leaveCalibration() {
	if _, ok := s.mode.(Calibrating); ok {
		s.cal.abandon()
	}
}

// Click interprets a click under the active mode.
func (s *Session) Click(p NormPoint) (ClickResult, error) {
	if !p.Valid() {
		return ClickResult{Outcome: OutcomeIgnored, Mode: s.mode.String()},
			fmt.Errorf("%w: (%g, %g)", ErrPointOutOfBounds, p.X, p.Y)
	}

	switch m := s.mode.(type) {
	case Idle:
		return s.result(OutcomeIgnored, ""), nil

	case Calibrating:
		cal, err := s.cal.Click(p, s.geom, s.axis)
		if err != nil {
			return s.result(OutcomeIgnored, ""), err
		}
		if cal == nil {
			return s.result(OutcomeCalibrationStart, ""), nil
		}
		s.mode = Idle{}
		r := s.result(OutcomeCalibrated, "")
		r.Calibration = cal
		return r, nil

	case Capturing:
		if s.frozen {
			return s.result(OutcomeIgnored, ""), ErrMeasurementFrozen
		}
		var label Label
		switch s.set.Count(string(m.Measurement)) {
		case 0:
			label = StartLabel(m.Measurement)
		case 1:
			label = EndLabel(m.Measurement)
			s.mode = Idle{}
		default:
			return s.result(OutcomeIgnored, ""), nil
		}
		s.set.add(label, p)
		return s.result(OutcomeAppended, label), nil

	case CapturingAux:
		if s.frozen {
			return s.result(OutcomeIgnored, ""), ErrMeasurementFrozen
		}
		if s.set.Count(string(m.Aux)) >= 1 {
			return s.result(OutcomeIgnored, ""), nil
		}
		label := Label(m.Aux)
		s.set.add(label, p)
		s.mode = Idle{}
		return s.result(OutcomeAppended, label), nil

	default:
		return s.result(OutcomeIgnored, ""), fmt.Errorf("unsupported mode %T", m)
	}
}

func (s *Session) result(o ClickOutcome, l Label) ClickResult {
	return ClickResult{Outcome: o, Label: l, Mode: s.mode.String()}
}

// Undo removes the most recently placed landmark.
func (s *Session) Undo() (Landmark, bool, error) {
	if s.frozen {
		return Landmark{}, false, ErrMeasurementFrozen
	}
	lm, ok := s.set.removeLast()
	return lm, ok, nil
}

// ClearMeasurement removes both points of one measurement.
func (s *Session) ClearMeasurement(m Measurement) (int, error) {
	if s.frozen {
		return 0, ErrMeasurementFrozen
	}
	return s.set.removePrefix(string(m)), nil
}

// ResetMeasurements clears all landmarks and unfreezes the set. The
// calibration is kept.
func (s *Session) ResetMeasurements() {
	s.set.clear()
	s.frozen = false
	if _, ok := s.mode.(Calibrating); !ok {
		s.mode = Idle{}
	}
}

// Calculate derives the metrics from the current landmarks and freezes the
// measurement set. On error nothing is frozen.
func (s *Session) Calculate() (*Metrics, error) {
	m, err := Derive(&s.set, s.cal.Calibration(), s.geom)
	if err != nil {
		return nil, err
	}
	s.frozen = true
	if _, ok := s.mode.(Calibrating); !ok {
		s.mode = Idle{}
	}
	return m, nil
}

// Snapshot is a read-only view of a session.
type Snapshot struct {
	Geometry     Geometry             `json:"geometry"`
	Axis         AxisScaling          `json:"axis_scaling"`
	Mode         string               `json:"mode"`
	Calibration  *Calibration         `json:"calibration,omitempty"`
	PendingStart *NormPoint           `json:"pending_calibration_start,omitempty"`
	Landmarks    []Landmark           `json:"landmarks"`
	Complete     map[Measurement]bool `json:"complete"`
	Frozen       bool                 `json:"frozen"`
}

// Snapshot returns a copy of the session state.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		Geometry:    s.geom,
		Axis:        s.axis,
		Mode:        s.mode.String(),
		Calibration: s.cal.Calibration(),
		Landmarks:   s.set.Landmarks(),
		Complete:    make(map[Measurement]bool, len(Measurements)),
		Frozen:      s.frozen,
	}
	if p, ok := s.cal.Pending(); ok {
		snap.PendingStart = &p
	}
	for _, m := range Measurements {
		_, _, ok := s.set.Pair(m)
		snap.Complete[m] = ok
	}
	return snap
}
