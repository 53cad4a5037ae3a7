package cranial

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// calibratedSession returns a 1000x800 session calibrated at 0.3 mm/px.
func calibratedSession(t *testing.T) *Session {
	t.Helper()
	s, err := NewSession(Geometry{Width: 1000, Height: 800}, SessionOptions{Prompter: answer("60")})
	require.NoError(t, err)

	s.BeginCalibration()
	r, err := s.Click(NormPoint{0.1, 0.5})
	require.NoError(t, err)
	require.Equal(t, OutcomeCalibrationStart, r.Outcome)
	r, err = s.Click(NormPoint{0.3, 0.5})
	require.NoError(t, err)
	require.Equal(t, OutcomeCalibrated, r.Outcome)
	require.Equal(t, "idle", r.Mode)
	return s
}

// placePair selects m and clicks a then b.
func placePair(t *testing.T, s *Session, m Measurement, a, b NormPoint) {
	t.Helper()
	require.NoError(t, s.SelectMode(Capturing{Measurement: m}))
	_, err := s.Click(a)
	require.NoError(t, err)
	_, err = s.Click(b)
	require.NoError(t, err)
}

// placeExample places pairs measuring comprimento=180, largura=144,
// diagonalD=190 and diagonalE=178 mm at 0.3 mm/px on a 1000 px wide photo.
func placeExample(t *testing.T, s *Session) {
	t.Helper()
	placePair(t, s, Comprimento, NormPoint{0.2, 0.2}, NormPoint{0.8, 0.2})
	placePair(t, s, Largura, NormPoint{0.26, 0.5}, NormPoint{0.74, 0.5})
	placePair(t, s, DiagonalD, NormPoint{0.1, 0.1}, NormPoint{0.1, 0.1 + 190.0/300})
	placePair(t, s, DiagonalE, NormPoint{0.05, 0.9}, NormPoint{0.05 + 178.0/300, 0.9})
}

func TestNewSession_InvalidGeometry(t *testing.T) {
	_, err := NewSession(Geometry{Width: 0, Height: 10}, SessionOptions{})
	assert.ErrorIs(t, err, ErrInvalidGeometry)
	assert.Contains(t, err.Error(), "0x10")

	s, err := NewSession(Geometry{Width: 10, Height: 10}, SessionOptions{})
	require.NoError(t, err)
	err = s.LoadPhoto(Geometry{Width: 640, Height: -1})
	assert.ErrorIs(t, err, ErrInvalidGeometry)
	assert.Contains(t, err.Error(), "640x-1")
}

func TestSession_StartsIdle(t *testing.T) {
	s, err := NewSession(Geometry{Width: 10, Height: 10}, SessionOptions{})
	require.NoError(t, err)
	assert.Equal(t, Idle{}, s.Mode())
	assert.Equal(t, AxisWidth, s.Axis())

	r, err := s.Click(NormPoint{0.5, 0.5})
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, r.Outcome)
	assert.Empty(t, s.Snapshot().Landmarks, "idle clicks place nothing")
}

func TestSession_CaptureRequiresCalibration(t *testing.T) {
	s, err := NewSession(Geometry{Width: 10, Height: 10}, SessionOptions{})
	require.NoError(t, err)

	err = s.SelectMode(Capturing{Measurement: Largura})
	assert.ErrorIs(t, err, ErrCalibrationRequired)
	err = s.SelectMode(CapturingAux{Aux: AuxNariz})
	assert.ErrorIs(t, err, ErrCalibrationRequired)
	assert.Equal(t, Idle{}, s.Mode())
}

func TestSession_PairAutoExits(t *testing.T) {
	s := calibratedSession(t)
	require.NoError(t, s.SelectMode(Capturing{Measurement: Comprimento}))

	r, err := s.Click(NormPoint{0.2, 0.2})
	require.NoError(t, err)
	assert.Equal(t, OutcomeAppended, r.Outcome)
	assert.Equal(t, Label("comprimento-start"), r.Label)
	assert.Equal(t, "comprimento", r.Mode)

	r, err = s.Click(NormPoint{0.8, 0.2})
	require.NoError(t, err)
	assert.Equal(t, Label("comprimento-end"), r.Label)
	assert.Equal(t, "idle", r.Mode)
	assert.Equal(t, Idle{}, s.Mode())
}

func TestSession_ThirdClickIsNoop(t *testing.T) {
	s := calibratedSession(t)
	placePair(t, s, Largura, NormPoint{0.2, 0.5}, NormPoint{0.8, 0.5})
	before := s.Snapshot()

	require.NoError(t, s.SelectMode(Capturing{Measurement: Largura}))
	r, err := s.Click(NormPoint{0.4, 0.4})
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, r.Outcome)

	r, err = s.Click(NormPoint{0.6, 0.6})
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, r.Outcome)

	after := s.Snapshot()
	if diff := cmp.Diff(before.Landmarks, after.Landmarks); diff != "" {
		t.Errorf("landmarks changed (-before +after):\n%s", diff)
	}
	assert.Equal(t, 2, s.set.Count(string(Largura)))
}

func TestSession_AuxSinglePoint(t *testing.T) {
	s := calibratedSession(t)
	require.NoError(t, s.SelectMode(CapturingAux{Aux: AuxNariz}))

	r, err := s.Click(NormPoint{0.5, 0.05})
	require.NoError(t, err)
	assert.Equal(t, OutcomeAppended, r.Outcome)
	assert.Equal(t, Label("nariz"), r.Label)
	assert.Equal(t, Idle{}, s.Mode())

	require.NoError(t, s.SelectMode(CapturingAux{Aux: AuxNariz}))
	r, err = s.Click(NormPoint{0.5, 0.1})
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, r.Outcome)
	assert.Equal(t, 1, s.set.Count("nariz"))
}

func TestSession_ModesAreExclusive(t *testing.T) {
	s := calibratedSession(t)
	require.NoError(t, s.SelectMode(Capturing{Measurement: Comprimento}))
	require.NoError(t, s.SelectMode(Capturing{Measurement: Largura}))
	assert.Equal(t, Capturing{Measurement: Largura}, s.Mode())

	_, err := s.Click(NormPoint{0.1, 0.1})
	require.NoError(t, err)
	assert.Equal(t, 0, s.set.Count(string(Comprimento)))
	assert.Equal(t, 1, s.set.Count(string(Largura)))

	// Entering calibration discards the factor; leaving it drops a lone start point.
	s.BeginCalibration()
	assert.Nil(t, s.Calibration())
	_, err = s.Click(NormPoint{0.1, 0.5})
	require.NoError(t, err)
	require.NotNil(t, s.Snapshot().PendingStart)

	require.NoError(t, s.SelectMode(Idle{}))
	assert.Nil(t, s.Snapshot().PendingStart)
	assert.ErrorIs(t, s.SelectMode(Capturing{Measurement: Largura}), ErrCalibrationRequired)
}

func TestSession_CalibrationRetryStaysInMode(t *testing.T) {
	s, err := NewSession(Geometry{Width: 1000, Height: 1000}, SessionOptions{Prompter: answer("oops")})
	require.NoError(t, err)
	s.BeginCalibration()

	_, err = s.Click(NormPoint{0.1, 0.5})
	require.NoError(t, err)
	r, err := s.Click(NormPoint{0.3, 0.5})
	require.ErrorIs(t, err, ErrCalibrationInvalidInput)
	assert.Equal(t, "calibrating", r.Mode)
	assert.Nil(t, s.Calibration())
	assert.Nil(t, s.Snapshot().PendingStart)

	s.SetPrompter(answer("60"))
	_, err = s.Click(NormPoint{0.1, 0.5})
	require.NoError(t, err)
	r, err = s.Click(NormPoint{0.3, 0.5})
	require.NoError(t, err)
	assert.Equal(t, OutcomeCalibrated, r.Outcome)
	require.NotNil(t, r.Calibration)
	assert.InDelta(t, 0.3, r.Calibration.Factor, 1e-12)
}

func TestSession_ClickOutOfBounds(t *testing.T) {
	s := calibratedSession(t)
	require.NoError(t, s.SelectMode(Capturing{Measurement: Comprimento}))
	_, err := s.Click(NormPoint{1.2, 0.5})
	assert.ErrorIs(t, err, ErrPointOutOfBounds)
	assert.Equal(t, 0, s.set.Len())
}

func TestSession_CalculateIncomplete(t *testing.T) {
	s := calibratedSession(t)
	placePair(t, s, Comprimento, NormPoint{0.2, 0.2}, NormPoint{0.8, 0.2})
	require.NoError(t, s.SelectMode(Capturing{Measurement: Largura}))
	_, err := s.Click(NormPoint{0.3, 0.5})
	require.NoError(t, err)

	m, err := s.Calculate()
	assert.Nil(t, m)
	require.ErrorIs(t, err, ErrIncompleteMeasurement)

	var inc *IncompleteError
	require.ErrorAs(t, err, &inc)
	assert.Equal(t, []Measurement{Largura, DiagonalD, DiagonalE}, inc.Missing)
	assert.False(t, s.Frozen())
}

func TestSession_CalculateFreezes(t *testing.T) {
	s := calibratedSession(t)
	placeExample(t, s)

	m, err := s.Calculate()
	require.NoError(t, err)
	assert.InDelta(t, 80.0, m.CranialIndex, 1e-6)
	assert.True(t, s.Frozen())

	assert.ErrorIs(t, s.SelectMode(Capturing{Measurement: Largura}), ErrMeasurementFrozen)
	_, _, err = s.Undo()
	assert.ErrorIs(t, err, ErrMeasurementFrozen)
	_, err = s.ClearMeasurement(Largura)
	assert.ErrorIs(t, err, ErrMeasurementFrozen)

	// Calculating again reads the frozen set.
	again, err := s.Calculate()
	require.NoError(t, err)
	assert.Equal(t, m, again)

	s.ResetMeasurements()
	assert.False(t, s.Frozen())
	assert.Equal(t, 0, s.set.Len())
	assert.NotNil(t, s.Calibration(), "reset keeps calibration")
}

func TestSession_UndoAndClear(t *testing.T) {
	s := calibratedSession(t)
	placePair(t, s, Comprimento, NormPoint{0.2, 0.2}, NormPoint{0.8, 0.2})
	placePair(t, s, Largura, NormPoint{0.3, 0.5}, NormPoint{0.7, 0.5})

	lm, ok, err := s.Undo()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Label("largura-end"), lm.Label)

	// The pair can be completed again.
	require.NoError(t, s.SelectMode(Capturing{Measurement: Largura}))
	r, err := s.Click(NormPoint{0.72, 0.5})
	require.NoError(t, err)
	assert.Equal(t, Label("largura-end"), r.Label)

	n, err := s.ClearMeasurement(Comprimento)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 0, s.set.Count(string(Comprimento)))
	assert.Equal(t, 2, s.set.Count(string(Largura)))
}

func TestSession_LoadPhotoResets(t *testing.T) {
	s := calibratedSession(t)
	placeExample(t, s)
	_, err := s.Calculate()
	require.NoError(t, err)

	require.NoError(t, s.LoadPhoto(Geometry{Width: 640, Height: 480}))
	snap := s.Snapshot()
	assert.Equal(t, Geometry{Width: 640, Height: 480}, snap.Geometry)
	assert.Nil(t, snap.Calibration)
	assert.Empty(t, snap.Landmarks)
	assert.False(t, snap.Frozen)
	assert.Equal(t, "idle", snap.Mode)

	assert.ErrorIs(t, s.LoadPhoto(Geometry{}), ErrInvalidGeometry)
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
	}{
		{"", Idle{}},
		{"idle", Idle{}},
		{"calibration", Calibrating{}},
		{"comprimento", Capturing{Measurement: Comprimento}},
		{"DIAGONALD", Capturing{Measurement: DiagonalD}},
		{"orelhaE", CapturingAux{Aux: AuxOrelhaE}},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseMode("perimetro")
	assert.Error(t, err)
}

func TestNewMeasurementSet_EnforcesArity(t *testing.T) {
	set := NewMeasurementSet([]Landmark{
		{Label: StartLabel(Comprimento), Point: NormPoint{0.1, 0.1}},
		{Label: EndLabel(Comprimento), Point: NormPoint{0.9, 0.1}},
		{Label: EndLabel(Comprimento), Point: NormPoint{0.5, 0.5}},
		{Label: "nariz", Point: NormPoint{0.5, 0}},
		{Label: "nariz", Point: NormPoint{0.5, 0.1}},
	})
	assert.Equal(t, 3, set.Len())
	_, _, ok := set.Pair(Comprimento)
	assert.True(t, ok)
}
