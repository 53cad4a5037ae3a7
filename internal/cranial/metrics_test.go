package cranial

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeIndices_Examples(t *testing.T) {
	m, err := ComputeIndices(RawDistances{
		ComprimentoMM: 180,
		LarguraMM:     144,
		DiagonalDMM:   190,
		DiagonalEMM:   178,
	})
	require.NoError(t, err)

	assert.InDelta(t, 80.0, m.CranialIndex, 1e-9)
	assert.InDelta(t, 6.3158, m.CVAI, 1e-4)
	assert.InDelta(t, 512.07, m.PerimetroMM, 0.01)

	d := m.Display()
	assert.Equal(t, 512, d.PerimetroMM)
	assert.True(t, d.PerimetroEstimated)
	assert.Equal(t, 80.0, d.CranialIndex)
	assert.Equal(t, 6.3, d.CVAI)
	assert.Equal(t, 180, d.ComprimentoMM)
}

func TestCVAI_Symmetric(t *testing.T) {
	pairs := [][2]float64{{190, 178}, {150, 150}, {0.5, 120}, {133.7, 141.2}}
	for _, p := range pairs {
		a, err := CVAI(p[0], p[1])
		require.NoError(t, err)
		b, err := CVAI(p[1], p[0])
		require.NoError(t, err)
		assert.Equal(t, a, b, "swapping diagonals must not change cvai for %v", p)
	}
}

func TestComputeIndices_Degenerate(t *testing.T) {
	_, err := ComputeIndices(RawDistances{ComprimentoMM: 0, LarguraMM: 140, DiagonalDMM: 180, DiagonalEMM: 175})
	assert.ErrorIs(t, err, ErrIndeterminateIndex)

	_, err = ComputeIndices(RawDistances{ComprimentoMM: 170, LarguraMM: 140, DiagonalDMM: 0, DiagonalEMM: 0})
	assert.ErrorIs(t, err, ErrIndeterminateIndex)

	_, err = ComputeIndices(RawDistances{ComprimentoMM: math.NaN(), LarguraMM: 140, DiagonalDMM: 180, DiagonalEMM: 175})
	assert.ErrorIs(t, err, ErrIndeterminateIndex)
}

func TestDerive_Preconditions(t *testing.T) {
	g := Geometry{Width: 100, Height: 100}

	_, err := Derive(&MeasurementSet{}, nil, g)
	assert.ErrorIs(t, err, ErrCalibrationRequired)

	cal := &Calibration{Factor: 1, Axis: AxisWidth}
	_, err = Derive(&MeasurementSet{}, cal, g)
	assert.ErrorIs(t, err, ErrIncompleteMeasurement)
}

func TestDerive_SessionExample(t *testing.T) {
	s := calibratedSession(t)
	placeExample(t, s)

	m, err := Derive(&s.set, s.Calibration(), s.Geometry())
	require.NoError(t, err)
	assert.InDelta(t, 180, m.ComprimentoMM, 1e-6)
	assert.InDelta(t, 144, m.LarguraMM, 1e-6)
	assert.InDelta(t, 190, m.DiagonalDMM, 1e-6)
	assert.InDelta(t, 178, m.DiagonalEMM, 1e-6)
	assert.InDelta(t, 80.0, m.CranialIndex, 1e-6)
	assert.Equal(t, 512, m.Display().PerimetroMM)
}

func TestDerive_ZeroComprimento(t *testing.T) {
	s := calibratedSession(t)
	p := NormPoint{0.5, 0.5}
	placePair(t, s, Comprimento, p, p)
	placePair(t, s, Largura, NormPoint{0.3, 0.5}, NormPoint{0.7, 0.5})
	placePair(t, s, DiagonalD, NormPoint{0.2, 0.2}, NormPoint{0.8, 0.8})
	placePair(t, s, DiagonalE, NormPoint{0.8, 0.2}, NormPoint{0.2, 0.8})

	m, err := s.Calculate()
	assert.Nil(t, m)
	assert.ErrorIs(t, err, ErrIndeterminateIndex)
	assert.False(t, s.Frozen())
}

func TestPixelDistance_AxisScaling(t *testing.T) {
	g := Geometry{Width: 400, Height: 300}
	a, b := NormPoint{0, 0}, NormPoint{1, 1}

	assert.InDelta(t, math.Hypot(400, 400), g.PixelDistance(a, b, AxisWidth), 1e-9)
	assert.InDelta(t, 500, g.PixelDistance(a, b, AxisAspect), 1e-9)
}

func TestParseAxisScaling(t *testing.T) {
	for in, want := range map[string]AxisScaling{"": AxisWidth, "width": AxisWidth, "ASPECT": AxisAspect} {
		got, err := ParseAxisScaling(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseAxisScaling("height")
	assert.Error(t, err)
}
