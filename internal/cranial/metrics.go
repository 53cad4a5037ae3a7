package cranial

import (
	"fmt"
	"math"
)

// Metrics holds the derived physical measurements and indices. Values are
// unrounded; use Display for presentation. A Metrics value is replaced
// wholesale on recomputation.
type Metrics struct {
	ComprimentoMM float64 `json:"comprimento_mm"`
	LarguraMM     float64 `json:"largura_mm"`
	DiagonalDMM   float64 `json:"diagonal_d_mm"`
	DiagonalEMM   float64 `json:"diagonal_e_mm"`

	// PerimetroMM is an ellipse-perimeter estimate of the head
	// circumference computed from comprimento and largura. It is never
	// a measured quantity. Display rounds it to whole millimetres, and
	// that rounded value is what Assess checks against the growth table.
	PerimetroMM float64 `json:"perimetro_mm"`

	CranialIndex float64 `json:"cranial_index"`
	CVAI         float64 `json:"cvai"`
}

// RawDistances are the four linear measurements in millimetres, as stored
// by a persistence collaborator.
type RawDistances struct {
	ComprimentoMM float64 `json:"comprimento_mm"`
	LarguraMM     float64 `json:"largura_mm"`
	DiagonalDMM   float64 `json:"diagonal_d_mm"`
	DiagonalEMM   float64 `json:"diagonal_e_mm"`
}

// Derive computes the metrics for a complete measurement set.
func Derive(set *MeasurementSet, cal *Calibration, g Geometry) (*Metrics, error) {
	if cal == nil {
		return nil, ErrCalibrationRequired
	}
	if !g.Valid() {
		return nil, ErrInvalidGeometry
	}
	if missing := set.Missing(); len(missing) > 0 {
		return nil, &IncompleteError{Missing: missing}
	}

	var raw [4]float64
	for i, m := range Measurements {
		a, b, _ := set.Pair(m)
		raw[i] = g.PixelDistance(a, b, cal.Axis) * cal.Factor
	}
	return ComputeIndices(RawDistances{
		ComprimentoMM: raw[0],
		LarguraMM:     raw[1],
		DiagonalDMM:   raw[2],
		DiagonalEMM:   raw[3],
	})
}

// ComputeIndices derives the indices and perimeter estimate from distances
// already converted to millimetres.
func ComputeIndices(d RawDistances) (*Metrics, error) {
	for _, v := range []float64{d.ComprimentoMM, d.LarguraMM, d.DiagonalDMM, d.DiagonalEMM} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return nil, fmt.Errorf("%w: distance %g is not a finite non-negative length", ErrIndeterminateIndex, v)
		}
	}

	ci, err := CranialIndex(d.ComprimentoMM, d.LarguraMM)
	if err != nil {
		return nil, err
	}
	cvai, err := CVAI(d.DiagonalDMM, d.DiagonalEMM)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		ComprimentoMM: d.ComprimentoMM,
		LarguraMM:     d.LarguraMM,
		DiagonalDMM:   d.DiagonalDMM,
		DiagonalEMM:   d.DiagonalEMM,
		PerimetroMM:   EstimatePerimeter(d.ComprimentoMM, d.LarguraMM),
		CranialIndex:  ci,
		CVAI:          cvai,
	}, nil
}

// CranialIndex returns largura / comprimento * 100.
func CranialIndex(comprimento, largura float64) (float64, error) {
	if comprimento == 0 {
		return 0, fmt.Errorf("%w: comprimento is zero", ErrIndeterminateIndex)
	}
	return largura / comprimento * 100, nil
}

// CVAI returns the relative difference between the two diagonals, in
// percent of the longer one. It is symmetric in its arguments.
func CVAI(diagonalD, diagonalE float64) (float64, error) {
	long := math.Max(diagonalD, diagonalE)
	short := math.Min(diagonalD, diagonalE)
	if long == 0 {
		return 0, fmt.Errorf("%w: diagonals are zero", ErrIndeterminateIndex)
	}
	return (long - short) / long * 100, nil
}

// EstimatePerimeter approximates the head circumference as the perimeter of
// an ellipse with axes comprimento and largura: π·sqrt(2·(a² + b²)) with
// a and b the semi-axes. The result is unrounded.
func EstimatePerimeter(comprimento, largura float64) float64 {
	a := comprimento / 2
	b := largura / 2
	return math.Pi * math.Sqrt(2*(a*a+b*b))
}

// Raw returns the four linear distances.
func (m *Metrics) Raw() RawDistances {
	return RawDistances{
		ComprimentoMM: m.ComprimentoMM,
		LarguraMM:     m.LarguraMM,
		DiagonalDMM:   m.DiagonalDMM,
		DiagonalEMM:   m.DiagonalEMM,
	}
}

// MetricsDisplay is the rounded presentation of Metrics: distances to
// whole millimetres, indices to one decimal.
type MetricsDisplay struct {
	ComprimentoMM int `json:"comprimento_mm"`
	LarguraMM     int `json:"largura_mm"`
	DiagonalDMM   int `json:"diagonal_d_mm"`
	DiagonalEMM   int `json:"diagonal_e_mm"`

	PerimetroMM        int  `json:"perimetro_mm"`
	PerimetroEstimated bool `json:"perimetro_estimated"`

	CranialIndex float64 `json:"cranial_index"`
	CVAI         float64 `json:"cvai"`
}

// Display rounds the metrics for presentation.
func (m *Metrics) Display() MetricsDisplay {
	return MetricsDisplay{
		ComprimentoMM:      roundMM(m.ComprimentoMM),
		LarguraMM:          roundMM(m.LarguraMM),
		DiagonalDMM:        roundMM(m.DiagonalDMM),
		DiagonalEMM:        roundMM(m.DiagonalEMM),
		PerimetroMM:        roundMM(m.PerimetroMM),
		PerimetroEstimated: true,
		CranialIndex:       round1(m.CranialIndex),
		CVAI:               round1(m.CVAI),
	}
}

func roundMM(v float64) int { return int(math.Round(v)) }

func round1(v float64) float64 { return math.Round(v*10) / 10 }
