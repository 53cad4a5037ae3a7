package cranial

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// NormPoint is a position in normalized image coordinates.
type NormPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Valid reports whether both coordinates are finite and within [0,1].
func (p NormPoint) Valid() bool {
	return inUnit(p.X) && inUnit(p.Y)
}

func inUnit(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= 1
}

// AxisScaling selects how normalized deltas are converted to pixels.
type AxisScaling string

const (
	// AxisWidth scales both axes by the image width. Measurements taken
	// before aspect-aware scaling existed were computed this way.
	AxisWidth AxisScaling = "width"

	// AxisAspect scales the horizontal axis by the width and the vertical
	// axis by the height.
	AxisAspect AxisScaling = "aspect"
)

// ParseAxisScaling parses "width" or "aspect". The empty string means AxisWidth.
func ParseAxisScaling(s string) (AxisScaling, error) {
	switch AxisScaling(strings.ToLower(strings.TrimSpace(s))) {
	case "", AxisWidth:
		return AxisWidth, nil
	case AxisAspect:
		return AxisAspect, nil
	default:
		return "", fmt.Errorf("unknown axis scaling %q (want width or aspect)", s)
	}
}

// Geometry is the pixel size of the photo the points were placed on.
type Geometry struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Valid reports whether the geometry has a positive width and height.
func (g Geometry) Valid() bool {
	return g.Width > 0 && g.Height > 0
}

// toPixels converts a normalized point to pixel space under the given scaling.
func (g Geometry) toPixels(p NormPoint, axis AxisScaling) []float64 {
	sy := float64(g.Width)
	if axis == AxisAspect {
		sy = float64(g.Height)
	}
	return []float64{p.X * float64(g.Width), p.Y * sy}
}

// PixelDistance returns the Euclidean distance in pixels between a and b.
func (g Geometry) PixelDistance(a, b NormPoint, axis AxisScaling) float64 {
	return floats.Distance(g.toPixels(a, axis), g.toPixels(b, axis), 2)
}

// Measurement names one of the four linear measurements taken on the photo.
type Measurement string

const (
	Comprimento Measurement = "comprimento" // anteroposterior length
	Largura     Measurement = "largura"     // biparietal width
	DiagonalD   Measurement = "diagonalD"   // right oblique diagonal
	DiagonalE   Measurement = "diagonalE"   // left oblique diagonal
)

// Measurements lists the measurement types in canonical order.
var Measurements = []Measurement{Comprimento, Largura, DiagonalD, DiagonalE}

// ParseMeasurement resolves a measurement name. Matching is case-insensitive.
func ParseMeasurement(s string) (Measurement, bool) {
	for _, m := range Measurements {
		if strings.EqualFold(s, string(m)) {
			return m, true
		}
	}
	return "", false
}

// Aux names a supplementary single-point anatomical landmark.
type Aux string

const (
	AuxNariz   Aux = "nariz"
	AuxOrelhaD Aux = "orelhaD"
	AuxOrelhaE Aux = "orelhaE"
)

// AuxLandmarks lists the supported auxiliary landmarks.
var AuxLandmarks = []Aux{AuxNariz, AuxOrelhaD, AuxOrelhaE}

// ParseAux resolves an auxiliary landmark name. Matching is case-insensitive.
func ParseAux(s string) (Aux, bool) {
	for _, a := range AuxLandmarks {
		if strings.EqualFold(s, string(a)) {
			return a, true
		}
	}
	return "", false
}

// Label identifies a placed landmark, e.g. "largura-start" or "nariz".
type Label string

const (
	roleStart = "start"
	roleEnd   = "end"
)

// StartLabel returns the label of the first point of a measurement pair.
func StartLabel(m Measurement) Label { return Label(string(m) + "-" + roleStart) }

// EndLabel returns the label of the second point of a measurement pair.
func EndLabel(m Measurement) Label { return Label(string(m) + "-" + roleEnd) }

// Prefix returns the measurement-type part of a pair label, or the whole
// label for auxiliary landmarks.
func (l Label) Prefix() string {
	s := string(l)
	if i := strings.LastIndexByte(s, '-'); i >= 0 {
		return s[:i]
	}
	return s
}

// Landmark is a labeled point placed by the user.
type Landmark struct {
	Label Label     `json:"label"`
	Point NormPoint `json:"point"`
}

// MeasurementSet accumulates landmarks in placement order.
type MeasurementSet struct {
	landmarks []Landmark
}

// Count returns how many landmarks share the given prefix.
func (s *MeasurementSet) Count(prefix string) int {
	n := 0
	for _, lm := range s.landmarks {
		if lm.Label.Prefix() == prefix {
			n++
		}
	}
	return n
}

func (s *MeasurementSet) add(l Label, p NormPoint) {
	s.landmarks = append(s.landmarks, Landmark{Label: l, Point: p})
}

func (s *MeasurementSet) find(l Label) (NormPoint, bool) {
	for _, lm := range s.landmarks {
		if lm.Label == l {
			return lm.Point, true
		}
	}
	return NormPoint{}, false
}

// Pair returns the start and end points of a measurement when both exist.
func (s *MeasurementSet) Pair(m Measurement) (start, end NormPoint, ok bool) {
	if s.Count(string(m)) != 2 {
		return NormPoint{}, NormPoint{}, false
	}
	start, okStart := s.find(StartLabel(m))
	end, okEnd := s.find(EndLabel(m))
	return start, end, okStart && okEnd
}

// Missing returns the measurement types without a complete pair.
func (s *MeasurementSet) Missing() []Measurement {
	var missing []Measurement
	for _, m := range Measurements {
		if _, _, ok := s.Pair(m); !ok {
			missing = append(missing, m)
		}
	}
	return missing
}

// Complete reports whether all four pairs are present.
func (s *MeasurementSet) Complete() bool {
	return len(s.Missing()) == 0
}

// Landmarks returns a copy of the placed landmarks in placement order.
func (s *MeasurementSet) Landmarks() []Landmark {
	out := make([]Landmark, len(s.landmarks))
	copy(out, s.landmarks)
	return out
}

// Len returns the number of placed landmarks.
func (s *MeasurementSet) Len() int { return len(s.landmarks) }

func (s *MeasurementSet) removeLast() (Landmark, bool) {
	if len(s.landmarks) == 0 {
		return Landmark{}, false
	}
	last := s.landmarks[len(s.landmarks)-1]
	s.landmarks = s.landmarks[:len(s.landmarks)-1]
	return last, true
}

func (s *MeasurementSet) removePrefix(prefix string) int {
	kept := s.landmarks[:0]
	removed := 0
	for _, lm := range s.landmarks {
		if lm.Label.Prefix() == prefix {
			removed++
			continue
		}
		kept = append(kept, lm)
	}
	s.landmarks = kept
	return removed
}

func (s *MeasurementSet) clear() {
	s.landmarks = nil
}

// NewMeasurementSet builds a set from previously placed landmarks, for
// example when restoring points stored by an external collaborator.
// Landmarks beyond the per-label arity are dropped.
func NewMeasurementSet(landmarks []Landmark) *MeasurementSet {
	s := &MeasurementSet{}
	for _, lm := range landmarks {
		prefix := lm.Label.Prefix()
		limit := 1
		if _, ok := ParseMeasurement(prefix); ok {
			limit = 2
		}
		if s.Count(prefix) >= limit {
			continue
		}
		if _, dup := s.find(lm.Label); dup {
			continue
		}
		s.add(lm.Label, lm.Point)
	}
	return s
}
