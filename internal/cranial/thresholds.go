package cranial

import (
	"fmt"
	"math"
	"strings"
)

// Shape is the combined head-shape classification.
type Shape string

const (
	ShapeNormal        Shape = "Normal"
	ShapeBraquicefalia Shape = "Braquicefalia"
	ShapeDolicocefalia Shape = "Dolicocefalia"
	ShapePlagiocefalia Shape = "Plagiocefalia"
	ShapeMisto         Shape = "Misto"
	ShapeIndeterminado Shape = "Indeterminado"
)

// Severity grades a finding.
type Severity string

const (
	SeverityNormal        Severity = "normal"
	SeverityMild          Severity = "mild"
	SeverityModerate      Severity = "moderate"
	SeveritySevere        Severity = "severe"
	SeverityIndeterminate Severity = "indeterminate"
)

var bandSeverities = map[Severity]bool{
	SeverityNormal:   true,
	SeverityMild:     true,
	SeverityModerate: true,
	SeveritySevere:   true,
}

// Band is one interval of a threshold table. Max is the band's upper bound;
// nil means unbounded. Shape is only meaningful for Cranial Index bands.
type Band struct {
	Name     string   `json:"name"`
	Max      *float64 `json:"max,omitempty"`
	Shape    Shape    `json:"shape,omitempty"`
	Severity Severity `json:"severity"`
}

// BandTable is an ordered list of bands with ascending upper bounds.
type BandTable struct {
	// UpperInclusive makes a value equal to a band's Max fall in that band.
	// Otherwise it falls in the next band.
	UpperInclusive bool   `json:"upper_inclusive"`
	Bands          []Band `json:"bands"`
}

// Lookup returns the band containing v. v must be finite.
func (t BandTable) Lookup(v float64) (Band, bool) {
	for _, b := range t.Bands {
		if b.Max == nil {
			return b, true
		}
		if v < *b.Max || (t.UpperInclusive && v == *b.Max) {
			return b, true
		}
	}
	return Band{}, false
}

// Validate checks that the table is non-empty, its bounds are finite and
// strictly ascending, and the last band is unbounded.
func (t BandTable) Validate(requireShape bool) error {
	if len(t.Bands) == 0 {
		return fmt.Errorf("no bands")
	}
	prev := math.Inf(-1)
	for i, b := range t.Bands {
		if strings.TrimSpace(b.Name) == "" {
			return fmt.Errorf("band %d has no name", i)
		}
		if !bandSeverities[b.Severity] {
			return fmt.Errorf("band %q has unknown severity %q", b.Name, b.Severity)
		}
		if requireShape {
			switch b.Shape {
			case ShapeNormal, ShapeBraquicefalia, ShapeDolicocefalia:
			default:
				return fmt.Errorf("band %q has invalid shape %q", b.Name, b.Shape)
			}
		}
		last := i == len(t.Bands)-1
		if b.Max == nil {
			if !last {
				return fmt.Errorf("band %q is unbounded but not last", b.Name)
			}
			continue
		}
		if last {
			return fmt.Errorf("last band %q must be unbounded", b.Name)
		}
		if math.IsNaN(*b.Max) || math.IsInf(*b.Max, 0) {
			return fmt.Errorf("band %q has non-finite bound", b.Name)
		}
		if *b.Max <= prev {
			return fmt.Errorf("band %q bound %g is not above %g", b.Name, *b.Max, prev)
		}
		prev = *b.Max
	}
	return nil
}

// Thresholds is a complete classification table for Cranial Index and CVAI.
type Thresholds struct {
	Name         string    `json:"name"`
	CranialIndex BandTable `json:"cranial_index"`
	CVAI         BandTable `json:"cvai"`
}

// Validate checks both tables.
func (t *Thresholds) Validate() error {
	if err := t.CranialIndex.Validate(true); err != nil {
		return fmt.Errorf("thresholds %q: cranial index: %w", t.Name, err)
	}
	if err := t.CVAI.Validate(false); err != nil {
		return fmt.Errorf("thresholds %q: cvai: %w", t.Name, err)
	}
	return nil
}

// Clone returns a deep copy of t.
func (t *Thresholds) Clone() *Thresholds {
	c := *t
	c.CranialIndex.Bands = cloneBands(t.CranialIndex.Bands)
	c.CVAI.Bands = cloneBands(t.CVAI.Bands)
	return &c
}

func cloneBands(in []Band) []Band {
	out := make([]Band, len(in))
	for i, b := range in {
		out[i] = b
		if b.Max != nil {
			v := *b.Max
			out[i].Max = &v
		}
	}
	return out
}

func bound(v float64) *float64 { return &v }

const (
	PresetScientific = "scientific"
	PresetDashboard  = "dashboard"
)

// ScientificThresholds is the canonical table, taken from the clinical
// assessment form: CI ≤74 dolicocefalia, 74–86 normal, 86–91 mild
// braquicefalia, above 91 braquicefalia; CVAI 3.5 / 6.25 / 8.75.
func ScientificThresholds() *Thresholds {
	return &Thresholds{
		Name: PresetScientific,
		CranialIndex: BandTable{
			UpperInclusive: true,
			Bands: []Band{
				{Name: "dolicocefalia", Max: bound(74), Shape: ShapeDolicocefalia, Severity: SeverityMild},
				{Name: "normal", Max: bound(86), Shape: ShapeNormal, Severity: SeverityNormal},
				{Name: "braquicefalia leve", Max: bound(91), Shape: ShapeBraquicefalia, Severity: SeverityMild},
				{Name: "braquicefalia", Shape: ShapeBraquicefalia, Severity: SeverityModerate},
			},
		},
		CVAI: cvaiTable(8.75),
	}
}

// DashboardThresholds is the table used by the visualization dashboard:
// CI <71 hiperdolicocefalia, 71–75 dolicocefalia, 75–80 mesocefalia,
// 80–85 mild braquicefalia, above 85 braquicefalia; CVAI 3.5 / 6.25 / 8.5.
func DashboardThresholds() *Thresholds {
	return &Thresholds{
		Name: PresetDashboard,
		CranialIndex: BandTable{
			Bands: []Band{
				{Name: "hiperdolicocefalia", Max: bound(71), Shape: ShapeDolicocefalia, Severity: SeverityModerate},
				{Name: "dolicocefalia", Max: bound(75), Shape: ShapeDolicocefalia, Severity: SeverityMild},
				{Name: "mesocefalia", Max: bound(80), Shape: ShapeNormal, Severity: SeverityNormal},
				{Name: "braquicefalia leve", Max: bound(85), Shape: ShapeBraquicefalia, Severity: SeverityMild},
				{Name: "braquicefalia", Shape: ShapeBraquicefalia, Severity: SeverityModerate},
			},
		},
		CVAI: cvaiTable(8.5),
	}
}

func cvaiTable(severeFrom float64) BandTable {
	return BandTable{
		Bands: []Band{
			{Name: "normal", Max: bound(3.5), Severity: SeverityNormal},
			{Name: "plagiocefalia leve", Max: bound(6.25), Severity: SeverityMild},
			{Name: "plagiocefalia moderada", Max: bound(severeFrom), Severity: SeverityModerate},
			{Name: "plagiocefalia grave", Severity: SeveritySevere},
		},
	}
}

// PresetThresholds returns a fresh copy of a named preset.
func PresetThresholds(name string) (*Thresholds, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", PresetScientific:
		return ScientificThresholds(), nil
	case PresetDashboard:
		return DashboardThresholds(), nil
	default:
		return nil, fmt.Errorf("unknown thresholds preset %q", name)
	}
}
