package cranial

import "math"

// Classification is the shape and severity projection of a pair of indices.
// It is recomputed from the indices on demand and never stored as
// authoritative.
type Classification struct {
	Type Shape `json:"asymmetry_type"`

	// Severity is the severity of the CVAI band.
	Severity Severity `json:"severity_level"`

	CranialIndexBand     string   `json:"cranial_index_band,omitempty"`
	CranialIndexSeverity Severity `json:"cranial_index_severity,omitempty"`
	CVAIBand             string   `json:"cvai_band,omitempty"`
	Thresholds           string   `json:"thresholds"`
}

// Indeterminate reports whether the inputs could not be classified.
func (c Classification) Indeterminate() bool {
	return c.Type == ShapeIndeterminado
}

// Classify maps a Cranial Index and CVAI (in percent, unrounded) to a shape
// and severity. A normal CI with elevated CVAI is Plagiocefalia, an abnormal
// CI with elevated CVAI is Misto, an abnormal CI alone is Braquicefalia or
// Dolicocefalia. Severity comes from the CVAI band alone; the Cranial
// Index band's own severity is reported as CranialIndexSeverity.
//
// Non-finite inputs yield an indeterminate classification. A nil table uses
// ScientificThresholds.
func Classify(cranialIndex, cvai float64, t *Thresholds) Classification {
	if t == nil {
		t = ScientificThresholds()
	}
	out := Classification{
		Type:       ShapeIndeterminado,
		Severity:   SeverityIndeterminate,
		Thresholds: t.Name,
	}
	if !finite(cranialIndex) || !finite(cvai) {
		return out
	}

	ciBand, okCI := t.CranialIndex.Lookup(cranialIndex)
	cvaiBand, okCVAI := t.CVAI.Lookup(cvai)
	if !okCI || !okCVAI {
		return out
	}

	out.CranialIndexBand = ciBand.Name
	out.CVAIBand = cvaiBand.Name
	out.CranialIndexSeverity = ciBand.Severity
	out.Severity = cvaiBand.Severity

	elevated := cvaiBand.Severity != SeverityNormal
	abnormal := ciBand.Shape != ShapeNormal
	switch {
	case abnormal && elevated:
		out.Type = ShapeMisto
	case elevated:
		out.Type = ShapePlagiocefalia
	case abnormal:
		out.Type = ciBand.Shape
	default:
		out.Type = ShapeNormal
	}
	return out
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
