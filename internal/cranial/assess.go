package cranial

import (
	"time"

	"github.com/google/uuid"
)

// Patient is the context supplied by the patient-record collaborator.
type Patient struct {
	BirthDate time.Time `json:"birth_date"`
	Sex       Sex       `json:"sex"`
}

// Reference bundles the tables an assessment is evaluated against.
// Nil fields use the defaults.
type Reference struct {
	Thresholds *Thresholds
	Growth     *GrowthTable
}

// Assessment is the classification and validation projection of a set of
// metrics for one patient at one measurement date.
type Assessment struct {
	Metrics        MetricsDisplay  `json:"metrics"`
	Classification Classification  `json:"classification"`
	Flag           *ValidationFlag `json:"validation_flag,omitempty"`
	AgeMonths      int             `json:"age_months"`
}

// Assess classifies the metrics and checks the circumference estimate.
// Classification uses the unrounded indices; the circumference check uses
// the perimeter rounded to whole millimetres, as displayed.
func Assess(m *Metrics, p Patient, measuredAt time.Time, ref Reference) Assessment {
	a := Assessment{
		Metrics:        m.Display(),
		Classification: Classify(m.CranialIndex, m.CVAI, ref.Thresholds),
	}
	perimeter := float64(a.Metrics.PerimetroMM)

	completed, fractional, ok := AgeInMonths(p.BirthDate, measuredAt)
	if !ok {
		a.Flag = &ValidationFlag{
			Kind:    FlagUnverifiable,
			Reason:  "measurement date precedes birth date; circumference not checked",
			ValueMM: perimeter,
			Sex:     p.Sex,
		}
		return a
	}
	a.AgeMonths = completed
	a.Flag = CheckCircumference(perimeter, fractional, p.Sex, ref.Growth)
	return a
}

// Reassess recomputes the assessment from stored raw distances, so that
// labels always reflect the current tables rather than what was saved.
func Reassess(raw RawDistances, p Patient, measuredAt time.Time, ref Reference) (Assessment, *Metrics, error) {
	m, err := ComputeIndices(raw)
	if err != nil {
		return Assessment{}, nil, err
	}
	return Assess(m, p, measuredAt, ref), m, nil
}

// Record is the plain record handed to the persistence collaborator.
// Raw distances are authoritative; the assessment is informational and
// should be recomputed with Reassess when read back.
type Record struct {
	ID          uuid.UUID    `json:"id"`
	MeasuredAt  time.Time    `json:"measured_at"`
	Patient     Patient      `json:"patient"`
	Raw         RawDistances `json:"raw"`
	Calibration *Calibration `json:"calibration,omitempty"`
	Landmarks   []Landmark   `json:"landmarks,omitempty"`
	Assessment  Assessment   `json:"assessment"`
}

// NewRecord assembles a record with a fresh identifier.
func NewRecord(m *Metrics, cal *Calibration, landmarks []Landmark, p Patient, measuredAt time.Time, a Assessment) Record {
	return Record{
		ID:          uuid.New(),
		MeasuredAt:  measuredAt,
		Patient:     p,
		Raw:         m.Raw(),
		Calibration: cal,
		Landmarks:   landmarks,
		Assessment:  a,
	}
}
