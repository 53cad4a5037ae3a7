package cranial

import (
	"fmt"
	"math"
	"strings"
	"time"

	"gonum.org/v1/gonum/interp"
)

// Sex is the patient's sex as used by the growth reference.
type Sex string

const (
	SexMale   Sex = "M"
	SexFemale Sex = "F"
)

// ParseSex accepts M/F and the English and Portuguese words.
func ParseSex(s string) (Sex, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "m", "male", "masculino", "menino", "boy":
		return SexMale, nil
	case "f", "female", "feminino", "menina", "girl":
		return SexFemale, nil
	default:
		return "", fmt.Errorf("unknown sex %q", s)
	}
}

// GrowthPoint is the expected head-circumference band at one age.
type GrowthPoint struct {
	AgeMonths float64 `json:"age_months"`
	LowerMM   float64 `json:"lower_mm"`
	UpperMM   float64 `json:"upper_mm"`
}

// GrowthTable is a head-circumference-for-age reference by sex. Points must
// be in ascending age order.
type GrowthTable struct {
	Name   string        `json:"name"`
	Male   []GrowthPoint `json:"male"`
	Female []GrowthPoint `json:"female"`
}

// WHOHeadCircumference returns the WHO head-circumference-for-age 3rd and
// 97th percentiles from birth to 24 months, in millimetres.
func WHOHeadCircumference() *GrowthTable {
	return &GrowthTable{
		Name: "who-hc-p3-p97",
		Male: []GrowthPoint{
			{0, 321, 369}, {1, 351, 395}, {2, 369, 413}, {3, 383, 427},
			{4, 394, 439}, {5, 403, 448}, {6, 410, 456}, {7, 417, 463},
			{8, 422, 469}, {9, 426, 474}, {10, 430, 478}, {11, 434, 482},
			{12, 436, 485}, {15, 443, 493}, {18, 449, 499}, {21, 454, 504},
			{24, 458, 508},
		},
		Female: []GrowthPoint{
			{0, 317, 361}, {1, 343, 388}, {2, 360, 405}, {3, 372, 419},
			{4, 382, 430}, {5, 390, 439}, {6, 397, 446}, {7, 404, 453},
			{8, 409, 459}, {9, 413, 463}, {10, 417, 467}, {11, 420, 471},
			{12, 423, 475}, {15, 430, 483}, {18, 436, 489}, {21, 441, 494},
			{24, 446, 498},
		},
	}
}

// Validate checks that both series have at least two points in strictly
// ascending age order with lower < upper.
func (t *GrowthTable) Validate() error {
	for _, series := range []struct {
		sex    Sex
		points []GrowthPoint
	}{{SexMale, t.Male}, {SexFemale, t.Female}} {
		if len(series.points) < 2 {
			return fmt.Errorf("growth table %q: %s series needs at least two points", t.Name, series.sex)
		}
		for i, p := range series.points {
			if p.LowerMM >= p.UpperMM {
				return fmt.Errorf("growth table %q: %s at %g months: lower %g not below upper %g",
					t.Name, series.sex, p.AgeMonths, p.LowerMM, p.UpperMM)
			}
			if i > 0 && p.AgeMonths <= series.points[i-1].AgeMonths {
				return fmt.Errorf("growth table %q: %s ages not ascending at %g", t.Name, series.sex, p.AgeMonths)
			}
		}
	}
	return nil
}

func (t *GrowthTable) series(sex Sex) []GrowthPoint {
	if sex == SexFemale {
		return t.Female
	}
	return t.Male
}

// Bounds returns the interpolated expected band at ageMonths. ok is false
// when the age lies outside the table.
func (t *GrowthTable) Bounds(sex Sex, ageMonths float64) (lower, upper float64, ok bool) {
	pts := t.series(sex)
	if len(pts) < 2 || !finite(ageMonths) {
		return 0, 0, false
	}
	if ageMonths < pts[0].AgeMonths || ageMonths > pts[len(pts)-1].AgeMonths {
		return 0, 0, false
	}

	ages := make([]float64, len(pts))
	lo := make([]float64, len(pts))
	hi := make([]float64, len(pts))
	for i, p := range pts {
		ages[i], lo[i], hi[i] = p.AgeMonths, p.LowerMM, p.UpperMM
	}
	var fitLo, fitHi interp.PiecewiseLinear
	if err := fitLo.Fit(ages, lo); err != nil {
		return 0, 0, false
	}
	if err := fitHi.Fit(ages, hi); err != nil {
		return 0, 0, false
	}
	return fitLo.Predict(ageMonths), fitHi.Predict(ageMonths), true
}

// FlagKind classifies a validation advisory.
type FlagKind string

const (
	// FlagOutOfRange marks a circumference estimate outside the expected band.
	FlagOutOfRange FlagKind = "out_of_range"

	// FlagUnverifiable marks an estimate that could not be checked, e.g.
	// because the age is outside the reference table.
	FlagUnverifiable FlagKind = "unverifiable"
)

// ValidationFlag is a non-blocking advisory about the circumference estimate.
type ValidationFlag struct {
	Kind      FlagKind `json:"kind"`
	Direction string   `json:"direction,omitempty"` // "below" or "above"
	Reason    string   `json:"reason"`
	ValueMM   float64  `json:"value_mm"`
	LowerMM   float64  `json:"lower_mm,omitempty"`
	UpperMM   float64  `json:"upper_mm,omitempty"`
	AgeMonths float64  `json:"age_months"`
	Sex       Sex      `json:"sex,omitempty"`
}

// CheckCircumference compares a circumference estimate against the growth
// reference. It returns nil when the value is within the expected band.
// A nil table uses WHOHeadCircumference.
func CheckCircumference(perimeterMM, ageMonths float64, sex Sex, t *GrowthTable) *ValidationFlag {
	if t == nil {
		t = WHOHeadCircumference()
	}
	flag := &ValidationFlag{ValueMM: perimeterMM, AgeMonths: ageMonths, Sex: sex}

	if !finite(perimeterMM) {
		flag.Kind = FlagUnverifiable
		flag.Reason = "circumference estimate is not a finite number; re-measure"
		return flag
	}
	if sex != SexMale && sex != SexFemale {
		flag.Kind = FlagUnverifiable
		flag.Reason = "patient sex unknown; circumference not checked against growth reference"
		return flag
	}
	lower, upper, ok := t.Bounds(sex, ageMonths)
	if !ok {
		flag.Kind = FlagUnverifiable
		flag.Reason = fmt.Sprintf("age %.1f months is outside the growth reference; circumference not checked", ageMonths)
		return flag
	}

	flag.LowerMM = math.Round(lower)
	flag.UpperMM = math.Round(upper)
	switch {
	case perimeterMM < lower:
		flag.Direction = "below"
	case perimeterMM > upper:
		flag.Direction = "above"
	default:
		return nil
	}
	flag.Kind = FlagOutOfRange
	flag.Reason = fmt.Sprintf("perimeter %.0f mm %s expected range %.0f-%.0f mm for age %.1f months; verify calibration",
		perimeterMM, flag.Direction, flag.LowerMM, flag.UpperMM, ageMonths)
	return flag
}

// AgeInMonths returns the completed calendar months between birth and at,
// and a fractional age (days / average month length) for interpolation.
// ok is false when at precedes birth.
func AgeInMonths(birth, at time.Time) (completed int, fractional float64, ok bool) {
	by, bm, bd := birth.Date()
	ay, am, ad := at.In(birth.Location()).Date()
	b := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	a := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	if a.Before(b) {
		return 0, 0, false
	}

	completed = (ay-by)*12 + int(am-bm)
	if ad < bd {
		completed--
	}
	const daysPerMonth = 365.25 / 12
	fractional = a.Sub(b).Hours() / 24 / daysPerMonth
	return completed, fractional, true
}
