package cranial

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrCalibrationInvalidInput is returned when the calibration length is
	// missing, non-numeric or not positive, or when the two calibration points
	// coincide. Both calibration points are discarded.
	ErrCalibrationInvalidInput = errors.New("invalid calibration input")

	// ErrCalibrationRequired is returned when a measurement is attempted
	// before the photo has been calibrated.
	ErrCalibrationRequired = errors.New("calibration required")

	// ErrIncompleteMeasurement is returned when fewer than the four required
	// point pairs have been placed.
	ErrIncompleteMeasurement = errors.New("measurements incomplete")

	// ErrIndeterminateIndex is returned when the geometry makes an index
	// undefined (for example a zero comprimento).
	ErrIndeterminateIndex = errors.New("indeterminate index")

	// ErrPointOutOfBounds is returned for clicks outside the normalized [0,1] range.
	ErrPointOutOfBounds = errors.New("point outside image")

	// ErrMeasurementFrozen is returned when landmarks are edited after Calculate.
	ErrMeasurementFrozen = errors.New("measurement set is frozen")

	// ErrInvalidGeometry is returned for photos without a positive width and height.
	ErrInvalidGeometry = errors.New("invalid image geometry")
)

// IncompleteError lists the measurement types still missing a complete pair.
// It matches ErrIncompleteMeasurement with errors.Is.
type IncompleteError struct {
	Missing []Measurement
}

func (e *IncompleteError) Error() string {
	names := make([]string, len(e.Missing))
	for i, m := range e.Missing {
		names[i] = string(m)
	}
	return fmt.Sprintf("%s: missing %s", ErrIncompleteMeasurement, strings.Join(names, ", "))
}

func (e *IncompleteError) Is(target error) bool {
	return target == ErrIncompleteMeasurement
}

// ErrorKind returns a stable identifier for the error's category, suitable
// for machine consumers. Unknown errors map to "internal".
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrCalibrationInvalidInput):
		return "calibration_invalid_input"
	case errors.Is(err, ErrCalibrationRequired):
		return "calibration_required"
	case errors.Is(err, ErrIncompleteMeasurement):
		return "incomplete_measurement"
	case errors.Is(err, ErrIndeterminateIndex):
		return "indeterminate_index"
	case errors.Is(err, ErrPointOutOfBounds):
		return "point_out_of_bounds"
	case errors.Is(err, ErrMeasurementFrozen):
		return "measurement_frozen"
	case errors.Is(err, ErrInvalidGeometry):
		return "invalid_geometry"
	default:
		return "internal"
	}
}
