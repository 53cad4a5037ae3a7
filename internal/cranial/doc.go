// Package cranial implements the photo-based cranial measurement engine.
//
// A clinician loads a photograph of an infant's head (viewed from above),
// calibrates it against an object of known length, places four pairs of
// landmark points and asks for the derived metrics. The package turns those
// clicks into millimetre distances, the Cranial Index (CI), the Cranial Vault
// Asymmetry Index (CVAI) and an estimated head circumference, and classifies
// the head shape.
//
// # Coordinate System
//
// Every point is expressed in normalized image coordinates: X and Y are in
// [0,1], with (0,0) at the top-left corner. Pixel distances are obtained by
// scaling with the image geometry. With the default AxisWidth scaling both
// axes are scaled by the image width, which reproduces historical
// measurements; AxisAspect scales the vertical axis by the image height.
//
// # Workflow
//
//  1. NewSession with the photo geometry.
//  2. BeginCalibration, then two clicks. The second click asks the
//     LengthPrompter for the real length in millimetres.
//  3. SelectMode(Capturing{...}) and two clicks per measurement
//     (comprimento, largura, diagonalD, diagonalE). Each pair returns the
//     session to Idle when it completes.
//  4. Calculate freezes the measurement set and returns Metrics.
//  5. Assess classifies the metrics and checks the circumference estimate
//     against the growth reference for the patient's age and sex.
//
// # Thread Safety
//
// A Session is single-owner and not safe for concurrent use. Derive,
// Classify, CheckCircumference and Assess are pure functions.
//
// # Error Handling
//
// Every failure is recoverable by re-interacting with the photo. Callers
// test for the sentinel errors with errors.Is:
//   - ErrCalibrationInvalidInput: missing, non-numeric or non-positive length
//   - ErrCalibrationRequired: measurement attempted before calibration
//   - ErrIncompleteMeasurement: fewer than four complete point pairs
//   - ErrIndeterminateIndex: degenerate geometry such as a zero length
//
// An estimated circumference outside the expected band is reported as a
// ValidationFlag on the Assessment, never as an error.
package cranial
