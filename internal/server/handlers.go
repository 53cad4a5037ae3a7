package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ironsheep/cranial-tools-mcp/internal/cranial"
	"github.com/ironsheep/cranial-tools-mcp/internal/imaging"
	log "github.com/ironsheep/cranial-tools-mcp/internal/log"
)

var (
	errInvalidArgs     = errors.New("invalid arguments")
	errSessionNotFound = errors.New("session not found")
	errNotCalibrating  = errors.New("session is not calibrating")
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "cranial_load_photo", "cranial_click").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// ToolErrorData is the data payload of a failed tool call.
type ToolErrorData struct {
	Kind   string `json:"kind"`
	Detail string `json:"detail"`
}

// errorKind maps an error to the stable kind reported to clients.
func errorKind(err error) string {
	switch {
	case errors.Is(err, errInvalidArgs):
		return "invalid_arguments"
	case errors.Is(err, errSessionNotFound):
		return "session_not_found"
	case errors.Is(err, errNotCalibrating):
		return "not_calibrating"
	}
	return cranial.ErrorKind(err)
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Argument errors return code -32602 and other tool failures -32000, both
// with a ToolErrorData payload.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", ToolErrorData{Kind: "invalid_arguments", Detail: err.Error()})
	}

	log.Debug(log.Fields{"tool": params.Name}, "tool call")
	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		data := ToolErrorData{Kind: errorKind(err), Detail: err.Error()}
		log.Warn(log.Fields{"tool": params.Name, "kind": data.Kind, "error": err}, "tool call failed")
		if errors.Is(err, errInvalidArgs) {
			return s.errorResponse(req.ID, -32602, "Invalid params", data)
		}
		return s.errorResponse(req.ID, -32000, "Tool execution failed", data)
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Session Lifecycle
	case "cranial_load_photo":
		return s.handleLoadPhoto(args)
	case "cranial_close":
		return s.handleClose(args)
	case "cranial_state":
		return s.handleState(args)

	// Calibration
	case "cranial_begin_calibration":
		return s.handleBeginCalibration(args)
	case "cranial_calibration_click":
		return s.handleCalibrationClick(args)

	// Landmark Capture
	case "cranial_select_mode":
		return s.handleSelectMode(args)
	case "cranial_click":
		return s.handleClick(args)
	case "cranial_undo":
		return s.handleUndo(args)
	case "cranial_clear_measurement":
		return s.handleClearMeasurement(args)
	case "cranial_reset":
		return s.handleReset(args)

	// Metrics and Classification
	case "cranial_calculate":
		return s.handleCalculate(args)
	case "cranial_assess":
		return s.handleAssess(args)
	case "cranial_reassess":
		return s.handleReassess(args)

	// Photo Views
	case "cranial_zoom":
		return s.handleZoom(args)
	case "cranial_annotate":
		return s.handleAnnotate(args)

	default:
		return nil, fmt.Errorf("%w: unknown tool: %s", errInvalidArgs, name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message string, data interface{}) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// decodeArgs unmarshals tool arguments, tagging failures as argument errors.
func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("%w: %v", errInvalidArgs, err)
	}
	return nil
}

// parseDate accepts YYYY-MM-DD or RFC 3339.
func parseDate(field, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.DateOnly, value); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: %s must be YYYY-MM-DD or RFC 3339, got %q", errInvalidArgs, field, value)
}

// stateResult is returned by tools that change the session state.
type stateResult struct {
	SessionID string           `json:"session_id"`
	State     cranial.Snapshot `json:"state"`
}

func (ps *photoSession) state() stateResult {
	return stateResult{SessionID: ps.id, State: ps.capture.Snapshot()}
}

type sessionArgs struct {
	SessionID string `json:"session_id"`
}

func (s *Server) sessionFromArgs(args json.RawMessage) (*photoSession, error) {
	var a sessionArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return s.session(a.SessionID)
}

// === Session Lifecycle Handlers ===

type loadPhotoArgs struct {
	Path        string `json:"path"`
	SessionID   string `json:"session_id"`
	AxisScaling string `json:"axis_scaling"`
}

type loadPhotoResult struct {
	SessionID string             `json:"session_id"`
	Photo     *imaging.PhotoInfo `json:"photo"`
	State     cranial.Snapshot   `json:"state"`
}

func (s *Server) handleLoadPhoto(args json.RawMessage) (interface{}, error) {
	var a loadPhotoArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, fmt.Errorf("%w: path is required", errInvalidArgs)
	}
	axis := s.cfg.Axis()
	if a.AxisScaling != "" {
		parsed, err := cranial.ParseAxisScaling(a.AxisScaling)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errInvalidArgs, err)
		}
		axis = parsed
	}

	photo, err := imaging.LoadPhotoInfo(s.cache, a.Path)
	if err != nil {
		return nil, err
	}

	var ps *photoSession
	if a.SessionID != "" {
		ps, err = s.session(a.SessionID)
		if err != nil {
			return nil, err
		}
		if err := s.reload(ps, photo, axis, a.AxisScaling != ""); err != nil {
			return nil, err
		}
	} else {
		capture, err := cranial.NewSession(photo.Geometry(), cranial.SessionOptions{Axis: axis})
		if err != nil {
			return nil, err
		}
		ps = s.openSession(photo, capture)
	}

	log.Info(log.Fields{"session": ps.id, "path": photo.Path, "width": photo.Width, "height": photo.Height, "axis": ps.capture.Axis()}, "photo loaded")
	return loadPhotoResult{SessionID: ps.id, Photo: photo, State: ps.capture.Snapshot()}, nil
}

// reload switches an open session to a new photo. A changed axis scaling
// needs a fresh state machine; otherwise the existing one is reset.
func (s *Server) reload(ps *photoSession, photo *imaging.PhotoInfo, axis cranial.AxisScaling, axisGiven bool) error {
	if axisGiven && axis != ps.capture.Axis() {
		capture, err := cranial.NewSession(photo.Geometry(), cranial.SessionOptions{Axis: axis})
		if err != nil {
			return err
		}
		ps.capture = capture
	} else if err := ps.capture.LoadPhoto(photo.Geometry()); err != nil {
		return err
	}

	s.mu.Lock()
	old := ps.photo.Path
	ps.photo = photo
	ps.metrics = nil
	if old != photo.Path {
		s.evictUnusedLocked(old)
	}
	s.mu.Unlock()
	return nil
}

func (s *Server) handleClose(args json.RawMessage) (interface{}, error) {
	var a sessionArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	ps, err := s.closeSession(a.SessionID)
	if err != nil {
		return nil, err
	}
	log.Info(log.Fields{"session": ps.id, "open_for": s.now().Sub(ps.opened).Round(time.Second)}, "session closed")
	return map[string]interface{}{"session_id": ps.id, "closed": true}, nil
}

func (s *Server) handleState(args json.RawMessage) (interface{}, error) {
	ps, err := s.sessionFromArgs(args)
	if err != nil {
		return nil, err
	}
	return ps.state(), nil
}

// === Calibration Handlers ===

func (s *Server) handleBeginCalibration(args json.RawMessage) (interface{}, error) {
	ps, err := s.sessionFromArgs(args)
	if err != nil {
		return nil, err
	}
	ps.capture.BeginCalibration()
	ps.metrics = nil
	return ps.state(), nil
}

type clickArgs struct {
	SessionID string   `json:"session_id"`
	X         *float64 `json:"x"`
	Y         *float64 `json:"y"`
}

func (a clickArgs) point() (cranial.NormPoint, error) {
	if a.X == nil || a.Y == nil {
		return cranial.NormPoint{}, fmt.Errorf("%w: x and y are required", errInvalidArgs)
	}
	return cranial.NormPoint{X: *a.X, Y: *a.Y}, nil
}

type calibrationClickArgs struct {
	clickArgs
	LengthMM json.RawMessage `json:"length_mm"`
}

// lengthPrompt adapts the length_mm argument to the calibration prompt.
// A missing value dismisses the prompt.
func lengthPrompt(raw json.RawMessage) cranial.PromptFunc {
	return func() (string, bool) {
		text := strings.TrimSpace(string(raw))
		if text == "" || text == "null" {
			return "", false
		}
		var str string
		if err := json.Unmarshal(raw, &str); err == nil {
			return str, true
		}
		return text, true
	}
}

type clickResult struct {
	Click cranial.ClickResult `json:"click"`
	stateResult
}

func (s *Server) handleCalibrationClick(args json.RawMessage) (interface{}, error) {
	var a calibrationClickArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	p, err := a.point()
	if err != nil {
		return nil, err
	}
	ps, err := s.session(a.SessionID)
	if err != nil {
		return nil, err
	}
	if _, ok := ps.capture.Mode().(cranial.Calibrating); !ok {
		return nil, fmt.Errorf("%w: call cranial_begin_calibration first (mode is %s)", errNotCalibrating, ps.capture.Mode())
	}

	ps.capture.SetPrompter(lengthPrompt(a.LengthMM))
	defer ps.capture.SetPrompter(nil)

	res, err := ps.capture.Click(p)
	if err != nil {
		return nil, err
	}
	if res.Calibration != nil {
		ps.metrics = nil
		log.Info(log.Fields{"session": ps.id, "length_mm": res.Calibration.LengthMM, "mm_per_pixel": res.Calibration.Factor}, "calibrated")
	}
	return clickResult{Click: res, stateResult: ps.state()}, nil
}

// === Landmark Capture Handlers ===

type selectModeArgs struct {
	SessionID string `json:"session_id"`
	Mode      string `json:"mode"`
}

func (s *Server) handleSelectMode(args json.RawMessage) (interface{}, error) {
	var a selectModeArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	mode, err := cranial.ParseMode(a.Mode)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidArgs, err)
	}
	ps, err := s.session(a.SessionID)
	if err != nil {
		return nil, err
	}
	if err := ps.capture.SelectMode(mode); err != nil {
		return nil, err
	}
	return ps.state(), nil
}

func (s *Server) handleClick(args json.RawMessage) (interface{}, error) {
	var a clickArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	p, err := a.point()
	if err != nil {
		return nil, err
	}
	ps, err := s.session(a.SessionID)
	if err != nil {
		return nil, err
	}
	res, err := ps.capture.Click(p)
	if err != nil {
		return nil, err
	}
	return clickResult{Click: res, stateResult: ps.state()}, nil
}

type undoResult struct {
	Removed *cranial.Landmark `json:"removed,omitempty"`
	stateResult
}

func (s *Server) handleUndo(args json.RawMessage) (interface{}, error) {
	ps, err := s.sessionFromArgs(args)
	if err != nil {
		return nil, err
	}
	lm, ok, err := ps.capture.Undo()
	if err != nil {
		return nil, err
	}
	res := undoResult{stateResult: ps.state()}
	if ok {
		res.Removed = &lm
	}
	return res, nil
}

type clearMeasurementArgs struct {
	SessionID   string `json:"session_id"`
	Measurement string `json:"measurement"`
}

func (s *Server) handleClearMeasurement(args json.RawMessage) (interface{}, error) {
	var a clearMeasurementArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	m, ok := cranial.ParseMeasurement(a.Measurement)
	if !ok {
		aux, isAux := cranial.ParseAux(a.Measurement)
		if !isAux {
			return nil, fmt.Errorf("%w: unknown measurement %q", errInvalidArgs, a.Measurement)
		}
		m = cranial.Measurement(aux)
	}
	ps, err := s.session(a.SessionID)
	if err != nil {
		return nil, err
	}
	n, err := ps.capture.ClearMeasurement(m)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"removed": n, "session_id": ps.id, "state": ps.capture.Snapshot()}, nil
}

type resetArgs struct {
	SessionID       string `json:"session_id"`
	KeepCalibration *bool  `json:"keep_calibration"`
}

func (s *Server) handleReset(args json.RawMessage) (interface{}, error) {
	var a resetArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	ps, err := s.session(a.SessionID)
	if err != nil {
		return nil, err
	}
	if a.KeepCalibration == nil || *a.KeepCalibration {
		ps.capture.ResetMeasurements()
	} else if err := ps.capture.LoadPhoto(ps.capture.Geometry()); err != nil {
		return nil, err
	}
	ps.metrics = nil
	return ps.state(), nil
}

// === Metrics and Classification Handlers ===

type calculateResult struct {
	SessionID string                 `json:"session_id"`
	Metrics   *cranial.Metrics       `json:"metrics"`
	Display   cranial.MetricsDisplay `json:"display"`
}

// calculate derives and caches the session's metrics.
func (ps *photoSession) calculate() (*cranial.Metrics, error) {
	if ps.metrics != nil && ps.capture.Frozen() {
		return ps.metrics, nil
	}
	m, err := ps.capture.Calculate()
	if err != nil {
		return nil, err
	}
	ps.metrics = m
	return m, nil
}

func (s *Server) handleCalculate(args json.RawMessage) (interface{}, error) {
	ps, err := s.sessionFromArgs(args)
	if err != nil {
		return nil, err
	}
	m, err := ps.calculate()
	if err != nil {
		return nil, err
	}
	return calculateResult{SessionID: ps.id, Metrics: m, Display: m.Display()}, nil
}

type patientArgs struct {
	BirthDate  string `json:"birth_date"`
	Sex        string `json:"sex"`
	MeasuredAt string `json:"measured_at"`
}

func (s *Server) patient(a patientArgs) (cranial.Patient, time.Time, error) {
	if a.BirthDate == "" {
		return cranial.Patient{}, time.Time{}, fmt.Errorf("%w: birth_date is required", errInvalidArgs)
	}
	birth, err := parseDate("birth_date", a.BirthDate)
	if err != nil {
		return cranial.Patient{}, time.Time{}, err
	}
	sex, err := cranial.ParseSex(a.Sex)
	if err != nil {
		return cranial.Patient{}, time.Time{}, fmt.Errorf("%w: %v", errInvalidArgs, err)
	}
	at := s.now()
	if a.MeasuredAt != "" {
		at, err = parseDate("measured_at", a.MeasuredAt)
		if err != nil {
			return cranial.Patient{}, time.Time{}, err
		}
	}
	return cranial.Patient{BirthDate: birth, Sex: sex}, at, nil
}

// advisory is the localized text of an assessment.
type advisory struct {
	Summary  string `json:"summary"`
	Advisory string `json:"advisory,omitempty"`
}

func (s *Server) describe(a cranial.Assessment) advisory {
	return advisory{Summary: s.printer.Summary(a), Advisory: s.printer.Flag(a.Flag)}
}

func logFlag(fields log.Fields, f *cranial.ValidationFlag) {
	if f == nil {
		return
	}
	fields["kind"] = f.Kind
	fields["reason"] = f.Reason
	log.Info(fields, "circumference advisory")
}

type assessArgs struct {
	SessionID string `json:"session_id"`
	patientArgs
}

type assessResult struct {
	Record cranial.Record `json:"record"`
	advisory
}

func (s *Server) handleAssess(args json.RawMessage) (interface{}, error) {
	var a assessArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	ps, err := s.session(a.SessionID)
	if err != nil {
		return nil, err
	}
	patient, at, err := s.patient(a.patientArgs)
	if err != nil {
		return nil, err
	}
	m, err := ps.calculate()
	if err != nil {
		return nil, err
	}

	assessment := cranial.Assess(m, patient, at, s.ref)
	snap := ps.capture.Snapshot()
	record := cranial.NewRecord(m, snap.Calibration, snap.Landmarks, patient, at, assessment)
	logFlag(log.Fields{"session": ps.id, "record": record.ID}, assessment.Flag)

	return assessResult{Record: record, advisory: s.describe(assessment)}, nil
}

type reassessArgs struct {
	cranial.RawDistances
	patientArgs
	Thresholds string `json:"thresholds"`
}

type reassessResult struct {
	Assessment cranial.Assessment `json:"assessment"`
	Metrics    *cranial.Metrics   `json:"metrics"`
	advisory
}

func (s *Server) handleReassess(args json.RawMessage) (interface{}, error) {
	var a reassessArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	patient, at, err := s.patient(a.patientArgs)
	if err != nil {
		return nil, err
	}
	ref := s.ref
	if a.Thresholds != "" {
		t, err := cranial.PresetThresholds(a.Thresholds)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errInvalidArgs, err)
		}
		ref.Thresholds = t
	}

	assessment, m, err := cranial.Reassess(a.RawDistances, patient, at, ref)
	if err != nil {
		return nil, err
	}
	logFlag(log.Fields{"tool": "cranial_reassess"}, assessment.Flag)
	return reassessResult{Assessment: assessment, Metrics: m, advisory: s.describe(assessment)}, nil
}

// === Photo View Handlers ===

type zoomArgs struct {
	clickArgs
	Radius float64 `json:"radius"`
	Size   int     `json:"size"`
}

func (s *Server) handleZoom(args json.RawMessage) (interface{}, error) {
	var a zoomArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	p, err := a.point()
	if err != nil {
		return nil, err
	}
	if a.Radius == 0 {
		a.Radius = imaging.DefaultZoomRadius
	}
	if a.Size == 0 {
		a.Size = imaging.DefaultZoomSize
	}
	ps, err := s.session(a.SessionID)
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(ps.photo.Path)
	if err != nil {
		return nil, err
	}
	return imaging.Zoom(img, p, a.Radius, a.Size)
}

type annotateArgs struct {
	SessionID        string `json:"session_id"`
	Dim              bool   `json:"dim"`
	MaxSize          *int   `json:"max_size"`
	CalibrationColor string `json:"calibration_color"`
}

// defaultAnnotateSize bounds annotated output unless the caller asks otherwise.
const defaultAnnotateSize = 1024

func (s *Server) handleAnnotate(args json.RawMessage) (interface{}, error) {
	var a annotateArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	ps, err := s.session(a.SessionID)
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(ps.photo.Path)
	if err != nil {
		return nil, err
	}

	maxSize := defaultAnnotateSize
	if a.MaxSize != nil {
		maxSize = *a.MaxSize
	}
	if maxSize < 0 {
		return nil, fmt.Errorf("%w: max_size must not be negative", errInvalidArgs)
	}

	snap := ps.capture.Snapshot()
	return imaging.Annotate(img, imaging.AnnotateOptions{
		Landmarks:        snap.Landmarks,
		Calibration:      snap.Calibration,
		PendingStart:     snap.PendingStart,
		Metrics:          ps.metrics,
		Dim:              a.Dim,
		MaxSize:          maxSize,
		CalibrationColor: a.CalibrationColor,
	})
}
