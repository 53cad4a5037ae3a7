// Package server implements the MCP (Model Context Protocol) server for
// cranial photo measurement.
//
// The server exposes a measurement session per loaded photo: calibrate
// against a reference object, place landmarks for the four head
// measurements, derive cranial index and CVAI, and classify the result
// against clinical threshold tables.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Session Lifecycle:
//   - cranial_load_photo: Load a photo and open (or reload) a session
//   - cranial_state: Current mode, calibration and landmarks
//   - cranial_close: Close a session and release its photo
//
// Calibration:
//   - cranial_begin_calibration: Start a new calibration
//   - cranial_calibration_click: Place a calibration point; the second carries length_mm
//
// Landmark Capture:
//   - cranial_select_mode: Activate a measurement, auxiliary landmark or idle
//   - cranial_click: Place a landmark under the active mode
//   - cranial_undo: Remove the last landmark
//   - cranial_clear_measurement: Remove one measurement's points
//   - cranial_reset: Clear all landmarks, optionally the calibration too
//
// Metrics and Classification:
//   - cranial_calculate: Distances, perimeter estimate, CI and CVAI
//   - cranial_assess: Classification, circumference check and record
//   - cranial_reassess: The same from stored raw distances
//
// Photo Views:
//   - cranial_zoom: Magnified view around a point
//   - cranial_annotate: Photo with the overlay drawn on it
//
// # Sessions
//
// Sessions are keyed by a random UUID and hold their capture state machine,
// photo metadata and last calculated metrics. The registry is guarded by a
// mutex; requests are processed one at a time from the stdin loop, so a
// session's state machine is only ever driven by one request.
//
// # Error Handling
//
// Tool errors are returned as JSON-RPC error responses with:
//   - code: -32602 for argument errors, -32000 for tool failures
//   - message: "Invalid params" or "Tool execution failed"
//   - data: ToolErrorData{kind, detail}, where kind is a stable identifier
//     such as "calibration_required" or "incomplete_measurement"
//
// Circumference advisories are not errors: they are part of the assess
// result and are logged at info level.
//
// # Usage
//
//	cfg, err := config.Load(".env")
//	if err != nil {
//	    return err
//	}
//	srv, err := server.New(cfg)
//	if err != nil {
//	    return err
//	}
//	return srv.Run()
package server
