package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func sessionIDProp() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session identifier returned by cranial_load_photo",
	}
}

func normCoordProp(desc string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "number",
		"minimum":     0,
		"maximum":     1,
		"description": desc,
	}
}

func patientProps() map[string]interface{} {
	return map[string]interface{}{
		"birth_date": map[string]interface{}{
			"type":        "string",
			"description": "Patient birth date, YYYY-MM-DD",
		},
		"sex": map[string]interface{}{
			"type":        "string",
			"enum":        []string{"M", "F"},
			"description": "Patient sex, used to pick the growth reference curve",
		},
		"measured_at": map[string]interface{}{
			"type":        "string",
			"description": "Optional measurement date, YYYY-MM-DD or RFC 3339. Default: now",
		},
	}
}

func sessionOnlySchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"session_id": sessionIDProp(),
		},
		"required": []string{"session_id"},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Session Lifecycle
		{
			Name:        "cranial_load_photo",
			Description: "Load a top-view head photo and open a measurement session. Passing session_id reloads that session with a new photo, discarding its points and calibration.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the photo file",
					},
					"session_id": map[string]interface{}{
						"type":        "string",
						"description": "Optional session to reuse",
					},
					"axis_scaling": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"width", "aspect"},
						"description": "Pixel scaling for distances. Default from server configuration",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "cranial_close",
			Description: "Close a measurement session and release its photo.",
			InputSchema: sessionOnlySchema(),
		},
		{
			Name:        "cranial_state",
			Description: "Return the session state: mode, calibration, placed landmarks and which measurements are complete.",
			InputSchema: sessionOnlySchema(),
		},

		// Calibration
		{
			Name:        "cranial_begin_calibration",
			Description: "Discard the current calibration and start a new one. The next two calibration clicks mark the ends of a reference object of known length.",
			InputSchema: sessionOnlySchema(),
		},
		{
			Name:        "cranial_calibration_click",
			Description: "Place a calibration point. The second click must carry length_mm, the real length between the two points; omitting it cancels the calibration.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"session_id": sessionIDProp(),
					"x":          normCoordProp("Normalized X (0 = left edge, 1 = right edge)"),
					"y":          normCoordProp("Normalized Y (0 = top edge, 1 = bottom edge)"),
					"length_mm": map[string]interface{}{
						"type":        []string{"number", "string"},
						"description": "Reference length in millimetres for the second click. A comma decimal separator is accepted",
					},
				},
				"required": []string{"session_id", "x", "y"},
			},
		},

		// Landmark Capture
		{
			Name:        "cranial_select_mode",
			Description: "Select the active capture mode: a measurement (comprimento, largura, diagonalD, diagonalE), an auxiliary landmark (nariz, orelhaD, orelhaE), calibrating, or idle. Capture modes require a calibration.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"session_id": sessionIDProp(),
					"mode": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"idle", "calibrating", "comprimento", "largura", "diagonalD", "diagonalE", "nariz", "orelhaD", "orelhaE"},
						"description": "Mode to activate",
					},
				},
				"required": []string{"session_id", "mode"},
			},
		},
		{
			Name:        "cranial_click",
			Description: "Click on the photo under the active mode. A measurement takes two clicks and then returns to idle; further clicks for a complete measurement are ignored. While calibrating use cranial_calibration_click.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"session_id": sessionIDProp(),
					"x":          normCoordProp("Normalized X (0 = left edge, 1 = right edge)"),
					"y":          normCoordProp("Normalized Y (0 = top edge, 1 = bottom edge)"),
				},
				"required": []string{"session_id", "x", "y"},
			},
		},
		{
			Name:        "cranial_undo",
			Description: "Remove the most recently placed landmark.",
			InputSchema: sessionOnlySchema(),
		},
		{
			Name:        "cranial_clear_measurement",
			Description: "Remove both points of one measurement so it can be placed again.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"session_id": sessionIDProp(),
					"measurement": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"comprimento", "largura", "diagonalD", "diagonalE", "nariz", "orelhaD", "orelhaE"},
						"description": "Measurement or auxiliary landmark to clear",
					},
				},
				"required": []string{"session_id", "measurement"},
			},
		},
		{
			Name:        "cranial_reset",
			Description: "Clear all landmarks and unfreeze the session. The calibration is kept unless keep_calibration is false.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"session_id": sessionIDProp(),
					"keep_calibration": map[string]interface{}{
						"type":        "boolean",
						"description": "Keep the calibration (default true)",
						"default":     true,
					},
				},
				"required": []string{"session_id"},
			},
		},

		// Metrics and Classification
		{
			Name:        "cranial_calculate",
			Description: "Derive the four distances in mm, the estimated head circumference, cranial index and CVAI. Requires a calibration and all four measurements; freezes the landmarks.",
			InputSchema: sessionOnlySchema(),
		},
		{
			Name:        "cranial_assess",
			Description: "Classify the calculated metrics, check the estimated circumference against the growth reference for the patient's age and sex, and return a record ready to be stored. Calculates first if needed.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": func() map[string]interface{} {
					props := patientProps()
					props["session_id"] = sessionIDProp()
					return props
				}(),
				"required": []string{"session_id", "birth_date", "sex"},
			},
		},
		{
			Name:        "cranial_reassess",
			Description: "Recompute indices, classification and circumference check from stored raw distances, using the current or a named threshold table.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": func() map[string]interface{} {
					props := patientProps()
					for _, name := range []string{"comprimento_mm", "largura_mm", "diagonal_d_mm", "diagonal_e_mm"} {
						props[name] = map[string]interface{}{"type": "number", "description": "Stored distance in millimetres"}
					}
					props["thresholds"] = map[string]interface{}{
						"type":        "string",
						"enum":        []string{"scientific", "dashboard"},
						"description": "Optional threshold preset. Default: server configuration",
					}
					return props
				}(),
				"required": []string{"comprimento_mm", "largura_mm", "diagonal_d_mm", "diagonal_e_mm", "birth_date", "sex"},
			},
		},

		// Photo Views
		{
			Name:        "cranial_zoom",
			Description: "Return a magnified view around a normalized point for precise landmark placement. The result's region maps zoom coordinates back to the photo.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"session_id": sessionIDProp(),
					"x":          normCoordProp("Normalized X (0 = left edge, 1 = right edge)"),
					"y":          normCoordProp("Normalized Y (0 = top edge, 1 = bottom edge)"),
					"radius": map[string]interface{}{
						"type":        "number",
						"description": "Half-size of the zoomed square as a fraction of the photo's shorter side (default 0.1)",
						"default":     0.1,
					},
					"size": map[string]interface{}{
						"type":        "integer",
						"description": "Output size in pixels (default 400)",
						"default":     400,
					},
				},
				"required": []string{"session_id", "x", "y"},
			},
		},
		{
			Name:        "cranial_annotate",
			Description: "Render the photo with calibration, landmarks and measurement segments drawn over it.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"session_id": sessionIDProp(),
					"dim": map[string]interface{}{
						"type":        "boolean",
						"description": "Render the photo in muted grayscale (default false)",
					},
					"max_size": map[string]interface{}{
						"type":        "integer",
						"description": "Bound on the longer side of the output in pixels (default 1024, 0 for full size)",
						"default":     1024,
					},
					"calibration_color": map[string]interface{}{
						"type":        "string",
						"description": "Calibration segment colour as #rrggbb (default #ffd400)",
					},
				},
				"required": []string{"session_id"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
