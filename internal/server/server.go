package server

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ironsheep/cranial-tools-mcp/internal/config"
	"github.com/ironsheep/cranial-tools-mcp/internal/cranial"
	"github.com/ironsheep/cranial-tools-mcp/internal/imaging"
	"github.com/ironsheep/cranial-tools-mcp/internal/locale"
	log "github.com/ironsheep/cranial-tools-mcp/internal/log"
)

// Server identity reported during initialize.
const (
	ServerName      = "cranial-tools-mcp"
	ProtocolVersion = "2024-11-05"
)

// Version is reported during initialize. main overrides it from ldflags.
var Version = "0.1.0"

// Server handles MCP protocol communication
type Server struct {
	cache   *imaging.ImageCache
	cfg     *config.Config
	ref     cranial.Reference
	printer *locale.Printer

	mu       sync.Mutex
	sessions map[string]*photoSession

	// now is replaced in tests.
	now func() time.Time
}

// photoSession is one open photo and its capture state machine.
type photoSession struct {
	id      string
	photo   *imaging.PhotoInfo
	capture *cranial.Session
	metrics *cranial.Metrics
	opened  time.Time
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// New creates a server from a validated configuration. A nil cfg uses
// config.Default.
func New(cfg *config.Config) (*Server, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	ref, err := cfg.Reference()
	if err != nil {
		return nil, fmt.Errorf("failed to build reference tables: %w", err)
	}
	return &Server{
		cache:    imaging.NewImageCache(),
		cfg:      cfg,
		ref:      ref,
		printer:  locale.New(cfg.Locale),
		sessions: make(map[string]*photoSession),
		now:      time.Now,
	}, nil
}

// Run starts the MCP server, reading from stdin and writing to stdout
func (s *Server) Run() error {
	return s.Serve(os.Stdin, os.Stdout)
}

// Serve processes newline-delimited JSON-RPC requests from r until EOF,
// writing responses to w.
func (s *Server) Serve(r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	// Annotated photos come back as base64; requests stay small but allow
	// room for long argument lists.
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	encoder := json.NewEncoder(w)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			log.Warn(log.Fields{"error": err}, "failed to parse request")
			continue
		}

		resp := s.handleRequest(&req)
		if resp != nil {
			if err := encoder.Encode(resp); err != nil {
				log.Error(log.Fields{"error": err, "method": req.Method}, "failed to encode response")
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}

	return nil
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(req *MCPRequest) *MCPResponse {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    -32601,
				Message: fmt.Sprintf("Method not found: %s", req.Method),
			},
		}
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": ProtocolVersion,
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    ServerName,
				"version": Version,
			},
		},
	}
}

// openSession registers a new session for a loaded photo.
func (s *Server) openSession(photo *imaging.PhotoInfo, capture *cranial.Session) *photoSession {
	ps := &photoSession{
		id:      uuid.NewString(),
		photo:   photo,
		capture: capture,
		opened:  s.now(),
	}
	s.mu.Lock()
	s.sessions[ps.id] = ps
	s.mu.Unlock()
	return ps
}

// session looks up an open session.
func (s *Server) session(id string) (*photoSession, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: session_id is required", errInvalidArgs)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ps, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errSessionNotFound, id)
	}
	return ps, nil
}

// closeSession removes a session and evicts its photo unless another
// session still shows it.
func (s *Server) closeSession(id string) (*photoSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ps, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errSessionNotFound, id)
	}
	delete(s.sessions, id)
	s.evictUnusedLocked(ps.photo.Path)
	return ps, nil
}

// evictUnusedLocked drops path from the cache if no session uses it.
// s.mu must be held.
func (s *Server) evictUnusedLocked(path string) {
	for _, other := range s.sessions {
		if other.photo.Path == path {
			return
		}
	}
	s.cache.Evict(path)
}

// sessionCount returns the number of open sessions.
func (s *Server) sessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
