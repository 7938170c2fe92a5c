package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ironsheep/annotate-mcp/internal/imaging"
	"github.com/ironsheep/annotate-mcp/internal/logging"
	"github.com/ironsheep/annotate-mcp/internal/session"
	"github.com/ironsheep/annotate-mcp/internal/storage"
)

// ServerName is reported in the initialize response.
const ServerName = "annotate-mcp"

// protocolVersion is the MCP revision this server speaks.
const protocolVersion = "2024-11-05"

// ChangedMethod is the notification sent after every operation that changed
// a slice's annotations.
const ChangedMethod = "notifications/annotations/changed"

// RepaintMethod is the notification sent when a pending buffer was dropped.
// The store is unchanged; clients only redraw the slice.
const RepaintMethod = "notifications/annotations/repaint"

// maxLineBytes bounds one JSON-RPC message. Externally produced suggestion
// batches can be large.
const maxLineBytes = 16 * 1024 * 1024

// Server handles MCP protocol communication
type Server struct {
	// mu serializes tool execution. The editing engine holds no locks of its
	// own and the HTTP transport calls in from many goroutines.
	mu sync.Mutex

	cache   *imaging.ImageCache
	infos   map[string]*imaging.ImageInfo
	ws      *session.Workspace
	storage storage.Snapshotter
	log     *zap.Logger

	fillOpacity float64
	version     string

	// outbox collects notifications raised during one tool call.
	outbox []MCPNotification
}

// Options configures a Server. Zero values select defaults.
type Options struct {
	Editor      session.Config
	FillOpacity float64
	Storage     storage.Snapshotter
	Logger      *zap.Logger
	Version     string
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

// MCPNotification represents an outgoing notification (no ID)
type MCPNotification struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

// ChangedParams is the payload of ChangedMethod.
type ChangedParams struct {
	Image   string            `json:"image"`
	Slice   int               `json:"slice"`
	Key     string            `json:"key"`
	Changes session.ChangeSet `json:"changes"`
}

// RepaintParams is the payload of RepaintMethod.
type RepaintParams struct {
	Image     string `json:"image"`
	Slice     int    `json:"slice"`
	Key       string `json:"key"`
	Discarded string `json:"discarded"`
}

// New creates a new MCP server instance
func New(opts Options) *Server {
	if opts.Editor == (session.Config{}) {
		opts.Editor = session.DefaultConfig()
	}
	if opts.FillOpacity <= 0 {
		opts.FillOpacity = imaging.DefaultFillOpacity
	}
	if opts.Storage == nil {
		opts.Storage = storage.NewMemory()
	}
	if opts.Logger == nil {
		opts.Logger = logging.L()
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}
	return &Server{
		cache:       imaging.NewImageCache(),
		infos:       make(map[string]*imaging.ImageInfo),
		ws:          session.NewWorkspace(opts.Editor),
		storage:     opts.Storage,
		log:         opts.Logger,
		fillOpacity: opts.FillOpacity,
		version:     opts.Version,
	}
}

// Run serves MCP over stdin and stdout until stdin closes.
func (s *Server) Run(ctx context.Context) error {
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve reads newline-delimited JSON-RPC requests from r and writes
// responses to w. Notifications raised by a request are written right after
// its response. Serve returns when r is exhausted or ctx is cancelled.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, maxLineBytes)

	encoder := json.NewEncoder(w)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			s.log.Warn("failed to parse request", zap.Error(err))
			continue
		}

		resp, notes := s.handleRequest(ctx, &req)
		if resp != nil {
			if err := encoder.Encode(resp); err != nil {
				s.log.Error("failed to encode response", zap.Error(err))
			}
		}
		for _, n := range notes {
			if err := encoder.Encode(n); err != nil {
				s.log.Error("failed to encode notification", zap.Error(err))
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}

	return nil
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(ctx context.Context, req *MCPRequest) (*MCPResponse, []MCPNotification) {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req), nil
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil, nil
	case "tools/list":
		return s.handleToolsList(req), nil
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}, nil
	default:
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    -32601,
				Message: fmt.Sprintf("Method not found: %s", req.Method),
			},
		}, nil
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": protocolVersion,
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    ServerName,
				"version": s.version,
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

// Call executes one tool under the server mutex and returns its result along
// with the notifications it raised. Both transports go through here.
func (s *Server) Call(ctx context.Context, name string, args json.RawMessage) (interface{}, []MCPNotification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	result, err := s.executeTool(ctx, name, args)
	notes := s.outbox
	s.outbox = nil

	fields := []zap.Field{zap.String("tool", name), zap.Duration("cost", time.Since(start))}
	if err != nil {
		s.log.Debug("tool failed", append(fields, zap.Error(err))...)
	} else {
		s.log.Debug("tool done", fields...)
	}
	return result, notes, err
}

// Close releases the snapshot backend.
func (s *Server) Close() error {
	return s.storage.Close()
}

// changed persists the store of key and queues a change notification. An
// empty ChangeSet does neither. Persistence failures are logged and do not
// fail the edit that caused them.
func (s *Server) changed(ctx context.Context, key session.SliceKey, sess *session.Session, cs session.ChangeSet) {
	if cs.Empty() {
		return
	}
	if err := s.storage.Save(ctx, key.String(), sess.Store()); err != nil {
		s.log.Warn("failed to persist annotations",
			zap.String("key", key.String()), zap.Error(err))
	}
	s.log.Info("annotations changed",
		zap.String("key", key.String()),
		zap.Int("inserted", len(cs.Inserted)),
		zap.Int("updated", len(cs.Updated)),
		zap.Int("removed", len(cs.Removed)))

	s.outbox = append(s.outbox, MCPNotification{
		JSONRPC: "2.0",
		Method:  ChangedMethod,
		Params: ChangedParams{
			Image:   key.Image,
			Slice:   key.Slice,
			Key:     key.String(),
			Changes: cs,
		},
	})
}

// repaint queues a RepaintMethod notification for key. Nothing is persisted.
func (s *Server) repaint(key session.SliceKey, discarded string) {
	s.outbox = append(s.outbox, MCPNotification{
		JSONRPC: "2.0",
		Method:  RepaintMethod,
		Params: RepaintParams{
			Image:     key.Image,
			Slice:     key.Slice,
			Key:       key.String(),
			Discarded: discarded,
		},
	})
}
