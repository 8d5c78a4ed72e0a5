package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/ironsheep/manga-panels-mcp/internal/imaging"
	"github.com/ironsheep/manga-panels-mcp/internal/logging"
	"github.com/ironsheep/manga-panels-mcp/internal/ocr"
	"github.com/ironsheep/manga-panels-mcp/internal/segment"
)

// Options configures a Server.
type Options struct {
	// Segment is the base segmentation config. Tool arguments may override
	// individual fields per call.
	Segment segment.Config

	// OCRLanguage is used when manga_ocr_panels is called without a language.
	OCRLanguage string

	// CacheCapacity is how many decoded pages are kept in memory. 0 means
	// unbounded.
	CacheCapacity int

	// Version is reported in the initialize handshake.
	Version string
}

// DefaultOptions returns options with the default segmentation config.
func DefaultOptions() Options {
	return Options{
		Segment:       segment.DefaultConfig(),
		OCRLanguage:   ocr.DefaultLanguage,
		CacheCapacity: imaging.DefaultCacheCapacity,
		Version:       "dev",
	}
}

// Server handles MCP protocol communication
type Server struct {
	cache     *imaging.ImageCache
	opts      Options
	segmenter *segment.Segmenter
	logger    zerolog.Logger
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

// New creates a new MCP server instance
func New(opts Options, logger zerolog.Logger) *Server {
	if opts.OCRLanguage == "" {
		opts.OCRLanguage = ocr.DefaultLanguage
	}
	segmenter := segment.New(opts.Segment, logging.Component(logger, "segment"))
	opts.Segment = segmenter.Config()

	return &Server{
		cache:     imaging.NewImageCache(opts.CacheCapacity),
		opts:      opts,
		segmenter: segmenter,
		logger:    logging.Component(logger, "server"),
	}
}

// Run serves MCP over stdin and stdout until stdin closes or ctx is done.
func (s *Server) Run(ctx context.Context) error {
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve reads one JSON-RPC request per line from r and writes responses to w.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	// Increase buffer size for large requests
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

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
			s.logger.Warn().Err(err).Msg("failed to parse request")
			continue
		}

		resp := s.handleRequest(ctx, &req)
		if resp != nil {
			if err := encoder.Encode(resp); err != nil {
				s.logger.Error().Err(err).Str("method", req.Method).Msg("failed to encode response")
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}

	return nil
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(ctx context.Context, req *MCPRequest) *MCPResponse {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(ctx, req)
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
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    "manga-panels-mcp",
				"version": s.opts.Version,
			},
		},
	}
}
