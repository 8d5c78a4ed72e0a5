package server

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"

	"github.com/ironsheep/manga-panels-mcp/internal/imaging"
	"github.com/ironsheep/manga-panels-mcp/internal/ocr"
	"github.com/ironsheep/manga-panels-mcp/internal/segment"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "manga_segment_panels").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
// Every call is logged with a short random call_id so the start, finish and
// any segmentation fallback of one call can be correlated.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	log := s.logger.With().Str("call_id", newCallID()).Str("tool", params.Name).Logger()
	start := time.Now()
	log.Debug().Msg("tool call started")

	result, err := s.executeTool(log.WithContext(ctx), params.Name, params.Arguments)
	if err != nil {
		log.Warn().Err(err).Dur("elapsed", time.Since(start)).Msg("tool call failed")
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}
	log.Info().Dur("elapsed", time.Since(start)).Msg("tool call finished")

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
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Applies default values for optional parameters
//  3. Loads images from cache as needed
//  4. Calls the segment/imaging/ocr functions
//  5. Returns the result or error
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Page Information
	case "image_load":
		return s.handleImageLoad(args)
	case "image_dimensions":
		return s.handleImageDimensions(args)

	// Panel Segmentation
	case "manga_segment_panels":
		return s.handleSegmentPanels(ctx, args)
	case "manga_crop_panels":
		return s.handleCropPanels(ctx, args)
	case "manga_panel_overlay":
		return s.handlePanelOverlay(ctx, args)
	case "manga_edge_mask":
		return s.handleEdgeMask(args)

	// Text
	case "manga_ocr_panels":
		return s.handleOCRPanels(ctx, args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
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

func newCallID() string {
	id, err := gonanoid.New(12)
	if err != nil {
		return "unknown"
	}
	return id
}

// === Page Information Handlers ===

type pathArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

func (s *Server) handleImageDimensions(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.GetDimensions(s.cache, a.Path)
}

// === Panel Segmentation Handlers ===

type segmentArgs struct {
	Path         string `json:"path"`
	MaxDimension *int   `json:"max_dimension"`
}

// segmentPage loads path and segments it, applying a per-call dimension cap
// when maxDimension is set.
func (s *Server) segmentPage(ctx context.Context, path string, maxDimension *int) (image.Image, *segment.Result, error) {
	img, err := s.cache.Load(path)
	if err != nil {
		return nil, nil, err
	}

	segmenter := s.segmenter
	if maxDimension != nil && *maxDimension != s.opts.Segment.MaxDimension {
		cfg := s.opts.Segment
		cfg.MaxDimension = *maxDimension
		if err := cfg.Validate(); err != nil {
			return nil, nil, fmt.Errorf("invalid max_dimension: %w", err)
		}
		segmenter = segment.New(cfg, *zerolog.Ctx(ctx))
	}

	return img, segmenter.Segment(ctx, img), nil
}

func (s *Server) handleSegmentPanels(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a segmentArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	_, res, err := s.segmentPage(ctx, a.Path, a.MaxDimension)
	if err != nil {
		return nil, err
	}
	return res, nil
}

type cropPanelsArgs struct {
	Path  string  `json:"path"`
	Scale float64 `json:"scale"`
}

// PanelCrop is one panel with its cropped image.
type PanelCrop struct {
	segment.Panel
	Image *imaging.CropResult `json:"image"`
}

// CropPanelsResult contains every panel of a page as an image, in reading order.
type CropPanelsResult struct {
	Confidence float64     `json:"confidence"`
	Fallback   bool        `json:"fallback"`
	Panels     []PanelCrop `json:"panels"`
}

func (s *Server) handleCropPanels(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a cropPanelsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}
	if a.Scale < 0 {
		return nil, fmt.Errorf("scale must be positive, got %v", a.Scale)
	}

	img, res, err := s.segmentPage(ctx, a.Path, nil)
	if err != nil {
		return nil, err
	}

	out := &CropPanelsResult{
		Confidence: res.Confidence,
		Fallback:   res.Fallback,
		Panels:     make([]PanelCrop, 0, len(res.Panels)),
	}
	for _, p := range res.Panels {
		crop, err := imaging.CropBox(img, p.X, p.Y, p.Width, p.Height, a.Scale)
		if err != nil {
			return nil, fmt.Errorf("panel %s: %w", p.ID, err)
		}
		out.Panels = append(out.Panels, PanelCrop{Panel: p, Image: crop})
	}
	return out, nil
}

// PanelOverlayResult is the annotated page plus the panels drawn on it.
type PanelOverlayResult struct {
	*imaging.OverlayResult
	Confidence float64         `json:"confidence"`
	Fallback   bool            `json:"fallback"`
	Panels     []segment.Panel `json:"panels"`
}

func (s *Server) handlePanelOverlay(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	img, res, err := s.segmentPage(ctx, a.Path, nil)
	if err != nil {
		return nil, err
	}

	overlay, err := imaging.PanelOverlay(img, res.OverlayBoxes(), imaging.OutlineWidth(img))
	if err != nil {
		return nil, err
	}
	return &PanelOverlayResult{
		OverlayResult: overlay,
		Confidence:    res.Confidence,
		Fallback:      res.Fallback,
		Panels:        res.Panels,
	}, nil
}

func (s *Server) handleEdgeMask(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.EncodeEdgeMask(s.segmenter.EdgeMask(img))
}

// === Text Handlers ===

type ocrPanelsArgs struct {
	Path     string `json:"path"`
	Language string `json:"language"`
}

// OCRPanelsResult is per-panel text together with the segmentation it used.
type OCRPanelsResult struct {
	*ocr.PanelTextResult
	SegmentationConfidence float64 `json:"segmentation_confidence"`
	Fallback               bool    `json:"fallback"`
}

func (s *Server) handleOCRPanels(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a ocrPanelsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Language == "" {
		a.Language = s.opts.OCRLanguage
	}

	img, res, err := s.segmentPage(ctx, a.Path, nil)
	if err != nil {
		return nil, err
	}

	text, err := ocr.TranscribePanels(img, res.Panels, a.Language)
	if err != nil {
		return nil, err
	}
	return &OCRPanelsResult{
		PanelTextResult:        text,
		SegmentationConfidence: res.Confidence,
		Fallback:               res.Fallback,
	}, nil
}
