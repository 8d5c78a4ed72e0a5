package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// pathProperty is the schema shared by every tool's path argument.
var pathProperty = map[string]interface{}{
	"type":        "string",
	"description": "Absolute path to the manga page image (PNG, JPEG, GIF, WebP, BMP or TIFF)",
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Page Information
		{
			Name:        "image_load",
			Description: "Load a page image and return its dimensions, format and file size. The image is cached for subsequent calls.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_dimensions",
			Description: "Get the width and height of a page image.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},

		// Panel Segmentation
		{
			Name: "manga_segment_panels",
			Description: "Find the rectangular panels of a manga page and return them in reading order " +
				"(rows top to bottom, right to left within a row) with an overall confidence. " +
				"When no confident layout is found the whole page is returned as one panel at confidence 0.1 and fallback is true.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"max_dimension": map[string]interface{}{
						"type":        "integer",
						"description": "Optional cap on the longer page side used for detection; larger pages are downscaled first. 0 disables the cap. Default 4096",
						"default":     4096,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "manga_crop_panels",
			Description: "Segment a manga page and return every panel in reading order as a base64-encoded PNG crop, ready for per-panel transcription.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Optional scale factor applied to each crop (e.g., 2.0 to double size). Default 1.0",
						"default":     1.0,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "manga_panel_overlay",
			Description: "Segment a manga page and return it as base64-encoded PNG with each panel outlined in its own color and labeled with its reading order.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "manga_edge_mask",
			Description: "Return the binary edge mask panel detection works on, as base64-encoded PNG (white = edge). Useful for understanding why a page fell back.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},

		// Text
		{
			Name:        "manga_ocr_panels",
			Description: "Segment a manga page and extract the text of each panel with Tesseract OCR, in reading order.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"language": map[string]interface{}{
						"type":        "string",
						"description": "Tesseract language code: 'jpn' (horizontal), 'jpn_vert' (vertical balloons), 'eng'. Default from MANGA_PANELS_OCR_LANG, else 'jpn'",
					},
				},
				"required": []string{"path"},
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
