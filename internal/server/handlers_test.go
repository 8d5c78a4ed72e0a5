package server

import (
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// createTestImageFile writes img as PNG into a per-test temp dir and returns its path
func createTestImageFile(t *testing.T, img image.Image) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "page.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

// createUniformPage creates a page filled with a single color
func createUniformPage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

// createFourPanelPage is a 400x400 white page split 2x2 by 1px black rules
// at 10, 200 and 389 in both directions.
func createFourPanelPage() *image.RGBA {
	img := createUniformPage(400, 400, color.White)
	for _, p := range []int{10, 200, 389} {
		for i := 0; i < 400; i++ {
			img.Set(i, p, color.Black)
			img.Set(p, i, color.Black)
		}
	}
	return img
}

// callTool runs a tools/call request and returns the response.
func callTool(t *testing.T, s *Server, name string, args map[string]interface{}) *MCPResponse {
	t.Helper()

	params, err := json.Marshal(map[string]interface{}{"name": name, "arguments": args})
	if err != nil {
		t.Fatalf("marshal params: %v", err)
	}
	resp := s.handleRequest(context.Background(), &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  params,
	})
	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	return resp
}

// decodeToolResult unmarshals the text content of a successful tool response into v.
func decodeToolResult(t *testing.T, resp *MCPResponse, v interface{}) {
	t.Helper()

	if resp.Error != nil {
		t.Fatalf("Unexpected error: %+v", resp.Error)
	}
	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("Result should be a map")
	}
	content, ok := result["content"].([]map[string]interface{})
	if !ok || len(content) != 1 {
		t.Fatalf("content should hold one item, got %v", result["content"])
	}
	if content[0]["type"] != "text" {
		t.Errorf("content type: got %v, want text", content[0]["type"])
	}
	text, _ := content[0]["text"].(string)
	if err := json.Unmarshal([]byte(text), v); err != nil {
		t.Fatalf("decode tool result: %v\n%s", err, text)
	}
}

type panelJSON struct {
	ID           string `json:"id"`
	X            int    `json:"x"`
	Y            int    `json:"y"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	ReadingOrder int    `json:"reading_order"`
}

type segmentJSON struct {
	Panels           []panelJSON `json:"panels"`
	Confidence       float64     `json:"confidence"`
	Fallback         bool        `json:"fallback"`
	ImageWidth       int         `json:"image_width"`
	ImageHeight      int         `json:"image_height"`
	ProcessingTimeMS *float64    `json:"processing_time_ms"`
}

func TestHandleToolsCall_ImageLoad(t *testing.T) {
	s := newTestServer()
	path := createTestImageFile(t, createUniformPage(100, 80, color.White))

	var info struct {
		Width  int    `json:"width"`
		Height int    `json:"height"`
		Format string `json:"format"`
	}
	decodeToolResult(t, callTool(t, s, "image_load", map[string]interface{}{"path": path}), &info)

	if info.Width != 100 || info.Height != 80 {
		t.Errorf("dimensions: got %dx%d, want 100x80", info.Width, info.Height)
	}
	if info.Format != "png" {
		t.Errorf("format: got %q, want png", info.Format)
	}
}

func TestHandleToolsCall_ImageDimensions(t *testing.T) {
	s := newTestServer()
	path := createTestImageFile(t, createUniformPage(200, 150, color.White))

	var dims struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	}
	decodeToolResult(t, callTool(t, s, "image_dimensions", map[string]interface{}{"path": path}), &dims)

	if dims.Width != 200 || dims.Height != 150 {
		t.Errorf("dimensions: got %dx%d, want 200x150", dims.Width, dims.Height)
	}
}

func TestHandleToolsCall_SegmentPanels(t *testing.T) {
	s := newTestServer()
	path := createTestImageFile(t, createFourPanelPage())

	var res segmentJSON
	decodeToolResult(t, callTool(t, s, "manga_segment_panels", map[string]interface{}{"path": path}), &res)

	if res.Fallback {
		t.Fatalf("expected a detected layout, got fallback at %f", res.Confidence)
	}
	if len(res.Panels) != 4 {
		t.Fatalf("expected 4 panels, got %d", len(res.Panels))
	}
	// Right column first on the top row.
	first := res.Panels[0]
	if first.ID != "panel-1" || first.ReadingOrder != 1 || first.X != 198 || first.Y != 8 {
		t.Errorf("first panel: got %+v", first)
	}
	if res.ImageWidth != 400 || res.ImageHeight != 400 {
		t.Errorf("image dimensions: got %dx%d", res.ImageWidth, res.ImageHeight)
	}
	if res.ProcessingTimeMS == nil {
		t.Error("processing_time_ms missing from result")
	}
}

func TestHandleToolsCall_SegmentPanels_Fallback(t *testing.T) {
	s := newTestServer()
	path := createTestImageFile(t, createUniformPage(120, 90, color.White))

	var res segmentJSON
	decodeToolResult(t, callTool(t, s, "manga_segment_panels", map[string]interface{}{"path": path}), &res)

	if !res.Fallback {
		t.Error("blank page should fall back")
	}
	if res.Confidence != 0.1 {
		t.Errorf("confidence: got %f, want 0.1", res.Confidence)
	}
	want := panelJSON{ID: "panel-1", X: 0, Y: 0, Width: 120, Height: 90, ReadingOrder: 1}
	if len(res.Panels) != 1 || res.Panels[0] != want {
		t.Errorf("panels: got %+v, want [%+v]", res.Panels, want)
	}
}

func TestHandleToolsCall_SegmentPanels_MaxDimension(t *testing.T) {
	s := newTestServer()
	path := createTestImageFile(t, createFourPanelPage())

	var res segmentJSON
	decodeToolResult(t, callTool(t, s, "manga_segment_panels", map[string]interface{}{
		"path":          path,
		"max_dimension": 200,
	}), &res)

	if res.ImageWidth != 400 || res.ImageHeight != 400 {
		t.Errorf("dimensions should describe the source page, got %dx%d", res.ImageWidth, res.ImageHeight)
	}
	for _, p := range res.Panels {
		if p.X < 0 || p.Y < 0 || p.X+p.Width > 400 || p.Y+p.Height > 400 {
			t.Errorf("panel outside source page: %+v", p)
		}
	}

	resp := callTool(t, s, "manga_segment_panels", map[string]interface{}{
		"path":          path,
		"max_dimension": 10,
	})
	if resp.Error == nil || resp.Error.Code != -32000 {
		t.Errorf("max_dimension below the minimum should fail, got %+v", resp.Error)
	}
}

func TestHandleToolsCall_CropPanels(t *testing.T) {
	tests := []struct {
		name  string
		scale interface{}
		mult  float64
	}{
		{"default scale", nil, 1},
		{"double", 2.0, 2},
	}

	s := newTestServer()
	path := createTestImageFile(t, createFourPanelPage())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := map[string]interface{}{"path": path}
			if tt.scale != nil {
				args["scale"] = tt.scale
			}

			var res struct {
				Fallback bool `json:"fallback"`
				Panels   []struct {
					panelJSON
					Image struct {
						Width       int    `json:"width"`
						Height      int    `json:"height"`
						ImageBase64 string `json:"image_base64"`
					} `json:"image"`
				} `json:"panels"`
			}
			decodeToolResult(t, callTool(t, s, "manga_crop_panels", args), &res)

			if len(res.Panels) != 4 {
				t.Fatalf("expected 4 crops, got %d", len(res.Panels))
			}
			for i, p := range res.Panels {
				if p.ReadingOrder != i+1 {
					t.Errorf("crop %d has reading order %d", i, p.ReadingOrder)
				}
				if p.Image.Width != int(float64(p.Width)*tt.mult) || p.Image.Height != int(float64(p.Height)*tt.mult) {
					t.Errorf("crop %s: got %dx%d for a %dx%d panel", p.ID, p.Image.Width, p.Image.Height, p.Width, p.Height)
				}
				if p.Image.ImageBase64 == "" {
					t.Errorf("crop %s has no image data", p.ID)
				}
			}
		})
	}
}

func TestHandleToolsCall_CropPanels_NegativeScale(t *testing.T) {
	s := newTestServer()
	path := createTestImageFile(t, createFourPanelPage())

	resp := callTool(t, s, "manga_crop_panels", map[string]interface{}{"path": path, "scale": -1.0})
	if resp.Error == nil {
		t.Error("negative scale should fail")
	}
}

func TestHandleToolsCall_PanelOverlay(t *testing.T) {
	s := newTestServer()
	path := createTestImageFile(t, createFourPanelPage())

	var res struct {
		Width       int         `json:"width"`
		Height      int         `json:"height"`
		PanelCount  int         `json:"panel_count"`
		ImageBase64 string      `json:"image_base64"`
		Panels      []panelJSON `json:"panels"`
	}
	decodeToolResult(t, callTool(t, s, "manga_panel_overlay", map[string]interface{}{"path": path}), &res)

	if res.Width != 400 || res.Height != 400 {
		t.Errorf("overlay size: got %dx%d", res.Width, res.Height)
	}
	if res.PanelCount != 4 || len(res.Panels) != 4 {
		t.Errorf("panel count: got %d outlines and %d panels", res.PanelCount, len(res.Panels))
	}
	if res.ImageBase64 == "" {
		t.Error("overlay has no image data")
	}
}

func TestHandleToolsCall_EdgeMask(t *testing.T) {
	tests := []struct {
		name      string
		page      image.Image
		wantEdges bool
	}{
		{"ruled page", createFourPanelPage(), true},
		{"blank page", createUniformPage(400, 400, color.White), false},
	}

	s := newTestServer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := createTestImageFile(t, tt.page)

			var res struct {
				Width      int `json:"width"`
				Height     int `json:"height"`
				EdgePixels int `json:"edge_pixels"`
			}
			decodeToolResult(t, callTool(t, s, "manga_edge_mask", map[string]interface{}{"path": path}), &res)

			if res.Width != 400 || res.Height != 400 {
				t.Errorf("mask size: got %dx%d", res.Width, res.Height)
			}
			if (res.EdgePixels > 0) != tt.wantEdges {
				t.Errorf("edge pixels: got %d, want edges=%v", res.EdgePixels, tt.wantEdges)
			}
		})
	}
}

func TestHandleToolsCall_Errors(t *testing.T) {
	tests := []struct {
		name string
		tool string
		args map[string]interface{}
	}{
		{"unknown tool", "nonexistent_tool", map[string]interface{}{}},
		{"missing file", "image_load", map[string]interface{}{"path": "/nonexistent/page.png"}},
		{"segment missing file", "manga_segment_panels", map[string]interface{}{"path": "/nonexistent/page.png"}},
		{"ocr missing file", "manga_ocr_panels", map[string]interface{}{"path": "/nonexistent/page.png"}},
		{"wrong argument type", "manga_segment_panels", map[string]interface{}{"path": 42}},
	}

	s := newTestServer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := callTool(t, s, tt.tool, tt.args)
			if resp.Error == nil {
				t.Fatal("expected an error response")
			}
			if resp.Error.Code != -32000 {
				t.Errorf("Error code: got %d, want -32000", resp.Error.Code)
			}
			if resp.Error.Data == "" {
				t.Error("error response should carry details")
			}
		})
	}
}

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	s := newTestServer()

	resp := s.handleToolsCall(context.Background(), &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Params:  json.RawMessage(`"not an object"`),
	})

	if resp.Error == nil || resp.Error.Code != -32602 {
		t.Errorf("Error: got %+v, want code -32602", resp.Error)
	}
}

func TestExecuteTool_AllToolsDispatch(t *testing.T) {
	s := newTestServer()

	for _, tool := range GetToolDefinitions() {
		t.Run(tool.Name, func(t *testing.T) {
			_, err := s.executeTool(context.Background(), tool.Name, json.RawMessage(`{"path":"/nonexistent/page.png"}`))
			if err == nil {
				t.Fatal("expected a load error")
			}
			if err.Error() == "unknown tool: "+tool.Name {
				t.Errorf("tool %s is listed but not dispatched", tool.Name)
			}
		})
	}
}
