package segment

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/ironsheep/manga-panels-mcp/internal/detection"
	"github.com/ironsheep/manga-panels-mcp/internal/imaging"
)

// Panel is one panel of the page, ready to crop.
//
// X, Y, Width and Height are in source image pixels relative to the image's
// top-left corner; X+Width and Y+Height are exclusive. ReadingOrder runs
// 1..N with no gaps.
type Panel struct {
	ID           string `json:"id"`
	X            int    `json:"x"`
	Y            int    `json:"y"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	ReadingOrder int    `json:"reading_order"`
}

// Bounds returns the panel as a detection.Rect.
func (p Panel) Bounds() detection.Rect {
	return detection.Rect{X: p.X, Y: p.Y, Width: p.Width, Height: p.Height}
}

// Result is the outcome of segmenting one page.
type Result struct {
	// Panels in reading order.
	Panels []Panel `json:"panels"`

	// Confidence is the overall layout score in [0, 1].
	Confidence float64 `json:"confidence"`

	// ProcessingTime is wall-clock time spent in Segment. It is the only
	// field that differs between runs on the same pixels.
	ProcessingTime time.Duration `json:"-"`

	// Fallback is true when the detected layout was discarded in favor of a
	// single full-page panel.
	Fallback bool `json:"fallback"`

	ImageWidth  int `json:"image_width"`
	ImageHeight int `json:"image_height"`
}

// MarshalJSON reports ProcessingTime in milliseconds.
func (r Result) MarshalJSON() ([]byte, error) {
	type plain Result
	return json.Marshal(struct {
		plain
		ProcessingTimeMS float64 `json:"processing_time_ms"`
	}{
		plain:            plain(r),
		ProcessingTimeMS: float64(r.ProcessingTime.Microseconds()) / 1000,
	})
}

// OverlayBoxes returns the panels as outlines for imaging.PanelOverlay.
func (r *Result) OverlayBoxes() []imaging.PanelBox {
	boxes := make([]imaging.PanelBox, len(r.Panels))
	for i, p := range r.Panels {
		boxes[i] = imaging.PanelBox{X: p.X, Y: p.Y, Width: p.Width, Height: p.Height, Order: p.ReadingOrder}
	}
	return boxes
}

// Fallback returns the single full-page panel result at the default
// fallback confidence.
func Fallback(width, height int) *Result {
	return fallback(width, height, DefaultFallbackConfidence)
}

func fallback(width, height int, confidence float64) *Result {
	return &Result{
		Panels: []Panel{{
			ID:           panelID(1),
			Width:        max(width, 0),
			Height:       max(height, 0),
			ReadingOrder: 1,
		}},
		Confidence:  confidence,
		Fallback:    true,
		ImageWidth:  max(width, 0),
		ImageHeight: max(height, 0),
	}
}

// toPanels numbers rects in the order given.
func toPanels(rects []detection.PanelRectangle) []Panel {
	panels := make([]Panel, len(rects))
	for i, r := range rects {
		panels[i] = Panel{
			ID:           panelID(i + 1),
			X:            r.Value.X,
			Y:            r.Value.Y,
			Width:        r.Value.Width,
			Height:       r.Value.Height,
			ReadingOrder: i + 1,
		}
	}
	return panels
}

func panelID(order int) string {
	return "panel-" + strconv.Itoa(order)
}
