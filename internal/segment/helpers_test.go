package segment

import (
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/ironsheep/manga-panels-mcp/internal/detection"
)

// createUniformImage creates an image filled with a single color
func createUniformImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

// createGridPage draws 1px black rules across a white page at the given
// rows and columns. Each rule runs edge to edge.
func createGridPage(width, height int, rows, cols []int) *image.RGBA {
	img := createUniformImage(width, height, color.White)
	for _, y := range rows {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.Black)
		}
	}
	for _, x := range cols {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.Black)
		}
	}
	return img
}

// createFourPanelPage is a 400x400 page split 2x2 by rules at 10, 200 and 389.
func createFourPanelPage() *image.RGBA {
	rules := []int{10, 200, 389}
	return createGridPage(400, 400, rules, rules)
}

// checkResultInvariants verifies the properties every result must have.
func checkResultInvariants(t *testing.T, res *Result, width, height int) {
	t.Helper()

	if res == nil {
		t.Fatal("Segment returned nil")
	}
	if res.Confidence < 0 || res.Confidence > 1 {
		t.Errorf("confidence out of range: %f", res.Confidence)
	}
	if len(res.Panels) == 0 {
		t.Fatal("result has no panels")
	}

	seen := make(map[int]bool)
	for _, p := range res.Panels {
		if p.X < 0 || p.Y < 0 || p.X+p.Width > width || p.Y+p.Height > height {
			t.Errorf("panel %s outside %dx%d page: %+v", p.ID, width, height, p)
		}
		if p.ReadingOrder < 1 || p.ReadingOrder > len(res.Panels) || seen[p.ReadingOrder] {
			t.Errorf("reading order %d is not part of a 1..%d permutation", p.ReadingOrder, len(res.Panels))
		}
		seen[p.ReadingOrder] = true
	}

	for i := range res.Panels {
		for j := i + 1; j < len(res.Panels); j++ {
			a, b := res.Panels[i].Bounds(), res.Panels[j].Bounds()
			if a.Overlaps(b) {
				t.Errorf("panels overlap: %+v and %+v", a, b)
			}
		}
	}
}

// checkFallback verifies res is the single full-page panel.
func checkFallback(t *testing.T, res *Result, width, height int) {
	t.Helper()

	if !res.Fallback {
		t.Error("expected a fallback result")
	}
	if len(res.Panels) != 1 {
		t.Fatalf("fallback should have exactly 1 panel, got %d", len(res.Panels))
	}
	want := Panel{ID: "panel-1", X: 0, Y: 0, Width: width, Height: height, ReadingOrder: 1}
	if res.Panels[0] != want {
		t.Errorf("fallback panel: got %+v, want %+v", res.Panels[0], want)
	}
	if res.Confidence != DefaultFallbackConfidence {
		t.Errorf("fallback confidence: got %f, want %f", res.Confidence, DefaultFallbackConfidence)
	}
}

func scored(x, y, w, h int, conf float64) detection.PanelRectangle {
	return detection.PanelRectangle{Value: detection.Rect{X: x, Y: y, Width: w, Height: h}, Confidence: conf}
}
