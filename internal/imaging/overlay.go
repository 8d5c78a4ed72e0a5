package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strconv"

	"github.com/anthonynsimon/bild/clone"
	colorful "github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// PanelBox is a panel outline to draw, in coordinates relative to the image's
// top-left corner. Order is the 1-based reading order printed in the label.
type PanelBox struct {
	X      int
	Y      int
	Width  int
	Height int
	Order  int
}

// OverlayResult contains a page with panel outlines encoded as base64 PNG.
type OverlayResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	PanelCount  int    `json:"panel_count"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// PanelColors returns n visually distinct outline colors.
//
// Hues are spaced evenly around the HSV wheel so neighbouring reading orders
// never share a color. The sequence depends only on n.
func PanelColors(n int) []color.RGBA {
	colors := make([]color.RGBA, n)
	for i := range colors {
		c := colorful.Hsv(float64(i)*360.0/float64(n), 0.85, 0.95)
		r, g, b := c.RGB255()
		colors[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return colors
}

// OutlineWidth scales outline thickness with the page so outlines stay
// visible on high-resolution scans: 1/200 of the shorter side, at least 2.
func OutlineWidth(img image.Image) int {
	b := img.Bounds()
	return max(2, min(b.Dx(), b.Dy())/200)
}

// RenderPanelOverlay draws each box as a colored outline with its reading
// order number in the top-right corner, where a right-to-left reader starts.
//
// The source image is copied; it is never modified. Outlines are clipped to
// the image bounds. lineWidth below 1 is treated as 1.
func RenderPanelOverlay(img image.Image, boxes []PanelBox, lineWidth int) *image.RGBA {
	canvas := clone.AsRGBA(img)
	if lineWidth < 1 {
		lineWidth = 1
	}

	palette := PanelColors(len(boxes))
	origin := canvas.Bounds().Min
	for i, b := range boxes {
		c := palette[i]
		x1, y1 := origin.X+b.X, origin.Y+b.Y
		x2, y2 := x1+b.Width-1, y1+b.Height-1

		for t := 0; t < lineWidth; t++ {
			for x := x1; x <= x2; x++ {
				setClipped(canvas, x, y1+t, c)
				setClipped(canvas, x, y2-t, c)
			}
			for y := y1; y <= y2; y++ {
				setClipped(canvas, x1+t, y, c)
				setClipped(canvas, x2-t, y, c)
			}
		}

		label := strconv.Itoa(b.Order)
		labelWidth := font.MeasureString(basicfont.Face7x13, label).Ceil() + 4
		drawLabel(canvas, x2-lineWidth-labelWidth, y1+lineWidth, label, color.RGBA{255, 255, 255, 255}, c)
	}

	return canvas
}

// PanelOverlay renders the overlay and encodes it as base64 PNG.
//
// Returns:
//   - *OverlayResult: The annotated page.
//   - error: Non-nil if PNG encoding fails.
func PanelOverlay(img image.Image, boxes []PanelBox, lineWidth int) (*OverlayResult, error) {
	canvas := RenderPanelOverlay(img, boxes, lineWidth)

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, fmt.Errorf("failed to encode overlay: %w", err)
	}

	return &OverlayResult{
		Width:       canvas.Bounds().Dx(),
		Height:      canvas.Bounds().Dy(),
		PanelCount:  len(boxes),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

// drawLabel draws text on a filled background box whose top-left is (x, y).
// The box is shifted inside the image when it would fall off an edge.
func drawLabel(img *image.RGBA, x, y int, text string, fg, bg color.RGBA) {
	face := basicfont.Face7x13
	bounds := img.Bounds()
	labelWidth := font.MeasureString(face, text).Ceil() + 4
	labelHeight := face.Height + 2

	x = clamp(x, bounds.Min.X, bounds.Max.X-labelWidth)
	y = clamp(y, bounds.Min.Y, bounds.Max.Y-labelHeight)

	for dy := 0; dy < labelHeight; dy++ {
		for dx := 0; dx < labelWidth; dx++ {
			setClipped(img, x+dx, y+dy, bg)
		}
	}

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(fg),
		Face: face,
		Dot:  fixed.P(x+2, y+1+face.Ascent),
	}
	d.DrawString(text)
}

func setClipped(img *image.RGBA, x, y int, c color.RGBA) {
	if image.Pt(x, y).In(img.Bounds()) {
		img.SetRGBA(x, y, c)
	}
}

// clamp constrains val to [lo, hi]. Labels use it to stay inside the page.
func clamp(val, lo, hi int) int {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}
