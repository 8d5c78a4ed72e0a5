package segment

import (
	"image"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/manga-panels-mcp/internal/detection"
)

// capDimension downscales img so its longer side is at most maxDim.
// The image is returned unchanged when it already fits or maxDim is 0.
func capDimension(img image.Image, maxDim int) image.Image {
	b := img.Bounds()
	longer := max(b.Dx(), b.Dy())
	if maxDim <= 0 || longer <= maxDim {
		return img
	}

	w := max(1, b.Dx()*maxDim/longer)
	h := max(1, b.Dy()*maxDim/longer)
	return imaging.Resize(img, w, h, imaging.Lanczos)
}

// mapBack converts a rectangle found on a (scaledW x scaledH) page into the
// (srcW x srcH) source page.
//
// Both corners go through the same floor mapping v*src/scaled, which is
// monotone, so rectangles that were disjoint stay disjoint. The far corner
// is clamped to the source bounds.
func mapBack(r detection.Rect, scaledW, scaledH, srcW, srcH int) detection.Rect {
	if scaledW == srcW && scaledH == srcH {
		return r
	}
	x0 := min(r.X*srcW/scaledW, srcW)
	y0 := min(r.Y*srcH/scaledH, srcH)
	x1 := min((r.X+r.Width)*srcW/scaledW, srcW)
	y1 := min((r.Y+r.Height)*srcH/scaledH, srcH)
	return detection.Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}
