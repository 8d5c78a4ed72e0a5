package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
)

// EdgeMask is a binary edge map, true where a significant gradient was found.
// Bits is row-major with Width*Height entries.
type EdgeMask struct {
	Width  int
	Height int
	Bits   []bool
}

// At reports whether (x, y) is an edge pixel. No bounds checking is performed.
func (m *EdgeMask) At(x, y int) bool {
	return m.Bits[y*m.Width+x]
}

// Count returns the number of edge pixels in the mask.
func (m *EdgeMask) Count() int {
	n := 0
	for _, b := range m.Bits {
		if b {
			n++
		}
	}
	return n
}

// DefaultEdgeThreshold is the gradient magnitude above which a pixel is an edge.
const DefaultEdgeThreshold = 50.0

var (
	sobelX = [3][3]int{
		{-1, 0, 1},
		{-2, 0, 2},
		{-1, 0, 1},
	}
	sobelY = [3][3]int{
		{-1, -2, -1},
		{0, 0, 0},
		{1, 2, 1},
	}
)

// DetectEdges marks pixels whose Sobel gradient magnitude exceeds threshold.
//
// Only interior pixels (1..Width-2, 1..Height-2) are examined; the border is
// always false. This is a single global threshold with no non-maximum
// suppression or hysteresis, so gutters produce bands a few pixels thick
// rather than 1-pixel contours. The line merger absorbs those bands.
//
// # Algorithm
//
//  1. gx, gy: 3x3 Sobel kernels over the (already smoothed) grid
//  2. magnitude = sqrt(gx² + gy²)
//  3. edge = magnitude > threshold
func DetectEdges(g *IntensityGrid, threshold float64) *EdgeMask {
	mask := &EdgeMask{Width: g.Width, Height: g.Height, Bits: make([]bool, g.Width*g.Height)}
	if g.Width < 3 || g.Height < 3 {
		return mask
	}

	// Compare squared magnitudes to skip the sqrt on every pixel.
	limit := threshold * threshold
	for y := 1; y < g.Height-1; y++ {
		for x := 1; x < g.Width-1; x++ {
			var gx, gy int
			for ky := -1; ky <= 1; ky++ {
				row := (y + ky) * g.Width
				for kx := -1; kx <= 1; kx++ {
					v := int(g.Pix[row+x+kx])
					gx += v * sobelX[ky+1][kx+1]
					gy += v * sobelY[ky+1][kx+1]
				}
			}
			if float64(gx*gx+gy*gy) > limit {
				mask.Bits[y*g.Width+x] = true
			}
		}
	}
	return mask
}

// EdgeMaskResult contains an edge mask rendered as a base64 PNG.
//
// The image is grayscale: white (255) pixels are edges, black (0) are not.
type EdgeMaskResult struct {
	// Width of the mask in pixels (same as the analyzed page).
	Width int `json:"width"`

	// Height of the mask in pixels (same as the analyzed page).
	Height int `json:"height"`

	// EdgePixels is the number of pixels marked as edges.
	EdgePixels int `json:"edge_pixels"`

	// ImageBase64 is the mask encoded as base64 PNG.
	ImageBase64 string `json:"image_base64"`

	// MimeType is always "image/png".
	MimeType string `json:"mime_type"`
}

// EdgeMaskImage converts a mask into a grayscale image.
func EdgeMaskImage(m *EdgeMask) *image.Gray {
	out := image.NewGray(image.Rect(0, 0, m.Width, m.Height))
	for i, b := range m.Bits {
		if b {
			out.Pix[(i/m.Width)*out.Stride+i%m.Width] = 255
		}
	}
	return out
}

// EncodeEdgeMask renders a mask to PNG for inspection.
//
// Returns:
//   - *EdgeMaskResult: The mask as base64 PNG plus its edge pixel count.
//   - error: Non-nil if PNG encoding fails.
func EncodeEdgeMask(m *EdgeMask) (*EdgeMaskResult, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, EdgeMaskImage(m)); err != nil {
		return nil, fmt.Errorf("failed to encode edge mask: %w", err)
	}

	return &EdgeMaskResult{
		Width:       m.Width,
		Height:      m.Height,
		EdgePixels:  m.Count(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}
