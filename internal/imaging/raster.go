package imaging

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// Raster is an immutable RGB pixel grid stored row-major in a flat buffer.
//
// Pixel (x, y) occupies Pix[(y*Width+x)*3 : (y*Width+x)*3+3] as R, G, B.
// Alpha is discarded on construction. Stages that transform a Raster always
// return a new value; nothing in this package writes into a Raster it did
// not allocate.
type Raster struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewRaster converts any image.Image into a Raster.
//
// The source is normalized through imaging.Clone so every decoder's color
// model (YCbCr, paletted, 16-bit) is read the same way. The returned raster
// is anchored at (0,0) regardless of the source bounds' origin.
func NewRaster(img image.Image) *Raster {
	if img == nil {
		return &Raster{}
	}
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= 0 || height <= 0 {
		return &Raster{}
	}

	nrgba := imaging.Clone(img)
	pix := make([]uint8, width*height*3)
	for y := 0; y < height; y++ {
		src := nrgba.Pix[y*nrgba.Stride : y*nrgba.Stride+width*4]
		dst := pix[y*width*3 : (y+1)*width*3]
		for x := 0; x < width; x++ {
			dst[x*3] = src[x*4]
			dst[x*3+1] = src[x*4+1]
			dst[x*3+2] = src[x*4+2]
		}
	}

	return &Raster{Width: width, Height: height, Pix: pix}
}

// Empty reports whether the raster has no pixels.
func (r *Raster) Empty() bool {
	return r == nil || r.Width <= 0 || r.Height <= 0 || len(r.Pix) < r.Width*r.Height*3
}

// RGB returns the color triple at (x, y). No bounds checking is performed.
func (r *Raster) RGB(x, y int) (uint8, uint8, uint8) {
	i := (y*r.Width + x) * 3
	return r.Pix[i], r.Pix[i+1], r.Pix[i+2]
}

// NormalizeContrast applies a linear contrast stretch around mid-gray.
//
// Each channel becomes clamp(0, 255, round((v-128)*factor + 128)). A factor
// of 1.2 is used by the segmentation pipeline; 1.0 returns an identical copy.
// Results round to nearest, so they can differ by 1 from implementations
// that truncate.
func NormalizeContrast(r *Raster, factor float64) *Raster {
	out := &Raster{Width: r.Width, Height: r.Height, Pix: make([]uint8, len(r.Pix))}

	// Only 256 possible inputs, so precompute them.
	var lut [256]uint8
	for v := 0; v < 256; v++ {
		lut[v] = clampByte(math.Round((float64(v)-128)*factor + 128))
	}
	for i, v := range r.Pix {
		out.Pix[i] = lut[v]
	}
	return out
}

// clampByte constrains f to [0, 255] and truncates it to a byte.
func clampByte(f float64) uint8 {
	if f <= 0 || math.IsNaN(f) {
		return 0
	}
	if f >= 255 {
		return 255
	}
	return uint8(f)
}
