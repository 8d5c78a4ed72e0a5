package imaging

import "math"

// IntensityGrid is a single-channel luminance grid in [0, 255], row-major.
type IntensityGrid struct {
	Width  int
	Height int
	Pix    []uint8
}

// At returns the intensity at (x, y). No bounds checking is performed.
func (g *IntensityGrid) At(x, y int) uint8 {
	return g.Pix[y*g.Width+x]
}

// ToGrayscale reduces a raster to luminance using ITU-R BT.709 weights.
//
// Formula: Y = round(0.2126*R + 0.7152*G + 0.0722*B)
//
// The perceptual weights keep gutters that differ from the art mainly in hue
// from being flattened, which a plain channel average would do. Luminance
// rounds to nearest and may differ by 1 from truncating implementations.
func ToGrayscale(r *Raster) *IntensityGrid {
	out := &IntensityGrid{Width: r.Width, Height: r.Height, Pix: make([]uint8, r.Width*r.Height)}
	for i := range out.Pix {
		p := r.Pix[i*3 : i*3+3]
		lum := 0.2126*float64(p[0]) + 0.7152*float64(p[1]) + 0.0722*float64(p[2])
		out.Pix[i] = clampByte(math.Round(lum))
	}
	return out
}

// smoothKernel is the normalized 3x3 binomial kernel (sum 16).
var smoothKernel = [3][3]int{
	{1, 2, 1},
	{2, 4, 2},
	{1, 2, 1},
}

// Smooth applies a 3x3 binomial blur to suppress screen-tone noise.
//
// Only interior pixels are filtered. The 1-pixel border is copied from the
// input unchanged; edge extraction never reads border gradients, so those
// values never contribute edges. Grids smaller than 3x3 are returned as a
// plain copy.
func Smooth(g *IntensityGrid) *IntensityGrid {
	out := &IntensityGrid{Width: g.Width, Height: g.Height, Pix: make([]uint8, len(g.Pix))}
	copy(out.Pix, g.Pix)
	if g.Width < 3 || g.Height < 3 {
		return out
	}

	for y := 1; y < g.Height-1; y++ {
		for x := 1; x < g.Width-1; x++ {
			sum := 0
			for ky := -1; ky <= 1; ky++ {
				row := (y + ky) * g.Width
				for kx := -1; kx <= 1; kx++ {
					sum += int(g.Pix[row+x+kx]) * smoothKernel[ky+1][kx+1]
				}
			}
			// +8 rounds to nearest; max is 255*16+8, so the result fits a byte.
			out.Pix[y*g.Width+x] = uint8((sum + 8) / 16)
		}
	}
	return out
}
