package segment

import (
	"errors"
	"fmt"

	"github.com/ironsheep/manga-panels-mcp/internal/detection"
	"github.com/ironsheep/manga-panels-mcp/internal/imaging"
)

// ErrInvalidConfig is wrapped by every error Config.Validate returns.
var ErrInvalidConfig = errors.New("invalid segmentation config")

// Config holds every tunable of the pipeline. The zero value is not usable;
// start from DefaultConfig.
type Config struct {
	// ContrastFactor stretches each channel around mid-gray before edge
	// detection. Default: 1.2
	ContrastFactor float64

	// EdgeThreshold is the Sobel magnitude a pixel must exceed to count as
	// an edge. Default: 50
	EdgeThreshold float64

	// MinLineRatio is the fraction of the row width (column height) a run
	// must exceed to become a line. Default: 0.2
	MinLineRatio float64

	// MergeGap is the largest distance in pixels between parallel lines that
	// are merged into one gutter. Default: 8
	MergeGap int

	// MinLineConfidence drops merged lines at or below it before rectangle
	// synthesis. Default: 0.3
	MinLineConfidence float64

	// MinSpanCoverage is the fraction of a rectangle side each bounding line
	// must cover. 0 only requires the spans to intersect. Default: 0
	MinSpanCoverage float64

	// MaxSegmentsPerOrientation bounds rectangle synthesis on line-dense
	// pages. 0 disables the cap. Default: 64
	MaxSegmentsPerOrientation int

	// RowTolerance is the Y distance below which two panels share a row.
	// Default: 50
	RowTolerance int

	// FallbackThreshold is the overall confidence at or below which the
	// detected layout is discarded. Default: 0.3
	FallbackThreshold float64

	// FallbackConfidence is reported for the full-page fallback panel.
	// Default: 0.1
	FallbackConfidence float64

	// MaxDimension caps the longer page side used for detection. Larger
	// pages are downscaled first. 0 disables the cap. Default: 4096
	MaxDimension int
}

// Default values, exported for callers that override a single setting.
const (
	DefaultContrastFactor     = 1.2
	DefaultFallbackThreshold  = 0.3
	DefaultFallbackConfidence = 0.1
	DefaultMaxDimension       = 4096
)

// DefaultConfig returns the tuning used for typical clean-gutter manga pages.
func DefaultConfig() Config {
	synth := detection.DefaultSynthesisOptions()
	return Config{
		ContrastFactor:            DefaultContrastFactor,
		EdgeThreshold:             imaging.DefaultEdgeThreshold,
		MinLineRatio:              detection.DefaultMinLineRatio,
		MergeGap:                  detection.DefaultMergeGap,
		MinLineConfidence:         synth.MinLineConfidence,
		MinSpanCoverage:           synth.MinSpanCoverage,
		MaxSegmentsPerOrientation: synth.MaxSegmentsPerOrientation,
		RowTolerance:              detection.DefaultRowTolerance,
		FallbackThreshold:         DefaultFallbackThreshold,
		FallbackConfidence:        DefaultFallbackConfidence,
		MaxDimension:              DefaultMaxDimension,
	}
}

// Validate reports the first setting that is out of range.
func (c Config) Validate() error {
	switch {
	case c.ContrastFactor <= 0:
		return fmt.Errorf("%w: contrast factor must be positive, got %v", ErrInvalidConfig, c.ContrastFactor)
	case c.EdgeThreshold < 0:
		return fmt.Errorf("%w: edge threshold must not be negative, got %v", ErrInvalidConfig, c.EdgeThreshold)
	case c.MinLineRatio < 0 || c.MinLineRatio >= 1:
		return fmt.Errorf("%w: min line ratio must be in [0,1), got %v", ErrInvalidConfig, c.MinLineRatio)
	case c.MergeGap < 0:
		return fmt.Errorf("%w: merge gap must not be negative, got %d", ErrInvalidConfig, c.MergeGap)
	case !unit(c.MinLineConfidence):
		return fmt.Errorf("%w: min line confidence must be in [0,1], got %v", ErrInvalidConfig, c.MinLineConfidence)
	case !unit(c.MinSpanCoverage):
		return fmt.Errorf("%w: min span coverage must be in [0,1], got %v", ErrInvalidConfig, c.MinSpanCoverage)
	case c.MaxSegmentsPerOrientation < 0:
		return fmt.Errorf("%w: max segments per orientation must not be negative, got %d", ErrInvalidConfig, c.MaxSegmentsPerOrientation)
	case c.RowTolerance < 0:
		return fmt.Errorf("%w: row tolerance must not be negative, got %d", ErrInvalidConfig, c.RowTolerance)
	case !unit(c.FallbackThreshold):
		return fmt.Errorf("%w: fallback threshold must be in [0,1], got %v", ErrInvalidConfig, c.FallbackThreshold)
	case !unit(c.FallbackConfidence):
		return fmt.Errorf("%w: fallback confidence must be in [0,1], got %v", ErrInvalidConfig, c.FallbackConfidence)
	case c.MaxDimension < 0 || (c.MaxDimension > 0 && c.MaxDimension < minMaxDimension):
		return fmt.Errorf("%w: max dimension must be 0 or at least %d, got %d", ErrInvalidConfig, minMaxDimension, c.MaxDimension)
	}
	return nil
}

// minMaxDimension keeps downscaled pages large enough to hold a gutter.
const minMaxDimension = 64

func unit(v float64) bool {
	return v >= 0 && v <= 1
}

func (c Config) synthesisOptions() detection.SynthesisOptions {
	return detection.SynthesisOptions{
		MinLineConfidence:         c.MinLineConfidence,
		MinSpanCoverage:           c.MinSpanCoverage,
		MaxSegmentsPerOrientation: c.MaxSegmentsPerOrientation,
	}
}
