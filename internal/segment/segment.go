package segment

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/rs/zerolog"

	"github.com/ironsheep/manga-panels-mcp/internal/detection"
	"github.com/ironsheep/manga-panels-mcp/internal/imaging"
)

// Reasons a layout is replaced by the fallback. They label log entries and
// never escape Segment.
var (
	ErrEmptyImage    = errors.New("image has no pixels")
	ErrNoRectangles  = errors.New("no panel rectangles found")
	ErrLowConfidence = errors.New("layout confidence at or below threshold")
)

// Segmenter finds panels on manga pages.
type Segmenter struct {
	cfg    Config
	logger zerolog.Logger
}

// New creates a Segmenter. An invalid cfg is logged and replaced by
// DefaultConfig.
func New(cfg Config, logger zerolog.Logger) *Segmenter {
	if err := cfg.Validate(); err != nil {
		logger.Warn().Err(err).Msg("using default segmentation config")
		cfg = DefaultConfig()
	}
	return &Segmenter{cfg: cfg, logger: logger}
}

// Config returns the configuration in effect.
func (s *Segmenter) Config() Config {
	return s.cfg
}

// Segment segments img with DefaultConfig and no logging.
func Segment(img image.Image) *Result {
	return New(DefaultConfig(), zerolog.Nop()).Segment(context.Background(), img)
}

// Segment detects the panels of img and returns them in reading order.
//
// It always returns a usable Result. On any failure the result is the
// full-page fallback, see the package documentation. ctx is only checked
// between stages; a cancelled context also yields the fallback.
func (s *Segmenter) Segment(ctx context.Context, img image.Image) *Result {
	start := time.Now()
	width, height := dimensions(img)

	res, err := s.run(ctx, img)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Int("width", width).
			Int("height", height).
			Msg("panel segmentation fell back to full page")
		res = fallback(width, height, s.cfg.FallbackConfidence)
	}

	res.ProcessingTime = time.Since(start)
	return res
}

// run is the pipeline proper. Stages do not return errors themselves; run
// turns degenerate intermediate results, cancellation and panics into one.
func (s *Segmenter) run(ctx context.Context, img image.Image) (res *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, fmt.Errorf("panic during segmentation: %v", r)
		}
	}()

	srcW, srcH := dimensions(img)
	if srcW == 0 || srcH == 0 {
		return nil, ErrEmptyImage
	}
	if err := checkpoint(ctx, "start"); err != nil {
		return nil, err
	}

	work := capDimension(img, s.cfg.MaxDimension)
	raster := imaging.NewRaster(work)
	if raster.Empty() {
		return nil, ErrEmptyImage
	}
	if raster.Width != srcW || raster.Height != srcH {
		s.logger.Debug().
			Int("width", srcW).Int("height", srcH).
			Int("scaled_width", raster.Width).Int("scaled_height", raster.Height).
			Msg("downscaled page for detection")
	}

	mask := s.edgeMask(raster)
	if err := checkpoint(ctx, "edges"); err != nil {
		return nil, err
	}

	lines := detection.DetectLines(mask, s.cfg.MinLineRatio)
	merged := detection.MergeLines(lines, s.cfg.MergeGap)
	if err := checkpoint(ctx, "lines"); err != nil {
		return nil, err
	}

	candidates := detection.SynthesizeRectangles(merged, mask.Width, mask.Height, s.cfg.synthesisOptions())
	if err := checkpoint(ctx, "rectangles"); err != nil {
		return nil, err
	}
	kept := detection.ResolveOverlaps(candidates)
	ordered := detection.SortReadingOrder(kept, s.cfg.RowTolerance)
	confidence := AggregateConfidence(ordered, len(lines))

	s.logger.Debug().
		Int("edge_pixels", mask.Count()).
		Int("lines", len(lines)).
		Int("merged_lines", len(merged)).
		Int("candidates", len(candidates)).
		Int("panels", len(ordered)).
		Float64("confidence", confidence).
		Msg("segmentation stages complete")

	if len(ordered) == 0 {
		return nil, ErrNoRectangles
	}
	if confidence <= s.cfg.FallbackThreshold {
		return nil, fmt.Errorf("%w: %.3f", ErrLowConfidence, confidence)
	}

	for i := range ordered {
		ordered[i].Value = mapBack(ordered[i].Value, raster.Width, raster.Height, srcW, srcH)
	}

	return &Result{
		Panels:      toPanels(ordered),
		Confidence:  confidence,
		ImageWidth:  srcW,
		ImageHeight: srcH,
	}, nil
}

// EdgeMask returns the binary edge mask lines are detected on. It is at
// detection resolution, so pages larger than MaxDimension come back
// downscaled. A nil or empty image yields an empty mask.
func (s *Segmenter) EdgeMask(img image.Image) *imaging.EdgeMask {
	if w, h := dimensions(img); w == 0 || h == 0 {
		return &imaging.EdgeMask{}
	}
	return s.edgeMask(imaging.NewRaster(capDimension(img, s.cfg.MaxDimension)))
}

// edgeMask runs the pixel stages: contrast, grayscale, smoothing and Sobel.
func (s *Segmenter) edgeMask(raster *imaging.Raster) *imaging.EdgeMask {
	raster = imaging.NormalizeContrast(raster, s.cfg.ContrastFactor)
	gray := imaging.Smooth(imaging.ToGrayscale(raster))
	return imaging.DetectEdges(gray, s.cfg.EdgeThreshold)
}

func checkpoint(ctx context.Context, stage string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("cancelled before %s stage: %w", stage, err)
	}
	return nil
}

func dimensions(img image.Image) (int, int) {
	if img == nil {
		return 0, 0
	}
	b := img.Bounds()
	return max(b.Dx(), 0), max(b.Dy(), 0)
}
