package detection

import (
	"sort"

	"github.com/tidwall/rtree"
)

// Rect is an axis-aligned box in page pixel coordinates.
//
// (X, Y) is the top-left corner (inclusive); X+Width and Y+Height are
// exclusive, so a Rect is directly usable as a crop region.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Area returns Width × Height.
func (r Rect) Area() int {
	return r.Width * r.Height
}

// Overlaps reports whether r and o share any area. Touching edges do not count.
func (r Rect) Overlaps(o Rect) bool {
	return r.X < o.X+o.Width && o.X < r.X+r.Width &&
		r.Y < o.Y+o.Height && o.Y < r.Y+r.Height
}

// PanelRectangle is a candidate panel with its confidence.
type PanelRectangle = Scored[Rect]

// SynthesisOptions tunes rectangle synthesis.
type SynthesisOptions struct {
	// MinLineConfidence drops segments at or below this confidence before
	// pairing. Default: 0.3
	MinLineConfidence float64

	// MinSpanCoverage is the fraction of a rectangle side each bounding
	// segment must cover. 0 only requires the spans to intersect; raise it
	// (e.g. 0.5) to reject frames built from short stray segments.
	// Default: 0
	MinSpanCoverage float64

	// MaxSegmentsPerOrientation caps how many segments per orientation take
	// part in the quadratic search; the most confident are kept. 0 disables
	// the cap. Default: 64
	MaxSegmentsPerOrientation int
}

// DefaultSynthesisOptions returns the options the segmentation pipeline uses.
func DefaultSynthesisOptions() SynthesisOptions {
	return SynthesisOptions{
		MinLineConfidence:         0.3,
		MinSpanCoverage:           0,
		MaxSegmentsPerOrientation: 64,
	}
}

// SynthesizeRectangles pairs merged gutter lines into candidate panels.
//
// Every (top, bottom) pair of horizontal segments with bottom strictly below
// top is combined with every (left, right) pair of vertical segments with
// right strictly right of left. The quadruple is kept when each horizontal
// span intersects [left.Pos, right.Pos] and each vertical span intersects
// [top.Pos, bottom.Pos]. A non-zero MinSpanCoverage additionally requires
// each span to cover that fraction of its side.
//
// # Confidence
//
// confidence = (mean of the four line confidences + SizeScore) / 2
//
// # Complexity
//
// O(H²·V²) in the number of segments per orientation. Merged lists are small
// on real pages; MaxSegmentsPerOrientation bounds the worst case.
func SynthesizeRectangles(lines []LineSegment, width, height int, opts SynthesisOptions) []PanelRectangle {
	rects := make([]PanelRectangle, 0)
	pageArea := width * height
	if pageArea <= 0 {
		return rects
	}

	var horizontal, vertical []LineSegment
	for _, l := range lines {
		if l.Confidence <= opts.MinLineConfidence {
			continue
		}
		if l.Value.Orientation == Vertical {
			vertical = append(vertical, l)
		} else {
			horizontal = append(horizontal, l)
		}
	}
	horizontal = capSegments(horizontal, opts.MaxSegmentsPerOrientation)
	vertical = capSegments(vertical, opts.MaxSegmentsPerOrientation)

	for ti, top := range horizontal {
		for _, bottom := range horizontal[ti+1:] {
			if bottom.Value.Pos <= top.Value.Pos {
				continue
			}
			for li, left := range vertical {
				for _, right := range vertical[li+1:] {
					if right.Value.Pos <= left.Value.Pos {
						continue
					}
					if !frames(top, bottom, left, right, opts.MinSpanCoverage) {
						continue
					}

					r := Rect{
						X:      left.Value.Pos,
						Y:      top.Value.Pos,
						Width:  right.Value.Pos - left.Value.Pos,
						Height: bottom.Value.Pos - top.Value.Pos,
					}
					lineConf := (top.Confidence + bottom.Confidence + left.Confidence + right.Confidence) / 4
					rects = append(rects, NewScored(r, (lineConf+SizeScore(r.Area(), pageArea))/2))
				}
			}
		}
	}

	return rects
}

// SizeScore rates how plausible a rectangle's size is for a panel.
//
//   - < 5% of the page: 0.2 (speck or lettering box)
//   - > 80% of the page: 0.3 (probably the page frame)
//   - otherwise: 0.8
func SizeScore(area, pageArea int) float64 {
	ratio := float64(area) / float64(pageArea)
	switch {
	case ratio < 0.05:
		return 0.2
	case ratio > 0.8:
		return 0.3
	default:
		return 0.8
	}
}

// capSegments keeps the limit most confident segments, returned sorted by Pos
// so the pairing loops see top-before-bottom and left-before-right.
func capSegments(segs []LineSegment, limit int) []LineSegment {
	if limit > 0 && len(segs) > limit {
		sort.SliceStable(segs, func(i, j int) bool {
			return segs[i].Confidence > segs[j].Confidence
		})
		segs = segs[:limit]
	}
	sort.SliceStable(segs, func(i, j int) bool {
		return segs[i].Value.Pos < segs[j].Value.Pos
	})
	return segs
}

// frames reports whether four segments plausibly frame one rectangle.
func frames(top, bottom, left, right LineSegment, coverage float64) bool {
	x1, x2 := left.Value.Pos, right.Value.Pos
	y1, y2 := top.Value.Pos, bottom.Value.Pos
	return spanCovers(top.Value, x1, x2, coverage) &&
		spanCovers(bottom.Value, x1, x2, coverage) &&
		spanCovers(left.Value, y1, y2, coverage) &&
		spanCovers(right.Value, y1, y2, coverage)
}

// spanCovers reports whether l's span intersects [lo, hi] (inclusive) and
// covers at least coverage of it.
func spanCovers(l Line, lo, hi int, coverage float64) bool {
	overlap := min(l.End, hi) - max(l.Start, lo) + 1
	if overlap <= 0 {
		return false
	}
	return float64(overlap) >= coverage*float64(hi-lo+1)
}

// ResolveOverlaps keeps the most confident rectangles that do not overlap.
//
// Candidates are ranked by descending confidence; equal confidence prefers
// the smaller area (a tight panel over one that swallows a gutter), then
// the original order. Walking that ranking, a rectangle is kept only if it
// shares no area with any rectangle kept before it. Kept rectangles are
// indexed in an R-tree so each candidate is only tested against neighbours.
//
// The input slice is not modified. The result is in ranking order.
func ResolveOverlaps(rects []PanelRectangle) []PanelRectangle {
	ranked := make([]PanelRectangle, len(rects))
	copy(ranked, rects)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Confidence != ranked[j].Confidence {
			return ranked[i].Confidence > ranked[j].Confidence
		}
		return ranked[i].Value.Area() < ranked[j].Value.Area()
	})

	kept := make([]PanelRectangle, 0)
	var index rtree.RTreeG[int]

	for _, cand := range ranked {
		r := cand.Value
		if r.Width <= 0 || r.Height <= 0 {
			continue
		}
		lo, hi := rectBox(r)

		clash := false
		index.Search(lo, hi, func(_, _ [2]float64, k int) bool {
			if kept[k].Value.Overlaps(r) {
				clash = true
				return false
			}
			return true
		})
		if clash {
			continue
		}

		index.Insert(lo, hi, len(kept))
		kept = append(kept, cand)
	}

	return kept
}

func rectBox(r Rect) ([2]float64, [2]float64) {
	return [2]float64{float64(r.X), float64(r.Y)},
		[2]float64{float64(r.X + r.Width), float64(r.Y + r.Height)}
}
