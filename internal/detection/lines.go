package detection

import (
	"sort"

	"github.com/ironsheep/manga-panels-mcp/internal/imaging"
)

// Orientation is the dominant axis of a line segment.
type Orientation int

const (
	// Horizontal lines run along a row; Pos is the row (y).
	Horizontal Orientation = iota
	// Vertical lines run along a column; Pos is the column (x).
	Vertical
)

// String returns a string representation of the orientation
func (o Orientation) String() string {
	if o == Vertical {
		return "vertical"
	}
	return "horizontal"
}

// MarshalText lets orientations appear as words in JSON output.
func (o Orientation) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Line is an axis-aligned run of edge pixels.
//
// Pos is the fixed coordinate on the perpendicular axis. Start and End are
// inclusive pixel coordinates along the dominant axis.
type Line struct {
	Orientation Orientation `json:"orientation"`
	Pos         int         `json:"pos"`
	Start       int         `json:"start"`
	End         int         `json:"end"`
}

// Length is the number of pixels the line covers.
func (l Line) Length() int {
	return l.End - l.Start + 1
}

// LineSegment is a Line with its detection confidence.
type LineSegment = Scored[Line]

const (
	// DefaultMinLineRatio is the fraction of the row width (or column height)
	// a run must exceed to count as a gutter line.
	DefaultMinLineRatio = 0.2

	// DefaultMergeGap is the largest Pos difference, in pixels, between two
	// parallel segments that are treated as the same gutter.
	DefaultMergeGap = 8

	// minLineConfidence is the floor applied to short-but-accepted runs.
	minLineConfidence = 0.1
)

// DetectLines finds long horizontal and vertical runs in an edge mask.
//
// Every row is scanned for maximal runs of edge pixels; a run becomes a
// horizontal segment when its length exceeds minRatio of the mask width.
// Columns are scanned the same way against the mask height. Confidence is
// clamp(length/axisLength, 0.1, 1.0).
//
// Output order: horizontal segments by row then start, followed by vertical
// segments by column then start.
func DetectLines(m *imaging.EdgeMask, minRatio float64) []LineSegment {
	lines := make([]LineSegment, 0)
	if m == nil || m.Width == 0 || m.Height == 0 {
		return lines
	}

	lines = append(lines, detectHorizontal(m, minRatio)...)
	lines = append(lines, detectVertical(m, minRatio)...)
	lines = append(lines, DetectDiagonalLines(m)...)
	return lines
}

func detectHorizontal(m *imaging.EdgeMask, minRatio float64) []LineSegment {
	lines := make([]LineSegment, 0)
	minLength := minRatio * float64(m.Width)

	for y := 0; y < m.Height; y++ {
		runStart := -1
		for x := 0; x <= m.Width; x++ {
			on := x < m.Width && m.At(x, y)
			if on && runStart < 0 {
				runStart = x
				continue
			}
			if !on && runStart >= 0 {
				if length := x - runStart; float64(length) > minLength {
					lines = append(lines, newLineSegment(Horizontal, y, runStart, x-1, m.Width))
				}
				runStart = -1
			}
		}
	}
	return lines
}

func detectVertical(m *imaging.EdgeMask, minRatio float64) []LineSegment {
	lines := make([]LineSegment, 0)
	minLength := minRatio * float64(m.Height)

	for x := 0; x < m.Width; x++ {
		runStart := -1
		for y := 0; y <= m.Height; y++ {
			on := y < m.Height && m.At(x, y)
			if on && runStart < 0 {
				runStart = y
				continue
			}
			if !on && runStart >= 0 {
				if length := y - runStart; float64(length) > minLength {
					lines = append(lines, newLineSegment(Vertical, x, runStart, y-1, m.Height))
				}
				runStart = -1
			}
		}
	}
	return lines
}

func newLineSegment(o Orientation, pos, start, end, axisLength int) LineSegment {
	l := Line{Orientation: o, Pos: pos, Start: start, End: end}
	conf := float64(l.Length()) / float64(axisLength)
	if conf < minLineConfidence {
		conf = minLineConfidence
	}
	return NewScored(l, conf)
}

// DetectDiagonalLines is the extension point for ±45° gutters.
//
// It intentionally finds nothing: pages whose only gutters are diagonal are
// not segmented and fall back to a single full-page panel. The hook stays in
// the pipeline so diagonal support can be added without reshaping callers.
func DetectDiagonalLines(m *imaging.EdgeMask) []LineSegment {
	return nil
}

// MergeLines coalesces nearly collinear parallel segments into single gutters.
//
// Segments are grouped by orientation and sorted by Pos (then Start). Walking
// each group, a segment whose Pos is within maxGap of the previously absorbed
// segment joins the current merge: the span becomes the union of both, and
// the confidence becomes the mean of the running confidence and the new
// segment's. The merged Pos is the first segment's Pos. Chains of close
// segments therefore collapse into one line in a single pass.
//
// The input slice is not modified. Output: merged horizontals, then verticals.
func MergeLines(lines []LineSegment, maxGap int) []LineSegment {
	var horizontal, vertical []LineSegment
	for _, l := range lines {
		if l.Value.Orientation == Vertical {
			vertical = append(vertical, l)
		} else {
			horizontal = append(horizontal, l)
		}
	}

	merged := make([]LineSegment, 0, len(lines))
	merged = append(merged, mergeGroup(horizontal, maxGap)...)
	merged = append(merged, mergeGroup(vertical, maxGap)...)
	return merged
}

func mergeGroup(group []LineSegment, maxGap int) []LineSegment {
	if len(group) == 0 {
		return nil
	}

	sort.SliceStable(group, func(i, j int) bool {
		if group[i].Value.Pos != group[j].Value.Pos {
			return group[i].Value.Pos < group[j].Value.Pos
		}
		return group[i].Value.Start < group[j].Value.Start
	})

	out := make([]LineSegment, 0, len(group))
	current := group[0]
	lastPos := current.Value.Pos

	for _, next := range group[1:] {
		if next.Value.Pos-lastPos <= maxGap {
			current.Value.Start = min(current.Value.Start, next.Value.Start)
			current.Value.End = max(current.Value.End, next.Value.End)
			current.Confidence = ClampConfidence((current.Confidence + next.Confidence) / 2)
			lastPos = next.Value.Pos
			continue
		}
		out = append(out, current)
		current = next
		lastPos = next.Value.Pos
	}
	return append(out, current)
}
