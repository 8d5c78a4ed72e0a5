package detection

import (
	"math"
	"testing"

	"github.com/ironsheep/manga-panels-mcp/internal/imaging"
)

// newMask creates an empty edge mask
func newMask(width, height int) *imaging.EdgeMask {
	return &imaging.EdgeMask{Width: width, Height: height, Bits: make([]bool, width*height)}
}

// setRow marks x0..x1 (inclusive) on row y
func setRow(m *imaging.EdgeMask, y, x0, x1 int) {
	for x := x0; x <= x1; x++ {
		m.Bits[y*m.Width+x] = true
	}
}

// setCol marks y0..y1 (inclusive) on column x
func setCol(m *imaging.EdgeMask, x, y0, y1 int) {
	for y := y0; y <= y1; y++ {
		m.Bits[y*m.Width+x] = true
	}
}

func hseg(pos, start, end int, conf float64) LineSegment {
	return LineSegment{Value: Line{Orientation: Horizontal, Pos: pos, Start: start, End: end}, Confidence: conf}
}

func vseg(pos, start, end int, conf float64) LineSegment {
	return LineSegment{Value: Line{Orientation: Vertical, Pos: pos, Start: start, End: end}, Confidence: conf}
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestDetectLines(t *testing.T) {
	m := newMask(100, 50)
	setRow(m, 10, 5, 94) // 90px > 20% of 100
	setRow(m, 20, 0, 15) // 16px, too short
	setCol(m, 30, 0, 49) // full height

	lines := DetectLines(m, DefaultMinLineRatio)

	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %+v", len(lines), lines)
	}

	h := lines[0]
	if h.Value.Orientation != Horizontal || h.Value.Pos != 10 || h.Value.Start != 5 || h.Value.End != 94 {
		t.Errorf("horizontal line: got %+v", h.Value)
	}
	if !approxEqual(h.Confidence, 0.9) {
		t.Errorf("horizontal confidence: got %f, want 0.9", h.Confidence)
	}

	v := lines[1]
	if v.Value.Orientation != Vertical || v.Value.Pos != 30 || v.Value.Start != 0 || v.Value.End != 49 {
		t.Errorf("vertical line: got %+v", v.Value)
	}
	if !approxEqual(v.Confidence, 1.0) {
		t.Errorf("vertical confidence: got %f, want 1.0", v.Confidence)
	}
}

func TestDetectLines_RunMustExceedRatio(t *testing.T) {
	m := newMask(100, 10)
	setRow(m, 3, 0, 19) // exactly 20px: not strictly longer than 20%
	setRow(m, 6, 0, 20) // 21px

	lines := DetectLines(m, DefaultMinLineRatio)

	if len(lines) != 1 || lines[0].Value.Pos != 6 {
		t.Fatalf("expected only the 21px run on row 6, got %+v", lines)
	}
}

func TestDetectLines_SplitRuns(t *testing.T) {
	// Two panels in one row produce two runs separated by the gutter.
	m := newMask(100, 10)
	setRow(m, 5, 2, 40)
	setRow(m, 5, 60, 97)

	lines := DetectLines(m, DefaultMinLineRatio)

	if len(lines) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(lines))
	}
	if lines[0].Value.End != 40 || lines[1].Value.Start != 60 {
		t.Errorf("runs: got %+v and %+v", lines[0].Value, lines[1].Value)
	}
}

func TestDetectLines_ConfidenceFloor(t *testing.T) {
	m := newMask(100, 100)
	setRow(m, 4, 10, 16) // 7px

	lines := DetectLines(m, 0.05)

	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	if !approxEqual(lines[0].Confidence, 0.1) {
		t.Errorf("confidence: got %f, want floor 0.1", lines[0].Confidence)
	}
}

func TestDetectLines_EmptyMask(t *testing.T) {
	tests := []struct {
		name string
		mask *imaging.EdgeMask
	}{
		{"nil", nil},
		{"zero size", newMask(0, 0)},
		{"no edges", newMask(50, 50)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if lines := DetectLines(tt.mask, DefaultMinLineRatio); len(lines) != 0 {
				t.Errorf("expected no lines, got %d", len(lines))
			}
		})
	}
}

func TestDetectDiagonalLines_Inert(t *testing.T) {
	m := newMask(50, 50)
	for i := 0; i < 50; i++ {
		m.Bits[i*50+i] = true
	}

	if lines := DetectDiagonalLines(m); len(lines) != 0 {
		t.Errorf("diagonal detection should find nothing, got %d", len(lines))
	}
	if lines := DetectLines(m, DefaultMinLineRatio); len(lines) != 0 {
		t.Errorf("a diagonal-only mask should yield no lines, got %d", len(lines))
	}
}

func TestMergeLines_CloseRowsMerge(t *testing.T) {
	lines := []LineSegment{
		hseg(100, 0, 50, 0.5),
		hseg(105, 40, 120, 0.7),
	}

	merged := MergeLines(lines, DefaultMergeGap)

	if len(merged) != 1 {
		t.Fatalf("expected 1 merged line, got %d", len(merged))
	}
	m := merged[0]
	if m.Value.Start != 0 || m.Value.End != 120 {
		t.Errorf("span: got [%d,%d], want [0,120]", m.Value.Start, m.Value.End)
	}
	if m.Value.Pos != 100 {
		t.Errorf("Pos: got %d, want 100", m.Value.Pos)
	}
	if !approxEqual(m.Confidence, 0.6) {
		t.Errorf("confidence: got %f, want 0.6", m.Confidence)
	}
}

func TestMergeLines_DistantRowsStay(t *testing.T) {
	lines := []LineSegment{
		hseg(120, 0, 50, 0.5),
		hseg(100, 0, 50, 0.5),
	}

	merged := MergeLines(lines, DefaultMergeGap)

	if len(merged) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(merged))
	}
	if merged[0].Value.Pos != 100 || merged[1].Value.Pos != 120 {
		t.Errorf("merged lines should be sorted by Pos, got %d then %d",
			merged[0].Value.Pos, merged[1].Value.Pos)
	}
}

func TestMergeLines_ChainCollapses(t *testing.T) {
	lines := []LineSegment{
		hseg(0, 0, 10, 0.4),
		hseg(6, 5, 20, 0.4),
		hseg(12, 15, 30, 0.4),
		hseg(18, 25, 40, 0.4),
	}

	merged := MergeLines(lines, DefaultMergeGap)

	if len(merged) != 1 {
		t.Fatalf("chain should collapse to 1 line, got %d", len(merged))
	}
	if merged[0].Value.Start != 0 || merged[0].Value.End != 40 {
		t.Errorf("span: got [%d,%d], want [0,40]", merged[0].Value.Start, merged[0].Value.End)
	}
}

func TestMergeLines_OrientationsKeptApart(t *testing.T) {
	lines := []LineSegment{
		vseg(50, 0, 99, 0.8),
		hseg(50, 0, 99, 0.8),
		vseg(53, 0, 99, 0.6),
	}

	merged := MergeLines(lines, DefaultMergeGap)

	if len(merged) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(merged))
	}
	if merged[0].Value.Orientation != Horizontal || merged[1].Value.Orientation != Vertical {
		t.Errorf("expected horizontal then vertical, got %v then %v",
			merged[0].Value.Orientation, merged[1].Value.Orientation)
	}
	if !approxEqual(merged[1].Confidence, 0.7) {
		t.Errorf("vertical confidence: got %f, want 0.7", merged[1].Confidence)
	}
}

func TestMergeLines_DoesNotModifyInput(t *testing.T) {
	lines := []LineSegment{
		hseg(105, 40, 120, 0.7),
		hseg(100, 0, 50, 0.5),
	}

	MergeLines(lines, DefaultMergeGap)

	if lines[0].Value.Pos != 105 || lines[0].Value.Start != 40 {
		t.Errorf("input was modified: %+v", lines[0].Value)
	}
}

func TestOrientation_String(t *testing.T) {
	if Horizontal.String() != "horizontal" || Vertical.String() != "vertical" {
		t.Errorf("got %q and %q", Horizontal.String(), Vertical.String())
	}
}
