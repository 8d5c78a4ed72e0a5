package segment

import "github.com/ironsheep/manga-panels-mcp/internal/detection"

// AggregateConfidence scores a whole layout.
//
// It is the unweighted mean of three terms:
//   - the mean confidence of the kept rectangles (0 when there are none)
//   - a panel-count term: 1 panel 0.3, 2-6 panels 0.9, 7-12 panels 0.7,
//     anything else 0.4
//   - a line-count term on the lines found before merging: 4-20 lines 0.8,
//     21-40 lines 0.6, anything else 0.4
//
// The result is always within [0, 1].
func AggregateConfidence(rects []detection.PanelRectangle, rawLineCount int) float64 {
	mean := detection.MeanConfidence(rects)
	overall := (mean + panelCountScore(len(rects)) + lineCountScore(rawLineCount)) / 3
	return detection.ClampConfidence(overall)
}

func panelCountScore(n int) float64 {
	switch {
	case n == 1:
		return 0.3
	case n >= 2 && n <= 6:
		return 0.9
	case n >= 7 && n <= 12:
		return 0.7
	default:
		return 0.4
	}
}

func lineCountScore(n int) float64 {
	switch {
	case n >= 4 && n <= 20:
		return 0.8
	case n >= 21 && n <= 40:
		return 0.6
	default:
		return 0.4
	}
}
