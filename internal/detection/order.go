package detection

import "sort"

// DefaultRowTolerance is the largest Y difference, in pixels, for two panels
// to be read as the same row.
const DefaultRowTolerance = 50

// SortReadingOrder orders panels the way a manga page is read: rows from top
// to bottom, and within a row from right to left.
//
// Two panels are in the same row when their Y values differ by less than
// rowTolerance. To keep the order total, rows are built as bands: panels are
// sorted by Y, and each band starts at the first panel not yet placed and
// takes every following panel whose Y is within rowTolerance of that first
// panel's Y. Inside a band panels are sorted by descending X; equal X falls
// back to the original order.
//
// The input slice is not modified.
func SortReadingOrder(rects []PanelRectangle, rowTolerance int) []PanelRectangle {
	idx := make([]int, len(rects))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return rects[idx[a]].Value.Y < rects[idx[b]].Value.Y
	})

	for start := 0; start < len(idx); {
		anchor := rects[idx[start]].Value.Y
		end := start + 1
		for end < len(idx) && rects[idx[end]].Value.Y-anchor < rowTolerance {
			end++
		}

		row := idx[start:end]
		sort.Slice(row, func(a, b int) bool {
			ra, rb := rects[row[a]].Value, rects[row[b]].Value
			if ra.X != rb.X {
				return ra.X > rb.X
			}
			return row[a] < row[b]
		})
		start = end
	}

	ordered := make([]PanelRectangle, len(idx))
	for i, k := range idx {
		ordered[i] = rects[k]
	}
	return ordered
}
