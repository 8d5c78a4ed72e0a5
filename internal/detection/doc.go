// Package detection turns an edge mask into ordered panel rectangles.
//
// The package holds the geometric half of manga panel segmentation. It works
// on the boolean mask produced by the imaging package and knows nothing about
// pixels or colour.
//
// # Pipeline
//
//  1. DetectLines: scan rows and columns for long runs of edge pixels
//  2. MergeLines: collapse parallel runs a few pixels apart into one gutter
//  3. SynthesizeRectangles: pair horizontal and vertical gutters into frames
//  4. ResolveOverlaps: keep the most confident non-overlapping frames
//  5. SortReadingOrder: order panels top to bottom, right to left
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
//   - Line spans are inclusive; Rect bounds are inclusive top-left and
//     exclusive bottom-right
//
// # Confidence Scores
//
// Lines and rectangles are both wrapped in Scored, and every confidence is
// clamped to [0.0, 1.0]:
//   - Lines: run length over the axis length, floored at 0.1
//   - Rectangles: mean of the four bounding line confidences averaged with a
//     size plausibility score (see SizeScore)
//
// # Limitations
//
// Only axis-aligned gutters are found. DetectDiagonalLines is a hook that
// currently detects nothing, so pages with slanted panel borders are not
// segmented. Borderless panels and panels that bleed off the page edge
// produce no frame either.
package detection
