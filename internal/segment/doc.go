// Package segment runs the manga panel segmentation pipeline end to end.
//
// A Segmenter takes a decoded page and returns its panels in manga reading
// order (rows top to bottom, right to left within a row) together with an
// overall confidence score:
//
//	seg := segment.New(segment.DefaultConfig(), logger)
//	res := seg.Segment(ctx, page)
//	for _, p := range res.Panels {
//	    // p.X, p.Y, p.Width, p.Height is a valid crop of page
//	}
//
// # Never Fails Outward
//
// Segment has no error return. Every failure, including a nil or empty
// image, a cancelled context, a layout with no panels, a low overall score
// and a panic inside any stage, is logged at warn level and replaced by the
// fallback: one panel covering the whole page, confidence 0.1, reading
// order 1. Result.Fallback tells callers which path was taken.
//
// # Large Pages
//
// Pages whose longer side exceeds Config.MaxDimension are downscaled before
// detection. Panel boxes are mapped back to the source resolution, so callers
// always receive coordinates in the image they passed in.
//
// # Concurrency
//
// A Segmenter holds only immutable configuration. It is safe to call
// Segment from multiple goroutines.
package segment
