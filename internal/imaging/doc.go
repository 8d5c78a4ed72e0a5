// Package imaging provides core image processing operations for the MCP server.
//
// This package implements the pixel half of panel segmentation: loading,
// contrast normalization, grayscale conversion, smoothing, and Sobel edge
// masks. It also crops panels and renders panel overlays for inspection.
// All operations work with standard Go image.Image types and use a coordinate system
// where (0,0) is at the top-left corner, X increases rightward, and Y increases downward.
//
// # Preprocessing
//
// NewRaster flattens any image into packed RGB. From there:
//
//  1. NormalizeContrast: (v-128)*factor+128 per channel, rounded and clamped
//  2. ToGrayscale: BT.709 luma (0.2126 R + 0.7152 G + 0.0722 B), rounded
//  3. Smooth: 3x3 Gaussian kernel on interior pixels, border copied
//  4. DetectEdges: Sobel magnitude strictly above a threshold
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - Coordinates are inclusive for single points
//   - For regions, (x1,y1) is inclusive (top-left), (x2,y2) is exclusive (bottom-right)
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. Individual image operations
// are stateless and can be called concurrently on different images. Operations
// on the same image should be synchronized by the caller if the image is mutable.
//
// # Error Handling
//
// Functions return errors for invalid inputs such as:
//   - Coordinates outside image bounds
//   - Invalid region specifications (x1 >= x2 or y1 >= y2)
//   - Crop boxes with zero width or height
//   - File I/O errors during image loading
//   - Encoding errors during image output
//
// # Performance Considerations
//
// A decoded 300 dpi page runs to tens of megabytes, so ImageCache is bounded:
// beyond its capacity the least recently used page is dropped. Pages are
// re-decoded when their file changes on disk.
package imaging
