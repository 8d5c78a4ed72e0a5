package imaging

import (
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder (scanner output)
	_ "golang.org/x/image/webp" // Register WebP format decoder (web manga)
)

// DefaultCacheCapacity holds a typical chapter's worth of pages.
const DefaultCacheCapacity = 32

// ImageCache keeps decoded pages in memory so segmenting, cropping and
// transcribing the same page decode it only once.
//
// Entries are keyed by the cleaned absolute path. A page whose file changed
// on disk (size or modification time) since it was decoded is decoded again,
// so re-exported scans are picked up without restarting the server. When
// more than capacity pages are cached the least recently used one is
// dropped.
//
// ImageCache is safe for concurrent use by multiple goroutines.
//
//	cache := imaging.NewImageCache(imaging.DefaultCacheCapacity)
//	img, err := cache.Load("/scans/ch01/p001.png")
type ImageCache struct {
	pages *lru.Cache[string, *cacheEntry]
}

type cacheEntry struct {
	img     image.Image
	format  string
	size    int64
	modTime time.Time
}

// NewImageCache creates an empty cache holding at most capacity pages.
// capacity <= 0 means unbounded.
func NewImageCache(capacity int) *ImageCache {
	if capacity <= 0 {
		capacity = math.MaxInt32
	}
	// lru.New only fails for a non-positive size.
	pages, _ := lru.New[string, *cacheEntry](capacity)
	return &ImageCache{pages: pages}
}

// Load returns the decoded page at path, from the cache when the file is
// unchanged.
//
// Supported formats are PNG, JPEG, GIF, WebP, BMP and TIFF. The concrete
// image type depends on the file (e.g., *image.Gray for grayscale scans,
// *image.YCbCr for JPEG).
func (c *ImageCache) Load(path string) (image.Image, error) {
	e, err := c.load(path)
	if err != nil {
		return nil, err
	}
	return e.img, nil
}

func (c *ImageCache) load(path string) (*cacheEntry, error) {
	key, err := cacheKey(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(key)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	if stat.IsDir() {
		return nil, fmt.Errorf("failed to open image: %s is a directory", path)
	}

	if e, ok := c.pages.Get(key); ok {
		if e.size == stat.Size() && e.modTime.Equal(stat.ModTime()) {
			return e, nil
		}
		// Stale: never serve it, even if the new file fails to decode.
		c.pages.Remove(key)
	}

	f, err := os.Open(key)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	e := &cacheEntry{
		img:     img,
		format:  format,
		size:    stat.Size(),
		modTime: stat.ModTime(),
	}
	// A concurrent decode of the same page is simply replaced.
	c.pages.Add(key, e)
	return e, nil
}

// Len returns the number of cached pages.
func (c *ImageCache) Len() int {
	return c.pages.Len()
}

// Clear removes all pages from the cache.
func (c *ImageCache) Clear() {
	c.pages.Purge()
}

// Evict removes one page from the cache. Unknown paths are ignored.
func (c *ImageCache) Evict(path string) {
	key, err := cacheKey(path)
	if err != nil {
		return
	}
	c.pages.Remove(key)
}

func cacheKey(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("failed to open image: empty path")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	return abs, nil
}

// ImageInfo describes a page file.
type ImageInfo struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Format is the decoder that read the file: "png", "jpeg", "gif",
	// "webp", "bmp" or "tiff".
	Format string `json:"format"`

	// Grayscale is true for single-channel scans, the usual form of
	// printed manga.
	Grayscale bool `json:"grayscale"`

	// Spread is true for landscape pages, which are usually two facing
	// pages scanned as one. Panels of a spread read right page first.
	Spread bool `json:"spread"`

	// FileSizeBytes is the size of the image file on disk in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadImageInfo loads a page into the cache and describes it.
//
// Format comes from the decoder rather than the file extension, so a PNG
// saved as ".jpg" reports "png". The extension is used only if the decoder
// gave no name.
func LoadImageInfo(cache *ImageCache, path string) (*ImageInfo, error) {
	e, err := cache.load(path)
	if err != nil {
		return nil, err
	}

	format := e.format
	if format == "" {
		format = formatFromExt(filepath.Ext(path))
	}

	grayscale := false
	switch e.img.(type) {
	case *image.Gray, *image.Gray16:
		grayscale = true
	}

	bounds := e.img.Bounds()
	return &ImageInfo{
		Width:         bounds.Dx(),
		Height:        bounds.Dy(),
		Format:        format,
		Grayscale:     grayscale,
		Spread:        bounds.Dx() > bounds.Dy(),
		FileSizeBytes: e.size,
	}, nil
}

// DimensionsResult contains the width and height of a page.
type DimensionsResult struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// GetDimensions returns the size of a page, loading it into the cache.
func GetDimensions(cache *ImageCache, path string) (*DimensionsResult, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	return &DimensionsResult{
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}, nil
}

func formatFromExt(ext string) string {
	switch strings.ToLower(ext) {
	case ".png":
		return "png"
	case ".jpg", ".jpeg":
		return "jpeg"
	case ".gif":
		return "gif"
	case ".webp":
		return "webp"
	case ".bmp":
		return "bmp"
	case ".tif", ".tiff":
		return "tiff"
	}
	return "unknown"
}
