package ocr

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"sort"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"

	"github.com/ironsheep/manga-panels-mcp/internal/segment"
)

// DefaultLanguage is horizontal Japanese. Use "jpn_vert" for vertical
// speech balloons.
const DefaultLanguage = "jpn"

// ErrNoImage is returned when TranscribePanels is given a nil image.
var ErrNoImage = errors.New("no image to transcribe")

// Bounds represents a rectangular bounding box in pixel coordinates.
type Bounds struct {
	X1 int `json:"x1"` // Left edge
	Y1 int `json:"y1"` // Top edge
	X2 int `json:"x2"` // Right edge
	Y2 int `json:"y2"` // Bottom edge
}

// TextRegion represents a word with its location and OCR confidence.
type TextRegion struct {
	// Text is the recognized text content.
	Text string `json:"text"`

	// Confidence is the OCR confidence score (0.0 to 1.0).
	Confidence float64 `json:"confidence"`

	// Bounds is the word's bounding box in page coordinates.
	Bounds Bounds `json:"bounds"`
}

// PanelText is the text recognized inside one panel.
type PanelText struct {
	ID           string `json:"id"`
	ReadingOrder int    `json:"reading_order"`

	// Text is everything Tesseract read in the panel, trimmed.
	Text string `json:"text"`

	// Confidence is the mean word confidence (0.0 to 1.0), or 0 when no
	// words were found.
	Confidence float64 `json:"confidence"`

	// Regions holds the individual words. May be empty even when Text is
	// not, if word boxes could not be extracted.
	Regions []TextRegion `json:"regions"`
}

// PanelTextResult is the text of a page, panel by panel in reading order.
type PanelTextResult struct {
	Language string      `json:"language"`
	Panels   []PanelText `json:"panels"`
}

// TranscribePanels runs OCR on each panel of a segmented page.
//
// Panels are processed in ascending ReadingOrder regardless of slice order,
// so the result reads the way the page does. Each panel box is clipped to
// the image; a panel with nothing left after clipping yields an empty entry
// rather than an error.
//
// Parameters:
//   - img: The page the panels were detected on.
//   - panels: Panel boxes relative to the image's top-left corner, as
//     returned by segment.Segmenter.
//   - language: Tesseract language code. Empty selects DefaultLanguage.
//     Codes ending in "_vert" switch Tesseract to vertical text layout.
//
// One Tesseract client is reused for every panel.
func TranscribePanels(img image.Image, panels []segment.Panel, language string) (*PanelTextResult, error) {
	if img == nil {
		return nil, ErrNoImage
	}
	if language == "" {
		language = DefaultLanguage
	}

	ordered := make([]segment.Panel, len(panels))
	copy(ordered, panels)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].ReadingOrder < ordered[j].ReadingOrder
	})

	result := &PanelTextResult{
		Language: language,
		Panels:   make([]PanelText, 0, len(ordered)),
	}
	if len(ordered) == 0 {
		return result, nil
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(language); err != nil {
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	if strings.HasSuffix(language, "_vert") {
		if err := client.SetPageSegMode(gosseract.PSM_SINGLE_BLOCK_VERT_TEXT); err != nil {
			return nil, fmt.Errorf("failed to set vertical layout: %w", err)
		}
	}

	bounds := img.Bounds()
	for _, p := range ordered {
		entry := PanelText{ID: p.ID, ReadingOrder: p.ReadingOrder, Regions: []TextRegion{}}

		region := image.Rect(p.X, p.Y, p.X+p.Width, p.Y+p.Height).Add(bounds.Min).Intersect(bounds)
		if region.Empty() {
			result.Panels = append(result.Panels, entry)
			continue
		}

		if err := transcribeRegion(client, img, region, &entry); err != nil {
			return nil, fmt.Errorf("panel %s: %w", p.ID, err)
		}
		result.Panels = append(result.Panels, entry)
	}

	return result, nil
}

// transcribeRegion fills entry with the text found in region of img.
// Word bounds are reported relative to the image's top-left corner.
func transcribeRegion(client *gosseract.Client, img image.Image, region image.Rectangle, entry *PanelText) error {
	cropped := imaging.Crop(img, region)

	var buf bytes.Buffer
	if err := png.Encode(&buf, cropped); err != nil {
		return fmt.Errorf("failed to encode panel image: %w", err)
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return fmt.Errorf("OCR failed: %w", err)
	}
	entry.Text = strings.TrimSpace(text)

	// Word boxes are optional; keep the text if they fail
	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil
	}

	origin := region.Min.Sub(img.Bounds().Min)
	sum := 0.0
	for _, box := range boxes {
		if strings.TrimSpace(box.Word) == "" {
			continue
		}
		conf := box.Confidence / 100.0
		sum += conf
		entry.Regions = append(entry.Regions, TextRegion{
			Text:       box.Word,
			Confidence: conf,
			Bounds: Bounds{
				X1: box.Box.Min.X + origin.X,
				Y1: box.Box.Min.Y + origin.Y,
				X2: box.Box.Max.X + origin.X,
				Y2: box.Box.Max.Y + origin.Y,
			},
		})
	}
	if len(entry.Regions) > 0 {
		entry.Confidence = sum / float64(len(entry.Regions))
	}
	return nil
}
