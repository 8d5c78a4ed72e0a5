// Package ocr extracts the text of segmented manga panels using Tesseract.
//
// This package wraps the Tesseract OCR engine (via gosseract/v2). It takes
// the panels found by the segment package and reads each one separately, in
// reading order, so dialogue comes back in the sequence a reader meets it.
//
// # Prerequisites
//
// Tesseract must be installed on the system:
//   - Ubuntu/Debian: apt-get install tesseract-ocr libtesseract-dev
//   - macOS: brew install tesseract
//
// Language data files are required for each language:
//   - Ubuntu/Debian: apt-get install tesseract-ocr-jpn tesseract-ocr-jpn-vert
//   - Other languages: tesseract-ocr-<lang> packages
//
// # Supported Languages
//
// The default language is Japanese ("jpn"). Common choices:
//   - "jpn" - Japanese, horizontal text
//   - "jpn_vert" - Japanese, vertical text (most speech balloons)
//   - "eng" - English, for translated scans
//
// # Performance Considerations
//
// OCR is computationally expensive and dominates the cost of a page. One
// Tesseract client is created per TranscribePanels call and reused for every
// panel. Panels are encoded as PNG in memory; no temporary files are written.
//
// # Error Handling
//
// TranscribePanels returns errors for:
//   - A nil image
//   - Unsupported language codes or missing language data
//   - Tesseract initialization failures
//
// If word bounding box extraction fails, the panel's text is still returned
// with an empty Regions slice.
package ocr
