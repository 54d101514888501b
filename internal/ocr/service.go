// Package ocr provides targeted header/footer text extraction from page
// images using the Google Cloud Vision API.
//
// Unlike the main Document AI analysis, this component only reads the top
// and bottom bands of the first page of a document. Ship documents carry
// their identifying marks (ship name, IMO number, form codes, issuing
// authority stamps) in headers and footers, so a cheap always-run pass
// over those two bands supplements the full analysis at a fraction of the
// cost. Failures here are soft: the pipeline proceeds without band text.
package ocr

import "context"

// Band height as a fraction of page height, applied to both the header
// (top) and the footer (bottom).
const BandRatio = 0.15

// BandText is the outcome of extracting the header and footer bands of a
// single page. Success is false on any internal failure; the text fields
// are then empty and the caller proceeds without them.
type BandText struct {
	Header  string `json:"header"`
	Footer  string `json:"footer"`
	Success bool   `json:"success"`
}

// Empty reports whether neither band produced text.
func (b BandText) Empty() bool {
	return b.Header == "" && b.Footer == ""
}

// RegionOCR extracts text from the header and footer bands of one page
// image, independent of the main document analysis.
type RegionOCR interface {
	// Available reports whether the OCR engine can be used at all
	// (client constructed, credentials present).
	Available() bool

	// ExtractBands extracts text from the top and bottom bands of a page
	// raster image (PNG or JPEG). Each band is processed independently; a
	// failure in one band does not discard the other. Internal failures
	// yield Success=false, never an error that aborts the pipeline.
	ExtractBands(ctx context.Context, pageImage []byte) BandText
}
