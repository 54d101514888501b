// Package pdf provides page counting and page-bounded splitting of PDF
// documents using pdfcpu.
//
// Documents above SplitThresholdPages are cut into ordered, contiguous
// chunks of at most DefaultMaxPagesPerChunk pages so that each chunk fits
// the synchronous limits of the downstream Document AI service. Splitting
// is a pure function of the input bytes; no network calls are made.
package pdf

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

const (
	// SplitThresholdPages is the page count above which a document is split
	// before analysis.
	SplitThresholdPages = 15

	// DefaultMaxPagesPerChunk is the default chunk size in pages.
	DefaultMaxPagesPerChunk = 12
)

// PageRange is an inclusive, 1-based page interval.
type PageRange struct {
	Start int
	End   int
}

// Pages returns the number of pages covered by the range.
func (r PageRange) Pages() int { return r.End - r.Start + 1 }

// String renders the range as a pdfcpu page selection, e.g. "13-23".
func (r PageRange) String() string {
	if r.Start == r.End {
		return fmt.Sprintf("%d", r.Start)
	}
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}

// DocumentChunk is a contiguous page range of a source document. Content
// is owned exclusively by the chunk once created and is consumed exactly
// once by the analysis step; chunks are never persisted.
type DocumentChunk struct {
	Index          int // 1-based position within the split
	Pages          PageRange
	Content        []byte
	SourceFilename string
}

// Validate checks that data carries a PDF magic header. It is cheap and
// must pass before PageCount or Split are called.
func Validate(data []byte) error {
	if len(data) < 4 || string(data[:4]) != "%PDF" {
		return WrapSplitError("Validate", ErrInvalidDocument, "missing PDF header")
	}
	return nil
}

// PageCount returns the number of pages in the document.
func PageCount(data []byte) (int, error) {
	const op = "PageCount"

	if err := Validate(data); err != nil {
		return 0, err
	}

	count, err := api.PageCount(bytes.NewReader(data), model.NewDefaultConfiguration())
	if err != nil {
		return 0, WrapSplitError(op, ErrInvalidDocument, fmt.Sprintf("pdfcpu: %v", err))
	}
	if count == 0 {
		return 0, WrapSplitError(op, ErrNoPages, "")
	}

	return count, nil
}

// NeedsSplitting reports whether the document exceeds the split threshold.
func NeedsSplitting(data []byte) (bool, error) {
	count, err := PageCount(data)
	if err != nil {
		return false, err
	}
	return ExceedsSplitThreshold(count), nil
}

// ExceedsSplitThreshold reports whether a page count requires splitting.
func ExceedsSplitThreshold(pages int) bool {
	return pages > SplitThresholdPages
}

// ChunkRanges computes the page ranges for splitting totalPages into
// chunks of at most maxPerChunk pages. The ranges are contiguous,
// non-overlapping, ordered, and cover exactly [1, totalPages]; the last
// range may be shorter.
func ChunkRanges(totalPages, maxPerChunk int) ([]PageRange, error) {
	if maxPerChunk <= 0 {
		return nil, WrapSplitError("ChunkRanges", ErrBadChunkSize, fmt.Sprintf("got %d", maxPerChunk))
	}
	if totalPages <= 0 {
		return nil, WrapSplitError("ChunkRanges", ErrNoPages, "")
	}

	ranges := make([]PageRange, 0, (totalPages+maxPerChunk-1)/maxPerChunk)
	for start := 1; start <= totalPages; start += maxPerChunk {
		end := start + maxPerChunk - 1
		if end > totalPages {
			end = totalPages
		}
		ranges = append(ranges, PageRange{Start: start, End: end})
	}
	return ranges, nil
}

// Split cuts the document into ordered page-bounded chunks of at most
// maxPerChunk pages each. A maxPerChunk of 0 uses DefaultMaxPagesPerChunk.
func Split(data []byte, sourceFilename string, maxPerChunk int) ([]DocumentChunk, error) {
	const op = "Split"

	if maxPerChunk == 0 {
		maxPerChunk = DefaultMaxPagesPerChunk
	}

	totalPages, err := PageCount(data)
	if err != nil {
		return nil, err
	}

	ranges, err := ChunkRanges(totalPages, maxPerChunk)
	if err != nil {
		return nil, err
	}

	conf := model.NewDefaultConfiguration()
	chunks := make([]DocumentChunk, 0, len(ranges))
	for i, r := range ranges {
		var buf bytes.Buffer
		if err := api.Trim(bytes.NewReader(data), &buf, []string{r.String()}, conf); err != nil {
			return nil, WrapSplitError(op, ErrInvalidDocument,
				fmt.Sprintf("extracting pages %s: %v", r, err))
		}
		chunks = append(chunks, DocumentChunk{
			Index:          i + 1,
			Pages:          r,
			Content:        buf.Bytes(),
			SourceFilename: sourceFilename,
		})
	}

	return chunks, nil
}

// WholeDocumentChunk wraps an unsplit document as a single chunk covering
// all of its pages, so the analysis step has one code path.
func WholeDocumentChunk(data []byte, sourceFilename string) (DocumentChunk, error) {
	totalPages, err := PageCount(data)
	if err != nil {
		return DocumentChunk{}, err
	}
	return DocumentChunk{
		Index:          1,
		Pages:          PageRange{Start: 1, End: totalPages},
		Content:        data,
		SourceFilename: sourceFilename,
	}, nil
}
