package pdf_test

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetdocs/internal/pdf"
)

// buildPDF generates a minimal valid PDF with the given number of empty
// pages, computing the cross-reference offsets as it writes.
func buildPDF(t *testing.T, pages int) []byte {
	t.Helper()

	var buf bytes.Buffer
	var offsets []int
	writeObj := func(s string) {
		offsets = append(offsets, buf.Len())
		buf.WriteString(s)
	}

	buf.WriteString("%PDF-1.4\n")
	writeObj("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")

	kids := make([]string, pages)
	for i := range kids {
		kids[i] = fmt.Sprintf("%d 0 R", i+3)
	}
	writeObj(fmt.Sprintf("2 0 obj\n<< /Type /Pages /Kids [%s] /Count %d >>\nendobj\n",
		strings.Join(kids, " "), pages))

	for i := 0; i < pages; i++ {
		writeObj(fmt.Sprintf("%d 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>\nendobj\n", i+3))
	}

	xrefPos := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		len(offsets)+1, xrefPos)

	return buf.Bytes()
}

func TestValidate(t *testing.T) {
	require.NoError(t, pdf.Validate([]byte("%PDF-1.4\nrest")))

	err := pdf.Validate([]byte("not a pdf at all"))
	require.Error(t, err)
	assert.ErrorIs(t, err, pdf.ErrInvalidDocument)

	err = pdf.Validate(nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, pdf.ErrInvalidDocument)
}

func TestPageCount(t *testing.T) {
	data := buildPDF(t, 3)

	count, err := pdf.PageCount(data)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	_, err = pdf.PageCount([]byte("junk"))
	assert.ErrorIs(t, err, pdf.ErrInvalidDocument)
}

func TestExceedsSplitThreshold(t *testing.T) {
	assert.False(t, pdf.ExceedsSplitThreshold(1))
	assert.False(t, pdf.ExceedsSplitThreshold(pdf.SplitThresholdPages))
	assert.True(t, pdf.ExceedsSplitThreshold(pdf.SplitThresholdPages+1))
}

func TestNeedsSplitting(t *testing.T) {
	small := buildPDF(t, 3)
	needs, err := pdf.NeedsSplitting(small)
	require.NoError(t, err)
	assert.False(t, needs)

	large := buildPDF(t, pdf.SplitThresholdPages+1)
	needs, err = pdf.NeedsSplitting(large)
	require.NoError(t, err)
	assert.True(t, needs)
}

func TestChunkRanges(t *testing.T) {
	// A 23-page document with 12-page chunks splits into 1-12 and 13-23.
	ranges, err := pdf.ChunkRanges(23, 12)
	require.NoError(t, err)
	require.Len(t, ranges, 2)
	assert.Equal(t, pdf.PageRange{Start: 1, End: 12}, ranges[0])
	assert.Equal(t, pdf.PageRange{Start: 13, End: 23}, ranges[1])

	// An exact multiple produces full chunks only.
	ranges, err = pdf.ChunkRanges(24, 12)
	require.NoError(t, err)
	require.Len(t, ranges, 2)
	assert.Equal(t, pdf.PageRange{Start: 13, End: 24}, ranges[1])

	// A document below the chunk size is one range.
	ranges, err = pdf.ChunkRanges(5, 12)
	require.NoError(t, err)
	require.Len(t, ranges, 1)
	assert.Equal(t, pdf.PageRange{Start: 1, End: 5}, ranges[0])
}

// TestChunkRangesCoverage checks that every chunk plan is ordered,
// contiguous, bounded by the chunk size and covers all pages exactly once.
func TestChunkRangesCoverage(t *testing.T) {
	for _, totalPages := range []int{1, 11, 12, 13, 16, 23, 24, 25, 100, 241} {
		for _, maxPerChunk := range []int{1, 5, 12, 50} {
			ranges, err := pdf.ChunkRanges(totalPages, maxPerChunk)
			require.NoError(t, err)

			next := 1
			for _, r := range ranges {
				assert.Equal(t, next, r.Start, "pages %d/%d", totalPages, maxPerChunk)
				assert.LessOrEqual(t, r.Start, r.End)
				assert.LessOrEqual(t, r.Pages(), maxPerChunk)
				next = r.End + 1
			}
			assert.Equal(t, totalPages+1, next, "pages %d/%d", totalPages, maxPerChunk)
		}
	}
}

func TestChunkRangesErrors(t *testing.T) {
	_, err := pdf.ChunkRanges(10, 0)
	assert.ErrorIs(t, err, pdf.ErrBadChunkSize)

	_, err = pdf.ChunkRanges(10, -1)
	assert.ErrorIs(t, err, pdf.ErrBadChunkSize)

	_, err = pdf.ChunkRanges(0, 12)
	assert.ErrorIs(t, err, pdf.ErrNoPages)
}

func TestSplit(t *testing.T) {
	data := buildPDF(t, 23)

	chunks, err := pdf.Split(data, "large-survey.pdf", 12)
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	assert.Equal(t, 1, chunks[0].Index)
	assert.Equal(t, pdf.PageRange{Start: 1, End: 12}, chunks[0].Pages)
	assert.Equal(t, pdf.PageRange{Start: 13, End: 23}, chunks[1].Pages)

	for _, chunk := range chunks {
		assert.Equal(t, "large-survey.pdf", chunk.SourceFilename)
		require.NoError(t, pdf.Validate(chunk.Content))

		count, err := pdf.PageCount(chunk.Content)
		require.NoError(t, err)
		assert.Equal(t, chunk.Pages.Pages(), count)
	}
}

func TestWholeDocumentChunk(t *testing.T) {
	data := buildPDF(t, 4)

	chunk, err := pdf.WholeDocumentChunk(data, "small.pdf")
	require.NoError(t, err)
	assert.Equal(t, 1, chunk.Index)
	assert.Equal(t, pdf.PageRange{Start: 1, End: 4}, chunk.Pages)
	assert.Equal(t, data, chunk.Content)
}

func TestPageRangeString(t *testing.T) {
	assert.Equal(t, "13-23", pdf.PageRange{Start: 13, End: 23}.String())
	assert.Equal(t, "5", pdf.PageRange{Start: 5, End: 5}.String())
}
