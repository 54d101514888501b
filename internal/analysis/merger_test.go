package analysis_test

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetdocs/internal/analysis"
	"fleetdocs/internal/docai"
	"fleetdocs/internal/ocr"
	"fleetdocs/internal/pdf"
	"fleetdocs/pkg/models"
)

func chunkResult(index, start, end int, summary string) docai.ChunkAnalysisResult {
	return docai.ChunkAnalysisResult{
		ChunkIndex: index,
		Pages:      pdf.PageRange{Start: start, End: end},
		Success:    true,
		Summary:    summary,
	}
}

func failedChunk(index, start, end int, message string) docai.ChunkAnalysisResult {
	return docai.ChunkAnalysisResult{
		ChunkIndex:   index,
		Pages:        pdf.PageRange{Start: start, End: end},
		Success:      false,
		ErrorMessage: message,
	}
}

func TestMergeOrdersByPageRange(t *testing.T) {
	results := []docai.ChunkAnalysisResult{
		chunkResult(3, 25, 36, "third part"),
		chunkResult(1, 1, 12, "first part"),
		chunkResult(2, 13, 24, "second part"),
	}

	merged := analysis.Merge(results, models.SurveyReport)

	first := strings.Index(merged.BodyText, "first part")
	second := strings.Index(merged.BodyText, "second part")
	third := strings.Index(merged.BodyText, "third part")
	require.GreaterOrEqual(t, first, 0)
	assert.Less(t, first, second)
	assert.Less(t, second, third)
	assert.Contains(t, merged.BodyText, "--- Pages 13-24 ---")
}

// TestMergeArrivalOrderIndependence shuffles the results repeatedly and
// checks that the merged summary never changes: concurrent chunk analysis
// must not leak completion order into output.
func TestMergeArrivalOrderIndependence(t *testing.T) {
	results := []docai.ChunkAnalysisResult{
		chunkResult(1, 1, 12, "Report Number: SR-2024-001\ncover page text"),
		chunkResult(2, 13, 24, "middle text"),
		failedChunk(3, 25, 36, "quota exceeded"),
		chunkResult(4, 37, 41, "closing text"),
	}

	reference := analysis.Merge(results, models.SurveyReport)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffled := make([]docai.ChunkAnalysisResult, len(results))
		copy(shuffled, results)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})

		merged := analysis.Merge(shuffled, models.SurveyReport)
		assert.Equal(t, reference, merged)
	}
}

func TestMergePartialFailure(t *testing.T) {
	results := []docai.ChunkAnalysisResult{
		chunkResult(1, 1, 12, "surviving text"),
		failedChunk(2, 13, 24, "backend timeout"),
	}

	merged := analysis.Merge(results, models.SurveyReport)
	assert.False(t, merged.Empty())
	assert.Contains(t, merged.BodyText, "surviving text")
	assert.NotContains(t, merged.BodyText, "backend timeout")
}

func TestMergeAllChunksFailed(t *testing.T) {
	results := []docai.ChunkAnalysisResult{
		failedChunk(1, 1, 12, "error one"),
		failedChunk(2, 13, 24, "error two"),
	}

	merged := analysis.Merge(results, models.SurveyReport)
	assert.True(t, merged.Empty())
}

func TestMergeFieldHintsEarliestPageWins(t *testing.T) {
	results := []docai.ChunkAnalysisResult{
		chunkResult(2, 13, 24, "Report Number: WRONG-LATER\nbody"),
		chunkResult(1, 1, 12, "Report Number: SR-2024-001\ncover"),
	}

	merged := analysis.Merge(results, models.SurveyReport)
	assert.Equal(t, "SR-2024-001", merged.FieldValues["report_number"])
}

func TestMergeFieldHintsPerDocumentType(t *testing.T) {
	summary := "Test Number: LT-77\nEquipment Type: Liferaft\nTesting Station: Acme Marine Services"
	merged := analysis.Merge([]docai.ChunkAnalysisResult{chunkResult(1, 1, 5, summary)}, models.TestReport)

	assert.Equal(t, "LT-77", merged.FieldValues["report_number"])
	assert.Equal(t, "Liferaft", merged.FieldValues["equipment_type"])
	assert.Equal(t, "Acme Marine Services", merged.FieldValues["issuing_authority"])
	assert.Equal(t, "Test Report Analysis Summary", merged.TitleBlock)
}

func TestAppendOCR(t *testing.T) {
	merged := analysis.Merge([]docai.ChunkAnalysisResult{chunkResult(1, 1, 5, "body text")}, models.SurveyReport)

	withOCR := merged.AppendOCR(ocr.BandText{
		Header:  "MV NORTHERN STAR - IMO 9876543",
		Footer:  "CG (02-19)",
		Success: true,
	})

	assert.Contains(t, withOCR.BodyText, "body text")
	assert.Contains(t, withOCR.BodyText, "Header: MV NORTHERN STAR - IMO 9876543")
	assert.Contains(t, withOCR.BodyText, "Footer: CG (02-19)")
	// The appendix is demarcated and comes after the main body.
	assert.Less(t,
		strings.Index(withOCR.BodyText, "body text"),
		strings.Index(withOCR.BodyText, "Header/Footer OCR"))

	// The original summary is unchanged (value semantics).
	assert.NotContains(t, merged.BodyText, "Header:")
}

func TestAppendOCRSkipsFailedOrEmptyBands(t *testing.T) {
	merged := analysis.Merge([]docai.ChunkAnalysisResult{chunkResult(1, 1, 5, "body text")}, models.SurveyReport)

	unchanged := merged.AppendOCR(ocr.BandText{Success: false, Header: "ignored"})
	assert.Equal(t, merged, unchanged)

	unchanged = merged.AppendOCR(ocr.BandText{Success: true})
	assert.Equal(t, merged, unchanged)
}

func TestCanonicalLabel(t *testing.T) {
	assert.Equal(t, "Report Number", analysis.CanonicalLabel(models.SurveyReport, "report_number"))
	assert.Equal(t, "Equipment Type", analysis.CanonicalLabel(models.TestReport, "equipment_type"))
	assert.Equal(t, "unknown_field", analysis.CanonicalLabel(models.SurveyReport, "unknown_field"))
}
