// Package analysis turns per-chunk Document AI results into a single
// merged document summary and extracts structured fields from it.
//
// The merge step is deliberately tolerant: chunks are analyzed
// concurrently and may fail individually, so the merger sorts results by
// page range, keeps whatever succeeded, and only produces an empty body
// when every chunk failed. Field hints are resolved earliest-page-first
// because cover pages carry the canonical identifying fields.
package analysis

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"fleetdocs/internal/docai"
	"fleetdocs/internal/ocr"
	"fleetdocs/pkg/models"
)

// FieldLabels is the label set scanned for one canonical field. The
// first entry is the canonical label used in generated output; the rest
// are synonyms seen in real documents.
type FieldLabels []string

// fieldMapping keys canonical field names to their per-type label sets.
// This indirection is what lets one merge implementation serve every
// document type.
var fieldMapping = map[models.DocumentType]map[string]FieldLabels{
	models.SurveyReport: {
		"report_number":     {"Report Number", "Report No", "Survey Report No", "Certificate No"},
		"surveyor_name":     {"Surveyor Name", "Surveyor", "Attending Surveyor"},
		"issuing_authority": {"Issuing Authority", "Classification Society", "Class Society", "Issued By"},
		"issue_date":        {"Issue Date", "Date of Issue", "Survey Date", "Date of Survey"},
	},
	models.TestReport: {
		"report_number":     {"Test Number", "Test Report No", "Report Number", "Certificate No"},
		"equipment_type":    {"Equipment Type", "Equipment", "Item Tested", "Apparatus"},
		"issuing_authority": {"Issuing Authority", "Testing Station", "Service Station", "Issued By"},
		"issue_date":        {"Test Date", "Date of Test", "Issue Date", "Date of Issue"},
	},
	models.AuditReport: {
		"report_number":     {"Audit Number", "Audit Report No", "Report Number"},
		"auditor_name":      {"Auditor Name", "Auditor", "Lead Auditor"},
		"issuing_authority": {"Issuing Authority", "Administration", "Audit Body", "Issued By"},
		"issue_date":        {"Audit Date", "Date of Audit", "Issue Date"},
	},
	models.OtherDocument: {
		"report_number":     {"Report Number", "Document No", "Reference No", "Certificate No"},
		"issuing_authority": {"Issuing Authority", "Issued By"},
		"issue_date":        {"Issue Date", "Date of Issue", "Date"},
	},
}

var titleByType = map[models.DocumentType]string{
	models.SurveyReport:  "Survey Report Analysis Summary",
	models.TestReport:    "Test Report Analysis Summary",
	models.AuditReport:   "Audit Report Analysis Summary",
	models.OtherDocument: "Document Analysis Summary",
}

// MergedSummary is the single logical summary of a document, derived
// from all chunk results plus the header/footer OCR. It is immutable
// once handed to field extraction.
type MergedSummary struct {
	DocumentType models.DocumentType `json:"document_type"`
	TitleBlock   string              `json:"title_block"`
	FieldValues  map[string]string   `json:"field_values"`
	BodyText     string              `json:"body_text"`
	OCRAppendix  string              `json:"ocr_appendix,omitempty"`
}

// Empty reports whether no chunk contributed text.
func (m MergedSummary) Empty() bool {
	return strings.TrimSpace(m.BodyText) == ""
}

// Merge combines chunk results into one MergedSummary. Results are
// sorted by page range regardless of arrival order. Failed chunks
// contribute nothing but never block merging of the others; only if all
// chunks failed is the body empty.
func Merge(results []docai.ChunkAnalysisResult, docType models.DocumentType) MergedSummary {
	sorted := make([]docai.ChunkAnalysisResult, len(results))
	copy(sorted, results)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Pages.Start != sorted[j].Pages.Start {
			return sorted[i].Pages.Start < sorted[j].Pages.Start
		}
		return sorted[i].ChunkIndex < sorted[j].ChunkIndex
	})

	var body strings.Builder
	for _, r := range sorted {
		if !r.Success || strings.TrimSpace(r.Summary) == "" {
			continue
		}
		if body.Len() > 0 {
			body.WriteString(fmt.Sprintf("\n\n--- Pages %s ---\n\n", r.Pages))
		}
		body.WriteString(strings.TrimSpace(r.Summary))
	}

	return MergedSummary{
		DocumentType: docType,
		TitleBlock:   titleByType[docType],
		FieldValues:  collectFieldHints(sorted, docType),
		BodyText:     body.String(),
	}
}

// AppendOCR attaches the header/footer band text as a clearly demarcated
// supplementary block. Empty band text leaves the summary untouched.
func (m MergedSummary) AppendOCR(bands ocr.BandText) MergedSummary {
	if !bands.Success || bands.Empty() {
		return m
	}

	var appendix strings.Builder
	appendix.WriteString("--- Header/Footer OCR (supplementary, first page only) ---")
	if bands.Header != "" {
		appendix.WriteString("\nHeader: ")
		appendix.WriteString(bands.Header)
	}
	if bands.Footer != "" {
		appendix.WriteString("\nFooter: ")
		appendix.WriteString(bands.Footer)
	}

	m.OCRAppendix = appendix.String()
	if m.BodyText == "" {
		m.BodyText = m.OCRAppendix
	} else {
		m.BodyText = m.BodyText + "\n\n" + m.OCRAppendix
	}
	return m
}

// collectFieldHints scans the page-ordered chunk summaries for
// "Label: value" lines matching the document type's label set. When a
// field appears in more than one chunk, the value from the first chunk
// that reports it non-empty wins: cover pages come first and carry the
// canonical identifying fields.
func collectFieldHints(sorted []docai.ChunkAnalysisResult, docType models.DocumentType) map[string]string {
	labels, ok := fieldMapping[docType]
	if !ok {
		labels = fieldMapping[models.OtherDocument]
	}

	hints := make(map[string]string)
	for _, r := range sorted {
		if !r.Success {
			continue
		}
		for field, labelSet := range labels {
			if hints[field] != "" {
				continue
			}
			if value := scanForLabels(r.Summary, labelSet); value != "" {
				hints[field] = value
			}
		}
	}
	return hints
}

// scanForLabels finds the first "Label: value" (or "Label - value") line
// for any of the given labels.
func scanForLabels(text string, labels FieldLabels) string {
	for _, label := range labels {
		re := regexp.MustCompile(`(?im)^\s*` + regexp.QuoteMeta(label) + `\s*[:\-]\s*(\S.*)$`)
		if match := re.FindStringSubmatch(text); len(match) > 1 {
			if value := strings.TrimSpace(match[1]); value != "" {
				return value
			}
		}
	}
	return ""
}

// CanonicalLabel returns the canonical label for a field of the given
// document type, used when rendering generated summaries.
func CanonicalLabel(docType models.DocumentType, field string) string {
	if labels, ok := fieldMapping[docType][field]; ok && len(labels) > 0 {
		return labels[0]
	}
	return field
}
