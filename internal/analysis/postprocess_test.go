package analysis_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"fleetdocs/internal/analysis"
	"fleetdocs/pkg/models"
)

func TestIsFormCode(t *testing.T) {
	assert.True(t, analysis.IsFormCode("CU (02/19)"))
	assert.True(t, analysis.IsFormCode("CG (02-19)"))
	assert.True(t, analysis.IsFormCode("LSA(05-21)"))
	assert.True(t, analysis.IsFormCode("  CU (02/19)  "))

	assert.False(t, analysis.IsFormCode("2019-02-01"))
	assert.False(t, analysis.IsFormCode("02/19"))
	assert.False(t, analysis.IsFormCode("Report CU (02/19)"))
	assert.False(t, analysis.IsFormCode(""))
}

func TestNormalizeDate(t *testing.T) {
	assert.Equal(t, "2024-03-15", analysis.NormalizeDate("2024-03-15"))
	assert.Equal(t, "2024-03-15", analysis.NormalizeDate("15.03.2024"))
	assert.Equal(t, "2024-03-15", analysis.NormalizeDate("15/03/2024"))
	assert.Equal(t, "2024-03-15", analysis.NormalizeDate("March 15, 2024"))
	assert.Equal(t, "2024-03-15", analysis.NormalizeDate("15 Mar 2024"))

	// Unparseable values never pass through raw.
	assert.Equal(t, "", analysis.NormalizeDate("next Tuesday"))
	assert.Equal(t, "", analysis.NormalizeDate("CU (02/19)"))
	assert.Equal(t, "", analysis.NormalizeDate(""))
	assert.Equal(t, "", analysis.NormalizeDate("2024-13-45"))
}

func TestRecoverFormFromFilename(t *testing.T) {
	assert.Equal(t, "CG (02-19)", analysis.RecoverFormFromFilename("Cargo Gear CG (02-19) MV Example.pdf"))
	assert.Equal(t, "CG 02-19", analysis.RecoverFormFromFilename("survey CG 02-19.pdf"))
	assert.Equal(t, "", analysis.RecoverFormFromFilename("plain survey report.pdf"))
}

func TestNormalizeSubjectName(t *testing.T) {
	assert.Equal(t, "Cargo Gear", analysis.NormalizeSubjectName("Annual Cargo Gear Survey Report"))
	assert.Equal(t, "Hull", analysis.NormalizeSubjectName("Intermediate Survey of the Hull"))
	// Acronyms survive title-casing.
	assert.Equal(t, "LSA Equipment", analysis.NormalizeSubjectName("Annual LSA Equipment Test Report"))

	// A name made only of generic words is kept rather than erased.
	assert.Equal(t, "Survey Report", analysis.NormalizeSubjectName("Survey Report"))
}

func TestPostProcessFormCodeInDate(t *testing.T) {
	fields := models.ExtractedFields{
		Name:      "Annual Cargo Gear Survey Report",
		IssueDate: "CU (02/19)",
	}

	analysis.PostProcess(&fields, "cargo gear survey.pdf")

	assert.Equal(t, "", fields.IssueDate, "a form code is not a date")
	assert.Equal(t, "CU (02/19)", fields.ReportForm)
	assert.Equal(t, "Cargo Gear", fields.Name)
}

func TestPostProcessFormCodeDoesNotOverwrite(t *testing.T) {
	fields := models.ExtractedFields{
		IssueDate:  "CG (02-19)",
		ReportForm: "CU (02/19)",
	}

	analysis.PostProcess(&fields, "x.pdf")

	assert.Equal(t, "", fields.IssueDate)
	assert.Equal(t, "CU (02/19)", fields.ReportForm, "existing form field wins")
}

func TestPostProcessDateNormalization(t *testing.T) {
	fields := models.ExtractedFields{IssueDate: "15.03.2024"}
	analysis.PostProcess(&fields, "x.pdf")
	assert.Equal(t, "2024-03-15", fields.IssueDate)

	fields = models.ExtractedFields{IssueDate: "garbled scan text"}
	analysis.PostProcess(&fields, "x.pdf")
	assert.Equal(t, "", fields.IssueDate)
}

func TestPostProcessFormRecoveredFromFilename(t *testing.T) {
	fields := models.ExtractedFields{IssueDate: "2024-03-15"}

	analysis.PostProcess(&fields, "Cargo Gear CG (02-19).pdf")

	assert.Equal(t, "CG (02-19)", fields.ReportForm)
	assert.Equal(t, "2024-03-15", fields.IssueDate)
}

// TestPostProcessIdempotent applies the corrections twice and expects the
// second pass to change nothing.
func TestPostProcessIdempotent(t *testing.T) {
	cases := []models.ExtractedFields{
		{Name: "Annual Cargo Gear Survey Report", IssueDate: "CU (02/19)"},
		{Name: "Hull Inspection", IssueDate: "15.03.2024"},
		{Name: "Annual LSA Equipment Test", IssueDate: "garbage", ReportForm: "LSA (05-21)"},
		{},
	}

	for _, fields := range cases {
		analysis.PostProcess(&fields, "Cargo Gear CG (02-19).pdf")
		once := fields
		analysis.PostProcess(&fields, "Cargo Gear CG (02-19).pdf")
		assert.Equal(t, once, fields)
	}
}
