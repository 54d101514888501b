package analysis

import (
	"regexp"
	"strings"
	"time"

	"fleetdocs/pkg/models"
)

// formCodePattern matches document form codes that OCR and LLM extraction
// routinely mistake for dates: a short uppercase code followed by a
// two-digit/two-digit parenthetical, e.g. "CU (02/19)", "CG (02-19)".
var formCodePattern = regexp.MustCompile(`^[A-Z]{1,4}\s*\(\s*\d{2}\s*[-/]\s*\d{2}\s*\)$`)

// filenameFormPattern recovers a form code from a source filename, where
// the parentheses are often dropped, e.g. "CG (02-19)" or "CG 02-19".
var filenameFormPattern = regexp.MustCompile(`\b([A-Z]{1,4}\s?\(?\d{2}[-/]\d{2}\)?)`)

var isoDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// dateFormats are tried in order when normalizing a date string.
var dateFormats = []string{
	"2006-01-02",
	"02.01.2006",
	"02/01/2006",
	"01/02/2006",
	"2006/01/02",
	"02-01-2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
	"02 Jan 2006",
	"2006.01.02",
}

// genericDocumentWords are document-type phrase words stripped from the
// extracted name so that the stored name is the subject of the document,
// not the phrase ("Annual Cargo Gear Survey Report" becomes "Cargo Gear").
var genericDocumentWords = map[string]bool{
	"annual":       true,
	"intermediate": true,
	"periodical":   true,
	"periodic":     true,
	"quarterly":    true,
	"initial":      true,
	"renewal":      true,
	"interim":      true,
	"survey":       true,
	"report":       true,
	"record":       true,
	"test":         true,
	"audit":        true,
	"inspection":   true,
	"certificate":  true,
	"statement":    true,
	"form":         true,
	"of":           true,
	"the":          true,
	"for":          true,
}

// IsFormCode reports whether a value looks like a document form code
// rather than a date.
func IsFormCode(value string) bool {
	return formCodePattern.MatchString(strings.TrimSpace(value))
}

// NormalizeDate parses a date string permissively and renders it as
// YYYY-MM-DD. An already-normalized ISO date passes through unchanged;
// an unparseable value yields the empty string, never the raw token.
func NormalizeDate(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if isoDatePattern.MatchString(value) {
		if _, err := time.Parse("2006-01-02", value); err == nil {
			return value
		}
		return ""
	}
	for _, format := range dateFormats {
		if date, err := time.Parse(format, value); err == nil {
			return date.Format("2006-01-02")
		}
	}
	return ""
}

// RecoverFormFromFilename pulls a form code out of the source filename.
// Returns the empty string when no code is present.
func RecoverFormFromFilename(filename string) string {
	if match := filenameFormPattern.FindStringSubmatch(filename); len(match) > 1 {
		return strings.TrimSpace(match[1])
	}
	return ""
}

// NormalizeSubjectName strips generic survey/report/record-type words
// from a name and renders the remainder in Title Case. When stripping
// would remove everything, the full name is kept (title-cased) instead.
func NormalizeSubjectName(name string) string {
	words := strings.Fields(name)
	kept := make([]string, 0, len(words))
	for _, word := range words {
		if genericDocumentWords[strings.ToLower(word)] {
			continue
		}
		kept = append(kept, word)
	}
	if len(kept) == 0 {
		kept = words
	}
	for i, word := range kept {
		kept[i] = titleCaseWord(word)
	}
	return strings.Join(kept, " ")
}

// titleCaseWord uppercases the first rune and lowercases the rest,
// leaving short all-caps tokens (acronyms like "IMO", "LSA") alone.
func titleCaseWord(word string) string {
	if word == "" {
		return word
	}
	if len(word) <= 4 && word == strings.ToUpper(word) && strings.ContainsAny(word, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		return word
	}
	lower := strings.ToLower(word)
	return strings.ToUpper(lower[:1]) + lower[1:]
}

// PostProcess applies the extraction correction rules in place:
//
//  1. A form code extracted into the issue date is moved to the report
//     form field and the date is cleared; a form code is not a date.
//  2. Any other date value is normalized to YYYY-MM-DD or cleared.
//  3. A still-empty report form is recovered from the source filename.
//  4. The name is reduced to the document's subject in Title Case.
//
// The rules are idempotent: applying them to already-processed fields
// changes nothing.
func PostProcess(fields *models.ExtractedFields, sourceFilename string) {
	if IsFormCode(fields.IssueDate) {
		if fields.ReportForm == "" {
			fields.ReportForm = strings.TrimSpace(fields.IssueDate)
		}
		fields.IssueDate = ""
	} else {
		fields.IssueDate = NormalizeDate(fields.IssueDate)
	}

	if fields.ReportForm == "" {
		fields.ReportForm = RecoverFormFromFilename(sourceFilename)
	}

	if fields.Name != "" {
		fields.Name = NormalizeSubjectName(fields.Name)
	}
}
