// Package identity validates a document's claimed subject (ship name and
// IMO number) against the record it is being attached to.
//
// Scanned documents misspell ship names constantly, so name comparison is
// fuzzy: names are normalized, token-sorted and scored with a Levenshtein
// similarity. An exact IMO match always wins regardless of the name score
// since the IMO number is the authoritative identifier. A failed match is
// a blocking gate by default; only an explicit caller bypass lets a
// non-matching document through.
package identity

import (
	"regexp"
	"sort"
	"strings"

	"github.com/agext/levenshtein"
)

// DefaultNameMatchThreshold is the minimum name similarity treated as a
// match when the IMO does not match exactly. The value is a tunable taken
// from operational experience with class society paperwork, not a law of
// nature; callers may override it through ValidatorConfig.
const DefaultNameMatchThreshold = 0.6

// AdvisoryNameMismatch is attached to records whose IMO matched while the
// extracted name differed. Non-blocking.
const AdvisoryNameMismatch = "reference only — extracted ship name did not match the record"

var imoLabelPattern = regexp.MustCompile(`(?i)^\s*IMO[\s:.#-]*`)

var nonAlnumPattern = regexp.MustCompile(`[^a-z0-9 ]+`)

// Result is the outcome of an identity comparison. OverallMatch is always
// computed, never set by a caller; only Bypassed may let a non-matching
// document proceed.
type Result struct {
	NameSimilarity float64 `json:"name_similarity"`
	IMOExactMatch  bool    `json:"imo_exact_match"`
	OverallMatch   bool    `json:"overall_match"`
	Bypassed       bool    `json:"bypassed"`

	// Advisory carries a non-blocking note, e.g. an IMO-matched document
	// whose name differed.
	Advisory string `json:"advisory,omitempty"`

	// Mismatch carries the comparison detail surfaced for human review
	// when OverallMatch is false.
	Mismatch *Mismatch `json:"mismatch,omitempty"`
}

// Mismatch is the expected-versus-extracted detail shown to a human
// deciding whether to bypass the gate.
type Mismatch struct {
	ExpectedName  string  `json:"expected_name"`
	ExpectedIMO   string  `json:"expected_imo"`
	ExtractedName string  `json:"extracted_name"`
	ExtractedIMO  string  `json:"extracted_imo"`
	Similarity    float64 `json:"similarity"`
}

// ValidatorConfig tunes the identity comparison.
type ValidatorConfig struct {
	// NameMatchThreshold overrides DefaultNameMatchThreshold when positive.
	NameMatchThreshold float64
}

// Validator compares extracted ship identity against an expected record.
type Validator struct {
	threshold float64
}

// NewValidator creates a validator with the given configuration.
func NewValidator(config ValidatorConfig) *Validator {
	threshold := config.NameMatchThreshold
	if threshold <= 0 {
		threshold = DefaultNameMatchThreshold
	}
	return &Validator{threshold: threshold}
}

// Validate compares the extracted ship identity to the expected one.
func (v *Validator) Validate(extractedName, extractedIMO, expectedName, expectedIMO string) Result {
	result := Result{
		NameSimilarity: NameSimilarity(extractedName, expectedName),
		IMOExactMatch:  imoEqual(extractedIMO, expectedIMO),
	}
	result.OverallMatch = result.IMOExactMatch || result.NameSimilarity >= v.threshold

	switch {
	case !result.OverallMatch:
		result.Mismatch = &Mismatch{
			ExpectedName:  expectedName,
			ExpectedIMO:   expectedIMO,
			ExtractedName: extractedName,
			ExtractedIMO:  extractedIMO,
			Similarity:    result.NameSimilarity,
		}
	case result.IMOExactMatch && result.NameSimilarity < 1:
		result.Advisory = AdvisoryNameMismatch
	}

	return result
}

// imoEqual reports whether both IMO strings are equal and non-empty after
// stripping whitespace and a leading "IMO" label.
func imoEqual(a, b string) bool {
	na, nb := NormalizeIMO(a), NormalizeIMO(b)
	return na != "" && na == nb
}

// NormalizeIMO strips whitespace and a leading "IMO" label from an IMO
// string, e.g. "IMO 9876543" becomes "9876543".
func NormalizeIMO(imo string) string {
	imo = imoLabelPattern.ReplaceAllString(imo, "")
	return strings.Join(strings.Fields(imo), "")
}

// NameSimilarity scores the similarity of two ship names in [0,1] using
// token-sorted Levenshtein similarity. Case, punctuation and word order
// do not affect the score.
func NameSimilarity(a, b string) float64 {
	na, nb := normalizeName(a), normalizeName(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1
	}
	return levenshtein.Similarity(na, nb, nil)
}

// normalizeName lowercases, strips punctuation and sorts tokens so that
// "M/V Example" and "example mv" compare equal. Punctuation is removed
// inside a token rather than split on, so "M/V" stays one token "mv".
func normalizeName(name string) string {
	name = strings.ToLower(name)
	var tokens []string
	for _, token := range strings.Fields(name) {
		token = nonAlnumPattern.ReplaceAllString(token, "")
		if token != "" {
			tokens = append(tokens, token)
		}
	}
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}
