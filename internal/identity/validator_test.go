package identity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetdocs/internal/identity"
)

func newValidator() *identity.Validator {
	return identity.NewValidator(identity.ValidatorConfig{})
}

func TestNormalizeIMO(t *testing.T) {
	assert.Equal(t, "9876543", identity.NormalizeIMO("9876543"))
	assert.Equal(t, "9876543", identity.NormalizeIMO("IMO 9876543"))
	assert.Equal(t, "9876543", identity.NormalizeIMO("imo: 9876543"))
	assert.Equal(t, "9876543", identity.NormalizeIMO("  IMO#9876543  "))
	assert.Equal(t, "", identity.NormalizeIMO(""))
	assert.Equal(t, "", identity.NormalizeIMO("IMO"))
}

func TestNameSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, identity.NameSimilarity("MV Northern Star", "MV Northern Star"))

	// Case, punctuation and word order are ignored.
	assert.Equal(t, 1.0, identity.NameSimilarity("M/V Northern Star", "northern star mv"))

	// Punctuation inside a token collapses instead of splitting it, so
	// "M.V." and "MV" are the same token.
	assert.Equal(t, 1.0, identity.NameSimilarity("M.V. Example", "MV Example"))

	// Scanner-grade misspellings stay above the threshold.
	assert.Greater(t, identity.NameSimilarity("MV Northem Star", "MV Northern Star"), 0.6)

	// Unrelated names score low.
	assert.Less(t, identity.NameSimilarity("MV Pacific Dawn", "MV Northern Star"), 0.6)

	// Missing names never match.
	assert.Equal(t, 0.0, identity.NameSimilarity("", "MV Northern Star"))
	assert.Equal(t, 0.0, identity.NameSimilarity("MV Northern Star", ""))
}

func TestValidateMatchByName(t *testing.T) {
	result := newValidator().Validate("MV Northem Star", "", "MV Northern Star", "9876543")

	assert.True(t, result.OverallMatch)
	assert.False(t, result.IMOExactMatch)
	assert.Nil(t, result.Mismatch)
	assert.Empty(t, result.Advisory)
}

// TestValidateIMOOverridesName covers the misspelled-name case: the IMO
// matches exactly, so the document passes with an advisory note instead
// of being blocked.
func TestValidateIMOOverridesName(t *testing.T) {
	result := newValidator().Validate("MV Norther Stat", "IMO 9876543", "Northern Star Shipping Vessel Alpha", "9876543")

	// Only meaningful when the name alone would have failed.
	require.Less(t, result.NameSimilarity, identity.DefaultNameMatchThreshold)

	assert.True(t, result.IMOExactMatch)
	assert.True(t, result.OverallMatch)
	assert.Nil(t, result.Mismatch)
	assert.Equal(t, identity.AdvisoryNameMismatch, result.Advisory)
}

// TestValidateIMOMatchWithNameTypo covers a small typo in an otherwise
// matching name: the similarity alone would already pass the gate, but
// the record still carries the advisory because the IMO-matched name was
// not an exact match.
func TestValidateIMOMatchWithNameTypo(t *testing.T) {
	result := newValidator().Validate("MV Exampel", "9876543", "MV Example", "9876543")

	require.GreaterOrEqual(t, result.NameSimilarity, identity.DefaultNameMatchThreshold)

	assert.True(t, result.IMOExactMatch)
	assert.True(t, result.OverallMatch)
	assert.Nil(t, result.Mismatch)
	assert.Equal(t, identity.AdvisoryNameMismatch, result.Advisory)
}

// TestValidateMismatch covers the wrong-ship case: neither the name nor
// the IMO matches, so the result blocks with full comparison detail.
func TestValidateMismatch(t *testing.T) {
	result := newValidator().Validate("MV Pacific Dawn", "IMO 1111111", "MV Northern Star", "9876543")

	assert.False(t, result.OverallMatch)
	assert.False(t, result.IMOExactMatch)
	assert.Empty(t, result.Advisory)

	require.NotNil(t, result.Mismatch)
	assert.Equal(t, "MV Northern Star", result.Mismatch.ExpectedName)
	assert.Equal(t, "9876543", result.Mismatch.ExpectedIMO)
	assert.Equal(t, "MV Pacific Dawn", result.Mismatch.ExtractedName)
	assert.Equal(t, "IMO 1111111", result.Mismatch.ExtractedIMO)
	assert.Equal(t, result.NameSimilarity, result.Mismatch.Similarity)
}

func TestValidateEmptyIMONeverMatches(t *testing.T) {
	result := newValidator().Validate("MV Pacific Dawn", "", "MV Northern Star", "")

	assert.False(t, result.IMOExactMatch, "two missing IMOs are not a match")
	assert.False(t, result.OverallMatch)
}

func TestValidateCustomThreshold(t *testing.T) {
	strict := identity.NewValidator(identity.ValidatorConfig{NameMatchThreshold: 0.99})
	result := strict.Validate("MV Northem Star", "", "MV Northern Star", "")
	assert.False(t, result.OverallMatch)

	lenient := identity.NewValidator(identity.ValidatorConfig{NameMatchThreshold: 0.1})
	result = lenient.Validate("MV Northem Star", "", "MV Northern Star", "")
	assert.True(t, result.OverallMatch)
}
