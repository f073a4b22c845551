package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rvasanth/cardpipe/internal/model"
)

func sample() model.ExtractionRecord {
	return model.ExtractionRecord{
		Age:         34,
		DateOfBirth: "1990-01-15",
		DateOfIssue: "",
		FathersName: "R Sharma",
		IDNumber:    "ABCDE1234F",
		IsScanned:   false,
		Minor:       false,
		NameOnCard:  "A Sharma",
		PANType:     "Individual",
	}
}

func TestNormalizeCoercesFlags(t *testing.T) {
	rec := sample()
	rec.IsScanned = true
	rec.Minor = false

	norm, err := Normalize(rec, "card.jpeg")
	require.NoError(t, err)
	assert.Equal(t, 1, norm.IsScanned)
	assert.Equal(t, 0, norm.Minor)
}

func TestNormalizeEmptyIssueDateGetsSentinel(t *testing.T) {
	norm, err := Normalize(sample(), "card.jpeg")
	require.NoError(t, err)
	assert.Equal(t, NullDate, norm.DateOfIssue)

	rec := sample()
	rec.DateOfIssue = "2015-06-01"
	norm, err = Normalize(rec, "card.jpeg")
	require.NoError(t, err)
	assert.Equal(t, "2015-06-01", norm.DateOfIssue)
}

func TestNormalizeVerificationStartsPending(t *testing.T) {
	norm, err := Normalize(sample(), "card.jpeg")
	require.NoError(t, err)
	assert.Equal(t, model.VerificationPending, norm.Verification)
}

func TestNormalizeIdentifierShape(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		norm, err := Normalize(sample(), "card.jpeg")
		require.NoError(t, err)
		assert.Len(t, norm.ID, IDLength)
		for _, r := range norm.ID {
			ok := r == '-' || r == '_' ||
				(r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
			assert.True(t, ok, "unexpected rune %q in id %s", r, norm.ID)
		}
		assert.False(t, seen[norm.ID], "identifier collision: %s", norm.ID)
		seen[norm.ID] = true
	}
}

func TestNormalizeDeterministicApartFromID(t *testing.T) {
	a, err := Normalize(sample(), "card.jpeg")
	require.NoError(t, err)
	b, err := Normalize(sample(), "card.jpeg")
	require.NoError(t, err)

	a.ID, b.ID = "", ""
	assert.Equal(t, a, b)
}
