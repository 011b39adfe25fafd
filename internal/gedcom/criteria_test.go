package gedcom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilter(t *testing.T) {
	doc := loadFamily(t)
	for expr, want := range map[string][]string{
		"surname=doe":                       {"@I1@", "@I3@", "@I4@"},
		"name=JANE":                         {"@I2@"},
		"birth_range=1970-1980":             {"@I1@", "@I2@"},
		"birth=1940":                        {"@I4@"},
		"death=2001":                        {"@I4@"},
		"death_range=1900-1999":             nil,
		"marriage=1993":                     {"@I1@", "@I2@"},
		"marriage_range=1960-1970":          {"@I4@", "@I5@"},
		"surname=doe:birth_range=1900-1980": {"@I1@", "@I4@"},
	} {
		c, err := ParseCriteria(expr)
		require.NoError(t, err, expr)
		got := doc.Filter(c)
		if want == nil {
			assert.Empty(t, got, expr)
			continue
		}
		assert.Equal(t, want, pointers(got), expr)
		assert.Equal(t, expr, c.String())
	}
}

func TestParseCriteria_Invalid(t *testing.T) {
	for _, expr := range []string{
		"",
		"surname",
		"surname=",
		"surname=  ",
		"birth=nineteen",
		"birth_range=1900",
		"birth_range=1950-1900",
		"height=180",
	} {
		_, err := ParseCriteria(expr)
		var verr *ValidationError
		assert.ErrorAs(t, err, &verr, "expr %q", expr)
	}
}

func TestCriteriaMatch(t *testing.T) {
	doc := loadFamily(t)
	john := mustLookup(t, doc, "@I1@")

	ok, err := doc.CriteriaMatch(john, "surname=doe:birth=1970")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = doc.CriteriaMatch(mustLookup(t, doc, "@F1@"), "surname=doe")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = doc.CriteriaMatch(john, "shoe=9")
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestParseCriteria_TrimsValues(t *testing.T) {
	doc := loadFamily(t)
	padded, err := ParseCriteria("surname= doe :birth_range= 1900 - 1980 ")
	require.NoError(t, err)
	plain, err := ParseCriteria("surname=doe:birth_range=1900-1980")
	require.NoError(t, err)
	assert.Equal(t, pointers(doc.Filter(plain)), pointers(doc.Filter(padded)))
	assert.NotEmpty(t, doc.Filter(padded))
}
