package gedcom

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestName(t *testing.T) {
	doc := loadFamily(t)
	for ptr, want := range map[string][2]string{
		"@I1@": {"John", "Doe"},
		"@I2@": {"Jane", "Smith"}, // first NAME wins
		"@I3@": {"Alice", "Doe"},  // GIVN/SURN fallback
	} {
		given, surname := mustLookup(t, doc, ptr).Name()
		assert.Equal(t, want[0], given, ptr)
		assert.Equal(t, want[1], surname, ptr)
	}
	assert.Equal(t, "John Doe", mustLookup(t, doc, "@I1@").FullName())
}

func TestName_NotAnIndividual(t *testing.T) {
	doc := loadFamily(t)
	given, surname := mustLookup(t, doc, "@F1@").Name()
	assert.Empty(t, given)
	assert.Empty(t, surname)
}

func TestName_GivenOnly(t *testing.T) {
	doc := parseString(t, "0 @I1@ INDI\n1 NAME Cher\n")
	given, surname := mustLookup(t, doc, "@I1@").Name()
	assert.Equal(t, "Cher", given)
	assert.Empty(t, surname)
}

func TestEvents(t *testing.T) {
	doc := loadFamily(t)
	john := mustLookup(t, doc, "@I1@")
	assert.Equal(t, Event{Date: "15 JUN 1970", Place: "Springfield", Sources: []string{"@S1@"}}, john.BirthData())
	assert.Equal(t, Event{}, john.DeathData())
	assert.Equal(t, "Carpenter", john.Occupation())
	assert.Equal(t, "M", john.Gender())

	robert := mustLookup(t, doc, "@I4@")
	assert.Equal(t, Event{Date: "12 DEC 2001", Place: "Shelbyville"}, robert.DeathData())

	mary := mustLookup(t, doc, "@I5@")
	assert.Equal(t, []Event{{Date: "1950", Place: "Ogdenville"}}, mary.Census())
}

func TestYears(t *testing.T) {
	doc := loadFamily(t)

	year, ok := mustLookup(t, doc, "@I1@").BirthYear()
	assert.True(t, ok)
	assert.Equal(t, 1970, year)

	year, ok = mustLookup(t, doc, "@I2@").BirthYear()
	assert.True(t, ok)
	assert.Equal(t, 1972, year)

	_, ok = mustLookup(t, doc, "@I5@").BirthYear()
	assert.False(t, ok)

	year, ok = mustLookup(t, doc, "@I4@").DeathYear()
	assert.True(t, ok)
	assert.Equal(t, 2001, year)
}

func TestParseYear(t *testing.T) {
	for date, want := range map[string]int{
		"15 JUN 1970": 1970,
		"ABT 1850":    1850,
		"1066":        1066,
	} {
		got, ok := ParseYear(date)
		assert.True(t, ok, date)
		assert.Equal(t, want, got, date)
	}
	for _, date := range []string{"", "   ", "1750/51", "JUN", "BEF 1900?"} {
		_, ok := ParseYear(date)
		assert.False(t, ok, date)
	}
}

func TestFlags(t *testing.T) {
	doc := loadFamily(t)
	assert.True(t, mustLookup(t, doc, "@I5@").IsPrivate())
	assert.False(t, mustLookup(t, doc, "@I1@").IsPrivate())
	assert.True(t, mustLookup(t, doc, "@I4@").IsDeceased())
	assert.False(t, mustLookup(t, doc, "@I1@").IsDeceased())
	assert.True(t, mustLookup(t, doc, "@I3@").IsChild())
	assert.False(t, mustLookup(t, doc, "@I4@").IsChild())

	restricted := parseString(t, "0 @I1@ INDI\n1 RESN privacy\n")
	assert.True(t, mustLookup(t, restricted, "@I1@").IsPrivate())
}

func TestMatchers(t *testing.T) {
	doc := loadFamily(t)
	john := mustLookup(t, doc, "@I1@")

	assert.True(t, john.SurnameMatch("doe"))
	assert.True(t, john.SurnameMatch("DO"))
	assert.False(t, john.SurnameMatch("smith"))
	assert.True(t, john.GivenMatch("jo"))

	assert.True(t, john.BirthYearMatch(1970))
	assert.False(t, john.BirthYearMatch(1971))
	assert.True(t, john.BirthRangeMatch(1970, 1970))
	assert.False(t, john.BirthRangeMatch(1971, 1980))
	assert.False(t, john.DeathRangeMatch(0, 3000))

	robert := mustLookup(t, doc, "@I4@")
	assert.True(t, robert.DeathYearMatch(2001))
	assert.True(t, robert.DeathRangeMatch(2000, 2010))
}

func TestLastChangeDate(t *testing.T) {
	doc := parseString(t, "0 @I1@ INDI\n1 CHAN\n2 DATE 1 JAN 2020\n")
	assert.Equal(t, "1 JAN 2020", mustLookup(t, doc, "@I1@").LastChangeDate())
}
