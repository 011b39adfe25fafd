package graph

import (
	"strings"
	"unicode"
)

// Relationship types produced by the GEDCOM export and GEDCOM X import.
const (
	ParentOf  = "PARENT_OF"
	Married   = "MARRIED"
	RelatedTo = "RELATED_TO"
)

// GEDCOM X relationship type URIs.
const (
	GedcomXCouple      = "http://gedcomx.org/Couple"
	GedcomXParentChild = "http://gedcomx.org/ParentChild"
)

var gedcomXTypes = map[string]string{
	GedcomXCouple:      Married,
	GedcomXParentChild: ParentOf,
}

// TypeForGedcomX maps a GEDCOM X relationship type URI to a graph type.
// Unknown URIs map to RelatedTo.
func TypeForGedcomX(uri string) string {
	if t, ok := gedcomXTypes[uri]; ok {
		return t
	}
	return RelatedTo
}

// ValidRelType reports whether t, upper-cased, is usable as a Cypher
// relationship type: a letter or underscore followed by letters, digits
// or underscores.
func ValidRelType(t string) bool {
	t = strings.ToUpper(strings.TrimSpace(t))
	if t == "" {
		return false
	}
	for i, r := range t {
		switch {
		case r == '_', unicode.IsLetter(r):
		case i > 0 && unicode.IsDigit(r):
		default:
			return false
		}
	}
	return true
}
