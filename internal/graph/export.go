package graph

import (
	"strings"

	"github.com/dgallion1/gedgraph/internal/gedcom"
)

// ExportOption configures FromDocument.
type ExportOption func(*exportSettings)

type exportSettings struct {
	skipPrivate bool
	idPrefix    string
}

// SkipPrivate drops individuals flagged private, and every edge touching
// them.
func SkipPrivate() ExportOption {
	return func(s *exportSettings) { s.skipPrivate = true }
}

// WithIDPrefix namespaces person ids as prefix + ":" + id so trees from
// several files can share one store.
func WithIDPrefix(prefix string) ExportOption {
	return func(s *exportSettings) { s.idPrefix = prefix }
}

// PersonID turns a record pointer such as "@I1@" into a person id.
func PersonID(pointer string) string {
	return strings.Trim(pointer, "@")
}

// FromDocument maps a parsed GEDCOM document to a Tree: one Person per INDI
// record with a pointer, a MARRIED edge from husband to wife for each family, and a
// PARENT_OF edge from each parent to each child. Links to missing records
// are skipped.
func FromDocument(doc *gedcom.Document, opts ...ExportOption) Tree {
	var s exportSettings
	for _, opt := range opts {
		opt(&s)
	}
	id := func(e *gedcom.Element) string {
		if s.idPrefix == "" {
			return PersonID(e.Pointer())
		}
		return s.idPrefix + ":" + PersonID(e.Pointer())
	}
	keep := func(e *gedcom.Element) bool {
		return !(s.skipPrivate && e.IsPrivate())
	}

	t := Tree{Persons: []Person{}, Relationships: []Relationship{}}
	for _, indi := range doc.Individuals() {
		if indi.Pointer() == "" || !keep(indi) {
			continue
		}
		p := Person{ID: id(indi), Name: indi.FullName()}
		if date := indi.BirthData().Date; date != "" {
			p.Birth = &date
		}
		t.Persons = append(t.Persons, p)
	}

	for _, fam := range doc.FamilyRecords() {
		husbands, _ := doc.FamilyMembers(fam, gedcom.MembersHusband)
		wives, _ := doc.FamilyMembers(fam, gedcom.MembersWife)
		children, _ := doc.FamilyMembers(fam, gedcom.MembersChildren)

		for _, h := range husbands {
			for _, w := range wives {
				if keep(h) && keep(w) {
					t.Relationships = append(t.Relationships, Relationship{StartID: id(h), EndID: id(w), Type: Married})
				}
			}
		}
		for _, parent := range append(husbands, wives...) {
			for _, c := range children {
				if keep(parent) && keep(c) {
					t.Relationships = append(t.Relationships, Relationship{StartID: id(parent), EndID: id(c), Type: ParentOf})
				}
			}
		}
	}
	return t
}

// ValidTreeID reports whether id can be used with WithIDPrefix: one or
// more letters, digits, '-' or '_'.
func ValidTreeID(id string) bool {
	if id == "" {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}
