package graph

import "strings"

// GedcomX is the subset of a GEDCOM X JSON document read by the importer.
type GedcomX struct {
	Persons       []GedcomXPerson       `json:"persons"`
	Relationships []GedcomXRelationship `json:"relationships"`
}

type GedcomXPerson struct {
	ID      string          `json:"id"`
	Names   []GedcomXName   `json:"names"`
	Display *GedcomXDisplay `json:"display"`
	Facts   []GedcomXFact   `json:"facts"`
}

type GedcomXName struct {
	NameForms []GedcomXNameForm `json:"nameForms"`
}

type GedcomXNameForm struct {
	FullText string `json:"fullText"`
}

type GedcomXDisplay struct {
	Name string `json:"name"`
}

type GedcomXFact struct {
	Type string       `json:"type"`
	Date *GedcomXDate `json:"date"`
}

type GedcomXDate struct {
	Original string `json:"original"`
}

type GedcomXRelationship struct {
	Type    string           `json:"type"`
	Person1 *GedcomXResource `json:"person1"`
	Person2 *GedcomXResource `json:"person2"`
}

// GedcomXResource is a reference such as {"resource": "#I1"}.
type GedcomXResource struct {
	Resource string `json:"resource"`
}

const gedcomXBirth = "http://gedcomx.org/Birth"

// ref returns the person id a resource points at, without the leading '#'.
func (r *GedcomXResource) ref() string {
	if r == nil {
		return ""
	}
	return strings.TrimPrefix(r.Resource, "#")
}

// name prefers the first name form's full text, then the display name.
func (p GedcomXPerson) name() string {
	if len(p.Names) > 0 && len(p.Names[0].NameForms) > 0 {
		if full := p.Names[0].NameForms[0].FullText; full != "" {
			return full
		}
	}
	if p.Display != nil {
		return p.Display.Name
	}
	return ""
}

func (p GedcomXPerson) birth() *string {
	for _, f := range p.Facts {
		if f.Type == gedcomXBirth && f.Date != nil && f.Date.Original != "" {
			date := f.Date.Original
			return &date
		}
	}
	return nil
}

// Tree converts the document. Persons without an id and relationships
// missing either side are skipped; relationship types are mapped with
// TypeForGedcomX.
func (g GedcomX) Tree() Tree {
	t := Tree{Persons: []Person{}, Relationships: []Relationship{}}
	for _, p := range g.Persons {
		if p.ID == "" {
			continue
		}
		t.Persons = append(t.Persons, Person{ID: p.ID, Name: p.name(), Birth: p.birth()})
	}
	for _, r := range g.Relationships {
		start, end := r.Person1.ref(), r.Person2.ref()
		if start == "" || end == "" {
			continue
		}
		t.Relationships = append(t.Relationships, Relationship{StartID: start, EndID: end, Type: TypeForGedcomX(r.Type)})
	}
	return t
}
