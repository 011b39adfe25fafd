package gedcom

import (
	"slices"
	"strconv"
	"strings"
)

// Element is one GEDCOM line together with its sub-records.
//
// Elements are created by the builder and never modified afterwards, so a
// parsed Document can be read from many goroutines at once.
type Element struct {
	level   int
	pointer string
	tag     string
	value   string
	line    int

	// text is value with CONC/CONT children folded in.
	text string

	parent   *Element
	children []*Element
}

func (e *Element) Level() int       { return e.level }
func (e *Element) Pointer() string  { return e.pointer }
func (e *Element) Tag() string      { return e.tag }
func (e *Element) Value() string    { return e.value }
func (e *Element) Line() int        { return e.line }
func (e *Element) Parent() *Element { return e.parent }
func (e *Element) Kind() RecordKind { return kindOf(e.tag) }

// Text returns the value including any CONC and CONT continuations.
func (e *Element) Text() string { return e.text }

// Children returns a copy of the sub-records in file order.
func (e *Element) Children() []*Element {
	return slices.Clone(e.children)
}

// Child returns the first sub-record with the given tag, or nil.
func (e *Element) Child(tag string) *Element {
	for _, c := range e.children {
		if c.tag == tag {
			return c
		}
	}
	return nil
}

// ChildrenByTag returns all sub-records with the given tag in file order.
func (e *Element) ChildrenByTag(tag string) []*Element {
	var out []*Element
	for _, c := range e.children {
		if c.tag == tag {
			out = append(out, c)
		}
	}
	return out
}

// ChildValue returns the value of the first sub-record with tag, or "".
func (e *Element) ChildValue(tag string) string {
	if c := e.Child(tag); c != nil {
		return c.value
	}
	return ""
}

// String formats the element as its GEDCOM line without a terminator.
func (e *Element) String() string {
	var sb strings.Builder
	sb.WriteString(strconv.Itoa(e.level))
	if e.pointer != "" {
		sb.WriteByte(' ')
		sb.WriteString(e.pointer)
	}
	sb.WriteByte(' ')
	sb.WriteString(e.tag)
	if e.value != "" {
		sb.WriteByte(' ')
		sb.WriteString(e.value)
	}
	return sb.String()
}

// Document is a parsed GEDCOM file: its top-level records and an index of
// record pointers.
type Document struct {
	roots []*Element
	index map[string]*Element
	count int
}

// Records returns the top-level records in file order.
func (d *Document) Records() []*Element {
	return slices.Clone(d.roots)
}

// Len returns the total number of elements in the document.
func (d *Document) Len() int { return d.count }

// Lookup resolves a record pointer such as "@I1@".
func (d *Document) Lookup(pointer string) (*Element, bool) {
	e, ok := d.index[pointer]
	return e, ok
}

// Resolve is Lookup for references the caller cannot do without.
func (d *Document) Resolve(pointer string) (*Element, error) {
	e, ok := d.index[pointer]
	if !ok {
		return nil, &DataError{Pointer: pointer, Reason: "no record with this pointer"}
	}
	return e, nil
}

// Individuals returns all INDI records in file order.
func (d *Document) Individuals() []*Element {
	return d.recordsOf(TagIndividual)
}

// FamilyRecords returns all FAM records in file order.
func (d *Document) FamilyRecords() []*Element {
	return d.recordsOf(TagFamily)
}

func (d *Document) recordsOf(tag string) []*Element {
	var out []*Element
	for _, r := range d.roots {
		if r.tag == tag {
			out = append(out, r)
		}
	}
	return out
}

// Walk visits every element depth-first in file order. Returning false
// from fn skips the element's children.
func (d *Document) Walk(fn func(*Element) bool) {
	var walk func([]*Element)
	walk = func(elems []*Element) {
		for _, e := range elems {
			if fn(e) {
				walk(e.children)
			}
		}
	}
	walk(d.roots)
}
