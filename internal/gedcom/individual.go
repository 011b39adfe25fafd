package gedcom

import (
	"strconv"
	"strings"
)

// Event is the date, place and source citations of a BIRT, DEAT, BURI or
// CENS sub-record.
type Event struct {
	Date    string   `json:"date,omitempty"`
	Place   string   `json:"place,omitempty"`
	Sources []string `json:"sources,omitempty"`
}

func (e *Element) IsIndividual() bool { return e.tag == TagIndividual }
func (e *Element) IsFamily() bool     { return e.tag == TagFamily }
func (e *Element) IsFile() bool       { return e.tag == TagFile }
func (e *Element) IsObject() bool     { return e.tag == TagObject }

// IsChild reports whether an individual is listed as a child of any family.
func (e *Element) IsChild() bool {
	return e.IsIndividual() && e.Child(TagFamilyChild) != nil
}

// IsPrivate reports whether an individual is flagged private, either with
// the PRIV Y flag or a RESN privacy restriction.
func (e *Element) IsPrivate() bool {
	if !e.IsIndividual() {
		return false
	}
	for _, c := range e.children {
		switch {
		case c.tag == TagPrivate && strings.EqualFold(c.value, "Y"):
			return true
		case c.tag == TagRestriction && strings.EqualFold(c.value, "privacy"):
			return true
		}
	}
	return false
}

// IsDeceased reports whether an individual has a death record.
func (e *Element) IsDeceased() bool {
	return e.IsIndividual() && e.Child(TagDeath) != nil
}

// Name returns the given name and surname from the first NAME record.
// "John /Doe/" yields ("John", "Doe"); a NAME with an empty value falls
// back to its GIVN and SURN sub-records.
func (e *Element) Name() (given, surname string) {
	if !e.IsIndividual() {
		return "", ""
	}
	name := e.Child(TagName)
	if name == nil {
		return "", ""
	}
	if name.value == "" {
		return name.ChildValue(TagGivenName), name.ChildValue(TagSurname)
	}
	parts := strings.Split(name.value, "/")
	given = strings.TrimSpace(parts[0])
	if len(parts) > 1 {
		surname = strings.TrimSpace(parts[1])
	}
	return given, surname
}

// FullName joins the given name and surname with a space.
func (e *Element) FullName() string {
	given, surname := e.Name()
	return strings.TrimSpace(given + " " + surname)
}

func (e *Element) Gender() string {
	if !e.IsIndividual() {
		return ""
	}
	return e.ChildValue(TagSex)
}

func (e *Element) Occupation() string {
	if !e.IsIndividual() {
		return ""
	}
	return e.ChildValue(TagOccupation)
}

// LastChangeDate returns the CHAN/DATE value of a record.
func (e *Element) LastChangeDate() string {
	if c := e.Child(TagChange); c != nil {
		return c.ChildValue(TagDate)
	}
	return ""
}

func (e *Element) BirthData() Event { return e.event(TagBirth) }
func (e *Element) DeathData() Event { return e.event(TagDeath) }
func (e *Element) Burial() Event    { return e.event(TagBurial) }

// Census returns every census event in file order.
func (e *Element) Census() []Event {
	if !e.IsIndividual() {
		return nil
	}
	var out []Event
	for _, c := range e.ChildrenByTag(TagCensus) {
		out = append(out, eventFrom(c))
	}
	return out
}

func (e *Element) event(tag string) Event {
	if !e.IsIndividual() {
		return Event{}
	}
	if c := e.Child(tag); c != nil {
		return eventFrom(c)
	}
	return Event{}
}

func eventFrom(ev *Element) Event {
	out := Event{
		Date:  ev.ChildValue(TagDate),
		Place: ev.ChildValue(TagPlace),
	}
	for _, s := range ev.ChildrenByTag(TagSource) {
		out.Sources = append(out.Sources, s.value)
	}
	return out
}

// BirthYear returns the year of the birth date. ok is false when the date
// is missing or its year cannot be read.
func (e *Element) BirthYear() (year int, ok bool) {
	return ParseYear(e.BirthData().Date)
}

// DeathYear is BirthYear for the death date.
func (e *Element) DeathYear() (year int, ok bool) {
	return ParseYear(e.DeathData().Date)
}

// ParseYear reads the year from a GEDCOM date: the last whitespace
// separated token, which must be all digits. "15 JUN 1970" and
// "ABT 1850" parse; "1750/51" and "" do not.
func ParseYear(date string) (int, bool) {
	fields := strings.Fields(date)
	if len(fields) == 0 {
		return 0, false
	}
	last := fields[len(fields)-1]
	for _, r := range last {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	year, err := strconv.Atoi(last)
	if err != nil {
		return 0, false
	}
	return year, true
}

// SurnameMatch reports whether text occurs in the surname, ignoring case.
func (e *Element) SurnameMatch(text string) bool {
	_, surname := e.Name()
	return containsFold(surname, text)
}

// GivenMatch reports whether text occurs in the given name, ignoring case.
func (e *Element) GivenMatch(text string) bool {
	given, _ := e.Name()
	return containsFold(given, text)
}

func (e *Element) BirthYearMatch(year int) bool {
	y, ok := e.BirthYear()
	return ok && y == year
}

// BirthRangeMatch reports whether the birth year lies in [from, to].
func (e *Element) BirthRangeMatch(from, to int) bool {
	y, ok := e.BirthYear()
	return ok && from <= y && y <= to
}

func (e *Element) DeathYearMatch(year int) bool {
	y, ok := e.DeathYear()
	return ok && y == year
}

// DeathRangeMatch reports whether the death year lies in [from, to].
func (e *Element) DeathRangeMatch(from, to int) bool {
	y, ok := e.DeathYear()
	return ok && from <= y && y <= to
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
