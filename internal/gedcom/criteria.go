package gedcom

import (
	"strconv"
	"strings"
)

// Criteria is a parsed criteria expression such as
// "surname=doe:birth_range=1900-1950". All terms must match.
type Criteria struct {
	terms []term
}

type term struct {
	raw   string
	match func(d *Document, e *Element) bool
}

// String returns the expression the criteria were parsed from.
func (c Criteria) String() string {
	parts := make([]string, len(c.terms))
	for i, t := range c.terms {
		parts[i] = t.raw
	}
	return strings.Join(parts, ":")
}

// ParseCriteria parses a colon separated list of key=value terms.
//
//	surname=TEXT            TEXT occurs in the surname (case-insensitive)
//	name=TEXT               TEXT occurs in the given name
//	birth=YEAR              born in YEAR
//	birth_range=FROM-TO     born in [FROM, TO]
//	death=YEAR, death_range=FROM-TO
//	marriage=YEAR, marriage_range=FROM-TO
//
// Unknown keys and malformed values are a *ValidationError.
func ParseCriteria(spec string) (Criteria, error) {
	if strings.TrimSpace(spec) == "" {
		return Criteria{}, &ValidationError{Reason: "empty expression"}
	}

	var c Criteria
	for _, raw := range strings.Split(spec, ":") {
		key, value, ok := strings.Cut(raw, "=")
		if !ok {
			return Criteria{}, &ValidationError{Criterion: raw, Reason: "expected key=value"}
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if value == "" {
			return Criteria{}, &ValidationError{Criterion: raw, Reason: "empty value"}
		}

		t := term{raw: raw}
		switch key {
		case "surname":
			t.match = func(_ *Document, e *Element) bool { return e.SurnameMatch(value) }
		case "name":
			t.match = func(_ *Document, e *Element) bool { return e.GivenMatch(value) }
		case "birth", "death", "marriage":
			year, err := parseCriteriaYear(raw, value)
			if err != nil {
				return Criteria{}, err
			}
			t.match = yearMatcher(key, year, year)
		case "birth_range", "death_range", "marriage_range":
			from, to, err := parseCriteriaRange(raw, value)
			if err != nil {
				return Criteria{}, err
			}
			t.match = yearMatcher(strings.TrimSuffix(key, "_range"), from, to)
		default:
			return Criteria{}, &ValidationError{Criterion: raw, Reason: "unknown key " + strconv.Quote(key)}
		}
		c.terms = append(c.terms, t)
	}
	return c, nil
}

func yearMatcher(field string, from, to int) func(*Document, *Element) bool {
	switch field {
	case "birth":
		return func(_ *Document, e *Element) bool { return e.BirthRangeMatch(from, to) }
	case "death":
		return func(_ *Document, e *Element) bool { return e.DeathRangeMatch(from, to) }
	}
	return func(d *Document, e *Element) bool { return d.MarriageRangeMatch(e, from, to) }
}

func parseCriteriaYear(raw, value string) (int, error) {
	year, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, &ValidationError{Criterion: raw, Reason: "year must be an integer"}
	}
	return year, nil
}

func parseCriteriaRange(raw, value string) (int, int, error) {
	lo, hi, ok := strings.Cut(value, "-")
	if !ok {
		return 0, 0, &ValidationError{Criterion: raw, Reason: "range must be FROM-TO"}
	}
	from, err := parseCriteriaYear(raw, lo)
	if err != nil {
		return 0, 0, err
	}
	to, err := parseCriteriaYear(raw, hi)
	if err != nil {
		return 0, 0, err
	}
	if from > to {
		return 0, 0, &ValidationError{Criterion: raw, Reason: "range start is after range end"}
	}
	return from, to, nil
}

// Match reports whether an individual satisfies every term. Non-INDI
// elements never match.
func (c Criteria) Match(d *Document, e *Element) bool {
	if !e.IsIndividual() {
		return false
	}
	for _, t := range c.terms {
		if !t.match(d, e) {
			return false
		}
	}
	return true
}

// CriteriaMatch parses spec and matches it against indi.
func (d *Document) CriteriaMatch(indi *Element, spec string) (bool, error) {
	c, err := ParseCriteria(spec)
	if err != nil {
		return false, err
	}
	return c.Match(d, indi), nil
}

// Filter returns the individuals matching c in file order.
func (d *Document) Filter(c Criteria) []*Element {
	var out []*Element
	for _, indi := range d.Individuals() {
		if c.Match(d, indi) {
			out = append(out, indi)
		}
	}
	return out
}
