package gedcom

import (
	"fmt"
	"unicode/utf8"
)

// ParseError reports a line that does not follow the GEDCOM line grammar.
type ParseError struct {
	Line   int
	Text   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s: %q", e.Line, e.Reason, truncate(e.Text, 80))
}

// StructureError reports an illegal level jump or misplaced record.
type StructureError struct {
	Line      int
	Level     int
	PrevLevel int
	Reason    string
}

func (e *StructureError) Error() string {
	return fmt.Sprintf("line %d: %s (level %d after level %d)", e.Line, e.Reason, e.Level, e.PrevLevel)
}

// DuplicateReferenceError reports a record pointer defined twice.
type DuplicateReferenceError struct {
	Pointer   string
	Line      int
	FirstLine int
}

func (e *DuplicateReferenceError) Error() string {
	return fmt.Sprintf("line %d: pointer %s already defined on line %d", e.Line, e.Pointer, e.FirstLine)
}

// DataError reports content that cannot serve the requested operation:
// a missing required reference, a record of the wrong kind, or a cycle.
type DataError struct {
	Pointer string
	Reason  string
}

func (e *DataError) Error() string {
	if e.Pointer == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Pointer, e.Reason)
}

// ValidationError reports a malformed criteria expression.
type ValidationError struct {
	Criterion string
	Reason    string
}

func (e *ValidationError) Error() string {
	if e.Criterion == "" {
		return "invalid criteria: " + e.Reason
	}
	return fmt.Sprintf("invalid criterion %q: %s", e.Criterion, e.Reason)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
