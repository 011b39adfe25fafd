package gedcom

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// level [pointer] tag [value]
var lineRE = regexp.MustCompile(`^(0|[1-9][0-9]*) (?:(@[^@]+@) )?([A-Za-z0-9_]+)(?: (.*))?$`)

// Line is one logical GEDCOM line.
type Line struct {
	Number  int
	Level   int
	Pointer string
	Tag     string
	Value   string

	// Continuation is set on CONT lines synthesized in lenient mode from
	// raw text that carried no level or tag.
	Continuation bool
}

// Reader splits a GEDCOM stream into Lines.
//
// In lenient mode the reader applies these rules, in order:
//   - spaces and tabs before the level number are ignored;
//   - blank lines are skipped;
//   - a line that does not match the grammar, or whose level jumps more
//     than one deeper than the previous line while its tag is not a known
//     GEDCOM tag, is raw text. It becomes a CONT line holding the text
//     unchanged: a child of the previous line, or a sibling when the
//     previous line is itself CONC or CONT.
//
// Raw text becomes CONT rather than CONC, so the line break that separated
// it from the previous line survives in the assembled value. Tools that
// join such lines with CONC would instead run the two lines together.
type Reader struct {
	src      io.Reader
	settings settings

	sc        *bufio.Scanner
	number    int
	prevLevel int
	prevTag   string
	err       error
}

// NewReader returns a Reader over r. Input is consumed on the first call
// to Next.
func NewReader(r io.Reader, opts ...Option) *Reader {
	return &Reader{
		src:       r,
		settings:  newSettings(opts),
		prevLevel: -1,
	}
}

// Next returns the next line, or io.EOF once the input is exhausted.
func (r *Reader) Next() (Line, error) {
	if r.err != nil {
		return Line{}, r.err
	}
	if r.sc == nil {
		data, err := decodeInput(r.src, r.settings.charset)
		if err != nil {
			r.err = err
			return Line{}, err
		}
		r.sc = bufio.NewScanner(bytes.NewReader(data))
		r.sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		r.sc.Split(scanLines)
	}

	ln, err := r.next()
	if err != nil {
		r.err = err
	}
	return ln, err
}

func (r *Reader) next() (Line, error) {
	for r.sc.Scan() {
		r.number++
		raw := r.sc.Text()
		text := raw
		if !r.settings.strict {
			text = strings.TrimLeft(raw, " \t")
			if strings.TrimSpace(text) == "" {
				continue
			}
		}

		m := lineRE.FindStringSubmatch(text)
		if m == nil {
			if r.settings.strict {
				return Line{}, &ParseError{Line: r.number, Text: raw, Reason: "line does not match GEDCOM grammar"}
			}
			return r.continuation(raw)
		}

		level, err := strconv.Atoi(m[1])
		if err != nil {
			return Line{}, &ParseError{Line: r.number, Text: raw, Reason: "level out of range"}
		}
		if !r.settings.strict && level > r.prevLevel+1 && !IsKnownTag(m[3]) {
			return r.continuation(raw)
		}

		r.prevLevel, r.prevTag = level, m[3]
		return Line{
			Number:  r.number,
			Level:   level,
			Pointer: m[2],
			Tag:     m[3],
			Value:   m[4],
		}, nil
	}
	if err := r.sc.Err(); err != nil {
		return Line{}, fmt.Errorf("line %d: %w", r.number+1, err)
	}
	return Line{}, io.EOF
}

func (r *Reader) continuation(raw string) (Line, error) {
	if r.prevLevel < 0 {
		return Line{}, &ParseError{Line: r.number, Text: raw, Reason: "text before the first record"}
	}
	level := r.prevLevel + 1
	if r.prevTag == TagConcatenation || r.prevTag == TagContinued {
		level = r.prevLevel
	}
	r.prevLevel, r.prevTag = level, TagContinued
	return Line{
		Number:       r.number,
		Level:        level,
		Tag:          TagContinued,
		Value:        raw,
		Continuation: true,
	}, nil
}

// scanLines is a bufio.SplitFunc that ends lines at CR, LF or CRLF and
// accepts a last line with no terminator.
func scanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\n' {
			return i + 1, data[:i], nil
		}
		if i+1 < len(data) {
			if data[i+1] == '\n' {
				return i + 2, data[:i], nil
			}
			return i + 1, data[:i], nil
		}
		if !atEOF {
			// Need one more byte to tell CR from CRLF.
			return 0, nil, nil
		}
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
