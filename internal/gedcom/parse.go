package gedcom

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Option configures Parse and NewReader.
type Option func(*settings)

type settings struct {
	strict  bool
	charset string
}

func newSettings(opts []Option) settings {
	s := settings{strict: true, charset: CharsetAuto}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// WithStrict toggles strict parsing. Strict is the default; false enables
// the lenient rules documented on Reader.
func WithStrict(strict bool) Option {
	return func(s *settings) { s.strict = strict }
}

// WithCharset selects the input decoding: "auto" (default), "utf-8" or
// "ansi" (Windows-1252).
func WithCharset(name string) Option {
	return func(s *settings) { s.charset = name }
}

// SupportedExtensions lists file extensions treated as GEDCOM.
var SupportedExtensions = map[string]bool{
	".ged":    true,
	".gedcom": true,
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	return SupportedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// ParseFile opens and parses the GEDCOM file at path.
func ParseFile(path string, opts ...Option) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, err := Parse(f, opts...)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return doc, nil
}

// Parse builds a Document from a GEDCOM stream. Any error aborts the build;
// no partial document is returned.
func Parse(r io.Reader, opts ...Option) (*Document, error) {
	lr := NewReader(r, opts...)
	doc := &Document{index: make(map[string]*Element)}

	// stack[L] is the most recent element at level L.
	var stack []*Element
	for {
		ln, err := lr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		prev := len(stack) - 1
		if ln.Level > prev+1 {
			return nil, &StructureError{
				Line:      ln.Number,
				Level:     ln.Level,
				PrevLevel: prev,
				Reason:    "level jumps more than one deeper than the previous line",
			}
		}
		stack = stack[:ln.Level]

		e := &Element{
			level:   ln.Level,
			pointer: ln.Pointer,
			tag:     ln.Tag,
			value:   ln.Value,
			line:    ln.Number,
			text:    ln.Value,
		}

		if ln.Level == 0 {
			if e.tag == TagConcatenation || e.tag == TagContinued {
				return nil, &StructureError{Line: ln.Number, Level: 0, PrevLevel: prev, Reason: e.tag + " cannot start a record"}
			}
			if e.pointer != "" {
				if first, dup := doc.index[e.pointer]; dup {
					return nil, &DuplicateReferenceError{Pointer: e.pointer, Line: ln.Number, FirstLine: first.line}
				}
				doc.index[e.pointer] = e
			}
			doc.roots = append(doc.roots, e)
		} else {
			parent := stack[ln.Level-1]
			e.parent = parent
			parent.children = append(parent.children, e)
			switch e.tag {
			case TagConcatenation:
				parent.text += e.value
			case TagContinued:
				parent.text += "\n" + e.value
			}
		}

		stack = append(stack, e)
		doc.count++
	}
	return doc, nil
}
