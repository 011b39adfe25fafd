package gedcom

import (
	"bufio"
	"io"
)

// Encoder writes documents back out as GEDCOM lines.
type Encoder struct {
	w       *bufio.Writer
	newline string
}

// NewEncoder returns an Encoder writing "\n" terminated lines to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: bufio.NewWriter(w), newline: "\n"}
}

// SetLineEnding changes the line terminator, e.g. to "\r\n".
func (enc *Encoder) SetLineEnding(nl string) {
	enc.newline = nl
}

// Encode writes every record of d in file order.
func (enc *Encoder) Encode(d *Document) error {
	for _, r := range d.roots {
		enc.element(r)
	}
	return enc.w.Flush()
}

// EncodeElement writes e and its sub-records.
func (enc *Encoder) EncodeElement(e *Element) error {
	enc.element(e)
	return enc.w.Flush()
}

func (enc *Encoder) element(e *Element) {
	enc.w.WriteString(e.String())
	enc.w.WriteString(enc.newline)
	for _, c := range e.children {
		enc.element(c)
	}
}

// WriteTo implements io.WriterTo.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	err := NewEncoder(cw).Encode(d)
	return cw.n, err
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
