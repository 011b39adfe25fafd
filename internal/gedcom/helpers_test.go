package gedcom

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func loadFamily(t *testing.T) *Document {
	t.Helper()
	doc, err := ParseFile("testdata/family.ged")
	require.NoError(t, err)
	return doc
}

func parseString(t *testing.T, s string, opts ...Option) *Document {
	t.Helper()
	doc, err := Parse(strings.NewReader(s), opts...)
	require.NoError(t, err)
	return doc
}

func mustLookup(t *testing.T, d *Document, ptr string) *Element {
	t.Helper()
	e, ok := d.Lookup(ptr)
	require.True(t, ok, "no record %s", ptr)
	return e
}

func pointers(elems []*Element) []string {
	out := make([]string, len(elems))
	for i, e := range elems {
		out[i] = e.Pointer()
	}
	return out
}
