package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/gedgraph/internal/gedcom"
)

func TestFamilyGroupSheet(t *testing.T) {
	doc, err := gedcom.ParseFile("../gedcom/testdata/family.ged")
	require.NoError(t, err)
	john, ok := doc.Lookup("@I1@")
	require.True(t, ok)

	sheet, err := FamilyGroupSheet(doc, john)
	require.NoError(t, err)

	assert.Equal(t, "@I1@", sheet.Pointer)
	assert.Equal(t, "John Doe (b. 1970) @I1@", sheet.Title)
	for _, want := range []string{
		"# John Doe (b. 1970) @I1@\n",
		"| Birth | 15 JUN 1970 | Springfield |\n",
		"- Sex: M\n",
		"- Occupation: Carpenter\n",
		"## Parents\n\n- Robert Doe (b. 1940) @I4@\n- Mary Jones @I5@\n",
		"## Family @F1@\n",
		"- Spouse: Jane Smith (b. 1972) @I2@\n",
		"- Married: 10 MAY 1993 in Springfield\n",
		"1. Alice Doe (b. 1995) @I3@\n",
	} {
		assert.Contains(t, sheet.Markdown, want)
	}
	assert.NotContains(t, sheet.Markdown, "@I9@")

	assert.Contains(t, sheet.HTML, "<h1>John Doe (b. 1970) @I1@</h1>")
	assert.Contains(t, sheet.HTML, "<table>")
	assert.Contains(t, sheet.HTML, "<td>15 JUN 1970</td>")
	assert.Contains(t, sheet.HTML, "<li>Alice Doe (b. 1995) @I3@</li>")
}

func TestFamilyGroupSheet_NotIndividual(t *testing.T) {
	doc, err := gedcom.ParseFile("../gedcom/testdata/family.ged")
	require.NoError(t, err)
	fam, _ := doc.Lookup("@F1@")

	_, err = FamilyGroupSheet(doc, fam)
	var derr *gedcom.DataError
	assert.ErrorAs(t, err, &derr)

	_, err = FamilyGroupSheet(doc, nil)
	assert.ErrorAs(t, err, &derr)
}

const notesGED = `0 @I1@ INDI
1 NAME Ann /Lee/
1 NOTE <p>Born at <b>Mill Farm</b></p><p>Weaver</p>
1 NOTE @N1@
1 NOTE
0 @N1@ NOTE Emigrated in 1880
1 CONT to *Ohio*
0 TRLR
`

func TestNotes(t *testing.T) {
	doc, err := gedcom.Parse(strings.NewReader(notesGED))
	require.NoError(t, err)
	ann, _ := doc.Lookup("@I1@")

	assert.Equal(t, []string{"Born at Mill Farm\nWeaver", "Emigrated in 1880\nto *Ohio*"}, Notes(doc, ann))

	sheet, err := FamilyGroupSheet(doc, ann)
	require.NoError(t, err)
	assert.Contains(t, sheet.Markdown, "## Notes\n\nBorn at Mill Farm\nWeaver\n\n")
	assert.Contains(t, sheet.Markdown, `to \*Ohio\*`)
	assert.NotContains(t, sheet.HTML, "<em>")
	assert.NotContains(t, sheet.HTML, "<b>")
}

func TestPlainText(t *testing.T) {
	for in, want := range map[string]string{
		"plain text":                           "plain text",
		"  padded  ":                           "padded",
		"line one<br>line two":                 "line one\nline two",
		"<div>a</div><div>b</div>":             "a\nb",
		"<p>x</p><script>alert(1)</script>":    "x",
		"a < b":                                "a < b",
		"<ul><li>one</li><li>two</li></ul>":    "one\ntwo",
		"<span style=\"color:red\">red</span>": "red",
	} {
		assert.Equal(t, want, PlainText(in), "input %q", in)
	}
}
