// Package report renders a family group sheet for one individual.
package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/dgallion1/gedgraph/internal/gedcom"
)

var md = goldmark.New(goldmark.WithExtensions(extension.Table))

// Sheet is a rendered family group sheet.
type Sheet struct {
	Pointer  string `json:"pointer"`
	Title    string `json:"title"`
	Markdown string `json:"markdown"`
	HTML     string `json:"html"`
}

// FamilyGroupSheet describes indi, their parents, and each family where
// they are a spouse with the marriage and children.
func FamilyGroupSheet(doc *gedcom.Document, indi *gedcom.Element) (*Sheet, error) {
	if indi == nil || !indi.IsIndividual() {
		return nil, &gedcom.DataError{Reason: "family group sheet needs an INDI record"}
	}

	var b strings.Builder
	title := displayName(indi)
	fmt.Fprintf(&b, "# %s\n\n", escape(title))

	b.WriteString("| Event | Date | Place |\n|---|---|---|\n")
	for _, ev := range []struct {
		label string
		data  gedcom.Event
	}{
		{"Birth", indi.BirthData()},
		{"Death", indi.DeathData()},
		{"Burial", indi.Burial()},
	} {
		if ev.data.Date == "" && ev.data.Place == "" {
			continue
		}
		fmt.Fprintf(&b, "| %s | %s | %s |\n", ev.label, escape(ev.data.Date), escape(ev.data.Place))
	}
	for _, c := range indi.Census() {
		fmt.Fprintf(&b, "| Census | %s | %s |\n", escape(c.Date), escape(c.Place))
	}
	b.WriteByte('\n')

	if sex := indi.Gender(); sex != "" {
		fmt.Fprintf(&b, "- Sex: %s\n", escape(sex))
	}
	if occ := indi.Occupation(); occ != "" {
		fmt.Fprintf(&b, "- Occupation: %s\n", escape(occ))
	}
	b.WriteByte('\n')

	parents, err := doc.Parents(indi, gedcom.ParentsAll)
	if err != nil {
		return nil, err
	}
	if len(parents) > 0 {
		b.WriteString("## Parents\n\n")
		for _, p := range parents {
			fmt.Fprintf(&b, "- %s\n", escape(displayName(p)))
		}
		b.WriteByte('\n')
	}

	families, err := doc.Families(indi, gedcom.SpouseFamilies)
	if err != nil {
		return nil, err
	}
	for _, fam := range families {
		fmt.Fprintf(&b, "## Family %s\n\n", escape(fam.Pointer()))
		parentsOf, _ := doc.FamilyMembers(fam, gedcom.MembersParents)
		for _, sp := range parentsOf {
			if sp != indi {
				fmt.Fprintf(&b, "- Spouse: %s\n", escape(displayName(sp)))
			}
		}
		for _, marr := range fam.ChildrenByTag(gedcom.TagMarriage) {
			ev := marriage(marr)
			fmt.Fprintf(&b, "- Married: %s\n", escape(strings.TrimSpace(ev.Date+" "+placeSuffix(ev.Place))))
		}
		children, _ := doc.FamilyMembers(fam, gedcom.MembersChildren)
		if len(children) > 0 {
			b.WriteString("\n### Children\n\n")
			for i, c := range children {
				fmt.Fprintf(&b, "%d. %s\n", i+1, escape(displayName(c)))
			}
		}
		b.WriteByte('\n')
	}

	if notes := Notes(doc, indi); len(notes) > 0 {
		b.WriteString("## Notes\n\n")
		for _, n := range notes {
			b.WriteString(escape(n))
			b.WriteString("\n\n")
		}
	}

	out := &Sheet{Pointer: indi.Pointer(), Title: title, Markdown: b.String()}
	var buf bytes.Buffer
	if err := md.Convert([]byte(out.Markdown), &buf); err != nil {
		return nil, fmt.Errorf("render sheet: %w", err)
	}
	out.HTML = buf.String()
	return out, nil
}

// Notes returns the plain text of indi's NOTE lines. Pointer notes are
// resolved; markup embedded by desktop applications is stripped.
func Notes(doc *gedcom.Document, indi *gedcom.Element) []string {
	var out []string
	for _, n := range indi.ChildrenByTag(gedcom.TagNote) {
		text := n.Text()
		if rec, ok := doc.Lookup(n.Value()); ok && rec.Tag() == gedcom.TagNote {
			text = rec.Text()
		}
		if text = PlainText(text); text != "" {
			out = append(out, text)
		}
	}
	return out
}

func displayName(e *gedcom.Element) string {
	name := e.FullName()
	if name == "" {
		name = "(unnamed)"
	}
	if y, ok := e.BirthYear(); ok {
		name += fmt.Sprintf(" (b. %d)", y)
	}
	return name + " " + e.Pointer()
}

func marriage(e *gedcom.Element) gedcom.Event {
	return gedcom.Event{Date: e.ChildValue(gedcom.TagDate), Place: e.ChildValue(gedcom.TagPlace)}
}

func placeSuffix(place string) string {
	if place == "" {
		return ""
	}
	return "in " + place
}

var escaper = strings.NewReplacer(
	`\`, `\\`, "|", `\|`, "*", `\*`, "_", `\_`, "`", "\\`",
	"[", `\[`, "]", `\]`, "<", "&lt;", ">", "&gt;", "#", `\#`,
)

func escape(s string) string {
	return escaper.Replace(s)
}
