package gedcom

import (
	"fmt"
	"slices"
	"strings"
)

// FamilyType selects which family links of an individual to follow.
type FamilyType string

const (
	SpouseFamilies FamilyType = TagFamilySpouse
	ChildFamilies  FamilyType = TagFamilyChild
)

// MemberType selects a subset of a family's members.
type MemberType string

const (
	MembersAll      MemberType = "ALL"
	MembersParents  MemberType = "PARENTS"
	MembersHusband  MemberType = "HUSB"
	MembersWife     MemberType = "WIFE"
	MembersChildren MemberType = "CHIL"
)

// ParseMemberType accepts ALL, PARENTS, HUSB, WIFE or CHIL in any case;
// the empty string means ALL.
func ParseMemberType(s string) (MemberType, error) {
	switch mt := MemberType(strings.ToUpper(strings.TrimSpace(s))); mt {
	case "":
		return MembersAll, nil
	case MembersAll, MembersParents, MembersHusband, MembersWife, MembersChildren:
		return mt, nil
	}
	return "", &ValidationError{Criterion: s, Reason: "member type must be ALL, PARENTS, HUSB, WIFE or CHIL"}
}

// ParentType selects which parent links count when walking upwards.
type ParentType string

const (
	// ParentsAll follows every FAMC link.
	ParentsAll ParentType = "ALL"
	// ParentsNatural skips links marked as non-birth by PEDI on the FAMC
	// line or by _FREL/_MREL under the family's CHIL line. Files without
	// those tags are not filtered at all.
	ParentsNatural ParentType = "NAT"
)

// ParseParentType accepts ALL or NAT in any case; the empty string means ALL.
func ParseParentType(s string) (ParentType, error) {
	switch pt := ParentType(strings.ToUpper(strings.TrimSpace(s))); pt {
	case "":
		return ParentsAll, nil
	case ParentsAll, ParentsNatural:
		return pt, nil
	}
	return "", &ValidationError{Criterion: s, Reason: "parent type must be ALL or NAT"}
}

func requireTag(e *Element, tag string) error {
	if e == nil {
		return &DataError{Reason: fmt.Sprintf("expected %s record, got nil", tag)}
	}
	if e.tag != tag {
		return &DataError{Pointer: e.pointer, Reason: fmt.Sprintf("expected %s record, got %s", tag, e.tag)}
	}
	return nil
}

// Families returns the FAM records an individual links to through FAMS or
// FAMC lines. Links to missing records are skipped.
func (d *Document) Families(indi *Element, ft FamilyType) ([]*Element, error) {
	if err := requireTag(indi, TagIndividual); err != nil {
		return nil, err
	}
	return d.families(indi, ft), nil
}

func (d *Document) families(indi *Element, ft FamilyType) []*Element {
	var out []*Element
	for _, link := range indi.children {
		if link.tag != string(ft) {
			continue
		}
		if fam, ok := d.index[link.value]; ok && fam.IsFamily() {
			out = append(out, fam)
		}
	}
	return out
}

// FamilyMembers resolves a family's HUSB, WIFE and CHIL links. PARENTS and
// ALL list husbands before wives; ALL then adds the children in file order.
// Links to missing records are skipped.
func (d *Document) FamilyMembers(fam *Element, mt MemberType) ([]*Element, error) {
	if err := requireTag(fam, TagFamily); err != nil {
		return nil, err
	}
	return d.members(fam, mt), nil
}

func (d *Document) members(fam *Element, mt MemberType) []*Element {
	switch mt {
	case MembersHusband:
		return d.linked(fam, TagHusband)
	case MembersWife:
		return d.linked(fam, TagWife)
	case MembersChildren:
		return d.linked(fam, TagChild)
	case MembersParents:
		return append(d.linked(fam, TagHusband), d.linked(fam, TagWife)...)
	}
	out := append(d.linked(fam, TagHusband), d.linked(fam, TagWife)...)
	return append(out, d.linked(fam, TagChild)...)
}

func (d *Document) linked(fam *Element, tag string) []*Element {
	var out []*Element
	for _, c := range fam.children {
		if c.tag != tag {
			continue
		}
		if indi, ok := d.index[c.value]; ok && indi.IsIndividual() {
			out = append(out, indi)
		}
	}
	return out
}

// Parents returns the parents recorded in the families where indi is a child.
func (d *Document) Parents(indi *Element, pt ParentType) ([]*Element, error) {
	if err := requireTag(indi, TagIndividual); err != nil {
		return nil, err
	}
	return d.parents(indi, pt), nil
}

func (d *Document) parents(indi *Element, pt ParentType) []*Element {
	var out []*Element
	add := func(people []*Element) {
		for _, p := range people {
			if !slices.Contains(out, p) {
				out = append(out, p)
			}
		}
	}

	for _, link := range indi.children {
		if link.tag != TagFamilyChild {
			continue
		}
		fam, ok := d.index[link.value]
		if !ok || !fam.IsFamily() {
			continue
		}
		if pt != ParentsNatural {
			add(d.members(fam, MembersParents))
			continue
		}

		if pedi := link.ChildValue(TagPedigree); pedi != "" && !strings.EqualFold(pedi, "birth") {
			continue
		}
		father, mother := true, true
		for _, chil := range fam.children {
			if chil.tag != TagChild || chil.value != indi.pointer {
				continue
			}
			if v := chil.ChildValue(TagFatherRelation); v != "" && !strings.EqualFold(v, "Natural") {
				father = false
			}
			if v := chil.ChildValue(TagMotherRelation); v != "" && !strings.EqualFold(v, "Natural") {
				mother = false
			}
		}
		if father {
			add(d.members(fam, MembersHusband))
		}
		if mother {
			add(d.members(fam, MembersWife))
		}
	}
	return out
}

// Ancestors walks parent links breadth-first and returns every ancestor
// once, nearest generations first. indi itself is never included. A parent
// cycle in malformed data ends the walk at the first repeated individual.
func (d *Document) Ancestors(indi *Element, pt ParentType) ([]*Element, error) {
	if err := requireTag(indi, TagIndividual); err != nil {
		return nil, err
	}
	return d.bfs(indi, func(e *Element) []*Element { return d.parents(e, pt) }), nil
}

// Children returns the children of every family where indi is a spouse.
func (d *Document) Children(indi *Element) ([]*Element, error) {
	if err := requireTag(indi, TagIndividual); err != nil {
		return nil, err
	}
	return d.children(indi), nil
}

func (d *Document) children(indi *Element) []*Element {
	var out []*Element
	for _, fam := range d.families(indi, SpouseFamilies) {
		for _, c := range d.members(fam, MembersChildren) {
			if !slices.Contains(out, c) {
				out = append(out, c)
			}
		}
	}
	return out
}

// Descendants is Ancestors in the other direction.
func (d *Document) Descendants(indi *Element) ([]*Element, error) {
	if err := requireTag(indi, TagIndividual); err != nil {
		return nil, err
	}
	return d.bfs(indi, d.children), nil
}

func (d *Document) bfs(start *Element, next func(*Element) []*Element) []*Element {
	visited := map[*Element]bool{start: true}
	queue := []*Element{start}
	var out []*Element
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, n := range next(cur) {
			if visited[n] {
				continue
			}
			visited[n] = true
			out = append(out, n)
			queue = append(queue, n)
		}
	}
	return out
}

// FindPathToAncestor returns the shortest chain of individuals from
// descendant up to ancestor, both included. It returns a nil path when
// ancestor cannot be reached.
func (d *Document) FindPathToAncestor(descendant, ancestor *Element, pt ParentType) ([]*Element, error) {
	if err := requireTag(descendant, TagIndividual); err != nil {
		return nil, err
	}
	if err := requireTag(ancestor, TagIndividual); err != nil {
		return nil, err
	}
	if descendant == ancestor {
		return []*Element{descendant}, nil
	}

	prev := map[*Element]*Element{descendant: nil}
	queue := []*Element{descendant}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, p := range d.parents(cur, pt) {
			if _, seen := prev[p]; seen {
				continue
			}
			prev[p] = cur
			if p == ancestor {
				var path []*Element
				for e := p; e != nil; e = prev[e] {
					path = append(path, e)
				}
				slices.Reverse(path)
				return path, nil
			}
			queue = append(queue, p)
		}
	}
	return nil, nil
}

// CheckLineage looks for an individual who is their own ancestor and
// reports the first such cycle as a *DataError.
func (d *Document) CheckLineage() error {
	const (
		unvisited = iota
		onPath
		done
	)
	state := make(map[*Element]int)
	var path []*Element

	var visit func(*Element) error
	visit = func(e *Element) error {
		state[e] = onPath
		path = append(path, e)
		for _, p := range d.parents(e, ParentsAll) {
			switch state[p] {
			case onPath:
				start := slices.Index(path, p)
				ptrs := make([]string, 0, len(path)-start+1)
				for _, c := range path[start:] {
					ptrs = append(ptrs, c.pointer)
				}
				ptrs = append(ptrs, p.pointer)
				return &DataError{Pointer: p.pointer, Reason: "ancestry cycle: " + strings.Join(ptrs, " -> ")}
			case unvisited:
				if err := visit(p); err != nil {
					return err
				}
			}
		}
		path = path[:len(path)-1]
		state[e] = done
		return nil
	}

	for _, indi := range d.Individuals() {
		if state[indi] == unvisited {
			if err := visit(indi); err != nil {
				return err
			}
		}
	}
	return nil
}

// Marriages returns one Event per MARR record in the families where indi
// is a spouse.
func (d *Document) Marriages(indi *Element) ([]Event, error) {
	if err := requireTag(indi, TagIndividual); err != nil {
		return nil, err
	}
	var out []Event
	for _, fam := range d.families(indi, SpouseFamilies) {
		for _, marr := range fam.ChildrenByTag(TagMarriage) {
			out = append(out, eventFrom(marr))
		}
	}
	return out, nil
}

// MarriageYears returns the readable years of indi's marriages; dates
// without a year are left out.
func (d *Document) MarriageYears(indi *Element) ([]int, error) {
	marriages, err := d.Marriages(indi)
	if err != nil {
		return nil, err
	}
	var years []int
	for _, m := range marriages {
		if y, ok := ParseYear(m.Date); ok {
			years = append(years, y)
		}
	}
	return years, nil
}

func (d *Document) MarriageYearMatch(indi *Element, year int) bool {
	years, _ := d.MarriageYears(indi)
	return slices.Contains(years, year)
}

// MarriageRangeMatch reports whether any marriage year lies in [from, to].
func (d *Document) MarriageRangeMatch(indi *Element, from, to int) bool {
	years, _ := d.MarriageYears(indi)
	for _, y := range years {
		if from <= y && y <= to {
			return true
		}
	}
	return false
}
