package gedcom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cycleGED = `0 @A@ INDI
1 FAMC @F1@
1 FAMS @F2@
0 @B@ INDI
1 FAMC @F2@
1 FAMS @F1@
0 @F1@ FAM
1 HUSB @B@
1 CHIL @A@
0 @F2@ FAM
1 HUSB @A@
1 CHIL @B@
`

const pedigreeGED = `0 @C@ INDI
1 NAME Child /Test/
1 FAMC @F1@
2 PEDI adopted
1 FAMC @F2@
0 @H1@ INDI
0 @W1@ INDI
0 @H2@ INDI
0 @W2@ INDI
0 @F1@ FAM
1 HUSB @H1@
1 WIFE @W1@
1 CHIL @C@
0 @F2@ FAM
1 HUSB @H2@
1 WIFE @W2@
1 CHIL @C@
2 _FREL Adopted
2 _MREL Natural
`

func TestFamilies(t *testing.T) {
	doc := loadFamily(t)
	john := mustLookup(t, doc, "@I1@")

	fams, err := doc.Families(john, SpouseFamilies)
	require.NoError(t, err)
	assert.Equal(t, []string{"@F1@"}, pointers(fams))

	fams, err = doc.Families(john, ChildFamilies)
	require.NoError(t, err)
	assert.Equal(t, []string{"@F2@"}, pointers(fams))
}

func TestFamilyMembers(t *testing.T) {
	doc := loadFamily(t)
	fam := mustLookup(t, doc, "@F1@")

	for mt, want := range map[MemberType][]string{
		MembersChildren: {"@I3@"}, // the dangling @I9@ link is skipped
		MembersParents:  {"@I1@", "@I2@"},
		MembersHusband:  {"@I1@"},
		MembersWife:     {"@I2@"},
		MembersAll:      {"@I1@", "@I2@", "@I3@"},
	} {
		got, err := doc.FamilyMembers(fam, mt)
		require.NoError(t, err)
		assert.Equal(t, want, pointers(got), mt)
	}
}

func TestFamilyMembers_RequiresFamily(t *testing.T) {
	doc := loadFamily(t)
	_, err := doc.FamilyMembers(mustLookup(t, doc, "@I1@"), MembersAll)
	var derr *DataError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "@I1@", derr.Pointer)

	_, err = doc.FamilyMembers(nil, MembersAll)
	assert.ErrorAs(t, err, &derr)
}

func TestParseMemberType(t *testing.T) {
	mt, err := ParseMemberType("parents")
	require.NoError(t, err)
	assert.Equal(t, MembersParents, mt)

	mt, err = ParseMemberType("")
	require.NoError(t, err)
	assert.Equal(t, MembersAll, mt)

	_, err = ParseMemberType("cousins")
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestParseParentType(t *testing.T) {
	pt, err := ParseParentType("nat")
	require.NoError(t, err)
	assert.Equal(t, ParentsNatural, pt)

	_, err = ParseParentType("step")
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestAncestors(t *testing.T) {
	doc := loadFamily(t)
	got, err := doc.Ancestors(mustLookup(t, doc, "@I3@"), ParentsAll)
	require.NoError(t, err)
	assert.Equal(t, []string{"@I1@", "@I2@", "@I4@", "@I5@"}, pointers(got))

	got, err = doc.Ancestors(mustLookup(t, doc, "@I4@"), ParentsAll)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestAncestors_RequiresIndividual(t *testing.T) {
	doc := loadFamily(t)
	_, err := doc.Ancestors(mustLookup(t, doc, "@F1@"), ParentsAll)
	var derr *DataError
	assert.ErrorAs(t, err, &derr)
}

func TestAncestors_CycleTerminates(t *testing.T) {
	doc := parseString(t, cycleGED)
	got, err := doc.Ancestors(mustLookup(t, doc, "@A@"), ParentsAll)
	require.NoError(t, err)
	assert.Equal(t, []string{"@B@"}, pointers(got))

	got, err = doc.Descendants(mustLookup(t, doc, "@A@"))
	require.NoError(t, err)
	assert.Equal(t, []string{"@B@"}, pointers(got))
}

func TestCheckLineage(t *testing.T) {
	assert.NoError(t, loadFamily(t).CheckLineage())

	err := parseString(t, cycleGED).CheckLineage()
	var derr *DataError
	require.ErrorAs(t, err, &derr)
	assert.Contains(t, derr.Reason, "@A@ -> @B@ -> @A@")
}

func TestParents_Natural(t *testing.T) {
	doc := parseString(t, pedigreeGED)
	child := mustLookup(t, doc, "@C@")

	all, err := doc.Parents(child, ParentsAll)
	require.NoError(t, err)
	assert.Equal(t, []string{"@H1@", "@W1@", "@H2@", "@W2@"}, pointers(all))

	nat, err := doc.Parents(child, ParentsNatural)
	require.NoError(t, err)
	assert.Equal(t, []string{"@W2@"}, pointers(nat))

	anc, err := doc.Ancestors(child, ParentsNatural)
	require.NoError(t, err)
	assert.Equal(t, []string{"@W2@"}, pointers(anc))
}

func TestParents_NaturalWithoutPedigreeTags(t *testing.T) {
	doc := loadFamily(t)
	indi := mustLookup(t, doc, "@I3@")
	all, err := doc.Parents(indi, ParentsAll)
	require.NoError(t, err)
	nat, err := doc.Parents(indi, ParentsNatural)
	require.NoError(t, err)
	assert.Equal(t, pointers(all), pointers(nat))
}

func TestFindPathToAncestor(t *testing.T) {
	doc := loadFamily(t)
	i3 := mustLookup(t, doc, "@I3@")
	i4 := mustLookup(t, doc, "@I4@")

	path, err := doc.FindPathToAncestor(i3, i4, ParentsAll)
	require.NoError(t, err)
	assert.Equal(t, []string{"@I3@", "@I1@", "@I4@"}, pointers(path))

	path, err = doc.FindPathToAncestor(i4, i3, ParentsAll)
	require.NoError(t, err)
	assert.Nil(t, path)

	path, err = doc.FindPathToAncestor(i3, i3, ParentsAll)
	require.NoError(t, err)
	assert.Equal(t, []string{"@I3@"}, pointers(path))
}

func TestFindPathToAncestor_NaturalOnly(t *testing.T) {
	doc := parseString(t, pedigreeGED)
	child := mustLookup(t, doc, "@C@")

	path, err := doc.FindPathToAncestor(child, mustLookup(t, doc, "@H1@"), ParentsNatural)
	require.NoError(t, err)
	assert.Nil(t, path)

	path, err = doc.FindPathToAncestor(child, mustLookup(t, doc, "@H1@"), ParentsAll)
	require.NoError(t, err)
	assert.Equal(t, []string{"@C@", "@H1@"}, pointers(path))
}

func TestFindPathToAncestor_CycleTerminates(t *testing.T) {
	doc := parseString(t, cycleGED+"0 @Z@ INDI\n")
	a := mustLookup(t, doc, "@A@")

	path, err := doc.FindPathToAncestor(a, mustLookup(t, doc, "@Z@"), ParentsAll)
	require.NoError(t, err)
	assert.Nil(t, path)

	path, err = doc.FindPathToAncestor(a, mustLookup(t, doc, "@B@"), ParentsAll)
	require.NoError(t, err)
	assert.Equal(t, []string{"@A@", "@B@"}, pointers(path))
}

func TestDescendants(t *testing.T) {
	doc := loadFamily(t)
	got, err := doc.Descendants(mustLookup(t, doc, "@I4@"))
	require.NoError(t, err)
	assert.Equal(t, []string{"@I1@", "@I3@"}, pointers(got))

	kids, err := doc.Children(mustLookup(t, doc, "@I1@"))
	require.NoError(t, err)
	assert.Equal(t, []string{"@I3@"}, pointers(kids))
}

func TestMarriages(t *testing.T) {
	doc := loadFamily(t)
	john := mustLookup(t, doc, "@I1@")

	got, err := doc.Marriages(john)
	require.NoError(t, err)
	assert.Equal(t, []Event{{Date: "10 MAY 1993", Place: "Springfield"}}, got)

	years, err := doc.MarriageYears(mustLookup(t, doc, "@I4@"))
	require.NoError(t, err)
	assert.Equal(t, []int{1965}, years)

	assert.True(t, doc.MarriageYearMatch(john, 1993))
	assert.True(t, doc.MarriageRangeMatch(john, 1990, 2000))
	assert.False(t, doc.MarriageRangeMatch(john, 1900, 1950))
	assert.False(t, doc.MarriageRangeMatch(mustLookup(t, doc, "@I3@"), 0, 3000))
}
