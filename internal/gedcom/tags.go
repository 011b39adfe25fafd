package gedcom

import "strings"

// Record and sub-record tags used by the query layer.
const (
	TagHeader     = "HEAD"
	TagTrailer    = "TRLR"
	TagIndividual = "INDI"
	TagFamily     = "FAM"
	TagSource     = "SOUR"
	TagNote       = "NOTE"
	TagObject     = "OBJE"
	TagFile       = "FILE"

	TagName         = "NAME"
	TagGivenName    = "GIVN"
	TagSurname      = "SURN"
	TagSex          = "SEX"
	TagBirth        = "BIRT"
	TagDeath        = "DEAT"
	TagBurial       = "BURI"
	TagCensus       = "CENS"
	TagChange       = "CHAN"
	TagOccupation   = "OCCU"
	TagDate         = "DATE"
	TagPlace        = "PLAC"
	TagPrivate      = "PRIV"
	TagRestriction  = "RESN"
	TagMarriage     = "MARR"
	TagHusband      = "HUSB"
	TagWife         = "WIFE"
	TagChild        = "CHIL"
	TagFamilyChild  = "FAMC"
	TagFamilySpouse = "FAMS"
	TagPedigree     = "PEDI"

	TagConcatenation = "CONC"
	TagContinued     = "CONT"

	// Program-defined relationship qualifiers written by several
	// desktop applications under a family's CHIL line.
	TagFatherRelation = "_FREL"
	TagMotherRelation = "_MREL"
)

// RecordKind classifies a top-level record.
type RecordKind int

const (
	KindOther RecordKind = iota
	KindHeader
	KindIndividual
	KindFamily
	KindSource
	KindNote
	KindObject
)

func (k RecordKind) String() string {
	switch k {
	case KindHeader:
		return "header"
	case KindIndividual:
		return "individual"
	case KindFamily:
		return "family"
	case KindSource:
		return "source"
	case KindNote:
		return "note"
	case KindObject:
		return "object"
	}
	return "other"
}

func kindOf(tag string) RecordKind {
	switch tag {
	case TagHeader:
		return KindHeader
	case TagIndividual:
		return KindIndividual
	case TagFamily:
		return KindFamily
	case TagSource:
		return KindSource
	case TagNote:
		return KindNote
	case TagObject:
		return KindObject
	}
	return KindOther
}

// standardTags is the GEDCOM 5.5.1 tag set.
var standardTags = map[string]bool{}

func init() {
	for _, t := range strings.Fields(`
		ABBR ADDR ADR1 ADR2 ADOP AFN AGE AGNC ALIA ANCE ANCI ANUL ASSO AUTH
		BAPL BAPM BARM BASM BIRT BLES BURI CALN CAST CAUS CENS CHAN CHAR CHIL
		CHR CHRA CITY CONC CONF CONL CONT COPR CORP CREM CTRY DATA DATE DEAT
		DESC DESI DEST DIV DIVF DSCR EDUC EMAIL EMIG ENDL ENGA EVEN FACT FAM
		FAMC FAMF FAMS FAX FCOM FILE FONE FORM GEDC GIVN GRAD HEAD HUSB IDNO
		IMMI INDI LANG LATI LONG MAP MARB MARC MARL MARR MARS MEDI NAME NATI
		NATU NCHI NICK NMR NOTE NPFX NSFX OBJE OCCU ORDI ORDN PAGE PEDI PHON
		PLAC POST PRIV PROB PROP PUBL QUAY REFN RELA RELI REPO RESI RESN RETI
		RFN RIN ROLE ROMN SEX SLGC SLGS SOUR SPFX SSN STAE STAT SUBM SUBN SURN
		TEMP TEXT TIME TITL TRLR TYPE VERS WIFE WILL WWW`) {
		standardTags[t] = true
	}
}

// IsKnownTag reports whether tag belongs to the GEDCOM 5.5.1 tag set or is a
// user-defined extension tag (leading underscore).
func IsKnownTag(tag string) bool {
	if strings.HasPrefix(tag, "_") && len(tag) > 1 {
		return true
	}
	return standardTags[tag]
}
