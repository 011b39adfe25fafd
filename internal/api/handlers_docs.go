package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/gedgraph/internal/gedcom"
	"github.com/dgallion1/gedgraph/internal/report"
)

// individualView is the JSON form of an INDI record.
type individualView struct {
	Pointer    string         `json:"pointer"`
	Given      string         `json:"given"`
	Surname    string         `json:"surname"`
	Sex        string         `json:"sex,omitempty"`
	Occupation string         `json:"occupation,omitempty"`
	Birth      gedcom.Event   `json:"birth"`
	Death      gedcom.Event   `json:"death"`
	Census     []gedcom.Event `json:"census,omitempty"`
	Private    bool           `json:"private"`
	Deceased   bool           `json:"deceased"`
	Changed    string         `json:"last_changed,omitempty"`
}

func viewOf(e *gedcom.Element) individualView {
	given, surname := e.Name()
	return individualView{
		Pointer:    e.Pointer(),
		Given:      given,
		Surname:    surname,
		Sex:        e.Gender(),
		Occupation: e.Occupation(),
		Birth:      e.BirthData(),
		Death:      e.DeathData(),
		Census:     e.Census(),
		Private:    e.IsPrivate(),
		Deceased:   e.IsDeceased(),
		Changed:    e.LastChangeDate(),
	}
}

func viewsOf(elems []*gedcom.Element) []individualView {
	out := make([]individualView, len(elems))
	for i, e := range elems {
		out[i] = viewOf(e)
	}
	return out
}

// document returns the parsed document of the job named in the URL, or
// writes an error and returns nil.
func (s *Server) document(w http.ResponseWriter, r *http.Request) *gedcom.Document {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return nil
	}
	doc := job.Document()
	if doc == nil {
		jsonError(w, fmt.Sprintf("document not available (job %s)", job.CurrentStatus()), http.StatusConflict)
		return nil
	}
	return doc
}

// record looks up id, with or without the surrounding '@', and checks its
// tag. It writes a 404 and returns nil on failure.
func record(w http.ResponseWriter, doc *gedcom.Document, id, tag string) *gedcom.Element {
	ptr := "@" + strings.Trim(id, "@") + "@"
	e, ok := doc.Lookup(ptr)
	if !ok || e.Tag() != tag {
		jsonError(w, fmt.Sprintf("%s %s not found", tag, ptr), http.StatusNotFound)
		return nil
	}
	return e
}

func (s *Server) individual(w http.ResponseWriter, r *http.Request) (*gedcom.Document, *gedcom.Element) {
	doc := s.document(w, r)
	if doc == nil {
		return nil, nil
	}
	indi := record(w, doc, chi.URLParam(r, "id"), gedcom.TagIndividual)
	if indi == nil {
		return nil, nil
	}
	return doc, indi
}

func (s *Server) handleListIndividuals(w http.ResponseWriter, r *http.Request) {
	doc := s.document(w, r)
	if doc == nil {
		return
	}
	people := doc.Individuals()
	if expr := r.URL.Query().Get("criteria"); expr != "" {
		c, err := gedcom.ParseCriteria(expr)
		if err != nil {
			queryError(w, err)
			return
		}
		people = doc.Filter(c)
	}
	writeJSON(w, http.StatusOK, map[string]any{"individuals": viewsOf(people)})
}

func (s *Server) handleGetIndividual(w http.ResponseWriter, r *http.Request) {
	doc, indi := s.individual(w, r)
	if indi == nil {
		return
	}
	marriages, err := doc.Marriages(indi)
	if err != nil {
		queryError(w, err)
		return
	}
	parents, _ := doc.Parents(indi, gedcom.ParentsAll)
	children, _ := doc.Children(indi)
	writeJSON(w, http.StatusOK, map[string]any{
		"individual": viewOf(indi),
		"marriages":  marriages,
		"parents":    pointersOf(parents),
		"children":   pointersOf(children),
	})
}

func (s *Server) handleAncestors(w http.ResponseWriter, r *http.Request) {
	doc, indi := s.individual(w, r)
	if indi == nil {
		return
	}
	pt, err := gedcom.ParseParentType(r.URL.Query().Get("type"))
	if err != nil {
		queryError(w, err)
		return
	}
	ancestors, err := doc.Ancestors(indi, pt)
	if err != nil {
		queryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ancestors": viewsOf(ancestors)})
}

func (s *Server) handleDescendants(w http.ResponseWriter, r *http.Request) {
	doc, indi := s.individual(w, r)
	if indi == nil {
		return
	}
	descendants, err := doc.Descendants(indi)
	if err != nil {
		queryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"descendants": viewsOf(descendants)})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	doc, indi := s.individual(w, r)
	if indi == nil {
		return
	}
	sheet, err := report.FamilyGroupSheet(doc, indi)
	if err != nil {
		queryError(w, err)
		return
	}
	switch r.URL.Query().Get("format") {
	case "html":
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(sheet.HTML))
	case "markdown":
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		_, _ = w.Write([]byte(sheet.Markdown))
	default:
		writeJSON(w, http.StatusOK, sheet)
	}
}

func (s *Server) handleFamilyMembers(w http.ResponseWriter, r *http.Request) {
	doc := s.document(w, r)
	if doc == nil {
		return
	}
	fam := record(w, doc, chi.URLParam(r, "id"), gedcom.TagFamily)
	if fam == nil {
		return
	}
	mt, err := gedcom.ParseMemberType(r.URL.Query().Get("type"))
	if err != nil {
		queryError(w, err)
		return
	}
	members, err := doc.FamilyMembers(fam, mt)
	if err != nil {
		queryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"members": viewsOf(members)})
}

func (s *Server) handlePath(w http.ResponseWriter, r *http.Request) {
	doc := s.document(w, r)
	if doc == nil {
		return
	}
	q := r.URL.Query()
	if q.Get("from") == "" || q.Get("to") == "" {
		jsonError(w, "from and to are required", http.StatusBadRequest)
		return
	}
	from := record(w, doc, q.Get("from"), gedcom.TagIndividual)
	if from == nil {
		return
	}
	to := record(w, doc, q.Get("to"), gedcom.TagIndividual)
	if to == nil {
		return
	}
	pt, err := gedcom.ParseParentType(q.Get("type"))
	if err != nil {
		queryError(w, err)
		return
	}
	path, err := doc.FindPathToAncestor(from, to, pt)
	if err != nil {
		queryError(w, err)
		return
	}
	if path == nil {
		jsonError(w, fmt.Sprintf("%s is not an ancestor of %s", to.Pointer(), from.Pointer()), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"path": viewsOf(path)})
}

func (s *Server) handleGedcom(w http.ResponseWriter, r *http.Request) {
	doc := s.document(w, r)
	if doc == nil {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := doc.WriteTo(w); err != nil {
		s.log.Error("write gedcom failed", "error", err)
	}
}

func pointersOf(elems []*gedcom.Element) []string {
	out := make([]string, len(elems))
	for i, e := range elems {
		out[i] = e.Pointer()
	}
	return out
}

func queryError(w http.ResponseWriter, err error) {
	var verr *gedcom.ValidationError
	var derr *gedcom.DataError
	switch {
	case errors.As(err, &verr):
		jsonError(w, err.Error(), http.StatusBadRequest)
	case errors.As(err, &derr):
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		jsonError(w, err.Error(), http.StatusInternalServerError)
	}
}
