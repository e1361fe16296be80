package httpapi

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/custodia-labs/charterbook/internal/core/domain"
)

type groupList struct {
	Groups []domain.DocumentGroup `json:"groups"`
	Count  int                    `json:"count"`
}

func newGroupList(groups []domain.DocumentGroup) groupList {
	if groups == nil {
		groups = []domain.DocumentGroup{}
	}
	return groupList{Groups: groups, Count: len(groups)}
}

func (s *Server) listDocuments(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()

	var q domain.DocQuery
	for _, t := range values["type"] {
		dt := domain.DocType(t)
		if !dt.IsValid() {
			writeError(w, r, fmt.Errorf("%w: unknown document type %q", domain.ErrInvalidInput, t))
			return
		}
		q.Types = append(q.Types, dt)
	}
	for _, st := range values["state"] {
		state := domain.DocState(st)
		if !state.IsValid() {
			writeError(w, r, fmt.Errorf("%w: unknown document state %q", domain.ErrInvalidInput, st))
			return
		}
		q.States = append(q.States, state)
	}

	groups, err := s.cfg.Documents.Groups(r.Context(), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newGroupList(groups))
}

func (s *Server) searchDocuments(w http.ResponseWriter, r *http.Request) {
	groups, err := s.cfg.Documents.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newGroupList(groups))
}

func (s *Server) actionItems(w http.ResponseWriter, r *http.Request) {
	groups, err := s.cfg.Documents.ActionItems(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newGroupList(groups))
}

func (s *Server) getDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.cfg.Documents.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) addDocument(w http.ResponseWriter, r *http.Request) {
	data, err := decodeRecord(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	id, err := s.cfg.Documents.Add(r.Context(), data)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) updateDocument(w http.ResponseWriter, r *http.Request) {
	patch, err := decodeRecord(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.cfg.Documents.Update(r.Context(), chi.URLParam(r, "id"), patch); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) recategorizeDocument(w http.ResponseWriter, r *http.Request) {
	data, err := decodeRecord(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.cfg.Documents.Recategorize(r.Context(), chi.URLParam(r, "id"), data); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) capTable(w http.ResponseWriter, r *http.Request) {
	if s.cfg.CapTable == nil {
		writeError(w, r, domain.ErrNotImplemented)
		return
	}

	ct, err := s.cfg.CapTable.Get(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ct)
}
