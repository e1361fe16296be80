package httpapi

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/custodia-labs/charterbook/internal/core/domain"
	"github.com/custodia-labs/charterbook/internal/core/ports/driving"
)

// relationItem is one entry of a relation listing.
type relationItem struct {
	ID       string                   `json:"id"`
	Relation *domain.EnrichedRelation `json:"relation,omitempty"`
	Error    string                   `json:"error,omitempty"`
}

type relationList struct {
	Items []relationItem `json:"items"`
	Count int            `json:"count"`
}

func toRelationList(items []driving.QueryItem) relationList {
	out := relationList{Items: make([]relationItem, len(items)), Count: len(items)}
	for i, item := range items {
		out.Items[i] = relationItem{ID: item.ID, Relation: item.Data}
		if item.Err != nil {
			out.Items[i] = relationItem{ID: item.ID, Error: item.Err.Error()}
		}
	}
	return out
}

type entityInfo struct {
	Name  string   `json:"name"`
	Roles []string `json:"roles"`
}

func (s *Server) listEntities(w http.ResponseWriter, r *http.Request) {
	entities := s.cfg.Relations.Entities()
	out := make([]entityInfo, 0, len(entities))
	for _, e := range entities {
		schema, err := s.cfg.Relations.Schema(e)
		if err != nil {
			writeError(w, r, err)
			return
		}
		info := entityInfo{Name: string(e), Roles: make([]string, len(schema.Roles))}
		for i, role := range schema.Roles {
			info.Roles[i] = role.Name
		}
		out = append(out, info)
	}
	writeJSON(w, http.StatusOK, out)
}

// parseQuery reads where, order, desc and limit from the query string.
func parseQuery(r *http.Request) (domain.Query, error) {
	values := r.URL.Query()
	q := domain.Query{OrderBy: values.Get("order")}

	for _, expr := range values["where"] {
		f, err := domain.ParseFilter(expr)
		if err != nil {
			return domain.Query{}, err
		}
		q.Filters = append(q.Filters, f)
	}
	if v := values.Get("desc"); v != "" {
		desc, err := strconv.ParseBool(v)
		if err != nil {
			return domain.Query{}, fmt.Errorf("%w: desc must be a boolean", domain.ErrInvalidInput)
		}
		q.Descending = desc
	}
	if v := values.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			return domain.Query{}, fmt.Errorf("%w: limit must be a non-negative integer", domain.ErrInvalidInput)
		}
		q.Limit = limit
	}
	return q, nil
}

func entityParam(r *http.Request) domain.Entity {
	return domain.Entity(chi.URLParam(r, "entity"))
}

func (s *Server) listRelations(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	snap, err := s.cfg.Relations.List(r.Context(), entityParam(r), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRelationList(snap.Items))
}

func (s *Server) getRelation(w http.ResponseWriter, r *http.Request) {
	rel, err := s.cfg.Relations.Get(r.Context(), entityParam(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rel)
}

func (s *Server) addRelation(w http.ResponseWriter, r *http.Request) {
	data, err := decodeRecord(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	id, err := s.cfg.Relations.Add(r.Context(), entityParam(r), data)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) setRelation(w http.ResponseWriter, r *http.Request) {
	data, err := decodeRecord(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.cfg.Relations.Set(r.Context(), entityParam(r), chi.URLParam(r, "id"), data); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) updateRelation(w http.ResponseWriter, r *http.Request) {
	patch, err := decodeRecord(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.cfg.Relations.Update(r.Context(), entityParam(r), chi.URLParam(r, "id"), patch); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) deleteRelation(w http.ResponseWriter, r *http.Request) {
	if err := s.cfg.Relations.Delete(r.Context(), entityParam(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) watchRelations(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	snapshots, err := s.cfg.Relations.WatchQuery(r.Context(), entityParam(r), q)
	if err != nil {
		writeError(w, r, err)
		return
	}

	stream(w, snapshots, func(snap driving.QuerySnapshot) any {
		if snap.Err != nil {
			return errorBody{Error: snap.Err.Error()}
		}
		return toRelationList(snap.Items)
	})
}

func (s *Server) watchRelation(w http.ResponseWriter, r *http.Request) {
	snapshots, err := s.cfg.Relations.WatchOne(r.Context(), entityParam(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	stream(w, snapshots, func(snap driving.DocumentSnapshot) any {
		item := relationItem{ID: snap.ID, Relation: snap.Data}
		if snap.Err != nil {
			item = relationItem{ID: snap.ID, Error: snap.Err.Error()}
		}
		return item
	})
}
