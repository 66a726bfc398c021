// Package inspect serves a read-only JSON view of a loaded runtime: the
// registered architypes, the graph store and the walkers.
package inspect

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/vk/walkgrid/internal/arch"
	"github.com/vk/walkgrid/internal/graphstore"
	"github.com/vk/walkgrid/internal/handle"
	"github.com/vk/walkgrid/internal/registry"
	"github.com/vk/walkgrid/internal/runtime"
	"github.com/vk/walkgrid/internal/walker"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// Server holds the runtime the handlers read from.
type Server struct {
	rt *runtime.Runtime
}

// New creates an inspection server over rt.
func New(rt *runtime.Runtime) *Server {
	return &Server{rt: rt}
}

// Handler builds the chi router with all inspection routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.Health)
	r.Route("/architypes", func(r chi.Router) {
		r.Get("/", s.ListArchitypes)
		r.Get("/{kind}/{name}", s.GetArchitype)
	})
	r.Route("/nodes", func(r chi.Router) {
		r.Get("/", s.ListNodes)
		r.Get("/{handle}", s.GetNode)
		r.Get("/{handle}/neighbors", s.GetNeighbors)
	})
	r.Route("/walkers", func(r chi.Router) {
		r.Get("/", s.ListWalkers)
		r.Get("/{id}", s.GetWalker)
	})
	return r
}

// AbilityView is the JSON form of an ability slot.
type AbilityView struct {
	Name     string   `json:"name"`
	Owner    string   `json:"owner"`
	Event    string   `json:"event"`
	Filter   []string `json:"filter,omitempty"`
	Abstract bool     `json:"abstract,omitempty"`
	Bound    bool     `json:"bound"`
	Module   string   `json:"module,omitempty"`
}

// FieldView is the JSON form of a declared field.
type FieldView struct {
	Name    string          `json:"name"`
	Type    string          `json:"type"`
	Default json.RawMessage `json:"default,omitempty"`
}

// ArchitypeView is the JSON form of an architype.
type ArchitypeView struct {
	Kind      string        `json:"kind"`
	Name      string        `json:"name"`
	Module    string        `json:"module"`
	Bases     []string      `json:"bases,omitempty"`
	Directed  *bool         `json:"directed,omitempty"`
	Fields    []FieldView   `json:"fields,omitempty"`
	Abilities []AbilityView `json:"abilities,omitempty"`
}

// NodeView is the JSON form of a node.
type NodeView struct {
	Handle string                     `json:"handle"`
	Arch   string                     `json:"arch"`
	Fields map[string]json.RawMessage `json:"fields"`
	Edges  []string                   `json:"edges,omitempty"`
}

// HopView is one neighbor of a node.
type HopView struct {
	Edge     string `json:"edge"`
	EdgeArch string `json:"edge_arch"`
	Node     string `json:"node"`
	NodeArch string `json:"node_arch"`
}

// WalkerView is the JSON form of a walker.
type WalkerView struct {
	ID       string                     `json:"id"`
	Arch     string                     `json:"arch"`
	State    string                     `json:"state"`
	Position string                     `json:"position"`
	Queue    []string                   `json:"queue,omitempty"`
	Steps    int                        `json:"steps"`
	Fields   map[string]json.RawMessage `json:"fields,omitempty"`
	Reports  []json.RawMessage          `json:"reports,omitempty"`
	Errors   []string                   `json:"errors,omitempty"`
}

// Health handles GET /health.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	nodes, edges := s.rt.Store().Len()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"modules": len(s.rt.Modules()),
		"nodes":   nodes,
		"edges":   edges,
		"walkers": len(s.rt.Engine().Walkers()),
	})
}

// ListArchitypes handles GET /architypes. ?kind= narrows the list.
func (s *Server) ListArchitypes(w http.ResponseWriter, r *http.Request) {
	var only arch.Kind
	if raw := r.URL.Query().Get("kind"); raw != "" {
		k, err := arch.ParseKind(raw)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		only = k
	}

	all := s.rt.Registry().Architypes()
	views := make([]ArchitypeView, 0, len(all))
	for _, a := range all {
		if only != 0 && a.Kind != only {
			continue
		}
		views = append(views, architypeView(a))
	}
	sort.Slice(views, func(i, j int) bool {
		if views[i].Kind != views[j].Kind {
			return views[i].Kind < views[j].Kind
		}
		return views[i].Name < views[j].Name
	})
	writeJSON(w, http.StatusOK, map[string]any{"architypes": views, "count": len(views)})
}

// GetArchitype handles GET /architypes/{kind}/{name}.
func (s *Server) GetArchitype(w http.ResponseWriter, r *http.Request) {
	kind, err := arch.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	a, err := s.rt.Registry().LookupArchitype(kind, chi.URLParam(r, "name"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, registry.ErrNotFound) {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}
	writeJSON(w, http.StatusOK, architypeView(a))
}

// ListNodes handles GET /nodes. ?arch= keeps nodes of that architype or a
// subtype of it.
func (s *Server) ListNodes(w http.ResponseWriter, r *http.Request) {
	filter := r.URL.Query().Get("arch")
	nodes := s.rt.Store().Nodes()
	views := make([]NodeView, 0, len(nodes))
	for _, n := range nodes {
		if filter != "" && !n.Architype().IsA(filter) {
			continue
		}
		v, err := s.nodeView(n)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		views = append(views, v)
	}
	writeJSON(w, http.StatusOK, map[string]any{"nodes": views, "count": len(views)})
}

// GetNode handles GET /nodes/{handle}.
func (s *Server) GetNode(w http.ResponseWriter, r *http.Request) {
	n, ok := s.lookupNode(w, r)
	if !ok {
		return
	}
	v, err := s.nodeView(n)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// GetNeighbors handles GET /nodes/{handle}/neighbors.
// Supports query params: ?direction=out|in|any, ?edge=A,B and ?node=C,D.
func (s *Server) GetNeighbors(w http.ResponseWriter, r *http.Request) {
	n, ok := s.lookupNode(w, r)
	if !ok {
		return
	}
	query := r.URL.Query()
	dir, ok := arch.ParseDirection(query.Get("direction"))
	if !ok {
		http.Error(w, "invalid direction parameter (use out, in or any)", http.StatusBadRequest)
		return
	}
	filter := arch.HopFilter{
		Edge:      splitList(query.Get("edge")),
		Node:      splitList(query.Get("node")),
		Direction: dir,
	}

	seq, err := s.rt.Store().Neighbors(n.ID(), filter)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	hops := []HopView{}
	for e, other := range seq {
		hops = append(hops, HopView{
			Edge:     e.ID().String(),
			EdgeArch: e.Architype().Name,
			Node:     other.ID().String(),
			NodeArch: other.Architype().Name,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"node":      n.ID().String(),
		"direction": dir.String(),
		"neighbors": hops,
		"count":     len(hops),
	})
}

// ListWalkers handles GET /walkers. ?state= narrows the list.
func (s *Server) ListWalkers(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	all := s.rt.Engine().Walkers()
	views := make([]WalkerView, 0, len(all))
	for _, wk := range all {
		if state != "" && wk.State().String() != state {
			continue
		}
		views = append(views, walkerView(wk))
	}
	writeJSON(w, http.StatusOK, map[string]any{"walkers": views, "count": len(views)})
}

// GetWalker handles GET /walkers/{id}.
func (s *Server) GetWalker(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	wk, ok := s.rt.Engine().Walker(id)
	if !ok {
		http.Error(w, "walker "+id+" not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, walkerView(wk))
}

func (s *Server) lookupNode(w http.ResponseWriter, r *http.Request) (*graphstore.Node, bool) {
	h, err := handle.Parse(chi.URLParam(r, "handle"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}
	if !h.IsNode() {
		http.Error(w, "handle "+h.String()+" is not a node", http.StatusBadRequest)
		return nil, false
	}
	n, err := s.rt.Store().Node(h)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return nil, false
	}
	return n, true
}

func (s *Server) nodeView(n *graphstore.Node) (NodeView, error) {
	fields, err := fieldValues(n.Fields())
	if err != nil {
		return NodeView{}, err
	}
	v := NodeView{Handle: n.ID().String(), Arch: n.Architype().Name, Fields: fields}
	incident, err := s.rt.Store().IncidentEdges(n.ID())
	if err != nil {
		return v, nil
	}
	for _, e := range incident {
		v.Edges = append(v.Edges, e.String())
	}
	return v, nil
}

func architypeView(a *arch.Architype) ArchitypeView {
	v := ArchitypeView{
		Kind:   a.Kind.String(),
		Name:   a.Name,
		Module: a.Module,
		Bases:  a.BaseNames,
	}
	if a.Kind == arch.KindEdge {
		directed := a.Directed
		v.Directed = &directed
	}
	for _, f := range a.EffectiveFields() {
		fv := FieldView{Name: f.Name, Type: f.Type.FriendlyName()}
		if f.Default != cty.NilVal && f.Default.IsWhollyKnown() {
			if raw, err := ctyjson.Marshal(f.Default, f.Default.Type()); err == nil {
				fv.Default = raw
			}
		}
		v.Fields = append(v.Fields, fv)
	}
	for _, ab := range a.EffectiveAbilities() {
		v.Abilities = append(v.Abilities, AbilityView{
			Name:     ab.Name,
			Owner:    ab.Owner.Name,
			Event:    ab.Signature.Event.String(),
			Filter:   ab.Signature.Filter,
			Abstract: ab.Abstract,
			Bound:    ab.Bound(),
			Module:   ab.DefModule,
		})
	}
	return v
}

func walkerView(wk *walker.Walker) WalkerView {
	v := WalkerView{
		ID:       wk.ID(),
		Arch:     wk.Architype().Name,
		State:    wk.State().String(),
		Position: wk.Position().String(),
		Steps:    wk.Steps(),
	}
	if fields, err := fieldValues(wk.Fields()); err == nil && len(fields) > 0 {
		v.Fields = fields
	}
	for _, h := range wk.Queue() {
		v.Queue = append(v.Queue, h.String())
	}
	for _, rep := range wk.Reports() {
		raw, err := ctyjson.Marshal(rep, rep.Type())
		if err != nil {
			raw, _ = json.Marshal(err.Error())
		}
		v.Reports = append(v.Reports, raw)
	}
	for _, err := range wk.Errors() {
		v.Errors = append(v.Errors, err.Error())
	}
	return v
}

// fieldValues renders every field with its own type so the JSON stays
// readable for dynamically typed fields.
func fieldValues(f *arch.Fields) (map[string]json.RawMessage, error) {
	out := make(map[string]json.RawMessage)
	for name, v := range f.Map() {
		if v.IsNull() {
			out[name] = json.RawMessage("null")
			continue
		}
		raw, err := ctyjson.Marshal(v, v.Type())
		if err != nil {
			return nil, err
		}
		out[name] = raw
	}
	return out, nil
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
