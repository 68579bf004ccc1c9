// Package server is a thin net/http + encoding/json adapter over
// terminology.Svc: one handler per query-surface operation (spec.md §6),
// CORS-enabled the way the teacher's HTTP gateway was. TLS, auth, health
// checks and streaming responses are out of scope — this is the "thin
// adapter over the core", not a production RPC stack.
package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/rs/cors"

	"github.com/wardle/snomed-terminology/terminology"
)

// result is the outcome of one handler: either a JSON-encodable value or an
// HTTP status plus error, mirroring the teacher's result/handler split.
type result struct {
	v      interface{}
	err    error
	status int
}

func ok(v interface{}) result { return result{v: v, status: http.StatusOK} }

func fail(status int, err error) result { return result{err: err, status: status} }

func (r result) hasError() bool { return r.status >= 400 }

func (r result) error() error {
	if r.err != nil {
		return r.err
	}
	if r.hasError() {
		return errors.New(http.StatusText(r.status))
	}
	return nil
}

type handlerFunc func(svc *terminology.Svc, w http.ResponseWriter, r *http.Request) result

type handler struct {
	fn  handlerFunc
	svc *terminology.Svc
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	res := h.fn(h.svc, w, r)
	if res.hasError() {
		http.Error(w, res.error().Error(), res.status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(res.v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// NewMux builds the HTTP routing for svc's query surface, wrapped in CORS.
func NewMux(svc *terminology.Svc) http.Handler {
	mux := http.NewServeMux()
	route := func(pattern string, fn handlerFunc) {
		mux.Handle(pattern, &handler{fn: fn, svc: svc})
	}
	route("GET /concepts/{id}", getConcept)
	route("GET /concepts/{id}/parents", getParents)
	route("GET /concepts/{id}/children", getChildren)
	route("GET /concepts/{id}/descendants", getDescendants)
	route("GET /concepts/{id}/ancestors", getAncestors)
	route("GET /concepts/{id}/descendant-of/{ancestorId}", isDescendantOf)
	route("GET /search", searchHandler)
	route("POST /ecl/execute", executeECL)
	route("POST /ecl/matches/{id}", matchesECL)
	route("GET /statistics", statistics)

	return cors.New(cors.Options{
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
	}).Handler(mux)
}

// RunServer listens on addr, serving svc's query surface until the process
// is terminated or listening fails.
func RunServer(svc *terminology.Svc, addr string) error {
	log.Printf("server: listening on %s", addr)
	return http.ListenAndServe(addr, NewMux(svc))
}
