package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/wardle/snomed-terminology/ecl"
	"github.com/wardle/snomed-terminology/snomed"
	"github.com/wardle/snomed-terminology/terminology"
)

func parseID(r *http.Request, field string) (snomed.Identifier, error) {
	raw := r.PathValue(field)
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid identifier %q: %w", raw, err)
	}
	return snomed.Identifier(v), nil
}

func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func queryBool(r *http.Request, name string) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get(name))
	return v
}

// conceptView is the JSON shape returned for a concept, carrying its
// descriptions alongside it — the minimal enrichment the teacher's own
// "C" wrapper type provided in server/concepts.go.
type conceptView struct {
	*snomed.Concept
	Descriptions []*snomed.Description `json:"descriptions"`
}

func getConcept(svc *terminology.Svc, w http.ResponseWriter, r *http.Request) result {
	id, err := parseID(r, "id")
	if err != nil {
		return fail(http.StatusBadRequest, err)
	}
	c, descs, err := svc.GetConcept(id)
	if err == terminology.ErrNotFound {
		return fail(http.StatusNotFound, err)
	}
	if err != nil {
		return fail(http.StatusInternalServerError, err)
	}
	return ok(conceptView{Concept: c, Descriptions: descs})
}

func getParents(svc *terminology.Svc, w http.ResponseWriter, r *http.Request) result {
	id, err := parseID(r, "id")
	if err != nil {
		return fail(http.StatusBadRequest, err)
	}
	return ok(svc.GetParents(id))
}

func getChildren(svc *terminology.Svc, w http.ResponseWriter, r *http.Request) result {
	id, err := parseID(r, "id")
	if err != nil {
		return fail(http.StatusBadRequest, err)
	}
	return ok(svc.GetChildren(id))
}

func getDescendants(svc *terminology.Svc, w http.ResponseWriter, r *http.Request) result {
	id, err := parseID(r, "id")
	if err != nil {
		return fail(http.StatusBadRequest, err)
	}
	limit := queryInt(r, "limit", 0)
	includeSelf := queryBool(r, "includeSelf")
	return ok(svc.GetDescendants(id, limit, includeSelf))
}

func getAncestors(svc *terminology.Svc, w http.ResponseWriter, r *http.Request) result {
	id, err := parseID(r, "id")
	if err != nil {
		return fail(http.StatusBadRequest, err)
	}
	limit := queryInt(r, "limit", 0)
	includeSelf := queryBool(r, "includeSelf")
	return ok(svc.GetAncestors(id, limit, includeSelf))
}

func isDescendantOf(svc *terminology.Svc, w http.ResponseWriter, r *http.Request) result {
	id, err := parseID(r, "id")
	if err != nil {
		return fail(http.StatusBadRequest, err)
	}
	ancestorID, err := parseID(r, "ancestorId")
	if err != nil {
		return fail(http.StatusBadRequest, err)
	}
	return ok(svc.IsDescendantOf(id, ancestorID))
}

func searchHandler(svc *terminology.Svc, w http.ResponseWriter, r *http.Request) result {
	q := r.URL.Query().Get("q")
	if q == "" {
		return fail(http.StatusBadRequest, fmt.Errorf("missing required query parameter: q"))
	}
	limit := queryInt(r, "limit", 0)
	activeOnly := queryBool(r, "activeOnly")
	hits, err := svc.Search(q, limit, activeOnly)
	if err != nil {
		return fail(http.StatusInternalServerError, err)
	}
	return ok(hits)
}

// eclResultView is the JSON shape spec.md §6 specifies for executeEcl:
// {ids, totalCount, truncated, executionTimeMs}.
type eclResultView struct {
	IDs             []snomed.Identifier `json:"ids"`
	TotalCount      int                 `json:"totalCount"`
	Truncated       bool                `json:"truncated"`
	ExecutionTimeMs int64               `json:"executionTimeMs"`
}

type eclExecuteRequest struct {
	Expression     *eclNode `json:"expression"`
	Limit          int      `json:"limit"`
	IncludeDetails bool     `json:"includeDetails"`
}

func executeECL(svc *terminology.Svc, w http.ResponseWriter, r *http.Request) result {
	var req eclExecuteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return fail(http.StatusBadRequest, err)
	}
	if req.Expression == nil {
		return fail(http.StatusBadRequest, fmt.Errorf("missing required field: expression"))
	}
	node, err := req.Expression.toNode()
	if err != nil {
		return fail(http.StatusBadRequest, err)
	}
	res, err := svc.ExecuteECL(r.Context(), node, req.Limit, req.IncludeDetails)
	if err == ecl.ErrCancelled {
		return fail(http.StatusRequestTimeout, err)
	}
	if err != nil {
		return fail(http.StatusBadRequest, err)
	}
	return ok(eclResultView{
		IDs:             res.IDs,
		TotalCount:      res.TotalCount,
		Truncated:       res.Truncated,
		ExecutionTimeMs: res.ExecutionTime.Milliseconds(),
	})
}

func matchesECL(svc *terminology.Svc, w http.ResponseWriter, r *http.Request) result {
	id, err := parseID(r, "id")
	if err != nil {
		return fail(http.StatusBadRequest, err)
	}
	var node eclNode
	if err := json.NewDecoder(r.Body).Decode(&node); err != nil {
		return fail(http.StatusBadRequest, err)
	}
	expr, err := node.toNode()
	if err != nil {
		return fail(http.StatusBadRequest, err)
	}
	matched, err := svc.MatchesECL(r.Context(), id, expr)
	if err == ecl.ErrCancelled {
		return fail(http.StatusRequestTimeout, err)
	}
	if err != nil {
		return fail(http.StatusBadRequest, err)
	}
	return ok(matched)
}

func statistics(svc *terminology.Svc, w http.ResponseWriter, r *http.Request) result {
	return ok(svc.Statistics())
}
