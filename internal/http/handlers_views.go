package http

import (
	"fmt"
	"net/http"
	"strings"

	"revtrack/internal/core"
)

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	entries, err := ParseEntryFilter(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	calls, err := ParseCallFilter(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.data.Summary(entries, calls))
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	entries, err := ParseEntryFilter(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	calls, err := ParseCallFilter(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.data.Analytics(entries, calls))
}

type bucketResponse struct {
	Type  core.Granularity `json:"type"`
	Key   core.BucketKey   `json:"key"`
	Start core.Date        `json:"start"`
	End   core.Date        `json:"end"`
}

// handleBuckets resolves ?date= (default today) to its bucket, or expands
// ?key= to its date range, for ?type= (default monthly).
func (s *Server) handleBuckets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	g := core.Monthly
	if t := strings.TrimSpace(q.Get("type")); t != "" {
		var err error
		if g, err = core.ParseGranularity(t); err != nil {
			writeError(w, r, err)
			return
		}
	}

	key := core.BucketKey(strings.TrimSpace(q.Get("key")))
	if key == "" {
		d := core.DateOf(s.data.Now())
		if v := strings.TrimSpace(q.Get("date")); v != "" {
			var err error
			if d, err = core.ParseDate(v); err != nil {
				writeError(w, r, err)
				return
			}
		}
		key = core.ResolveBucket(d, g)
	}

	rng, err := core.BucketRange(key, g)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bucketResponse{Type: g, Key: key, Start: rng.Start, End: rng.End})
}

func (s *Server) handleConsistency(w http.ResponseWriter, r *http.Request) {
	drift := s.data.Consistency()
	if drift == nil {
		drift = []core.Drift{}
	}
	writeJSON(w, http.StatusOK, struct {
		Consistent bool         `json:"consistent"`
		Drift      []core.Drift `json:"drift"`
	}{len(drift) == 0, drift})
}

func (s *Server) handleRepairConsistency(w http.ResponseWriter, r *http.Request) {
	fixed, err := s.data.RepairConversions(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if fixed == nil {
		fixed = []core.Drift{}
	}
	writeJSON(w, http.StatusOK, struct {
		Repaired []core.Drift `json:"repaired"`
	}{fixed})
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.data.Catalog())
}

func (s *Server) handleCatalogCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.data.Catalog().Categories)
}

func (s *Server) handleCatalogTemplates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.data.Catalog().GoalTemplates)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.data.Ping(r.Context()); err != nil {
		ErrorResponse(r, http.StatusServiceUnavailable, fmt.Sprintf("storage unavailable: %v", err)).Write(w)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
