package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/evalify/internal/catalog"
	"github.com/mind-engage/evalify/internal/exam"
	"github.com/mind-engage/evalify/internal/formats"
)

// maxFeedBytes bounds PUT /feed bodies.
const maxFeedBytes = 8 << 20

type testSummary struct {
	exam.Test
	MaxMCQ   int `json:"max_mcq"`
	MaxTotal int `json:"max_total"`
}

func summarize(t exam.Test) testSummary {
	return testSummary{Test: t.Public(), MaxMCQ: t.MaxMCQ(), MaxTotal: t.MaxTotal()}
}

// ListTestsHandler serves the catalog without answer keys.
func ListTestsHandler(cat *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tests := cat.List()
		out := make([]testSummary, 0, len(tests))
		for _, t := range tests {
			out = append(out, summarize(t))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func GetTestHandler(cat *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := cat.Get(chi.URLParam(r, "testID"))
		if errors.Is(err, catalog.ErrTestNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, summarize(t))
	}
}

// ReplaceFeedHandler stores a new raw feed document (JSON array) and
// reloads the catalog. The response carries the normalization issues.
func ReplaceFeedHandler(cat *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxFeedBytes))
		if err != nil {
			http.Error(w, "read body", http.StatusBadRequest)
			return
		}
		if err := cat.Replace(r.Context(), body); err != nil {
			if _, derr := formats.DecodeJSON(body); derr != nil {
				http.Error(w, derr.Error(), http.StatusBadRequest)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, feedReport(cat))
	}
}

func FeedIssuesHandler(cat *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, feedReport(cat))
	}
}

func feedReport(cat *catalog.Catalog) map[string]interface{} {
	issues := cat.Issues()
	if issues == nil {
		issues = []formats.Issue{}
	}
	return map[string]interface{}{
		"tests":     len(cat.List()),
		"issues":    issues,
		"loaded_at": cat.LoadedAt(),
	}
}
