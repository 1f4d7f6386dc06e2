package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	auth "github.com/mind-engage/evalify/internal/auth/middleware"
	"github.com/mind-engage/evalify/internal/exam"
	"github.com/mind-engage/evalify/internal/ledger"
	"github.com/mind-engage/evalify/internal/rbac"
)

var checker = rbac.NewChecker(nil)

// viewerEmail is the email a learner is limited to. Roles that may read
// every result get "" (no restriction).
func viewerEmail(r *http.Request) (email string, restricted bool) {
	role := rbac.RoleFromContext(r.Context())
	if checker.Has(role, rbac.PermResultsAll) {
		return "", false
	}
	return auth.EmailFromContext(r.Context()), true
}

// ListResultsHandler serves GET /results, newest first. ?email= filters;
// learners whose token carries an email only ever see their own results.
func ListResultsHandler(l *ledger.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email := strings.TrimSpace(r.URL.Query().Get("email"))
		if own, restricted := viewerEmail(r); restricted {
			if own != "" {
				email = own
			}
			if email == "" {
				http.Error(w, "email required", http.StatusBadRequest)
				return
			}
		}

		var out []exam.Result
		if email == "" {
			out = l.All()
		} else {
			out = l.ForLearner(email)
		}
		if limit := parseIntDefault(r.URL.Query().Get("limit"), 0); limit > 0 && limit < len(out) {
			out = out[:limit]
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func GetResultHandler(l *ledger.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, ok := l.Find(chi.URLParam(r, "resultID"))
		if own, restricted := viewerEmail(r); ok && restricted && own != "" &&
			!strings.EqualFold(strings.TrimSpace(res.LearnerEmail), own) {
			ok = false
		}
		if !ok {
			http.Error(w, "result not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}
