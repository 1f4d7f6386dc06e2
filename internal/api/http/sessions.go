package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/evalify/internal/attempt"
	"github.com/mind-engage/evalify/internal/catalog"
	"github.com/mind-engage/evalify/internal/grading"
)

// statusFor maps core errors to HTTP codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, attempt.ErrSessionNotFound), errors.Is(err, catalog.ErrTestNotFound):
		return http.StatusNotFound
	case errors.Is(err, attempt.ErrNotAttempting):
		return http.StatusConflict
	case errors.Is(err, grading.ErrInvalidSubmission):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func fail(w http.ResponseWriter, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		log.Printf("api: %v", err)
	}
	http.Error(w, err.Error(), code)
}

func session(w http.ResponseWriter, r *http.Request, m *attempt.Manager) (*attempt.Session, bool) {
	s, err := m.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		fail(w, err)
		return nil, false
	}
	return s, true
}

func OpenSessionHandler(m *attempt.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, s := m.Open()
		writeJSON(w, http.StatusCreated, map[string]interface{}{"id": id, "session": s.View()})
	}
}

func GetSessionHandler(m *attempt.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s, ok := session(w, r, m); ok {
			writeJSON(w, http.StatusOK, s.View())
		}
	}
}

// SelectTestHandler starts a fresh attempt: POST {"test_id": "..."}.
func SelectTestHandler(m *attempt.Manager, cat *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := session(w, r, m)
		if !ok {
			return
		}
		var req struct {
			TestID string `json:"test_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TestID == "" {
			http.Error(w, "test_id required", http.StatusBadRequest)
			return
		}
		t, err := cat.Get(req.TestID)
		if err != nil {
			fail(w, err)
			return
		}
		s.Select(t)
		writeJSON(w, http.StatusOK, s.View())
	}
}

func BrowseHandler(m *attempt.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s, ok := session(w, r, m); ok {
			s.Browse()
			writeJSON(w, http.StatusOK, s.View())
		}
	}
}

// SetIdentityHandler takes {"name": "...", "email": "..."}. Omitted fields
// keep their current value.
func SetIdentityHandler(m *attempt.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := session(w, r, m)
		if !ok {
			return
		}
		var req struct {
			Name  *string `json:"name"`
			Email *string `json:"email"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if req.Name != nil {
			if err := s.SetName(*req.Name); err != nil {
				fail(w, err)
				return
			}
		}
		if req.Email != nil {
			if err := s.SetEmail(*req.Email); err != nil {
				fail(w, err)
				return
			}
		}
		writeJSON(w, http.StatusOK, s.View())
	}
}

// SaveAnswersHandler merges {"<question id>": "<option key>"} into the attempt.
func SaveAnswersHandler(m *attempt.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := session(w, r, m)
		if !ok {
			return
		}
		var answers map[string]string
		if err := json.NewDecoder(r.Body).Decode(&answers); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		for qid, key := range answers {
			if err := s.Answer(qid, key); err != nil {
				if errors.Is(err, attempt.ErrNotAttempting) {
					fail(w, err)
				} else {
					http.Error(w, err.Error(), http.StatusBadRequest)
				}
				return
			}
		}
		writeJSON(w, http.StatusOK, s.View())
	}
}

// SubmitHandler returns 201 with the result, or 422 when name or email is
// missing (the attempt stays open).
func SubmitHandler(m *attempt.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := session(w, r, m)
		if !ok {
			return
		}
		res, err := s.Submit(r.Context())
		if err != nil {
			fail(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, res)
	}
}
