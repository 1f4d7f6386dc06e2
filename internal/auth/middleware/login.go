package auth

import (
	"encoding/json"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/mind-engage/evalify/internal/rbac"
)

// LocalAccounts maps a role to the bcrypt hash of its shared dev password.
// A role with an empty hash cannot log in.
type LocalAccounts map[string]string

// LoginHandler serves POST /auth/login for offline and development use:
// {"username": "...", "password": "...", "role": "learner|author"}.
//
// Accounts are one shared password per role, so nothing ties a caller to
// an address. Issued tokens carry no email claim and an "email" field in
// the request is ignored; learners holding such a token must name the
// address they query. Deployments that pin learners to their own results
// issue tokens from a real identity provider instead.
func LoginHandler(a *AuthService, accounts LocalAccounts) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
			Role     string `json:"role"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		req.Username = strings.TrimSpace(req.Username)
		if req.Role == "" {
			req.Role = rbac.RoleLearner
		}
		hash := accounts[req.Role]
		if req.Username == "" || hash == "" ||
			bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)) != nil {
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		tok, err := a.IssueJWT(req.Username, req.Role, "")
		if err != nil {
			http.Error(w, "issue token", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": tok, "role": req.Role})
	}
}
