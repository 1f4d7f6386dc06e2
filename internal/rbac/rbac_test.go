package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChecker_DefaultPolicy(t *testing.T) {
	c := NewChecker(nil)
	cases := []struct {
		role, perm string
		want       bool
	}{
		{RoleLearner, PermTestsView, true},
		{RoleLearner, PermSessionUse, true},
		{RoleLearner, PermResultsOwn, true},
		{RoleLearner, PermResultsAll, false},
		{RoleLearner, PermFeedWrite, false},
		{RoleAuthor, PermTestsView, true},
		{RoleAuthor, PermResultsAll, true},
		{RoleAuthor, PermFeedWrite, true},
		{RoleAuthor, PermSessionUse, false},
		{"", PermTestsView, false},
		{"admin", PermTestsView, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, c.Has(tc.role, tc.perm), "%s %s", tc.role, tc.perm)
	}
	assert.True(t, c.Any(RoleLearner, PermFeedWrite, PermResultsOwn))
	assert.True(t, NewChecker(map[string][]string{"root": {"*"}}).Has("root", "anything"))
}

func TestRequire(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	for role, want := range map[string]int{
		RoleAuthor:  http.StatusOK,
		RoleLearner: http.StatusForbidden,
		"":          http.StatusForbidden,
	} {
		req := httptest.NewRequest(http.MethodPut, "/feed", nil)
		req = req.WithContext(WithRole(req.Context(), role))
		rec := httptest.NewRecorder()
		Require(PermFeedWrite)(ok).ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code, role)

		rec = httptest.NewRecorder()
		RequireAny(PermFeedWrite, PermResultsOwn)(ok).ServeHTTP(rec, req)
		if role == "" {
			assert.Equal(t, http.StatusForbidden, rec.Code)
		} else {
			assert.Equal(t, http.StatusOK, rec.Code, role)
		}
	}
}
