package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/evalify/internal/attempt"
	auth "github.com/mind-engage/evalify/internal/auth/middleware"
	"github.com/mind-engage/evalify/internal/catalog"
	"github.com/mind-engage/evalify/internal/ledger"
	"github.com/mind-engage/evalify/internal/rbac"
	"github.com/mind-engage/evalify/internal/storage"
)

type Deps struct {
	Auth     *auth.AuthService
	Accounts auth.LocalAccounts // nil disables POST /auth/login
	Catalog  *catalog.Catalog
	Sessions *attempt.Manager
	Ledger   *ledger.Ledger
	Blobs    storage.BlobStore
}

// Mount registers every route on r. Everything except login and health
// checks sits behind the JWT gate.
func Mount(r chi.Router, d Deps) {
	if d.Accounts != nil {
		r.Post("/auth/login", auth.LoginHandler(d.Auth, d.Accounts))
	}

	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(d.Auth))

		pr.With(rbac.Require(rbac.PermTestsView)).Get("/tests", ListTestsHandler(d.Catalog))
		pr.With(rbac.Require(rbac.PermTestsView)).Get("/tests/{testID}", GetTestHandler(d.Catalog))

		pr.With(rbac.Require(rbac.PermFeedWrite)).Put("/feed", ReplaceFeedHandler(d.Catalog))
		pr.With(rbac.Require(rbac.PermFeedWrite)).Get("/feed/issues", FeedIssuesHandler(d.Catalog))

		pr.Route("/sessions", func(sr chi.Router) {
			sr.Use(rbac.Require(rbac.PermSessionUse))
			sr.Post("/", OpenSessionHandler(d.Sessions))
			sr.Get("/{sessionID}", GetSessionHandler(d.Sessions))
			sr.Post("/{sessionID}/select", SelectTestHandler(d.Sessions, d.Catalog))
			sr.Post("/{sessionID}/browse", BrowseHandler(d.Sessions))
			sr.Put("/{sessionID}/identity", SetIdentityHandler(d.Sessions))
			sr.Put("/{sessionID}/answers", SaveAnswersHandler(d.Sessions))
			sr.With(rbac.Require(rbac.PermUploadWrite)).
				Post("/{sessionID}/upload", UploadHandler(d.Sessions, d.Blobs))
			sr.Post("/{sessionID}/submit", SubmitHandler(d.Sessions))
		})

		pr.With(rbac.RequireAny(rbac.PermResultsOwn, rbac.PermResultsAll)).
			Get("/results", ListResultsHandler(d.Ledger))
		pr.With(rbac.RequireAny(rbac.PermResultsOwn, rbac.PermResultsAll)).
			Get("/results/{resultID}", GetResultHandler(d.Ledger))

		if d.Blobs != nil {
			pr.Route("/assets", func(ar chi.Router) {
				ar.Use(rbac.Require(rbac.PermResultsAll))
				MountAssets(ar, d.Blobs)
			})
		}
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	// ready once the feed has been read at least once
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if d.Catalog.LoadedAt().IsZero() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
}
