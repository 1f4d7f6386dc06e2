package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/peterbourgon/ff/v3"

	api "github.com/mind-engage/evalify/internal/api/http"
	"github.com/mind-engage/evalify/internal/attempt"
	auth "github.com/mind-engage/evalify/internal/auth/middleware"
	"github.com/mind-engage/evalify/internal/catalog"
	"github.com/mind-engage/evalify/internal/config"
	"github.com/mind-engage/evalify/internal/db"
	"github.com/mind-engage/evalify/internal/grading"
	"github.com/mind-engage/evalify/internal/grading/ocr"
	"github.com/mind-engage/evalify/internal/ledger"
	"github.com/mind-engage/evalify/internal/rbac"
	"github.com/mind-engage/evalify/internal/storage"
	syncx "github.com/mind-engage/evalify/internal/sync"
)

func main() {
	cfg := config.Load()

	fs := flag.NewFlagSet("evalifyd", flag.ExitOnError)
	_ = fs.String("config", "", "config file (optional), json format")
	fs.StringVar(&cfg.HTTPAddr, "addr", cfg.HTTPAddr, "listen address")
	fs.StringVar(&cfg.StoreDriver, "store", cfg.StoreDriver, "slot store: sql|fs|memory")
	fs.StringVar(&cfg.DBDriver, "db-driver", cfg.DBDriver, "sql store driver: sqlite|postgres")
	fs.StringVar(&cfg.DBDSN, "db-dsn", cfg.DBDSN, "sql store dsn")
	fs.StringVar(&cfg.Evaluator, "evaluator", cfg.Evaluator, "upload evaluator: fixed|ocr")
	fs.DurationVar(&cfg.FeedRefresh, "feed-refresh", cfg.FeedRefresh, "reload the test feed this often (0 disables)")
	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("EVALIFY"),
		ff.WithConfigFileFlag("config"),
		ff.WithConfigFileParser(ff.JSONParser),
	); err != nil {
		log.Fatalf("flags: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Storage ---
	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	kv, dbh, err := openStore(openCtx, cfg)
	cancel()
	if err != nil {
		log.Fatalf("store open failed: %v", err)
	}
	if dbh != nil {
		defer dbh.Close()
	}
	blobs, err := storage.NewFSStore(cfg.BlobBasePath)
	if err != nil {
		log.Fatalf("blob store: %v", err)
	}

	// --- Core ---
	cat := catalog.New(kv, cfg.FeedSlot)
	if err := cat.Reload(ctx); err != nil {
		log.Printf("catalog: %v; serving an empty catalog", err)
	}
	stopRefresh, err := cat.StartRefresh(ctx, cfg.FeedRefresh)
	if err != nil {
		log.Fatalf("catalog refresh: %v", err)
	}
	defer stopRefresh()

	results := ledger.New(kv, cfg.LedgerSlot)
	log.Printf("ledger: %d results loaded from %s", len(results.Load(ctx)), cfg.LedgerSlot)
	if dbh != nil {
		results.OnAppend(syncx.NewEventRepo(dbh, "").RecordResult)
	}

	sessions := attempt.NewManager(attempt.Deps{
		Engine:    grading.NewEngine(),
		Evaluator: newEvaluator(cfg, blobs),
		Ledger:    results,
	})

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	// an empty origin list would mean "*" to cors, so no origins means no cors
	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
			AllowedHeaders:   []string{"Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	deps := api.Deps{
		Auth:     auth.NewAuthService(cfg.AuthHMACSecret),
		Catalog:  cat,
		Sessions: sessions,
		Ledger:   results,
		Blobs:    blobs,
	}
	// Local login (offline by default)
	if cfg.EnableLocalAuth {
		deps.Accounts = auth.LocalAccounts{
			rbac.RoleLearner: cfg.LearnerPassHash,
			rbac.RoleAuthor:  cfg.AuthorPassHash,
		}
	}
	api.Mount(r, deps)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutCtx)
	}()

	log.Printf("listening on %s (mode=%s, store=%s, evaluator=%s)", cfg.HTTPAddr, cfg.Mode, cfg.StoreDriver, cfg.Evaluator)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}

// openStore returns the slot store and, for the sql driver, the db handle
// that also backs the event journal.
func openStore(ctx context.Context, cfg config.Config) (storage.KV, *sql.DB, error) {
	switch cfg.StoreDriver {
	case config.StoreSQL:
		dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
		if err != nil {
			return nil, nil, err
		}
		return storage.NewSQLKV(dbh), dbh, nil
	case config.StoreFS:
		kv, err := storage.NewFSKV(cfg.StoreBasePath)
		return kv, nil, err
	case config.StoreMemory:
		return storage.NewMemoryKV(), nil, nil
	}
	return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

func newEvaluator(cfg config.Config, blobs storage.BlobStore) grading.Evaluator {
	if cfg.Evaluator == config.EvaluatorOCR {
		t := ocr.NewTesseract(cfg.OCRLang)
		if t.Available() {
			return grading.NewOCREvaluator(t, blobs, grading.WithKeywords(cfg.OCRKeywords))
		}
		log.Printf("grading: tesseract not found; falling back to fixed score %d", cfg.FixedSubjective)
	}
	return grading.Fixed(cfg.FixedSubjective)
}
