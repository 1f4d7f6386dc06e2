package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

const (
	StoreSQL    = "sql"
	StoreFS     = "fs"
	StoreMemory = "memory"

	EvaluatorFixed = "fixed"
	EvaluatorOCR   = "ocr"
)

type Config struct {
	Mode     Mode
	HTTPAddr string

	DBDriver string
	DBDSN    string

	StoreDriver   string // sql|fs|memory
	StoreBasePath string // for fs
	BlobBasePath  string // uploads

	FeedSlot    string
	LedgerSlot  string
	FeedRefresh time.Duration // 0 disables

	Evaluator       string // fixed|ocr
	FixedSubjective int
	OCRLang         string
	OCRKeywords     []string

	AuthHMACSecret  string
	EnableLocalAuth bool
	LearnerPassHash string // bcrypt
	AuthorPassHash  string // bcrypt

	CORSOrigins []string
}

// Load reads files (default ".env") into the environment, without
// overriding variables already set, then calls FromEnv. Missing files are
// not an error.
func Load(files ...string) Config {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			_ = godotenv.Load(f)
		}
	}
	return FromEnv()
}

func FromEnv() Config {
	mode := Mode(envOr("MODE", string(ModeOffline)))
	defOrigins := "http://localhost:3000"
	if mode == ModeOnline {
		defOrigins = ""
	}
	return Config{
		Mode:            mode,
		HTTPAddr:        envOr("HTTP_ADDR", ":8080"),
		DBDriver:        envOr("DB_DRIVER", "sqlite"),
		DBDSN:           envOr("DB_DSN", ""),
		StoreDriver:     envOr("STORE_DRIVER", StoreSQL),
		StoreBasePath:   envOr("STORE_BASE_PATH", "./data/slots"),
		BlobBasePath:    envOr("BLOB_BASE_PATH", "./data/uploads"),
		FeedSlot:        envOr("FEED_SLOT", "teacher_tests"),
		LedgerSlot:      envOr("LEDGER_SLOT", "evalify_results"),
		FeedRefresh:     envDuration("FEED_REFRESH", 0),
		Evaluator:       envOr("EVALUATOR", EvaluatorFixed),
		FixedSubjective: envInt("FIXED_SUBJECTIVE", 14),
		OCRLang:         envOr("OCR_LANG", "eng"),
		OCRKeywords:     csvOr("OCR_KEYWORDS", ""),
		AuthHMACSecret:  envOr("AUTH_HMAC_SECRET", "dev-secret-change-me"),
		EnableLocalAuth: envBool("ENABLE_LOCAL_AUTH", mode == ModeOffline),
		// an empty hash disables local login for that role
		LearnerPassHash: envOr("LEARNER_PASS_HASH", ""),
		AuthorPassHash:  envOr("AUTHOR_PASS_HASH", ""),
		CORSOrigins:     csvOr("CORS_ORIGINS", defOrigins),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}

func envInt(k string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(os.Getenv(k)))
	if err != nil {
		return def
	}
	return n
}

func envDuration(k string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(os.Getenv(k)))
	if err != nil {
		return def
	}
	return d
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
