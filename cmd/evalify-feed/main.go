// Command evalify-feed imports a test feed file (.json or .xlsx) into the
// feed slot and prints what the normalizer had to default.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/peterbourgon/ff/v3"

	"github.com/mind-engage/evalify/internal/config"
	"github.com/mind-engage/evalify/internal/db"
	"github.com/mind-engage/evalify/internal/formats"
	"github.com/mind-engage/evalify/internal/formats/xlsx"
	"github.com/mind-engage/evalify/internal/storage"
)

func main() {
	cfg := config.Load()

	fs := flag.NewFlagSet("evalify-feed", flag.ExitOnError)
	_ = fs.String("config", "", "config file (optional), json format")
	in := fs.String("in", "", "feed file to import (.json or .xlsx)")
	profile := fs.String("profile", "", "decoder profile; derived from the file extension when empty")
	sheets := fs.String("sheets", "", "comma separated sheet names to import (xlsx only)")
	dryRun := fs.Bool("dry-run", false, "print the report without writing the feed slot")
	fs.StringVar(&cfg.StoreDriver, "store", cfg.StoreDriver, "slot store: sql|fs")
	fs.StringVar(&cfg.DBDriver, "db-driver", cfg.DBDriver, "sql store driver: sqlite|postgres")
	fs.StringVar(&cfg.DBDSN, "db-dsn", cfg.DBDSN, "sql store dsn")
	fs.StringVar(&cfg.FeedSlot, "slot", cfg.FeedSlot, "feed slot name")
	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("EVALIFY"),
		ff.WithConfigFileFlag("config"),
		ff.WithConfigFileParser(ff.JSONParser),
	); err != nil {
		log.Fatalf("flags: %v", err)
	}
	if *in == "" {
		fs.Usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	raw, err := decodeFile(ctx, *in, *profile, *sheets)
	if err != nil {
		log.Fatalf("decode %s: %v", *in, err)
	}
	tests, issues := formats.NormalizeReport(raw)
	for i, t := range tests {
		fmt.Printf("%3d  %-20s %-30q %3d questions  %s\n", i, t.ID, t.Name, len(t.Questions), t.Duration)
	}
	for _, is := range issues {
		fmt.Println("  " + is.String())
	}
	if *dryRun {
		return
	}

	body, err := formats.EncodeFeed(raw)
	if err != nil {
		log.Fatalf("encode feed: %v", err)
	}
	kv, closeFn, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	defer closeFn()
	if err := kv.Put(ctx, cfg.FeedSlot, body); err != nil {
		log.Fatalf("write %s: %v", cfg.FeedSlot, err)
	}
	log.Printf("wrote %d tests (%d issues) to %s", len(tests), len(issues), cfg.FeedSlot)
}

func decodeFile(ctx context.Context, path, profile, sheets string) ([]formats.RawTest, error) {
	if profile == "" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".xlsx":
			profile = xlsx.Profile
		default:
			profile = formats.ProfileJSON
		}
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if profile == xlsx.Profile && sheets != "" {
		c := xlsx.DefaultConfig()
		for _, s := range strings.Split(sheets, ",") {
			if s = strings.TrimSpace(s); s != "" {
				c.Sheets = append(c.Sheets, s)
			}
		}
		return xlsx.New(c).Decode(ctx, f)
	}
	return formats.Decode(ctx, profile, f)
}

func openStore(ctx context.Context, cfg config.Config) (storage.KV, func(), error) {
	switch cfg.StoreDriver {
	case config.StoreSQL:
		dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
		if err != nil {
			return nil, nil, err
		}
		return storage.NewSQLKV(dbh), func() { dbh.Close() }, nil
	case config.StoreFS:
		kv, err := storage.NewFSKV(cfg.StoreBasePath)
		return kv, func() {}, err
	}
	return nil, nil, fmt.Errorf("store %q cannot hold an imported feed", cfg.StoreDriver)
}
