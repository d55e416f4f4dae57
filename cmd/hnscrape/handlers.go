package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"hnscrape/internal/config"
	"hnscrape/internal/pipeline"
	"hnscrape/internal/scheduler"
	"hnscrape/internal/store"
	"hnscrape/pkg/export"
	"hnscrape/pkg/fetch"
	"hnscrape/pkg/scrape"
)

func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

// newLogger builds the process logger: stderr, plus an append-mode log
// file when configured.
func newLogger(cfg *config.Config) (*slog.Logger, func(), error) {
	var w io.Writer = os.Stderr
	closer := func() {}

	if cfg.Log.Path != "" {
		f, err := os.OpenFile(cfg.Log.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file %s: %w", cfg.Log.Path, err)
		}
		w = io.MultiWriter(os.Stderr, f)
		closer = func() { f.Close() }
	}

	return slog.New(slog.NewTextHandler(w, nil)), closer, nil
}

func buildExporters(cfg *config.Config, formats ...export.Format) ([]export.Exporter, error) {
	paths := map[export.Format]string{
		export.FormatCSV:  cfg.Export.CSVPath,
		export.FormatXLSX: cfg.Export.XLSXPath,
	}

	var out []export.Exporter
	for _, f := range formats {
		ex, err := export.New(f, paths[f])
		if err != nil {
			return nil, err
		}
		out = append(out, ex)
	}
	return out, nil
}

func buildRunner(cfg *config.Config, db store.Store, logger *slog.Logger) (*pipeline.Runner, error) {
	parser, err := scrape.NewParser(cfg.Scrape.BaseURL)
	if err != nil {
		return nil, err
	}

	fetcher := fetch.New(fetch.Config{
		Timeout:   cfg.Fetch.ParseTimeout(),
		UserAgent: cfg.Fetch.UserAgent,
		Retry: fetch.RetryPolicy{
			MaxAttempts:    cfg.Fetch.MaxAttempts,
			InitialBackoff: cfg.Fetch.ParseInitialBackoff(),
			MaxBackoff:     cfg.Fetch.ParseMaxBackoff(),
			Jitter:         500 * time.Millisecond,
		},
	}, logger)

	var feed *scrape.FeedReader
	if cfg.Feed.Enabled && cfg.Feed.URL != "" {
		feed = scrape.NewFeedReader(cfg.Feed.URL)
	}

	exporters, err := buildExporters(cfg, export.FormatCSV, export.FormatXLSX)
	if err != nil {
		return nil, err
	}

	return pipeline.New(pipeline.Options{
		Fetcher:   fetcher,
		Parser:    parser,
		Feed:      feed,
		Store:     db,
		Exporters: exporters,
		BaseURL:   cfg.Scrape.BaseURL,
		Pages:     cfg.Scrape.Pages,
		PageDelay: cfg.Scrape.ParsePageDelay(),
		Logger:    logger,
	}), nil
}

func runScrape() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, closeLog, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	runner, err := buildRunner(cfg, db, logger)
	if err != nil {
		return err
	}

	sum, err := runner.Run(context.Background())
	if sum != nil {
		fmt.Printf("pages ok: %d, failed: %d | stories this run: %d | exports: %s\n",
			sum.PagesOK, sum.PagesFailed, sum.Stories, strings.Join(sum.Exported, ", "))
	}
	return err
}

func runExport(format string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, closeLog, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	var formats []export.Format
	switch strings.ToLower(format) {
	case "csv":
		formats = []export.Format{export.FormatCSV}
	case "xlsx":
		formats = []export.Format{export.FormatXLSX}
	case "all", "":
		formats = []export.Format{export.FormatCSV, export.FormatXLSX}
	default:
		return fmt.Errorf("unknown format %q (want csv, xlsx or all)", format)
	}

	exporters, err := buildExporters(cfg, formats...)
	if err != nil {
		return err
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	paths, err := pipeline.Export(context.Background(), db, exporters, logger)
	if err != nil {
		return err
	}
	fmt.Printf("exported: %s\n", strings.Join(paths, ", "))
	return nil
}

func runStats(limit int) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	total, err := db.CountStories(ctx)
	if err != nil {
		return err
	}
	stories, err := db.ListStories(ctx, store.ListOpts{Limit: limit})
	if err != nil {
		return err
	}

	fmt.Printf("stories in db: %d\n\n", total)
	if len(stories) == 0 {
		fmt.Println("nothing stored yet (run: hnscrape)")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tPOINTS\tCOMMENTS\tTITLE\tAUTHOR\tSCRAPED")
	for _, st := range stories {
		fmt.Fprintf(w, "%d\t%d\t%d\t%s\t%s\t%s\n",
			st.Rank, st.Points, st.CommentCount, st.Title, st.Author,
			st.ScrapedAt.Format(time.RFC3339))
	}
	return w.Flush()
}

func runDaemon() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, closeLog, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	runner, err := buildRunner(cfg, db, logger)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sched := scheduler.New(runner, cfg.Schedule.ParseInterval(), logger)
	if err := sched.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
