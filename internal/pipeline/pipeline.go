package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"hnscrape/internal/store"
	"hnscrape/pkg/export"
	"hnscrape/pkg/fetch"
	"hnscrape/pkg/scrape"
)

// Summary reports the outcome of one scrape run.
type Summary struct {
	PagesOK     int
	PagesFailed int
	Stories     int
	Exported    []string
}

// Options wires a Runner.
type Options struct {
	Fetcher   *fetch.Client
	Parser    *scrape.Parser
	Feed      *scrape.FeedReader // nil disables feed ingest
	Store     store.Store
	Exporters []export.Exporter
	BaseURL   string
	Pages     int
	PageDelay time.Duration
	Logger    *slog.Logger
}

// Runner drives one end-to-end scrape: fetch listing pages, parse them,
// upsert every record in a single transaction, then export.
type Runner struct {
	fetcher   *fetch.Client
	parser    *scrape.Parser
	feed      *scrape.FeedReader
	store     store.Store
	exporters []export.Exporter
	baseURL   string
	pages     int
	pageDelay time.Duration
	log       *slog.Logger
}

// New creates a Runner.
func New(opts Options) *Runner {
	if opts.Pages <= 0 {
		opts.Pages = 1
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if !strings.HasSuffix(opts.BaseURL, "/") {
		opts.BaseURL += "/"
	}
	return &Runner{
		fetcher:   opts.Fetcher,
		parser:    opts.Parser,
		feed:      opts.Feed,
		store:     opts.Store,
		exporters: opts.Exporters,
		baseURL:   opts.BaseURL,
		pages:     opts.Pages,
		pageDelay: opts.PageDelay,
		log:       opts.Logger,
	}
}

// Run performs one scrape. A fetch or parse failure on one page is
// logged and the run continues with the next page; a 404 or an empty
// listing ends pagination early. All collected records are stored as one
// atomic unit; a store failure aborts the run before export.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	sum := &Summary{}
	now := time.Now().UTC()
	var run []scrape.Story

	for page := 1; page <= r.pages; page++ {
		pageURL := r.pageURL(page)
		r.log.Info("scraping page", "page", page, "url", pageURL)

		body, err := r.fetcher.Get(ctx, pageURL)
		if err != nil {
			var fe *fetch.Error
			if errors.As(err, &fe) && fe.Status == http.StatusNotFound {
				r.log.Info("page not found, stopping pagination", "page", page)
				break
			}
			r.log.Error("page fetch failed", "page", page, "err", err)
			sum.PagesFailed++
			continue
		}

		stories, err := r.parser.ParseListing(body)
		if err != nil {
			var pe *scrape.ParseError
			if page > 1 && errors.As(err, &pe) && pe.Missing == scrape.ListingRowSelector {
				r.log.Info("empty page, stopping pagination", "page", page)
				break
			}
			r.log.Error("page parse failed", "page", page, "err", err)
			sum.PagesFailed++
			continue
		}

		r.log.Info("parsed page", "page", page, "stories", len(stories))
		run = append(run, stories...)
		sum.PagesOK++

		if page < r.pages && r.pageDelay > 0 {
			select {
			case <-ctx.Done():
				return sum, ctx.Err()
			case <-time.After(r.pageDelay):
			}
		}
	}

	if r.feed != nil {
		stories, err := r.feed.Fetch(ctx)
		if err != nil {
			r.log.Error("feed fetch failed", "err", err)
		} else {
			r.log.Info("fetched feed", "stories", len(stories))
			run = append(run, stories...)
		}
	}

	if sum.PagesOK == 0 && len(run) == 0 {
		return sum, fmt.Errorf("no pages scraped (%d failed)", sum.PagesFailed)
	}

	for i := range run {
		run[i].ScrapedAt = now
	}
	sum.Stories = len(run)

	if err := r.store.UpsertStories(ctx, run); err != nil {
		r.log.Error("store run failed", "stories", len(run), "err", err)
		return sum, err
	}
	r.log.Info("stored run", "stories", len(run))

	exported, err := Export(ctx, r.store, r.exporters, r.log)
	sum.Exported = exported
	r.log.Info("run finished",
		"pages_ok", sum.PagesOK, "pages_failed", sum.PagesFailed,
		"stories", sum.Stories, "exported", len(exported))
	return sum, err
}

// Export writes the full current store contents with every exporter. All
// exporters run even if an earlier one fails; failures are joined so a
// partial export still surfaces as an error.
func Export(ctx context.Context, st store.Store, exporters []export.Exporter, log *slog.Logger) ([]string, error) {
	stories, err := st.ListStories(ctx, store.ListOpts{})
	if err != nil {
		return nil, err
	}

	var (
		done []string
		errs []error
	)
	for _, ex := range exporters {
		if err := ex.Export(stories); err != nil {
			log.Error("export failed", "format", ex.Format(), "path", ex.Path(), "err", err)
			errs = append(errs, err)
			continue
		}
		log.Info("export ok", "format", ex.Format(), "path", ex.Path(), "rows", len(stories))
		done = append(done, ex.Path())
	}
	return done, errors.Join(errs...)
}

func (r *Runner) pageURL(page int) string {
	if page == 1 {
		return r.baseURL
	}
	return fmt.Sprintf("%snews?p=%d", r.baseURL, page)
}
