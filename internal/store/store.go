package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"hnscrape/pkg/scrape"
)

// Error is a storage failure: I/O, lock contention, constraint violation.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return fmt.Sprintf("store: %s: %v", e.Op, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

// ListOpts controls story listing.
type ListOpts struct {
	Limit int // <= 0 returns everything
}

// Store is the persistence interface.
type Store interface {
	UpsertStories(ctx context.Context, stories []scrape.Story) error
	GetStory(ctx context.Context, id int64) (*scrape.Story, error)
	ListStories(ctx context.Context, opts ListOpts) ([]scrape.Story, error)
	CountStories(ctx context.Context) (int, error)
	Close() error
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sqlx.DB
}

// New opens a SQLite database and runs migrations.
func New(path string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// UpsertStories applies one scrape run as a single transaction: either
// every record of the run becomes durable or none of them do. Known ids
// keep their title/url/author/first_seen; rank, points, comment count,
// age and scraped_at are refreshed.
func (s *SQLiteStore) UpsertStories(ctx context.Context, stories []scrape.Story) error {
	if len(stories) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return &Error{Op: "begin run", Err: err}
	}
	defer tx.Rollback()

	for i := range stories {
		st := &stories[i]
		_, err := tx.ExecContext(ctx, `
			INSERT INTO stories (id, rank, title, url, points, author, comment_count, age_text, comments_url, first_seen, scraped_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				rank = excluded.rank,
				points = excluded.points,
				comment_count = excluded.comment_count,
				age_text = excluded.age_text,
				comments_url = excluded.comments_url,
				scraped_at = excluded.scraped_at
		`, st.ID, st.Rank, st.Title, st.URL, st.Points, st.Author,
			st.CommentCount, st.AgeText, st.CommentsURL, st.ScrapedAt, st.ScrapedAt)
		if err != nil {
			return &Error{Op: fmt.Sprintf("upsert story %d", st.ID), Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &Error{Op: "commit run", Err: err}
	}
	return nil
}

func (s *SQLiteStore) GetStory(ctx context.Context, id int64) (*scrape.Story, error) {
	var st scrape.Story
	if err := s.db.GetContext(ctx, &st, "SELECT * FROM stories WHERE id = ?", id); err != nil {
		return nil, &Error{Op: fmt.Sprintf("get story %d", id), Err: err}
	}
	return &st, nil
}

// ListStories returns stories ordered by rank then id, the stable order
// used by exports.
func (s *SQLiteStore) ListStories(ctx context.Context, opts ListOpts) ([]scrape.Story, error) {
	query := "SELECT * FROM stories ORDER BY rank, id"
	var args []any
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	var stories []scrape.Story
	if err := s.db.SelectContext(ctx, &stories, query, args...); err != nil {
		return nil, &Error{Op: "list stories", Err: err}
	}
	return stories, nil
}

func (s *SQLiteStore) CountStories(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM stories"); err != nil {
		return 0, &Error{Op: "count stories", Err: err}
	}
	return n, nil
}
