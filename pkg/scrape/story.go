package scrape

import "time"

// Story is a single Hacker News listing entry. One row per site-assigned
// item id; re-scrapes update the mutable fields in place.
type Story struct {
	ID           int64     `db:"id"`
	Rank         int       `db:"rank"`
	Title        string    `db:"title"`
	URL          string    `db:"url"`
	Points       int       `db:"points"`
	Author       string    `db:"author"`
	CommentCount int       `db:"comment_count"`
	AgeText      string    `db:"age_text"`
	CommentsURL  string    `db:"comments_url"`
	FirstSeen    time.Time `db:"first_seen"`
	ScrapedAt    time.Time `db:"scraped_at"`
}
