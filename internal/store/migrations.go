package store

const schema = `
CREATE TABLE IF NOT EXISTS stories (
    id            INTEGER PRIMARY KEY,
    rank          INTEGER NOT NULL DEFAULT 0,
    title         TEXT NOT NULL CHECK (title <> ''),
    url           TEXT NOT NULL DEFAULT '',
    points        INTEGER NOT NULL DEFAULT 0,
    author        TEXT NOT NULL DEFAULT '',
    comment_count INTEGER NOT NULL DEFAULT 0,
    age_text      TEXT NOT NULL DEFAULT '',
    comments_url  TEXT NOT NULL DEFAULT '',
    first_seen    DATETIME NOT NULL,
    scraped_at    DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_stories_rank ON stories(rank);
CREATE INDEX IF NOT EXISTS idx_stories_scraped_at ON stories(scraped_at);
`
