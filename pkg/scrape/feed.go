package scrape

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"

	"github.com/mmcdole/gofeed"
)

var (
	feedPointsRe   = regexp.MustCompile(`Points:\s*(\d+)`)
	feedCommentsRe = regexp.MustCompile(`#\s*Comments:\s*(\d+)`)
)

// FeedReader pulls front-page stories from the hnrss RSS mirror. It is a
// secondary ingest path feeding the same stories table as the HTML
// parser; ids overlap, so merging is handled by the upsert.
type FeedReader struct {
	parser *gofeed.Parser
	url    string
}

// NewFeedReader creates a reader for the given feed URL.
func NewFeedReader(feedURL string) *FeedReader {
	return &FeedReader{parser: gofeed.NewParser(), url: feedURL}
}

// Fetch downloads and parses the feed. Items that carry no item id in
// their GUID are skipped.
func (f *FeedReader) Fetch(ctx context.Context) ([]Story, error) {
	feed, err := f.parser.ParseURLWithContext(f.url, ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", f.url, err)
	}

	var stories []Story
	for i, entry := range feed.Items {
		st, err := storyFromFeedItem(entry, i+1)
		if err != nil {
			continue
		}
		stories = append(stories, *st)
	}
	return stories, nil
}

// storyFromFeedItem maps one hnrss entry to a Story. The GUID is the
// item page URL, which carries the site-assigned id; points and comment
// count are embedded in the description text.
func storyFromFeedItem(entry *gofeed.Item, rank int) (*Story, error) {
	guid, err := url.Parse(entry.GUID)
	if err != nil {
		return nil, fmt.Errorf("feed item %q: bad guid: %w", entry.Title, err)
	}
	id, err := strconv.ParseInt(guid.Query().Get("id"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("feed item %q: no item id in guid", entry.Title)
	}

	st := &Story{
		ID:          id,
		Rank:        rank,
		Title:       entry.Title,
		URL:         entry.Link,
		CommentsURL: entry.GUID,
	}
	if entry.Author != nil {
		st.Author = entry.Author.Name
	}
	if m := feedPointsRe.FindStringSubmatch(entry.Description); m != nil {
		st.Points, _ = strconv.Atoi(m[1])
	}
	if m := feedCommentsRe.FindStringSubmatch(entry.Description); m != nil {
		st.CommentCount, _ = strconv.Atoi(m[1])
	}
	if entry.PublishedParsed != nil {
		st.AgeText = entry.Published
	}
	return st, nil
}
