package scrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mmcdole/gofeed"
	"github.com/stretchr/testify/require"
)

func TestStoryFromFeedItem(t *testing.T) {
	item := &gofeed.Item{
		Title:       "A story",
		Link:        "https://example.com/post",
		GUID:        "https://news.ycombinator.com/item?id=41000000",
		Description: `<p>Points: 123</p><p># Comments: 45</p>`,
		Author:      &gofeed.Person{Name: "alice"},
	}

	st, err := storyFromFeedItem(item, 3)
	require.NoError(t, err)
	require.EqualValues(t, 41000000, st.ID)
	require.Equal(t, 3, st.Rank)
	require.Equal(t, "A story", st.Title)
	require.Equal(t, "https://example.com/post", st.URL)
	require.Equal(t, "alice", st.Author)
	require.Equal(t, 123, st.Points)
	require.Equal(t, 45, st.CommentCount)
	require.Equal(t, "https://news.ycombinator.com/item?id=41000000", st.CommentsURL)
}

func TestStoryFromFeedItemWithoutID(t *testing.T) {
	item := &gofeed.Item{Title: "No id", GUID: "https://example.com/whatever"}

	_, err := storyFromFeedItem(item, 1)
	require.Error(t, err)
}

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:dc="http://purl.org/dc/elements/1.1/">
<channel>
<title>Hacker News: Front Page</title>
<item>
<title>First</title>
<link>https://example.com/a</link>
<dc:creator>alice</dc:creator>
<guid isPermaLink="false">https://news.ycombinator.com/item?id=1</guid>
<description>Points: 10 # Comments: 2</description>
</item>
<item>
<title>Broken</title>
<guid isPermaLink="false">https://example.com/no-id</guid>
</item>
<item>
<title>Second</title>
<link>https://example.com/b</link>
<dc:creator>bob</dc:creator>
<guid isPermaLink="false">https://news.ycombinator.com/item?id=2</guid>
<description>Points: 5 # Comments: 0</description>
</item>
</channel>
</rss>`

func TestFeedReaderFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(sampleFeed))
	}))
	defer srv.Close()

	stories, err := NewFeedReader(srv.URL).Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, stories, 2, "the entry without an item id is skipped")

	require.EqualValues(t, 1, stories[0].ID)
	require.Equal(t, 10, stories[0].Points)
	require.Equal(t, 2, stories[0].CommentCount)
	require.Equal(t, "alice", stories[0].Author)

	require.EqualValues(t, 2, stories[1].ID)
	require.Equal(t, "https://example.com/b", stories[1].URL)
}

func TestFeedReaderFetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewFeedReader(srv.URL).Fetch(context.Background())
	require.Error(t, err)
}
