package scrape

import (
	"bytes"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ListingRowSelector matches one story row on a listing page. A document
// with none of these is not a listing (or the listing is empty).
const ListingRowSelector = "tr.athing"

// ParseError reports a listing document whose structure does not match
// the expected markup. Extraction is positional, so a missing element is
// a hard failure rather than a blank field.
type ParseError struct {
	Missing string // selector or attribute that was not found
	ItemID  int64  // offending row, 0 when the whole document is off
}

func (e *ParseError) Error() string {
	if e.ItemID != 0 {
		return fmt.Sprintf("parse listing: item %d: missing %s", e.ItemID, e.Missing)
	}
	return fmt.Sprintf("parse listing: missing %s", e.Missing)
}

var (
	digits     = regexp.MustCompile(`\d+`)
	commentsRe = regexp.MustCompile(`(\d+)[\s\x{00a0}]*comments?`)
)

// Parser extracts stories from listing-page HTML. Relative links
// (self-posts, comment pages) are resolved against the base URL.
type Parser struct {
	base *url.URL
}

// NewParser creates a parser resolving relative links against baseURL.
func NewParser(baseURL string) (*Parser, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url %s: %w", baseURL, err)
	}
	return &Parser{base: base}, nil
}

// ParseListing returns the stories on one listing page, in page order.
// The returned records have zero FirstSeen/ScrapedAt; the caller stamps
// them.
func (p *Parser) ParseListing(html []byte) ([]Story, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse listing html: %w", err)
	}

	rows := doc.Find(ListingRowSelector)
	if rows.Length() == 0 {
		return nil, &ParseError{Missing: ListingRowSelector}
	}

	var (
		stories []Story
		perr    *ParseError
	)
	rows.EachWithBreak(func(_ int, row *goquery.Selection) bool {
		st, err := p.parseRow(row)
		if err != nil {
			perr = err
			return false
		}
		stories = append(stories, *st)
		return true
	})
	if perr != nil {
		return nil, perr
	}
	return stories, nil
}

func (p *Parser) parseRow(row *goquery.Selection) (*Story, *ParseError) {
	idAttr := strings.TrimSpace(row.AttrOr("id", ""))
	if idAttr == "" {
		return nil, &ParseError{Missing: "tr.athing[id]"}
	}
	id, err := strconv.ParseInt(idAttr, 10, 64)
	if err != nil {
		return nil, &ParseError{Missing: "numeric tr.athing[id]"}
	}

	rankText := row.Find("span.rank").Text()
	rankDigits := digits.FindString(rankText)
	if rankDigits == "" {
		return nil, &ParseError{Missing: "span.rank", ItemID: id}
	}
	rank, _ := strconv.Atoi(rankDigits)

	title := row.Find("span.titleline a").First()
	if title.Length() == 0 {
		return nil, &ParseError{Missing: "span.titleline a", ItemID: id}
	}
	titleText := strings.TrimSpace(title.Text())
	if titleText == "" {
		return nil, &ParseError{Missing: "span.titleline a text", ItemID: id}
	}

	// The metadata (score, author, age) lives in the sibling row below.
	sub := row.Next()
	if sub.Length() == 0 || sub.Find("td.subtext").Length() == 0 {
		return nil, &ParseError{Missing: "td.subtext row", ItemID: id}
	}

	st := &Story{
		ID:    id,
		Rank:  rank,
		Title: titleText,
		URL:   p.resolve(title.AttrOr("href", "")),
	}

	// Score and author are legitimately absent on job posts and
	// deleted/flagged items; default to zero values.
	if txt := sub.Find("span.score").Text(); txt != "" {
		if m := digits.FindString(txt); m != "" {
			st.Points, _ = strconv.Atoi(m)
		}
	}
	st.Author = strings.TrimSpace(sub.Find("a.hnuser").Text())

	if age := sub.Find("span.age a").First(); age.Length() > 0 {
		st.AgeText = strings.TrimSpace(age.Text())
		st.CommentsURL = p.resolve(age.AttrOr("href", ""))
	}

	// "N comments" on the last subtext link; "discuss" means none yet.
	sub.Find("td.subtext a").Each(func(_ int, a *goquery.Selection) {
		if m := commentsRe.FindStringSubmatch(a.Text()); m != nil {
			st.CommentCount, _ = strconv.Atoi(m[1])
		}
	})

	return st, nil
}

func (p *Parser) resolve(href string) string {
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return p.base.ResolveReference(ref).String()
}
