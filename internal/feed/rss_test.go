package feed

import (
	"bytes"
	"testing"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/blogplugins/internal/site"
)

func TestRSSParsesWithGofeed(t *testing.T) {
	s, err := site.New("https://example.com/blog/", "Notes")
	require.NoError(t, err)

	newer := &site.Article{
		Title: "Second & last",
		URL:   "/posts/second/",
		Date:  time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC),
		Content: site.ContentField{
			HTML:     `<p>See <a href="/posts/first/">first</a></p>`,
			HTMLFeed: `<p>See <a href="https://example.com/blog/posts/first/">first</a> ]]> tricky</p>`,
		},
		Abstract: site.ContentField{HTMLFeed: "<p>See first</p>"},
	}
	older := &site.Article{
		Title:       "First",
		URL:         "/posts/first/",
		Description: "The beginning",
		Date:        time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
	draft := &site.Article{Title: "Draft", URL: "/draft/", Draft: true}

	data, err := RSS(s, []*site.Article{newer, draft, older}, Options{
		Title:    "Notes",
		Language: "en",
		Now:      time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	parsed, err := gofeed.NewParser().Parse(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, "rss", parsed.FeedType)
	require.Equal(t, "Notes", parsed.Title)
	require.Equal(t, "en", parsed.Language)
	require.Len(t, parsed.Items, 2)

	first := parsed.Items[0]
	require.Equal(t, "Second & last", first.Title)
	require.Equal(t, "https://example.com/blog/posts/second/", first.Link)
	require.Equal(t, "<p>See first</p>", first.Description)
	require.Contains(t, first.Content, `href="https://example.com/blog/posts/first/"`)
	require.Contains(t, first.Content, "]]> tricky")
	require.Equal(t, time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC), first.PublishedParsed.UTC())

	require.Equal(t, "The beginning", parsed.Items[1].Description)
}

func TestRSSLimit(t *testing.T) {
	s, err := site.New("https://example.com/", "Notes")
	require.NoError(t, err)
	articles := make([]*site.Article, 5)
	for i := range articles {
		articles[i] = &site.Article{Title: "t", URL: "/t/"}
	}

	data, err := RSS(s, articles, Options{Title: "Notes", Limit: 3})
	require.NoError(t, err)
	parsed, err := gofeed.NewParser().Parse(bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, parsed.Items, 3)
}
