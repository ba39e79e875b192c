// Package site holds the article model shared by the host pipeline and the
// plugins, together with the link building and URL qualification helpers
// plugins use to render markup for the site and for feeds.
package site

import (
	"fmt"
	"time"
)

// Content field names addressable through Article.Field.
const (
	FieldContent  = "content"
	FieldAbstract = "abstract"
)

// ContentField holds two renderings of the same logical content: HTML for the
// site (relative URLs) and HTMLFeed for syndication (absolute URLs).
type ContentField struct {
	HTML     string
	HTMLFeed string
}

// NavigationLink is a summary snapshot of a neighbouring article.
type NavigationLink struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Mention is a received webmention attached to an article for rendering.
type Mention struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Source    string    `json:"source"`
	Target    string    `json:"target"`
	Author    string    `json:"author,omitempty"`
	AuthorURL string    `json:"author_url,omitempty"`
	Content   string    `json:"content,omitempty"`
	Published time.Time `json:"published,omitempty"`
}

// Article is a single blog post as seen by the plugins.
type Article struct {
	Title       string
	Description string
	// URL is site-relative, e.g. "/posts/hello/".
	URL string
	// RelPath is the source path relative to the content directory, used in diagnostics.
	RelPath string
	// Seq is the article's position in load order. Menu entries with equal
	// positions are ordered by it.
	Seq   int
	Date  time.Time
	Draft bool

	// Markdown is the article body with front matter removed.
	Markdown string
	// Meta is the parsed front matter.
	Meta map[string]any

	Content  ContentField
	Abstract ContentField

	Menus map[string]MenuDraft

	Prev *NavigationLink
	Next *NavigationLink

	Fingerprint    string
	Webmentions    []Mention
	StructuredData string
}

// Field returns the named content field.
func (a *Article) Field(name string) (*ContentField, error) {
	switch name {
	case FieldContent:
		return &a.Content, nil
	case FieldAbstract:
		return &a.Abstract, nil
	default:
		return nil, fmt.Errorf("unknown content field %q", name)
	}
}

// Snapshot returns the navigation summary of the article.
func (a *Article) Snapshot() *NavigationLink {
	return &NavigationLink{Title: a.Title, URL: a.URL}
}

// ContentFields lists the field names every token pass is applied to.
func ContentFields() []string {
	return []string{FieldContent, FieldAbstract}
}
