package site

import (
	"html"
	"net/url"
	"strings"
)

// LinkForm selects how link targets are expressed.
type LinkForm int

const (
	// FormSite keeps targets as authored (site-relative).
	FormSite LinkForm = iota
	// FormFeed qualifies targets into absolute URLs for feed readers.
	FormFeed
)

func (f LinkForm) String() string {
	if f == FormFeed {
		return "feed"
	}
	return "site"
}

// Site carries site-wide settings plugins need to render links.
type Site struct {
	Title       string
	Description string
	Language    string
	base        *url.URL
}

// New creates a Site rooted at baseURL. baseURL must be absolute.
func New(baseURL, title string) (*Site, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	if !u.IsAbs() {
		return nil, &url.Error{Op: "parse", URL: baseURL, Err: errNotAbsolute}
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return &Site{Title: title, base: u}, nil
}

// BaseURL returns the site root as an absolute URL with a trailing slash.
func (s *Site) BaseURL() string {
	return s.base.String()
}

// Qualify converts a site-relative URL into an absolute URL. Absolute URLs,
// fragment-only links and non-hierarchical schemes (mailto:, tel:) are returned unchanged.
func (s *Site) Qualify(ref string) string {
	if ref == "" || strings.HasPrefix(ref, "#") {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil || u.IsAbs() || strings.HasPrefix(ref, "//") {
		return ref
	}
	if strings.HasPrefix(ref, "/") {
		// Root-relative links live below the base path, not at the host root.
		u.Path = strings.TrimPrefix(u.Path, "/")
		if u.Path == "" && u.RawQuery == "" && u.Fragment == "" {
			return s.base.String()
		}
	}
	return s.base.ResolveReference(u).String()
}

// URLFor renders ref in the requested form.
func (s *Site) URLFor(ref string, form LinkForm) string {
	if form == FormFeed {
		return s.Qualify(ref)
	}
	return ref
}

// LinkOption adjusts optional anchor attributes.
type LinkOption func(*linkAttrs)

type linkAttrs struct {
	title  string
	target string
}

// WithTitle sets the anchor title attribute.
func WithTitle(title string) LinkOption { return func(a *linkAttrs) { a.title = title } }

// WithTarget sets the anchor target attribute (e.g. "_blank").
func WithTarget(target string) LinkOption { return func(a *linkAttrs) { a.target = target } }

// Link builds anchor markup. label is inserted verbatim because it is already
// HTML; attribute values are escaped.
func (s *Site) Link(label, href string, opts ...LinkOption) string {
	var attrs linkAttrs
	for _, opt := range opts {
		opt(&attrs)
	}

	var b strings.Builder
	b.WriteString(`<a href="`)
	b.WriteString(html.EscapeString(href))
	b.WriteByte('"')
	writeAttr(&b, "title", attrs.title)
	writeAttr(&b, "target", attrs.target)
	if attrs.target == "_blank" {
		b.WriteString(` rel="noopener"`)
	}
	b.WriteByte('>')
	b.WriteString(label)
	b.WriteString("</a>")
	return b.String()
}

func writeAttr(b *strings.Builder, name, value string) {
	if value == "" {
		return
	}
	b.WriteByte(' ')
	b.WriteString(name)
	b.WriteString(`="`)
	b.WriteString(html.EscapeString(value))
	b.WriteByte('"')
}
