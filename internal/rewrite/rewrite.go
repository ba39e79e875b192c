// Package rewrite applies a token resolver to both renderings of a content
// field so the site and feed streams always resolve the same tokens.
package rewrite

import (
	"git.home.luguber.info/inful/blogplugins/internal/site"
	"git.home.luguber.info/inful/blogplugins/internal/token"
)

// Resolver renders the replacement for one match. form tells the resolver
// whether link targets must be site-relative or absolute.
type Resolver func(m token.Match, form site.LinkForm) string

// Span is the location and text of a resolved token.
type Span struct {
	Start, End int
	Text       string
}

// DualStreamRewriter binds one token grammar to one resolver.
type DualStreamRewriter struct {
	scanner *token.Scanner
	resolve Resolver
}

// New returns a rewriter for the given grammar and resolver.
func New(scanner *token.Scanner, resolve Resolver) *DualStreamRewriter {
	return &DualStreamRewriter{scanner: scanner, resolve: resolve}
}

// Rewrite resolves tokens in field.HTML with site-form links and in
// field.HTMLFeed with feed-form links. It returns the number of tokens
// resolved in the site stream.
func (r *DualStreamRewriter) Rewrite(field *site.ContentField) int {
	var spans []Span
	field.HTML, spans = r.rewriteStream(field.HTML, site.FormSite)
	field.HTMLFeed, _ = r.rewriteStream(field.HTMLFeed, site.FormFeed)
	return len(spans)
}

func (r *DualStreamRewriter) rewriteStream(src string, form site.LinkForm) (string, []Span) {
	out, matches := r.scanner.Replace(src, func(m token.Match) string {
		return r.resolve(m, form)
	})
	if len(matches) == 0 {
		return out, nil
	}
	spans := make([]Span, len(matches))
	for i, m := range matches {
		spans[i] = Span{Start: m.Start, End: m.End, Text: m.Text}
	}
	return out, spans
}
