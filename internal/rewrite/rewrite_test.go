package rewrite

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/blogplugins/internal/site"
	"git.home.luguber.info/inful/blogplugins/internal/token"
)

var bracket = token.MustCompile(`\[\[([^\]]+)\]\]`)

func formResolver(m token.Match, form site.LinkForm) string {
	return fmt.Sprintf("<%s:%s>", form, m.Group(1))
}

func TestRewrite_BothStreamsResolved(t *testing.T) {
	r := New(bracket, formResolver)
	field := &site.ContentField{
		HTML:     "<p>[[a]] and [[b]]</p>",
		HTMLFeed: "<p>[[a]] and [[b]]</p>",
	}

	n := r.Rewrite(field)
	require.Equal(t, 2, n)
	require.Equal(t, "<p><site:a> and <site:b></p>", field.HTML)
	require.Equal(t, "<p><feed:a> and <feed:b></p>", field.HTMLFeed)
}

func TestRewrite_EmptyFieldIsNoop(t *testing.T) {
	r := New(bracket, formResolver)
	field := &site.ContentField{}
	require.Equal(t, 0, r.Rewrite(field))
	require.Empty(t, field.HTML)
	require.Empty(t, field.HTMLFeed)
}

func TestRewrite_StructuralParity(t *testing.T) {
	inputs := []string{
		"",
		"no tokens",
		"[[x]]",
		"[[x]][[y]]",
		"pre [[a b]] mid [[c]] post [[",
		"[[unterminated",
	}
	r := New(bracket, formResolver)
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			_, siteSpans := r.rewriteStream(in, site.FormSite)
			_, feedSpans := r.rewriteStream(in, site.FormFeed)
			require.Equal(t, siteSpans, feedSpans)
		})
	}
}
