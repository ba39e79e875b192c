package markdown

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/blogplugins/internal/config"
	"git.home.luguber.info/inful/blogplugins/internal/plugin"
	"git.home.luguber.info/inful/blogplugins/internal/site"
)

func newContext(t *testing.T) *plugin.Context {
	t.Helper()
	s, err := site.New("https://example.com/blog/", "Test")
	require.NoError(t, err)
	return plugin.NewContext(context.Background(), slog.New(slog.NewTextHandler(io.Discard, nil)), &config.Config{}, s, "test")
}

func TestQualifyURLs(t *testing.T) {
	s, err := site.New("https://example.com/", "Test")
	require.NoError(t, err)

	tests := []struct {
		name, in, want string
	}{
		{
			name: "relative link",
			in:   `<p>See <a href="/about/">about</a>.</p>`,
			want: `<p>See <a href="https://example.com/about/">about</a>.</p>`,
		},
		{
			name: "absolute link untouched",
			in:   `<a href="https://go.dev/" class="x">go</a>`,
			want: `<a href="https://go.dev/" class="x">go</a>`,
		},
		{
			name: "fragment untouched",
			in:   `<a href="#top">top</a>`,
			want: `<a href="#top">top</a>`,
		},
		{
			name: "image",
			in:   `<img src="img/cat.png" alt="cat">`,
			want: `<img src="https://example.com/img/cat.png" alt="cat">`,
		},
		{
			name: "text and tokens copied verbatim",
			in:   `<p>a &amp; b &quot;q&quot; (((x|/y)))</p>`,
			want: `<p>a &amp; b &quot;q&quot; (((x|/y)))</p>`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := QualifyURLs(tt.in, s.Qualify)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestFirstParagraph(t *testing.T) {
	require.Equal(t, "<p>One <em>two</em></p>", FirstParagraph("<h1>T</h1>\n<hr>\n<p>One <em>two</em></p>\n<p>Three</p>"))
	require.Equal(t, "<p>Top</p>", FirstParagraph("<blockquote><p>Quoted</p></blockquote><p>Top</p>"))
	require.Empty(t, FirstParagraph("<h1>Only a heading</h1>"))
}

func TestAfterArticleParse(t *testing.T) {
	pc := newContext(t)
	p := New()
	require.NoError(t, p.AfterConfig(pc))
	require.True(t, *pc.Config.Markdown.Enabled)
	require.True(t, *pc.Config.Markdown.GFM)

	a := &site.Article{
		RelPath:  "posts/hello.md",
		Markdown: "Intro with [link](/about/).\n\nSecond paragraph (((Home|/)))\n",
		Meta:     map[string]any{},
	}
	require.NoError(t, p.AfterArticleParse(pc, a))

	require.Contains(t, a.Content.HTML, `<a href="/about/">link</a>`)
	require.Contains(t, a.Content.HTMLFeed, `<a href="https://example.com/blog/about/">link</a>`)
	require.Contains(t, a.Content.HTML, "(((Home|/)))")
	require.Equal(t, `<p>Intro with <a href="/about/">link</a>.</p>`, a.Abstract.HTML)
	require.Equal(t, `<p>Intro with <a href="https://example.com/blog/about/">link</a>.</p>`, a.Abstract.HTMLFeed)
}

func TestAfterArticleParse_ExplicitAbstract(t *testing.T) {
	pc := newContext(t)
	p := New()
	require.NoError(t, p.AfterConfig(pc))

	a := &site.Article{
		Markdown: "Body.\n",
		Meta:     map[string]any{"summary": "A *short* summary"},
	}
	require.NoError(t, p.AfterArticleParse(pc, a))
	require.Equal(t, "<p>A <em>short</em> summary</p>\n", a.Abstract.HTML)
}

func TestAfterArticleParse_Disabled(t *testing.T) {
	pc := newContext(t)
	disabled := false
	pc.Config.Markdown.Enabled = &disabled

	p := New()
	require.NoError(t, p.AfterConfig(pc))

	a := &site.Article{Markdown: "# x\n"}
	require.NoError(t, p.AfterArticleParse(pc, a))
	require.Empty(t, a.Content.HTML)
}
