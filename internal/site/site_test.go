package site

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew_RequiresAbsoluteBase(t *testing.T) {
	_, err := New("/relative/", "x")
	require.Error(t, err)

	s, err := New("https://example.org/blog", "x")
	require.NoError(t, err)
	require.Equal(t, "https://example.org/blog/", s.BaseURL())
}

func TestQualify(t *testing.T) {
	s, err := New("https://example.org/blog/", "Blog")
	require.NoError(t, err)

	tests := []struct {
		in   string
		want string
	}{
		{"/", "https://example.org/blog/"},
		{"/quotes/1", "https://example.org/blog/quotes/1"},
		{"posts/a/", "https://example.org/blog/posts/a/"},
		{"/posts/a/#top", "https://example.org/blog/posts/a/#top"},
		{"https://other.example/x", "https://other.example/x"},
		{"//cdn.example/x.js", "//cdn.example/x.js"},
		{"mailto:me@example.org", "mailto:me@example.org"},
		{"#anchor", "#anchor"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			require.Equal(t, tt.want, s.Qualify(tt.in))
		})
	}
}

func TestURLFor(t *testing.T) {
	s, err := New("https://example.org/", "Blog")
	require.NoError(t, err)
	require.Equal(t, "/a/", s.URLFor("/a/", FormSite))
	require.Equal(t, "https://example.org/a/", s.URLFor("/a/", FormFeed))
}

func TestLink(t *testing.T) {
	s, err := New("https://example.org/", "Blog")
	require.NoError(t, err)

	require.Equal(t, `<a href="/">Home</a>`, s.Link("Home", "/"))
	require.Equal(t, `<a href="/" title="Go home">Home</a>`, s.Link("Home", "/", WithTitle("Go home")))
	require.Equal(t,
		`<a href="https://x.example/?a=1&amp;b=2" target="_blank" rel="noopener"><em>X</em></a>`,
		s.Link("<em>X</em>", "https://x.example/?a=1&b=2", WithTarget("_blank")))
	require.Equal(t, `<a href="/" title="&#34;quoted&#34;">Q</a>`, s.Link("Q", "/", WithTitle(`"quoted"`)))
}

func TestArticleField(t *testing.T) {
	a := &Article{Content: ContentField{HTML: "c"}, Abstract: ContentField{HTML: "a"}}

	f, err := a.Field(FieldContent)
	require.NoError(t, err)
	f.HTML = "changed"
	require.Equal(t, "changed", a.Content.HTML)

	f, err = a.Field(FieldAbstract)
	require.NoError(t, err)
	require.Equal(t, "a", f.HTML)

	_, err = a.Field("sidebar")
	require.Error(t, err)
}

func TestSnapshotIsDetached(t *testing.T) {
	a := &Article{Title: "One", URL: "/one/"}
	snap := a.Snapshot()
	a.Title = "Renamed"
	require.Equal(t, &NavigationLink{Title: "One", URL: "/one/"}, snap)
}
