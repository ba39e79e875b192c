package webmention

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/blogplugins/internal/config"
	"git.home.luguber.info/inful/blogplugins/internal/retry"
	"git.home.luguber.info/inful/blogplugins/internal/site"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func quietOptions() Options {
	return Options{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// recordingPublisher keeps published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
}

func (p *recordingPublisher) Publish(_ context.Context, e Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func TestExternalLinks(t *testing.T) {
	base, _ := url.Parse("https://example.com/")
	fragment := `<p><a href="https://other.org/a">a</a> <a href="/local">l</a>
		<a href="https://example.com/self">s</a> <a href="mailto:x@y">m</a>
		<a href="https://other.org/a">dup</a> <a href="http://third.net/">t</a></p>`

	links, err := ExternalLinks(fragment, base)
	require.NoError(t, err)
	require.Equal(t, []string{"https://other.org/a", "http://third.net/"}, links)
}

func TestEndpointFromHeaders(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{`<https://wm.example/ep>; rel="webmention"`, "https://wm.example/ep", true},
		{`<https://a.example/>; rel="other", </wm>; rel="webmention somethingelse"`, "/wm", true},
		{`<https://a.example/>; rel=webmention`, "https://a.example/", true},
		{`<https://a.example/>; rel="not-webmention"`, "", false},
	}
	for _, tt := range tests {
		h := http.Header{}
		h.Add("Link", tt.header)
		got, ok := endpointFromHeaders(h)
		require.Equal(t, tt.ok, ok, tt.header)
		require.Equal(t, tt.want, got, tt.header)
	}
}

func TestDiscoverEndpoint(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/header", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Link", `</endpoint/header>; rel="webmention"`)
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, `<html><head><link rel="webmention" href="/endpoint/html"></head></html>`)
	})
	mux.HandleFunc("/html", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, `<html><body><a rel="nofollow webmention" href="endpoint/a">wm</a></body></html>`)
	})
	mux.HandleFunc("/none", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, `<html><body>nothing</body></html>`)
	})
	mux.HandleFunc("/redirect", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/posts/html", http.StatusFound)
	})
	mux.HandleFunc("/posts/html", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, `<link rel="webmention" href="wm">`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ctx := context.Background()
	tests := []struct {
		path string
		want string
		err  error
	}{
		{path: "/header", want: srv.URL + "/endpoint/header"},
		{path: "/html", want: srv.URL + "/endpoint/a"},
		{path: "/redirect", want: srv.URL + "/posts/wm"},
		{path: "/none", err: ErrNoEndpoint},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := DiscoverEndpoint(ctx, srv.Client(), "test", srv.URL+tt.path)
			if tt.err != nil {
				require.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestStoreSent(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	_, ok, err := store.LastSent(ctx, "s", "t")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.RecordSent(ctx, SentRecord{Source: "s", Target: "t", Fingerprint: "f1", Endpoint: "e", Status: 500, Error: "boom"}))
	require.NoError(t, store.RecordSent(ctx, SentRecord{Source: "s", Target: "t", Fingerprint: "f2", Endpoint: "e", Status: 202}))

	rec, ok, err := store.LastSent(ctx, "s", "t")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "f2", rec.Fingerprint)
	require.True(t, rec.Succeeded())
	require.True(t, rec.Settled())
}

func TestStoreMentions(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	published := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	added, err := store.SaveMentions(ctx, []site.Mention{
		{ID: 2, Type: "like", Source: "https://a/", Target: "https://example.com/p/", Published: published},
		{ID: 1, Type: "reply", Source: "https://b/", Target: "https://example.com/p/", Content: "Nice", Published: published.Add(-time.Hour)},
		{ID: 3, Type: "mention", Source: "https://c/", Target: "https://example.com/other/"},
	})
	require.NoError(t, err)
	require.Equal(t, 3, added)

	added, err = store.SaveMentions(ctx, []site.Mention{{ID: 2, Type: "like", Source: "x", Target: "y"}})
	require.NoError(t, err)
	require.Zero(t, added)

	got, err := store.MentionsFor(ctx, "https://example.com/p/")
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, int64(1), got[0].ID)
	require.Equal(t, "Nice", got[0].Content)
	require.Equal(t, published, got[1].Published)

	maxID, err := store.MaxMentionID(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(3), maxID)
}

func TestSenderSend(t *testing.T) {
	var mu sync.Mutex
	var posts []url.Values

	mux := http.NewServeMux()
	mux.HandleFunc("/target", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Link", `</webmention>; rel="webmention"`)
		w.Header().Set("Content-Type", "text/html")
	})
	mux.HandleFunc("/plain", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, "<p>no endpoint</p>")
	})
	mux.HandleFunc("/broken", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Link", `</reject>; rel="webmention"`)
	})
	mux.HandleFunc("/webmention", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		mu.Lock()
		posts = append(posts, r.PostForm)
		mu.Unlock()
		w.WriteHeader(http.StatusAccepted)
	})
	mux.HandleFunc("/reject", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	s, err := site.New("https://example.com/", "Test")
	require.NoError(t, err)
	article := &site.Article{
		URL:         "/posts/hello/",
		RelPath:     "posts/hello.md",
		Fingerprint: "fp1",
		Content: site.ContentField{HTML: fmt.Sprintf(
			`<a href="%[1]s/target">t</a> <a href="%[1]s/plain">p</a> <a href="%[1]s/broken">b</a> <a href="/local/">l</a>`,
			srv.URL)},
	}
	jobs, err := Jobs([]*site.Article{article}, s)
	require.NoError(t, err)
	require.Len(t, jobs, 3)

	store := newStore(t)
	pub := &recordingPublisher{}
	opts := quietOptions()
	opts.HTTPClient = srv.Client()
	opts.Publisher = pub
	sender := NewSender(store, opts)

	report, err := sender.Send(context.Background(), jobs)
	require.NoError(t, err)
	require.Equal(t, Report{Sent: 1, Skipped: 1, Failed: 1}, report)
	require.Len(t, posts, 1)
	require.Equal(t, "https://example.com/posts/hello/", posts[0].Get("source"))
	require.Equal(t, srv.URL+"/target", posts[0].Get("target"))
	require.Len(t, pub.events, 2)

	// Unchanged content: settled pairs are skipped, the failed one is retried.
	report, err = sender.Send(context.Background(), jobs)
	require.NoError(t, err)
	require.Equal(t, Report{Skipped: 2, Failed: 1}, report)
	require.Len(t, posts, 1)

	// Changed content is sent again.
	article.Fingerprint = "fp2"
	jobs, err = Jobs([]*site.Article{article}, s)
	require.NoError(t, err)
	report, err = sender.Send(context.Background(), jobs)
	require.NoError(t, err)
	require.Equal(t, 1, report.Sent)
	require.Len(t, posts, 2)
}

func TestSenderRetriesTransientFailures(t *testing.T) {
	var mu sync.Mutex
	attempts := map[string]int{}
	mux := http.NewServeMux()
	for _, name := range []string{"flaky", "down"} {
		mux.HandleFunc("/"+name, func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Link", `</wm-`+name+`>; rel="webmention"`)
		})
	}
	mux.HandleFunc("/wm-flaky", func(w http.ResponseWriter, _ *http.Request) {
		mu.Lock()
		attempts["flaky"]++
		n := attempts["flaky"]
		mu.Unlock()
		if n == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	})
	mux.HandleFunc("/wm-down", func(w http.ResponseWriter, _ *http.Request) {
		mu.Lock()
		attempts["down"]++
		mu.Unlock()
		w.WriteHeader(http.StatusBadGateway)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	jobs := []Job{
		{Source: "https://example.com/a/", Target: srv.URL + "/flaky", Fingerprint: "fp", Article: "a.md"},
		{Source: "https://example.com/a/", Target: srv.URL + "/down", Fingerprint: "fp", Article: "a.md"},
	}
	opts := quietOptions()
	opts.HTTPClient = srv.Client()
	opts.Retry = retry.NewPolicy(config.RetryBackoffFixed, time.Millisecond, time.Millisecond, 2)
	store := newStore(t)

	report, err := NewSender(store, opts).Send(context.Background(), jobs)
	require.NoError(t, err)
	require.Equal(t, Report{Sent: 1, Failed: 1}, report)
	require.Equal(t, 2, attempts["flaky"])
	require.Equal(t, 3, attempts["down"])

	rec, ok, err := store.LastSent(context.Background(), jobs[1].Source, jobs[1].Target)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, http.StatusBadGateway, rec.Status)
	require.False(t, rec.Succeeded())
}

func TestJobsSkipsDraftsAndUnfingerprinted(t *testing.T) {
	s, err := site.New("https://example.com/", "Test")
	require.NoError(t, err)
	html := `<a href="https://other.org/">o</a>`
	jobs, err := Jobs([]*site.Article{
		{URL: "/a/", Draft: true, Fingerprint: "x", Content: site.ContentField{HTML: html}},
		{URL: "/b/", Content: site.ContentField{HTML: html}},
	}, s)
	require.NoError(t, err)
	require.Empty(t, jobs)
}

func TestReceiverFetch(t *testing.T) {
	var queries []url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		queries = append(queries, r.URL.Query())
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"type":"feed","children":[
			{"type":"entry","wm-id":10,"wm-property":"like-of","wm-source":"https://fan.example/like",
			 "wm-target":"https://example.com/posts/hello/","published":"2024-02-03T04:05:06Z",
			 "author":{"name":"Fan","url":"https://fan.example/"}},
			{"type":"entry","wm-id":11,"wm-property":"in-reply-to","url":"https://critic.example/reply",
			 "wm-target":"https://example.com/posts/hello/","wm-received":"2024-02-04T00:00:00Z",
			 "content":{"text":" Great post ","html":"<p>Great post</p>"}},
			{"type":"entry","wm-id":0,"wm-target":"ignored"}
		]}`)
	}))
	defer srv.Close()

	store := newStore(t)
	opts := quietOptions()
	opts.HTTPClient = srv.Client()
	r := NewReceiver(store, srv.URL+"/api/mentions.jf2?domain=example.com", "secret", opts)

	added, err := r.Fetch(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, added)
	require.Equal(t, "secret", queries[0].Get("token"))
	require.Equal(t, "example.com", queries[0].Get("domain"))
	require.Empty(t, queries[0].Get("since_id"))

	mentions, err := store.MentionsFor(context.Background(), "https://example.com/posts/hello/")
	require.NoError(t, err)
	require.Len(t, mentions, 2)
	require.Equal(t, "like", mentions[0].Type)
	require.Equal(t, "Fan", mentions[0].Author)
	require.Equal(t, "reply", mentions[1].Type)
	require.Equal(t, "https://critic.example/reply", mentions[1].Source)
	require.Equal(t, "Great post", mentions[1].Content)

	added, err = r.Fetch(context.Background())
	require.NoError(t, err)
	require.Zero(t, added)
	require.Equal(t, "11", queries[1].Get("since_id"))
}

func TestStreamName(t *testing.T) {
	require.Equal(t, "BLOG_WEBMENTIONS", streamName("blog.webmentions"))
}
