package webmention

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"git.home.luguber.info/inful/blogplugins/internal/errors"
	"git.home.luguber.info/inful/blogplugins/internal/logfields"
	"git.home.luguber.info/inful/blogplugins/internal/metrics"
	"git.home.luguber.info/inful/blogplugins/internal/site"
)

// mentionTypes maps JF2 wm-property values to mention types.
var mentionTypes = map[string]string{
	"in-reply-to": "reply",
	"like-of":     "like",
	"repost-of":   "repost",
	"bookmark-of": "bookmark",
	"mention-of":  "mention",
	"rsvp":        "rsvp",
}

type jf2Feed struct {
	Type     string     `json:"type"`
	Children []jf2Entry `json:"children"`
}

type jf2Entry struct {
	WMID       int64  `json:"wm-id"`
	WMProperty string `json:"wm-property"`
	WMSource   string `json:"wm-source"`
	WMTarget   string `json:"wm-target"`
	WMReceived string `json:"wm-received"`
	URL        string `json:"url"`
	Published  string `json:"published"`
	Author     struct {
		Name string `json:"name"`
		URL  string `json:"url"`
	} `json:"author"`
	Content *struct {
		Text string `json:"text"`
		HTML string `json:"html"`
	} `json:"content"`
}

// Receiver pulls received mentions from a JF2 feed.
type Receiver struct {
	store   *Store
	feedURL string
	token   string
	opts    Options
}

// NewReceiver returns a receiver for feedURL. token, when set, is passed as
// the "token" query parameter.
func NewReceiver(store *Store, feedURL, token string, opts Options) *Receiver {
	return &Receiver{store: store, feedURL: feedURL, token: token, opts: opts.withDefaults()}
}

// Fetch downloads mentions newer than the newest stored one and stores them.
// It returns how many were new.
func (r *Receiver) Fetch(ctx context.Context) (int, error) {
	since, err := r.store.MaxMentionID(ctx)
	if err != nil {
		return 0, errors.StoreFailed("max mention id", err)
	}
	reqURL, err := r.requestURL(since)
	if err != nil {
		return 0, errors.WebmentionFetchFailed(r.feedURL, err)
	}

	feed, err := r.get(ctx, reqURL)
	if err != nil {
		r.opts.Recorder.IncWebmention("received", metrics.ResultFailed)
		return 0, errors.WebmentionFetchFailed(r.feedURL, err)
	}

	mentions := make([]site.Mention, 0, len(feed.Children))
	for _, e := range feed.Children {
		if e.WMID == 0 || e.WMTarget == "" {
			continue
		}
		mentions = append(mentions, toMention(e))
	}

	added, err := r.store.SaveMentions(ctx, mentions)
	if err != nil {
		return 0, errors.StoreFailed("save mentions", err)
	}
	for range added {
		r.opts.Recorder.IncWebmention("received", metrics.ResultSuccess)
	}
	r.opts.Logger.Info("Fetched webmentions", logfields.URL(r.feedURL), logfields.Count(added))
	return added, nil
}

func (r *Receiver) requestURL(since int64) (string, error) {
	u, err := url.Parse(r.feedURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	if r.token != "" && q.Get("token") == "" {
		q.Set("token", r.token)
	}
	if since > 0 {
		q.Set("since_id", strconv.FormatInt(since, 10))
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (r *Receiver) get(ctx context.Context, reqURL string) (*jf2Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", r.opts.UserAgent)

	resp, err := r.opts.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	var feed jf2Feed
	if err := json.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("decode jf2: %w", err)
	}
	return &feed, nil
}

func toMention(e jf2Entry) site.Mention {
	m := site.Mention{
		ID:        e.WMID,
		Type:      mentionTypes[e.WMProperty],
		Source:    e.WMSource,
		Target:    e.WMTarget,
		Author:    e.Author.Name,
		AuthorURL: e.Author.URL,
	}
	if m.Type == "" {
		m.Type = "mention"
	}
	if m.Source == "" {
		m.Source = e.URL
	}
	if e.Content != nil {
		m.Content = strings.TrimSpace(e.Content.Text)
	}
	for _, raw := range []string{e.Published, e.WMReceived} {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			m.Published = t.UTC()
			break
		}
	}
	return m
}
