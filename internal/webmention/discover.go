package webmention

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// ErrNoEndpoint means the target does not advertise a webmention endpoint.
var ErrNoEndpoint = errors.New("no webmention endpoint advertised")

// maxDiscoveryBody bounds how much of a target page is read.
const maxDiscoveryBody = 1 << 20

// DiscoverEndpoint finds the webmention endpoint of target: first from an
// HTTP Link header, then from <link> or <a> elements with rel="webmention".
// Relative endpoints are resolved against the final (post-redirect) URL.
func DiscoverEndpoint(ctx context.Context, client *http.Client, userAgent, target string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", err
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("fetch %s: HTTP %d", target, resp.StatusCode)
	}

	final := resp.Request.URL
	if ref, ok := endpointFromHeaders(resp.Header); ok {
		return resolve(final, ref)
	}
	if !strings.Contains(resp.Header.Get("Content-Type"), "html") {
		return "", ErrNoEndpoint
	}

	doc, err := html.Parse(io.LimitReader(resp.Body, maxDiscoveryBody))
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", target, err)
	}
	if ref, ok := endpointFromHTML(doc); ok {
		return resolve(final, ref)
	}
	return "", ErrNoEndpoint
}

// endpointFromHeaders parses Link headers of the form
// `<https://example.com/wm>; rel="webmention other"`.
func endpointFromHeaders(h http.Header) (string, bool) {
	for _, header := range h.Values("Link") {
		for _, link := range strings.Split(header, ",") {
			parts := strings.Split(link, ";")
			ref := strings.TrimSpace(parts[0])
			if !strings.HasPrefix(ref, "<") || !strings.HasSuffix(ref, ">") {
				continue
			}
			for _, param := range parts[1:] {
				key, value, ok := strings.Cut(strings.TrimSpace(param), "=")
				if !ok || !strings.EqualFold(strings.TrimSpace(key), "rel") {
					continue
				}
				for _, rel := range strings.Fields(strings.Trim(value, `"`)) {
					if strings.EqualFold(rel, "webmention") {
						return ref[1 : len(ref)-1], true
					}
				}
			}
		}
	}
	return "", false
}

// endpointFromHTML returns the href of the first <link> or <a> with
// rel="webmention" in document order. An empty href is valid and means the
// page itself.
func endpointFromHTML(doc *html.Node) (string, bool) {
	var found string
	var ok bool
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if ok {
			return
		}
		if n.Type == html.ElementNode && (n.Data == "link" || n.Data == "a") && hasRel(n, "webmention") {
			for _, attr := range n.Attr {
				if attr.Key == "href" {
					found, ok = attr.Val, true
					return
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return found, ok
}

func resolve(base *url.URL, ref string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return "", fmt.Errorf("invalid endpoint %q: %w", ref, err)
	}
	return base.ResolveReference(u).String(), nil
}
