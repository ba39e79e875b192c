package webmention

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// ExternalLinks returns the distinct absolute http(s) anchor targets in
// fragment that point outside the host of base, in document order.
func ExternalLinks(fragment string, base *url.URL) ([]string, error) {
	nodes, err := html.ParseFragment(strings.NewReader(fragment), &html.Node{
		Type: html.ElementNode, Data: "body",
	})
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var links []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			if href := getAttr(n, "href"); isExternalLink(href, base) && !seen[href] {
				seen[href] = true
				links = append(links, href)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	return links, nil
}

func isExternalLink(href string, base *url.URL) bool {
	u, err := url.Parse(href)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return false
	}
	return base == nil || !strings.EqualFold(u.Host, base.Host)
}

func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

// hasRel reports whether the space-separated rel attribute of n contains value.
func hasRel(n *html.Node, value string) bool {
	for _, rel := range strings.Fields(getAttr(n, "rel")) {
		if strings.EqualFold(rel, value) {
			return true
		}
	}
	return false
}
