// Package feed renders the RSS 2.0 feed of a build.
package feed

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"git.home.luguber.info/inful/blogplugins/internal/site"
)

// DefaultLimit is the number of items written when Options.Limit is zero.
const DefaultLimit = 20

// Options describes the channel.
type Options struct {
	Title       string
	Description string
	Language    string
	Author      string
	// SelfPath is the site-relative location of the feed, e.g. "/feed.xml".
	SelfPath string
	Limit    int
	Now      time.Time
}

// RSS renders articles, which must be ordered newest first. Item content is
// the feed rendering of each article (absolute URLs).
func RSS(s *site.Site, articles []*site.Article, opts Options) ([]byte, error) {
	if opts.Limit <= 0 {
		opts.Limit = DefaultLimit
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	if opts.SelfPath == "" {
		opts.SelfPath = "/feed.xml"
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	buf.WriteString(`<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/" xmlns:atom="http://www.w3.org/2005/Atom">`)
	buf.WriteString("\n  <channel>\n")

	writeElement(&buf, "title", opts.Title, 4)
	writeElement(&buf, "link", s.BaseURL(), 4)
	description := opts.Description
	if description == "" {
		description = opts.Title
	}
	writeElement(&buf, "description", description, 4)
	fmt.Fprintf(&buf, "    <atom:link href=\"%s\" rel=\"self\" type=\"application/rss+xml\" />\n",
		escapeAttr(s.Qualify(opts.SelfPath)))
	writeElement(&buf, "language", opts.Language, 4)
	writeElement(&buf, "lastBuildDate", opts.Now.Format(time.RFC1123Z), 4)
	writeElement(&buf, "generator", "blogplugins", 4)

	n := 0
	for _, a := range articles {
		if n == opts.Limit {
			break
		}
		if a.Draft {
			continue
		}
		writeItem(&buf, s, a, opts.Author)
		n++
	}

	buf.WriteString("  </channel>\n</rss>\n")
	return buf.Bytes(), nil
}

func writeItem(buf *bytes.Buffer, s *site.Site, a *site.Article, author string) {
	link := s.Qualify(a.URL)
	buf.WriteString("    <item>\n")
	writeElement(buf, "title", a.Title, 6)
	writeElement(buf, "link", link, 6)
	buf.WriteString("      <guid isPermaLink=\"true\">")
	_ = xml.EscapeText(buf, []byte(link))
	buf.WriteString("</guid>\n")

	description := a.Abstract.HTMLFeed
	if description == "" {
		description = a.Description
	}
	writeElement(buf, "description", description, 6)

	if a.Content.HTMLFeed != "" {
		buf.WriteString("      <content:encoded><![CDATA[")
		buf.WriteString(escapeCDATA(a.Content.HTMLFeed))
		buf.WriteString("]]></content:encoded>\n")
	}
	if !a.Date.IsZero() {
		writeElement(buf, "pubDate", a.Date.Format(time.RFC1123Z), 6)
	}
	writeElement(buf, "author", author, 6)
	buf.WriteString("    </item>\n")
}

// writeElement writes an XML element with escaped text. Empty content is skipped.
func writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}
	buf.WriteString(strings.Repeat(" ", indent))
	buf.WriteString("<" + tag + ">")
	_ = xml.EscapeText(buf, []byte(content))
	buf.WriteString("</" + tag + ">\n")
}

func escapeAttr(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

// escapeCDATA splits any "]]>" so the section cannot be closed early.
func escapeCDATA(s string) string {
	return strings.ReplaceAll(s, "]]>", "]]]]><![CDATA[>")
}
