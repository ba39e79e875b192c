package markdown

import (
	"bytes"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// urlAttrs lists the attributes holding URLs, per element.
var urlAttrs = map[string][]string{
	"a":      {"href"},
	"link":   {"href"},
	"img":    {"src"},
	"source": {"src"},
	"video":  {"src", "poster"},
	"audio":  {"src"},
	"iframe": {"src"},
}

// QualifyURLs rewrites relative URL attributes in fragment using qualify.
// Tags without relative URLs and all text are copied byte for byte.
func QualifyURLs(fragment string, qualify func(string) string) (string, error) {
	z := html.NewTokenizer(strings.NewReader(fragment))
	var out bytes.Buffer
	out.Grow(len(fragment) + len(fragment)/8)

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if z.Err() == io.EOF {
				return out.String(), nil
			}
			return "", z.Err()
		}

		raw := append([]byte(nil), z.Raw()...)
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			out.Write(raw)
			continue
		}

		tok := z.Token()
		if qualifyAttrs(&tok, qualify) {
			out.WriteString(tok.String())
		} else {
			out.Write(raw)
		}
	}
}

func qualifyAttrs(tok *html.Token, qualify func(string) string) bool {
	names, ok := urlAttrs[tok.Data]
	if !ok {
		return false
	}
	changed := false
	for i, attr := range tok.Attr {
		for _, name := range names {
			if attr.Key != name {
				continue
			}
			if q := qualify(attr.Val); q != attr.Val {
				tok.Attr[i].Val = q
				changed = true
			}
		}
	}
	return changed
}

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true, "hr": true, "img": true,
	"input": true, "link": true, "meta": true, "source": true, "track": true, "wbr": true,
}

// FirstParagraph returns the first top-level <p> element of fragment,
// including its tags, or "" when there is none.
func FirstParagraph(fragment string) string {
	z := html.NewTokenizer(strings.NewReader(fragment))
	var out bytes.Buffer
	depth, inside := 0, false

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return ""
		case html.StartTagToken:
			name, _ := z.TagName()
			if !inside {
				switch {
				case string(name) == "p" && depth == 0:
					inside = true
					out.Write(z.Raw())
				case !voidElements[string(name)]:
					depth++
				}
				continue
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if !inside {
				depth--
				continue
			}
			if string(name) == "p" {
				out.Write(z.Raw())
				return out.String()
			}
		}
		if inside {
			out.Write(z.Raw())
		}
	}
}
