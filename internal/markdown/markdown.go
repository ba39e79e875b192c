// Package markdown converts article bodies to HTML with goldmark.
package markdown

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// Options selects goldmark extensions and renderer behaviour.
type Options struct {
	GFM       bool // Tables, strikethrough, task lists and footnotes
	HardWraps bool // Render soft line breaks as <br>
	Unsafe    bool // Pass raw HTML and dangerous links through
}

// Converter renders markdown. It is safe for concurrent use.
type Converter struct {
	md goldmark.Markdown
}

// New builds a converter for opts.
func New(opts Options) *Converter {
	var exts []goldmark.Extender
	if opts.GFM {
		// Linkify is left out: it would turn URLs inside (((label|url))) tokens into anchors.
		exts = append(exts, extension.Table, extension.Strikethrough, extension.TaskList, extension.Footnote)
	}

	var rendererOpts []renderer.Option
	if opts.HardWraps {
		rendererOpts = append(rendererOpts, gmhtml.WithHardWraps())
	}
	if opts.Unsafe {
		rendererOpts = append(rendererOpts, gmhtml.WithUnsafe())
	}

	return &Converter{md: goldmark.New(
		goldmark.WithExtensions(exts...),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(rendererOpts...),
	)}
}

// Convert renders src to HTML.
func (c *Converter) Convert(src []byte) (string, error) {
	var buf bytes.Buffer
	if err := c.md.Convert(src, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
