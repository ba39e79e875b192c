package blog

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/blogplugins/internal/errors"
	"git.home.luguber.info/inful/blogplugins/internal/feed"
	"git.home.luguber.info/inful/blogplugins/internal/manifest"
	"git.home.luguber.info/inful/blogplugins/internal/site"
)

//go:embed templates/*.html
var templateFS embed.FS

var (
	articleTemplate = template.Must(template.ParseFS(templateFS, "templates/base.html", "templates/article.html"))
	indexTemplate   = template.Must(template.ParseFS(templateFS, "templates/base.html", "templates/index.html"))
)

const (
	feedFile     = "feed.xml"
	menusFile    = "menus.json"
	manifestFile = "manifest.json"
)

// Writer renders a build Result to disk.
type Writer struct {
	Dir   string
	Clean bool // Stage into a sibling directory and swap it in when done
	Feed  feed.Options
}

type pageData struct {
	Site           *site.Site
	Menus          site.MenuCollection
	FeedURL        string
	Article        *site.Article
	Content        template.HTML
	StructuredData template.JS
	Entries        []indexEntry
}

type indexEntry struct {
	Title    string
	URL      string
	Date     time.Time
	Abstract template.HTML
}

// Write renders every article page, the index, the feed, the menus and the
// build manifest.
func (w *Writer) Write(res *Result) error {
	dir := w.Dir
	if w.Clean {
		dir = w.Dir + ".staging-" + res.BuildID
		if err := os.RemoveAll(dir); err != nil {
			return errors.OutputFailed(dir, err)
		}
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return errors.OutputFailed(dir, err)
	}

	if err := w.writeAll(dir, res); err != nil {
		if w.Clean {
			_ = os.RemoveAll(dir)
		}
		return err
	}
	if !w.Clean {
		return nil
	}
	return swap(dir, w.Dir)
}

// output writes files below dir and records their hashes.
type output struct {
	dir string
	m   *manifest.Outputs
}

func (w *Writer) writeAll(dir string, res *Result) error {
	m := res.Manifest
	if m == nil {
		m = &manifest.BuildManifest{ID: res.BuildID, Status: manifest.StatusSuccess}
	}
	out := &output{dir: dir, m: &m.Outputs}

	base := pageData{
		Site:    res.Site,
		Menus:   res.Menus,
		FeedURL: strings.TrimSuffix(res.Site.BaseURL(), "/") + "/" + feedFile,
	}

	for _, a := range res.Articles {
		data := base
		data.Article = a
		// Content is produced by the markdown converter and the token plugins.
		data.Content = template.HTML(a.Content.HTML)        // #nosec G203
		data.StructuredData = template.JS(a.StructuredData) // #nosec G203
		if err := out.render(path.Join(a.URL, "index.html"), articleTemplate, data); err != nil {
			return err
		}
	}

	index := base
	for _, a := range res.Articles {
		index.Entries = append(index.Entries, indexEntry{
			Title:    a.Title,
			URL:      a.URL,
			Date:     a.Date,
			Abstract: template.HTML(a.Abstract.HTML), // #nosec G203
		})
	}
	if err := out.render("index.html", indexTemplate, index); err != nil {
		return err
	}

	opts := w.Feed
	if opts.Title == "" {
		opts.Title = res.Site.Title
	}
	if opts.Description == "" {
		opts.Description = res.Site.Description
	}
	if opts.Language == "" {
		opts.Language = res.Site.Language
	}
	opts.SelfPath = "/" + feedFile
	rss, err := feed.RSS(res.Site, res.Articles, opts)
	if err != nil {
		return errors.OutputFailed(feedFile, err)
	}
	if err := out.write(feedFile, rss); err != nil {
		return err
	}

	menus, err := json.MarshalIndent(res.Menus, "", "  ")
	if err != nil {
		return errors.OutputFailed(menusFile, err)
	}
	if err := out.write(menusFile, append(menus, '\n')); err != nil {
		return err
	}

	data, err := m.ToJSON()
	if err != nil {
		return errors.OutputFailed(manifestFile, err)
	}
	return writeFile(filepath.Join(dir, manifestFile), append(data, '\n'))
}

func (o *output) render(rel string, tmpl *template.Template, data pageData) error {
	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return errors.OutputFailed(rel, fmt.Errorf("render: %w", err))
	}
	return o.write(rel, []byte(b.String()))
}

// write stores data at the slash-separated path rel.
func (o *output) write(rel string, data []byte) error {
	rel = strings.TrimPrefix(rel, "/")
	if err := writeFile(filepath.Join(o.dir, filepath.FromSlash(rel)), data); err != nil {
		return err
	}
	o.m.AddArtifact(rel, data)
	return nil
}

func writeFile(name string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(name), 0o750); err != nil {
		return errors.OutputFailed(name, err)
	}
	if err := os.WriteFile(name, data, 0o644); err != nil { // #nosec G306 -- public site output
		return errors.OutputFailed(name, err)
	}
	return nil
}

// swap replaces dst with the staged directory.
func swap(staged, dst string) error {
	old := dst + ".old"
	_ = os.RemoveAll(old)
	if _, err := os.Stat(dst); err == nil {
		if err := os.Rename(dst, old); err != nil {
			return errors.OutputFailed(dst, err)
		}
	}
	if err := os.Rename(staged, dst); err != nil {
		_ = os.Rename(old, dst)
		return errors.OutputFailed(dst, err)
	}
	_ = os.RemoveAll(old)
	return nil
}
