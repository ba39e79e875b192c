package blog

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"git.home.luguber.info/inful/blogplugins/internal/errors"
	"git.home.luguber.info/inful/blogplugins/internal/frontmatter"
	"git.home.luguber.info/inful/blogplugins/internal/logfields"
	"git.home.luguber.info/inful/blogplugins/internal/plugins/menus"
	"git.home.luguber.info/inful/blogplugins/internal/site"
)

// Loader reads articles from a content directory.
type Loader struct {
	Dir    string
	Drafts bool
	Lang   language.Tag
	Logger *slog.Logger
}

// Load walks the content directory for *.md files. Files that cannot be
// parsed are skipped with a warning; the returned slice is in path order.
func (l *Loader) Load(ctx context.Context) ([]*site.Article, error) {
	if _, err := os.Stat(l.Dir); err != nil {
		return nil, errors.ContentReadFailed(l.Dir, err)
	}

	var articles []*site.Article
	err := filepath.WalkDir(l.Dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			if p != l.Dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(p), ".md") {
			return nil
		}

		rel, err := filepath.Rel(l.Dir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		content, err := os.ReadFile(filepath.Clean(p))
		if err != nil {
			return errors.ContentReadFailed(p, err)
		}
		a, err := l.parse(rel, content)
		if err != nil {
			l.Logger.Warn("Skipping article", logfields.Article(rel), logfields.Error(err))
			return nil
		}
		if a.Draft && !l.Drafts {
			return nil
		}
		a.Seq = len(articles)
		articles = append(articles, a)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return articles, nil
}

func (l *Loader) parse(rel string, content []byte) (*site.Article, error) {
	doc, err := frontmatter.Parse(content)
	if err != nil {
		return nil, errors.FrontMatterInvalid(rel, err)
	}
	fields := doc.Fields

	a := &site.Article{
		Title:       frontmatter.String(fields, "title"),
		Description: frontmatter.String(fields, "description"),
		URL:         articleURL(rel, fields),
		RelPath:     rel,
		Draft:       frontmatter.Bool(fields, "draft"),
		Markdown:    string(doc.Body),
		Meta:        fields,
	}
	if a.Title == "" {
		a.Title = l.titleFromPath(rel)
	}

	date, ok, err := frontmatter.Date(fields, "date")
	if err != nil {
		l.Logger.Warn("Ignoring unparseable date", logfields.Article(rel), logfields.Error(err))
	} else if ok {
		a.Date = date
	}

	drafts, err := menus.ParseDrafts(fields)
	if err != nil {
		l.Logger.Warn("Ignoring invalid menus", logfields.Article(rel), logfields.Error(err))
	}
	a.Menus = drafts

	a.Fingerprint, err = frontmatter.Fingerprint(fields, doc.Body)
	if err != nil {
		l.Logger.Warn("Article fingerprint unavailable", logfields.Article(rel), logfields.Error(err))
	}
	return a, nil
}

// titleFromPath turns "posts/my-first_post.md" into "My First Post". An
// index file takes its directory name.
func (l *Loader) titleFromPath(rel string) string {
	stem := strings.TrimSuffix(path.Base(rel), path.Ext(rel))
	if strings.EqualFold(stem, "index") && path.Dir(rel) != "." {
		stem = path.Base(path.Dir(rel))
	}
	stem = strings.NewReplacer("-", " ", "_", " ").Replace(stem)
	return cases.Title(l.Lang).String(strings.Join(strings.Fields(stem), " "))
}

// articleURL derives the site-relative URL: front matter "url" wins, then
// "slug" replaces the file name, else the path without extension. URLs end
// with a slash.
func articleURL(rel string, fields map[string]any) string {
	if u := frontmatter.String(fields, "url"); u != "" {
		return ensureSlashes(u)
	}
	dir := path.Dir(rel)
	name := strings.TrimSuffix(path.Base(rel), path.Ext(rel))
	if slug := frontmatter.String(fields, "slug"); slug != "" {
		name = slug
	} else if strings.EqualFold(name, "index") {
		name = ""
	}
	if dir == "." {
		dir = ""
	}
	return ensureSlashes(path.Join("/", dir, name))
}

func ensureSlashes(u string) string {
	if !strings.HasPrefix(u, "/") {
		u = "/" + u
	}
	if !strings.HasSuffix(u, "/") {
		u += "/"
	}
	return u
}
