// Package schemaorg builds a JSON-LD graph (WebSite, Person, BlogPosting,
// BreadcrumbList) for every article.
package schemaorg

import (
	"encoding/json"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/blogplugins/internal/config"
	"git.home.luguber.info/inful/blogplugins/internal/logfields"
	"git.home.luguber.info/inful/blogplugins/internal/plugin"
	"git.home.luguber.info/inful/blogplugins/internal/site"
)

const schemaContext = "https://schema.org"

type node = map[string]any

func ref(id string) node { return node{"@id": id} }

// Graph assembles the JSON-LD document for a. modified may be zero.
func Graph(s *site.Site, cfg config.Config, a *site.Article, modified time.Time) ([]byte, error) {
	base := s.BaseURL()
	pageURL := s.Qualify(a.URL)
	websiteID := base + "#website"
	authorID := base + "#author"
	publisherID := authorID

	website := node{
		"@type":     "WebSite",
		"@id":       websiteID,
		"url":       base,
		"name":      cfg.Site.Title,
		"publisher": ref(authorID),
	}
	if cfg.Site.Description != "" {
		website["description"] = cfg.Site.Description
	}
	if cfg.Site.Language != "" {
		website["inLanguage"] = cfg.Site.Language
	}

	person := node{"@type": "Person", "@id": authorID, "name": cfg.Site.Author.Name}
	if cfg.Site.Author.URL != "" {
		person["url"] = cfg.Site.Author.URL
	}

	graph := []node{website, person}

	if name := cfg.SchemaOrg.PublisherName; name != "" && name != cfg.Site.Author.Name {
		publisherID = base + "#publisher"
		org := node{"@type": "Organization", "@id": publisherID, "name": name}
		if logo := cfg.SchemaOrg.PublisherLogo; logo != "" {
			org["logo"] = node{"@type": "ImageObject", "url": s.Qualify(logo)}
		}
		website["publisher"] = ref(publisherID)
		graph = append(graph, org)
	}

	posting := node{
		"@type":            "BlogPosting",
		"@id":              pageURL + "#article",
		"headline":         a.Title,
		"url":              pageURL,
		"author":           ref(authorID),
		"publisher":        ref(publisherID),
		"isPartOf":         ref(websiteID),
		"mainEntityOfPage": node{"@type": "WebPage", "@id": pageURL},
	}
	if a.Description != "" {
		posting["description"] = a.Description
	}
	if !a.Date.IsZero() {
		posting["datePublished"] = a.Date.Format(time.RFC3339)
		if modified.IsZero() || modified.Before(a.Date) {
			modified = a.Date
		}
	}
	if !modified.IsZero() {
		posting["dateModified"] = modified.Format(time.RFC3339)
	}
	if image, ok := a.Meta["image"].(string); ok && image != "" {
		posting["image"] = s.Qualify(image)
	}
	if n := len(a.Webmentions); n > 0 {
		posting["interactionStatistic"] = node{
			"@type":                "InteractionCounter",
			"interactionType":      "https://schema.org/CommentAction",
			"userInteractionCount": n,
		}
	}

	breadcrumbs := node{
		"@type": "BreadcrumbList",
		"@id":   pageURL + "#breadcrumb",
		"itemListElement": []node{
			{"@type": "ListItem", "position": 1, "name": cfg.Site.Title, "item": base},
			{"@type": "ListItem", "position": 2, "name": a.Title, "item": pageURL},
		},
	}
	graph = append(graph, posting, breadcrumbs)

	return json.Marshal(node{"@context": schemaContext, "@graph": graph})
}

// Plugin stores the graph in Article.StructuredData during AFTER_PARSE_LATE.
type Plugin struct {
	dates *GitDates
}

// New returns the schema.org plugin.
func New() *Plugin { return &Plugin{} }

// Metadata implements plugin.Plugin.
func (p *Plugin) Metadata() plugin.PluginMetadata {
	return plugin.PluginMetadata{
		Name:        "schemaorg",
		Version:     "v1.0.0",
		Description: "schema.org JSON-LD graph",
		Priority:    60,
	}
}

// AfterConfig defaults the publisher and opens the repository when git dates
// are enabled. A content directory outside any repository is not an error.
func (p *Plugin) AfterConfig(pc *plugin.Context) error {
	cfg := &pc.Config.SchemaOrg
	if cfg.PublisherName == "" {
		cfg.PublisherName = pc.Config.Site.Author.Name
	}
	p.dates = nil
	if !cfg.Enabled || !cfg.GitDates {
		return nil
	}
	dates, err := OpenGitDates(pc.Config.Content.Dir)
	if err != nil {
		pc.Warn("schemaorg", "Git dates unavailable, using front matter dates",
			logfields.Path(pc.Config.Content.Dir), logfields.Error(err))
		return nil
	}
	p.dates = dates
	return nil
}

// AfterParseLate builds the graph of every article.
func (p *Plugin) AfterParseLate(pc *plugin.Context, articles []*site.Article) error {
	if !pc.Config.SchemaOrg.Enabled {
		return nil
	}
	for _, a := range articles {
		if err := pc.Context.Err(); err != nil {
			return err
		}
		var modified time.Time
		if p.dates != nil {
			t, ok, err := p.dates.LastModified(filepath.Join(pc.Config.Content.Dir, filepath.FromSlash(a.RelPath)))
			if err != nil {
				pc.Warn("schemaorg", "Git lookup failed", logfields.Article(a.RelPath), logfields.Error(err))
			} else if ok {
				modified = t
			}
		}
		data, err := Graph(pc.Site, *pc.Config, a, modified)
		if err != nil {
			return err
		}
		a.StructuredData = string(data)
	}
	return nil
}
