package config

import (
	"net/url"
	"strings"

	"git.home.luguber.info/inful/blogplugins/internal/errors"
)

// Validate checks settings that cannot be defaulted.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Site.BaseURL) == "" {
		return errors.ConfigInvalid("site.base_url", "required")
	}
	u, err := url.Parse(c.Site.BaseURL)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return errors.ConfigInvalid("site.base_url", "must be an absolute URL")
	}
	if c.Webmention.NATS.URL != "" && !c.Webmention.Enabled {
		return errors.ConfigInvalid("webmention.nats.url", "requires webmention.enabled")
	}
	return nil
}
