package config

import "strings"

// SiteConfig holds per-host crawl settings.
type SiteConfig struct {
	// Cookie is sent with every request to the site.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are extra HTTP headers sent with every request.
	Headers map[string]string `yaml:"headers,omitempty"`

	// Depth overrides the global depth ceiling when non-zero.
	Depth int `yaml:"depth,omitempty"`

	// IgnorePatterns are URL path globs that are never offered to the
	// frontier (e.g. "/logout*", "*.pdf").
	IgnorePatterns []string `yaml:"ignorePatterns,omitempty"`

	// FollowPatterns, when set, restrict offered URLs to paths matching at
	// least one glob.
	FollowPatterns []string `yaml:"followPatterns,omitempty"`
}

// File is the structure of the .linkscan configuration file.
//
//	defaults:
//	  depth: 10
//	sites:
//	  example.com:
//	    cookie: "session=abc"
//	    ignorePatterns: ["/logout*"]
type File struct {
	// Sites maps a host name to its settings.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults applies to every site unless overridden.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// SiteConfig returns the settings for host, merged over the defaults.
// Host matching is case-insensitive and ignores a "www." prefix on either side.
func (cf *File) SiteConfig(host string) SiteConfig {
	result := cf.Defaults
	if result.Headers != nil {
		result.Headers = copyHeaders(result.Headers)
	}

	site, ok := cf.lookup(host)
	if !ok {
		return result
	}

	if site.Cookie != "" {
		result.Cookie = site.Cookie
	}
	if site.Depth != 0 {
		result.Depth = site.Depth
	}
	if len(site.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string, len(site.Headers))
		}
		for k, v := range site.Headers {
			result.Headers[k] = v
		}
	}
	if len(site.IgnorePatterns) > 0 {
		result.IgnorePatterns = site.IgnorePatterns
	}
	if len(site.FollowPatterns) > 0 {
		result.FollowPatterns = site.FollowPatterns
	}

	return result
}

func (cf *File) lookup(host string) (SiteConfig, bool) {
	want := strings.TrimPrefix(strings.ToLower(host), "www.")
	for name, site := range cf.Sites {
		if strings.TrimPrefix(strings.ToLower(name), "www.") == want {
			return site, true
		}
	}
	return SiteConfig{}, false
}

func copyHeaders(h map[string]string) map[string]string {
	c := make(map[string]string, len(h))
	for k, v := range h {
		c[k] = v
	}
	return c
}
