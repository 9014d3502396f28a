// Package catalog maps free-text product names onto catalog page URLs.
package catalog

import (
	"regexp"
	"strings"
)

const DefaultBaseURL = "https://www.hind.ee"

var (
	disallowedChars = regexp.MustCompile(`[^a-z0-9-]`)
	hyphenRuns      = regexp.MustCompile(`-{2,}`)
)

// Link pairs a product name with its derived catalog URL.
type Link struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Slugify lowercases name, turns spaces into hyphens, drops everything
// outside [a-z0-9-], collapses hyphen runs and trims hyphens at both ends.
func Slugify(name string) string {
	slug := strings.ToLower(name)
	slug = strings.ReplaceAll(slug, " ", "-")
	slug = disallowedChars.ReplaceAllString(slug, "")
	slug = hyphenRuns.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

// DeriveURL returns <baseURL>/p/<slug>. It never fails; an empty name
// yields <baseURL>/p/.
func DeriveURL(name, baseURL string) string {
	return strings.TrimRight(baseURL, "/") + "/p/" + Slugify(name)
}

// DeriveAll derives a URL for every non-blank name, keeping input order.
func DeriveAll(names []string, baseURL string) []Link {
	links := make([]Link, 0, len(names))
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		links = append(links, Link{Name: name, URL: DeriveURL(name, baseURL)})
	}
	return links
}
