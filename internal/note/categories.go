package note

import (
	"net/url"
	"strings"
)

// Well-known category labels. These mirror the select options of the
// Research Notes database schema.
const (
	CategoryGeneral      = "General"
	CategoryResearch     = "Research"
	CategoryDevelopment  = "Development"
	CategoryArticles     = "Articles"
	CategoryTechNews     = "Tech News"
	CategoryProfessional = "Professional"
	CategoryDiscussion   = "Discussion"
	CategoryReference    = "Reference"
	CategoryLearning     = "Learning"
	CategoryDocuments    = "Documents"
)

// DefaultCategories is the fallback list used when no Notion database is
// reachable to enumerate real select options.
var DefaultCategories = []string{
	CategoryGeneral,
	CategoryResearch,
	CategoryDevelopment,
	CategoryArticles,
	CategoryTechNews,
}

// domainCategories maps source hostnames to a provisional category. The
// lookup runs at capture time, before any AI enrichment.
var domainCategories = map[string]string{
	"github.com":        CategoryDevelopment,
	"gitlab.com":        CategoryDevelopment,
	"stackoverflow.com": CategoryDevelopment,
	"news.ycombinator.com": CategoryTechNews,
	"techcrunch.com":    CategoryTechNews,
	"theverge.com":      CategoryTechNews,
	"arstechnica.com":   CategoryTechNews,
	"wired.com":         CategoryTechNews,
	"arxiv.org":         CategoryResearch,
	"scholar.google.com": CategoryResearch,
	"researchgate.net":  CategoryResearch,
	"medium.com":        CategoryArticles,
	"dev.to":            CategoryArticles,
	"substack.com":      CategoryArticles,
	"linkedin.com":      CategoryProfessional,
	"reddit.com":        CategoryDiscussion,
	"wikipedia.org":     CategoryReference,
	"coursera.org":      CategoryLearning,
	"udemy.com":         CategoryLearning,
	"docs.google.com":   CategoryDocuments,
	"notion.so":         CategoryDocuments,
}

// CategoryForURL returns the domain-heuristic category for a capture URL.
// Unknown hosts and unparseable URLs yield General.
func CategoryForURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return CategoryGeneral
	}

	host := strings.ToLower(u.Hostname())
	if cat, ok := domainCategories[host]; ok {
		return cat
	}

	// Retry with leading subdomains stripped so docs.github.com still
	// maps to github.com. Stop before reducing to a bare TLD.
	host = strings.TrimPrefix(host, "www.")
	for strings.Count(host, ".") >= 1 {
		if cat, ok := domainCategories[host]; ok {
			return cat
		}
		host = host[strings.Index(host, ".")+1:]
	}
	return CategoryGeneral
}
