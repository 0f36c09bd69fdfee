package store

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/wikirecon/reconcile/internal/cache"
)

// SitelinkTTL bounds how long a resolved sitelink URL -> entity id mapping
// is cached. Only successful resolutions are cached: a page that doesn't
// (yet) resolve to an item might the next time this runs, so a miss is
// never remembered.
const SitelinkTTL = time.Hour

var sitelinkURLPattern = regexp.MustCompile(
	`^https?://([a-z]+)\.(wikipedia|wikisource|wikivoyage|wikiquote|wikinews|wikiversity|wiktionary|wikibooks)\.org/wiki/(.+)$`,
)

// SitelinkFetcher is the upstream dependency the sitelink resolver needs:
// resolving page-title redirects on a given wiki, and mapping a resolved
// (site, title) pair to the entity id that carries it.
type SitelinkFetcher interface {
	ResolveRedirects(ctx context.Context, siteEndpoint string, titles []string) (map[string]string, error)
	ItemIDForSitelink(ctx context.Context, site, title string) (string, bool, error)
}

// SitelinkResolver turns a sitelink URL (as found on a web page being
// reconciled, or as a query value for a Sxx path) into the entity id that
// page belongs to.
type SitelinkResolver struct {
	fetcher SitelinkFetcher
	cache   cache.Cache
}

func NewSitelinkResolver(fetcher SitelinkFetcher, c cache.Cache) *SitelinkResolver {
	return &SitelinkResolver{fetcher: fetcher, cache: c}
}

// ParsedSitelink is a normalized (lang, wiki, title) triple extracted from
// a sitelink URL.
type ParsedSitelink struct {
	Lang  string
	Wiki  string
	Title string
}

// Parse normalizes a sitelink URL into its (lang, wiki, title) components.
// Title capitalization follows MediaWiki's own rule: the first letter is
// capitalized everywhere except on Wiktionary, where case is significant.
func Parse(rawURL string) (ParsedSitelink, bool) {
	m := sitelinkURLPattern.FindStringSubmatch(rawURL)
	if m == nil {
		return ParsedSitelink{}, false
	}
	lang, wiki, title := m[1], m[2], m[3]
	title = strings.ReplaceAll(title, "_", " ")
	if wiki != "wiktionary" {
		title = capitalizeFirst(title)
	}
	return ParsedSitelink{Lang: lang, Wiki: wiki, Title: title}, true
}

func capitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// siteID is the wbgetentities sitelinks key for a (lang, wiki) pair, e.g.
// "enwiki" for English Wikipedia, "enwikivoyage" for English Wikivoyage.
func siteID(p ParsedSitelink) string {
	if p.Wiki == "wikipedia" {
		return p.Lang + "wiki"
	}
	return p.Lang + p.Wiki
}

func siteEndpoint(p ParsedSitelink) string {
	return fmt.Sprintf("https://%s.%s.org/w/api.php", p.Lang, p.Wiki)
}

// Resolve maps a sitelink URL to the entity id it belongs to, following a
// redirect if the page title is a redirect at the source wiki.
func (r *SitelinkResolver) Resolve(ctx context.Context, rawURL string) (string, bool, error) {
	parsed, ok := Parse(rawURL)
	if !ok {
		return "", false, nil
	}

	cacheKey := "sitelink:" + siteID(parsed) + ":" + parsed.Title
	var cached string
	found, err := cache.GetJSON(ctx, r.cache, cacheKey, &cached)
	if err != nil {
		return "", false, err
	}
	if found {
		return cached, true, nil
	}

	title := parsed.Title
	redirects, err := r.fetcher.ResolveRedirects(ctx, siteEndpoint(parsed), []string{title})
	if err != nil {
		return "", false, err
	}
	if to, ok := redirects[title]; ok {
		title = to
	}

	id, ok, err := r.fetcher.ItemIDForSitelink(ctx, siteID(parsed), title)
	if err != nil {
		return "", false, err
	}
	if !ok {
		return "", false, nil
	}
	if err := cache.SetJSON(ctx, r.cache, cacheKey, id, SitelinkTTL); err != nil {
		return "", false, err
	}
	return id, true, nil
}

// ResolveSitelink implements value.Lookup.
func (r *SitelinkResolver) ResolveSitelink(ctx context.Context, rawURL string) (string, bool, error) {
	return r.Resolve(ctx, rawURL)
}
