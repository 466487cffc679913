package fetcher

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/ossih/casemirror/internal/domain"
)

// cacheKeyPrefix namespaces cache rows so keys stay stable across restarts
// and distinguishable from other tables' keys.
const cacheKeyPrefix = "case_sync_"

var nonAlnum = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// CacheKey derives a stable cache key from a fully-qualified request URL.
// Runs of non-alphanumeric characters collapse to a single underscore.
func CacheKey(rawURL string) string {
	return cacheKeyPrefix + strings.Trim(nonAlnum.ReplaceAllString(rawURL, "_"), "_")
}

// mirrorEndpoints are the endpoint prefixes served by the local mirror when
// one is configured.
var mirrorEndpoints = []string{
	"records",
	"meetings",
	"decisions",
	"agenda-items",
	"organization",
	"decisionmaker/single",
}

// URLBuilder assembles upstream and mirror request URLs.
type URLBuilder struct {
	base       string
	mirrorBase string
	language   string
}

// NewURLBuilder creates a URLBuilder.
// Parameters:
//   - base: upstream API base URL.
//   - mirrorBase: optional mirror base URL; "" disables rewriting.
//   - language: default apireqlang value for detail fetches.
func NewURLBuilder(base, mirrorBase, language string) *URLBuilder {
	return &URLBuilder{
		base:       strings.TrimSuffix(base, "/"),
		mirrorBase: strings.TrimSuffix(mirrorBase, "/"),
		language:   language,
	}
}

// baseFor returns the mirror base for mirrored endpoint prefixes, the
// upstream base otherwise.
func (b *URLBuilder) baseFor(endpoint string) string {
	if b.mirrorBase == "" {
		return b.base
	}
	for _, prefix := range mirrorEndpoints {
		if endpoint == prefix || strings.HasPrefix(endpoint, prefix+"/") {
			return b.mirrorBase
		}
	}
	return b.base
}

// List builds a filtered collection URL: {base}/{endpoint}/?{query}.
func (b *URLBuilder) List(endpoint string, query url.Values) string {
	u := b.baseFor(endpoint) + "/" + endpoint + "/"
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// Detail builds a single-entity URL with an optional language override:
// {base}/{endpoint}/{id}/?apireqlang={lang}.
func (b *URLBuilder) Detail(endpoint, nativeID, lang string) string {
	u := b.baseFor(endpoint) + "/" + endpoint + "/" + url.PathEscape(nativeID) + "/"
	if lang == "" {
		lang = b.language
	}
	if lang != "" {
		q := url.Values{}
		q.Set("apireqlang", lang)
		u += "?" + q.Encode()
	}
	return u
}

// SelfLink resolves an item's canonical detail URL from its link metadata.
// The upstream emits either a {"links": {"self": "..."}} object or a
// {"links": [{"rel": "self", "href": "..."}]} list. Returns "" when the
// item carries no usable self link.
func SelfLink(item domain.JSONMap) string {
	raw, ok := item["links"]
	if !ok {
		return ""
	}

	switch links := raw.(type) {
	case map[string]interface{}:
		if self, ok := links["self"].(string); ok {
			return self
		}
	case []interface{}:
		for _, entry := range links {
			link, ok := entry.(map[string]interface{})
			if !ok {
				continue
			}
			if rel, _ := link["rel"].(string); rel == "self" {
				if href, ok := link["href"].(string); ok {
					return href
				}
			}
		}
	}
	return ""
}
