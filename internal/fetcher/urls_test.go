package fetcher

import (
	"net/url"
	"testing"

	"github.com/ossih/casemirror/internal/domain"
)

// TestCacheKey verifies URL normalization: non-alphanumeric runs collapse to
// a single underscore under the fixed prefix
func TestCacheKey(t *testing.T) {
	testCases := []struct {
		name   string
		rawURL string
		want   string
	}{
		{
			name:   "detail url",
			rawURL: "https://api.example.org/v1/records/123/?apireqlang=fi",
			want:   "case_sync_https_api_example_org_v1_records_123_apireqlang_fi",
		},
		{
			name:   "list url",
			rawURL: "https://api.example.org/v1/cases/",
			want:   "case_sync_https_api_example_org_v1_cases",
		},
		{
			name:   "consecutive separators collapse",
			rawURL: "https://api.example.org//cases//?a=1&b=2",
			want:   "case_sync_https_api_example_org_cases_a_1_b_2",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CacheKey(tc.rawURL); got != tc.want {
				t.Errorf("CacheKey(%q) = %q, want %q", tc.rawURL, got, tc.want)
			}
		})
	}
}

// TestURLBuilderMirrorRouting verifies that mirrored endpoint prefixes route
// to the mirror base and everything else stays on the upstream base
func TestURLBuilderMirrorRouting(t *testing.T) {
	b := NewURLBuilder("https://upstream.example.org/v1", "https://mirror.local/v1", "fi")

	testCases := []struct {
		endpoint   string
		wantMirror bool
	}{
		{"records", true},
		{"meetings", true},
		{"decisions", true},
		{"agenda-items", true},
		{"organization", true},
		{"decisionmaker/single", true},
		{"cases", false},
		{"trustees", false},
		{"decisionmaker", false},
		{"recordsarchive", false},
	}

	for _, tc := range testCases {
		t.Run(tc.endpoint, func(t *testing.T) {
			got := b.List(tc.endpoint, nil)
			isMirror := len(got) >= len("https://mirror.local") && got[:len("https://mirror.local")] == "https://mirror.local"
			if isMirror != tc.wantMirror {
				t.Errorf("List(%q) = %q, mirror routing = %v, want %v", tc.endpoint, got, isMirror, tc.wantMirror)
			}
		})
	}
}

// TestURLBuilderNoMirror verifies all endpoints use the upstream base when no
// mirror is configured
func TestURLBuilderNoMirror(t *testing.T) {
	b := NewURLBuilder("https://upstream.example.org/v1/", "", "fi")

	got := b.List("records", nil)
	want := "https://upstream.example.org/v1/records/"
	if got != want {
		t.Errorf("List() = %q, want %q", got, want)
	}
}

// TestURLBuilderDetail verifies the detail URL shape and language handling
func TestURLBuilderDetail(t *testing.T) {
	b := NewURLBuilder("https://upstream.example.org/v1", "", "fi")

	testCases := []struct {
		name     string
		endpoint string
		nativeID string
		lang     string
		want     string
	}{
		{
			name:     "default language",
			endpoint: "cases",
			nativeID: "HEL-2023-001",
			want:     "https://upstream.example.org/v1/cases/HEL-2023-001/?apireqlang=fi",
		},
		{
			name:     "language override",
			endpoint: "cases",
			nativeID: "HEL-2023-001",
			lang:     "sv",
			want:     "https://upstream.example.org/v1/cases/HEL-2023-001/?apireqlang=sv",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := b.Detail(tc.endpoint, tc.nativeID, tc.lang); got != tc.want {
				t.Errorf("Detail() = %q, want %q", got, tc.want)
			}
		})
	}
}

// TestURLBuilderListQuery verifies date filters end up in the query string
func TestURLBuilderListQuery(t *testing.T) {
	b := NewURLBuilder("https://upstream.example.org/v1", "", "fi")

	q := url.Values{}
	q.Set("start_date", "2023-01-01")
	q.Set("end_date", "2023-06-30")

	got := b.List("cases", q)
	want := "https://upstream.example.org/v1/cases/?end_date=2023-06-30&start_date=2023-01-01"
	if got != want {
		t.Errorf("List() = %q, want %q", got, want)
	}
}

// TestSelfLink verifies both link metadata shapes the upstream emits
func TestSelfLink(t *testing.T) {
	testCases := []struct {
		name string
		item domain.JSONMap
		want string
	}{
		{
			name: "object form",
			item: domain.JSONMap{
				"links": map[string]interface{}{"self": "https://api.example.org/records/1/"},
			},
			want: "https://api.example.org/records/1/",
		},
		{
			name: "list form",
			item: domain.JSONMap{
				"links": []interface{}{
					map[string]interface{}{"rel": "next", "href": "https://api.example.org/records/?page=2"},
					map[string]interface{}{"rel": "self", "href": "https://api.example.org/records/1/"},
				},
			},
			want: "https://api.example.org/records/1/",
		},
		{
			name: "no links",
			item: domain.JSONMap{"CaseID": "1"},
			want: "",
		},
		{
			name: "list without self",
			item: domain.JSONMap{
				"links": []interface{}{
					map[string]interface{}{"rel": "next", "href": "https://api.example.org/records/?page=2"},
				},
			},
			want: "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SelfLink(tc.item); got != tc.want {
				t.Errorf("SelfLink() = %q, want %q", got, tc.want)
			}
		})
	}
}
