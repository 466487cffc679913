package service

import (
	"context"
	"testing"

	"github.com/ossih/casemirror/internal/domain"
	"github.com/ossih/casemirror/internal/fetcher"
)

// TestSyncOneUnknownEndpoint verifies an unregistered endpoint is skipped
// without any network traffic
func TestSyncOneUnknownEndpoint(t *testing.T) {
	fetch := newFakeFetcher()
	urls := fetcher.NewURLBuilder("https://upstream.test/v1", "", "fi")
	svc := NewSyncService(Registry{}, fetch, urls, nil)

	status := svc.SyncOne(context.Background(), "nonexistent", "X1")
	if status != domain.StatusSkipped {
		t.Errorf("status = %s, want skipped", status)
	}
	if fetch.callCount() != 0 {
		t.Errorf("fetch called %d times for unknown endpoint, want 0", fetch.callCount())
	}
}

// TestSyncOneDisabledHandler verifies a registered endpoint with no apply
// procedure reports disabled
func TestSyncOneDisabledHandler(t *testing.T) {
	fetch := newFakeFetcher()
	urls := fetcher.NewURLBuilder("https://upstream.test/v1", "", "fi")
	registry := Registry{"cases": {ListKey: "cases"}}
	svc := NewSyncService(registry, fetch, urls, nil)

	status := svc.SyncOne(context.Background(), "cases", "C1")
	if status != domain.StatusDisabled {
		t.Errorf("status = %s, want disabled", status)
	}
	if fetch.callCount() != 0 {
		t.Errorf("fetch called %d times for disabled endpoint, want 0", fetch.callCount())
	}
}

// TestSyncOneEmptyUpstream verifies an empty detail payload reports the
// entity as gone upstream
func TestSyncOneEmptyUpstream(t *testing.T) {
	fetch := newFakeFetcher()
	urls := fetcher.NewURLBuilder("https://upstream.test/v1", "", "fi")
	registry, _ := applyRecorder("cases", []string{"CaseID"}, domain.StatusCompleted)
	svc := NewSyncService(registry, fetch, urls, nil)

	status := svc.SyncOne(context.Background(), "cases", "GONE")
	if status != domain.StatusEmptyUpstream {
		t.Errorf("status = %s, want empty upstream", status)
	}
}

// TestSyncOneApplies verifies the handler result propagates and the cache is
// bypassed
func TestSyncOneApplies(t *testing.T) {
	fetch := newFakeFetcher()
	urls := fetcher.NewURLBuilder("https://upstream.test/v1", "", "fi")
	registry, applied := applyRecorder("cases", []string{"CaseID"}, domain.StatusCompleted)
	svc := NewSyncService(registry, fetch, urls, nil)

	fetch.payloads[urls.Detail("cases", "C1", "")] = domain.JSONMap{"CaseID": "C1"}

	status := svc.SyncOne(context.Background(), "cases", "C1")
	if status != domain.StatusCompleted {
		t.Errorf("status = %s, want completed", status)
	}
	if len(*applied) != 1 {
		t.Errorf("handler applied %d payloads, want 1", len(*applied))
	}
}
