package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ossih/casemirror/internal/domain"
	"github.com/ossih/casemirror/internal/fetcher"
	"github.com/ossih/casemirror/internal/repository"
	"gorm.io/gorm"
)

func newTestReconciler(t *testing.T, db *gorm.DB, fetch Fetcher) (*ReconcileService, *fetcher.URLBuilder, *repository.RecordRepository, *repository.QueueRepository) {
	t.Helper()
	records := repository.NewRecordRepository(db)
	queue := repository.NewQueueRepository(db)
	urls := fetcher.NewURLBuilder("https://upstream.test/v1", "", "fi")
	return NewReconcileService(fetch, urls, records, queue, nil), urls, records, queue
}

// TestUpdateDecisionFromRecord verifies record detail fields land on the
// decision and the unique ID reflects them
func TestUpdateDecisionFromRecord(t *testing.T) {
	db := newTestDB(t)
	fetch := newFakeFetcher()
	svc, urls, records, _ := newTestReconciler(t, db, fetch)
	ctx := context.Background()

	meetingDate := time.Date(2023, 5, 10, 0, 0, 0, 0, time.UTC)
	meeting := &domain.Meeting{
		ID:       uuid.New().String(),
		NativeID: "M100",
		Date:     &meetingDate,
		Sequence: 7,
	}
	if err := records.SaveMeeting(ctx, meeting); err != nil {
		t.Fatalf("SaveMeeting failed: %v", err)
	}
	c := &domain.Case{ID: uuid.New().String(), NativeID: "CASE1", Title: "Street plan"}
	if err := records.SaveCase(ctx, c); err != nil {
		t.Fatalf("SaveCase failed: %v", err)
	}

	fetch.payloads[urls.Detail("records", "D1", "")] = domain.JSONMap{
		"Title":         "Decision on street plan",
		"Language":      "fi",
		"DiaryNumber":   "HEL-2023-001",
		"Section":       "12",
		"AgendaPoint":   "3",
		"PolicymakerID": "02900",
		"DecisionDate":  "2023-05-10T12:00:00",
	}

	d, exhausted, err := svc.UpdateDecision(ctx, "D1", "CASE1", "M100")
	if err != nil {
		t.Fatalf("UpdateDecision failed: %v", err)
	}

	if exhausted {
		t.Error("exhausted reported with all sources resolved")
	}
	if d.Title != "Decision on street plan" || d.DiaryNumber != "HEL-2023-001" {
		t.Errorf("record fields not applied: %+v", d)
	}
	if d.UniqueID != "HEL-2023-001-M100-12-3-02900" {
		t.Errorf("UniqueID = %q", d.UniqueID)
	}
	if d.MeetingDate == nil || !d.MeetingDate.Equal(meetingDate) || d.MeetingSequence != 7 {
		t.Errorf("meeting fields not copied: date=%v seq=%d", d.MeetingDate, d.MeetingSequence)
	}
	if d.CaseTitle != "Street plan" {
		t.Errorf("CaseTitle = %q, want case title", d.CaseTitle)
	}
	if d.DateBackfillNeeded {
		t.Error("DateBackfillNeeded set with both dates resolved")
	}
	if !d.DatesChecked || !d.MinutesChecked || !d.AttachmentsChecked || !d.RecordLanguageChecked || !d.StatusChecked {
		t.Errorf("checked flags not set: %+v", d)
	}

	stored, err := records.FindDecisionByNativeID(ctx, "D1")
	if err != nil || stored == nil {
		t.Fatalf("decision not stored: %v", err)
	}
}

// TestUpdateDecisionRecordFromCase verifies the case's own record list is
// adopted when the record fetch fails and nothing is stored locally
func TestUpdateDecisionRecordFromCase(t *testing.T) {
	db := newTestDB(t)
	fetch := newFakeFetcher()
	svc, _, records, _ := newTestReconciler(t, db, fetch)
	ctx := context.Background()

	c := &domain.Case{
		ID:       uuid.New().String(),
		NativeID: "CASE1",
		Title:    "Park renovation",
		Records: domain.JSONMapList{
			{"NativeId": "OTHER", "Title": "Unrelated"},
			{
				"NativeId":    "D2",
				"Title":       "Motion on park renovation",
				"DiaryNumber": "HEL-2023-002",
				"Section":     "4",
			},
		},
	}
	if err := records.SaveCase(ctx, c); err != nil {
		t.Fatalf("SaveCase failed: %v", err)
	}

	// No record payload registered: the detail fetch yields empty.
	d, _, err := svc.UpdateDecision(ctx, "D2", "CASE1", "")
	if err != nil {
		t.Fatalf("UpdateDecision failed: %v", err)
	}

	if d.Title != "Motion on park renovation" || d.DiaryNumber != "HEL-2023-002" {
		t.Errorf("case record not adopted: %+v", d)
	}
	if d.UniqueID != "HEL-2023-002-0-4-0-0" {
		t.Errorf("UniqueID = %q, want recomputed from adopted record", d.UniqueID)
	}
}

// TestUpdateDecisionQueuesMissingSources verifies unresolvable meeting and
// case references each leave a retry task while the decision still saves
func TestUpdateDecisionQueuesMissingSources(t *testing.T) {
	db := newTestDB(t)
	fetch := newFakeFetcher()
	svc, urls, records, queue := newTestReconciler(t, db, fetch)
	ctx := context.Background()

	fetch.payloads[urls.Detail("records", "D3", "")] = domain.JSONMap{
		"Title": "Standalone decision",
	}

	d, exhausted, err := svc.UpdateDecision(ctx, "D3", "NOCASE", "NOMEETING")
	if err != nil {
		t.Fatalf("UpdateDecision failed: %v", err)
	}

	if !exhausted {
		t.Error("exhausted not reported with every source unresolved")
	}
	// Title falls back when the case is unreachable
	if d.CaseTitle != "Standalone decision" {
		t.Errorf("CaseTitle = %q, want decision title fallback", d.CaseTitle)
	}
	// Unresolved dates carry the sentinel and the backfill flag
	if d.MeetingDate == nil || !d.MeetingDate.Equal(domain.SentinelDate) {
		t.Errorf("MeetingDate = %v, want sentinel", d.MeetingDate)
	}
	if !d.DateBackfillNeeded {
		t.Error("DateBackfillNeeded not set")
	}

	tasks, err := queue.Pending(ctx, 0)
	if err != nil {
		t.Fatalf("Pending failed: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("got %d queue tasks, want 2", len(tasks))
	}
	byEndpoint := map[string]string{}
	for _, task := range tasks {
		byEndpoint[task.Endpoint] = task.EntityID
	}
	if byEndpoint["meetings"] != "NOMEETING" || byEndpoint["cases"] != "NOCASE" {
		t.Errorf("queue tasks = %v", byEndpoint)
	}

	if stored, _ := records.FindDecisionByNativeID(ctx, "D3"); stored == nil {
		t.Error("decision not saved despite unresolved sources")
	}
}

// TestUpdateDecisionKeepsStoredRecord verifies a failing record fetch does
// not wipe previously stored record data
func TestUpdateDecisionKeepsStoredRecord(t *testing.T) {
	db := newTestDB(t)
	fetch := newFakeFetcher()
	svc, _, records, _ := newTestReconciler(t, db, fetch)
	ctx := context.Background()

	existing := &domain.Decision{
		ID:          uuid.New().String(),
		NativeID:    "D4",
		Kind:        domain.DecisionKindDecision,
		Title:       "Previously synced",
		DiaryNumber: "HEL-2023-004",
		Record:      domain.JSONMap{"Title": "Previously synced"},
	}
	if err := records.SaveDecision(ctx, existing); err != nil {
		t.Fatalf("SaveDecision failed: %v", err)
	}

	d, _, err := svc.UpdateDecision(ctx, "D4", "", "")
	if err != nil {
		t.Fatalf("UpdateDecision failed: %v", err)
	}

	if d.Title != "Previously synced" || d.DiaryNumber != "HEL-2023-004" {
		t.Errorf("stored record data lost: %+v", d)
	}
	if len(d.Record) == 0 {
		t.Error("stored record payload wiped")
	}
}
