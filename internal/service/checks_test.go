package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/ossih/casemirror/internal/domain"
)

// TestCheckMissingDecisions verifies agenda items of decision kind must
// resolve to a stored decision, with sections compared numerically
func TestCheckMissingDecisions(t *testing.T) {
	db := newTestDB(t)
	fetch := newFakeFetcher()
	svc, _, records, _ := newTestReconciler(t, db, fetch)
	ctx := context.Background()

	meeting := &domain.Meeting{
		ID:               uuid.New().String(),
		NativeID:         "M1",
		MinutesPublished: true,
		Agenda: domain.AgendaItems{
			{NativeID: "A1", Title: "Budget", RecordKind: "decision", Section: "§ 12"},
			{NativeID: "A2", Title: "Zoning", RecordKind: "decision", Section: "13"},
			{NativeID: "A3", Title: "Roll call", RecordKind: "other"},
		},
	}
	if err := records.SaveMeeting(ctx, meeting); err != nil {
		t.Fatalf("SaveMeeting failed: %v", err)
	}

	// Budget is stored with a bare numeric section; it must still resolve
	// against the agenda's "§ 12".
	d := &domain.Decision{
		ID: uuid.New().String(), NativeID: "D1",
		Title: "Budget", MeetingID: "M1", Section: "12",
	}
	if err := records.SaveDecision(ctx, d); err != nil {
		t.Fatalf("SaveDecision failed: %v", err)
	}

	missing, err := svc.CheckMissingDecisions(ctx, "M1")
	if err != nil {
		t.Fatalf("CheckMissingDecisions failed: %v", err)
	}
	if len(missing) != 1 || missing[0] != "A2" {
		t.Errorf("missing = %v, want [A2]", missing)
	}
}

// TestCheckMissingDecisionsIgnoresMotions verifies an unpromoted motion with
// a matching title and section does not satisfy the decision check
func TestCheckMissingDecisionsIgnoresMotions(t *testing.T) {
	db := newTestDB(t)
	fetch := newFakeFetcher()
	svc, _, records, _ := newTestReconciler(t, db, fetch)
	ctx := context.Background()

	meeting := &domain.Meeting{
		ID:               uuid.New().String(),
		NativeID:         "M1",
		MinutesPublished: true,
		Agenda: domain.AgendaItems{
			{NativeID: "A1", Title: "Zoning", RecordKind: "decision", Section: "13"},
		},
	}
	if err := records.SaveMeeting(ctx, meeting); err != nil {
		t.Fatalf("SaveMeeting failed: %v", err)
	}

	motion := &domain.Decision{
		ID: uuid.New().String(), NativeID: "D1",
		Title: "Zoning", MeetingID: "M1", Section: "13",
		Kind: domain.DecisionKindMotion,
	}
	if err := records.SaveDecision(ctx, motion); err != nil {
		t.Fatalf("SaveDecision failed: %v", err)
	}

	missing, err := svc.CheckMissingDecisions(ctx, "M1")
	if err != nil {
		t.Fatalf("CheckMissingDecisions failed: %v", err)
	}
	if len(missing) != 1 || missing[0] != "A1" {
		t.Errorf("missing = %v, want [A1] despite the matching motion", missing)
	}
}

// TestCheckMissingDecisionsRequiresMinutes verifies the check is a no-op
// before the meeting's minutes are published
func TestCheckMissingDecisionsRequiresMinutes(t *testing.T) {
	db := newTestDB(t)
	fetch := newFakeFetcher()
	svc, _, records, _ := newTestReconciler(t, db, fetch)
	ctx := context.Background()

	meeting := &domain.Meeting{
		ID:       uuid.New().String(),
		NativeID: "M1",
		Agenda: domain.AgendaItems{
			{NativeID: "A1", Title: "Budget", RecordKind: "decision"},
		},
	}
	if err := records.SaveMeeting(ctx, meeting); err != nil {
		t.Fatalf("SaveMeeting failed: %v", err)
	}

	missing, err := svc.CheckMissingDecisions(ctx, "M1")
	if err != nil {
		t.Fatalf("CheckMissingDecisions failed: %v", err)
	}
	if missing != nil {
		t.Errorf("missing = %v before minutes published, want nil", missing)
	}
}

// TestCheckMissingMotions verifies Finnish agenda items on a published
// agenda must resolve to motions before the minutes arrive
func TestCheckMissingMotions(t *testing.T) {
	db := newTestDB(t)
	fetch := newFakeFetcher()
	svc, _, records, _ := newTestReconciler(t, db, fetch)
	ctx := context.Background()

	meeting := &domain.Meeting{
		ID:              uuid.New().String(),
		NativeID:        "M1",
		AgendaPublished: true,
		Agenda: domain.AgendaItems{
			{NativeID: "A1", Title: "Budget", Language: "fi"},
			{NativeID: "A2", Title: "Zoning", Language: "fi"},
			{NativeID: "A3", Title: "Budget", Language: "sv"},
			{Title: "No native id", Language: "fi"},
		},
	}
	if err := records.SaveMeeting(ctx, meeting); err != nil {
		t.Fatalf("SaveMeeting failed: %v", err)
	}

	motion := &domain.Decision{
		ID: uuid.New().String(), NativeID: "D1",
		Title: "Budget", MeetingID: "M1", Kind: domain.DecisionKindMotion,
	}
	if err := records.SaveDecision(ctx, motion); err != nil {
		t.Fatalf("SaveDecision failed: %v", err)
	}

	missing, err := svc.CheckMissingMotions(ctx, "M1")
	if err != nil {
		t.Fatalf("CheckMissingMotions failed: %v", err)
	}
	if len(missing) != 1 || missing[0] != "A2" {
		t.Errorf("missing = %v, want [A2]", missing)
	}
}

// TestFindOrphanedMotions verifies motions under meetings with published
// minutes are flagged
func TestFindOrphanedMotions(t *testing.T) {
	db := newTestDB(t)
	fetch := newFakeFetcher()
	svc, _, records, _ := newTestReconciler(t, db, fetch)
	ctx := context.Background()

	meetings := []domain.Meeting{
		{ID: uuid.New().String(), NativeID: "M1", MinutesPublished: true},
		{ID: uuid.New().String(), NativeID: "M2"},
	}
	for i := range meetings {
		if err := records.SaveMeeting(ctx, &meetings[i]); err != nil {
			t.Fatalf("SaveMeeting failed: %v", err)
		}
	}

	seed := []domain.Decision{
		{ID: uuid.New().String(), NativeID: "D1", MeetingID: "M1", Kind: domain.DecisionKindMotion},
		{ID: uuid.New().String(), NativeID: "D2", MeetingID: "M1", Kind: domain.DecisionKindDecision},
		{ID: uuid.New().String(), NativeID: "D3", MeetingID: "M2", Kind: domain.DecisionKindMotion},
	}
	for i := range seed {
		if err := records.SaveDecision(ctx, &seed[i]); err != nil {
			t.Fatalf("SaveDecision failed: %v", err)
		}
	}

	orphaned, err := svc.FindOrphanedMotions(ctx)
	if err != nil {
		t.Fatalf("FindOrphanedMotions failed: %v", err)
	}
	if len(orphaned) != 1 || orphaned[0].NativeID != "D1" {
		t.Errorf("orphaned = %+v, want D1 only", orphaned)
	}
}
