package service

import (
	"context"

	"github.com/ossih/casemirror/internal/domain"
)

// Consistency checks. Read-only diagnostics consumed by operational
// tooling; none of them mutate the record store.

// CheckMissingMotions verifies that every Finnish-language agenda item with
// a native ID on a meeting whose agenda is published (but minutes are not)
// resolves to an existing decision or motion by title and meeting. Returns
// the native IDs that do not resolve; a non-empty result flags the meeting
// for reprocessing.
func (s *ReconcileService) CheckMissingMotions(ctx context.Context, meetingNativeID string) ([]string, error) {
	meeting, err := s.records.FindMeetingByNativeID(ctx, meetingNativeID)
	if err != nil {
		return nil, err
	}
	if meeting == nil || !meeting.AgendaPublished || meeting.MinutesPublished {
		return nil, nil
	}

	var missing []string
	for _, item := range meeting.Agenda {
		if item.Language != "fi" || item.NativeID == "" {
			continue
		}
		d, err := s.records.FindDecisionByTitleAndMeeting(ctx, item.Title, meeting.NativeID, "")
		if err != nil {
			return nil, err
		}
		if d == nil {
			missing = append(missing, item.NativeID)
		}
	}
	return missing, nil
}

// CheckMissingDecisions verifies that every agenda item of record kind
// "decision" on a meeting with published minutes resolves to an existing
// decision record, matched by title, meeting, and numeric section when one
// is present. Returns the unresolved native IDs.
func (s *ReconcileService) CheckMissingDecisions(ctx context.Context, meetingNativeID string) ([]string, error) {
	meeting, err := s.records.FindMeetingByNativeID(ctx, meetingNativeID)
	if err != nil {
		return nil, err
	}
	if meeting == nil || !meeting.MinutesPublished {
		return nil, nil
	}

	decisions, err := s.records.FindDecisionsByMeetingID(ctx, meeting.NativeID)
	if err != nil {
		return nil, err
	}

	var missing []string
	for _, item := range meeting.Agenda {
		if item.RecordKind != string(domain.DecisionKindDecision) || item.NativeID == "" {
			continue
		}
		if !resolvesToDecision(item, decisions) {
			missing = append(missing, item.NativeID)
		}
	}
	return missing, nil
}

// resolvesToDecision matches an agenda item against stored decisions by
// title and, when the item carries one, numeric section. Sections compare
// in numeric form so "§ 123" and "123" agree. Motions never satisfy the
// match; an unpromoted motion is exactly what the check must surface.
func resolvesToDecision(item domain.AgendaItem, decisions []domain.Decision) bool {
	wantSection := numericSection(item.Section)
	for _, d := range decisions {
		if d.Kind != domain.DecisionKindDecision {
			continue
		}
		if d.Title != item.Title {
			continue
		}
		if wantSection != "" && numericSection(d.Section) != wantSection {
			continue
		}
		return true
	}
	return false
}

// FindOrphanedMotions returns motions whose parent meeting's minutes have
// since been published. Such motions should have been superseded by final
// decisions and are flagged for unpublish/delete.
func (s *ReconcileService) FindOrphanedMotions(ctx context.Context) ([]domain.Decision, error) {
	meetings, err := s.records.ListMeetingsWithMinutes(ctx)
	if err != nil {
		return nil, err
	}

	var orphaned []domain.Decision
	for _, meeting := range meetings {
		motions, err := s.records.FindMotionsByMeetingID(ctx, meeting.NativeID)
		if err != nil {
			return nil, err
		}
		orphaned = append(orphaned, motions...)
	}
	return orphaned, nil
}
