package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/ossih/casemirror/internal/domain"
	"github.com/ossih/casemirror/internal/fetcher"
	"github.com/ossih/casemirror/internal/logger"
	"github.com/ossih/casemirror/internal/repository"
)

// ReconcileService pulls record, case, and meeting data onto decisions and
// keeps cross-references consistent regardless of the order entities were
// synchronized in.
type ReconcileService struct {
	fetch   Fetcher
	urls    *fetcher.URLBuilder
	records *repository.RecordRepository
	queue   *repository.QueueRepository
	logger  *logger.Logger
}

// NewReconcileService creates a reconcile service.
// Parameters:
//   - fetch: remote fetcher.
//   - urls: URL builder for detail endpoints.
//   - records: local record store.
//   - queue: durable work queue for retry tasks.
//   - log: logger instance.
// Returns:
//   - *ReconcileService: initialized service.
func NewReconcileService(
	fetch Fetcher,
	urls *fetcher.URLBuilder,
	records *repository.RecordRepository,
	queue *repository.QueueRepository,
	log *logger.Logger,
) *ReconcileService {
	if log == nil {
		log = logger.GetDefault()
	}
	return &ReconcileService{
		fetch:   fetch,
		urls:    urls,
		records: records,
		queue:   queue,
		logger:  log,
	}
}

func (s *ReconcileService) log(ctx context.Context) *logger.Logger {
	if l := logger.FromContext(ctx); l != nil {
		return l
	}
	return s.logger
}

// UpdateDecision refreshes one decision from its record, meeting, and case
// sources, applying the fallback chain when a source is unreachable. The
// decision is saved regardless of outcome; unresolved dates are filled with
// the sentinel and flagged for backfill.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - nativeID: the decision's remote-assigned ID.
//   - caseID: parent case native ID, "" when unknown.
//   - meetingID: parent meeting native ID, "" when unknown.
// Returns:
//   - *domain.Decision: stored decision after reconciliation.
//   - bool: true when the fallback chain was exhausted and sentinel dates
//     had to be applied.
//   - error: non-nil only on storage failure.
func (s *ReconcileService) UpdateDecision(ctx context.Context, nativeID, caseID, meetingID string) (*domain.Decision, bool, error) {
	d, err := s.records.FindDecisionByNativeID(ctx, nativeID)
	if err != nil {
		return nil, false, err
	}
	if d == nil {
		d = &domain.Decision{
			ID:       uuid.New().String(),
			NativeID: nativeID,
			Kind:     domain.DecisionKindDecision,
		}
	}
	if caseID != "" {
		d.CaseID = caseID
	}
	if meetingID != "" {
		d.MeetingID = meetingID
	}

	// Record detail first; stored data, then the case's record list, serve
	// as fallbacks.
	fetchRecordFromCase := false
	recordURL := s.urls.Detail("records", nativeID, d.Language)
	payload, err := s.fetch.Fetch(ctx, recordURL, false)
	if err != nil {
		return nil, false, err
	}
	if len(payload) > 0 {
		s.applyRecordPayload(d, payload)
	} else if len(d.Record) == 0 {
		fetchRecordFromCase = true
	}

	// Record fields feed the unique ID, so recompute after any fetch.
	d.RecomputeUniqueID()

	if d.MeetingID != "" {
		meeting, err := s.records.FindMeetingByNativeID(ctx, d.MeetingID)
		if err != nil {
			return nil, false, err
		}
		if meeting != nil {
			d.MeetingDate = meeting.Date
			d.MeetingSequence = meeting.Sequence
		} else {
			if _, _, err := s.queue.Enqueue(ctx, "meetings", d.MeetingID, domain.TaskReasonRetry, nil); err != nil {
				return nil, false, err
			}
		}
	}

	if d.CaseID != "" {
		c, err := s.records.FindCaseByNativeID(ctx, d.CaseID)
		if err != nil {
			return nil, false, err
		}
		if c != nil {
			if c.Title != "" {
				d.CaseTitle = c.Title
			} else {
				d.CaseTitle = d.Title
			}
			if fetchRecordFromCase {
				if rec := caseRecordFor(c, nativeID); rec != nil {
					s.applyRecordPayload(d, rec)
					d.RecomputeUniqueID()
					fetchRecordFromCase = false
				}
			}
		} else {
			if _, _, err := s.queue.Enqueue(ctx, "cases", d.CaseID, domain.TaskReasonRetry, nil); err != nil {
				return nil, false, err
			}
		}
	}

	// A title must never be left empty.
	if d.CaseTitle == "" {
		d.CaseTitle = d.Title
	}

	exhausted := d.ApplySentinelDates()
	if exhausted {
		s.log(ctx).WithFields(logger.Fields{
			logger.FieldEntityID: nativeID,
		}).Warn("Decision dates unresolved, sentinel applied")
	}

	// Flags are set regardless of outcome so scheduled passes do not
	// re-attempt fields that are genuinely absent upstream.
	d.DatesChecked = true
	d.MinutesChecked = true
	d.AttachmentsChecked = true
	d.RecordLanguageChecked = true
	d.StatusChecked = true

	if err := s.records.SaveDecision(ctx, d); err != nil {
		return nil, false, err
	}
	return d, exhausted, nil
}

// caseRecordFor searches a case's own record list for the record whose
// native ID matches the decision.
func caseRecordFor(c *domain.Case, nativeID string) domain.JSONMap {
	for _, rec := range c.Records {
		if itemID(rec) == nativeID {
			return rec
		}
	}
	return nil
}

// applyRecordPayload copies record detail fields onto the decision.
func (s *ReconcileService) applyRecordPayload(d *domain.Decision, payload domain.JSONMap) {
	d.Record = payload

	if title := payload.String("Title"); title != "" {
		d.Title = title
	}
	if lang := payload.String("Language"); lang != "" {
		d.Language = lang
	}
	if diary := payload.String("DiaryNumber"); diary != "" {
		d.DiaryNumber = diary
	}
	if meetingID := payload.String("MeetingID"); meetingID != "" {
		d.MeetingID = meetingID
	}
	if section := payload.String("Section"); section != "" {
		d.Section = section
	}
	if point := payload.String("AgendaPoint"); point != "" {
		d.AgendaPoint = point
	}
	if pm := payload.String("PolicymakerID"); pm != "" {
		d.PolicymakerID = pm
	}
	if kind := payload.String("Type"); kind == string(domain.DecisionKindMotion) {
		d.Kind = domain.DecisionKindMotion
	}
	if t := parseTime(payload.String("DecisionDate")); t != nil {
		d.DecisionDate = t
		d.DateBackfillNeeded = false
	}
	if atts := asStrings(payload["Attachments"]); len(atts) > 0 {
		d.Attachments = atts
	}
}
