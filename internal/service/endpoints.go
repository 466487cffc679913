package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/ossih/casemirror/internal/domain"
	"github.com/ossih/casemirror/internal/repository"
)

// EndpointHandler binds an upstream endpoint to its list key, preferred ID
// keys, and the procedure that applies a fetched detail payload to the
// local record store.
type EndpointHandler struct {
	ListKey string
	IDKeys  []string
	Apply   func(ctx context.Context, payload domain.JSONMap) (domain.SyncStatus, error)
}

// Registry maps endpoint names to their handlers. Lookup failure means
// the endpoint is not synchronized (Skipped); a present entry with no
// Apply procedure means the handler could not be instantiated (Disabled).
type Registry map[string]*EndpointHandler

// NewRegistry builds the endpoint registry at startup.
// Parameters:
//   - records: local record store.
//   - reconciler: decision reconciliation service.
// Returns:
//   - Registry: endpoint handlers keyed by endpoint name.
func NewRegistry(records *repository.RecordRepository, reconciler *ReconcileService) Registry {
	imp := &importer{records: records, reconciler: reconciler}
	return Registry{
		"cases": {
			ListKey: "cases",
			IDKeys:  []string{"CaseID"},
			Apply:   imp.applyCase,
		},
		"decisions": {
			ListKey: "decisions",
			IDKeys:  []string{"DecisionID", "NativeId"},
			Apply:   imp.applyDecision,
		},
		"meetings": {
			ListKey: "meetings",
			IDKeys:  []string{"MeetingID"},
			Apply:   imp.applyMeeting,
		},
		"decisionmaker": {
			ListKey: "decisionMakers",
			IDKeys:  []string{"ID", "NativeId"},
			Apply:   imp.applyOrganization,
		},
		"trustees": {
			ListKey: "trustees",
			IDKeys:  []string{"TrusteeID", "ID"},
			Apply:   imp.applyTrustee,
		},
		"positionsoftrust": {
			ListKey: "positionsOfTrust",
			IDKeys:  []string{"PositionID", "ID"},
			Apply:   imp.applyPositionOfTrust,
		},
	}
}

// importer maps upstream detail payloads onto record store rows.
type importer struct {
	records    *repository.RecordRepository
	reconciler *ReconcileService
}

func (i *importer) applyCase(ctx context.Context, payload domain.JSONMap) (domain.SyncStatus, error) {
	nativeID := itemID(payload, "CaseID")
	if nativeID == "" {
		return domain.StatusIncomplete, nil
	}

	existing, err := i.records.FindCaseByNativeID(ctx, nativeID)
	if err != nil {
		return domain.StatusFailed, err
	}

	c := existing
	if c == nil {
		c = &domain.Case{ID: uuid.New().String(), NativeID: nativeID}
	}
	if diary := payload.String("DiaryNumber"); diary != "" {
		c.DiaryNumber = diary
	}
	if title := payload.String("Title"); title != "" {
		c.Title = title
	}
	if records := payloadMaps(payload["records"]); records != nil {
		c.Records = records
	}
	c.Payload = payload

	if err := i.records.SaveCase(ctx, c); err != nil {
		return domain.StatusFailed, err
	}
	return domain.StatusCompleted, nil
}

func (i *importer) applyDecision(ctx context.Context, payload domain.JSONMap) (domain.SyncStatus, error) {
	nativeID := itemID(payload, "DecisionID", "NativeId")
	if nativeID == "" {
		return domain.StatusIncomplete, nil
	}

	caseID := payload.String("CaseID")
	meetingID := payload.String("MeetingID")
	_, exhausted, err := i.reconciler.UpdateDecision(ctx, nativeID, caseID, meetingID)
	if err != nil {
		return domain.StatusFailed, err
	}
	if exhausted {
		// Saved with sentinel dates only; report incomplete so the caller
		// records the item in its failure set and queues a retry.
		return domain.StatusIncomplete, nil
	}
	return domain.StatusCompleted, nil
}

func (i *importer) applyMeeting(ctx context.Context, payload domain.JSONMap) (domain.SyncStatus, error) {
	nativeID := itemID(payload, "MeetingID")
	if nativeID == "" {
		return domain.StatusIncomplete, nil
	}

	existing, err := i.records.FindMeetingByNativeID(ctx, nativeID)
	if err != nil {
		return domain.StatusFailed, err
	}

	m := existing
	if m == nil {
		m = &domain.Meeting{ID: uuid.New().String(), NativeID: nativeID}
	}
	if pm := payload.String("PolicymakerID"); pm != "" {
		m.PolicymakerID = pm
	}
	if t := parseTime(payload.String("Date")); t != nil {
		m.Date = t
	}
	if seq := asInt(payload["Sequence"]); seq != 0 {
		m.Sequence = seq
	}
	m.AgendaPublished = asBool(payload["AgendaPublished"])
	m.MinutesPublished = asBool(payload["MinutesPublished"])
	if agenda := agendaItems(payload["agenda_item"]); agenda != nil {
		m.Agenda = agenda
	}
	m.Payload = payload

	if err := i.records.SaveMeeting(ctx, m); err != nil {
		return domain.StatusFailed, err
	}
	return domain.StatusCompleted, nil
}

func (i *importer) applyOrganization(ctx context.Context, payload domain.JSONMap) (domain.SyncStatus, error) {
	nativeID := itemID(payload)
	if nativeID == "" {
		return domain.StatusIncomplete, nil
	}

	o := &domain.Organization{
		ID:       uuid.New().String(),
		NativeID: nativeID,
		Name:     payload.String("Name"),
		Payload:  payload,
	}
	if err := i.records.SaveOrganization(ctx, o); err != nil {
		return domain.StatusFailed, err
	}
	return domain.StatusCompleted, nil
}

func (i *importer) applyTrustee(ctx context.Context, payload domain.JSONMap) (domain.SyncStatus, error) {
	nativeID := itemID(payload, "TrusteeID")
	if nativeID == "" {
		return domain.StatusIncomplete, nil
	}

	t := &domain.Trustee{
		ID:       uuid.New().String(),
		NativeID: nativeID,
		Name:     payload.String("Name"),
		Payload:  payload,
	}
	if err := i.records.SaveTrustee(ctx, t); err != nil {
		return domain.StatusFailed, err
	}
	return domain.StatusCompleted, nil
}

func (i *importer) applyPositionOfTrust(ctx context.Context, payload domain.JSONMap) (domain.SyncStatus, error) {
	nativeID := itemID(payload, "PositionID")
	if nativeID == "" {
		return domain.StatusIncomplete, nil
	}

	p := &domain.PositionOfTrust{
		ID:        uuid.New().String(),
		NativeID:  nativeID,
		TrusteeID: payload.String("TrusteeID"),
		Title:     payload.String("Title"),
		Payload:   payload,
	}
	if err := i.records.SavePositionOfTrust(ctx, p); err != nil {
		return domain.StatusFailed, err
	}
	return domain.StatusCompleted, nil
}

// payloadMaps converts a raw JSON list into JSONMap entries.
func payloadMaps(v interface{}) domain.JSONMapList {
	entries, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make(domain.JSONMapList, 0, len(entries))
	for _, entry := range entries {
		if m, ok := entry.(map[string]interface{}); ok {
			out = append(out, domain.JSONMap(m))
		}
	}
	return out
}

// agendaItems decodes a meeting's agenda list.
func agendaItems(v interface{}) domain.AgendaItems {
	entries, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make(domain.AgendaItems, 0, len(entries))
	for _, entry := range entries {
		m, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}
		item := domain.JSONMap(m)
		out = append(out, domain.AgendaItem{
			NativeID:   itemID(item),
			Title:      item.String("Title"),
			Language:   item.String("Language"),
			RecordKind: item.String("RecordType"),
			Section:    item.String("Section"),
		})
	}
	return out
}
