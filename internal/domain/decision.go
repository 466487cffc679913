package domain

import (
	"strings"
	"time"
)

// DecisionKind distinguishes published decisions from motions, records that
// have not yet been promoted to a final decision.
type DecisionKind string

const (
	DecisionKindDecision DecisionKind = "decision"
	DecisionKindMotion   DecisionKind = "motion"
)

// SentinelDate marks meeting and decision dates that could not be resolved
// from any source. Records carrying it remain queryable but are flagged for
// backfill via DateBackfillNeeded.
var SentinelDate = time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC)

// Decision represents a mirrored decision or motion record.
type Decision struct {
	ID          string       `gorm:"type:text;primaryKey" json:"id"`
	NativeID    string       `gorm:"type:text;not null;uniqueIndex:idx_decisions_native" json:"native_id"`
	Kind        DecisionKind `gorm:"type:text;default:decision;index:idx_decisions_kind" json:"kind"`
	DiaryNumber string       `gorm:"type:text;index:idx_decisions_diary" json:"diary_number"`
	UniqueID    string       `gorm:"type:text;index:idx_decisions_unique" json:"unique_id"`

	Title     string `gorm:"type:text" json:"title"`
	CaseID    string `gorm:"type:text;index:idx_decisions_case" json:"case_id"`
	CaseTitle string `gorm:"type:text" json:"case_title"`

	MeetingID       string     `gorm:"type:text;index:idx_decisions_meeting" json:"meeting_id"`
	MeetingDate     *time.Time `json:"meeting_date,omitempty"`
	MeetingSequence int        `gorm:"default:0" json:"meeting_sequence"`
	DecisionDate    *time.Time `json:"decision_date,omitempty"`

	Section       string `gorm:"type:text" json:"section"`
	AgendaPoint   string `gorm:"type:text" json:"agenda_point"`
	PolicymakerID string `gorm:"type:text;index:idx_decisions_policymaker" json:"policymaker_id"`

	Language    string      `gorm:"type:text" json:"language"`
	Record      JSONMap     `gorm:"type:text" json:"record"`
	Attachments StringArray `gorm:"type:text" json:"attachments"`

	// Per-attribute completion checkpoints. A set flag means a scheduled
	// pass must not re-attempt the attribute; only an explicit reset
	// reopens it.
	DatesChecked          bool `gorm:"default:false" json:"dates_checked"`
	MinutesChecked        bool `gorm:"default:false" json:"minutes_checked"`
	AttachmentsChecked    bool `gorm:"default:false" json:"attachments_checked"`
	RecordLanguageChecked bool `gorm:"default:false" json:"record_language_checked"`
	StatusChecked         bool `gorm:"default:false" json:"status_checked"`

	// DateBackfillNeeded is set whenever a date field holds SentinelDate,
	// so "unresolved" is not inferred from the date value alone.
	DateBackfillNeeded bool `gorm:"default:false" json:"date_backfill_needed"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Decision) TableName() string {
	return "decisions"
}

// ComputeUniqueID derives the identifier used to detect duplicate
// translations of the same logical decision. Components are dash-joined in
// fixed order; an absent component contributes "0" in its position.
// Parameters:
//   - diaryNumber, meetingID, section, agendaPoint, policymakerID: source
//     components, any of which may be empty.
// Returns:
//   - string: deterministic dash-joined identifier.
func ComputeUniqueID(diaryNumber, meetingID, section, agendaPoint, policymakerID string) string {
	parts := []string{diaryNumber, meetingID, section, agendaPoint, policymakerID}
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			p = "0"
		}
		parts[i] = p
	}
	return strings.Join(parts, "-")
}

// RecomputeUniqueID refreshes UniqueID from the decision's current fields.
// Call after any record fetch, since record fields feed the computation.
func (d *Decision) RecomputeUniqueID() {
	d.UniqueID = ComputeUniqueID(d.DiaryNumber, d.MeetingID, d.Section, d.AgendaPoint, d.PolicymakerID)
}

// ApplySentinelDates fills unresolved meeting and decision dates with
// SentinelDate and marks the record for backfill. Returns true when any
// sentinel was applied.
func (d *Decision) ApplySentinelDates() bool {
	applied := false
	if d.MeetingDate == nil {
		t := SentinelDate
		d.MeetingDate = &t
		applied = true
	}
	if d.DecisionDate == nil {
		t := SentinelDate
		d.DecisionDate = &t
		applied = true
	}
	if applied {
		d.DateBackfillNeeded = true
	}
	return applied
}

// ResetCheckedFlags reopens all per-attribute checkpoints. Administrative
// action only.
func (d *Decision) ResetCheckedFlags() {
	d.DatesChecked = false
	d.MinutesChecked = false
	d.AttachmentsChecked = false
	d.RecordLanguageChecked = false
	d.StatusChecked = false
}
