package repository

import (
	"context"
	"errors"

	"github.com/ossih/casemirror/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RecordRepository is the local record store for mirrored entities. Finders
// return (nil, nil) when no row matches: callers throughout the sync engine
// branch on emptiness, not on error values.
type RecordRepository struct {
	db *gorm.DB
}

// NewRecordRepository creates a new RecordRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *RecordRepository: repository instance bound to db.
func NewRecordRepository(db *gorm.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

func notFoundToNil(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return err
}

// upsert on the remote-assigned native ID gives last-write-wins semantics
// per record, matching what the engine assumes of the record store.
func nativeIDConflict() clause.OnConflict {
	return clause.OnConflict{
		Columns:   []clause.Column{{Name: "native_id"}},
		UpdateAll: true,
	}
}

// SaveCase creates or updates a case keyed by its native ID.
func (r *RecordRepository) SaveCase(ctx context.Context, c *domain.Case) error {
	return r.db.WithContext(ctx).Clauses(nativeIDConflict()).Create(c).Error
}

// SaveDecision creates or updates a decision keyed by its native ID.
func (r *RecordRepository) SaveDecision(ctx context.Context, d *domain.Decision) error {
	return r.db.WithContext(ctx).Clauses(nativeIDConflict()).Create(d).Error
}

// SaveMeeting creates or updates a meeting keyed by its native ID.
func (r *RecordRepository) SaveMeeting(ctx context.Context, m *domain.Meeting) error {
	return r.db.WithContext(ctx).Clauses(nativeIDConflict()).Create(m).Error
}

// SaveOrganization creates or updates an organization keyed by its native ID.
func (r *RecordRepository) SaveOrganization(ctx context.Context, o *domain.Organization) error {
	return r.db.WithContext(ctx).Clauses(nativeIDConflict()).Create(o).Error
}

// SaveTrustee creates or updates a trustee keyed by its native ID.
func (r *RecordRepository) SaveTrustee(ctx context.Context, t *domain.Trustee) error {
	return r.db.WithContext(ctx).Clauses(nativeIDConflict()).Create(t).Error
}

// SavePositionOfTrust creates or updates a position of trust keyed by its native ID.
func (r *RecordRepository) SavePositionOfTrust(ctx context.Context, p *domain.PositionOfTrust) error {
	return r.db.WithContext(ctx).Clauses(nativeIDConflict()).Create(p).Error
}

// FindCaseByNativeID retrieves a case by its remote-assigned ID.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - nativeID: remote-assigned case ID.
// Returns:
//   - *domain.Case: case record, or nil when absent.
//   - error: non-nil only on storage failure.
func (r *RecordRepository) FindCaseByNativeID(ctx context.Context, nativeID string) (*domain.Case, error) {
	var c domain.Case
	if err := r.db.WithContext(ctx).First(&c, "native_id = ?", nativeID).Error; err != nil {
		return nil, notFoundToNil(err)
	}
	return &c, nil
}

// FindCaseByDiaryNumber retrieves a case by its diary number.
func (r *RecordRepository) FindCaseByDiaryNumber(ctx context.Context, diaryNumber string) (*domain.Case, error) {
	var c domain.Case
	if err := r.db.WithContext(ctx).First(&c, "diary_number = ?", diaryNumber).Error; err != nil {
		return nil, notFoundToNil(err)
	}
	return &c, nil
}

// FindDecisionByNativeID retrieves a decision by its remote-assigned ID.
func (r *RecordRepository) FindDecisionByNativeID(ctx context.Context, nativeID string) (*domain.Decision, error) {
	var d domain.Decision
	if err := r.db.WithContext(ctx).First(&d, "native_id = ?", nativeID).Error; err != nil {
		return nil, notFoundToNil(err)
	}
	return &d, nil
}

// FindDecisionsByMeetingID retrieves all decisions attached to a meeting.
func (r *RecordRepository) FindDecisionsByMeetingID(ctx context.Context, meetingID string) ([]domain.Decision, error) {
	var decisions []domain.Decision
	if err := r.db.WithContext(ctx).Where("meeting_id = ?", meetingID).Find(&decisions).Error; err != nil {
		return nil, err
	}
	return decisions, nil
}

// FindDecisionByTitleAndMeeting matches a decision by title within a
// meeting, optionally narrowed by section. Used by the consistency checks.
func (r *RecordRepository) FindDecisionByTitleAndMeeting(ctx context.Context, title, meetingID, section string) (*domain.Decision, error) {
	q := r.db.WithContext(ctx).Where("title = ? AND meeting_id = ?", title, meetingID)
	if section != "" {
		q = q.Where("section = ?", section)
	}
	var d domain.Decision
	if err := q.First(&d).Error; err != nil {
		return nil, notFoundToNil(err)
	}
	return &d, nil
}

// FindMotionsByMeetingID retrieves motion records attached to a meeting.
func (r *RecordRepository) FindMotionsByMeetingID(ctx context.Context, meetingID string) ([]domain.Decision, error) {
	var motions []domain.Decision
	err := r.db.WithContext(ctx).
		Where("meeting_id = ? AND kind = ?", meetingID, domain.DecisionKindMotion).
		Find(&motions).Error
	if err != nil {
		return nil, err
	}
	return motions, nil
}

// FindMeetingByNativeID retrieves a meeting by its remote-assigned ID.
func (r *RecordRepository) FindMeetingByNativeID(ctx context.Context, nativeID string) (*domain.Meeting, error) {
	var m domain.Meeting
	if err := r.db.WithContext(ctx).First(&m, "native_id = ?", nativeID).Error; err != nil {
		return nil, notFoundToNil(err)
	}
	return &m, nil
}

// ListMeetingsWithMinutes retrieves meetings whose minutes are published.
func (r *RecordRepository) ListMeetingsWithMinutes(ctx context.Context) ([]domain.Meeting, error) {
	var meetings []domain.Meeting
	if err := r.db.WithContext(ctx).Where("minutes_published = ?", true).Find(&meetings).Error; err != nil {
		return nil, err
	}
	return meetings, nil
}

// ListBackfillDecisions retrieves decisions still carrying sentinel dates.
func (r *RecordRepository) ListBackfillDecisions(ctx context.Context) ([]domain.Decision, error) {
	var decisions []domain.Decision
	if err := r.db.WithContext(ctx).Where("date_backfill_needed = ?", true).Find(&decisions).Error; err != nil {
		return nil, err
	}
	return decisions, nil
}

// ResetDecisionCheckedFlags reopens the per-attribute checkpoints of one
// decision so the next scheduled pass re-attempts its fields.
func (r *RecordRepository) ResetDecisionCheckedFlags(ctx context.Context, nativeID string) error {
	return r.db.WithContext(ctx).Model(&domain.Decision{}).
		Where("native_id = ?", nativeID).
		Updates(map[string]interface{}{
			"dates_checked":           false,
			"minutes_checked":         false,
			"attachments_checked":     false,
			"record_language_checked": false,
			"status_checked":          false,
		}).Error
}
