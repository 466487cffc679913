package repository

import (
	"context"
	"errors"
	"time"

	"github.com/ossih/casemirror/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CacheRepository stores decoded upstream responses keyed by a normalized
// request signature. Entries survive process restarts; expiry is enforced
// on read.
type CacheRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewCacheRepository creates a new CacheRepository.
func NewCacheRepository(db *gorm.DB) *CacheRepository {
	return &CacheRepository{db: db, now: time.Now}
}

// Get returns the cached value for key. A read at or after the entry's
// expiry is a miss and lazily removes the row.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - key: normalized request signature.
// Returns:
//   - domain.JSONMap: cached value on hit, nil otherwise.
//   - bool: true on hit.
//   - error: non-nil only on storage failure.
func (r *CacheRepository) Get(ctx context.Context, key string) (domain.JSONMap, bool, error) {
	var entry domain.CacheEntry
	if err := r.db.WithContext(ctx).First(&entry, "key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if entry.Expired(r.now()) {
		_ = r.db.WithContext(ctx).Delete(&domain.CacheEntry{}, "key = ?", key).Error
		return nil, false, nil
	}
	return entry.Value, true, nil
}

// Set stores value under key, overwriting any previous entry.
func (r *CacheRepository) Set(ctx context.Context, key string, value domain.JSONMap, ttl time.Duration) error {
	entry := domain.CacheEntry{
		Key:       key,
		Value:     value,
		ExpiresAt: r.now().Add(ttl),
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		UpdateAll: true,
	}).Create(&entry).Error
}

// Invalidate removes the entry for key. Missing entries are not an error.
func (r *CacheRepository) Invalidate(ctx context.Context, key string) error {
	return r.db.WithContext(ctx).Delete(&domain.CacheEntry{}, "key = ?", key).Error
}

// InvalidatePrefix removes all entries whose key starts with prefix. Used
// when a change notification names an entity but not the exact request
// variants cached for it.
func (r *CacheRepository) InvalidatePrefix(ctx context.Context, prefix string) error {
	return r.db.WithContext(ctx).Delete(&domain.CacheEntry{}, "key LIKE ?", prefix+"%").Error
}

// PurgeExpired removes all stale entries. Run from the maintenance path.
func (r *CacheRepository) PurgeExpired(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&domain.CacheEntry{}, "expires_at <= ?", r.now())
	return res.RowsAffected, res.Error
}
