package domain

import "time"

// CacheEntry maps a normalized request signature to a decoded JSON response.
// A read at or after ExpiresAt is a miss.
type CacheEntry struct {
	Key       string    `gorm:"type:text;primaryKey" json:"key"`
	Value     JSONMap   `gorm:"type:text" json:"value"`
	ExpiresAt time.Time `gorm:"index" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (CacheEntry) TableName() string {
	return "cache_entries"
}

// Expired reports whether the entry is stale at the given instant.
func (e *CacheEntry) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}
