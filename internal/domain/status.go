package domain

// SyncStatus is the result of an on-demand single-entity sync. The zero
// value reports a reachable upstream that returned an empty result, which
// is not an error.
type SyncStatus int

const (
	// StatusEmptyUpstream means the fetch succeeded but the upstream had
	// no content for the entity.
	StatusEmptyUpstream SyncStatus = 0

	StatusCompleted  SyncStatus = 1
	StatusIncomplete SyncStatus = 2
	StatusStopped    SyncStatus = 3
	StatusFailed     SyncStatus = 4

	// StatusSkipped means the endpoint/ID combination has no configured
	// handler.
	StatusSkipped SyncStatus = 5

	// StatusDisabled means the handler for the endpoint could not be
	// instantiated.
	StatusDisabled SyncStatus = 6
)

// String returns a stable name for logging.
func (s SyncStatus) String() string {
	switch s {
	case StatusEmptyUpstream:
		return "empty_upstream"
	case StatusCompleted:
		return "completed"
	case StatusIncomplete:
		return "incomplete"
	case StatusStopped:
		return "stopped"
	case StatusFailed:
		return "failed"
	case StatusSkipped:
		return "skipped"
	case StatusDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}
