package artifact

import "context"

// Store persists bulk job outputs (the succeeded and failed item sets)
// so failures can be resubmitted via the append/retry resume path.
type Store interface {
	// Put writes an artifact under name, overwriting any previous version.
	Put(ctx context.Context, name string, data []byte) error

	// Get reads an artifact by name.
	Get(ctx context.Context, name string) ([]byte, error)

	// Exists checks whether an artifact exists.
	Exists(ctx context.Context, name string) (bool, error)
}
