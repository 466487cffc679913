package service

import (
	"context"

	"github.com/ossih/casemirror/internal/domain"
)

// Fetcher is the remote-fetch capability the sync services depend on.
// Implementations return an empty payload (not an error) for any transient
// remote failure.
type Fetcher interface {
	Fetch(ctx context.Context, url string, bypassCache bool) (domain.JSONMap, error)
}
