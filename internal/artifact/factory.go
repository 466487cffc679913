package artifact

import (
	"fmt"

	"github.com/ossih/casemirror/internal/config"
)

// NewStore creates an artifact store from configuration. An unset or
// unknown type falls back to the local directory backend.
func NewStore(cfg *config.ArtifactsConfig) (Store, error) {
	switch cfg.Type {
	case "s3":
		store, err := NewS3Store(&S3Config{
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			UseSSL:    cfg.UseSSL,
			Bucket:    cfg.Bucket,
			Region:    cfg.Region,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create s3 artifact store: %w", err)
		}
		return store, nil
	default:
		return NewLocalStore(cfg.Dir)
	}
}
