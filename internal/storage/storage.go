// Package storage selects the object store that holds screenshot previews.
package storage

import (
	"fmt"

	"sentiscope/internal/config"
	"sentiscope/internal/port"
	"sentiscope/internal/storage/memory"
	minioclient "sentiscope/internal/storage/minio"
	s3storage "sentiscope/internal/storage/s3"
)

// Provider names accepted in StorageConfig.Provider.
const (
	ProviderMemory = "memory"
	ProviderS3     = "s3"
	ProviderMinIO  = "minio"
)

// New builds the object store named by cfg.Storage.Provider.
func New(cfg *config.Config) (port.ObjectStorage, error) {
	switch cfg.Storage.Provider {
	case "", ProviderMemory:
		return memory.NewStore(""), nil
	case ProviderS3:
		return s3storage.NewS3Client(&cfg.S3)
	case ProviderMinIO:
		return minioclient.NewMinIOClient(&cfg.MinIO)
	default:
		return nil, fmt.Errorf("unknown storage provider %q", cfg.Storage.Provider)
	}
}
