package storage

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/filegate/service/internal/config"
)

// Select picks the backend for the lifetime of the process. It probes the
// object store exactly once and falls back to the local directory when
// credentials are missing or the probe fails. Only a broken local directory
// is fatal.
func Select(ctx context.Context, cfg *config.Config) (Backend, error) {
	reason := "object storage credentials not configured"

	if cfg.HasStorageCredentials() {
		remote, err := probeRemote(ctx, cfg)
		if err == nil {
			log.WithFields(log.Fields{
				"mode":     ModeS3,
				"endpoint": cfg.StorageEndpoint,
				"bucket":   remote.Label(),
			}).Info("storage: object storage selected")
			return remote, nil
		}
		reason = err.Error()
	}

	local, err := NewLocalStorage(cfg.UploadDir)
	if err != nil {
		return nil, fmt.Errorf("init local storage: %w", err)
	}
	log.WithFields(log.Fields{
		"mode":   ModeLocal,
		"dir":    local.Label(),
		"reason": reason,
	}).Warn("storage: falling back to local filesystem")
	return local, nil
}

func probeRemote(ctx context.Context, cfg *config.Config) (*MinioStorage, error) {
	remote, err := NewMinioStorage(
		cfg.StorageEndpoint,
		cfg.StorageRegion,
		cfg.StorageAccessKey,
		cfg.StorageSecretKey,
		cfg.StorageBucket,
		cfg.StorageUseSSL,
	)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.StorageProbeTimeout)
	defer cancel()
	if err := remote.Probe(ctx); err != nil {
		return nil, err
	}
	return remote, nil
}
