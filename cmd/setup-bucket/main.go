// Command setup-bucket prepares the object storage bucket used by the API:
// it creates the bucket when missing, installs a CORS rule for presigned
// links and confirms the credentials can list it.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/filegate/service/internal/config"
	"github.com/filegate/service/internal/storage"
)

type options struct {
	bucket   string
	region   string
	skipCORS bool
	timeout  time.Duration
}

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "setup-bucket",
		Short: "Create and configure the storage bucket",
		Long: `Create the configured bucket if it does not exist, apply a CORS rule
that lets browsers follow presigned download links, and verify access.

Credentials and endpoint come from the same environment variables as the API
(STORAGE_* or AWS_*). Flags override the bucket name and region.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), config.Load(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.bucket, "bucket", "", "bucket name (defaults to STORAGE_BUCKET)")
	cmd.Flags().StringVar(&opts.region, "region", "", "bucket region (defaults to STORAGE_REGION)")
	cmd.Flags().BoolVar(&opts.skipCORS, "skip-cors", false, "do not install the CORS rule")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", time.Minute, "overall deadline")
	return cmd
}

func run(ctx context.Context, cfg *config.Config, opts options) error {
	if opts.bucket != "" {
		cfg.StorageBucket = opts.bucket
	}
	if opts.region != "" {
		cfg.StorageRegion = opts.region
	}
	if !cfg.HasStorageCredentials() {
		return errors.New("storage credentials and bucket name are required")
	}

	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	store, err := storage.NewMinioStorage(
		cfg.StorageEndpoint,
		cfg.StorageRegion,
		cfg.StorageAccessKey,
		cfg.StorageSecretKey,
		cfg.StorageBucket,
		cfg.StorageUseSSL,
	)
	if err != nil {
		return fmt.Errorf("init storage client: %w", err)
	}

	logger := log.WithFields(log.Fields{"bucket": cfg.StorageBucket, "region": cfg.StorageRegion})

	created, err := store.EnsureBucket(ctx)
	if errors.Is(err, storage.ErrBucketTaken) {
		logger.Error("bucket name is owned by another account, choose a different name")
		return err
	}
	if err != nil {
		logger.WithError(err).Error("bucket creation failed")
		return err
	}
	if created {
		logger.Info("bucket created")
	} else {
		logger.Info("bucket already exists")
	}

	if !opts.skipCORS {
		if err := store.ApplyCORS(ctx); err != nil {
			logger.WithError(err).Warn("could not apply CORS rule, presigned links may fail in browsers")
		} else {
			logger.Info("CORS rule applied")
		}
	}

	if err := store.VerifyAccess(ctx); err != nil {
		logger.WithError(err).Error("bucket access check failed")
		return err
	}
	logger.Info("bucket is ready")
	return nil
}
