package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filegate/service/internal/config"
)

func TestRunRequiresCredentials(t *testing.T) {
	cfg := &config.Config{StorageBucket: "uploads-bucket"}
	err := run(context.Background(), cfg, options{timeout: time.Second})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "credentials")
}

func TestRunFlagOverrides(t *testing.T) {
	cfg := &config.Config{}
	err := run(context.Background(), cfg, options{bucket: "other", region: "eu-west-1", timeout: time.Second})
	require.Error(t, err)
	assert.Equal(t, "other", cfg.StorageBucket)
	assert.Equal(t, "eu-west-1", cfg.StorageRegion)
}

func TestRootCommandFlags(t *testing.T) {
	cmd := newRootCommand()
	require.NoError(t, cmd.ParseFlags([]string{"--bucket", "b", "--skip-cors", "--timeout", "5s"}))

	skip, err := cmd.Flags().GetBool("skip-cors")
	require.NoError(t, err)
	assert.True(t, skip)

	timeout, err := cmd.Flags().GetDuration("timeout")
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, timeout)
}
