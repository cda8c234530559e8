package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gov.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, ".okinoko", cfg.DataDir)
	assert.Equal(t, "10000", cfg.Fee)
	assert.Equal(t, int64(3), cfg.ProposalDuration)
	assert.Equal(t, int64(7), cfg.MaxSubmitDelay)
	assert.True(t, cfg.Archive)
}

func TestLoadConfigFile(t *testing.T) {
	path := writeConfig(t, "dataDir: /tmp/gov\nfee: \"500\"\nproposalDuration: 10\nsender: alice\n")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/gov", cfg.DataDir)
	assert.Equal(t, "500", cfg.Fee)
	assert.Equal(t, int64(10), cfg.ProposalDuration)
	assert.Equal(t, "alice", cfg.Sender)
	// untouched keys keep their defaults
	assert.Equal(t, "0.5", cfg.ApprovalThreshold)
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "dataDir: /tmp/gov\nquorum: \"1\"\n")
	t.Setenv("OKINOKO_DATA_DIR", "/var/lib/gov")
	t.Setenv("OKINOKO_MAX_SUBMIT_DELAY", "42")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/gov", cfg.DataDir)
	assert.Equal(t, int64(42), cfg.MaxSubmitDelay)
	assert.Equal(t, "1", cfg.Quorum)
}

func TestLoadConfigBadFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	path := writeConfig(t, "fee: [unclosed\n")
	_, err = LoadConfig(path)
	require.Error(t, err)
}

func TestContextRoundTrip(t *testing.T) {
	assert.Nil(t, FromContext(context.Background()))
	cfg := defaultConfig()
	ctx := WithContext(context.Background(), cfg)
	assert.Same(t, cfg, FromContext(ctx))
}
