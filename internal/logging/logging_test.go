package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meur/mintforge/internal/config"
)

func TestNewWritesRotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "mintforge.log")
	logger, err := New(config.LogConfig{Level: "debug", File: path, MaxSizeMB: 1})
	require.NoError(t, err)

	logger.Debug("mint.prepared")
	require.NoError(t, logger.Sync())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"msg":"mint.prepared"`)
}

func TestNewWithoutOutputsIsNop(t *testing.T) {
	logger, err := New(config.LogConfig{})
	require.NoError(t, err)
	assert.NotNil(t, logger)
}

func TestInvalidLevel(t *testing.T) {
	_, err := New(config.LogConfig{Level: "chatty", Console: true})
	assert.Error(t, err)
}
