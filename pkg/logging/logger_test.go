package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesToRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	logger, err := New(Options{Level: "debug", File: path, MaxSizeMB: 1})
	require.NoError(t, err)

	logger.Info("Trade created")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Trade created")
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(Options{Level: "loud"})
	assert.Error(t, err)
}
