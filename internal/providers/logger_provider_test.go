package providers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coronabot/internal/structures"
)

func TestNewLogProvider_CreatesLogFile(t *testing.T) {
	dir := t.TempDir()
	conf := &structures.Config{
		Logger: structures.LoggerConfig{
			Level: "info",
			Mode:  0644,
			Dir:   dir,
		},
	}

	logger, err := NewLogProvider(conf)
	require.NoError(t, err)
	defer logger.Close()

	logger.Infof(TypeApp, "test message")
	logger.Warnf(TypeFeed, "feed message %d", 1)
	logger.Debugf(TypeCmd, "cmd message")

	_, err = os.Stat(filepath.Join(dir, "coronabot.log"))
	assert.NoError(t, err)
}

func TestNewLogProvider_UnknownLevelFallsBackToInfo(t *testing.T) {
	conf := &structures.Config{
		Logger: structures.LoggerConfig{
			Level: "chatty",
			Mode:  0644,
			Dir:   t.TempDir(),
		},
	}

	logger, err := NewLogProvider(conf)
	require.NoError(t, err)
	logger.Close()
}

func TestNewLogProvider_UnwritableDir(t *testing.T) {
	conf := &structures.Config{
		Logger: structures.LoggerConfig{
			Level: "info",
			Mode:  0644,
			Dir:   "/proc/nonexistent/logs",
		},
	}

	_, err := NewLogProvider(conf)
	assert.Error(t, err)
}
