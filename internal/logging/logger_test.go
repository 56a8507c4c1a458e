package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mfulz/setgeist/internal/configloader"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewWritesFile(t *testing.T) {
	r := require.New(t)
	file := filepath.Join(t.TempDir(), "setgeistd.log")

	log := New(&Config{Level: "warn", ToFile: true, FilePath: file, MaxSizeMB: 1})
	log.Infof("[test] hidden")
	log.Warnf("[test] visible %d", 42)
	_ = log.Sync()

	data, err := os.ReadFile(file)
	r.NoError(err)
	r.Contains(string(data), "[test] visible 42")
	r.NotContains(string(data), "hidden")
}

func TestNewInvalidLevelFallsBackToInfo(t *testing.T) {
	log := New(&Config{Level: "chatty"})
	require.True(t, log.Desugar().Core().Enabled(zapcore.InfoLevel))
	require.False(t, log.Desugar().Core().Enabled(zapcore.DebugLevel))
}

func TestInitUsesRegisteredConfig(t *testing.T) {
	r := require.New(t)
	prev, _ := configloader.TryGetConfig[*Config]()
	t.Cleanup(func() {
		configloader.SetConfig(prev)
		_ = Init()
	})

	configloader.SetConfig(&Config{Level: "debug", ToStderr: true})
	r.NoError(Init())
	r.True(Log.Desugar().Core().Enabled(zapcore.DebugLevel))
}
