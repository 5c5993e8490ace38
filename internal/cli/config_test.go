package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "reactor.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
log_level: debug
poll_buffer_size: 64
signal_batch_size: 4
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, Config{LogLevel: "debug", PollBufferSize: 64, SignalBatchSize: 4}, *cfg)
}

func TestLoadConfig_Defaults(t *testing.T) {
	for _, content := range []string{"", "log_level: info\n"} {
		cfg, err := LoadConfig(writeConfig(t, content))
		require.NoError(t, err)
		assert.Equal(t, defaultPollBufferSize, cfg.PollBufferSize)
		assert.Equal(t, defaultSignalBatchSize, cfg.SignalBatchSize)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	for _, tc := range [...]struct {
		name    string
		content string
		want    string
	}{
		{"unknown field", "log_levle: debug\n", "failed to parse config file"},
		{"bad level", "log_level: loud\n", "invalid log level"},
		{"bad poll buffer", "poll_buffer_size: 0\n", "poll_buffer_size"},
		{"bad batch", "signal_batch_size: -1\n", "signal_batch_size"},
		{"not yaml", "log_level: [\n", "failed to parse config file"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tc.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestParseLevel(t *testing.T) {
	for _, name := range []string{"disabled", "emerg", "alert", "crit", "err", "warning", "notice", "info", "debug", "trace"} {
		level, err := parseLevel(name)
		require.NoError(t, err)
		assert.Equal(t, name, level.String())
	}
	_, err := parseLevel("verbose")
	assert.Error(t, err)
}
