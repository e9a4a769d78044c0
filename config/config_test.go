package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allKeys = []string{
	"MAZESYNC_HOST", "MAZESYNC_PORT", "MAZESYNC_MAZE_WIDTH", "MAZESYNC_MAZE_HEIGHT",
	"MAZESYNC_MAZE_SEED", "MAZESYNC_TICK_RATE", "MAZESYNC_SEND_BUFFER",
	"MAZESYNC_LOG_FILE", "MAZESYNC_LOG_LEVEL",
}

// clearEnv 清空相关环境变量，测试结束后由 t.Setenv 恢复
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allKeys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:3003", cfg.Addr())
	assert.Equal(t, 13, cfg.MazeWidth)
	assert.Equal(t, 13, cfg.MazeHeight)
	assert.Equal(t, 20, cfg.TickRate)
	assert.Equal(t, 64, cfg.SendBuffer)
	assert.Equal(t, uint64(0), cfg.MazeSeed)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_FromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("MAZESYNC_PORT", "9000")
	t.Setenv("MAZESYNC_MAZE_WIDTH", "21")
	t.Setenv("MAZESYNC_MAZE_SEED", "42")
	t.Setenv("MAZESYNC_LOG_LEVEL", "DEBUG")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, 21, cfg.MazeWidth)
	assert.Equal(t, uint64(42), cfg.MazeSeed)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_DotEnvFile(t *testing.T) {
	clearEnv(t)
	// godotenv 不覆盖已存在的变量，先移除
	for _, k := range allKeys {
		require.NoError(t, os.Unsetenv(k))
	}

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("MAZESYNC_TICK_RATE=30\nMAZESYNC_HOST=0.0.0.0\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.TickRate)
	assert.Equal(t, "0.0.0.0", cfg.Host)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "non-numeric port", key: "MAZESYNC_PORT", value: "abc"},
		{name: "port out of range", key: "MAZESYNC_PORT", value: "70000"},
		{name: "zero width", key: "MAZESYNC_MAZE_WIDTH", value: "0"},
		{name: "negative height", key: "MAZESYNC_MAZE_HEIGHT", value: "-3"},
		{name: "width too large", key: "MAZESYNC_MAZE_WIDTH", value: "100000"},
		{name: "height too large", key: "MAZESYNC_MAZE_HEIGHT", value: "1002"},
		{name: "zero tick rate", key: "MAZESYNC_TICK_RATE", value: "0"},
		{name: "send buffer too small", key: "MAZESYNC_SEND_BUFFER", value: "1"},
		{name: "bad seed", key: "MAZESYNC_MAZE_SEED", value: "-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}
