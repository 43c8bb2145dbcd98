package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lion187chen/cancore/canframe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "socketcan", cfg.Transport)
	assert.Equal(t, "can0", cfg.SocketCAN.Interface)

	f, err := cfg.Frame.Build()
	require.NoError(t, err)
	assert.Equal(t, "020#01020355", f.String())
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cancore.yaml")
	yaml := `
transport: slcan
serial:
  path: /dev/ttyUSB1
  listenOnly: true
  options:
    baud_rate: 921600
    read_timeout: 25ms
frame:
  id: "1ABCDEFF"
  remote: true
  length: 4
receive: 2
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "slcan", cfg.Transport)
	assert.Equal(t, "/dev/ttyUSB1", cfg.Serial.Path)
	assert.True(t, cfg.Serial.ListenOnly)
	assert.Equal(t, 921600, cfg.Serial.Options.BaudRate)
	assert.Equal(t, 25*time.Millisecond, cfg.Serial.Options.ReadTimeout)
	assert.Equal(t, 2, cfg.Receive)

	level, err := cfg.Log.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	f, err := cfg.Frame.Build()
	require.NoError(t, err)
	rf, ok := f.(canframe.RemoteFrame)
	require.True(t, ok)
	assert.Equal(t, 4, rf.DataLength())
	assert.Equal(t, uint32(0x1ABCDEFF), rf.ID().Uint32())
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("CANCORE_TRANSPORT", "slcan")
	t.Setenv("CANCORE_SERIAL_PATH", "/dev/ttyS3")
	t.Setenv("CANCORE_SERIAL_BAUD", "57600")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "slcan", cfg.Transport)
	assert.Equal(t, "/dev/ttyS3", cfg.Serial.Path)
	assert.Equal(t, 57600, cfg.Serial.Options.BaudRate)
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"unknown transport", func(c *Config) { c.Transport = "usb" }},
		{"no interface", func(c *Config) { c.SocketCAN.Interface = "" }},
		{"bad serial", func(c *Config) { c.Transport = "slcan"; c.Serial.Options.DataBits = 4 }},
		{"bad id", func(c *Config) { c.Frame.ID = "800" }},
		{"long data", func(c *Config) { c.Frame.Data = "000102030405060708" }},
		{"odd data", func(c *Config) { c.Frame.Data = "ABC" }},
		{"remote length", func(c *Config) { c.Frame.Remote = true; c.Frame.Length = 9 }},
		{"negative receive", func(c *Config) { c.Receive = -1 }},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.modify(cfg)
			assert.Error(t, validateConfig(cfg))
		})
	}
}

func TestFrameConfig_BuildSpaces(t *testing.T) {
	f, err := FrameConfig{ID: "0x123", Data: "DE AD BE"}.Build()
	require.NoError(t, err)
	df, ok := f.(canframe.DataFrame)
	require.True(t, ok)
	assert.Equal(t, []byte{0xDE, 0xAD, 0xBE}, df.Data())
}

func TestNewLogger_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "demo.log")
	logger, closeLog := newLogger(LogConfig{Level: "info", File: path, MaxSizeMB: 1, MaxBackups: 1})
	logger.Info("frame sent", "frame", "123#DEADBE")
	logger.Debug("hidden")
	closeLog()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "frame=123#DEADBE")
	assert.NotContains(t, string(data), "hidden")
}
