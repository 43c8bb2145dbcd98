package main

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/lion187chen/cancore/canframe"
	"github.com/lion187chen/cancore/slcan"
	"gopkg.in/yaml.v2"
)

// Config is the demo configuration.
type Config struct {
	Transport string          `yaml:"transport"`
	SocketCAN SocketCANConfig `yaml:"socketcan"`
	Serial    SerialConfig    `yaml:"serial"`
	Frame     FrameConfig     `yaml:"frame"`
	Receive   int             `yaml:"receive"`
	Log       LogConfig       `yaml:"log"`
}

// SocketCANConfig holds Linux SocketCAN settings
type SocketCANConfig struct {
	Interface string `yaml:"interface"`
	LinkUp    bool   `yaml:"linkUp"`
	Loopback  bool   `yaml:"loopback"`
}

// SerialConfig holds SLCAN adapter settings
type SerialConfig struct {
	Path       string            `yaml:"path"`
	ListenOnly bool              `yaml:"listenOnly"`
	Options    slcan.PortOptions `yaml:"options"`
}

// FrameConfig describes the frame to send
type FrameConfig struct {
	ID     string `yaml:"id"`
	Data   string `yaml:"data"`
	Remote bool   `yaml:"remote"`
	Length int    `yaml:"length"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"maxSizeMb"`
	MaxBackups int    `yaml:"maxBackups"`
}

// LoadConfig loads configuration from file (if any), then applies
// environment overrides and validates the result.
func LoadConfig(filename string) (*Config, error) {
	cfg := defaultConfig()

	if filename != "" {
		if err := loadFromFile(cfg, filename); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Transport: "socketcan",
		SocketCAN: SocketCANConfig{
			Interface: "can0",
		},
		Serial: SerialConfig{
			Path: "/dev/ttyACM0",
		},
		Frame: FrameConfig{
			ID:   "020",
			Data: "01020355",
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// loadFromFile loads configuration from a YAML file
func loadFromFile(cfg *Config, filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnvOverrides applies environment variable overrides
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CANCORE_TRANSPORT"); v != "" {
		cfg.Transport = v
	}
	if v := os.Getenv("CANCORE_INTERFACE"); v != "" {
		cfg.SocketCAN.Interface = v
	}
	if v := os.Getenv("CANCORE_SERIAL_PATH"); v != "" {
		cfg.Serial.Path = v
	}
	if v := os.Getenv("CANCORE_SERIAL_BAUD"); v != "" {
		if baud, err := strconv.Atoi(v); err == nil {
			cfg.Serial.Options.BaudRate = baud
		}
	}
	if v := os.Getenv("CANCORE_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	switch cfg.Transport {
	case "socketcan":
		if cfg.SocketCAN.Interface == "" {
			return fmt.Errorf("socketcan interface must be set")
		}
	case "slcan":
		if cfg.Serial.Path == "" {
			return fmt.Errorf("serial path must be set")
		}
		if _, err := cfg.Serial.Options.Normalize(); err != nil {
			return fmt.Errorf("serial options: %w", err)
		}
	default:
		return fmt.Errorf("unknown transport %q: expected socketcan or slcan", cfg.Transport)
	}

	if _, err := cfg.Frame.Build(); err != nil {
		return fmt.Errorf("frame: %w", err)
	}
	if cfg.Receive < 0 {
		return fmt.Errorf("receive count must not be negative")
	}
	if _, err := cfg.Log.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// Build turns the frame description into a frame. Lengths are checked here
// so that bad input is an error rather than a panic in canframe.
func (fc FrameConfig) Build() (canframe.Frame, error) {
	id, err := canframe.ParseID(fc.ID)
	if err != nil {
		return nil, err
	}

	if fc.Remote {
		if fc.Length < 0 || fc.Length > canframe.FRAME_MAX_DATA_LEN {
			return nil, fmt.Errorf("remote length %d out of range 0..%d", fc.Length, canframe.FRAME_MAX_DATA_LEN)
		}
		rf := canframe.NewRemoteFrame(id)
		rf.SetDataLength(fc.Length)
		return rf, nil
	}

	data, err := hex.DecodeString(strings.ReplaceAll(fc.Data, " ", ""))
	if err != nil {
		return nil, fmt.Errorf("couldn't decode data %q: %w", fc.Data, err)
	}
	if len(data) > canframe.FRAME_MAX_DATA_LEN {
		return nil, fmt.Errorf("data is %d bytes, at most %d allowed", len(data), canframe.FRAME_MAX_DATA_LEN)
	}
	df := canframe.NewDataFrame(id)
	df.SetData(data)
	return df, nil
}

// SlogLevel parses the configured level.
func (lc LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(lc.Level)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", lc.Level, err)
	}
	return level, nil
}
