package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/lion187chen/cancore/canframe"
	"github.com/lion187chen/cancore/canio"
	"github.com/lion187chen/cancore/slcan"
	"gopkg.in/natefinch/lumberjack.v2"
)

// transport is what the demo needs from a driver. Raw bytes go through
// Writer so they can be traced; encode produces the driver's wire bytes.
type transport interface {
	canio.Writer
	RecvFrame() (canframe.Frame, error)
	Close() error
	encode(f canframe.Frame) []byte
}

func main() {
	var (
		configFile = flag.String("config", "", "path to YAML config")
		transportF = flag.String("transport", "", "socketcan or slcan")
		iface      = flag.String("iface", "", "SocketCAN interface")
		path       = flag.String("serial", "", "SLCAN serial device")
		id         = flag.String("id", "", "frame identifier, 3 hex digits base or 8 extended")
		data       = flag.String("data", "", "payload in hex")
		remote     = flag.Bool("remote", false, "send a remote frame")
		length     = flag.Int("len", -1, "remote frame requested length")
		receive    = flag.Int("recv", -1, "number of frames to receive after sending")
	)
	flag.Parse()

	cfg, err := LoadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(2)
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "transport":
			cfg.Transport = *transportF
		case "iface":
			cfg.SocketCAN.Interface = *iface
		case "serial":
			cfg.Serial.Path = *path
		case "id":
			cfg.Frame.ID = *id
		case "data":
			cfg.Frame.Data = *data
		case "remote":
			cfg.Frame.Remote = *remote
		case "len":
			cfg.Frame.Length = *length
		case "recv":
			cfg.Receive = *receive
		}
	})
	if err := validateConfig(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(2)
	}

	logger, closeLog := newLogger(cfg.Log)
	defer closeLog()

	if err := run(cfg, logger); err != nil {
		logger.Error("demo failed", "error", err)
		closeLog()
		os.Exit(1)
	}
}

func run(cfg *Config, logger *slog.Logger) error {
	frame, err := cfg.Frame.Build()
	if err != nil {
		return err
	}

	t, err := openTransport(cfg, logger)
	if err != nil {
		return err
	}
	defer t.Close()

	w := canio.NewLoggedWriter(t, logger, slog.LevelDebug)
	if err := canio.WriteAll(w, t.encode(frame)); err != nil {
		return fmt.Errorf("couldn't send %v: %w", frame, err)
	}
	logger.Info("frame sent", "transport", cfg.Transport, "frame", frame.String())

	for i := 0; i < cfg.Receive; i++ {
		f, err := t.RecvFrame()
		if err != nil {
			return fmt.Errorf("couldn't receive frame: %w", err)
		}
		logger.Info("frame received", "frame", f.String(), "extended", f.ID().Extended(), "remote", f.Remote())
	}
	return nil
}

func openTransport(cfg *Config, logger *slog.Logger) (transport, error) {
	switch cfg.Transport {
	case "slcan":
		return openSLCAN(cfg.Serial, logger)
	default:
		return openSocketCAN(cfg.SocketCAN, logger)
	}
}

type slcanTransport struct {
	*slcan.Port
}

func (slcanTransport) encode(f canframe.Frame) []byte { return slcan.Encode(f) }

func (t slcanTransport) Close() error {
	if err := t.CloseChannel(); err != nil {
		t.Port.Close()
		return err
	}
	return t.Port.Close()
}

func openSLCAN(sc SerialConfig, logger *slog.Logger) (transport, error) {
	port, err := slcan.Open(sc.Path, sc.Options)
	if err != nil {
		return nil, err
	}
	if err := port.OpenChannel(sc.ListenOnly); err != nil {
		port.Close()
		return nil, fmt.Errorf("couldn't open channel: %w", err)
	}
	logger.Debug("slcan channel open", "path", sc.Path, "listenOnly", sc.ListenOnly)
	return slcanTransport{port}, nil
}

// newLogger builds a text logger writing to stderr, or to a rotated file
// when one is configured.
func newLogger(lc LogConfig) (*slog.Logger, func()) {
	level, _ := lc.SlogLevel()

	var out io.Writer = os.Stderr
	closeFn := func() {}
	if lc.File != "" {
		lj := &lumberjack.Logger{
			Filename:   lc.File,
			MaxSize:    lc.MaxSizeMB,
			MaxBackups: lc.MaxBackups,
		}
		out = lj
		closeFn = func() { lj.Close() }
	}

	h := slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})
	return slog.New(h), closeFn
}
