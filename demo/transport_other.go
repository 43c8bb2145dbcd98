//go:build !linux

package main

import (
	"errors"
	"log/slog"
)

func openSocketCAN(SocketCANConfig, *slog.Logger) (transport, error) {
	return nil, errors.New("socketcan is only available on linux")
}
