//go:build linux

package main

import (
	"fmt"
	"log/slog"

	"github.com/lion187chen/cancore/canframe"
	"github.com/lion187chen/cancore/socketcan"
)

type socketcanTransport struct {
	*socketcan.Can
}

func (socketcanTransport) encode(f canframe.Frame) []byte { return canframe.Marshal(f) }

func openSocketCAN(sc SocketCANConfig, logger *slog.Logger) (transport, error) {
	can := new(socketcan.Can).Init(sc.Interface)
	if can == nil {
		return nil, fmt.Errorf("no such interface %q", sc.Interface)
	}

	if sc.LinkUp {
		dev := can.Device()
		up, err := dev.IsUp()
		if err != nil {
			return nil, err
		}
		if !up {
			if err := dev.SetUp(); err != nil {
				return nil, err
			}
		}
		if info, err := dev.Info(); err == nil {
			logger.Debug("socketcan link", "name", info.DevName, "kind", info.Kind, "state", info.State.String(),
				"txerr", info.ErrCounters.Txerr, "rxerr", info.ErrCounters.Rxerr)
		}
	}

	if err := can.Dial(); err != nil {
		return nil, err
	}
	if sc.Loopback {
		if err := can.SetLoopback(true); err != nil {
			can.Close()
			return nil, fmt.Errorf("couldn't enable loopback: %w", err)
		}
	}
	return socketcanTransport{can}, nil
}
