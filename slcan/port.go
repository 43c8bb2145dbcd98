package slcan

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/lion187chen/cancore/canframe"
	"github.com/lion187chen/cancore/canio"
	"go.bug.st/serial"
)

// serialPort is the part of serial.Port the driver uses.
type serialPort interface {
	io.ReadWriteCloser
	SetReadTimeout(t time.Duration) error
}

// Port is an SLCAN adapter on a serial line. Reads poll with the port's
// read timeout, so ReadUntil and RecvFrame never block longer than one
// timeout before reporting canio.BufferExhausted.
//
// Port is not safe for concurrent use.
type Port struct {
	port serialPort
	rx   []byte
	eof  bool
}

// Open opens the serial device at path and wraps it in a Port.
func Open(path string, opts PortOptions) (*Port, error) {
	opts, err := opts.Normalize()
	if err != nil {
		return nil, err
	}
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}

	sp, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("couldn't open %s: %w", path, err)
	}
	if err := sp.SetReadTimeout(opts.ReadTimeout); err != nil {
		sp.Close()
		return nil, fmt.Errorf("couldn't set read timeout: %w", err)
	}
	return NewPort(sp), nil
}

// NewPort wraps an already configured serial port.
func NewPort(sp serialPort) *Port {
	return &Port{
		port: sp,
		rx:   make([]byte, 0, 4*MAX_LINE_LEN),
	}
}

// Write makes one write to the serial line.
func (p *Port) Write(buf []byte) (int, error) {
	n, err := p.port.Write(buf)
	if err != nil {
		return n, classify("write", err)
	}
	return n, nil
}

// ReadUntil implements canio.Reader. Bytes read past the delimiter stay
// buffered for the next call. A bell is a complete adapter reply on its own
// and is returned as a one byte record.
func (p *Port) ReadUntil(delim byte, buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}
	for {
		if n, ok := p.take(delim, buf); ok {
			return n, nil
		}
		if p.eof {
			return p.drain(buf), nil
		}

		n, err := p.port.Read(p.rx[len(p.rx):cap(p.rx)])
		p.rx = p.rx[:len(p.rx)+n]
		switch {
		case errors.Is(err, io.EOF):
			p.eof = true
		case err != nil:
			return 0, classify("read", err)
		case n == 0:
			return 0, canio.NewError(canio.BufferExhausted, "read", nil)
		}
	}
}

// take moves one record into buf if a delimiter is buffered, buf would be
// filled, or the buffer is full.
func (p *Port) take(delim byte, buf []byte) (int, bool) {
	if len(p.rx) > 0 && p.rx[0] == BELL {
		return p.consume(buf, 1), true
	}
	if i := bytes.IndexByte(p.rx, delim); i >= 0 {
		return p.consume(buf, i+1), true
	}
	if len(p.rx) >= len(buf) || len(p.rx) == cap(p.rx) {
		return p.consume(buf, len(p.rx)), true
	}
	return 0, false
}

func (p *Port) drain(buf []byte) int {
	return p.consume(buf, len(p.rx))
}

func (p *Port) consume(buf []byte, n int) int {
	n = copy(buf, p.rx[:n])
	p.rx = p.rx[:copy(p.rx, p.rx[n:])]
	return n
}

// SendFrame writes the SLCAN line for f, spinning while the line is busy.
func (p *Port) SendFrame(f canframe.Frame) error {
	var line [MAX_LINE_LEN]byte
	return canio.WriteAll(p, AppendEncode(line[:0], f))
}

// TryRecvFrame reads at most one line. Adapter acknowledgements are
// reported as canio.BufferExhausted so that callers keep polling.
func (p *Port) TryRecvFrame() (canframe.Frame, error) {
	var line [MAX_LINE_LEN]byte
	n, err := p.ReadUntil(CR, line[:])
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, canio.NewError(canio.Other, "read", io.EOF)
	}
	switch l := line[:n]; {
	case isAck(l):
		return nil, canio.NewError(canio.BufferExhausted, "read", nil)
	case l[n-1] != CR && l[0] != BELL:
		return nil, canio.Errorf(canio.InvalidInput, "read", "line too long or truncated: %q", l)
	default:
		return Decode(l)
	}
}

// RecvFrame spins until a frame arrives or an error occurs.
func (p *Port) RecvFrame() (canframe.Frame, error) {
	return canio.Blocking(p.TryRecvFrame)
}

// OpenChannel opens the CAN channel of the adapter, in listen only mode if
// requested.
func (p *Port) OpenChannel(listenOnly bool) error {
	if listenOnly {
		return p.command("L")
	}
	return p.command("O")
}

// CloseChannel closes the CAN channel. Frames received before the reply are
// discarded.
func (p *Port) CloseChannel() error {
	return p.command("C")
}

func (p *Port) Close() error {
	return p.port.Close()
}

// command sends cmd and waits for the adapter's reply.
func (p *Port) command(cmd string) error {
	if err := canio.Fprintf(p, "%s\r", cmd); err != nil {
		return err
	}
	for {
		var line [MAX_LINE_LEN]byte
		n, err := canio.Blocking(func() (int, error) {
			return p.ReadUntil(CR, line[:])
		})
		if err != nil {
			return err
		}
		switch {
		case n == 0:
			return canio.Errorf(canio.Other, cmd, "no reply")
		case line[0] == BELL:
			return canio.Errorf(canio.InvalidInput, cmd, "adapter rejected command")
		case n == 1 && line[0] == CR:
			return nil
		}
	}
}

func isAck(line []byte) bool {
	switch string(line) {
	case "\r", "z\r", "Z\r":
		return true
	}
	return false
}

func classify(op string, err error) error {
	var pe *serial.PortError
	if errors.As(err, &pe) {
		switch pe.Code() {
		case serial.InvalidSerialPort, serial.InvalidSpeed, serial.InvalidDataBits,
			serial.InvalidParity, serial.InvalidStopBits, serial.InvalidTimeoutValue:
			return canio.NewError(canio.InvalidInput, op, err)
		}
	}
	return canio.NewError(canio.Other, op, err)
}
