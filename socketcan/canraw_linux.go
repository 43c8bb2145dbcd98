//go:build linux

package socketcan

import (
	"errors"
	"fmt"

	"github.com/lion187chen/cancore/canframe"
	"github.com/lion187chen/cancore/canio"
	"golang.org/x/sys/unix"
)

// Can is a raw CAN socket in non-blocking mode. Write and the Try methods
// fail with canio.BufferExhausted when the kernel queue is full or empty;
// SendFrame and RecvFrame spin on them with canio.Blocking.
//
// Can is not safe for concurrent use.
type Can struct {
	fd  int
	dev *Device
}

// Can public.

// ifName is the CAN interface name, such as "can0", "can1"...
func (my *Can) Init(ifName string) *Can {
	my.fd = -1
	my.dev = new(Device).Init(ifName)
	if my.dev == nil {
		return nil
	}
	return my
}

// Device returns the link controller of the bound interface.
func (my *Can) Device() *Device {
	return my.dev
}

// Dial() will open a non-blocking CAN socket and bind it to the interface
// given in Init().
func (my *Can) Dial() error {
	fd, err := unix.Socket(unix.AF_CAN, unix.SOCK_RAW|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, unix.CAN_RAW)
	if err != nil {
		return fmt.Errorf("socket: %w", err)
	}

	err = unix.Bind(fd, &unix.SockaddrCAN{Ifindex: my.dev.Index()})
	if err != nil {
		unix.Close(fd)
		return fmt.Errorf("bind: %w", err)
	}

	my.fd = fd
	return nil
}

// True for receiving our own frames.
func (my *Can) SetLoopback(enable bool) error {
	value := 0
	if enable {
		value = 1
	}
	return unix.SetsockoptInt(my.fd, unix.SOL_CAN_RAW, unix.CAN_RAW_RECV_OWN_MSGS, value)
}

// You can use NewFilter() and NewInvFilter() to create []Filter. An empty
// list receives nothing.
func (my *Can) SetFilter(fs []Filter) error {
	cfs := make([]unix.CanFilter, len(fs))
	for i, f := range fs {
		cfs[i] = unix.CanFilter{Id: f.Id, Mask: f.Mask}
	}
	return unix.SetsockoptCanRawFilter(my.fd, unix.SOL_CAN_RAW, unix.CAN_RAW_FILTER, cfs)
}

// Write sends one encoded struct can_frame from p and reports
// canframe.LINUX_FRAME_LEN bytes written. Buffers holding several frames
// need canio.WriteAll.
func (my *Can) Write(p []byte) (int, error) {
	if len(p) < canframe.LINUX_FRAME_LEN {
		return 0, canio.Errorf(canio.InvalidInput, "write", "need %d bytes, got %d", canframe.LINUX_FRAME_LEN, len(p))
	}
	n, err := unix.Write(my.fd, p[:canframe.LINUX_FRAME_LEN])
	if err != nil {
		return 0, classify("write", err)
	}
	if n != canframe.LINUX_FRAME_LEN {
		return 0, canio.Errorf(canio.Other, "write", "short write of %d bytes", n)
	}
	return n, nil
}

// TrySendFrame makes a single attempt to queue f.
func (my *Can) TrySendFrame(f canframe.Frame) error {
	var buf [canframe.LINUX_FRAME_LEN]byte
	_, err := my.Write(canframe.AppendMarshal(buf[:0], f))
	return err
}

// SendFrame will spin until f is queued or a error occured.
func (my *Can) SendFrame(f canframe.Frame) error {
	_, err := canio.Blocking(func() (struct{}, error) {
		return struct{}{}, my.TrySendFrame(f)
	})
	return err
}

// TryRecvFrame makes a single attempt to read a frame.
func (my *Can) TryRecvFrame() (canframe.Frame, error) {
	var rd [canframe.LINUX_FRAME_LEN]byte
	n, err := unix.Read(my.fd, rd[:])
	if err != nil {
		return nil, classify("read", err)
	}
	if n != canframe.LINUX_FRAME_LEN {
		return nil, canio.Errorf(canio.Other, "read", "short read of %d bytes", n)
	}
	return canframe.Unmarshal(rd[:])
}

// RecvFrame() will spin until a frame arrives or a error occured.
func (my *Can) RecvFrame() (canframe.Frame, error) {
	return canio.Blocking(my.TryRecvFrame)
}

// After all, we must close the CAN.
func (my *Can) Close() error {
	if my.fd < 0 {
		return nil
	}
	err := unix.Close(my.fd)
	my.fd = -1
	return err
}

// Can private.

// classify maps socket errors onto canio kinds. A full transmit queue shows
// up as ENOBUFS on SocketCAN rather than EAGAIN.
func classify(op string, err error) error {
	switch {
	case errors.Is(err, unix.EAGAIN), errors.Is(err, unix.ENOBUFS), errors.Is(err, unix.EINTR):
		return canio.NewError(canio.BufferExhausted, op, err)
	case errors.Is(err, unix.EINVAL), errors.Is(err, unix.EMSGSIZE):
		return canio.NewError(canio.InvalidInput, op, err)
	case errors.Is(err, unix.EBADMSG):
		return canio.NewError(canio.ErrorDetectionCode, op, err)
	default:
		return canio.NewError(canio.Other, op, err)
	}
}
