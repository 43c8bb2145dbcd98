//go:build linux

package socketcan

import (
	"testing"

	"github.com/lion187chen/cancore/canframe"
	"github.com/lion187chen/cancore/canio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

// pipeCan returns a Can whose socket is one end of a SEQPACKET pair, which
// keeps the datagram boundaries of a raw CAN socket without needing an
// interface.
func pipeCan(t *testing.T) (*Can, int) {
	t.Helper()
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_SEQPACKET|unix.SOCK_NONBLOCK, 0)
	require.NoError(t, err)
	t.Cleanup(func() { unix.Close(fds[1]) })

	c := &Can{fd: fds[0]}
	t.Cleanup(func() { c.Close() })
	return c, fds[1]
}

func TestCan_SendRecv(t *testing.T) {
	c, peer := pipeCan(t)

	df := canframe.NewDataFrame(canframe.NewBaseID(0x123))
	df.SetData([]byte{0xDE, 0xAD, 0xBE})
	require.NoError(t, c.SendFrame(df))

	rd := make([]byte, 64)
	n, err := unix.Read(peer, rd)
	require.NoError(t, err)
	assert.Equal(t, canframe.Marshal(df), rd[:n])

	rf := canframe.NewRemoteFrame(canframe.NewExtendedID(0x1ABCDEFF))
	rf.SetDataLength(4)
	_, err = unix.Write(peer, canframe.Marshal(rf))
	require.NoError(t, err)

	got, err := c.RecvFrame()
	require.NoError(t, err)
	assert.Equal(t, canframe.Frame(rf), got)
}

func TestCan_TryRecvEmpty(t *testing.T) {
	c, _ := pipeCan(t)
	_, err := c.TryRecvFrame()
	assert.ErrorIs(t, err, canio.ErrBufferExhausted)
	assert.ErrorIs(t, err, unix.EAGAIN)
}

func TestCan_TrySendFull(t *testing.T) {
	c, _ := pipeCan(t)
	f := canframe.NewDataFrame(canframe.NewBaseID(1))

	var err error
	for i := 0; i < 1<<16; i++ {
		if err = c.TrySendFrame(f); err != nil {
			break
		}
	}
	require.Error(t, err, "socket buffer never filled")
	assert.Equal(t, canio.BufferExhausted, canio.KindOf(err))
}

func TestCan_WriteAllFrames(t *testing.T) {
	c, peer := pipeCan(t)

	var buf []byte
	for i := uint16(0); i < 3; i++ {
		df := canframe.NewDataFrame(canframe.NewBaseID(0x100 + i))
		df.SetData([]byte{byte(i)})
		buf = canframe.AppendMarshal(buf, df)
	}
	require.NoError(t, canio.WriteAll(c, buf))

	rd := make([]byte, 64)
	for i := uint16(0); i < 3; i++ {
		n, err := unix.Read(peer, rd)
		require.NoError(t, err)
		f, err := canframe.Unmarshal(rd[:n])
		require.NoError(t, err)
		assert.Equal(t, uint32(0x100+i), f.ID().Uint32())
	}
}

func TestCan_WriteShortBuffer(t *testing.T) {
	c, _ := pipeCan(t)
	n, err := c.Write(make([]byte, 8))
	assert.Zero(t, n)
	assert.ErrorIs(t, err, canio.ErrInvalidInput)
}

func TestCan_RecvErrorFrame(t *testing.T) {
	c, peer := pipeCan(t)
	errFrame := make([]byte, canframe.LINUX_FRAME_LEN)
	errFrame[3] = 0x20
	_, err := unix.Write(peer, errFrame)
	require.NoError(t, err)

	_, err = c.RecvFrame()
	assert.ErrorIs(t, err, canio.ErrErrorDetectionCode)
}

func TestCan_CloseTwice(t *testing.T) {
	c, _ := pipeCan(t)
	require.NoError(t, c.Close())
	assert.NoError(t, c.Close())
}

func TestClassify(t *testing.T) {
	assert.Equal(t, canio.BufferExhausted, canio.KindOf(classify("write", unix.ENOBUFS)))
	assert.Equal(t, canio.BufferExhausted, canio.KindOf(classify("read", unix.EAGAIN)))
	assert.Equal(t, canio.InvalidInput, canio.KindOf(classify("write", unix.EINVAL)))
	assert.Equal(t, canio.ErrorDetectionCode, canio.KindOf(classify("read", unix.EBADMSG)))
	assert.Equal(t, canio.Other, canio.KindOf(classify("read", unix.ENETDOWN)))
}
