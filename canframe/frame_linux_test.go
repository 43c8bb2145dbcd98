//go:build linux

package canframe

import (
	"testing"

	"github.com/lion187chen/cancore/canio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshal_Layout(t *testing.T) {
	df := NewDataFrame(NewBaseID(0x123))
	df.SetData([]byte{1, 2, 3, 4})

	got := Marshal(df)
	want := []byte{
		0x23, 0x01, 0x00, 0x00,
		4, 0, 0, 0,
		1, 2, 3, 4, 0, 0, 0, 0,
	}
	assert.Equal(t, want, got)

	rf := NewRemoteFrame(NewExtendedID(0x1ABCDEFF))
	rf.SetDataLength(2)
	got = Marshal(rf)
	assert.Equal(t, []byte{0xFF, 0xDE, 0xBC, 0xDA}, got[0:4], "EFF and RTR flags")
	assert.Equal(t, byte(2), got[4])
	assert.Equal(t, make([]byte, 8), got[8:])
}

func TestMarshalUnmarshal(t *testing.T) {
	df := NewDataFrame(NewExtendedID(0x00000123))
	df.SetData([]byte{0xDE, 0xAD, 0xBE})
	rf := NewRemoteFrame(NewBaseID(0x7FF))
	rf.SetDataLength(8)

	for _, f := range []Frame{df, rf, NewDataFrame(NewBaseID(0))} {
		got, err := Unmarshal(Marshal(f))
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}
}

func TestAppendMarshal(t *testing.T) {
	a := NewDataFrame(NewBaseID(1))
	b := NewDataFrame(NewBaseID(2))
	buf := AppendMarshal(Marshal(a), b)
	require.Len(t, buf, 2*LINUX_FRAME_LEN)

	got, err := Unmarshal(buf[LINUX_FRAME_LEN:])
	require.NoError(t, err)
	assert.Equal(t, Frame(b), got)
}

func TestUnmarshal_Errors(t *testing.T) {
	_, err := Unmarshal(make([]byte, 15))
	assert.ErrorIs(t, err, canio.ErrInvalidInput)

	errFrame := make([]byte, LINUX_FRAME_LEN)
	errFrame[3] = 0x20 // CAN_ERR_FLAG
	errFrame[0] = 0x04 // controller problem
	_, err = Unmarshal(errFrame)
	assert.ErrorIs(t, err, canio.ErrErrorDetectionCode)
}

func TestUnmarshal_ClampsLength(t *testing.T) {
	bs := make([]byte, LINUX_FRAME_LEN)
	bs[0] = 0x01
	bs[4] = 15
	f, err := Unmarshal(bs)
	require.NoError(t, err)
	assert.Equal(t, FRAME_MAX_DATA_LEN, f.DataLength())
}

func TestMarshal_ZeroValueFramePanics(t *testing.T) {
	assert.PanicsWithValue(t, "canframe: frame has no identifier", func() { Marshal(DataFrame{}) })
	assert.PanicsWithValue(t, "canframe: frame has no identifier", func() { Marshal(RemoteFrame{}) })
}
