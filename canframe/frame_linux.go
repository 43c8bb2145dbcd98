//go:build linux

package canframe

import (
	"encoding/binary"

	"github.com/lion187chen/cancore/canio"
	"golang.org/x/sys/unix"
)

const LINUX_FRAME_LEN = 16

// type can_frame struct {
// 	can_id  uint32 // with EFF/RTR/ERR flags
// 	can_dlc uint8
// 	// padding+reserved fields
// 	pad [3]byte
// 	data [FRAME_MAX_DATA_LEN]byte
// }

// Marshal encodes f as a Linux struct can_frame.
func Marshal(f Frame) []byte {
	return AppendMarshal(make([]byte, 0, LINUX_FRAME_LEN), f)
}

// AppendMarshal appends the struct can_frame encoding of f to buf. It panics
// if f has no identifier, as a zero value DataFrame or RemoteFrame does.
func AppendMarshal(buf []byte, f Frame) []byte {
	id := f.ID()
	checkID(id)

	maskId := id.Uint32()
	if id.Extended() {
		maskId |= unix.CAN_EFF_FLAG
	}
	if f.Remote() {
		maskId |= unix.CAN_RTR_FLAG
	}

	var frame [LINUX_FRAME_LEN]byte
	binary.LittleEndian.PutUint32(frame[0:4], maskId)
	frame[4] = byte(f.DataLength())
	if df, ok := f.(DataFrame); ok {
		df.CopyData(frame[LINUX_FRAME_LEN-FRAME_MAX_DATA_LEN:])
	}
	return append(buf, frame[:]...)
}

// Unmarshal decodes a Linux struct can_frame. Error frames are reported as
// canio.ErrorDetectionCode, short input as canio.InvalidInput.
func Unmarshal(bs []byte) (Frame, error) {
	if len(bs) < LINUX_FRAME_LEN {
		return nil, canio.Errorf(canio.InvalidInput, "unmarshal", "need %d bytes, got %d", LINUX_FRAME_LEN, len(bs))
	}

	maskId := binary.LittleEndian.Uint32(bs[0:4])
	if maskId&unix.CAN_ERR_FLAG != 0 {
		return nil, canio.Errorf(canio.ErrorDetectionCode, "unmarshal", "error frame, class 0x%X", maskId&unix.CAN_ERR_MASK)
	}

	var id ID
	if maskId&unix.CAN_EFF_FLAG != 0 {
		id = NewExtendedID(maskId & unix.CAN_EFF_MASK)
	} else {
		id = NewBaseID(uint16(maskId & unix.CAN_SFF_MASK))
	}

	dlc := min(int(bs[4]), FRAME_MAX_DATA_LEN)

	if maskId&unix.CAN_RTR_FLAG != 0 {
		rf := NewRemoteFrame(id)
		rf.SetDataLength(dlc)
		return rf, nil
	}
	df := NewDataFrame(id)
	df.SetData(bs[LINUX_FRAME_LEN-FRAME_MAX_DATA_LEN : LINUX_FRAME_LEN-FRAME_MAX_DATA_LEN+dlc])
	return df, nil
}
