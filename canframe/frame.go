package canframe

import (
	"fmt"
	"strings"
)

const FRAME_MAX_DATA_LEN = 8

// Frame is a classical CAN frame, either a DataFrame or a RemoteFrame.
// The set of implementations is closed; switch on the concrete type.
type Frame interface {
	ID() ID
	// DataLength is the DLC: the payload length of a data frame or the
	// requested length of a remote frame.
	DataLength() int
	// Remote reports whether this is a remote transmission request.
	Remote() bool
	String() string

	isFrame()
}

func checkID(id ID) {
	if id == nil {
		panic("canframe: frame has no identifier")
	}
}

func checkDataLength(length int) {
	if length < 0 || length > FRAME_MAX_DATA_LEN {
		panic(fmt.Sprintf("canframe: data length %d out of range 0..%d", length, FRAME_MAX_DATA_LEN))
	}
}

// DataFrame is a data frame carrying up to 8 bytes of payload.
type DataFrame struct {
	id   ID
	dlc  uint8
	data [FRAME_MAX_DATA_LEN]byte
}

// NewDataFrame returns an empty data frame bound to id. It panics if id is
// nil.
func NewDataFrame(id ID) DataFrame {
	checkID(id)
	return DataFrame{id: id}
}

func (f DataFrame) ID() ID { return f.id }

func (f DataFrame) DataLength() int { return int(f.dlc) }

func (f DataFrame) Remote() bool { return false }

// SetDataLength panics if length is outside 0..8.
func (f *DataFrame) SetDataLength(length int) {
	checkDataLength(length)
	f.dlc = uint8(length)
}

// Data returns the first DataLength bytes of the payload. The slice does not
// alias the frame, which costs one allocation per call; use CopyData on hot
// paths.
func (f DataFrame) Data() []byte {
	return f.data[:f.dlc:f.dlc]
}

// CopyData copies the first DataLength bytes of the payload into dst and
// returns the number of bytes copied.
func (f *DataFrame) CopyData(dst []byte) int {
	return copy(dst, f.data[:f.dlc])
}

// DataMut returns the first DataLength bytes of the payload for in-place
// writes. Appending to the result never reaches bytes past the length.
func (f *DataFrame) DataMut() []byte {
	return f.data[:f.dlc:f.dlc]
}

// SetData sets the length to len(data) and copies data into the payload.
func (f *DataFrame) SetData(data []byte) {
	f.SetDataLength(len(data))
	copy(f.data[:], data)
}

func (f DataFrame) String() string {
	var sb strings.Builder
	if f.id != nil {
		sb.WriteString(f.id.String())
	}
	sb.WriteByte('#')
	for _, b := range f.data[:f.dlc] {
		fmt.Fprintf(&sb, "%02X", b)
	}
	return sb.String()
}

func (DataFrame) isFrame() {}

// RemoteFrame is a remote transmission request for up to 8 bytes.
type RemoteFrame struct {
	id  ID
	dlc uint8
}

// NewRemoteFrame returns a remote frame bound to id requesting zero bytes.
// It panics if id is nil.
func NewRemoteFrame(id ID) RemoteFrame {
	checkID(id)
	return RemoteFrame{id: id}
}

func (f RemoteFrame) ID() ID { return f.id }

func (f RemoteFrame) DataLength() int { return int(f.dlc) }

func (f RemoteFrame) Remote() bool { return true }

// SetDataLength sets the requested length and panics if it is outside 0..8.
func (f *RemoteFrame) SetDataLength(length int) {
	checkDataLength(length)
	f.dlc = uint8(length)
}

func (f RemoteFrame) String() string {
	var id string
	if f.id != nil {
		id = f.id.String()
	}
	return fmt.Sprintf("%s#R%d", id, f.dlc)
}

func (RemoteFrame) isFrame() {}
