// Package slcan drives serial line CAN adapters that speak the Lawicel
// (SLCAN) ASCII protocol.
//
// Frames travel as carriage return terminated lines:
//
//	tIIILDD..\r        base data frame
//	TIIIIIIIILDD..\r   extended data frame
//	rIIIL\r            base remote frame
//	RIIIIIIIIL\r       extended remote frame
//
// Commands are acknowledged with '\r' and rejected with a bell ('\a').
package slcan

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/lion187chen/cancore/canframe"
	"github.com/lion187chen/cancore/canio"
)

const (
	CR   = '\r'
	BELL = '\a'

	// MAX_LINE_LEN is the longest frame line: T + 8 id + dlc + 16 data +
	// 4 timestamp + CR.
	MAX_LINE_LEN = 1 + 8 + 1 + 2*canframe.FRAME_MAX_DATA_LEN + 4 + 1
)

// Encode returns the SLCAN line for f, including the trailing CR.
func Encode(f canframe.Frame) []byte {
	return AppendEncode(make([]byte, 0, MAX_LINE_LEN), f)
}

// AppendEncode appends the SLCAN line for f to buf. It panics if f has no
// identifier, as a zero value DataFrame or RemoteFrame does.
func AppendEncode(buf []byte, f canframe.Frame) []byte {
	id := f.ID()
	if id == nil {
		panic("slcan: frame has no identifier")
	}
	ext := id.Extended()
	switch {
	case f.Remote() && ext:
		buf = append(buf, 'R')
	case f.Remote():
		buf = append(buf, 'r')
	case ext:
		buf = append(buf, 'T')
	default:
		buf = append(buf, 't')
	}

	if ext {
		buf = fmt.Appendf(buf, "%08X", id.Uint32())
	} else {
		buf = fmt.Appendf(buf, "%03X", id.Uint32())
	}
	buf = append(buf, '0'+byte(f.DataLength()))

	if df, ok := f.(canframe.DataFrame); ok {
		var data [canframe.FRAME_MAX_DATA_LEN]byte
		for _, b := range data[:df.CopyData(data[:])] {
			buf = fmt.Appendf(buf, "%02X", b)
		}
	}
	return append(buf, CR)
}

// Decode parses one frame line. A trailing CR is optional and a four digit
// timestamp after the payload is ignored. Malformed lines are
// canio.InvalidInput; a bell is the adapter reporting an error.
func Decode(line []byte) (canframe.Frame, error) {
	line = bytes.TrimSuffix(line, []byte{CR})
	if len(line) == 0 {
		return nil, canio.Errorf(canio.InvalidInput, "decode", "empty line")
	}

	var idLen int
	var ext, remote bool
	switch line[0] {
	case 't':
		idLen = 3
	case 'T':
		idLen, ext = 8, true
	case 'r':
		idLen, remote = 3, true
	case 'R':
		idLen, ext, remote = 8, true, true
	case BELL:
		return nil, canio.Errorf(canio.Other, "decode", "adapter reported an error")
	default:
		return nil, canio.Errorf(canio.InvalidInput, "decode", "unknown command %q", line[0])
	}
	if len(line) < 1+idLen+1 {
		return nil, canio.Errorf(canio.InvalidInput, "decode", "truncated line %q", line)
	}

	v, err := strconv.ParseUint(string(line[1:1+idLen]), 16, 32)
	if err != nil {
		return nil, canio.NewError(canio.InvalidInput, "decode", err)
	}
	var id canframe.ID
	if ext {
		if v > uint64(canframe.MAX_EXTENDED_ID) {
			return nil, canio.Errorf(canio.InvalidInput, "decode", "extended id 0x%X out of range", v)
		}
		id = canframe.NewExtendedID(uint32(v))
	} else {
		if v > uint64(canframe.MAX_BASE_ID) {
			return nil, canio.Errorf(canio.InvalidInput, "decode", "base id 0x%X out of range", v)
		}
		id = canframe.NewBaseID(uint16(v))
	}

	dlc := int(line[1+idLen]) - '0'
	if dlc < 0 || dlc > canframe.FRAME_MAX_DATA_LEN {
		return nil, canio.Errorf(canio.InvalidInput, "decode", "bad length %q", line[1+idLen])
	}
	rest := line[2+idLen:]

	if remote {
		if len(rest) != 0 && len(rest) != 4 {
			return nil, canio.Errorf(canio.InvalidInput, "decode", "trailing data in remote frame %q", line)
		}
		rf := canframe.NewRemoteFrame(id)
		rf.SetDataLength(dlc)
		return rf, nil
	}

	if len(rest) != 2*dlc && len(rest) != 2*dlc+4 {
		return nil, canio.Errorf(canio.InvalidInput, "decode", "payload does not match length %d in %q", dlc, line)
	}
	df := canframe.NewDataFrame(id)
	df.SetDataLength(dlc)
	if _, err := hex.Decode(df.DataMut(), rest[:2*dlc]); err != nil {
		return nil, canio.NewError(canio.InvalidInput, "decode", err)
	}
	return df, nil
}
