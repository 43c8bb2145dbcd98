//go:build linux

package socketcan

import (
	"github.com/lion187chen/cancore/canframe"
	"golang.org/x/sys/unix"
)

// Filter is a CAN_RAW acceptance filter: a frame passes when
// received_id & Mask == Id & Mask.
type Filter struct {
	Id   uint32
	Mask uint32
}

// NewFilter matches exactly id. The EFF flag is part of the mask so base and
// extended identifiers with the same value stay distinct.
func NewFilter(id canframe.ID) Filter {
	if id.Extended() {
		return Filter{
			Id:   id.Uint32() | unix.CAN_EFF_FLAG,
			Mask: unix.CAN_EFF_MASK | unix.CAN_EFF_FLAG,
		}
	}
	return Filter{
		Id:   id.Uint32(),
		Mask: unix.CAN_SFF_MASK | unix.CAN_EFF_FLAG,
	}
}

// NewInvFilter matches every frame except id.
func NewInvFilter(id canframe.ID) Filter {
	f := NewFilter(id)
	f.Id |= unix.CAN_INV_FILTER
	return f
}

// NewMaskFilter matches identifiers of the same kind as id that agree with
// it on the bits set in mask.
func NewMaskFilter(id canframe.ID, mask uint32) Filter {
	f := NewFilter(id)
	if id.Extended() {
		f.Mask = (mask & unix.CAN_EFF_MASK) | unix.CAN_EFF_FLAG
	} else {
		f.Mask = (mask & unix.CAN_SFF_MASK) | unix.CAN_EFF_FLAG
	}
	return f
}
