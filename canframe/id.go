package canframe

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	BASE_ID_MASK     uint16 = 0xF800     // Bits that must be clear in a base identifier.
	EXTENDED_ID_MASK uint32 = 0xE0000000 // Bits that must be clear in an extended identifier.

	MAX_BASE_ID     uint16 = 0x07FF
	MAX_EXTENDED_ID uint32 = 0x1FFFFFFF
)

// ID is a CAN identifier, either a BaseID (11-bit, CAN2.0A) or an
// ExtendedID (29-bit, CAN2.0B). The set of implementations is closed.
type ID interface {
	// Uint32 returns the numeric identifier as placed in the arbitration field.
	Uint32() uint32
	// Extended reports whether the identifier uses the 29-bit format.
	Extended() bool
	String() string

	isID()
}

// BaseID is an 11-bit CAN2.0A identifier.
type BaseID struct {
	id uint16
}

// NewBaseID panics if id does not fit in 11 bits.
func NewBaseID(id uint16) BaseID {
	if id&BASE_ID_MASK != 0 {
		panic(fmt.Sprintf("canframe: base id 0x%X exceeds 11 bits", id))
	}
	return BaseID{id: id}
}

func (b BaseID) Uint16() uint16 { return b.id }

// Uint32 zero-extends the identifier.
func (b BaseID) Uint32() uint32 { return uint32(b.id) }

func (b BaseID) Extended() bool { return false }

func (b BaseID) String() string { return fmt.Sprintf("%03X", b.id) }

func (BaseID) isID() {}

// ExtendedID is a 29-bit CAN2.0B identifier.
type ExtendedID struct {
	id uint32
}

// NewExtendedID panics if id does not fit in 29 bits.
func NewExtendedID(id uint32) ExtendedID {
	if id&EXTENDED_ID_MASK != 0 {
		panic(fmt.Sprintf("canframe: extended id 0x%X exceeds 29 bits", id))
	}
	return ExtendedID{id: id}
}

func (e ExtendedID) Uint32() uint32 { return e.id }

func (e ExtendedID) Extended() bool { return true }

func (e ExtendedID) String() string { return fmt.Sprintf("%08X", e.id) }

func (ExtendedID) isID() {}

// ParseID reads an identifier in candump notation: three hex digits give a
// BaseID, eight give an ExtendedID. A "0x" prefix is accepted. Unlike the
// constructors, out of range input is reported as an error since it usually
// comes from a user.
func ParseID(s string) (ID, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")

	switch {
	case len(s) == 0:
		return nil, fmt.Errorf("canframe: empty identifier")
	case len(s) <= 3:
		v, err := strconv.ParseUint(s, 16, 16)
		if err != nil {
			return nil, fmt.Errorf("couldn't parse base id %q: %w", s, err)
		}
		if uint16(v)&BASE_ID_MASK != 0 {
			return nil, fmt.Errorf("canframe: base id 0x%X exceeds 11 bits", v)
		}
		return NewBaseID(uint16(v)), nil
	case len(s) <= 8:
		v, err := strconv.ParseUint(s, 16, 32)
		if err != nil {
			return nil, fmt.Errorf("couldn't parse extended id %q: %w", s, err)
		}
		if uint32(v)&EXTENDED_ID_MASK != 0 {
			return nil, fmt.Errorf("canframe: extended id 0x%X exceeds 29 bits", v)
		}
		return NewExtendedID(uint32(v)), nil
	default:
		return nil, fmt.Errorf("canframe: identifier %q too long", s)
	}
}
