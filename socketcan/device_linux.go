//go:build linux

package socketcan

import (
	"encoding/binary"
	"fmt"
	"net"
	"unsafe"

	"github.com/mdlayher/netlink"
	"github.com/mdlayher/netlink/nlenc"
	"golang.org/x/sys/unix"
)

const (
	canLinkType  = "can"
	vcanLinkType = "vcan"
)

// Device controls the link state of a CAN network interface over
// rtnetlink. It never touches bit timing.
type Device struct {
	nface *net.Interface
}

// Device public.

// ifName is the CAN interface name, such as "can0", "vcan0"...
func (d *Device) Init(ifName string) *Device {
	var err error
	d.nface, err = net.InterfaceByName(ifName)
	if err != nil {
		return nil
	}
	return d
}

func (d *Device) Name() string { return d.nface.Name }

func (d *Device) Index() int { return d.nface.Index }

// Up the CAN interface.
func (d *Device) SetUp() error {
	return d.setFlags(unix.IFF_UP, "up")
}

// Down the CAN interface.
func (d *Device) SetDown() error {
	return d.setFlags(0, "down")
}

func (d *Device) IsUp() (bool, error) {
	_, ifInfo, err := d.updateInfo()
	if err != nil {
		return false, err
	}
	return ifInfo.Flags&unix.IFF_UP != 0, nil
}

// Get CAN interface's info.
func (d *Device) Info() (Info, error) {
	info, _, err := d.updateInfo()
	if err != nil {
		return Info{}, err
	}
	return *info, nil
}

// Device private.

func (d *Device) setFlags(flags uint32, what string) error {
	c, err := netlink.Dial(unix.NETLINK_ROUTE, &netlink.Config{})
	if err != nil {
		return fmt.Errorf("couldn't dial netlink socket: %w", err)
	}
	defer c.Close()

	ifi := &ifInfoMsg{
		Index:  int32(d.nface.Index),
		Flags:  flags,
		Change: unix.IFF_UP,
	}
	res, err := c.Execute(newRequest(unix.RTM_NEWLINK, ifi))
	if err != nil {
		return fmt.Errorf("couldn't set link %s: %w", what, err)
	}
	if len(res) > 1 {
		return fmt.Errorf("expected 1 message, got %d", len(res))
	}
	return nil
}

func (d *Device) updateInfo() (*Info, *ifInfoMsg, error) {
	c, err := netlink.Dial(unix.NETLINK_ROUTE, &netlink.Config{})
	if err != nil {
		return nil, nil, fmt.Errorf("couldn't dial netlink socket: %w", err)
	}
	defer c.Close()

	ifi := &ifInfoMsg{
		Index: int32(d.nface.Index),
	}
	res, err := c.Execute(newRequest(unix.RTM_GETLINK, ifi))
	if err != nil {
		return nil, nil, fmt.Errorf("couldn't retrieve link info: %w", err)
	}
	if len(res) != 1 {
		return nil, nil, fmt.Errorf("expected 1 message, got %d", len(res))
	}

	info, ifInfo, err := respondData(res[0].Data).unmarshalBinary()
	if err != nil {
		return nil, nil, fmt.Errorf("couldn't decode info: %w", err)
	}
	return info, ifInfo, nil
}

func newRequest(typ netlink.HeaderType, ifi *ifInfoMsg) netlink.Message {
	return netlink.Message{
		Header: netlink.Header{
			Flags: netlink.Request | netlink.Acknowledge,
			Type:  typ,
		},
		Data: ifi.marshalBinary(),
	}
}

// ifInfoMsg
type ifInfoMsg unix.IfInfomsg

func (ifi *ifInfoMsg) marshalBinary() []byte {
	buf := make([]byte, 2, unix.SizeofIfInfomsg)
	buf[0] = ifi.Family
	buf[1] = 0 // reserved
	buf = binary.LittleEndian.AppendUint16(buf, ifi.Type)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(ifi.Index))
	buf = binary.LittleEndian.AppendUint32(buf, ifi.Flags)
	buf = binary.LittleEndian.AppendUint32(buf, ifi.Change)
	return buf
}

func (ifi *ifInfoMsg) unmarshalBinary(data []byte) error {
	if len(data) != unix.SizeofIfInfomsg {
		return fmt.Errorf(
			"data is not a valid ifInfoMsg, expected: %d bytes, got: %d bytes",
			unix.SizeofIfInfomsg,
			len(data),
		)
	}
	ifi.Family = nlenc.Uint8(data[0:1])
	ifi.Type = nlenc.Uint16(data[2:4])
	ifi.Index = nlenc.Int32(data[4:8])
	ifi.Flags = nlenc.Uint32(data[8:12])
	ifi.Change = nlenc.Uint32(data[12:16])
	return nil
}

// Info

type Info struct {
	DevName     string
	Kind        string
	State       State
	CtrlMode    CanCtrlMode
	ErrCounters CanBusErrCounters
	DevStats    CanDevStats
}

func (li *Info) decode(nad *netlink.AttributeDecoder) error {
	var err error
	for nad.Next() {
		switch nad.Type() {
		case unix.IFLA_INFO_KIND:
			li.Kind = nad.String()
			if (li.Kind != canLinkType) && (li.Kind != vcanLinkType) {
				return fmt.Errorf("not a CAN interface: %q", li.Kind)
			}
		case unix.IFLA_INFO_DATA:
			nad.Nested(li.decodeData)
		case unix.IFLA_INFO_XSTATS:
			err = li.DevStats.unmarshalBinary(nad.Bytes())
		default:
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (li *Info) decodeData(nad *netlink.AttributeDecoder) error {
	var err error
	for nad.Next() {
		switch nad.Type() {
		case unix.IFLA_CAN_STATE:
			li.State = State(nad.Uint32())
		case unix.IFLA_CAN_CTRLMODE:
			err = li.CtrlMode.unmarshalBinary(nad.Bytes())
		case unix.IFLA_CAN_BERR_COUNTER:
			err = li.ErrCounters.unmarshalBinary(nad.Bytes())
		default:
			// Bit timing and clock attributes are not decoded.
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// respondData

type respondData []byte

func (rd respondData) unmarshalBinary() (*Info, *ifInfoMsg, error) {
	var info Info
	var ifInfo ifInfoMsg
	if len(rd) < unix.SizeofIfInfomsg {
		return nil, nil, fmt.Errorf("short link message: %d bytes", len(rd))
	}
	if err := ifInfo.unmarshalBinary(rd[:unix.SizeofIfInfomsg]); err != nil {
		return nil, nil, fmt.Errorf("couldn't unmarshal ifInfoMsg: %w", err)
	}
	if ifInfo.Type != unix.ARPHRD_CAN {
		return nil, nil, fmt.Errorf("not a CAN interface")
	}

	ad, err := netlink.NewAttributeDecoder(rd[unix.SizeofIfInfomsg:])
	if err != nil {
		return nil, nil, err
	}
	for ad.Next() {
		switch ad.Type() {
		case unix.IFLA_IFNAME:
			info.DevName = ad.String()
		case unix.IFLA_LINKINFO:
			ad.Nested(info.decode)
		default:
		}
	}
	if err := ad.Err(); err != nil {
		return nil, nil, fmt.Errorf("couldn't decode link: %w", err)
	}
	return &info, &ifInfo, nil
}

// State is the CAN controller error state (enum can_state).
type State uint32

const (
	StateErrorActive State = iota
	StateErrorWarning
	StateErrorPassive
	StateBusOff
	StateStopped
	StateSleeping
)

func (s State) String() string {
	switch s {
	case StateErrorActive:
		return "ERROR-ACTIVE"
	case StateErrorWarning:
		return "ERROR-WARNING"
	case StateErrorPassive:
		return "ERROR-PASSIVE"
	case StateBusOff:
		return "BUS-OFF"
	case StateStopped:
		return "STOPPED"
	case StateSleeping:
		return "SLEEPING"
	default:
		return fmt.Sprintf("State(%d)", uint32(s))
	}
}

const (
	sizeOfCtrlMode         = int(unsafe.Sizeof(CanCtrlMode{}))
	sizeOfBusErrorCounters = int(unsafe.Sizeof(CanBusErrCounters{}))
	sizeOfStats            = int(unsafe.Sizeof(CanDevStats{}))
)

// CanBusErrCounters

type CanBusErrCounters unix.CANBusErrorCounters

func (bec *CanBusErrCounters) unmarshalBinary(data []byte) error {
	if len(data) != sizeOfBusErrorCounters {
		return fmt.Errorf(
			"data is not a valid CanBusErrCounters, expected: %d bytes, got: %d bytes",
			sizeOfBusErrorCounters,
			len(data),
		)
	}
	bec.Txerr = nlenc.Uint16(data[0:2])
	bec.Rxerr = nlenc.Uint16(data[2:4])
	return nil
}

// CanCtrlMode

type CanCtrlMode unix.CANCtrlMode

func (cm *CanCtrlMode) unmarshalBinary(data []byte) error {
	if len(data) != sizeOfCtrlMode {
		return fmt.Errorf(
			"data is not a valid CanCtrlMode, expected: %d bytes, got: %d bytes",
			sizeOfCtrlMode,
			len(data),
		)
	}
	cm.Mask = nlenc.Uint32(data[0:4])
	cm.Flags = nlenc.Uint32(data[4:8])
	return nil
}

func (cm CanCtrlMode) ListenOnly() bool { return cm.Flags&unix.CAN_CTRLMODE_LISTENONLY != 0 }

func (cm CanCtrlMode) Loopback() bool { return cm.Flags&unix.CAN_CTRLMODE_LOOPBACK != 0 }

// CanDevStats

type CanDevStats unix.CANDeviceStats

func (s *CanDevStats) unmarshalBinary(data []byte) error {
	if len(data) != sizeOfStats {
		return fmt.Errorf(
			"data is not a valid CanDevStats, expected: %d bytes, got: %d bytes",
			sizeOfStats,
			len(data),
		)
	}
	s.Bus_error = nlenc.Uint32(data[0:4])
	s.Error_warning = nlenc.Uint32(data[4:8])
	s.Error_passive = nlenc.Uint32(data[8:12])
	s.Bus_off = nlenc.Uint32(data[12:16])
	s.Arbitration_lost = nlenc.Uint32(data[16:20])
	s.Restarts = nlenc.Uint32(data[20:24])
	return nil
}
