package caps

import "github.com/pcikit/pcikit/internal/buf"

// DeviceType is the device/port type field of the PCI Express
// capabilities register.
type DeviceType uint8

const (
	DeviceTypeEndpoint              DeviceType = 0b0000
	DeviceTypeLegacyEndpoint        DeviceType = 0b0001
	DeviceTypeRootPort              DeviceType = 0b0100
	DeviceTypeUpstreamPort          DeviceType = 0b0101
	DeviceTypeDownstreamPort        DeviceType = 0b0110
	DeviceTypePCIeToPCIBridge       DeviceType = 0b0111
	DeviceTypePCIToPCIeBridge       DeviceType = 0b1000
	DeviceTypeIntegratedEndpoint    DeviceType = 0b1001
	DeviceTypeRootEventCollector    DeviceType = 0b1010
)

// PCIExpress is the PCI Express capability (ID 10h). The device and
// link register blocks are always present; slot, root and the version
// 2 blocks appear only when the structure is long enough to hold them.
type PCIExpress struct {
	Version                uint8
	DeviceType             DeviceType
	SlotImplemented        bool
	InterruptMessageNumber uint8

	Device ExpressDevice
	Link   ExpressLink
	Slot   *ExpressSlot
	Root   *ExpressRoot

	Device2 *ExpressDevice2
	Link2   *ExpressLink2
	Slot2   *ExpressSlot2
}

func (PCIExpress) capabilityID() ID { return IDPCIExpress }

// ExpressDevice is the device capabilities/control/status block.
type ExpressDevice struct {
	Capabilities ExpressDeviceCapabilities
	Control      uint16
	Status       uint16
}

// ExpressLink is the link capabilities/control/status block.
type ExpressLink struct {
	Capabilities ExpressLinkCapabilities
	Control      uint16
	Status       ExpressLinkStatus
}

// ExpressSlot is the slot capabilities/control/status block.
type ExpressSlot struct {
	Capabilities uint32
	Control      uint16
	Status       uint16
}

// ExpressRoot is the root port control/capabilities/status block.
type ExpressRoot struct {
	Control      uint16
	Capabilities uint16
	Status       uint32
}

// ExpressDevice2, ExpressLink2 and ExpressSlot2 are the version 2
// register blocks. Their raw values are kept as read.
type ExpressDevice2 struct {
	Capabilities uint32
	Control      uint16
	Status       uint16
}

type ExpressLink2 struct {
	Capabilities uint32
	Control      uint16
	Status       uint16
}

type ExpressSlot2 struct {
	Capabilities uint32
	Control      uint16
	Status       uint16
}

func decodePCIExpress(b []byte) (Data, error) {
	if err := need(b, 0x14); err != nil {
		return nil, err
	}
	reg := buf.ReadU16(b, 2)
	e := PCIExpress{
		Version:                uint8(reg & 0b1111),
		DeviceType:             DeviceType(reg >> 4 & 0b1111),
		SlotImplemented:        reg&(1<<8) != 0,
		InterruptMessageNumber: uint8(reg >> 9 & 0b11111),
		Device: ExpressDevice{
			Capabilities: ExpressDeviceCapabilities(buf.ReadU32(b, 0x04)),
			Control:      buf.ReadU16(b, 0x08),
			Status:       buf.ReadU16(b, 0x0a),
		},
		Link: ExpressLink{
			Capabilities: ExpressLinkCapabilities(buf.ReadU32(b, 0x0c)),
			Control:      buf.ReadU16(b, 0x10),
			Status:       ExpressLinkStatus(buf.ReadU16(b, 0x12)),
		},
	}
	if buf.Has(b, 0x14, 8) {
		e.Slot = &ExpressSlot{
			Capabilities: buf.ReadU32(b, 0x14),
			Control:      buf.ReadU16(b, 0x18),
			Status:       buf.ReadU16(b, 0x1a),
		}
	}
	if buf.Has(b, 0x1c, 8) {
		e.Root = &ExpressRoot{
			Control:      buf.ReadU16(b, 0x1c),
			Capabilities: buf.ReadU16(b, 0x1e),
			Status:       buf.ReadU32(b, 0x20),
		}
	}
	if e.Version >= 2 && buf.Has(b, 0x24, 0x18) {
		e.Device2 = &ExpressDevice2{
			Capabilities: buf.ReadU32(b, 0x24),
			Control:      buf.ReadU16(b, 0x28),
			Status:       buf.ReadU16(b, 0x2a),
		}
		e.Link2 = &ExpressLink2{
			Capabilities: buf.ReadU32(b, 0x2c),
			Control:      buf.ReadU16(b, 0x30),
			Status:       buf.ReadU16(b, 0x32),
		}
		e.Slot2 = &ExpressSlot2{
			Capabilities: buf.ReadU32(b, 0x34),
			Control:      buf.ReadU16(b, 0x38),
			Status:       buf.ReadU16(b, 0x3a),
		}
	}
	return e, nil
}

// ExpressDeviceCapabilities is the device capabilities register.
type ExpressDeviceCapabilities uint32

// MaxPayloadSizeSupported returns the supported maximum payload size
// in bytes.
func (c ExpressDeviceCapabilities) MaxPayloadSizeSupported() int {
	return 128 << (c & 0b111)
}

// PhantomFunctions returns the phantom function number encoding.
func (c ExpressDeviceCapabilities) PhantomFunctions() uint8 { return uint8(c >> 3 & 0b11) }

// ExtendedTags reports 8-bit tag field support.
func (c ExpressDeviceCapabilities) ExtendedTags() bool { return c&(1<<5) != 0 }

// FunctionLevelReset reports FLR support.
func (c ExpressDeviceCapabilities) FunctionLevelReset() bool { return c&(1<<28) != 0 }

// LinkSpeed is a link speed encoding (2.5 GT/s is 1, 5 GT/s is 2 and
// so on up the generations).
type LinkSpeed uint8

// ExpressLinkCapabilities is the link capabilities register.
type ExpressLinkCapabilities uint32

// MaxLinkSpeed returns the highest supported link speed.
func (c ExpressLinkCapabilities) MaxLinkSpeed() LinkSpeed { return LinkSpeed(c & 0b1111) }

// MaxLinkWidth returns the maximum link width in lanes.
func (c ExpressLinkCapabilities) MaxLinkWidth() int { return int(c >> 4 & 0b111111) }

// PortNumber returns the port number.
func (c ExpressLinkCapabilities) PortNumber() uint8 { return uint8(c >> 24) }

// ExpressLinkStatus is the link status register.
type ExpressLinkStatus uint16

// CurrentLinkSpeed returns the negotiated link speed.
func (s ExpressLinkStatus) CurrentLinkSpeed() LinkSpeed { return LinkSpeed(s & 0b1111) }

// NegotiatedLinkWidth returns the negotiated link width in lanes.
func (s ExpressLinkStatus) NegotiatedLinkWidth() int { return int(s >> 4 & 0b111111) }

// LinkTraining reports that link training is in progress.
func (s ExpressLinkStatus) LinkTraining() bool { return s&(1<<11) != 0 }

// SlotClockConfiguration reports use of the slot reference clock.
func (s ExpressLinkStatus) SlotClockConfiguration() bool { return s&(1<<12) != 0 }
