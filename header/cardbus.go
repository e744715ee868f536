package header

import (
	"fmt"

	"github.com/pcikit/pcikit/internal/buf"
)

// Cardbus is the PCI-to-CardBus bridge tail (type 02h).
type Cardbus struct {
	BaseAddresses        BaseAddressesCardbus
	SecondaryStatus      Status
	PCIBusNumber         uint8
	CardbusBusNumber     uint8
	SubordinateBusNumber uint8
	CardbusLatency       uint8
	// Memory window bounds as read; the hardware extends each limit
	// through limit | 0xFFF.
	MemoryBase0   uint32
	MemoryLimit0  uint32
	MemoryBase1   uint32
	MemoryLimit1  uint32
	IOWindow0     CardbusIOWindow
	IOWindow1     CardbusIOWindow
	BridgeControl CardbusBridgeControl

	// Optional registers living at the start of the device dependent
	// region; populated by SetOptionalRegisters.
	SubsystemVendorID     uint16
	SubsystemDeviceID     uint16
	LegacyModeBaseAddress uint32
	OptionalPresent       bool
}

func (Cardbus) tag() uint8 { return TagCardbus }

func decodeCardbus(b []byte) Cardbus {
	return Cardbus{
		BaseAddresses:        BaseAddressesCardbus{buf.ReadU32(b, 0x10)},
		SecondaryStatus:      Status(buf.ReadU16(b, 0x16)),
		PCIBusNumber:         b[0x18],
		CardbusBusNumber:     b[0x19],
		SubordinateBusNumber: b[0x1a],
		CardbusLatency:       b[0x1b],
		MemoryBase0:          buf.ReadU32(b, 0x1c),
		MemoryLimit0:         buf.ReadU32(b, 0x20),
		MemoryBase1:          buf.ReadU32(b, 0x24),
		MemoryLimit1:         buf.ReadU32(b, 0x28),
		IOWindow0:            decodeCardbusIOWindow(buf.ReadU32(b, 0x2c), buf.ReadU32(b, 0x30)),
		IOWindow1:            decodeCardbusIOWindow(buf.ReadU32(b, 0x34), buf.ReadU32(b, 0x38)),
		BridgeControl:        CardbusBridgeControl(buf.ReadU16(b, 0x3e)),
	}
}

// SetOptionalRegisters fills the subsystem and legacy mode registers
// from the device dependent region slice (which starts at absolute
// offset 0x40). CardBus bridges keep these just past the predefined
// header instead of inside it.
func (c *Cardbus) SetOptionalRegisters(ddr []byte) error {
	const need = 8
	if len(ddr) < need {
		return fmt.Errorf("cardbus optional registers: %w (have %d, need %d)", ErrTooShort, len(ddr), need)
	}
	c.SubsystemVendorID = buf.ReadU16(ddr, 0x00)
	c.SubsystemDeviceID = buf.ReadU16(ddr, 0x02)
	c.LegacyModeBaseAddress = buf.ReadU32(ddr, 0x04)
	c.OptionalPresent = true
	return nil
}

// CardbusIOWindow is a decoded CardBus I/O base/limit pair. The low two
// bits of the base register select 16- or 32-bit decoding.
type CardbusIOWindow struct {
	Kind  BridgeWindowKind
	Base  uint32
	Limit uint32
	// RawCapability holds the undecoded capability bits for reserved forms.
	RawCapability uint8
}

func decodeCardbusIOWindow(base, limit uint32) CardbusIOWindow {
	capability := uint8(base & 0b11)
	switch capability {
	case 0x00:
		return CardbusIOWindow{
			Kind:  WindowAddr16,
			Base:  base & 0xfffc,
			Limit: limit & 0xfffc,
		}
	case 0x01:
		return CardbusIOWindow{
			Kind:  WindowAddr32,
			Base:  base &^ uint32(0b11),
			Limit: limit &^ uint32(0b11),
		}
	default:
		return CardbusIOWindow{
			Kind:          WindowReserved,
			Base:          base &^ uint32(0b11),
			Limit:         limit &^ uint32(0b11),
			RawCapability: capability,
		}
	}
}

// CardbusBridgeControl is the bridge control register at offset 0x3E of
// a CardBus bridge header.
type CardbusBridgeControl uint16

// ParityErrorResponse reports parity error response on the CardBus interface.
func (c CardbusBridgeControl) ParityErrorResponse() bool { return c&(1<<0) != 0 }

// SERREnable reports forwarding of CardBus SERR# assertions.
func (c CardbusBridgeControl) SERREnable() bool { return c&(1<<1) != 0 }

// ISAEnable reports ISA-aware I/O forwarding.
func (c CardbusBridgeControl) ISAEnable() bool { return c&(1<<2) != 0 }

// VGAEnable reports VGA address forwarding.
func (c CardbusBridgeControl) VGAEnable() bool { return c&(1<<3) != 0 }

// MasterAbortMode reports the master abort behavior.
func (c CardbusBridgeControl) MasterAbortMode() bool { return c&(1<<5) != 0 }

// CardbusReset reports that CRST# is asserted.
func (c CardbusBridgeControl) CardbusReset() bool { return c&(1<<6) != 0 }

// IREQIntEnable reports 16-bit IREQ# interrupt routing.
func (c CardbusBridgeControl) IREQIntEnable() bool { return c&(1<<7) != 0 }

// Memory0Prefetch reports prefetchability of memory window 0.
func (c CardbusBridgeControl) Memory0Prefetch() bool { return c&(1<<8) != 0 }

// Memory1Prefetch reports prefetchability of memory window 1.
func (c CardbusBridgeControl) Memory1Prefetch() bool { return c&(1<<9) != 0 }

// PostWrites reports write posting to the CardBus socket.
func (c CardbusBridgeControl) PostWrites() bool { return c&(1<<10) != 0 }
