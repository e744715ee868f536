package header

import "github.com/pcikit/pcikit/internal/buf"

// Bridge is the PCI-to-PCI bridge tail (type 01h).
type Bridge struct {
	BaseAddresses        BaseAddressesBridge
	PrimaryBusNumber     uint8
	SecondaryBusNumber   uint8
	SubordinateBusNumber uint8
	SecondaryLatency     uint8
	IOWindow             BridgeIOWindow
	SecondaryStatus      Status
	// MemoryBase and MemoryLimit hold the upper 16 bits of the 32-bit
	// non-prefetchable window bounds, as read.
	MemoryBase         uint16
	MemoryLimit        uint16
	PrefetchableMemory BridgePrefetchWindow
	ExpansionROM       ExpansionROM
	BridgeControl      BridgeControl
}

func (Bridge) tag() uint8 { return TagBridge }

func decodeBridge(b []byte) Bridge {
	return Bridge{
		BaseAddresses: BaseAddressesBridge{
			buf.ReadU32(b, 0x10),
			buf.ReadU32(b, 0x14),
		},
		PrimaryBusNumber:     b[0x18],
		SecondaryBusNumber:   b[0x19],
		SubordinateBusNumber: b[0x1a],
		SecondaryLatency:     b[0x1b],
		IOWindow: decodeBridgeIOWindow(
			b[0x1c], b[0x1d],
			buf.ReadU16(b, 0x30), buf.ReadU16(b, 0x32),
		),
		SecondaryStatus: Status(buf.ReadU16(b, 0x1e)),
		MemoryBase:      buf.ReadU16(b, 0x20),
		MemoryLimit:     buf.ReadU16(b, 0x22),
		PrefetchableMemory: decodeBridgePrefetchWindow(
			buf.ReadU16(b, 0x24), buf.ReadU16(b, 0x26),
			buf.ReadU32(b, 0x28), buf.ReadU32(b, 0x2c),
		),
		ExpansionROM:  decodeExpansionROM(buf.ReadU32(b, 0x38)),
		BridgeControl: BridgeControl(buf.ReadU16(b, 0x3e)),
	}
}

// BridgeWindowKind discriminates the bridge forwarding window forms.
type BridgeWindowKind uint8

const (
	// WindowNotImplemented: the bridge decodes no addresses in this window.
	WindowNotImplemented BridgeWindowKind = iota
	// WindowAddr16 / WindowAddr32 / WindowAddr64 carry decoded bounds.
	WindowAddr16
	WindowAddr32
	WindowAddr64
	// WindowMalformed: base and limit carry distinct capability bits.
	WindowMalformed
	// WindowReserved: a reserved capability encoding.
	WindowReserved
)

// BridgeIOWindow is the decoded I/O base/limit pair. The limit is the
// register value; the window extends through limit | 0xFFF.
type BridgeIOWindow struct {
	Kind  BridgeWindowKind
	Base  uint32
	Limit uint32
	// RawBase and RawLimit are kept for the malformed and reserved forms.
	RawBase  uint8
	RawLimit uint8
}

func decodeBridgeIOWindow(ioBase, ioLimit uint8, baseUpper, limitUpper uint16) BridgeIOWindow {
	baseCap, baseAddr := ioBase&0xf, ioBase&^uint8(0xf)
	limitCap, limitAddr := ioLimit&0xf, ioLimit&^uint8(0xf)
	switch {
	case ioBase == 0 && ioLimit == 0:
		return BridgeIOWindow{Kind: WindowNotImplemented}
	case baseCap == 0 && limitCap == 0:
		return BridgeIOWindow{
			Kind:  WindowAddr16,
			Base:  uint32(baseAddr) << 8,
			Limit: uint32(limitAddr) << 8,
		}
	case baseCap == 1 && limitCap == 1:
		return BridgeIOWindow{
			Kind:  WindowAddr32,
			Base:  uint32(baseAddr)<<8 | uint32(baseUpper)<<16,
			Limit: uint32(limitAddr)<<8 | uint32(limitUpper)<<16,
		}
	case baseCap != limitCap:
		return BridgeIOWindow{Kind: WindowMalformed, RawBase: ioBase, RawLimit: ioLimit}
	default:
		return BridgeIOWindow{Kind: WindowReserved, RawBase: ioBase, RawLimit: ioLimit}
	}
}

// BridgePrefetchWindow is the decoded prefetchable memory base/limit
// pair. The window extends through Limit | 0xFFFFF.
type BridgePrefetchWindow struct {
	Kind  BridgeWindowKind
	Base  uint64
	Limit uint64
	// RawBase and RawLimit are kept for the malformed and reserved forms.
	RawBase  uint16
	RawLimit uint16
}

func decodeBridgePrefetchWindow(base, limit uint16, baseUpper, limitUpper uint32) BridgePrefetchWindow {
	baseCap, baseAddr := base&0xf, base&^uint16(0xf)
	limitCap, limitAddr := limit&0xf, limit&^uint16(0xf)
	switch {
	case base == 0 && limit == 0:
		return BridgePrefetchWindow{Kind: WindowNotImplemented}
	case baseCap == 0 && limitCap == 0:
		return BridgePrefetchWindow{
			Kind:  WindowAddr32,
			Base:  uint64(baseAddr) << 16,
			Limit: uint64(limitAddr) << 16,
		}
	case baseCap == 1 && limitCap == 1:
		return BridgePrefetchWindow{
			Kind:  WindowAddr64,
			Base:  uint64(baseAddr)<<16 | uint64(baseUpper)<<32,
			Limit: uint64(limitAddr)<<16 | uint64(limitUpper)<<32,
		}
	case baseCap != limitCap:
		return BridgePrefetchWindow{Kind: WindowMalformed, RawBase: base, RawLimit: limit}
	default:
		return BridgePrefetchWindow{Kind: WindowReserved, RawBase: base, RawLimit: limit}
	}
}

// BridgeControl is the bridge control register at offset 0x3E.
type BridgeControl uint16

// ParityErrorResponse reports parity error response on the secondary interface.
func (c BridgeControl) ParityErrorResponse() bool { return c&(1<<0) != 0 }

// SERREnable reports forwarding of secondary SERR# assertions.
func (c BridgeControl) SERREnable() bool { return c&(1<<1) != 0 }

// ISAEnable reports ISA-aware I/O forwarding.
func (c BridgeControl) ISAEnable() bool { return c&(1<<2) != 0 }

// VGAEnable reports VGA address forwarding.
func (c BridgeControl) VGAEnable() bool { return c&(1<<3) != 0 }

// VGA16Bit reports 16-bit VGA I/O decoding.
func (c BridgeControl) VGA16Bit() bool { return c&(1<<4) != 0 }

// MasterAbortMode reports the master abort behavior.
func (c BridgeControl) MasterAbortMode() bool { return c&(1<<5) != 0 }

// SecondaryBusReset reports that RST# is asserted on the secondary bus.
func (c BridgeControl) SecondaryBusReset() bool { return c&(1<<6) != 0 }

// FastBackToBackEnable reports fast back-to-back on the secondary bus.
func (c BridgeControl) FastBackToBackEnable() bool { return c&(1<<7) != 0 }

// PrimaryDiscardTimer selects the primary discard timer (2^10 vs 2^15 cycles).
func (c BridgeControl) PrimaryDiscardTimer() bool { return c&(1<<8) != 0 }

// SecondaryDiscardTimer selects the secondary discard timer.
func (c BridgeControl) SecondaryDiscardTimer() bool { return c&(1<<9) != 0 }

// DiscardTimerStatus reports a discard timer expiration.
func (c BridgeControl) DiscardTimerStatus() bool { return c&(1<<10) != 0 }

// DiscardTimerSERREnable reports SERR# on discard timer expiration.
func (c BridgeControl) DiscardTimerSERREnable() bool { return c&(1<<11) != 0 }
