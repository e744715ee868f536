// Package header decodes the predefined 64-byte header region of PCI
// configuration space.
//
// The first 16 bytes are laid out identically for every device; the
// remaining 48 bytes depend on the header type tag (general device,
// PCI-to-PCI bridge, or CardBus bridge). Decoding is total: once the
// buffer is at least 64 bytes long, every byte pattern produces a valid
// Header. Unknown header type tags are preserved raw rather than
// rejected, since configuration bytes come from untrusted hardware.
//
// All multi-byte fields are little-endian. Decode is a pure function of
// its input and is safe for concurrent use.
package header

import (
	"errors"
	"fmt"

	"github.com/pcikit/pcikit/internal/buf"
)

const (
	// TotalSize is the length of the predefined header region.
	TotalSize = 0x40
	// CommonSize is the length of the leading part shared by all header types.
	CommonSize = 0x10
)

// ErrTooShort indicates the buffer lacked the bytes required for a structure.
var ErrTooShort = errors.New("header: buffer too short")

// Header type tags (low 7 bits of the header type byte at offset 0x0E).
const (
	TagNormal  = 0x00
	TagBridge  = 0x01
	TagCardbus = 0x02
)

// Header is the decoded predefined header region.
type Header struct {
	// VendorID identifies the manufacturer of the device. 0xFFFF is
	// returned on reads of non-existent functions.
	VendorID uint16
	// DeviceID identifies the particular device.
	DeviceID uint16
	Command  Command
	Status   Status
	// RevisionID is a device-specific revision identifier.
	RevisionID uint8
	ClassCode  ClassCode
	// CacheLineSize is the system cache line size in 32-bit units.
	CacheLineSize uint8
	// LatencyTimer is in units of PCI bus clocks.
	LatencyTimer uint8
	// MultiFunction is bit 7 of the header type byte.
	MultiFunction bool
	BIST          BuiltInSelfTest
	// CapabilitiesPointer anchors the capability list in the device
	// dependent region. The bottom two bits are reserved and already
	// masked off.
	CapabilitiesPointer uint8
	InterruptLine       uint8
	InterruptPin        InterruptPin
	// Tail is one of Normal, Bridge, Cardbus or Reserved, selected by
	// the header type tag.
	Tail Tail
}

// Tag returns the raw header type tag.
func (h Header) Tag() uint8 { return h.Tail.tag() }

// Tail is the header-type-selected layout of bytes [0x10, 0x40).
type Tail interface {
	tag() uint8
}

// Decode parses the first 64 bytes of b into a Header. It fails only
// when fewer than TotalSize bytes are supplied.
func Decode(b []byte) (Header, error) {
	if len(b) < TotalSize {
		return Header{}, fmt.Errorf("%w (have %d, need %d)", ErrTooShort, len(b), TotalSize)
	}
	htype := b[0x0e]

	h := Header{
		VendorID:      buf.ReadU16(b, 0x00),
		DeviceID:      buf.ReadU16(b, 0x02),
		Command:       Command(buf.ReadU16(b, 0x04)),
		Status:        Status(buf.ReadU16(b, 0x06)),
		RevisionID:    b[0x08],
		ClassCode:     ClassCode{Interface: b[0x09], Sub: b[0x0a], Base: b[0x0b]},
		CacheLineSize: b[0x0c],
		LatencyTimer:  b[0x0d],
		MultiFunction: htype&0x80 != 0,
		BIST:          decodeBIST(b[0x0f]),
	}

	switch htype & 0x7f {
	case TagNormal:
		h.Tail = decodeNormal(b)
		h.CapabilitiesPointer = b[0x34] &^ 0b11
		h.InterruptLine = b[0x3c]
		h.InterruptPin = InterruptPin(b[0x3d])
	case TagBridge:
		h.Tail = decodeBridge(b)
		h.CapabilitiesPointer = b[0x34] &^ 0b11
		h.InterruptLine = b[0x3c]
		h.InterruptPin = InterruptPin(b[0x3d])
	case TagCardbus:
		h.Tail = decodeCardbus(b)
		h.CapabilitiesPointer = b[0x14] &^ 0b11
		h.InterruptLine = b[0x3c]
		h.InterruptPin = InterruptPin(b[0x3d])
	default:
		r := Reserved{Raw: htype & 0x7f}
		copy(r.Bytes[:], b[CommonSize:TotalSize])
		h.Tail = r
	}
	return h, nil
}

// Normal is the general device tail (type 00h).
type Normal struct {
	BaseAddresses BaseAddressesNormal
	// CardbusCISPointer points to the Card Information Structure for
	// devices that share silicon between CardBus and PCI.
	CardbusCISPointer uint32
	SubVendorID       uint16
	SubDeviceID       uint16
	ExpansionROM      ExpansionROM
	// MinGrant is the burst period length the device needs, in 1/4
	// microsecond units at 33 MHz.
	MinGrant uint8
	// MaxLatency is how often the device needs bus access, in 1/4
	// microsecond units.
	MaxLatency uint8
}

func (Normal) tag() uint8 { return TagNormal }

func decodeNormal(b []byte) Normal {
	var bars BaseAddressesNormal
	for i := range bars {
		bars[i] = buf.ReadU32(b, 0x10+i*4)
	}
	return Normal{
		BaseAddresses:     bars,
		CardbusCISPointer: buf.ReadU32(b, 0x28),
		SubVendorID:       buf.ReadU16(b, 0x2c),
		SubDeviceID:       buf.ReadU16(b, 0x2e),
		ExpansionROM:      decodeExpansionROM(buf.ReadU32(b, 0x30)),
		MinGrant:          b[0x3e],
		MaxLatency:        b[0x3f],
	}
}

// Reserved preserves a tail with an unknown header type tag.
type Reserved struct {
	Raw   uint8
	Bytes [TotalSize - CommonSize]byte
}

func (r Reserved) tag() uint8 { return r.Raw }

// BuiltInSelfTest is the decoded BIST register at offset 0x0F.
type BuiltInSelfTest struct {
	// Capable reports whether the device supports BIST.
	Capable bool
	// Running is set while BIST executes; system software should fail
	// the device if it does not clear within 2 seconds.
	Running bool
	// CompletionCode is 0 after a successful test.
	CompletionCode uint8
}

func decodeBIST(v uint8) BuiltInSelfTest {
	return BuiltInSelfTest{
		Capable:        v&0x80 != 0,
		Running:        v&0x40 != 0,
		CompletionCode: v & 0x0f,
	}
}

// ClassCode is the class/subclass/programming interface triple.
type ClassCode struct {
	Interface uint8
	Sub       uint8
	Base      uint8
}

// InterruptPin identifies which interrupt pin the device uses.
type InterruptPin uint8

const (
	PinUnused InterruptPin = 0x00
	PinIntA   InterruptPin = 0x01
	PinIntB   InterruptPin = 0x02
	PinIntC   InterruptPin = 0x03
	PinIntD   InterruptPin = 0x04
)

// Known reports whether the pin value is one of the defined encodings.
func (p InterruptPin) Known() bool { return p <= PinIntD }

// ExpansionROM is the decoded expansion ROM base address register.
type ExpansionROM struct {
	// Address is the 2 KiB aligned base address.
	Address uint32
	Enabled bool
}

func decodeExpansionROM(v uint32) ExpansionROM {
	return ExpansionROM{
		Address: v &^ 0x7ff,
		Enabled: v&1 != 0,
	}
}
