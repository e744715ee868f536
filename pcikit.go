package pcikit

import (
	"github.com/pcikit/pcikit/caps"
	"github.com/pcikit/pcikit/extcaps"
	"github.com/pcikit/pcikit/header"
)

// Configuration space region boundaries, as absolute byte offsets.
const (
	// HeaderSize is the predefined header region.
	HeaderSize = header.TotalSize
	// ConventionalSize is a full conventional configuration space.
	ConventionalSize = caps.End
	// ExtendedSize is a full PCI Express configuration space.
	ExtendedSize = extcaps.End
)

// ConfigSpace is one function's configuration space snapshot. It keeps
// a reference to the caller's bytes and never mutates them; a
// ConfigSpace is safe for concurrent readers.
type ConfigSpace struct {
	data   []byte
	header header.Header
}

// New wraps a configuration space dump. The slice must hold at least
// the 64-byte predefined header; anything shorter returns an error
// wrapping header.ErrTooShort. Longer dumps unlock the capability
// regions: bytes past 0x40 feed the conventional capability list and
// bytes past 0x100 the extended one.
//
// Example:
//
//	data, _ := os.ReadFile("/sys/bus/pci/devices/0000:00:1f.2/config")
//	cs, err := pcikit.New(data)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	h := cs.Header()
//	fmt.Printf("%04x:%04x\n", h.VendorID, h.DeviceID)
func New(data []byte) (*ConfigSpace, error) {
	h, err := header.Decode(data)
	if err != nil {
		return nil, err
	}
	cs := &ConfigSpace{data: data, header: h}
	if cardbus, ok := h.Tail.(header.Cardbus); ok {
		// CardBus bridges keep their subsystem registers just past the
		// predefined header.
		if cardbus.SetOptionalRegisters(cs.deviceDependent()) == nil {
			cs.header.Tail = cardbus
		}
	}
	return cs, nil
}

// Header returns the decoded predefined header.
func (cs *ConfigSpace) Header() header.Header { return cs.header }

// Capabilities returns a fresh iterator over the conventional
// capability list. The walk is empty when the header advertises no
// list or the dump ends at the header.
func (cs *ConfigSpace) Capabilities() *caps.Capabilities {
	return caps.New(cs.deviceDependent(), cs.header.CapabilitiesPointer)
}

// ExtendedCapabilities returns a fresh iterator over the extended
// capability list. The walk is empty when the dump does not reach
// extended configuration space.
func (cs *ConfigSpace) ExtendedCapabilities() *extcaps.ExtendedCapabilities {
	return extcaps.New(cs.extended())
}

// HasExtendedSpace reports whether the dump reaches past the
// conventional configuration space boundary.
func (cs *ConfigSpace) HasExtendedSpace() bool {
	return len(cs.data) > ConventionalSize
}

// Len returns the dump size in bytes.
func (cs *ConfigSpace) Len() int { return len(cs.data) }

// deviceDependent returns the [0x40, 0x100) slice, clamped to the dump.
func (cs *ConfigSpace) deviceDependent() []byte {
	if len(cs.data) <= caps.Origin {
		return nil
	}
	if len(cs.data) > caps.End {
		return cs.data[caps.Origin:caps.End]
	}
	return cs.data[caps.Origin:]
}

// extended returns the [0x100, 0x1000) slice, clamped to the dump.
func (cs *ConfigSpace) extended() []byte {
	if len(cs.data) <= extcaps.Origin {
		return nil
	}
	if len(cs.data) > extcaps.End {
		return cs.data[extcaps.Origin:extcaps.End]
	}
	return cs.data[extcaps.Origin:]
}
