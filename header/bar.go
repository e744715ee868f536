package header

// Raw base address register arrays per header type. Values are kept
// exactly as read; Decode interprets them.
type (
	BaseAddressesNormal  [6]uint32
	BaseAddressesBridge  [2]uint32
	BaseAddressesCardbus [1]uint32
)

// BaseAddressKind discriminates decoded base address registers.
type BaseAddressKind uint8

const (
	// BaseAddressMem32 is a 32-bit memory region.
	BaseAddressMem32 BaseAddressKind = iota
	// BaseAddressMem1M is a memory region below 1 MiB (obsolete encoding 01b).
	BaseAddressMem1M
	// BaseAddressMem64 is a 64-bit memory region spanning two registers.
	BaseAddressMem64
	// BaseAddressIO is an I/O region.
	BaseAddressIO
	// BaseAddressReserved covers the reserved memory type encoding 11b.
	BaseAddressReserved
)

// BaseAddress is one decoded base address register. A 64-bit entry
// consumes two consecutive raw registers.
type BaseAddress struct {
	// Region is the index of the first raw register backing this entry.
	Region int
	Kind   BaseAddressKind
	// Address has the encoding bits masked off.
	Address uint64
	// Prefetchable is meaningful for memory regions only.
	Prefetchable bool
}

// Decode interprets the raw registers, pairing 64-bit entries. Zero
// registers are skipped: an all-zero BAR is unimplemented.
func (r BaseAddressesNormal) Decode() []BaseAddress { return decodeBaseAddresses(r[:]) }

// Decode interprets the raw registers, pairing 64-bit entries.
func (r BaseAddressesBridge) Decode() []BaseAddress { return decodeBaseAddresses(r[:]) }

// Decode interprets the socket/ExCA base register.
func (r BaseAddressesCardbus) Decode() []BaseAddress { return decodeBaseAddresses(r[:]) }

func decodeBaseAddresses(raw []uint32) []BaseAddress {
	var out []BaseAddress
	for i := 0; i < len(raw); i++ {
		v := raw[i]
		if v == 0 {
			continue
		}
		if v&1 != 0 {
			out = append(out, BaseAddress{
				Region:  i,
				Kind:    BaseAddressIO,
				Address: uint64(v &^ 0b11),
			})
			continue
		}
		ba := BaseAddress{
			Region:       i,
			Address:      uint64(v &^ 0b1111),
			Prefetchable: v&(1<<3) != 0,
		}
		switch v >> 1 & 0b11 {
		case 0b00:
			ba.Kind = BaseAddressMem32
		case 0b01:
			ba.Kind = BaseAddressMem1M
		case 0b10:
			ba.Kind = BaseAddressMem64
			if i+1 < len(raw) {
				ba.Address |= uint64(raw[i+1]) << 32
				i++ // upper half consumed
			}
		case 0b11:
			ba.Kind = BaseAddressReserved
		}
		out = append(out, ba)
	}
	return out
}
