package caps

import "github.com/pcikit/pcikit/internal/buf"

// EnhancedAllocation is the enhanced allocation capability (ID 14h):
// fixed resource ranges for devices that do not implement relocatable
// base address registers. Entries are decoded with the type 00h
// layout; the extra bus number dword of the bridge form is not
// interpreted here.
type EnhancedAllocation struct {
	Entries []EnhancedAllocationEntry
}

func (EnhancedAllocation) capabilityID() ID { return IDEnhancedAllocation }

// EnhancedAllocationEntry is one allocated range.
type EnhancedAllocationEntry struct {
	// BAREquivalentIndicator names the BAR this entry stands in for.
	BAREquivalentIndicator uint8
	PrimaryProperties      uint8
	SecondaryProperties    uint8
	Writable               bool
	Enabled                bool
	// Base and MaxOffset describe the range [Base, Base+MaxOffset].
	// Either field may carry a 64-bit value.
	Base      uint64
	MaxOffset uint64
}

func decodeEnhancedAllocation(b []byte) (Data, error) {
	if err := need(b, 4); err != nil {
		return nil, err
	}
	count := int(buf.ReadU16(b, 2) & 0b111111)
	ea := EnhancedAllocation{}
	at := 4
	for i := 0; i < count; i++ {
		if err := need(b, at+4); err != nil {
			return nil, err
		}
		hdr := buf.ReadU32(b, at)
		size := int(hdr&0b111) * 4
		if err := need(b, at+4+size); err != nil {
			return nil, err
		}
		body := b[at+4 : at+4+size]
		at += 4 + size

		e := EnhancedAllocationEntry{
			BAREquivalentIndicator: uint8(hdr >> 4 & 0b1111),
			PrimaryProperties:      uint8(hdr >> 8),
			SecondaryProperties:    uint8(hdr >> 16),
			Writable:               hdr&(1<<30) != 0,
			Enabled:                hdr&(1<<31) != 0,
		}
		// Base then max offset, each one or two dwords depending on
		// its own 64-bit flag (bit 1 of the low dword).
		off := 0
		e.Base, off = readEAField(body, off)
		e.MaxOffset, _ = readEAField(body, off)
		ea.Entries = append(ea.Entries, e)
	}
	return ea, nil
}

func readEAField(body []byte, off int) (uint64, int) {
	if !buf.Has(body, off, 4) {
		return 0, off
	}
	low := buf.ReadU32(body, off)
	v := uint64(low &^ 0b11)
	off += 4
	if low&(1<<1) != 0 && buf.Has(body, off, 4) {
		v |= uint64(buf.ReadU32(body, off)) << 32
		off += 4
	}
	return v, off
}
