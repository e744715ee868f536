// Package extcaps walks the extended capability list occupying the
// PCI Express extended configuration space.
//
// Extended capability nodes start with a single dword packing a
// 16-bit ID, a 4-bit version and a 12-bit pointer to the next node.
// The list is anchored at absolute offset 0x100; an all-zero dword
// there means the device implements no extended capabilities. As in
// package caps, traversal is pull-based and never writes to the input.
package extcaps

import (
	"errors"
	"fmt"
	"io"

	"github.com/pcikit/pcikit/internal/buf"
)

// ErrTruncated marks a capability whose registers extend past the end
// of the available bytes.
var ErrTruncated = errors.New("extcaps: capability truncated")

const (
	// Origin is the absolute configuration space offset where extended
	// configuration space starts.
	Origin = 0x100
	// End is the absolute offset just past extended configuration space.
	End = 0x1000
)

// Capability is one decoded node of the list.
type Capability struct {
	// Pointer is the absolute configuration space offset of the node.
	Pointer uint16
	ID      ID
	Version uint8
	// Data is the typed register block, or Unknown when no decoder is
	// registered for the ID. It is nil when Next reports ErrTruncated.
	Data Data
}

// Data is implemented by every decoded register block in this package.
type Data interface {
	extendedCapabilityID() ID
}

// Unknown preserves the raw bytes of a capability this package has no
// decoder for. Raw starts at the node's header dword and runs to the
// next node when the chain moves forward, otherwise to the end of the
// region.
type Unknown struct {
	ID  ID
	Raw []byte
}

func (u Unknown) extendedCapabilityID() ID { return u.ID }

// ExtendedCapabilities iterates the extended capability list. The zero
// value is an exhausted iterator; use New.
type ExtendedCapabilities struct {
	ecs  []byte
	next uint16
	done bool
	// One slot per dword-aligned offset; pointers are masked before use.
	visited [(End - Origin) / 4]bool
}

// New anchors an iterator on the extended configuration space slice
// (the bytes from absolute offset 0x100 up to at most 0x1000). A nil
// or empty slice yields an exhausted iterator.
func New(ecs []byte) *ExtendedCapabilities {
	return &ExtendedCapabilities{ecs: ecs, next: Origin}
}

// Next decodes and returns the next extended capability. It returns
// io.EOF once the chain is exhausted and on every call after that. A
// node whose registers run past the available bytes is reported with
// an error wrapping ErrTruncated; traversal continues on the following
// call when the node header itself was readable. A pointer whose node
// header lies past the end of the region is likewise reported as one
// ErrTruncated item, after which the walk ends (except at the anchor,
// where an unreadable or all-zero header means the device implements
// no extended capabilities). A pointer that revisits a node or lands
// below the region ends the walk silently with io.EOF.
func (it *ExtendedCapabilities) Next() (Capability, error) {
	if it.done {
		return Capability{}, io.EOF
	}
	ptr := it.next
	if ptr < Origin || it.visited[(ptr-Origin)/4] {
		it.done = true
		return Capability{}, io.EOF
	}
	it.visited[(ptr-Origin)/4] = true

	off := int(ptr) - Origin
	if !buf.Has(it.ecs, off, 4) {
		it.done = true
		if ptr == Origin {
			// No extended configuration space at all.
			return Capability{}, io.EOF
		}
		return Capability{Pointer: ptr},
			fmt.Errorf("%w: node header at %#03x past end of region", ErrTruncated, ptr)
	}
	hdr := buf.ReadU32(it.ecs, off)
	if hdr == 0 && ptr == Origin {
		// The absence marker: a device without extended capabilities
		// reads as zeros at the anchor.
		it.done = true
		return Capability{}, io.EOF
	}
	id := ID(hdr & 0xffff)
	version := uint8(hdr >> 16 & 0b1111)
	it.next = uint16(hdr>>20) &^ 0b11

	// A decoder sees everything from the node to the region end and
	// decides how much it consumes; nodes may legally overlap.
	c := Capability{Pointer: ptr, ID: id, Version: version}
	data, err := decode(id, it.ecs[off:])
	if err != nil {
		return c, fmt.Errorf("%w: %s at %#03x: %v", ErrTruncated, id, ptr, err)
	}
	if data == nil {
		data = Unknown{ID: id, Raw: it.unknownExtent(off)}
	}
	c.Data = data
	return c, nil
}

// unknownExtent bounds the raw bytes of an undecoded node: up to the
// next node when the chain moves forward, else the rest of the region.
func (it *ExtendedCapabilities) unknownExtent(off int) []byte {
	if next := int(it.next) - Origin; next > off && next <= len(it.ecs) {
		return it.ecs[off:next]
	}
	return it.ecs[off:]
}
