// Package caps walks the conventional capability list that threads
// through the device dependent region of PCI configuration space.
//
// Each node carries a one-byte capability ID and a one-byte pointer to
// the next node, both expressed as absolute configuration space
// offsets. Traversal is pull-based: New anchors the walk at the
// pointer taken from the header, and Next decodes one node per call
// until the chain ends. Decoding never writes to the input and keeps
// no references beyond subslices of it.
package caps

import (
	"errors"
	"fmt"
	"io"

	"github.com/pcikit/pcikit/internal/buf"
)

// ErrTruncated marks a capability whose registers extend past the end
// of the available bytes. The iterator reports it per node and keeps
// walking; callers that only want well-formed nodes can skip on it.
var ErrTruncated = errors.New("caps: capability truncated")

const (
	// Origin is the absolute configuration space offset where the
	// device dependent region starts. Node pointers below it (other
	// than the terminating zero) end the walk.
	Origin = 0x40
	// End is the absolute offset just past the device dependent region.
	End = 0x100
)

// Capability is one decoded node of the list.
type Capability struct {
	// Pointer is the absolute configuration space offset of the node.
	Pointer uint8
	ID      ID
	// Data is the typed register block, or Unknown when no decoder is
	// registered for the ID. It is nil when Next reports ErrTruncated.
	Data Data
}

// Data is implemented by every decoded register block in this package.
type Data interface {
	capabilityID() ID
}

// Unknown preserves the raw bytes of a capability this package has no
// decoder for. Raw starts at the node's ID byte and runs to the next
// node when the chain moves forward, otherwise to the end of the region.
type Unknown struct {
	ID  ID
	Raw []byte
}

func (u Unknown) capabilityID() ID { return u.ID }

// Capabilities iterates the capability list. The zero value is an
// exhausted iterator; use New.
type Capabilities struct {
	ddr  []byte
	next uint16
	done bool
	// One slot per dword-aligned offset; pointers are masked before use.
	visited [End / 4]bool
}

// New anchors an iterator on the device dependent region slice (the
// bytes from absolute offset 0x40 up to at most 0x100) and the
// capabilities pointer from the header. The low two bits of every
// pointer are reserved and ignored.
func New(ddr []byte, pointer uint8) *Capabilities {
	return &Capabilities{ddr: ddr, next: uint16(pointer &^ 0b11)}
}

// Next decodes and returns the next capability. It returns io.EOF once
// the chain is exhausted and on every call after that. A node whose
// registers run past the available bytes is reported with an error
// wrapping ErrTruncated; traversal continues on the following call
// when the node header itself was readable. A pointer whose node
// header lies past the end of the region is likewise reported as one
// ErrTruncated item, after which the walk ends. A pointer that revisits
// a node or lands below the region (other than the terminating zero)
// ends the walk silently with io.EOF.
func (it *Capabilities) Next() (Capability, error) {
	if it.done {
		return Capability{}, io.EOF
	}
	ptr := it.next
	if ptr < Origin || it.visited[ptr/4] {
		// Zero terminates cleanly; anything else below the device
		// dependent region, or a revisit, is a malformed chain and
		// ends the walk the same way.
		it.done = true
		return Capability{}, io.EOF
	}
	it.visited[ptr/4] = true

	off := int(ptr) - Origin
	if !buf.Has(it.ddr, off, 2) {
		it.done = true
		return Capability{Pointer: uint8(ptr)},
			fmt.Errorf("%w: node header at %#02x past end of region", ErrTruncated, ptr)
	}
	id := ID(it.ddr[off])
	it.next = uint16(it.ddr[off+1]) &^ 0b11

	// A decoder sees everything from the node to the region end and
	// decides how much it consumes; nodes may legally overlap.
	c := Capability{Pointer: uint8(ptr), ID: id}
	data, err := decode(id, it.ddr[off:])
	if err != nil {
		return c, fmt.Errorf("%w: %s at %#02x: %v", ErrTruncated, id, ptr, err)
	}
	if data == nil {
		data = Unknown{ID: id, Raw: it.unknownExtent(off)}
	}
	c.Data = data
	return c, nil
}

// unknownExtent bounds the raw bytes of an undecoded node: up to the
// next node when the chain moves forward, else the rest of the region.
func (it *Capabilities) unknownExtent(off int) []byte {
	if next := int(it.next) - Origin; next > off && next <= len(it.ddr) {
		return it.ddr[off:next]
	}
	return it.ddr[off:]
}
