package caps

import (
	"errors"
	"io"
	"testing"

	"github.com/pcikit/pcikit/internal/buf"
)

// ddrLen is the full device dependent region size (0x40..0x100).
const ddrLen = End - Origin

// node writes a capability node header at the absolute offset.
func node(ddr []byte, at uint8, id ID, next uint8) []byte {
	body := ddr[int(at)-Origin:]
	body[0] = uint8(id)
	body[1] = next
	return body
}

// collect drains the iterator, failing the test on unexpected errors.
func collect(t *testing.T, it *Capabilities) []Capability {
	t.Helper()
	var out []Capability
	for {
		c, err := it.Next()
		if err == io.EOF {
			return out
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		out = append(out, c)
	}
}

func TestEmptyChain(t *testing.T) {
	it := New(make([]byte, ddrLen), 0)
	if _, err := it.Next(); err != io.EOF {
		t.Fatalf("Next on empty chain: %v", err)
	}
}

func TestChainDecoding(t *testing.T) {
	ddr := make([]byte, ddrLen)

	body := node(ddr, 0x40, IDPowerManagement, 0x50)
	buf.PutU16(body, 2, 0x0603) // version 3, D1/D2 support
	buf.PutU16(body, 4, 0x0100) // PME enabled

	body = node(ddr, 0x50, IDMSI, 0x68)
	buf.PutU16(body, 2, 0x0081) // enabled, 64-bit
	buf.PutU32(body, 4, 0xfee00000)
	buf.PutU32(body, 8, 0x1)
	buf.PutU16(body, 12, 0x4022)

	body = node(ddr, 0x68, IDBridgeSubsystemVendorID, 0x00)
	buf.PutU16(body, 4, 0x8086)
	buf.PutU16(body, 6, 0x2030)

	got := collect(t, New(ddr, 0x40))
	if len(got) != 3 {
		t.Fatalf("got %d capabilities, want 3", len(got))
	}

	pm, ok := got[0].Data.(PowerManagement)
	if !ok {
		t.Fatalf("node 0: %T", got[0].Data)
	}
	if got[0].Pointer != 0x40 || got[0].ID != IDPowerManagement {
		t.Fatalf("node 0: %+v", got[0])
	}
	if pm.Capabilities.Version() != 3 || !pm.Capabilities.D1Support() || !pm.Capabilities.D2Support() {
		t.Fatalf("pm capabilities: %#x", uint16(pm.Capabilities))
	}
	if !pm.ControlStatus.PMEEnable() || pm.ControlStatus.PowerState() != PowerStateD0 {
		t.Fatalf("pmcsr: %#x", uint16(pm.ControlStatus))
	}

	msi, ok := got[1].Data.(MSI)
	if !ok {
		t.Fatalf("node 1: %T", got[1].Data)
	}
	if !msi.Control.Enabled() || !msi.Control.Is64Bit() || msi.Control.PerVectorMasking() {
		t.Fatalf("msi control: %#x", uint16(msi.Control))
	}
	if msi.Address != 0x1fee00000 || msi.Data != 0x4022 {
		t.Fatalf("msi: address %#x data %#x", msi.Address, msi.Data)
	}

	ssvid, ok := got[2].Data.(BridgeSubsystemVendorID)
	if !ok {
		t.Fatalf("node 2: %T", got[2].Data)
	}
	if ssvid.SubsystemVendorID != 0x8086 || ssvid.SubsystemDeviceID != 0x2030 {
		t.Fatalf("ssvid: %04x:%04x", ssvid.SubsystemVendorID, ssvid.SubsystemDeviceID)
	}
}

func TestNextIdempotentAfterEOF(t *testing.T) {
	ddr := make([]byte, ddrLen)
	node(ddr, 0x40, IDNull, 0x00)

	it := New(ddr, 0x40)
	if c, err := it.Next(); err != nil || c.ID != IDNull {
		t.Fatalf("Next: %+v, %v", c, err)
	}
	for i := 0; i < 3; i++ {
		if _, err := it.Next(); err != io.EOF {
			t.Fatalf("Next after end (call %d): %v", i, err)
		}
	}
}

func TestPointerMasking(t *testing.T) {
	ddr := make([]byte, ddrLen)
	node(ddr, 0x40, IDNull, 0x53) // low bits must be ignored
	node(ddr, 0x50, IDNull, 0x00)

	got := collect(t, New(ddr, 0x42))
	if len(got) != 2 || got[0].Pointer != 0x40 || got[1].Pointer != 0x50 {
		t.Fatalf("chain: %+v", got)
	}
}

func TestCycleTerminates(t *testing.T) {
	ddr := make([]byte, ddrLen)
	node(ddr, 0x40, IDNull, 0x50)
	node(ddr, 0x50, IDNull, 0x40) // back edge

	got := collect(t, New(ddr, 0x40))
	if len(got) != 2 {
		t.Fatalf("got %d capabilities, want 2", len(got))
	}

	// Self loop.
	node(ddr, 0x60, IDNull, 0x60)
	got = collect(t, New(ddr, 0x60))
	if len(got) != 1 {
		t.Fatalf("self loop: got %d capabilities, want 1", len(got))
	}
}

func TestPointerBelowRegionStops(t *testing.T) {
	ddr := make([]byte, ddrLen)
	node(ddr, 0x40, IDNull, 0x10) // points into the header region

	got := collect(t, New(ddr, 0x40))
	if len(got) != 1 {
		t.Fatalf("got %d capabilities, want 1", len(got))
	}
}

func TestItemCountBounded(t *testing.T) {
	// Every byte a self-referential node: the visited guard caps the
	// walk well below any runaway bound.
	ddr := make([]byte, ddrLen)
	for i := range ddr {
		ddr[i] = uint8(Origin + i&^3)
	}
	it := New(ddr, 0x40)
	count := 0
	for {
		_, err := it.Next()
		if err == io.EOF {
			break
		}
		count++
		if count > ddrLen/2 {
			t.Fatalf("more than %d items from a %d byte region", ddrLen/2, ddrLen)
		}
	}
}

func TestTruncatedNodeContinues(t *testing.T) {
	ddr := make([]byte, ddrLen)
	// MSI control claims 64-bit + per-vector masking (24 bytes) but the
	// node sits 8 bytes from the end of the region.
	body := node(ddr, 0xf8, IDMSI, 0x40)
	buf.PutU16(body, 2, 0x0181)
	node(ddr, 0x40, IDNull, 0x00)

	it := New(ddr, 0xf8)
	c, err := it.Next()
	if !errors.Is(err, ErrTruncated) {
		t.Fatalf("Next on truncated node: %v", err)
	}
	if c.Pointer != 0xf8 || c.ID != IDMSI || c.Data != nil {
		t.Fatalf("truncated capability: %+v", c)
	}

	// The chain keeps going past the bad node.
	c, err = it.Next()
	if err != nil || c.ID != IDNull {
		t.Fatalf("Next after truncated node: %+v, %v", c, err)
	}
	if _, err := it.Next(); err != io.EOF {
		t.Fatalf("Next at end: %v", err)
	}
}

func TestNodeHeaderPastEnd(t *testing.T) {
	ddr := make([]byte, 0x20) // region cut short at 0x60
	node(ddr, 0x40, IDNull, 0x70)

	it := New(ddr, 0x40)
	if _, err := it.Next(); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if _, err := it.Next(); !errors.Is(err, ErrTruncated) {
		t.Fatalf("Next past end: %v", err)
	}
	if _, err := it.Next(); err != io.EOF {
		t.Fatalf("Next after truncated header: %v", err)
	}
}

func TestUnknownFallback(t *testing.T) {
	ddr := make([]byte, ddrLen)
	body := node(ddr, 0x40, ID(0x30), 0x50) // reserved, no decoder
	body[2], body[3] = 0xaa, 0xbb
	node(ddr, 0x50, IDNull, 0x00)

	got := collect(t, New(ddr, 0x40))
	if len(got) != 2 {
		t.Fatalf("got %d capabilities, want 2", len(got))
	}
	u, ok := got[0].Data.(Unknown)
	if !ok {
		t.Fatalf("node 0: %T", got[0].Data)
	}
	if u.ID != 0x30 {
		t.Fatalf("unknown id: %v", u.ID)
	}
	// Raw runs from the node to the next one.
	if len(u.Raw) != 0x10 || u.Raw[2] != 0xaa || u.Raw[3] != 0xbb {
		t.Fatalf("unknown raw: len %d", len(u.Raw))
	}
}

func TestMarkerKinds(t *testing.T) {
	// Assigned IDs without register decoders come back as their typed
	// markers, not as Unknown.
	ddr := make([]byte, ddrLen)
	node(ddr, 0x40, IDCompactPCIHotSwap, 0x44)
	node(ddr, 0x44, IDCompactPCIResourceCtl, 0x48)
	node(ddr, 0x48, IDHotPlug, 0x4c)
	node(ddr, 0x4c, IDAGP8x, 0x50)
	node(ddr, 0x50, IDSecureDevice, 0x54)
	node(ddr, 0x54, IDFlatteningPortalBridge, 0x00)

	got := collect(t, New(ddr, 0x40))
	if len(got) != 6 {
		t.Fatalf("got %d capabilities, want 6", len(got))
	}
	want := []Data{
		CompactPCIHotSwap{},
		CompactPCIResourceControl{},
		HotPlug{},
		AGP8x{},
		SecureDevice{},
		FlatteningPortalBridge{},
	}
	for i, c := range got {
		if c.Data != want[i] {
			t.Fatalf("node %d: %T, want %T", i, c.Data, want[i])
		}
		if c.Data.capabilityID() != c.ID {
			t.Fatalf("node %d: id %v, data id %v", i, c.ID, c.Data.capabilityID())
		}
	}
}

func TestOverlappingNodesDecode(t *testing.T) {
	// A 64-bit MSI needs 16 bytes but the next pointer is only 8 bytes
	// ahead. The decoder reads past it: node bytes run to the region
	// end, not to the next node.
	ddr := make([]byte, ddrLen)
	body := node(ddr, 0x40, IDMSI, 0x48)
	buf.PutU16(body, 2, 0x0081) // enabled, 64-bit
	buf.PutU32(body, 4, 0xfee00000)

	it := New(ddr, 0x40)
	c, err := it.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	msi, ok := c.Data.(MSI)
	if !ok {
		t.Fatalf("node 0: %T", c.Data)
	}
	if !msi.Control.Is64Bit() || msi.Address != 0xfee00000 {
		t.Fatalf("msi: control %#x address %#x", uint16(msi.Control), msi.Address)
	}

	// The node at 0x48 sits inside the MSI registers; its zero bytes
	// read as a Null terminator.
	c, err = it.Next()
	if err != nil || c.Pointer != 0x48 || c.ID != IDNull {
		t.Fatalf("overlapped node: %+v, %v", c, err)
	}
	if _, err := it.Next(); err != io.EOF {
		t.Fatalf("Next at end: %v", err)
	}
}

func TestVendorSpecificLength(t *testing.T) {
	ddr := make([]byte, ddrLen)
	body := node(ddr, 0x40, IDVendorSpecific, 0x00)
	body[2] = 6
	body[3], body[4], body[5] = 0xde, 0xad, 0x42

	got := collect(t, New(ddr, 0x40))
	if len(got) != 1 {
		t.Fatalf("got %d capabilities, want 1", len(got))
	}
	vs := got[0].Data.(VendorSpecific)
	if vs.Length != 6 || len(vs.Data) != 3 || vs.Data[0] != 0xde {
		t.Fatalf("vendor specific: %+v", vs)
	}
}

func TestPCIExpressOptionalBlocks(t *testing.T) {
	ddr := make([]byte, ddrLen)
	body := node(ddr, 0x40, IDPCIExpress, 0x00)
	buf.PutU16(body, 2, 0x0042)       // version 2, root port
	buf.PutU32(body, 0x04, 0x00008fc2) // device capabilities
	buf.PutU32(body, 0x0c, 0x0045ac41) // link capabilities
	buf.PutU16(body, 0x12, 0x1041)     // link status

	got := collect(t, New(ddr, 0x40))
	e := got[0].Data.(PCIExpress)
	if e.Version != 2 || e.DeviceType != DeviceTypeRootPort || e.SlotImplemented {
		t.Fatalf("express header: %+v", e)
	}
	if e.Device.Capabilities.MaxPayloadSizeSupported() != 512 {
		t.Fatalf("max payload: %d", e.Device.Capabilities.MaxPayloadSizeSupported())
	}
	if e.Link.Capabilities.MaxLinkSpeed() != 1 || e.Link.Capabilities.MaxLinkWidth() != 4 {
		t.Fatalf("link capabilities: %#x", uint32(e.Link.Capabilities))
	}
	if e.Link.Status.CurrentLinkSpeed() != 1 || e.Link.Status.NegotiatedLinkWidth() != 4 {
		t.Fatalf("link status: %#x", uint16(e.Link.Status))
	}
	// The region extends far enough for every optional block.
	if e.Slot == nil || e.Root == nil || e.Device2 == nil || e.Link2 == nil || e.Slot2 == nil {
		t.Fatalf("optional blocks: %+v", e)
	}

	// Anchored 8 bytes from the region end the required block cannot fit.
	node(ddr, 0xf8, IDPCIExpress, 0x00)
	it := New(ddr, 0xf8)
	if _, err := it.Next(); !errors.Is(err, ErrTruncated) {
		t.Fatalf("short express node: %v", err)
	}
}

func TestEnhancedAllocationEntries(t *testing.T) {
	ddr := make([]byte, ddrLen)
	body := node(ddr, 0x40, IDEnhancedAllocation, 0x00)
	buf.PutU16(body, 2, 1) // one entry
	// Entry: 2 dwords follow, BEI 3, enabled, writable.
	buf.PutU32(body, 4, 1<<31|1<<30|3<<4|2)
	buf.PutU32(body, 8, 0x91000000)  // base, 32-bit
	buf.PutU32(body, 12, 0x000ffffc) // max offset, 32-bit

	got := collect(t, New(ddr, 0x40))
	ea := got[0].Data.(EnhancedAllocation)
	if len(ea.Entries) != 1 {
		t.Fatalf("entries: %d", len(ea.Entries))
	}
	e := ea.Entries[0]
	if e.BAREquivalentIndicator != 3 || !e.Enabled || !e.Writable {
		t.Fatalf("entry: %+v", e)
	}
	if e.Base != 0x91000000 || e.MaxOffset != 0x000ffffc {
		t.Fatalf("range: base %#x max offset %#x", e.Base, e.MaxOffset)
	}
}

func TestIDString(t *testing.T) {
	if got := IDMSIX.String(); got != "MSI-X" {
		t.Fatalf("IDMSIX.String() = %q", got)
	}
	if got := ID(0x7f).String(); got != "Reserved(0x7f)" {
		t.Fatalf("ID(0x7f).String() = %q", got)
	}
}
