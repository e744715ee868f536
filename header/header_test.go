package header

import (
	"errors"
	"testing"
)

// Intel Q170 chipset SATA controller (8086:a102), type 00h.
var normalSample = [TotalSize]byte{
	0x86, 0x80, 0x02, 0xa1, 0x47, 0x05, 0xb0, 0x02, 0x31, 0x01, 0x06, 0x01, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x40, 0x01, 0x93, 0x00, 0x70, 0x01, 0x93, 0x41, 0x30, 0x00, 0x00, 0x49, 0x30, 0x00, 0x00,
	0x21, 0x30, 0x00, 0x00, 0x00, 0x60, 0x01, 0x93, 0x00, 0x00, 0x00, 0x00, 0x28, 0x10, 0xa5, 0x06,
	0x00, 0x00, 0x00, 0x00, 0x80, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x0b, 0x01, 0x00, 0x00,
}

func TestDecodeTooShort(t *testing.T) {
	for _, n := range []int{0, 1, 0x3f} {
		if _, err := Decode(make([]byte, n)); !errors.Is(err, ErrTooShort) {
			t.Fatalf("Decode(%d bytes) err = %v, want ErrTooShort", n, err)
		}
	}
}

func TestDecodeAllZero(t *testing.T) {
	h, err := Decode(make([]byte, TotalSize))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if h.VendorID != 0 || h.DeviceID != 0 {
		t.Fatalf("zero header ids: %04x:%04x", h.VendorID, h.DeviceID)
	}
	if _, ok := h.Tail.(Normal); !ok {
		t.Fatalf("zero header tail: %T", h.Tail)
	}
}

func TestDecodeNormal(t *testing.T) {
	h, err := Decode(normalSample[:])
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if h.VendorID != 0x8086 || h.DeviceID != 0xa102 {
		t.Fatalf("ids: %04x:%04x", h.VendorID, h.DeviceID)
	}
	if h.RevisionID != 0x31 {
		t.Fatalf("revision: %#x", h.RevisionID)
	}
	if h.ClassCode != (ClassCode{Interface: 0x01, Sub: 0x06, Base: 0x01}) {
		t.Fatalf("class code: %+v", h.ClassCode)
	}
	if !h.Command.IOSpace() || !h.Command.MemorySpace() || !h.Command.BusMaster() {
		t.Fatalf("command: %#x", uint16(h.Command))
	}
	if !h.Status.CapabilitiesList() {
		t.Fatalf("status: %#x", uint16(h.Status))
	}
	if h.CapabilitiesPointer != 0x80 {
		t.Fatalf("cap pointer: %#x", h.CapabilitiesPointer)
	}
	if h.MultiFunction {
		t.Fatal("multi function")
	}
	if h.InterruptLine != 0x0b || h.InterruptPin != PinIntA {
		t.Fatalf("interrupt: line %#x pin %d", h.InterruptLine, h.InterruptPin)
	}

	tail, ok := h.Tail.(Normal)
	if !ok {
		t.Fatalf("tail: %T", h.Tail)
	}
	want := BaseAddressesNormal{0x93014000, 0x93017000, 0x3041, 0x3049, 0x3021, 0x93016000}
	if tail.BaseAddresses != want {
		t.Fatalf("base addresses: %#x", tail.BaseAddresses)
	}
	if tail.SubVendorID != 0x1028 || tail.SubDeviceID != 0x06a5 {
		t.Fatalf("subsystem: %04x:%04x", tail.SubVendorID, tail.SubDeviceID)
	}
}

func TestDecodeBridge(t *testing.T) {
	// Renesas SH7758 PCIe switch upstream port (1912:001d), type 01h.
	data := [TotalSize]byte{
		0x12, 0x19, 0x1d, 0x00, 0x07, 0x00, 0x10, 0x00, 0x00, 0x00, 0x04, 0x06, 0x00, 0x00, 0x01, 0x80,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x04, 0x05, 0x08, 0x00, 0xf1, 0x01, 0x00, 0x00,
		0x00, 0x92, 0x90, 0x92, 0x01, 0x91, 0xf1, 0x91, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x40, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0xff, 0x00, 0x1b, 0x00,
	}
	h, err := Decode(data[:])
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !h.BIST.Capable || h.BIST.Running || h.BIST.CompletionCode != 0 {
		t.Fatalf("bist: %+v", h.BIST)
	}
	if h.CapabilitiesPointer != 0x40 {
		t.Fatalf("cap pointer: %#x", h.CapabilitiesPointer)
	}
	if h.InterruptLine != 0xff || h.InterruptPin != PinUnused {
		t.Fatalf("interrupt: line %#x pin %d", h.InterruptLine, h.InterruptPin)
	}

	tail, ok := h.Tail.(Bridge)
	if !ok {
		t.Fatalf("tail: %T", h.Tail)
	}
	if tail.PrimaryBusNumber != 0x04 || tail.SecondaryBusNumber != 0x05 || tail.SubordinateBusNumber != 0x08 {
		t.Fatalf("bus numbers: %+v", tail)
	}
	if tail.IOWindow.Kind != WindowAddr32 || tail.IOWindow.Base != 0xf000 || tail.IOWindow.Limit != 0 {
		t.Fatalf("io window: %+v", tail.IOWindow)
	}
	if tail.MemoryBase != 0x9200 || tail.MemoryLimit != 0x9290 {
		t.Fatalf("memory window: %#x-%#x", tail.MemoryBase, tail.MemoryLimit)
	}
	pf := tail.PrefetchableMemory
	if pf.Kind != WindowAddr64 || pf.Base != 0x91000000 || pf.Limit != 0x91f00000 {
		t.Fatalf("prefetchable window: %+v", pf)
	}
	bc := tail.BridgeControl
	if !bc.ParityErrorResponse() || !bc.SERREnable() || !bc.VGAEnable() || !bc.VGA16Bit() || bc.ISAEnable() {
		t.Fatalf("bridge control: %#x", uint16(bc))
	}
}

func TestDecodeCardbus(t *testing.T) {
	data := [TotalSize]byte{
		0x8e, 0xdf, 0xee, 0x05, 0xb4, 0x00, 0x78, 0x4b, 0x37, 0x00, 0x07, 0x06, 0xf2, 0x29, 0x82, 0x00,
		0x00, 0x80, 0xf8, 0x35, 0x80, 0x00, 0x00, 0x00, 0x6d, 0xba, 0xfe, 0xfc, 0x00, 0x40, 0xf5, 0x11,
		0x00, 0x50, 0x47, 0x22, 0x00, 0x30, 0x85, 0x33, 0x00, 0xc0, 0xd0, 0x44, 0x60, 0x00, 0x00, 0x00,
		0x70, 0x00, 0x00, 0x00, 0x61, 0x00, 0x06, 0x00, 0x70, 0x00, 0x07, 0x00, 0x06, 0x1a, 0x45, 0x05,
	}
	h, err := Decode(data[:])
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if h.CapabilitiesPointer != 0x80 {
		t.Fatalf("cap pointer: %#x", h.CapabilitiesPointer)
	}
	if !h.MultiFunction {
		t.Fatal("multi function")
	}
	if h.InterruptPin.Known() {
		t.Fatalf("pin %#x should be an unknown encoding", uint8(h.InterruptPin))
	}

	tail, ok := h.Tail.(Cardbus)
	if !ok {
		t.Fatalf("tail: %T", h.Tail)
	}
	if tail.BaseAddresses[0] != 0x35f88000 {
		t.Fatalf("socket base: %#x", tail.BaseAddresses[0])
	}
	if tail.PCIBusNumber != 0x6d || tail.CardbusBusNumber != 0xba || tail.SubordinateBusNumber != 0xfe {
		t.Fatalf("bus numbers: %+v", tail)
	}
	if tail.MemoryBase0 != 0x11f54000 || tail.MemoryLimit0 != 0x22475000 {
		t.Fatalf("memory window 0: %#x-%#x", tail.MemoryBase0, tail.MemoryLimit0)
	}
	if tail.IOWindow0.Kind != WindowAddr16 || tail.IOWindow0.Base != 0x60 || tail.IOWindow0.Limit != 0x70 {
		t.Fatalf("io window 0: %+v", tail.IOWindow0)
	}
	if tail.IOWindow1.Kind != WindowAddr32 || tail.IOWindow1.Base != 0x00060060 || tail.IOWindow1.Limit != 0x00070070 {
		t.Fatalf("io window 1: %+v", tail.IOWindow1)
	}

	// Optional registers live at the start of the device dependent region.
	ddr := []byte{0x22, 0x33, 0x44, 0x55, 0x22, 0x33, 0x00, 0x00}
	if err := tail.SetOptionalRegisters(ddr); err != nil {
		t.Fatalf("SetOptionalRegisters: %v", err)
	}
	if tail.SubsystemVendorID != 0x3322 || tail.SubsystemDeviceID != 0x5544 {
		t.Fatalf("subsystem: %04x:%04x", tail.SubsystemVendorID, tail.SubsystemDeviceID)
	}
	if tail.LegacyModeBaseAddress != 0x3322 {
		t.Fatalf("legacy base: %#x", tail.LegacyModeBaseAddress)
	}

	if err := tail.SetOptionalRegisters(ddr[:4]); !errors.Is(err, ErrTooShort) {
		t.Fatalf("short optional registers err = %v", err)
	}
}

func TestDecodeReservedTag(t *testing.T) {
	data := normalSample
	data[0x0e] = 0x83 // unknown tag 0x03, multi-function set
	h, err := Decode(data[:])
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !h.MultiFunction {
		t.Fatal("multi function")
	}
	tail, ok := h.Tail.(Reserved)
	if !ok {
		t.Fatalf("tail: %T", h.Tail)
	}
	if tail.Raw != 0x03 {
		t.Fatalf("raw tag: %#x", tail.Raw)
	}
	if tail.Bytes[0] != data[CommonSize] {
		t.Fatal("raw tail bytes not preserved")
	}
	if h.CapabilitiesPointer != 0 {
		t.Fatalf("cap pointer for reserved tail: %#x", h.CapabilitiesPointer)
	}
}

func TestBaseAddressDecode(t *testing.T) {
	tests := []struct {
		name string
		raw  BaseAddressesNormal
		want []BaseAddress
	}{
		{
			name: "io and mem32",
			raw:  BaseAddressesNormal{0x93014000, 0x3041, 0, 0, 0, 0},
			want: []BaseAddress{
				{Region: 0, Kind: BaseAddressMem32, Address: 0x93014000},
				{Region: 1, Kind: BaseAddressIO, Address: 0x3040},
			},
		},
		{
			name: "mem64 pair",
			raw:  BaseAddressesNormal{0xfc00000c, 0x00000001, 0, 0, 0, 0},
			want: []BaseAddress{
				{Region: 0, Kind: BaseAddressMem64, Address: 0x1fc000000, Prefetchable: true},
			},
		},
		{
			name: "all unimplemented",
			raw:  BaseAddressesNormal{},
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.raw.Decode()
			if len(got) != len(tt.want) {
				t.Fatalf("got %d entries, want %d: %+v", len(got), len(tt.want), got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("entry %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}
