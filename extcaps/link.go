package extcaps

import "github.com/pcikit/pcikit/internal/buf"

// VirtualChannel is the virtual channel extended capability (IDs 0002h
// and 0009h; the latter form coexists with an MFVC capability).
type VirtualChannel struct {
	id ID

	PortCapabilities1 uint32
	PortCapabilities2 uint32
	PortControl       uint16
	PortStatus        uint16
	// Resources holds one register block per VC resource, the lowest
	// numbered first.
	Resources []VCResource
}

func (vc VirtualChannel) extendedCapabilityID() ID { return vc.id }

// VCResource is one VC resource capability/control/status block.
type VCResource struct {
	Capabilities uint32
	Control      uint32
	Status       uint16
}

func decodeVirtualChannel(id ID, b []byte) (Data, error) {
	if err := need(b, 0x10); err != nil {
		return nil, err
	}
	vc := VirtualChannel{
		id:                id,
		PortCapabilities1: buf.ReadU32(b, 0x04),
		PortCapabilities2: buf.ReadU32(b, 0x08),
		PortControl:       buf.ReadU16(b, 0x0c),
		PortStatus:        buf.ReadU16(b, 0x0e),
	}
	count := int(vc.PortCapabilities1&0b111) + 1
	if err := need(b, 0x10+count*0x0c); err != nil {
		return nil, err
	}
	for i := 0; i < count; i++ {
		at := 0x10 + i*0x0c
		vc.Resources = append(vc.Resources, VCResource{
			Capabilities: buf.ReadU32(b, at),
			Control:      buf.ReadU32(b, at+4),
			Status:       buf.ReadU16(b, at+10),
		})
	}
	return vc, nil
}

// Multicast is the multicast extended capability (ID 0012h).
type Multicast struct {
	Capabilities      MulticastCapabilities
	Control           uint16
	BaseAddress       uint64
	ReceiveMask       uint64
	BlockAll          uint64
	BlockUntranslated uint64
	OverlayBAR        uint64
}

func (Multicast) extendedCapabilityID() ID { return IDMulticast }

func decodeMulticast(b []byte) (Data, error) {
	if err := need(b, 0x30); err != nil {
		return nil, err
	}
	return Multicast{
		Capabilities:      MulticastCapabilities(buf.ReadU16(b, 0x04)),
		Control:           buf.ReadU16(b, 0x06),
		BaseAddress:       buf.ReadU64(b, 0x08),
		ReceiveMask:       buf.ReadU64(b, 0x10),
		BlockAll:          buf.ReadU64(b, 0x18),
		BlockUntranslated: buf.ReadU64(b, 0x20),
		OverlayBAR:        buf.ReadU64(b, 0x28),
	}, nil
}

// MulticastCapabilities is the multicast capability register.
type MulticastCapabilities uint16

// MaxGroup returns the highest supported multicast group number.
func (c MulticastCapabilities) MaxGroup() uint8 { return uint8(c & 0b111111) }

// WindowSizeRequested returns the requested overlay window size exponent.
func (c MulticastCapabilities) WindowSizeRequested() uint8 { return uint8(c >> 8 & 0b111111) }

// ECRCRegeneration reports multicast ECRC regeneration support.
func (c MulticastCapabilities) ECRCRegeneration() bool { return c&(1<<15) != 0 }

// ResizableBAR is the resizable BAR extended capability (ID 0015h).
type ResizableBAR struct {
	// BARs holds one capability/control pair per resizable BAR.
	BARs []ResizableBAREntry
}

func (ResizableBAR) extendedCapabilityID() ID { return IDResizableBAR }

// ResizableBAREntry is one resizable BAR register pair.
type ResizableBAREntry struct {
	// Capabilities is a bit mask of supported sizes starting at 1 MiB
	// in bit 4.
	Capabilities uint32
	Control      ResizableBARControl
}

func decodeResizableBAR(b []byte) (Data, error) {
	if err := need(b, 0x0c); err != nil {
		return nil, err
	}
	first := ResizableBAREntry{
		Capabilities: buf.ReadU32(b, 4),
		Control:      ResizableBARControl(buf.ReadU32(b, 8)),
	}
	count := first.Control.NumberOfBARs()
	if count == 0 {
		count = 1
	}
	if err := need(b, 4+count*8); err != nil {
		return nil, err
	}
	r := ResizableBAR{BARs: []ResizableBAREntry{first}}
	for i := 1; i < count; i++ {
		at := 4 + i*8
		r.BARs = append(r.BARs, ResizableBAREntry{
			Capabilities: buf.ReadU32(b, at),
			Control:      ResizableBARControl(buf.ReadU32(b, at+4)),
		})
	}
	return r, nil
}

// ResizableBARControl is one resizable BAR control register.
type ResizableBARControl uint32

// BARIndex returns the BAR this register pair describes.
func (c ResizableBARControl) BARIndex() uint8 { return uint8(c & 0b111) }

// NumberOfBARs returns the number of resizable BARs; it is valid only
// in the first control register of the capability.
func (c ResizableBARControl) NumberOfBARs() int { return int(c >> 5 & 0b111) }

// Size returns the current BAR size in bytes.
func (c ResizableBARControl) Size() uint64 { return 1 << 20 << (c >> 8 & 0b111111) }

// TPHRequester is the TPH requester extended capability (ID 0017h).
type TPHRequester struct {
	Capabilities TPHCapabilities
	Control      uint32
	// STTable holds the steering tag table when it lives inside the
	// capability; it is empty for the MSI-X table location.
	STTable []uint16
}

func (TPHRequester) extendedCapabilityID() ID { return IDTPHRequester }

func decodeTPHRequester(b []byte) (Data, error) {
	if err := need(b, 0x0c); err != nil {
		return nil, err
	}
	t := TPHRequester{
		Capabilities: TPHCapabilities(buf.ReadU32(b, 4)),
		Control:      buf.ReadU32(b, 8),
	}
	if t.Capabilities.STTableLocation() == 1 {
		entries := t.Capabilities.STTableSize()
		if err := need(b, 0x0c+entries*2); err != nil {
			return nil, err
		}
		for i := 0; i < entries; i++ {
			t.STTable = append(t.STTable, buf.ReadU16(b, 0x0c+i*2))
		}
	}
	return t, nil
}

// TPHCapabilities is the TPH requester capability register.
type TPHCapabilities uint32

// NoSTMode reports no ST mode support.
func (c TPHCapabilities) NoSTMode() bool { return c&(1<<0) != 0 }

// InterruptVectorMode reports interrupt vector mode support.
func (c TPHCapabilities) InterruptVectorMode() bool { return c&(1<<1) != 0 }

// DeviceSpecificMode reports device specific mode support.
func (c TPHCapabilities) DeviceSpecificMode() bool { return c&(1<<2) != 0 }

// ExtendedTPH reports extended TPH requester support.
func (c TPHCapabilities) ExtendedTPH() bool { return c&(1<<8) != 0 }

// STTableLocation returns where the steering tag table lives (0 none,
// 1 in the capability, 2 in the MSI-X table).
func (c TPHCapabilities) STTableLocation() uint8 { return uint8(c >> 9 & 0b11) }

// STTableSize returns the number of steering tag table entries.
func (c TPHCapabilities) STTableSize() int { return int(c>>16&0x7ff) + 1 }

// SecondaryPCIExpress is the secondary PCI Express extended capability
// (ID 0019h).
type SecondaryPCIExpress struct {
	LinkControl3    uint32
	LaneErrorStatus uint32
	// EqualizationControls holds one register per lane for as many
	// lanes as the structure covers.
	EqualizationControls []uint16
}

func (SecondaryPCIExpress) extendedCapabilityID() ID { return IDSecondaryPCIExpress }

func decodeSecondaryPCIExpress(b []byte) (Data, error) {
	if err := need(b, 0x0c); err != nil {
		return nil, err
	}
	s := SecondaryPCIExpress{
		LinkControl3:    buf.ReadU32(b, 4),
		LaneErrorStatus: buf.ReadU32(b, 8),
	}
	for at := 0x0c; buf.Has(b, at, 2); at += 2 {
		s.EqualizationControls = append(s.EqualizationControls, buf.ReadU16(b, at))
	}
	return s, nil
}

// DPC is the downstream port containment extended capability (ID 001Dh).
type DPC struct {
	Capabilities  DPCCapabilities
	Control       uint16
	Status        uint16
	ErrorSourceID uint16
}

func (DPC) extendedCapabilityID() ID { return IDDPC }

func decodeDPC(b []byte) (Data, error) {
	if err := need(b, 0x0c); err != nil {
		return nil, err
	}
	return DPC{
		Capabilities:  DPCCapabilities(buf.ReadU16(b, 4)),
		Control:       buf.ReadU16(b, 6),
		Status:        buf.ReadU16(b, 8),
		ErrorSourceID: buf.ReadU16(b, 0x0a),
	}, nil
}

// DPCCapabilities is the DPC capability register.
type DPCCapabilities uint16

// InterruptMessageNumber returns the DPC interrupt message number.
func (c DPCCapabilities) InterruptMessageNumber() uint8 { return uint8(c & 0b11111) }

// RPExtensions reports root port extensions for DPC.
func (c DPCCapabilities) RPExtensions() bool { return c&(1<<5) != 0 }

// PoisonedTLPEgressBlocking reports poisoned TLP egress blocking support.
func (c DPCCapabilities) PoisonedTLPEgressBlocking() bool { return c&(1<<6) != 0 }

// SoftwareTriggering reports DPC software triggering support.
func (c DPCCapabilities) SoftwareTriggering() bool { return c&(1<<7) != 0 }

// DataLinkFeature is the data link feature extended capability (ID 0025h).
type DataLinkFeature struct {
	Capabilities uint32
	Status       uint32
}

func (DataLinkFeature) extendedCapabilityID() ID { return IDDataLinkFeature }

func decodeDataLinkFeature(b []byte) (Data, error) {
	if err := need(b, 0x0c); err != nil {
		return nil, err
	}
	return DataLinkFeature{
		Capabilities: buf.ReadU32(b, 4),
		Status:       buf.ReadU32(b, 8),
	}, nil
}

// PhysicalLayer16GT is the physical layer 16.0 GT/s extended
// capability (ID 0026h).
type PhysicalLayer16GT struct {
	Capabilities        uint32
	Control             uint32
	Status              uint32
	LocalDataParity     uint32
	FirstRetimerParity  uint32
	SecondRetimerParity uint32
	// LaneEqualizationControls holds one byte per lane to the end of
	// the structure.
	LaneEqualizationControls []uint8
}

func (PhysicalLayer16GT) extendedCapabilityID() ID { return IDPhysicalLayer16GT }

func decodePhysicalLayer16GT(b []byte) (Data, error) {
	if err := need(b, 0x20); err != nil {
		return nil, err
	}
	return PhysicalLayer16GT{
		Capabilities:             buf.ReadU32(b, 0x04),
		Control:                  buf.ReadU32(b, 0x08),
		Status:                   buf.ReadU32(b, 0x0c),
		LocalDataParity:          buf.ReadU32(b, 0x10),
		FirstRetimerParity:       buf.ReadU32(b, 0x14),
		SecondRetimerParity:      buf.ReadU32(b, 0x18),
		LaneEqualizationControls: b[0x20:],
	}, nil
}

// LaneMargining is the lane margining at the receiver extended
// capability (ID 0027h).
type LaneMargining struct {
	PortCapabilities uint16
	PortStatus       uint16
	// Lanes holds one control/status pair per lane to the end of the
	// structure.
	Lanes []MarginingLane
}

func (LaneMargining) extendedCapabilityID() ID { return IDLaneMargining }

// MarginingLane is one lane's margining control and status registers.
type MarginingLane struct {
	Control uint16
	Status  uint16
}

func decodeLaneMargining(b []byte) (Data, error) {
	if err := need(b, 8); err != nil {
		return nil, err
	}
	m := LaneMargining{
		PortCapabilities: buf.ReadU16(b, 4),
		PortStatus:       buf.ReadU16(b, 6),
	}
	for at := 8; buf.Has(b, at, 4); at += 4 {
		m.Lanes = append(m.Lanes, MarginingLane{
			Control: buf.ReadU16(b, at),
			Status:  buf.ReadU16(b, at+2),
		})
	}
	return m, nil
}
