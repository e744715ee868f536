package caps

import "github.com/pcikit/pcikit/internal/buf"

// AGP is the accelerated graphics port capability (ID 02h).
type AGP struct {
	MajorRevision uint8
	MinorRevision uint8
	Status        AGPStatus
	Command       AGPCommand
}

func (AGP) capabilityID() ID { return IDAGP }

func decodeAGP(b []byte) (Data, error) {
	if err := need(b, 12); err != nil {
		return nil, err
	}
	return AGP{
		MajorRevision: b[2] >> 4,
		MinorRevision: b[2] & 0b1111,
		Status:        AGPStatus(buf.ReadU32(b, 4)),
		Command:       AGPCommand(buf.ReadU32(b, 8)),
	}, nil
}

// AGPStatus is the AGP status register.
type AGPStatus uint32

// Rate returns the supported data rate mask.
func (s AGPStatus) Rate() uint8 { return uint8(s & 0b111) }

// FastWrite reports fast write support.
func (s AGPStatus) FastWrite() bool { return s&(1<<4) != 0 }

// Over4G reports addressing above 4 GiB.
func (s AGPStatus) Over4G() bool { return s&(1<<5) != 0 }

// SideBandAddressing reports SBA support.
func (s AGPStatus) SideBandAddressing() bool { return s&(1<<9) != 0 }

// RequestQueueDepth returns the maximum request queue depth.
func (s AGPStatus) RequestQueueDepth() int { return int(s>>24) + 1 }

// AGPCommand is the AGP command register.
type AGPCommand uint32

// Rate returns the selected data rate.
func (c AGPCommand) Rate() uint8 { return uint8(c & 0b111) }

// AGPEnable reports that the AGP master is enabled.
func (c AGPCommand) AGPEnable() bool { return c&(1<<8) != 0 }

// SideBandAddressing reports that SBA is enabled.
func (c AGPCommand) SideBandAddressing() bool { return c&(1<<9) != 0 }

// VitalProductData is the VPD capability (ID 03h), a register window
// onto the device's VPD storage.
type VitalProductData struct {
	// Address selects the VPD word being transferred.
	Address uint16
	// TransferCompleted is the flag bit: its sense depends on the
	// direction of the last operation started.
	TransferCompleted bool
	Data              uint32
}

func (VitalProductData) capabilityID() ID { return IDVitalProductData }

func decodeVitalProductData(b []byte) (Data, error) {
	if err := need(b, 8); err != nil {
		return nil, err
	}
	addr := buf.ReadU16(b, 2)
	return VitalProductData{
		Address:           addr & 0x7fff,
		TransferCompleted: addr&(1<<15) != 0,
		Data:              buf.ReadU32(b, 4),
	}, nil
}

// SlotIdentification is the slot identification capability (ID 04h)
// carried by PCI-to-PCI bridges on expansion boards.
type SlotIdentification struct {
	ExpansionSlots uint8
	FirstInChassis bool
	ChassisNumber  uint8
}

func (SlotIdentification) capabilityID() ID { return IDSlotIdentification }

func decodeSlotIdentification(b []byte) (Data, error) {
	if err := need(b, 4); err != nil {
		return nil, err
	}
	return SlotIdentification{
		ExpansionSlots: b[2] & 0b11111,
		FirstInChassis: b[2]&(1<<5) != 0,
		ChassisNumber:  b[3],
	}, nil
}

// PCIX is the PCI-X capability (ID 07h) in its non-bridge form.
type PCIX struct {
	Command PCIXCommand
	Status  PCIXStatus
}

func (PCIX) capabilityID() ID { return IDPCIX }

func decodePCIX(b []byte) (Data, error) {
	if err := need(b, 8); err != nil {
		return nil, err
	}
	return PCIX{
		Command: PCIXCommand(buf.ReadU16(b, 2)),
		Status:  PCIXStatus(buf.ReadU32(b, 4)),
	}, nil
}

// PCIXCommand is the PCI-X command register.
type PCIXCommand uint16

// DataParityErrorRecovery reports software error recovery enable.
func (c PCIXCommand) DataParityErrorRecovery() bool { return c&(1<<0) != 0 }

// RelaxedOrdering reports relaxed ordering enable.
func (c PCIXCommand) RelaxedOrdering() bool { return c&(1<<1) != 0 }

// MaxMemoryReadByteCount returns the maximum memory read byte count.
func (c PCIXCommand) MaxMemoryReadByteCount() int { return 512 << (c >> 2 & 0b11) }

// MaxOutstandingSplitTransactions returns the allowed outstanding
// split transaction encoding.
func (c PCIXCommand) MaxOutstandingSplitTransactions() uint8 { return uint8(c >> 4 & 0b111) }

// PCIXStatus is the PCI-X status register.
type PCIXStatus uint32

// FunctionNumber returns the function number of this register set.
func (s PCIXStatus) FunctionNumber() uint8 { return uint8(s & 0b111) }

// DeviceNumber returns the device number.
func (s PCIXStatus) DeviceNumber() uint8 { return uint8(s >> 3 & 0b11111) }

// BusNumber returns the bus number.
func (s PCIXStatus) BusNumber() uint8 { return uint8(s >> 8) }

// Is64Bit reports a 64-bit device.
func (s PCIXStatus) Is64Bit() bool { return s&(1<<16) != 0 }

// Is133MHzCapable reports 133 MHz capability.
func (s PCIXStatus) Is133MHzCapable() bool { return s&(1<<17) != 0 }

// HyperTransportType discriminates HyperTransport capability forms.
// The values match the capability type field shifted into the high
// bits of a byte, so three-bit and five-bit encodings share one space.
type HyperTransportType uint8

const (
	HTSlavePrimary          HyperTransportType = 0x00
	HTHostSecondary         HyperTransportType = 0x20
	HTSwitch                HyperTransportType = 0x40
	HTInterruptDiscovery    HyperTransportType = 0x80
	HTRevisionID            HyperTransportType = 0x88
	HTUnitIDClumping        HyperTransportType = 0x90
	HTExtendedConfiguration HyperTransportType = 0x98
	HTAddressMapping        HyperTransportType = 0xa0
	HTMSIMapping            HyperTransportType = 0xa8
	HTDirectRoute           HyperTransportType = 0xb0
	HTVCSet                 HyperTransportType = 0xb8
	HTRetryMode             HyperTransportType = 0xc0
	HTX86Encoding           HyperTransportType = 0xc8
	HTGen3                  HyperTransportType = 0xd0
	HTFunctionLevelExt      HyperTransportType = 0xd8
	HTPowerManagement       HyperTransportType = 0xe0
)

// HyperTransport is the HyperTransport capability (ID 08h). Only the
// command register is common to every form; the rest of the structure
// is form specific and kept raw.
type HyperTransport struct {
	Command uint16
	Type    HyperTransportType
	// Raw holds the form specific bytes after the command register.
	Raw []byte
}

func (HyperTransport) capabilityID() ID { return IDHyperTransport }

func decodeHyperTransport(b []byte) (Data, error) {
	if err := need(b, 4); err != nil {
		return nil, err
	}
	cmd := buf.ReadU16(b, 2)
	// Slave and host forms use a three-bit type field; everything else
	// uses five bits.
	typ := HyperTransportType(cmd >> 13 << 5)
	if typ != HTSlavePrimary && typ != HTHostSecondary {
		typ = HyperTransportType(cmd >> 11 << 3)
	}
	return HyperTransport{Command: cmd, Type: typ, Raw: b[4:]}, nil
}

// DebugPort is the EHCI debug port capability (ID 0Ah).
type DebugPort struct {
	// Offset is the byte offset of the debug registers inside the BAR.
	Offset uint16
	// BAR is the base address register number, counted from one.
	BAR uint8
}

func (DebugPort) capabilityID() ID { return IDDebugPort }

func decodeDebugPort(b []byte) (Data, error) {
	if err := need(b, 4); err != nil {
		return nil, err
	}
	v := buf.ReadU16(b, 2)
	return DebugPort{Offset: v & 0x1fff, BAR: uint8(v >> 13)}, nil
}

// BridgeSubsystemVendorID is the bridge subsystem vendor ID capability
// (ID 0Dh), which gives PCI-to-PCI bridges the subsystem registers
// their header type lacks.
type BridgeSubsystemVendorID struct {
	SubsystemVendorID uint16
	SubsystemDeviceID uint16
}

func (BridgeSubsystemVendorID) capabilityID() ID { return IDBridgeSubsystemVendorID }

func decodeBridgeSubsystemVendorID(b []byte) (Data, error) {
	if err := need(b, 8); err != nil {
		return nil, err
	}
	return BridgeSubsystemVendorID{
		SubsystemVendorID: buf.ReadU16(b, 4),
		SubsystemDeviceID: buf.ReadU16(b, 6),
	}, nil
}

// SATA is the serial ATA data/index configuration capability (ID 12h).
type SATA struct {
	MajorRevision uint8
	MinorRevision uint8
	// BARLocation selects where the index/data pair lives: 0xF means
	// inside this capability, otherwise it is a BAR number.
	BARLocation uint8
	// BAROffset is the register offset in dword units.
	BAROffset uint32
}

func (SATA) capabilityID() ID { return IDSATA }

func decodeSATA(b []byte) (Data, error) {
	if err := need(b, 8); err != nil {
		return nil, err
	}
	v := buf.ReadU32(b, 4)
	return SATA{
		MajorRevision: b[2] >> 4,
		MinorRevision: b[2] & 0b1111,
		BARLocation:   uint8(v & 0b1111),
		BAROffset:     v >> 4 & 0xfffff,
	}, nil
}

// AdvancedFeatures is the conventional PCI advanced features
// capability (ID 13h).
type AdvancedFeatures struct {
	Length uint8
	// TransactionsPending and FunctionLevelReset mirror the AF
	// capabilities register.
	TransactionsPendingCapable bool
	FunctionLevelResetCapable  bool
	// InitiateFLR is the control register bit as read; it reads zero.
	InitiateFLR bool
	// TransactionsPending is the status register bit.
	TransactionsPending bool
}

func (AdvancedFeatures) capabilityID() ID { return IDAdvancedFeatures }

func decodeAdvancedFeatures(b []byte) (Data, error) {
	if err := need(b, 6); err != nil {
		return nil, err
	}
	return AdvancedFeatures{
		Length:                     b[2],
		TransactionsPendingCapable: b[3]&(1<<0) != 0,
		FunctionLevelResetCapable:  b[3]&(1<<1) != 0,
		InitiateFLR:                b[4]&(1<<0) != 0,
		TransactionsPending:        b[5]&(1<<0) != 0,
	}, nil
}
