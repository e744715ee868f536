package extcaps

import "github.com/pcikit/pcikit/internal/buf"

// ACS is the access control services extended capability (ID 000Dh).
// The egress control vector is kept raw; its width in bits comes from
// the capability register.
type ACS struct {
	Capabilities        ACSCapabilities
	Control             uint16
	EgressControlVector []uint32
}

func (ACS) extendedCapabilityID() ID { return IDACS }

func decodeACS(b []byte) (Data, error) {
	if err := need(b, 8); err != nil {
		return nil, err
	}
	acs := ACS{
		Capabilities: ACSCapabilities(buf.ReadU16(b, 4)),
		Control:      buf.ReadU16(b, 6),
	}
	if acs.Capabilities.EgressControl() {
		bits := acs.Capabilities.EgressControlVectorSize()
		dwords := (bits + 31) / 32
		if err := need(b, 8+dwords*4); err != nil {
			return nil, err
		}
		for i := 0; i < dwords; i++ {
			acs.EgressControlVector = append(acs.EgressControlVector, buf.ReadU32(b, 8+i*4))
		}
	}
	return acs, nil
}

// ACSCapabilities is the ACS capability register.
type ACSCapabilities uint16

// SourceValidation reports ACS source validation capability.
func (c ACSCapabilities) SourceValidation() bool { return c&(1<<0) != 0 }

// TranslationBlocking reports ACS translation blocking capability.
func (c ACSCapabilities) TranslationBlocking() bool { return c&(1<<1) != 0 }

// P2PRequestRedirect reports P2P request redirect capability.
func (c ACSCapabilities) P2PRequestRedirect() bool { return c&(1<<2) != 0 }

// P2PCompletionRedirect reports P2P completion redirect capability.
func (c ACSCapabilities) P2PCompletionRedirect() bool { return c&(1<<3) != 0 }

// UpstreamForwarding reports upstream forwarding capability.
func (c ACSCapabilities) UpstreamForwarding() bool { return c&(1<<4) != 0 }

// EgressControl reports P2P egress control capability.
func (c ACSCapabilities) EgressControl() bool { return c&(1<<5) != 0 }

// EgressControlVectorSize returns the vector width in bits; the zero
// encoding means 256.
func (c ACSCapabilities) EgressControlVectorSize() int {
	if n := int(c >> 8); n != 0 {
		return n
	}
	return 256
}

// ARI is the alternative routing-ID interpretation extended capability
// (ID 000Eh).
type ARI struct {
	MFVCFunctionGroups bool
	ACSFunctionGroups  bool
	// NextFunctionNumber links the functions of an ARI device.
	NextFunctionNumber uint8
	Control            uint16
}

func (ARI) extendedCapabilityID() ID { return IDARI }

func decodeARI(b []byte) (Data, error) {
	if err := need(b, 8); err != nil {
		return nil, err
	}
	capability := buf.ReadU16(b, 4)
	return ARI{
		MFVCFunctionGroups: capability&(1<<0) != 0,
		ACSFunctionGroups:  capability&(1<<1) != 0,
		NextFunctionNumber: uint8(capability >> 8),
		Control:            buf.ReadU16(b, 6),
	}, nil
}

// ATS is the address translation services extended capability (ID 000Fh).
type ATS struct {
	InvalidateQueueDepth uint8
	PageAlignedRequest   bool
	Control              ATSControl
}

func (ATS) extendedCapabilityID() ID { return IDATS }

func decodeATS(b []byte) (Data, error) {
	if err := need(b, 8); err != nil {
		return nil, err
	}
	capability := buf.ReadU16(b, 4)
	return ATS{
		InvalidateQueueDepth: uint8(capability & 0b11111),
		PageAlignedRequest:   capability&(1<<5) != 0,
		Control:              ATSControl(buf.ReadU16(b, 6)),
	}, nil
}

// ATSControl is the ATS control register.
type ATSControl uint16

// SmallestTranslationUnit returns the STU field.
func (c ATSControl) SmallestTranslationUnit() uint8 { return uint8(c & 0b11111) }

// Enabled reports that the ATS interface is enabled.
func (c ATSControl) Enabled() bool { return c&(1<<15) != 0 }

// PageRequest is the page request interface extended capability (ID 0013h).
type PageRequest struct {
	Control               uint16
	Status                uint16
	OutstandingCapacity   uint32
	OutstandingAllocation uint32
}

func (PageRequest) extendedCapabilityID() ID { return IDPageRequest }

func decodePageRequest(b []byte) (Data, error) {
	if err := need(b, 0x10); err != nil {
		return nil, err
	}
	return PageRequest{
		Control:               buf.ReadU16(b, 4),
		Status:                buf.ReadU16(b, 6),
		OutstandingCapacity:   buf.ReadU32(b, 8),
		OutstandingAllocation: buf.ReadU32(b, 0x0c),
	}, nil
}

// PASID is the process address space ID extended capability (ID 001Bh).
type PASID struct {
	ExecutePermission bool
	PrivilegedMode    bool
	MaxPASIDWidth     uint8
	Control           uint16
}

func (PASID) extendedCapabilityID() ID { return IDPASID }

func decodePASID(b []byte) (Data, error) {
	if err := need(b, 8); err != nil {
		return nil, err
	}
	capability := buf.ReadU16(b, 4)
	return PASID{
		ExecutePermission: capability&(1<<1) != 0,
		PrivilegedMode:    capability&(1<<2) != 0,
		MaxPASIDWidth:     uint8(capability >> 8 & 0b11111),
		Control:           buf.ReadU16(b, 6),
	}, nil
}

// SRIOV is the single root I/O virtualization extended capability
// (ID 0010h).
type SRIOV struct {
	Capabilities           uint32
	Control                SRIOVControl
	Status                 uint16
	InitialVFs             uint16
	TotalVFs               uint16
	NumVFs                 uint16
	FunctionDependencyLink uint8
	FirstVFOffset          uint16
	VFStride               uint16
	VFDeviceID             uint16
	SupportedPageSizes     uint32
	SystemPageSize         uint32
	// BaseAddresses are the VF BARs; they decode like header BARs.
	BaseAddresses               [6]uint32
	VFMigrationStateArrayOffset uint32
}

func (SRIOV) extendedCapabilityID() ID { return IDSRIOV }

func decodeSRIOV(b []byte) (Data, error) {
	if err := need(b, 0x40); err != nil {
		return nil, err
	}
	s := SRIOV{
		Capabilities:           buf.ReadU32(b, 0x04),
		Control:                SRIOVControl(buf.ReadU16(b, 0x08)),
		Status:                 buf.ReadU16(b, 0x0a),
		InitialVFs:             buf.ReadU16(b, 0x0c),
		TotalVFs:               buf.ReadU16(b, 0x0e),
		NumVFs:                 buf.ReadU16(b, 0x10),
		FunctionDependencyLink: b[0x12],
		FirstVFOffset:          buf.ReadU16(b, 0x14),
		VFStride:               buf.ReadU16(b, 0x16),
		VFDeviceID:             buf.ReadU16(b, 0x1a),
		SupportedPageSizes:     buf.ReadU32(b, 0x1c),
		SystemPageSize:         buf.ReadU32(b, 0x20),
		VFMigrationStateArrayOffset: buf.ReadU32(b, 0x3c),
	}
	for i := range s.BaseAddresses {
		s.BaseAddresses[i] = buf.ReadU32(b, 0x24+i*4)
	}
	return s, nil
}

// SRIOVControl is the SR-IOV control register.
type SRIOVControl uint16

// VFEnable reports that virtual functions are enabled.
func (c SRIOVControl) VFEnable() bool { return c&(1<<0) != 0 }

// VFMigrationEnable reports VF migration enable.
func (c SRIOVControl) VFMigrationEnable() bool { return c&(1<<1) != 0 }

// VFMSEnable reports VF memory space enable.
func (c SRIOVControl) VFMSEnable() bool { return c&(1<<3) != 0 }

// ARICapableHierarchy reports an ARI capable hierarchy.
func (c SRIOVControl) ARICapableHierarchy() bool { return c&(1<<4) != 0 }
