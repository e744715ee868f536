package extcaps

import "fmt"

// ID is an extended capability ID as assigned in the PCI Code and ID
// Assignment specification.
type ID uint16

const (
	IDNull                    ID = 0x0000
	IDAdvancedErrorReporting  ID = 0x0001
	IDVirtualChannel          ID = 0x0002
	IDDeviceSerialNumber      ID = 0x0003
	IDPowerBudgeting          ID = 0x0004
	IDRCLinkDeclaration       ID = 0x0005
	IDRCInternalLinkControl   ID = 0x0006
	IDRCEventCollectorEPA     ID = 0x0007
	IDMultiFunctionVC         ID = 0x0008
	IDVirtualChannelMFVC      ID = 0x0009
	IDRCRegisterBlock         ID = 0x000a
	IDVendorSpecific          ID = 0x000b
	IDConfigAccessCorrelation ID = 0x000c
	IDACS                     ID = 0x000d
	IDARI                     ID = 0x000e
	IDATS                     ID = 0x000f
	IDSRIOV                   ID = 0x0010
	IDMRIOV                   ID = 0x0011
	IDMulticast               ID = 0x0012
	IDPageRequest             ID = 0x0013
	IDResizableBAR            ID = 0x0015
	IDDynamicPowerAllocation  ID = 0x0016
	IDTPHRequester            ID = 0x0017
	IDLTR                     ID = 0x0018
	IDSecondaryPCIExpress     ID = 0x0019
	IDPMUX                    ID = 0x001a
	IDPASID                   ID = 0x001b
	IDLNRequester             ID = 0x001c
	IDDPC                     ID = 0x001d
	IDL1PMSubstates           ID = 0x001e
	IDPTM                     ID = 0x001f
	IDFRSQueueing             ID = 0x0021
	IDReadinessTimeReporting  ID = 0x0022
	IDDesignatedVendor        ID = 0x0023
	IDVFResizableBAR          ID = 0x0024
	IDDataLinkFeature         ID = 0x0025
	IDPhysicalLayer16GT       ID = 0x0026
	IDLaneMargining           ID = 0x0027
	IDHierarchyID             ID = 0x0028
	IDNPEM                    ID = 0x0029
	IDPhysicalLayer32GT       ID = 0x002a
	IDAlternateProtocol       ID = 0x002b
	IDSFI                     ID = 0x002c
)

var idNames = map[ID]string{
	IDNull:                    "Null",
	IDAdvancedErrorReporting:  "Advanced Error Reporting",
	IDVirtualChannel:          "Virtual Channel",
	IDDeviceSerialNumber:      "Device Serial Number",
	IDPowerBudgeting:          "Power Budgeting",
	IDRCLinkDeclaration:       "Root Complex Link Declaration",
	IDRCInternalLinkControl:   "Root Complex Internal Link Control",
	IDRCEventCollectorEPA:     "Root Complex Event Collector Endpoint Association",
	IDMultiFunctionVC:         "Multi-Function Virtual Channel",
	IDVirtualChannelMFVC:      "Virtual Channel (MFVC)",
	IDRCRegisterBlock:         "Root Complex Register Block",
	IDVendorSpecific:          "Vendor Specific",
	IDConfigAccessCorrelation: "Configuration Access Correlation",
	IDACS:                     "ACS",
	IDARI:                     "ARI",
	IDATS:                     "ATS",
	IDSRIOV:                   "SR-IOV",
	IDMRIOV:                   "MR-IOV",
	IDMulticast:               "Multicast",
	IDPageRequest:             "Page Request",
	IDResizableBAR:            "Resizable BAR",
	IDDynamicPowerAllocation:  "Dynamic Power Allocation",
	IDTPHRequester:            "TPH Requester",
	IDLTR:                     "LTR",
	IDSecondaryPCIExpress:     "Secondary PCI Express",
	IDPMUX:                    "PMUX",
	IDPASID:                   "PASID",
	IDLNRequester:             "LN Requester",
	IDDPC:                     "DPC",
	IDL1PMSubstates:           "L1 PM Substates",
	IDPTM:                     "PTM",
	IDFRSQueueing:             "FRS Queueing",
	IDReadinessTimeReporting:  "Readiness Time Reporting",
	IDDesignatedVendor:        "Designated Vendor Specific",
	IDVFResizableBAR:          "VF Resizable BAR",
	IDDataLinkFeature:         "Data Link Feature",
	IDPhysicalLayer16GT:       "Physical Layer 16 GT/s",
	IDLaneMargining:           "Lane Margining at the Receiver",
	IDHierarchyID:             "Hierarchy ID",
	IDNPEM:                    "NPEM",
	IDPhysicalLayer32GT:       "Physical Layer 32 GT/s",
	IDAlternateProtocol:       "Alternate Protocol",
	IDSFI:                     "System Firmware Intermediary",
}

func (id ID) String() string {
	if name, ok := idNames[id]; ok {
		return name
	}
	return fmt.Sprintf("Reserved(%#04x)", uint16(id))
}

// decode dispatches on the extended capability ID. The slice starts at
// the node's header dword so register offsets match the published
// layouts. A nil, nil return means no decoder is registered.
func decode(id ID, b []byte) (Data, error) {
	switch id {
	case IDAdvancedErrorReporting:
		return decodeAdvancedErrorReporting(b)
	case IDVirtualChannel, IDVirtualChannelMFVC:
		return decodeVirtualChannel(id, b)
	case IDDeviceSerialNumber:
		return decodeDeviceSerialNumber(b)
	case IDPowerBudgeting:
		return decodePowerBudgeting(b)
	case IDRCLinkDeclaration:
		return RootComplexLinkDeclaration{}, nil
	case IDVendorSpecific:
		return decodeVendorSpecific(b)
	case IDACS:
		return decodeACS(b)
	case IDARI:
		return decodeARI(b)
	case IDATS:
		return decodeATS(b)
	case IDSRIOV:
		return decodeSRIOV(b)
	case IDMulticast:
		return decodeMulticast(b)
	case IDPageRequest:
		return decodePageRequest(b)
	case IDResizableBAR:
		return decodeResizableBAR(b)
	case IDDynamicPowerAllocation:
		return decodeDynamicPowerAllocation(b)
	case IDTPHRequester:
		return decodeTPHRequester(b)
	case IDLTR:
		return decodeLTR(b)
	case IDSecondaryPCIExpress:
		return decodeSecondaryPCIExpress(b)
	case IDPASID:
		return decodePASID(b)
	case IDDPC:
		return decodeDPC(b)
	case IDL1PMSubstates:
		return decodeL1PMSubstates(b)
	case IDPTM:
		return decodePTM(b)
	case IDDesignatedVendor:
		return decodeDesignatedVendor(b)
	case IDDataLinkFeature:
		return decodeDataLinkFeature(b)
	case IDPhysicalLayer16GT:
		return decodePhysicalLayer16GT(b)
	case IDLaneMargining:
		return decodeLaneMargining(b)
	default:
		return nil, nil
	}
}

func need(b []byte, n int) error {
	if len(b) < n {
		return fmt.Errorf("have %d bytes, need %d", len(b), n)
	}
	return nil
}

// RootComplexLinkDeclaration marks an assigned ID whose element and
// link entry registers this decoder leaves raw. Distinct from Unknown,
// which covers IDs with no assignment at all.
type RootComplexLinkDeclaration struct{}

func (RootComplexLinkDeclaration) extendedCapabilityID() ID { return IDRCLinkDeclaration }
