package caps

import "fmt"

// ID is a conventional capability ID as assigned in the PCI Code and
// ID Assignment specification.
type ID uint8

const (
	IDNull                     ID = 0x00
	IDPowerManagement          ID = 0x01
	IDAGP                      ID = 0x02
	IDVitalProductData         ID = 0x03
	IDSlotIdentification       ID = 0x04
	IDMSI                      ID = 0x05
	IDCompactPCIHotSwap        ID = 0x06
	IDPCIX                     ID = 0x07
	IDHyperTransport           ID = 0x08
	IDVendorSpecific           ID = 0x09
	IDDebugPort                ID = 0x0a
	IDCompactPCIResourceCtl    ID = 0x0b
	IDHotPlug                  ID = 0x0c
	IDBridgeSubsystemVendorID  ID = 0x0d
	IDAGP8x                    ID = 0x0e
	IDSecureDevice             ID = 0x0f
	IDPCIExpress               ID = 0x10
	IDMSIX                     ID = 0x11
	IDSATA                     ID = 0x12
	IDAdvancedFeatures         ID = 0x13
	IDEnhancedAllocation       ID = 0x14
	IDFlatteningPortalBridge   ID = 0x15
)

var idNames = map[ID]string{
	IDNull:                    "Null",
	IDPowerManagement:         "Power Management",
	IDAGP:                     "AGP",
	IDVitalProductData:        "Vital Product Data",
	IDSlotIdentification:      "Slot Identification",
	IDMSI:                     "MSI",
	IDCompactPCIHotSwap:       "CompactPCI Hot Swap",
	IDPCIX:                    "PCI-X",
	IDHyperTransport:          "HyperTransport",
	IDVendorSpecific:          "Vendor Specific",
	IDDebugPort:               "Debug Port",
	IDCompactPCIResourceCtl:   "CompactPCI Resource Control",
	IDHotPlug:                 "Hot Plug",
	IDBridgeSubsystemVendorID: "Bridge Subsystem Vendor ID",
	IDAGP8x:                   "AGP 8x",
	IDSecureDevice:            "Secure Device",
	IDPCIExpress:              "PCI Express",
	IDMSIX:                    "MSI-X",
	IDSATA:                    "SATA",
	IDAdvancedFeatures:        "Advanced Features",
	IDEnhancedAllocation:      "Enhanced Allocation",
	IDFlatteningPortalBridge:  "Flattening Portal Bridge",
}

func (id ID) String() string {
	if name, ok := idNames[id]; ok {
		return name
	}
	return fmt.Sprintf("Reserved(%#02x)", uint8(id))
}

// decode dispatches on the capability ID. The slice starts at the
// node's ID byte so register offsets match the published layouts. A
// nil, nil return means no decoder is registered and the caller should
// fall back to Unknown.
func decode(id ID, b []byte) (Data, error) {
	switch id {
	case IDNull:
		return Null{}, nil
	case IDPowerManagement:
		return decodePowerManagement(b)
	case IDAGP:
		return decodeAGP(b)
	case IDVitalProductData:
		return decodeVitalProductData(b)
	case IDSlotIdentification:
		return decodeSlotIdentification(b)
	case IDMSI:
		return decodeMSI(b)
	case IDCompactPCIHotSwap:
		return CompactPCIHotSwap{}, nil
	case IDPCIX:
		return decodePCIX(b)
	case IDHyperTransport:
		return decodeHyperTransport(b)
	case IDVendorSpecific:
		return decodeVendorSpecific(b)
	case IDDebugPort:
		return decodeDebugPort(b)
	case IDCompactPCIResourceCtl:
		return CompactPCIResourceControl{}, nil
	case IDHotPlug:
		return HotPlug{}, nil
	case IDBridgeSubsystemVendorID:
		return decodeBridgeSubsystemVendorID(b)
	case IDAGP8x:
		return AGP8x{}, nil
	case IDSecureDevice:
		return SecureDevice{}, nil
	case IDPCIExpress:
		return decodePCIExpress(b)
	case IDMSIX:
		return decodeMSIX(b)
	case IDSATA:
		return decodeSATA(b)
	case IDAdvancedFeatures:
		return decodeAdvancedFeatures(b)
	case IDEnhancedAllocation:
		return decodeEnhancedAllocation(b)
	case IDFlatteningPortalBridge:
		return FlatteningPortalBridge{}, nil
	default:
		return nil, nil
	}
}

// need is the common short-body check used by the fixed-size decoders.
func need(b []byte, n int) error {
	if len(b) < n {
		return fmt.Errorf("have %d bytes, need %d", len(b), n)
	}
	return nil
}

// Null is the placeholder capability (ID 00h): a valid node carrying
// no registers of its own.
type Null struct{}

func (Null) capabilityID() ID { return IDNull }

// Markers for assigned IDs whose registers live outside this decoder's
// scope (form-factor and presence capabilities). Distinct from Unknown,
// which covers IDs with no assignment at all.
type (
	CompactPCIHotSwap         struct{}
	CompactPCIResourceControl struct{}
	HotPlug                   struct{}
	AGP8x                     struct{}
	SecureDevice              struct{}
	FlatteningPortalBridge    struct{}
)

func (CompactPCIHotSwap) capabilityID() ID         { return IDCompactPCIHotSwap }
func (CompactPCIResourceControl) capabilityID() ID { return IDCompactPCIResourceCtl }
func (HotPlug) capabilityID() ID                   { return IDHotPlug }
func (AGP8x) capabilityID() ID                     { return IDAGP8x }
func (SecureDevice) capabilityID() ID              { return IDSecureDevice }
func (FlatteningPortalBridge) capabilityID() ID    { return IDFlatteningPortalBridge }
