package extcaps

import "github.com/pcikit/pcikit/internal/buf"

// VendorSpecific is the vendor specific extended capability (ID 000Bh).
// A second header dword declares a vendor assigned ID, a revision and
// the total structure length, header dwords included.
type VendorSpecific struct {
	VSECID   uint16
	Revision uint8
	Length   uint16
	// Data holds the vendor defined bytes after both header dwords.
	Data []byte
}

func (VendorSpecific) extendedCapabilityID() ID { return IDVendorSpecific }

func decodeVendorSpecific(b []byte) (Data, error) {
	if err := need(b, 8); err != nil {
		return nil, err
	}
	hdr := buf.ReadU32(b, 4)
	vs := VendorSpecific{
		VSECID:   uint16(hdr),
		Revision: uint8(hdr >> 16 & 0b1111),
		Length:   uint16(hdr >> 20),
	}
	if vs.Length > 8 {
		if err := need(b, int(vs.Length)); err != nil {
			return nil, err
		}
		vs.Data = b[8:vs.Length]
	}
	return vs, nil
}

// DesignatedVendor is the designated vendor specific extended
// capability (ID 0023h). Unlike VendorSpecific it names the vendor
// explicitly, so software can interpret structures defined by vendors
// other than the device's own.
type DesignatedVendor struct {
	VendorID uint16
	Revision uint8
	Length   uint16
	DVSECID  uint16
	// Data holds the vendor defined bytes after the DVSEC ID.
	Data []byte
}

func (DesignatedVendor) extendedCapabilityID() ID { return IDDesignatedVendor }

func decodeDesignatedVendor(b []byte) (Data, error) {
	if err := need(b, 10); err != nil {
		return nil, err
	}
	hdr := buf.ReadU32(b, 4)
	dv := DesignatedVendor{
		VendorID: uint16(hdr),
		Revision: uint8(hdr >> 16 & 0b1111),
		Length:   uint16(hdr >> 20),
		DVSECID:  buf.ReadU16(b, 8),
	}
	if dv.Length > 10 {
		if err := need(b, int(dv.Length)); err != nil {
			return nil, err
		}
		dv.Data = b[10:dv.Length]
	}
	return dv, nil
}

// DeviceSerialNumber is the device serial number extended capability
// (ID 0003h): a 64-bit IEEE EUI-64.
type DeviceSerialNumber struct {
	SerialNumber uint64
}

func (DeviceSerialNumber) extendedCapabilityID() ID { return IDDeviceSerialNumber }

func decodeDeviceSerialNumber(b []byte) (Data, error) {
	if err := need(b, 12); err != nil {
		return nil, err
	}
	return DeviceSerialNumber{SerialNumber: buf.ReadU64(b, 4)}, nil
}
