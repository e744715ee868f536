package caps

// VendorSpecific is the vendor specific capability (ID 09h). A length
// byte follows the node header and counts the whole structure,
// header and length byte included.
type VendorSpecific struct {
	Length uint8
	// Data holds the vendor defined bytes after the length field.
	Data []byte
}

func (VendorSpecific) capabilityID() ID { return IDVendorSpecific }

func decodeVendorSpecific(b []byte) (Data, error) {
	if err := need(b, 3); err != nil {
		return nil, err
	}
	length := b[2]
	if length < 3 {
		// A length that cannot even cover the header and itself; keep
		// the declared value but carry no payload.
		return VendorSpecific{Length: length}, nil
	}
	if err := need(b, int(length)); err != nil {
		return nil, err
	}
	return VendorSpecific{Length: length, Data: b[3:length]}, nil
}
