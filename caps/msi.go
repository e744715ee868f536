package caps

import "github.com/pcikit/pcikit/internal/buf"

// MSI is the message signaled interrupts capability (ID 05h). Its size
// depends on the control register: 64-bit addressing adds an upper
// address dword and per-vector masking adds mask and pending dwords.
type MSI struct {
	Control MSIControl
	// Address is the full message address; the upper half is zero for
	// the 32-bit form.
	Address uint64
	Data    uint16
	// MaskBits and PendingBits are meaningful only when
	// Control.PerVectorMasking reports true.
	MaskBits    uint32
	PendingBits uint32
}

func (MSI) capabilityID() ID { return IDMSI }

func decodeMSI(b []byte) (Data, error) {
	if err := need(b, 4); err != nil {
		return nil, err
	}
	ctl := MSIControl(buf.ReadU16(b, 2))
	size := 12
	if ctl.Is64Bit() {
		size += 4
	}
	if ctl.PerVectorMasking() {
		size += 8
	}
	if err := need(b, size); err != nil {
		return nil, err
	}
	m := MSI{
		Control: ctl,
		Address: uint64(buf.ReadU32(b, 4)),
	}
	at := 8
	if ctl.Is64Bit() {
		m.Address |= uint64(buf.ReadU32(b, at)) << 32
		at += 4
	}
	m.Data = buf.ReadU16(b, at)
	if ctl.PerVectorMasking() {
		at += 4
		m.MaskBits = buf.ReadU32(b, at)
		m.PendingBits = buf.ReadU32(b, at+4)
	}
	return m, nil
}

// MSIControl is the MSI message control register.
type MSIControl uint16

// Enabled reports that MSI delivery is enabled.
func (c MSIControl) Enabled() bool { return c&(1<<0) != 0 }

// MultipleMessageCapable returns the number of requested vectors.
func (c MSIControl) MultipleMessageCapable() int { return 1 << (c >> 1 & 0b111) }

// MultipleMessageEnable returns the number of allocated vectors.
func (c MSIControl) MultipleMessageEnable() int { return 1 << (c >> 4 & 0b111) }

// Is64Bit reports 64-bit message address capability.
func (c MSIControl) Is64Bit() bool { return c&(1<<7) != 0 }

// PerVectorMasking reports per-vector mask and pending registers.
func (c MSIControl) PerVectorMasking() bool { return c&(1<<8) != 0 }

// MSIX is the MSI-X capability (ID 11h). The vector table and pending
// bit array live in memory behind base address registers; the
// capability itself only locates them.
type MSIX struct {
	Control         MSIXControl
	Table           MSIXLocation
	PendingBitArray MSIXLocation
}

func (MSIX) capabilityID() ID { return IDMSIX }

func decodeMSIX(b []byte) (Data, error) {
	if err := need(b, 12); err != nil {
		return nil, err
	}
	return MSIX{
		Control:         MSIXControl(buf.ReadU16(b, 2)),
		Table:           decodeMSIXLocation(buf.ReadU32(b, 4)),
		PendingBitArray: decodeMSIXLocation(buf.ReadU32(b, 8)),
	}, nil
}

// MSIXLocation names a structure by base address register index and
// byte offset within that region.
type MSIXLocation struct {
	BAR    uint8
	Offset uint32
}

func decodeMSIXLocation(v uint32) MSIXLocation {
	return MSIXLocation{BAR: uint8(v & 0b111), Offset: v &^ 0b111}
}

// MSIXControl is the MSI-X message control register.
type MSIXControl uint16

// TableSize returns the number of table entries.
func (c MSIXControl) TableSize() int { return int(c&0x7ff) + 1 }

// FunctionMask reports that all vectors are masked.
func (c MSIXControl) FunctionMask() bool { return c&(1<<14) != 0 }

// Enabled reports that MSI-X delivery is enabled.
func (c MSIXControl) Enabled() bool { return c&(1<<15) != 0 }
