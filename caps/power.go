package caps

import "github.com/pcikit/pcikit/internal/buf"

// PowerManagement is the PCI power management capability (ID 01h),
// eight bytes of capability, control/status and bridge support
// registers.
type PowerManagement struct {
	Capabilities  PMCapabilities
	ControlStatus PMControlStatus
	BridgeSupport PMBridgeSupport
	Data          uint8
}

func (PowerManagement) capabilityID() ID { return IDPowerManagement }

func decodePowerManagement(b []byte) (Data, error) {
	if err := need(b, 8); err != nil {
		return nil, err
	}
	return PowerManagement{
		Capabilities:  PMCapabilities(buf.ReadU16(b, 2)),
		ControlStatus: PMControlStatus(buf.ReadU16(b, 4)),
		BridgeSupport: PMBridgeSupport(b[6]),
		Data:          b[7],
	}, nil
}

// PMCapabilities is the PMC register.
type PMCapabilities uint16

// Version returns the power management specification version encoding.
func (c PMCapabilities) Version() uint8 { return uint8(c & 0b111) }

// PMEClock reports that PME# generation needs the PCI clock.
func (c PMCapabilities) PMEClock() bool { return c&(1<<3) != 0 }

// DeviceSpecificInitialization reports that the function needs DSI
// after transitioning to D0.
func (c PMCapabilities) DeviceSpecificInitialization() bool { return c&(1<<5) != 0 }

// AuxCurrent returns the 3.3Vaux auxiliary current requirement encoding.
func (c PMCapabilities) AuxCurrent() uint8 { return uint8(c >> 6 & 0b111) }

// D1Support reports D1 power state support.
func (c PMCapabilities) D1Support() bool { return c&(1<<9) != 0 }

// D2Support reports D2 power state support.
func (c PMCapabilities) D2Support() bool { return c&(1<<10) != 0 }

// PMESupport returns the per-state PME# assertion mask (D0, D1, D2,
// D3hot, D3cold in bits 0 through 4 of the result).
func (c PMCapabilities) PMESupport() uint8 { return uint8(c >> 11) }

// PowerState is the current power state field of the PMCSR register.
type PowerState uint8

const (
	PowerStateD0 PowerState = 0b00
	PowerStateD1 PowerState = 0b01
	PowerStateD2 PowerState = 0b10
	PowerStateD3 PowerState = 0b11
)

// PMControlStatus is the PMCSR register.
type PMControlStatus uint16

// PowerState returns the current power state.
func (c PMControlStatus) PowerState() PowerState { return PowerState(c & 0b11) }

// NoSoftReset reports that returning to D0 from D3hot keeps state.
func (c PMControlStatus) NoSoftReset() bool { return c&(1<<3) != 0 }

// PMEEnable reports that PME# assertion is enabled.
func (c PMControlStatus) PMEEnable() bool { return c&(1<<8) != 0 }

// DataSelect returns the data register selector.
func (c PMControlStatus) DataSelect() uint8 { return uint8(c >> 9 & 0b1111) }

// DataScale returns the scaling factor encoding for the data register.
func (c PMControlStatus) DataScale() uint8 { return uint8(c >> 13 & 0b11) }

// PMEStatus reports a pending PME# event.
func (c PMControlStatus) PMEStatus() bool { return c&(1<<15) != 0 }

// PMBridgeSupport is the PMCSR bridge support extensions register.
type PMBridgeSupport uint8

// B2B3 selects the secondary bus state for D3hot (B2 when set, B3 when
// clear); meaningful only with BusPowerClockControl.
func (s PMBridgeSupport) B2B3() bool { return s&(1<<6) != 0 }

// BusPowerClockControl reports bus power/clock control enable.
func (s PMBridgeSupport) BusPowerClockControl() bool { return s&(1<<7) != 0 }
