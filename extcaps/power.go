package extcaps

import "github.com/pcikit/pcikit/internal/buf"

// PowerBudgeting is the power budgeting extended capability (ID 0004h):
// a data select window onto the device's power budget records.
type PowerBudgeting struct {
	DataSelect uint8
	Data       PowerBudgetData
	// SystemAllocated reports that the budget is included in the
	// system power budget.
	SystemAllocated bool
}

func (PowerBudgeting) extendedCapabilityID() ID { return IDPowerBudgeting }

func decodePowerBudgeting(b []byte) (Data, error) {
	if err := need(b, 0x10); err != nil {
		return nil, err
	}
	return PowerBudgeting{
		DataSelect:      b[4],
		Data:            PowerBudgetData(buf.ReadU32(b, 8)),
		SystemAllocated: b[0x0c]&1 != 0,
	}, nil
}

// PowerBudgetData is one power budget record.
type PowerBudgetData uint32

// BasePower returns the base power encoding.
func (d PowerBudgetData) BasePower() uint8 { return uint8(d) }

// DataScale returns the scaling factor encoding for BasePower.
func (d PowerBudgetData) DataScale() uint8 { return uint8(d >> 8 & 0b11) }

// PMSubstate returns the power management substate.
func (d PowerBudgetData) PMSubstate() uint8 { return uint8(d >> 10 & 0b111) }

// PMState returns the power management state (D0 through D3).
func (d PowerBudgetData) PMState() uint8 { return uint8(d >> 13 & 0b11) }

// Type returns the operating condition type.
func (d PowerBudgetData) Type() uint8 { return uint8(d >> 15 & 0b111) }

// PowerRail returns the power rail encoding.
func (d PowerBudgetData) PowerRail() uint8 { return uint8(d >> 18 & 0b111) }

// LTR is the latency tolerance reporting extended capability (ID 0018h).
type LTR struct {
	MaxSnoopLatency   LTRLatency
	MaxNoSnoopLatency LTRLatency
}

func (LTR) extendedCapabilityID() ID { return IDLTR }

func decodeLTR(b []byte) (Data, error) {
	if err := need(b, 8); err != nil {
		return nil, err
	}
	return LTR{
		MaxSnoopLatency:   LTRLatency(buf.ReadU16(b, 4)),
		MaxNoSnoopLatency: LTRLatency(buf.ReadU16(b, 6)),
	}, nil
}

// LTRLatency is one latency register: a value and a scale.
type LTRLatency uint16

// Value returns the latency value field.
func (l LTRLatency) Value() uint16 { return uint16(l) & 0x3ff }

// Scale returns the latency scale encoding (each step multiplies the
// value by 32).
func (l LTRLatency) Scale() uint8 { return uint8(l >> 10 & 0b111) }

// L1PMSubstates is the L1 PM substates extended capability (ID 001Eh).
type L1PMSubstates struct {
	Capabilities L1PMCapabilities
	Control1     uint32
	Control2     uint32
}

func (L1PMSubstates) extendedCapabilityID() ID { return IDL1PMSubstates }

func decodeL1PMSubstates(b []byte) (Data, error) {
	if err := need(b, 0x10); err != nil {
		return nil, err
	}
	return L1PMSubstates{
		Capabilities: L1PMCapabilities(buf.ReadU32(b, 4)),
		Control1:     buf.ReadU32(b, 8),
		Control2:     buf.ReadU32(b, 0x0c),
	}, nil
}

// L1PMCapabilities is the L1 PM substates capabilities register.
type L1PMCapabilities uint32

// PCIPML12 reports PCI-PM L1.2 support.
func (c L1PMCapabilities) PCIPML12() bool { return c&(1<<0) != 0 }

// PCIPML11 reports PCI-PM L1.1 support.
func (c L1PMCapabilities) PCIPML11() bool { return c&(1<<1) != 0 }

// ASPML12 reports ASPM L1.2 support.
func (c L1PMCapabilities) ASPML12() bool { return c&(1<<2) != 0 }

// ASPML11 reports ASPM L1.1 support.
func (c L1PMCapabilities) ASPML11() bool { return c&(1<<3) != 0 }

// L1PMSupported reports L1 PM substates support.
func (c L1PMCapabilities) L1PMSupported() bool { return c&(1<<4) != 0 }

// DynamicPowerAllocation is the DPA extended capability (ID 0016h).
type DynamicPowerAllocation struct {
	Capabilities     uint32
	LatencyIndicator uint32
	Status           uint16
	Control          uint16
	// SubstateAllocations holds one power allocation byte per substate.
	SubstateAllocations []uint8
}

func (DynamicPowerAllocation) extendedCapabilityID() ID { return IDDynamicPowerAllocation }

func decodeDynamicPowerAllocation(b []byte) (Data, error) {
	if err := need(b, 0x10); err != nil {
		return nil, err
	}
	d := DynamicPowerAllocation{
		Capabilities:     buf.ReadU32(b, 4),
		LatencyIndicator: buf.ReadU32(b, 8),
		Status:           buf.ReadU16(b, 0x0c),
		Control:          buf.ReadU16(b, 0x0e),
	}
	substates := int(d.Capabilities&0b11111) + 1
	if err := need(b, 0x10+substates); err != nil {
		return nil, err
	}
	d.SubstateAllocations = b[0x10 : 0x10+substates]
	return d, nil
}

// PTM is the precision time measurement extended capability (ID 001Fh).
type PTM struct {
	RequesterCapable bool
	ResponderCapable bool
	RootCapable      bool
	// LocalClockGranularity is in nanoseconds; zero means unimplemented.
	LocalClockGranularity uint8

	Enabled    bool
	RootSelect bool
	// EffectiveGranularity is in nanoseconds across the PTM hierarchy.
	EffectiveGranularity uint8
}

func (PTM) extendedCapabilityID() ID { return IDPTM }

func decodePTM(b []byte) (Data, error) {
	if err := need(b, 0x0c); err != nil {
		return nil, err
	}
	capability := buf.ReadU32(b, 4)
	control := buf.ReadU32(b, 8)
	return PTM{
		RequesterCapable:      capability&(1<<0) != 0,
		ResponderCapable:      capability&(1<<1) != 0,
		RootCapable:           capability&(1<<2) != 0,
		LocalClockGranularity: uint8(capability >> 8),
		Enabled:               control&(1<<0) != 0,
		RootSelect:            control&(1<<1) != 0,
		EffectiveGranularity:  uint8(control >> 8),
	}, nil
}
