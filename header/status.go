package header

// DevselTiming is the DEVSEL# timing encoding from the status register.
type DevselTiming uint8

const (
	DevselFast   DevselTiming = 0
	DevselMedium DevselTiming = 1
	DevselSlow   DevselTiming = 2
)

// Status is the device status register at offset 0x06. The same layout
// serves the bridge secondary status registers, which is why Bridge and
// Cardbus tails reuse this type.
type Status uint16

// InterruptStatus reports the state of the function's INTx# signal.
func (s Status) InterruptStatus() bool { return s&(1<<3) != 0 }

// CapabilitiesList reports whether the capability list at offset 0x34
// is implemented. Traversal of an unanchored list is harmless but
// callers usually gate on this bit.
func (s Status) CapabilitiesList() bool { return s&(1<<4) != 0 }

// Is66MHzCapable reports 66 MHz capability.
func (s Status) Is66MHzCapable() bool { return s&(1<<5) != 0 }

// FastBackToBackCapable reports whether the target can accept fast
// back-to-back transactions from different agents.
func (s Status) FastBackToBackCapable() bool { return s&(1<<7) != 0 }

// MasterDataParityError reports a detected data parity error while bus mastering.
func (s Status) MasterDataParityError() bool { return s&(1<<8) != 0 }

// Devsel returns the DEVSEL# timing encoding.
func (s Status) Devsel() DevselTiming { return DevselTiming(s >> 9 & 0b11) }

// SignaledTargetAbort reports that the device terminated a transaction
// with Target-Abort.
func (s Status) SignaledTargetAbort() bool { return s&(1<<11) != 0 }

// ReceivedTargetAbort reports a master-received Target-Abort.
func (s Status) ReceivedTargetAbort() bool { return s&(1<<12) != 0 }

// ReceivedMasterAbort reports a master-received Master-Abort.
func (s Status) ReceivedMasterAbort() bool { return s&(1<<13) != 0 }

// SignaledSystemError reports SERR# assertion.
func (s Status) SignaledSystemError() bool { return s&(1<<14) != 0 }

// DetectedParityError reports a detected parity error regardless of
// the parity error response bit.
func (s Status) DetectedParityError() bool { return s&(1<<15) != 0 }
