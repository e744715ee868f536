package header

// Command is the device control register at offset 0x04. Bits are
// surfaced through predicate methods; the raw value stays addressable
// for callers that need unnamed or reserved bits.
type Command uint16

// IOSpace reports whether the device responds to I/O space accesses.
func (c Command) IOSpace() bool { return c&(1<<0) != 0 }

// MemorySpace reports whether the device responds to memory space accesses.
func (c Command) MemorySpace() bool { return c&(1<<1) != 0 }

// BusMaster reports whether the device may act as a bus master.
func (c Command) BusMaster() bool { return c&(1<<2) != 0 }

// SpecialCycles reports whether the device monitors special cycles.
func (c Command) SpecialCycles() bool { return c&(1<<3) != 0 }

// MemoryWriteInvalidate reports whether Memory Write and Invalidate may be generated.
func (c Command) MemoryWriteInvalidate() bool { return c&(1<<4) != 0 }

// VGAPaletteSnoop reports whether VGA palette snooping is enabled.
func (c Command) VGAPaletteSnoop() bool { return c&(1<<5) != 0 }

// ParityErrorResponse reports whether the device responds to parity errors.
func (c Command) ParityErrorResponse() bool { return c&(1<<6) != 0 }

// SERREnable reports whether the SERR# driver is enabled.
func (c Command) SERREnable() bool { return c&(1<<8) != 0 }

// FastBackToBackEnable reports whether fast back-to-back transactions
// to different agents are allowed.
func (c Command) FastBackToBackEnable() bool { return c&(1<<9) != 0 }

// InterruptDisable reports whether assertion of INTx# is disabled.
func (c Command) InterruptDisable() bool { return c&(1<<10) != 0 }
