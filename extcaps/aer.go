package extcaps

import "github.com/pcikit/pcikit/internal/buf"

// AdvancedErrorReporting is the AER capability (ID 0001h). The root
// error registers exist only on root ports and root complex event
// collectors; Root is nil when the structure ends before them.
type AdvancedErrorReporting struct {
	UncorrectableErrorStatus   UncorrectableErrors
	UncorrectableErrorMask     UncorrectableErrors
	UncorrectableErrorSeverity UncorrectableErrors
	CorrectableErrorStatus     CorrectableErrors
	CorrectableErrorMask       CorrectableErrors
	ControlAndCapabilities     AERControl
	// HeaderLog holds the TLP header of the first reported error.
	HeaderLog [4]uint32

	Root *AERRoot
}

func (AdvancedErrorReporting) extendedCapabilityID() ID { return IDAdvancedErrorReporting }

// AERRoot is the root port error reporting block.
type AERRoot struct {
	ErrorCommand uint32
	ErrorStatus  uint32
	// CorrectableSourceID and UncorrectableSourceID are the requester
	// IDs of the first reported errors of each class.
	CorrectableSourceID   uint16
	UncorrectableSourceID uint16
}

func decodeAdvancedErrorReporting(b []byte) (Data, error) {
	if err := need(b, 0x2c); err != nil {
		return nil, err
	}
	aer := AdvancedErrorReporting{
		UncorrectableErrorStatus:   UncorrectableErrors(buf.ReadU32(b, 0x04)),
		UncorrectableErrorMask:     UncorrectableErrors(buf.ReadU32(b, 0x08)),
		UncorrectableErrorSeverity: UncorrectableErrors(buf.ReadU32(b, 0x0c)),
		CorrectableErrorStatus:     CorrectableErrors(buf.ReadU32(b, 0x10)),
		CorrectableErrorMask:       CorrectableErrors(buf.ReadU32(b, 0x14)),
		ControlAndCapabilities:     AERControl(buf.ReadU32(b, 0x18)),
	}
	for i := range aer.HeaderLog {
		aer.HeaderLog[i] = buf.ReadU32(b, 0x1c+i*4)
	}
	if buf.Has(b, 0x2c, 0x0c) {
		sourceID := buf.ReadU32(b, 0x34)
		aer.Root = &AERRoot{
			ErrorCommand:          buf.ReadU32(b, 0x2c),
			ErrorStatus:           buf.ReadU32(b, 0x30),
			CorrectableSourceID:   uint16(sourceID),
			UncorrectableSourceID: uint16(sourceID >> 16),
		}
	}
	return aer, nil
}

// UncorrectableErrors is the layout shared by the uncorrectable error
// status, mask and severity registers.
type UncorrectableErrors uint32

// DataLinkProtocolError reports a data link protocol error.
func (e UncorrectableErrors) DataLinkProtocolError() bool { return e&(1<<4) != 0 }

// SurpriseDownError reports a surprise link down.
func (e UncorrectableErrors) SurpriseDownError() bool { return e&(1<<5) != 0 }

// PoisonedTLP reports a poisoned TLP received.
func (e UncorrectableErrors) PoisonedTLP() bool { return e&(1<<12) != 0 }

// CompletionTimeout reports a completion timeout.
func (e UncorrectableErrors) CompletionTimeout() bool { return e&(1<<14) != 0 }

// CompleterAbort reports a completer abort.
func (e UncorrectableErrors) CompleterAbort() bool { return e&(1<<15) != 0 }

// UnexpectedCompletion reports an unexpected completion.
func (e UncorrectableErrors) UnexpectedCompletion() bool { return e&(1<<16) != 0 }

// ReceiverOverflow reports a receiver overflow.
func (e UncorrectableErrors) ReceiverOverflow() bool { return e&(1<<17) != 0 }

// MalformedTLP reports a malformed TLP.
func (e UncorrectableErrors) MalformedTLP() bool { return e&(1<<18) != 0 }

// ECRCError reports an ECRC check failure.
func (e UncorrectableErrors) ECRCError() bool { return e&(1<<19) != 0 }

// UnsupportedRequest reports an unsupported request.
func (e UncorrectableErrors) UnsupportedRequest() bool { return e&(1<<20) != 0 }

// CorrectableErrors is the layout shared by the correctable error
// status and mask registers.
type CorrectableErrors uint32

// ReceiverError reports a receiver error.
func (e CorrectableErrors) ReceiverError() bool { return e&(1<<0) != 0 }

// BadTLP reports a bad TLP.
func (e CorrectableErrors) BadTLP() bool { return e&(1<<6) != 0 }

// BadDLLP reports a bad DLLP.
func (e CorrectableErrors) BadDLLP() bool { return e&(1<<7) != 0 }

// ReplayNumRollover reports a REPLAY_NUM rollover.
func (e CorrectableErrors) ReplayNumRollover() bool { return e&(1<<8) != 0 }

// ReplayTimerTimeout reports a replay timer timeout.
func (e CorrectableErrors) ReplayTimerTimeout() bool { return e&(1<<12) != 0 }

// AdvisoryNonFatal reports an advisory non-fatal error.
func (e CorrectableErrors) AdvisoryNonFatal() bool { return e&(1<<13) != 0 }

// AERControl is the advanced error capabilities and control register.
type AERControl uint32

// FirstErrorPointer returns the bit position of the first reported
// uncorrectable error.
func (c AERControl) FirstErrorPointer() uint8 { return uint8(c & 0b11111) }

// ECRCGenerationCapable reports ECRC generation capability.
func (c AERControl) ECRCGenerationCapable() bool { return c&(1<<5) != 0 }

// ECRCGenerationEnable reports ECRC generation enable.
func (c AERControl) ECRCGenerationEnable() bool { return c&(1<<6) != 0 }

// ECRCCheckCapable reports ECRC checking capability.
func (c AERControl) ECRCCheckCapable() bool { return c&(1<<7) != 0 }

// ECRCCheckEnable reports ECRC checking enable.
func (c AERControl) ECRCCheckEnable() bool { return c&(1<<8) != 0 }
