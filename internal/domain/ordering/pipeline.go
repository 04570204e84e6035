package ordering

import "fmt"

// Pipeline errno values. Each violated rule carries its own code so the
// audit trail identifies exactly which check failed. The errno is never
// exposed at the HTTP boundary; callers only ever see ErrnoGeneric.
const (
	// ErrnoGeneric is the opaque code re-raised to callers after the
	// specific errno has been recorded in the audit trail.
	ErrnoGeneric = 0

	// Order OPEN stage rules
	ErrnoOrderMissingLocation     = 201
	ErrnoOrderMissingDevice       = 202
	ErrnoOrderMissingChargeMode   = 203
	ErrnoOrderInvalidTotal        = 204
	ErrnoOrderItemsAttached       = 205
	ErrnoOrderParticipantsAttached = 206

	// Order PROCESSING stage rules
	ErrnoOrderParticipantsUnsettled = 210

	// Participant stage rules
	ErrnoParticipantItemsAttached   = 301
	ErrnoParticipantCredentialSync  = 302
	ErrnoParticipantAccountStatus   = 303
	ErrnoParticipantBalanceTooLow   = 304
	ErrnoParticipantAccountInactive = 305
	ErrnoParticipantSendFailed      = 306
	ErrnoParticipantRefImmutable    = 307
	ErrnoParticipantLedgerAppend    = 308
)

// PipelineError is a stage-level processing failure carrying the errno
// of the violated rule.
type PipelineError struct {
	Errno   int
	Message string
}

// Error implements the error interface
func (e *PipelineError) Error() string {
	return fmt.Sprintf("pipeline error %d: %s", e.Errno, e.Message)
}

// NewPipelineError creates a pipeline error with a rule-specific errno
func NewPipelineError(errno int, message string) *PipelineError {
	return &PipelineError{Errno: errno, Message: message}
}

// NewGenericPipelineError returns the opaque errno-0 failure handed to
// external callers. The specific errno stays in the audit trail only.
func NewGenericPipelineError() *PipelineError {
	return &PipelineError{Errno: ErrnoGeneric, Message: "pipeline processing failed"}
}
