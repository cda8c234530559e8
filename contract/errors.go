package contract

import "errors"

// Every failing operation returns one of these (wrapped with a reason), and the host then throws
// the whole transaction away. A proposal that misses quorum is not an error, it is a Rejected status.
var (
	ErrPhaseViolation      = errors.New("operation not allowed in current proposal status")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrDoubleVote          = errors.New("already voted on this proposal")
	ErrWindowClosed        = errors.New("outside the allowed time window")
	ErrInsufficientPayment = errors.New("insufficient payment")
	ErrPendingReentrancy   = errors.New("deferred step pending in reentrancy proxy")
	ErrParameterInvalid    = errors.New("invalid parameter")
	ErrNotFound            = errors.New("not found")
	ErrNotInitialized      = errors.New("governance not initialized")
	ErrUnknownMethod       = errors.New("unknown method")
)
