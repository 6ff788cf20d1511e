package chain

import (
	"fmt"
	"strings"
)

// WriteReason classifies why a state-changing call failed. Provider error
// strings vary, so classification is pattern-matched defensively.
type WriteReason string

const (
	ReasonUserRejected      WriteReason = "UserRejected"
	ReasonInsufficientFunds WriteReason = "InsufficientFunds"
	ReasonReverted          WriteReason = "Reverted"
	ReasonUnknown           WriteReason = "Unknown"
)

// ReadError wraps an RPC or ABI-decode failure on a read path. A revert that
// represents a defined false/zero answer is a result, never a ReadError.
type ReadError struct {
	Method string
	Cause  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("chain read %q failed: %v", e.Method, e.Cause)
}

func (e *ReadError) Unwrap() error { return e.Cause }

// WriteError wraps a failed state-changing call with its classified reason.
type WriteError struct {
	Method string
	Reason WriteReason
	Cause  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("chain write %q failed (%s): %v", e.Method, e.Reason, e.Cause)
}

func (e *WriteError) Unwrap() error { return e.Cause }

// ConfirmationTimeoutError reports that the chain has not confirmed a
// transaction within the client-local deadline. The transaction may still
// mine later; this is never conflated with a revert.
type ConfirmationTimeoutError struct {
	TxHash  string
	Timeout string
}

func (e *ConfirmationTimeoutError) Error() string {
	return fmt.Sprintf("transaction %s not confirmed within %s", e.TxHash, e.Timeout)
}

// classifyWriteError maps a provider error onto a WriteReason. Exact
// messages are provider-dependent; matching stays permissive.
func classifyWriteError(err error) WriteReason {
	if err == nil {
		return ReasonUnknown
	}
	msg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(msg, "user denied"),
		strings.Contains(msg, "user rejected"),
		strings.Contains(msg, "request rejected"),
		strings.Contains(msg, "code: 4001"):
		return ReasonUserRejected
	case strings.Contains(msg, "insufficient funds"),
		strings.Contains(msg, "insufficient balance for transfer"),
		strings.Contains(msg, "gas required exceeds allowance"):
		return ReasonInsufficientFunds
	case strings.Contains(msg, "execution reverted"),
		strings.Contains(msg, "revert"),
		strings.Contains(msg, "always failing transaction"):
		return ReasonReverted
	default:
		return ReasonUnknown
	}
}
