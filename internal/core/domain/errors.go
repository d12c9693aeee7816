// Package domain defines the core domain models for mixrelay.
package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorClass tells the protocol boundary who is at fault for a SwapError.
type ErrorClass int

const (
	// ClassClient marks failures caused by the submitted request.
	ClassClient ErrorClass = iota
	// ClassServer marks unexpected failures inside the relay.
	ClassServer
)

// String returns the class name used in logs and metric labels.
func (c ErrorClass) String() string {
	if c == ClassServer {
		return "server"
	}
	return "client"
}

// SwapError is a failure reported by the swap engine.
// Error codes follow the MX-<AREA>-<NNNN> format; a leading 5 in the
// number marks a server-class error, anything else is client-class.
type SwapError struct {
	Code    string      // Error code (e.g., "MX-SWAP-4040")
	Message string      // Human-readable message
	Commit  *Commitment // Offending output, if any
	Cause   error       // Underlying error (if any)
}

// Error implements the error interface.
//
// The message is returned verbatim: it is what JSON-RPC clients see.
func (e *SwapError) Error() string {
	return e.Message
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *SwapError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support, comparing by code.
func (e *SwapError) Is(target error) bool {
	t, ok := target.(*SwapError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Class classifies the error into exactly one of client or server.
func (e *SwapError) Class() ErrorClass {
	idx := strings.LastIndexByte(e.Code, '-')
	if idx >= 0 && idx+1 < len(e.Code) && e.Code[idx+1] == '5' {
		return ClassServer
	}
	return ClassClient
}

// NewSwapError creates a new SwapError with the given code and message.
func NewSwapError(code, message string) *SwapError {
	return &SwapError{
		Code:    code,
		Message: message,
	}
}

// Error codes.
const (
	CodeInvalidPayloadLength = "MX-SWAP-4000"
	CodeInvalidComSignature  = "MX-SWAP-4001"
	CodeInvalidRangeproof    = "MX-SWAP-4002"
	CodeMissingRangeproof    = "MX-SWAP-4003"
	CodePeelOnionFailure     = "MX-SWAP-4004"
	CodeFeeTooLow            = "MX-SWAP-4005"
	CodeCoinNotFound         = "MX-SWAP-4040"
	CodeAlreadySwapped       = "MX-SWAP-4090"
	CodeStoreError           = "MX-SWAP-4100"
	CodeNodeError            = "MX-SWAP-4101"
	CodeUnknown              = "MX-SYS-5000"
)

var (
	// ErrInvalidPayloadLength indicates the onion carries the wrong number of layers.
	ErrInvalidPayloadLength = NewSwapError(CodeInvalidPayloadLength, "Invalid number of payloads provided")

	// ErrInvalidComSignature indicates the commitment signature does not verify.
	ErrInvalidComSignature = NewSwapError(CodeInvalidComSignature, "Commitment Signature is invalid")

	// ErrInvalidRangeproof indicates the supplied rangeproof does not verify.
	ErrInvalidRangeproof = NewSwapError(CodeInvalidRangeproof, "Rangeproof is invalid")

	// ErrMissingRangeproof indicates the final hop did not supply a rangeproof.
	ErrMissingRangeproof = NewSwapError(CodeMissingRangeproof, "Rangeproof is required but was not supplied")

	// Sentinels for errors.Is matching of the parameterised variants below.
	ErrCoinNotFound     = NewSwapError(CodeCoinNotFound, "coin not found")
	ErrAlreadySwapped   = NewSwapError(CodeAlreadySwapped, "already swapped")
	ErrPeelOnionFailure = NewSwapError(CodePeelOnionFailure, "peel onion failure")
	ErrFeeTooLow        = NewSwapError(CodeFeeTooLow, "fee too low")
	ErrStore            = NewSwapError(CodeStoreError, "store error")
	ErrNode             = NewSwapError(CodeNodeError, "node error")
	ErrUnknown          = NewSwapError(CodeUnknown, "unknown error")
)

// CoinNotFound reports that the referenced output does not exist or is spent.
func CoinNotFound(commit Commitment) *SwapError {
	return &SwapError{
		Code:    CodeCoinNotFound,
		Message: fmt.Sprintf("Output %s does not exist, or is already spent.", commit),
		Commit:  &commit,
	}
}

// AlreadySwapped reports that the output is already queued for a round.
func AlreadySwapped(commit Commitment) *SwapError {
	return &SwapError{
		Code:    CodeAlreadySwapped,
		Message: fmt.Sprintf("Output %s is already in the swap list.", commit),
		Commit:  &commit,
	}
}

// PeelOnionFailure reports that the outer onion layer could not be decrypted.
func PeelOnionFailure(cause error) *SwapError {
	return &SwapError{
		Code:    CodePeelOnionFailure,
		Message: fmt.Sprintf("Failed to peel onion layer: %v", cause),
		Cause:   cause,
	}
}

// FeeTooLow reports a fee below the relay's minimum.
func FeeTooLow(minimum, actual uint64) *SwapError {
	return &SwapError{
		Code:    CodeFeeTooLow,
		Message: fmt.Sprintf("Fee too low (expected >= %d, actual %d)", minimum, actual),
	}
}

// StoreError wraps a failure of the swap store.
func StoreError(cause error) *SwapError {
	return &SwapError{
		Code:    CodeStoreError,
		Message: fmt.Sprintf("Error saving swap to data store: %v", cause),
		Cause:   cause,
	}
}

// NodeError wraps a failure talking to the ledger node.
func NodeError(cause error) *SwapError {
	return &SwapError{
		Code:    CodeNodeError,
		Message: fmt.Sprintf("Error communicating with node: %v", cause),
		Cause:   cause,
	}
}

// UnknownError reports an unexpected internal failure.
func UnknownError(detail string) *SwapError {
	return &SwapError{
		Code:    CodeUnknown,
		Message: detail,
	}
}

// AsSwapError returns err as a *SwapError. Errors of any other type become
// UnknownError carrying the original error as cause.
func AsSwapError(err error) *SwapError {
	if err == nil {
		return nil
	}
	var se *SwapError
	if errors.As(err, &se) {
		return se
	}
	ue := UnknownError(err.Error())
	ue.Cause = err
	return ue
}

// IsSwapError checks if an error is a SwapError with the given code.
// If code is empty, it only checks if the error is a SwapError.
func IsSwapError(err error, code string) bool {
	var se *SwapError
	if errors.As(err, &se) {
		if code == "" {
			return true
		}
		return se.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a SwapError.
func GetErrorCode(err error) string {
	var se *SwapError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// Classify returns the class of any error. Non-domain errors are server-class.
func Classify(err error) ErrorClass {
	var se *SwapError
	if errors.As(err, &se) {
		return se.Class()
	}
	return ClassServer
}
