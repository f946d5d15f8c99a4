package bundle

import "fmt"

// Error types for building, authorizing, parsing and verifying bundles.

// ValidationError is returned for untrusted input the caller can correct.
// The builder's state is unchanged when one is returned.
type ValidationError struct {
	Code    string // Error code (e.g., CodeInvalidAmount)
	Message string // Human-readable error message
	Cause   error  // Underlying error (if any)
}

func (e *ValidationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("validation error [%s]: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("validation error [%s]: %s", e.Code, e.Message)
}

func (e *ValidationError) Unwrap() error { return e.Cause }

// Is matches any ValidationError with the same code, so callers can use
// errors.Is(err, ErrInvalidAmount).
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	return ok && t.Code == e.Code
}

// ProofError is returned when the proving collaborator fails or returns a
// commitment that does not match the description. It is fatal for the
// whole bundle.
type ProofError struct {
	Category Category // Kind of description being proven
	Index    int      // Pre-shuffle index within the category
	Cause    error    // Underlying prover error
}

func (e *ProofError) Error() string {
	return fmt.Sprintf("prover error: %s %d: %v", e.Category, e.Index, e.Cause)
}

func (e *ProofError) Unwrap() error { return e.Cause }

// UsageError signals a programming error, such as adding to a sealed
// builder or authorizing a bundle twice.
type UsageError struct {
	Op      string // Operation that was misused
	Message string // Human-readable error message
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("usage error: %s: %s", e.Op, e.Message)
}

func (e *UsageError) Is(target error) bool {
	t, ok := target.(*UsageError)
	return ok && (t.Op == "" || t.Op == e.Op) && t.Message == e.Message
}

// ParseError is returned when bundle or metadata bytes cannot be decoded.
type ParseError struct {
	Message string // Human-readable error message
	Cause   error  // Underlying decode error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("parse error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("parse error: %s", e.Message)
}

func (e *ParseError) Unwrap() error { return e.Cause }

// VerificationFailure reports why a bundle was rejected. It means "reject
// the transaction" and nothing else.
type VerificationFailure struct {
	Code    string                 // Error code (e.g., CodeInvalidProof)
	Message string                 // Human-readable error message
	Details map[string]interface{} // Additional context about the failure
}

func (e *VerificationFailure) Error() string {
	return fmt.Sprintf("verification failed [%s]: %s", e.Code, e.Message)
}

// Error codes.
const (
	CodeInvalidAmount    = "INVALID_AMOUNT"    // Value exceeds the maximum money policy
	CodeInvalidAddress   = "INVALID_ADDRESS"   // Diversifier has no base point
	CodeAnchorMismatch   = "ANCHOR_MISMATCH"   // Anchor differs from the bundle's fixed anchor
	CodeValueOverflow    = "VALUE_OVERFLOW"    // Value balance leaves the int64 range
	CodeInvalidInput     = "INVALID_INPUT"     // Other malformed input
	CodeInvalidProof     = "INVALID_PROOF"     // A description proof did not verify
	CodeInvalidSignature = "INVALID_SIGNATURE" // Binding or input signature did not verify
	CodeUnbalanced       = "UNBALANCED"        // Transparent and shielded values do not balance
)

// Sentinels for errors.Is.
var (
	ErrInvalidAmount  = &ValidationError{Code: CodeInvalidAmount}
	ErrInvalidAddress = &ValidationError{Code: CodeInvalidAddress}
	ErrAnchorMismatch = &ValidationError{Code: CodeAnchorMismatch}
	ErrValueOverflow  = &ValidationError{Code: CodeValueOverflow}

	ErrSealed            = &UsageError{Message: "builder is sealed"}
	ErrAlreadyAuthorized = &UsageError{Message: "bundle is already authorized"}
)
