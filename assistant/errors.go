package assistant

import (
	"errors"
	"fmt"
)

var (
	ErrNotConfigured     = errors.New("OPENAI_API_KEY is not configured on the server")
	ErrUnknownTool       = errors.New("unsupported proposal type")
	ErrProposalGone      = errors.New("proposal expired")
	ErrProposalForbidden = errors.New("proposal does not belong to this trip")
	ErrForeignRecord     = errors.New("record does not belong to this trip")
)

// ValidationError marks input rejected before any provider call or mutation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func newValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// GoneError is returned when a decision targets a proposal that is no longer
// held by the store.
type GoneError struct {
	ProposalID string
	Reason     Retirement
}

func (e *GoneError) Error() string {
	switch e.Reason {
	case RetiredDecided:
		return "proposal was already decided"
	case RetiredExpired:
		return "proposal timed out"
	default:
		return ErrProposalGone.Error()
	}
}

func (e *GoneError) Is(target error) bool {
	return target == ErrProposalGone
}

// MutationError wraps a record store failure while applying an approved
// proposal. The proposal is consumed regardless.
type MutationError struct {
	Tool Tool
	Err  error
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("unable to apply %s: %v", e.Tool, e.Err)
}

func (e *MutationError) Unwrap() error {
	return e.Err
}
