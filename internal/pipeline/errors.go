package pipeline

import (
	"errors"
	"fmt"

	"github.com/kingrea/groundwork/internal/reasoning"
	"github.com/kingrea/groundwork/internal/search"
)

// ValidationError rejects user input before any external call is made.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("pipeline: %s", e.Reason)
}

func validationErr(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// CollaboratorError reports that an external collaborator could not be
// reached or rejected the request. The prior state is untouched; the user
// can retry the same action.
type CollaboratorError struct {
	Collaborator string
	Err          error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("pipeline: %s collaborator: %v", e.Collaborator, e.Err)
}

func (e *CollaboratorError) Unwrap() error {
	return e.Err
}

// ParseError reports a collaborator response that could not be mapped into
// the expected structure. Raw preserves the response text for inspection.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("pipeline: parse collaborator response: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// classify maps a collaborator failure into the pipeline taxonomy: decode
// failures become ParseErrors carrying the raw payload, everything else is
// the collaborator being unavailable.
func classify(collaborator string, err error) error {
	var decode *reasoning.DecodeError
	if errors.As(err, &decode) {
		return &ParseError{Raw: decode.Raw, Err: decode.Err}
	}
	var searchDecode *search.DecodeError
	if errors.As(err, &searchDecode) {
		return &ParseError{Raw: searchDecode.Raw, Err: searchDecode.Err}
	}
	return &CollaboratorError{Collaborator: collaborator, Err: err}
}
