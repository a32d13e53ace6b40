package usecase

import (
	"errors"
	"fmt"
)

// ErrorCode is the client-facing class of a failed prediction request.
type ErrorCode string

const (
	ErrorInvalidInput ErrorCode = "INVALID_INPUT"
	ErrorInternal     ErrorCode = "INTERNAL_ERROR"
)

// Reason pins down which step of a prediction request failed. It is logged,
// never shown to callers.
type Reason string

const (
	ReasonInvalidConversations Reason = "invalid_conversations"
	ReasonTooManyConversations Reason = "too_many_conversations"
	ReasonConfigLoad           Reason = "ssm_load_error"
	ReasonPatternStore         Reason = "pattern_store_error"
	ReasonRulesInvalid         Reason = "rules_invalid"
)

type Error struct {
	Code   ErrorCode
	Reason Reason
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := fmt.Sprintf("usecase: predict %s/%s", e.Code, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// CodeOf returns the code carried by err, or ErrorInternal when err is not
// (and does not wrap) an *Error.
func CodeOf(err error) ErrorCode {
	var ucErr *Error
	if errors.As(err, &ucErr) && ucErr.Code != "" {
		return ucErr.Code
	}
	return ErrorInternal
}

func invalidInput(reason Reason, err error) *Error {
	return &Error{Code: ErrorInvalidInput, Reason: reason, Err: err}
}

func internal(reason Reason, err error) *Error {
	return &Error{Code: ErrorInternal, Reason: reason, Err: err}
}
