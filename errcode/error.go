// Package errcode provides hierarchical error codes shared by the event core.
// Error code format: MMBBBB (MM = module code 2 digits, BBBB = business code 4 digits)
package errcode

import (
	"errors"
	"fmt"
)

// LayeredError hierarchical error code
// Supports: error chaining, dynamic messages, context data, message keys
type LayeredError struct {
	module string                 // Module name (event, config, common)
	code   int                    // Complete error code (MMBBBB, e.g., 200001)
	msgKey string                 // Message key, e.g. "error.event.invalid_name"
	msg    string                 // Default message
	data   map[string]interface{} // context data
	cause  error                  // Original error (error chain)
}

// New Create hierarchical error codes
// moduleCode: Module code (10-99)
// businessCode: Business Code (0001-9999)
func New(moduleCode, businessCode int, module, msgKey, msg string) *LayeredError {
	return &LayeredError{
		module: module,
		code:   moduleCode*10000 + businessCode,
		msgKey: msgKey,
		msg:    msg,
		data:   make(map[string]interface{}),
	}
}

// Implement error interface
func (e *LayeredError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.cause)
	}
	return e.msg
}

// Code gets error code
func (e *LayeredError) Code() int {
	return e.code
}

// ModuleCode returns the MM part of the code
func (e *LayeredError) ModuleCode() int {
	return e.code / 10000
}

// BusinessCode returns the BBBB part of the code
func (e *LayeredError) BusinessCode() int {
	return e.code % 10000
}

// Module Get module name
func (e *LayeredError) Module() string {
	return e.module
}

// MsgKey retrieves the message key
func (e *LayeredError) MsgKey() string {
	return e.msgKey
}

// Get error message
func (e *LayeredError) Message() string {
	return e.msg
}

// Retrieve context data
func (e *LayeredError) Data() map[string]interface{} {
	return e.data
}

// Cause get original error
func (e *LayeredError) Cause() error {
	return e.cause
}

// Unwrap supports Go 1.13+ error chains
func (e *LayeredError) Unwrap() error {
	return e.cause
}

// WithMsg replace error message (return new instance, do not modify original instance)
func (e *LayeredError) WithMsg(msg string) *LayeredError {
	clone := *e
	clone.msg = msg
	return &clone
}

// WithMsgf format replacement error message (return new instance)
func (e *LayeredError) WithMsgf(format string, args ...interface{}) *LayeredError {
	clone := *e
	clone.msg = fmt.Sprintf(format, args...)
	return &clone
}

// WithData add single context data (return new instance)
func (e *LayeredError) WithData(key string, value interface{}) *LayeredError {
	clone := *e
	clone.data = e.cloneData()
	clone.data[key] = value
	return &clone
}

// WithFields batch add context data (return new instance)
func (e *LayeredError) WithFields(fields map[string]interface{}) *LayeredError {
	clone := *e
	clone.data = e.cloneData()
	for k, v := range fields {
		clone.data[k] = v
	}
	return &clone
}

// Wrap Wraps the original error (returns a new instance)
func (e *LayeredError) Wrap(cause error) *LayeredError {
	if cause == nil {
		return e
	}
	clone := *e
	clone.cause = cause
	return &clone
}

// Is matches by code, so errors.Is(err, ErrX) holds for every derived instance of ErrX
func (e *LayeredError) Is(target error) bool {
	t, ok := target.(*LayeredError)
	if !ok {
		return false
	}
	return e.code == t.code
}

func (e *LayeredError) cloneData() map[string]interface{} {
	data := make(map[string]interface{}, len(e.data))
	for k, v := range e.data {
		data[k] = v
	}
	return data
}

// String returns an erroneous string representation (for debugging)
func (e *LayeredError) String() string {
	if e.cause != nil {
		return fmt.Sprintf("LayeredError{code:%d, module:%s, msg:%s, cause:%v}",
			e.code, e.module, e.msg, e.cause)
	}
	return fmt.Sprintf("LayeredError{code:%d, module:%s, msg:%s}",
		e.code, e.module, e.msg)
}

// FromError finds the outermost LayeredError in err's chain
func FromError(err error) (*LayeredError, bool) {
	var le *LayeredError
	if errors.As(err, &le) {
		return le, true
	}
	return nil, false
}

// InRange reports whether err carries a code of moduleCode whose business code lies in [lo, hi]
func InRange(err error, moduleCode, lo, hi int) bool {
	le, ok := FromError(err)
	if !ok || le.ModuleCode() != moduleCode {
		return false
	}
	bc := le.BusinessCode()
	return bc >= lo && bc <= hi
}
