package errors

import (
	"fmt"
	"runtime"
	"strings"
)

// Failure-reason codes used across the pipeline. Provider-facing stages
// classify external errors into these instead of propagating raw text.
const (
	CodeUnknown          = 0
	CodeNotConfigured    = 1001
	CodeTimeout          = 1002
	CodeUnavailable      = 1003
	CodeRateLimited      = 1004
	CodeAuth             = 1005
	CodeInvalidRecipient = 1006
	CodeInvalidInput     = 2001
	CodeNotFound         = 2002
)

// Error carries a code, message and optional wrapped cause.
type Error struct {
	Code    int        `json:"code"`
	Message string     `json:"message"`
	Err     error      `json:"-"`
	Stack   string     `json:"stack,omitempty"`
	Context []KeyValue `json:"context,omitempty"`
}

type KeyValue struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func (e *Error) Error() string {
	if e.Message != "" {
		if e.Err != nil {
			return e.Message + ": " + e.Err.Error()
		}
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(message string) *Error {
	return &Error{Message: message, Stack: captureStack()}
}

func Errorf(format string, args ...interface{}) *Error {
	return &Error{Message: fmt.Sprintf(format, args...), Stack: captureStack()}
}

func WithCode(code int, message string) *Error {
	return &Error{Code: code, Message: message, Stack: captureStack()}
}

func WithCodef(code int, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Stack: captureStack()}
}

func Wrap(err error, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Message: message, Err: err, Code: GetCode(err), Stack: captureStack()}
}

func Wrapf(err error, format string, args ...interface{}) *Error {
	if err == nil {
		return nil
	}
	return &Error{Message: fmt.Sprintf(format, args...), Err: err, Code: GetCode(err), Stack: captureStack()}
}

// WithContext returns a copy of the error with an extra key/value pair.
func (e *Error) WithContext(key, value string) *Error {
	if e == nil {
		return nil
	}
	clone := *e
	clone.Context = append(append([]KeyValue(nil), e.Context...), KeyValue{Key: key, Value: value})
	return &clone
}

// GetCode walks the chain for the first *Error code.
func GetCode(err error) int {
	for err != nil {
		if e, ok := err.(*Error); ok {
			if e.Code != CodeUnknown {
				return e.Code
			}
			err = e.Err
			continue
		}
		return CodeUnknown
	}
	return CodeUnknown
}

func Cause(err error) error {
	for err != nil {
		e, ok := err.(*Error)
		if !ok || e.Err == nil {
			return err
		}
		err = e.Err
	}
	return err
}

func captureStack() string {
	buf := make([]byte, 1024)
	n := runtime.Stack(buf, false)
	lines := strings.Split(string(buf[:n]), "\n")
	if len(lines) > 6 {
		lines = lines[6:]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
