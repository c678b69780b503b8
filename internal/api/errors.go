package api

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
)

// Error codes shared by the backend and every client.
const (
	CodeNotFound       = "NOT_FOUND"
	CodeInvalidInput   = "INVALID_INPUT"
	CodeUnauthorized   = "UNAUTHORIZED"
	CodeForbidden      = "FORBIDDEN"
	CodeConflict       = "CONFLICT"
	CodeInternal       = "INTERNAL_ERROR"
	CodeInvalidLogin   = "INVALID_LOGIN"
	CodeInvalidID      = "INVALID_ID"
	CodeUnavailable    = "UNAVAILABLE"
	CodeUploadRejected = "UPLOAD_REJECTED"
)

// Error is a failed backend call.
type Error struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"error"`
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewError(status int, code, message string) *Error {
	return &Error{Status: status, Code: code, Message: message}
}

func NotFound(what string) *Error {
	return NewError(http.StatusNotFound, CodeNotFound, what+" not found")
}

func Invalid(message string) *Error {
	return NewError(http.StatusBadRequest, CodeInvalidInput, message)
}

var (
	ErrUnauthorized = NewError(http.StatusUnauthorized, CodeUnauthorized, "authentication required")
	ErrForbidden    = NewError(http.StatusForbidden, CodeForbidden, "admin rights required")
)

// ErrorCode returns the code carried by err, CodeInternal for foreign errors and
// "" for nil.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeInternal
}

// IsUnauthorized reports whether err means the caller must log in.
func IsUnauthorized(err error) bool {
	return ErrorCode(err) == CodeUnauthorized
}

// ErrorState records the last failure of a client. Implementations embed it.
type ErrorState struct {
	mu            sync.Mutex
	lastError     string
	lastErrorCode string
}

func (s *ErrorState) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError
}

func (s *ErrorState) LastErrorCode() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErrorCode
}

// Track clears the state on success and records err otherwise. It returns err.
func (s *ErrorState) Track(err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		s.lastError, s.lastErrorCode = "", ""
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		s.lastError, s.lastErrorCode = ae.Message, ae.Code
	} else {
		s.lastError, s.lastErrorCode = err.Error(), CodeInternal
	}
	return err
}
