package workset

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrRowNotFound = errors.New("row not found")
	ErrRowDeleted  = errors.New("row is marked for deletion")
	ErrClosed      = errors.New("workset is closed")
)

// ItemError describes why one operation of a batch was rejected.
type ItemError struct {
	ID      string
	Field   string
	Message string
}

func (e ItemError) String() string {
	if e.Field == "" {
		return e.ID + ": " + e.Message
	}
	return e.ID + "." + e.Field + ": " + e.Message
}

// ValidationError is returned by a Committer that rejected a batch before
// committing any of its operations.
type ValidationError struct {
	Message string
	Items   []ItemError
}

func (e *ValidationError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "batch rejected"
	}
	if len(e.Items) == 0 {
		return "validation: " + msg
	}
	parts := make([]string, len(e.Items))
	for i, item := range e.Items {
		parts[i] = item.String()
	}
	return fmt.Sprintf("validation: %s (%s)", msg, strings.Join(parts, "; "))
}

// RowIDs returns the distinct row ids named by the error items.
func (e *ValidationError) RowIDs() []string {
	seen := make(map[string]bool, len(e.Items))
	var ids []string
	for _, item := range e.Items {
		if item.ID == "" || seen[item.ID] {
			continue
		}
		seen[item.ID] = true
		ids = append(ids, item.ID)
	}
	return ids
}

// ErrorCode classifies save failures for display.
type ErrorCode string

const (
	ErrorValidation ErrorCode = "validation"
	ErrorTransport  ErrorCode = "transport"
	ErrorClosed     ErrorCode = "closed"
)

// SaveError wraps a failed batch commit.
type SaveError struct {
	Code ErrorCode
	Op   string
	Err  error
}

func (e *SaveError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return fmt.Sprintf("%s (%s): %v", e.Code, e.Op, e.Err)
}

func (e *SaveError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func wrapSaveError(op string, err error) error {
	if err == nil {
		return nil
	}
	code := ErrorTransport
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		code = ErrorValidation
	case errors.Is(err, ErrClosed):
		code = ErrorClosed
	}
	return &SaveError{Code: code, Op: op, Err: err}
}

// IsCode reports whether err (or any wrapped error) is a SaveError with the given code.
func IsCode(err error, code ErrorCode) bool {
	var saveErr *SaveError
	return errors.As(err, &saveErr) && saveErr.Code == code
}
