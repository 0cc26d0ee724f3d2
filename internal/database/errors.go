package database

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mrlokans/depot/internal/entities"
)

// ErrorCode classifies storage failures.
type ErrorCode string

const (
	CodeConnectionFailed     ErrorCode = "CONNECTION_FAILED"
	CodeNotConnected         ErrorCode = "NOT_CONNECTED"
	CodeTransactionFailed    ErrorCode = "TRANSACTION_FAILED"
	CodeRequestFailed        ErrorCode = "REQUEST_FAILED"
	CodeNoIndex              ErrorCode = "NO_INDEX"
	CodeInvalidBatch         ErrorCode = "INVALID_BATCH"
	CodeUnknownOperationType ErrorCode = "UNKNOWN_OPERATION_TYPE"
)

// CategoryDatabase is the category of every error raised by this package.
const CategoryDatabase = "DATABASE"

// Sentinels for errors.Is. Matching is done on the code only.
var (
	ErrConnectionFailed     = &Error{Code: CodeConnectionFailed}
	ErrNotConnected         = &Error{Code: CodeNotConnected}
	ErrTransactionFailed    = &Error{Code: CodeTransactionFailed}
	ErrRequestFailed        = &Error{Code: CodeRequestFailed}
	ErrNoIndex              = &Error{Code: CodeNoIndex}
	ErrInvalidBatch         = &Error{Code: CodeInvalidBatch}
	ErrUnknownOperationType = &Error{Code: CodeUnknownOperationType}
)

// ErrAborted is the cause recorded when a transaction was aborted on request.
var ErrAborted = errors.New("transaction aborted")

// Error is a structured storage error. Recoverable errors are transient
// (a reconnect or retry is reasonable), the others indicate caller bugs.
type Error struct {
	Code        ErrorCode
	Category    string
	Recoverable bool
	Message     string
	Stores      []entities.StoreName
	Mode        Mode
	Err         error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if len(e.Stores) > 0 {
		names := make([]string, len(e.Stores))
		for i, s := range e.Stores {
			names[i] = string(s)
		}
		fmt.Fprintf(&b, " [stores=%s", strings.Join(names, ","))
		if e.Mode != "" {
			fmt.Fprintf(&b, " mode=%s", e.Mode)
		}
		b.WriteString("]")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

func newError(code ErrorCode, recoverable bool, err error, format string, args ...any) *Error {
	return &Error{
		Code:        code,
		Category:    CategoryDatabase,
		Recoverable: recoverable,
		Message:     fmt.Sprintf(format, args...),
		Err:         err,
	}
}

func connectionFailed(err error, format string, args ...any) *Error {
	return newError(CodeConnectionFailed, true, err, format, args...)
}

func notConnected() *Error {
	return newError(CodeNotConnected, true, nil, "database is not connected")
}

func transactionFailed(err error, stores []entities.StoreName, mode Mode) *Error {
	e := newError(CodeTransactionFailed, true, err, "transaction did not commit")
	e.Stores = stores
	e.Mode = mode
	return e
}

func requestFailed(err error, format string, args ...any) *Error {
	return newError(CodeRequestFailed, true, err, format, args...)
}

// NoIndexError reports a lookup on a field that has no declared index.
func NoIndexError(store entities.StoreName, field string) *Error {
	return newError(CodeNoIndex, false, nil, "no index for field %q in store %s", field, store)
}

// InvalidBatchError reports a malformed batch descriptor.
func InvalidBatchError(format string, args ...any) *Error {
	return newError(CodeInvalidBatch, false, nil, format, args...)
}

// UnknownOperationTypeError reports an operation kind that cannot be executed.
func UnknownOperationTypeError(kind string) *Error {
	return newError(CodeUnknownOperationType, false, nil, "unknown operation type %q", kind)
}

// IsRecoverable reports whether err is a storage error worth retrying.
func IsRecoverable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Recoverable
	}
	return false
}
