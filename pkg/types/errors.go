package types

import (
	"errors"
	"fmt"
)

// ErrorKind classifies analysis failures.
type ErrorKind string

const (
	UndefinedVariable       ErrorKind = "UndefinedVariable"
	DeclarationTypeMismatch ErrorKind = "DeclarationTypeMismatch"
	ArithmeticTypeError     ErrorKind = "ArithmeticTypeError"
	ComparisonTypeError     ErrorKind = "ComparisonTypeError"
	NotCallable             ErrorKind = "NotCallable"
	ArityMismatch           ErrorKind = "ArityMismatch"
	ArgumentTypeMismatch    ErrorKind = "ArgumentTypeMismatch"
	UnificationTypeMismatch ErrorKind = "UnificationTypeMismatch"
	UninferableExpression   ErrorKind = "UninferableExpression"
	RecursiveType           ErrorKind = "RecursiveType"
	UnknownOperator         ErrorKind = "UnknownOperator"
	InvalidNode             ErrorKind = "InvalidNode"
)

var errorKinds = []ErrorKind{
	UndefinedVariable,
	DeclarationTypeMismatch,
	ArithmeticTypeError,
	ComparisonTypeError,
	NotCallable,
	ArityMismatch,
	ArgumentTypeMismatch,
	UnificationTypeMismatch,
	UninferableExpression,
	RecursiveType,
	UnknownOperator,
	InvalidNode,
}

// IsValid reports whether the kind is recognised.
func (k ErrorKind) IsValid() bool {
	for _, known := range errorKinds {
		if k == known {
			return true
		}
	}
	return false
}

// Error is the single failure an analysis pass reports.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

// Errorf builds an *Error with a formatted message.
func Errorf(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the kind of an analysis error anywhere in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var typed *Error
	if errors.As(err, &typed) && typed != nil {
		return typed.Kind, true
	}
	return "", false
}

func IsKind(err error, kind ErrorKind) bool {
	got, ok := KindOf(err)
	return ok && got == kind
}
