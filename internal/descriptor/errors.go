package descriptor

import (
	"errors"
	"fmt"
)

// Kind classifies why a descriptor was excluded from activation.
type Kind string

const (
	KindMalformedDescriptor Kind = "MalformedDescriptor"
	KindUnresolvedReference Kind = "UnresolvedReference"
	KindIncompatiblePlugin  Kind = "IncompatiblePlugin"
)

var (
	ErrMalformedDescriptor = errors.New("malformed descriptor")
	ErrUnresolvedReference = errors.New("unresolved reference")
	ErrIncompatiblePlugin  = errors.New("incompatible plugin")

	// ErrDescriptorNotFound is wrapped by the MalformedDescriptor error Load
	// returns for a directory without any descriptor file.
	ErrDescriptorNotFound = errors.New("descriptor file not found")
)

func (k Kind) sentinel() error {
	switch k {
	case KindMalformedDescriptor:
		return ErrMalformedDescriptor
	case KindUnresolvedReference:
		return ErrUnresolvedReference
	case KindIncompatiblePlugin:
		return ErrIncompatiblePlugin
	}
	return nil
}

// Error is returned by every descriptor operation. Match it with errors.Is
// against the Err* sentinels or inspect Kind directly.
type Error struct {
	Kind    Kind
	Field   string // descriptor field the problem was found in, if any
	Path    string // file the problem refers to, if any
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Field != "" {
		msg += fmt.Sprintf(" (%s)", e.Field)
	}
	msg += ": " + e.Message
	if e.Path != "" {
		msg += fmt.Sprintf(" [%s]", e.Path)
	}
	if e.Cause != nil {
		msg += fmt.Sprintf(": %v", e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is the sentinel for this error's kind.
func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// KindOf returns the kind of the first descriptor error in err's chain.
func KindOf(err error) (Kind, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind, true
	}
	return "", false
}

func malformed(field, format string, args ...interface{}) *Error {
	return &Error{Kind: KindMalformedDescriptor, Field: field, Message: fmt.Sprintf(format, args...)}
}

func unresolved(field, path, message string, cause error) *Error {
	return &Error{Kind: KindUnresolvedReference, Field: field, Path: path, Message: message, Cause: cause}
}
