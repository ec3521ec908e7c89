package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseRegister Phase = "register" // process registration
	PhaseAttach   Phase = "attach"   // thread attach/detach
	PhaseLookup   Phase = "lookup"   // class, field and method lookup
	PhaseDecode   Phase = "decode"   // string decoding
	PhaseRelease  Phase = "release"  // reference release and promotion
	PhaseAccess   Phase = "access"   // field and array access
	PhaseConfig   Phase = "config"   // host definition loading
	PhaseMemory   Phase = "memory"   // linear memory arena
)

// Kind categorizes the error
type Kind string

const (
	KindNotRegistered     Kind = "not_registered"
	KindAttach            Kind = "attach"
	KindDetach            Kind = "detach"
	KindVersion           Kind = "version"
	KindClassNotFound     Kind = "class_not_found"
	KindFieldNotFound     Kind = "field_not_found"
	KindMethodNotFound    Kind = "method_not_found"
	KindStaleHandle       Kind = "stale_handle"
	KindWrongThread       Kind = "wrong_thread"
	KindOutstandingBorrow Kind = "outstanding_borrow"
	KindTypeMismatch      Kind = "type_mismatch"
	KindOutOfBounds       Kind = "out_of_bounds"
	KindInvalidInput      Kind = "invalid_input"
	KindAllocation        Kind = "allocation"
	KindNotFound          Kind = "not_found"
	KindInvalidData       Kind = "invalid_data"
)

// Error is the structured error type used throughout the module
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Name   string
	Detail string
	Handle uintptr
	Thread int64
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Name != "" {
		b.WriteString(" ")
		b.WriteString(e.Name)
	}

	if e.Handle != 0 {
		fmt.Fprintf(&b, " handle=%#x", e.Handle)
	}
	if e.Thread != 0 {
		fmt.Fprintf(&b, " thread=%d", e.Thread)
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Name sets the symbol involved (class, field, method or operation name)
func (b *Builder) Name(name string) *Builder {
	b.err.Name = name
	return b
}

// Handle sets the offending handle
func (b *Builder) Handle(h uintptr) *Builder {
	b.err.Handle = h
	return b
}

// Thread sets the thread the failing call was made on
func (b *Builder) Thread(tid int64) *Builder {
	b.err.Thread = tid
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// NotRegistered reports an environment request before RegisterHost.
func NotRegistered() *Error {
	return &Error{
		Phase:  PhaseRegister,
		Kind:   KindNotRegistered,
		Detail: "no host runtime registered; call RegisterHost first",
	}
}

// AttachFailed reports that no interface could be obtained for the thread.
func AttachFailed(status fmt.Stringer) *Error {
	return &Error{
		Phase:  PhaseAttach,
		Kind:   KindAttach,
		Detail: fmt.Sprintf("failed to obtain thread interface: %s", status),
		Value:  status,
	}
}

// VersionUnsupported reports that the runtime does not offer the requested
// interface version.
func VersionUnsupported(version fmt.Stringer) *Error {
	return &Error{
		Phase:  PhaseAttach,
		Kind:   KindVersion,
		Detail: fmt.Sprintf("interface version %s not supported", version),
		Value:  version,
	}
}

// DetachFailed reports a failed detach of an owned attachment.
func DetachFailed(status fmt.Stringer) *Error {
	return &Error{
		Phase:  PhaseAttach,
		Kind:   KindDetach,
		Detail: fmt.Sprintf("failed to detach thread: %s", status),
		Value:  status,
	}
}

// ClassNotFound creates a class lookup failure
func ClassNotFound(name string) *Error {
	return &Error{
		Phase: PhaseLookup,
		Kind:  KindClassNotFound,
		Name:  name,
	}
}

// FieldNotFound creates a field lookup failure
func FieldNotFound(name, sig string) *Error {
	return &Error{
		Phase:  PhaseLookup,
		Kind:   KindFieldNotFound,
		Name:   name,
		Detail: fmt.Sprintf("signature %q", sig),
	}
}

// MethodNotFound creates a method lookup failure
func MethodNotFound(name, sig string) *Error {
	return &Error{
		Phase:  PhaseLookup,
		Kind:   KindMethodNotFound,
		Name:   name,
		Detail: fmt.Sprintf("signature %q", sig),
	}
}

// StaleHandle reports use of a handle that is null, freed or never issued.
func StaleHandle(phase Phase, op string, h uintptr) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindStaleHandle,
		Name:   op,
		Handle: h,
		Detail: "handle is not live",
	}
}

// WrongThread reports use of a thread-bound interface from another thread.
func WrongThread(phase Phase, op string, owner, caller int64) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindWrongThread,
		Name:   op,
		Thread: caller,
		Detail: fmt.Sprintf("interface belongs to thread %d", owner),
	}
}

// OutstandingBorrow reports deletion of a reference whose chars are still held.
func OutstandingBorrow(h uintptr) *Error {
	return &Error{
		Phase:  PhaseRelease,
		Kind:   KindOutstandingBorrow,
		Handle: h,
		Detail: "string chars must be released before the reference",
	}
}

// TypeMismatch creates a type mismatch error
func TypeMismatch(phase Phase, op string, want, got string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindTypeMismatch,
		Name:   op,
		Detail: fmt.Sprintf("expected %s, got %s", want, got),
	}
}

// OutOfBounds creates an out of bounds error
func OutOfBounds(phase Phase, op string, index, length int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Name:   op,
		Detail: fmt.Sprintf("index %d out of bounds (length %d)", index, length),
		Value:  index,
	}
}

// AllocationFailed creates an allocation failure error
func AllocationFailed(size uint32, cause error) *Error {
	return &Error{
		Phase:  PhaseMemory,
		Kind:   KindAllocation,
		Detail: fmt.Sprintf("failed to allocate %d bytes", size),
		Cause:  cause,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Name:   name,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, name, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Name:   name,
		Detail: detail,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
