// Package errors provides structured error types for the hostref module.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the symbol involved (class, field or method name), the
// offending handle, the thread the call was made on, and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseRelease, errors.KindStaleHandle).
//		Handle(uintptr(h)).
//		Thread(tid).
//		Detail("local reference already deleted").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.NotRegistered()
//	err := errors.WrongThread(errors.PhaseAccess, "GetIntField", owner, caller)
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
