package ref

import (
	"go.uber.org/zap"

	"github.com/wippyai/hostref"
	"github.com/wippyai/hostref/errors"
)

// Class is a scoped class reference.
//
// Get returns a hostref.Class, never a hostref.Object; passing a class where
// an object is expected needs an explicit conversion.
type Class struct {
	LocalRef[hostref.Class]
}

// FindClass looks a class up by name. When the runtime does not know the
// class, the pending failure is described and cleared, and the returned
// wrapper is invalid. Check Valid before any further lookups.
func FindClass(env *Env, name string) *Class {
	c := &Class{}
	c.env = env
	c.ref = env.Interface().FindClass(name)
	if c.ref == 0 {
		drainFailure(env, errors.ClassNotFound(name))
	}
	return c
}

// ClassOf returns the runtime class of obj. obj stays owned by the caller.
func ClassOf(env *Env, obj hostref.Object) *Class {
	c := &Class{}
	c.env = env
	c.ref = env.Interface().GetObjectClass(obj)
	return c
}

// FieldID looks up an instance field. Returns 0 if not found.
func (c *Class) FieldID(name, sig string) hostref.FieldID {
	id := c.env.Interface().GetFieldID(c.ref, name, sig)
	if id == 0 {
		drainFailure(c.env, errors.FieldNotFound(name, sig))
	}
	return id
}

// StaticFieldID looks up a static field. Returns 0 if not found.
func (c *Class) StaticFieldID(name, sig string) hostref.FieldID {
	id := c.env.Interface().GetStaticFieldID(c.ref, name, sig)
	if id == 0 {
		drainFailure(c.env, errors.FieldNotFound(name, sig))
	}
	return id
}

// MethodID looks up an instance method. Returns 0 if not found.
func (c *Class) MethodID(name, sig string) hostref.MethodID {
	id := c.env.Interface().GetMethodID(c.ref, name, sig)
	if id == 0 {
		drainFailure(c.env, errors.MethodNotFound(name, sig))
	}
	return id
}

// StaticMethodID looks up a static method. Returns 0 if not found.
func (c *Class) StaticMethodID(name, sig string) hostref.MethodID {
	id := c.env.Interface().GetStaticMethodID(c.ref, name, sig)
	if id == 0 {
		drainFailure(c.env, errors.MethodNotFound(name, sig))
	}
	return id
}

// drainFailure reports and clears the runtime's pending failure, so that no
// later call observes it. failure describes the call that came back null and
// is only logged. Returns false if nothing was pending.
func drainFailure(env *Env, failure *errors.Error) bool {
	iface := env.Interface()
	exc := iface.ExceptionOccurred()
	if exc == 0 {
		return false
	}
	iface.ExceptionDescribe()
	iface.ExceptionClear()
	iface.DeleteLocalRef(hostref.Object(exc))

	Logger().Debug("pending failure drained", zap.Error(failure))
	return true
}
