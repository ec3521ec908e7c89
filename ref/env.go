package ref

import (
	"runtime"

	"go.uber.org/zap"

	"github.com/wippyai/hostref"
	"github.com/wippyai/hostref/errors"
)

// noCopy may be embedded into structs which must not be copied after first
// use. See go vet's copylocks check.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Env is the calling thread's attached interface into the host runtime.
//
// Create one at the top of a native entry point and Close it at the bottom.
// An Env must stay on the goroutine that created it and must outlive every
// wrapper built from it.
type Env struct {
	_      noCopy
	iface  hostref.Interface
	vm     hostref.VM
	detach bool
	locked bool
}

// NewEnv returns the interface of the calling thread, attaching the thread
// when it is not attached yet. The goroutine stays locked to its OS thread
// until Close.
//
// Returns a KindNotRegistered error if RegisterHost was never called, a
// KindVersion error if the runtime lacks RequiredVersion and a KindAttach
// error if no interface could be obtained. Both indicate a broken
// embedding rather than a condition to retry.
func NewEnv() (*Env, error) {
	vm := host
	if vm == nil {
		return nil, errors.NotRegistered()
	}

	runtime.LockOSThread()
	e := &Env{vm: vm, locked: true}

	iface, status := vm.GetEnv(RequiredVersion)
	if status == hostref.ErrVersion {
		runtime.UnlockOSThread()
		return nil, errors.VersionUnsupported(RequiredVersion)
	}
	if status == hostref.ErrDetached {
		iface, status = vm.AttachCurrentThread()
		if iface != nil {
			e.detach = true
		}
	}

	if status != hostref.OK || iface == nil {
		if e.detach {
			vm.DetachCurrentThread()
		}
		runtime.UnlockOSThread()
		return nil, errors.AttachFailed(status)
	}

	e.iface = iface
	if e.detach {
		Logger().Debug("attached thread")
	}
	return e, nil
}

// MustEnv is like NewEnv but panics on failure.
func MustEnv() *Env {
	e, err := NewEnv()
	if err != nil {
		panic(err)
	}
	return e
}

// WrapEnv wraps an interface handed in by the runtime, e.g. as the first
// argument of a native callback. The returned Env owns no attachment and
// Close never detaches.
func WrapEnv(iface hostref.Interface) *Env {
	return &Env{iface: iface}
}

// Interface returns the underlying thread interface. The caller must not keep
// it beyond the lifetime of e.
func (e *Env) Interface() hostref.Interface {
	return e.iface
}

// Owned reports whether Close will detach the thread.
func (e *Env) Owned() bool {
	return e.detach
}

// Close detaches the thread if this Env attached it and releases the
// goroutine's OS thread lock. Calling Close more than once is a no-op.
func (e *Env) Close() error {
	if e == nil {
		return nil
	}

	var err error
	if e.detach {
		e.detach = false
		if status := e.vm.DetachCurrentThread(); status != hostref.OK {
			err = errors.DetachFailed(status)
			Logger().Error("detach failed", zap.Stringer("status", status))
		} else {
			Logger().Debug("detached thread")
		}
	}

	if e.locked {
		e.locked = false
		runtime.UnlockOSThread()
	}
	return err
}
