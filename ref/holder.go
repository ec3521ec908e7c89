package ref

import (
	"github.com/wippyai/hostref"
)

// Holder is a non-owning view of a raw handle.
type Holder[T hostref.Handle] struct {
	_   noCopy
	ref T
}

// Get returns the raw handle without transferring ownership.
func (h *Holder[T]) Get() T {
	return h.ref
}

// Valid reports whether the handle is non-null.
func (h *Holder[T]) Valid() bool {
	return h.ref != 0
}

// LocalRef owns a scoped reference and deletes it on Close.
type LocalRef[T hostref.Handle] struct {
	Holder[T]
	env *Env
}

// NewLocalRef takes ownership of the scoped reference h.
func NewLocalRef[T hostref.Handle](env *Env, h T) *LocalRef[T] {
	r := &LocalRef[T]{env: env}
	r.ref = h
	return r
}

// Env returns the environment the reference was created in.
func (r *LocalRef[T]) Env() *Env {
	return r.env
}

// Close deletes the reference if it is still held. Safe to call repeatedly;
// only the first call on a non-null reference reaches the runtime.
func (r *LocalRef[T]) Close() {
	if r.ref == 0 {
		return
	}
	r.env.Interface().DeleteLocalRef(hostref.Object(r.ref))
	r.ref = 0
}

// Release hands the raw handle to the caller, who becomes responsible for
// deleting it. No runtime call is made and Close becomes a no-op.
func (r *LocalRef[T]) Release() T {
	h := r.ref
	r.ref = 0
	return h
}

// NewGlobalRef returns a new reference to the same object that survives the
// current scope. The caller owns it. The scoped reference is unaffected and
// is still deleted by Close.
func (r *LocalRef[T]) NewGlobalRef() T {
	return T(r.env.Interface().NewGlobalRef(hostref.Object(r.ref)))
}

// Promote is NewGlobalRef returning an owning wrapper.
func (r *LocalRef[T]) Promote() *Global[T] {
	return AdoptGlobal(r.NewGlobalRef())
}

// Global owns a long-lived reference. It is not tied to any Env; deleting it
// needs the Env of whichever thread does the deleting.
type Global[T hostref.Handle] struct {
	Holder[T]
}

// AdoptGlobal takes ownership of the long-lived reference h.
func AdoptGlobal[T hostref.Handle](h T) *Global[T] {
	g := &Global[T]{}
	g.ref = h
	return g
}

// Delete releases the reference through env. Repeated calls are no-ops.
func (g *Global[T]) Delete(env *Env) {
	if g.ref == 0 {
		return
	}
	env.Interface().DeleteGlobalRef(hostref.Object(g.ref))
	g.ref = 0
}

// Release hands the raw handle to the caller without deleting it.
func (g *Global[T]) Release() T {
	h := g.ref
	g.ref = 0
	return h
}
