package hostvm

import (
	"fmt"

	"github.com/wippyai/hostref/errors"
	"github.com/wippyai/hostref/resource"
)

// A reference handle packs the slot number above a two-bit slot type tag,
// so local and global handles never collide and a handle of the wrong kind
// is rejected before the table is consulted. Slots are reused, so a stale
// handle whose slot has been handed out again is not detected.
const tagBits = 2

func encode(slot resource.Handle, typeID uint32) uintptr {
	return uintptr(slot)<<tagBits | uintptr(typeID)
}

func decode(h uintptr) (resource.Handle, uint32) {
	return resource.Handle(h >> tagBits), uint32(h & (1<<tagBits - 1))
}

// newRef stores a reference to o and returns its handle, or 0 once the table
// is closed. Caller holds vm.mu.
func (vm *VM) newRef(typeID uint32, owner int64, o *object) uintptr {
	slot := vm.refs.Insert(typeID, owner, o)
	if slot == 0 {
		return 0
	}
	o.refs++
	return encode(slot, typeID)
}

// deref resolves a handle on behalf of t. A null handle yields nil without a
// violation; a stale or foreign handle yields nil and records one. Caller
// holds vm.mu.
func (t *Thread) deref(phase errors.Phase, op string, h uintptr) *object {
	if h == 0 {
		return nil
	}

	vm := t.vm
	slot, typeID := decode(h)
	v, ok := vm.refs.GetTyped(slot, typeID)
	if !ok {
		vm.violate(errors.StaleHandle(phase, op, h))
		return nil
	}
	if typeID == RefLocal {
		if owner, _ := vm.refs.Owner(slot); owner != t.id {
			vm.violate(errors.New(phase, errors.KindWrongThread).
				Name(op).
				Handle(h).
				Thread(t.id).
				Detail("local reference belongs to thread %d", owner).
				Build())
			return nil
		}
	}
	return v.(*object)
}

// object is deref for arguments that must not be null.
func (t *Thread) object(phase errors.Phase, op string, h uintptr) *object {
	if h == 0 {
		t.vm.violate(errors.InvalidInput(phase, fmt.Sprintf("%s: null reference", op)))
		return nil
	}
	return t.deref(phase, op, h)
}

// deleteRef removes the reference h of the given slot type. Caller holds
// vm.mu.
func (t *Thread) deleteRef(op string, typeID uint32, h uintptr) {
	if h == 0 {
		return
	}

	vm := t.vm
	slot, tag := decode(h)
	if tag != typeID {
		vm.violate(errors.StaleHandle(errors.PhaseRelease, op, h))
		return
	}
	if t.deref(errors.PhaseRelease, op, h) == nil {
		return
	}

	v, err := vm.refs.Remove(slot)
	if err == resource.ErrOutstandingBorrow {
		vm.violate(errors.OutstandingBorrow(h))
		return
	}
	if err != nil {
		vm.violate(errors.StaleHandle(errors.PhaseRelease, op, h))
		return
	}
	vm.unref(v.(*object))
}
