package resource

import (
	"sync"
)

// UnifiedTable implements the Table interface using a LocalBackend for storage.
type UnifiedTable struct {
	backend   *LocalBackend
	observers []Observer
	obsMu     sync.RWMutex
	closed    bool
	closeMu   sync.RWMutex
}

// NewTable creates a new unified table with a LocalBackend.
func NewTable() *UnifiedTable {
	return &UnifiedTable{
		backend: NewLocalBackend(),
	}
}

// Insert adds a value and returns its handle.
func (t *UnifiedTable) Insert(typeID uint32, owner int64, value any) Handle {
	t.closeMu.RLock()
	if t.closed {
		t.closeMu.RUnlock()
		return 0
	}
	t.closeMu.RUnlock()

	handle, err := t.backend.Create(typeID, owner, value)
	if err != nil {
		return 0
	}

	t.notify(Event{
		Type:   EventCreated,
		Handle: handle,
		TypeID: typeID,
		Owner:  owner,
		Value:  value,
	})

	return handle
}

// Get retrieves a value by handle.
func (t *UnifiedTable) Get(handle Handle) (any, bool) {
	return t.backend.Get(handle)
}

// GetTyped retrieves a value only if it matches the expected type.
func (t *UnifiedTable) GetTyped(handle Handle, typeID uint32) (any, bool) {
	actualTypeID, ok := t.backend.TypeID(handle)
	if !ok || actualTypeID != typeID {
		return nil, false
	}
	return t.backend.Get(handle)
}

// Owner returns the owner recorded for a handle.
func (t *UnifiedTable) Owner(handle Handle) (int64, bool) {
	return t.backend.Owner(handle)
}

// Remove drops a slot and returns its value.
func (t *UnifiedTable) Remove(handle Handle) (any, error) {
	typeID, _ := t.backend.TypeID(handle)
	owner, _ := t.backend.Owner(handle)
	value, err := t.backend.Drop(handle)
	if err != nil {
		return nil, err
	}

	if d, ok := value.(Dropper); ok {
		d.Drop()
	}

	t.notify(Event{
		Type:   EventDropped,
		Handle: handle,
		TypeID: typeID,
		Owner:  owner,
		Value:  value,
	})

	return value, nil
}

// Borrow marks the slot as borrowed; Remove fails until every borrow returns.
func (t *UnifiedTable) Borrow(handle Handle) bool {
	if !t.backend.Borrow(handle) {
		return false
	}
	typeID, _ := t.backend.TypeID(handle)
	owner, _ := t.backend.Owner(handle)
	t.notify(Event{Type: EventBorrowed, Handle: handle, TypeID: typeID, Owner: owner})
	return true
}

// ReturnBorrow ends one borrow of the slot.
func (t *UnifiedTable) ReturnBorrow(handle Handle) bool {
	if !t.backend.ReturnBorrow(handle) {
		return false
	}
	typeID, _ := t.backend.TypeID(handle)
	owner, _ := t.backend.Owner(handle)
	t.notify(Event{Type: EventBorrowReturned, Handle: handle, TypeID: typeID, Owner: owner})
	return true
}

// Borrows returns the outstanding borrow count for a handle.
func (t *UnifiedTable) Borrows(handle Handle) uint32 {
	return t.backend.Borrows(handle)
}

// Subscribe adds an observer for lifecycle events.
func (t *UnifiedTable) Subscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	t.observers = append(t.observers, o)
}

// Unsubscribe removes an observer.
func (t *UnifiedTable) Unsubscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	for i, obs := range t.observers {
		if obs == o {
			t.observers = append(t.observers[:i], t.observers[i+1:]...)
			return
		}
	}
}

// Len returns the number of active slots.
func (t *UnifiedTable) Len() int {
	return t.backend.Len()
}

// CountTyped returns the number of active slots of the given type.
func (t *UnifiedTable) CountTyped(typeID uint32) int {
	count := 0
	t.backend.Each(func(_ Handle, tid uint32, _ int64, _ any) bool {
		if tid == typeID {
			count++
		}
		return true
	})
	return count
}

// Owned returns the handles of the given type held by owner.
func (t *UnifiedTable) Owned(typeID uint32, owner int64) []Handle {
	var handles []Handle
	t.backend.Each(func(h Handle, tid uint32, o int64, _ any) bool {
		if tid == typeID && o == owner {
			handles = append(handles, h)
		}
		return true
	})
	return handles
}

// Clear drops all slots. Borrowed slots are released first.
func (t *UnifiedTable) Clear() {
	// Collect handles first to avoid holding lock during Remove
	var handles []Handle
	t.backend.Each(func(h Handle, _ uint32, _ int64, _ any) bool {
		handles = append(handles, h)
		return true
	})
	for _, h := range handles {
		for t.backend.ReturnBorrow(h) {
		}
		_, _ = t.Remove(h)
	}
}

// Close releases all slots and stops accepting operations.
func (t *UnifiedTable) Close() error {
	t.closeMu.Lock()
	t.closed = true
	t.closeMu.Unlock()

	return t.backend.Close()
}

func (t *UnifiedTable) notify(e Event) {
	t.obsMu.RLock()
	defer t.obsMu.RUnlock()
	for _, o := range t.observers {
		o.OnResourceEvent(e)
	}
}

var _ Table = (*UnifiedTable)(nil)
